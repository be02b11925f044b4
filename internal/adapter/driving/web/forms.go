package web

import (
	"sync"

	"github.com/ericfisherdev/shopreviews/internal/application"
)

// formRegistry shares a ReviewForm between concurrent requests from the same
// shopper for the same product, so a double-posted form hits the form's
// in-flight guard instead of reaching the backend twice. Entries live only
// while at least one request holds them.
type formRegistry struct {
	mu    sync.Mutex
	forms map[string]*formEntry
}

type formEntry struct {
	form *application.ReviewForm
	refs int
}

func newFormRegistry() *formRegistry {
	return &formRegistry{forms: make(map[string]*formEntry)}
}

// acquire returns the form registered under key, creating it with newForm if
// no request holds one. The caller must call release when done.
func (fr *formRegistry) acquire(key string, newForm func() *application.ReviewForm) (form *application.ReviewForm, release func()) {
	fr.mu.Lock()
	defer fr.mu.Unlock()

	entry, ok := fr.forms[key]
	if !ok {
		entry = &formEntry{form: newForm()}
		fr.forms[key] = entry
	}
	entry.refs++

	var once sync.Once
	return entry.form, func() {
		once.Do(func() {
			fr.mu.Lock()
			defer fr.mu.Unlock()
			entry.refs--
			if entry.refs == 0 {
				delete(fr.forms, key)
			}
		})
	}
}

func (fr *formRegistry) size() int {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	return len(fr.forms)
}
