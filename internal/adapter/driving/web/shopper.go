package web

import (
	"crypto/rand"
	"encoding/binary"
	"net/http"
	"strconv"
)

const shopperCookieName = "shopper_id"

// shopperID returns the anonymous shopper identity from its cookie, issuing a
// new random one when absent or malformed. Sign-in is out of scope; the id
// only has to be stable per browser.
func shopperID(w http.ResponseWriter, r *http.Request, secure bool) int64 {
	if cookie, err := r.Cookie(shopperCookieName); err == nil {
		if id, err := strconv.ParseInt(cookie.Value, 10, 64); err == nil && id > 0 {
			return id
		}
	}

	id := generateShopperID()
	http.SetCookie(w, &http.Cookie{
		Name:     shopperCookieName,
		Value:    strconv.FormatInt(id, 10),
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
	})
	return id
}

// generateShopperID returns a random id in [1, 2^53) so it survives a round
// trip through JSON numbers unchanged.
func generateShopperID() int64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic("shopper: failed to generate id: " + err.Error())
	}
	return int64(binary.BigEndian.Uint64(b[:])>>11) | 1
}
