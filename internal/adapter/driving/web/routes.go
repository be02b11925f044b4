package web

import (
	"io/fs"
	"net/http"
)

// RegisterRoutes registers the storefront routes on the provided mux.
// Static assets are served from the embedded filesystem at /static/*.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	staticFS, _ := fs.Sub(StaticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	mux.HandleFunc("GET /{$}", h.Index)
	mux.HandleFunc("GET /products/{id}", h.ProductPage)
	mux.HandleFunc("POST /products/{id}/reviews", h.SubmitReview)
	mux.HandleFunc("POST /products/{id}/reviews/{reviewID}/vote", h.Vote)
	mux.HandleFunc("POST /products/{id}/purchase", h.Purchase)
	mux.HandleFunc("GET /health", h.Health)
}
