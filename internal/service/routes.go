package service

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/mmynk/storefront/internal/auth"
	"github.com/mmynk/storefront/internal/metrics"
	"github.com/mmynk/storefront/internal/middleware"
)

// Routes builds the HTTP handler for every API route.
// staticDir may be empty, in which case no static files are served.
func Routes(authSvc *AuthService, contactSvc *ContactService, jwtManager *auth.JWTManager, m *metrics.Metrics, staticDir string) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/register", authSvc.Register)
	mux.HandleFunc("POST /api/auth/login", authSvc.Login)
	mux.HandleFunc("POST /api/auth/logout", authSvc.Logout)
	mux.HandleFunc("GET /api/auth/session", authSvc.Session)

	mux.HandleFunc("POST /api/contact", contactSvc.Submit)

	admin := middleware.RequireAuth(jwtManager, func(w http.ResponseWriter, _ *http.Request, err error) {
		writeError(w, err)
	})
	mux.Handle("GET /api/admin/messages", admin(http.HandlerFunc(contactSvc.List)))
	mux.Handle("POST /api/admin/messages/seed", admin(http.HandlerFunc(contactSvc.Seed)))
	mux.Handle("DELETE /api/admin/messages/{id}", admin(http.HandlerFunc(contactSvc.Delete)))
	mux.Handle("DELETE /api/admin/messages", admin(http.HandlerFunc(contactSvc.Clear)))

	mux.Handle("GET /metrics", m.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if staticDir != "" {
		mux.Handle("GET /", staticHandler(staticDir))
	}
	return mux
}

// staticHandler serves files from dir, falling back to index.html for
// unknown paths so client-side routes resolve.
func staticHandler(dir string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}

		urlPath := r.URL.Path
		if urlPath == "/" {
			urlPath = "/index.html"
		}

		filePath := filepath.Join(dir, filepath.Clean(urlPath))
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
			return
		}
		http.ServeFile(w, r, filePath)
	})
}
