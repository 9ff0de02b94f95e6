package api

import (
	"net/http"

	"github.com/erazemk/zamrzovalnik/internal/rowstore"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(rs *rowstore.Store, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{Store: rs, JWTSecret: jwtSecret}
	rowsHandler := &RowsHandler{Store: rs}

	authMW := AuthMiddleware(jwtSecret, rs)

	// Public.
	mux.HandleFunc("POST /api/auth/signup", authHandler.SignUp)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("GET /api/health", health(rs))

	// Authenticated routes.
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("PUT /api/rows/{table}", authMW(http.HandlerFunc(rowsHandler.Upsert)))
	mux.Handle("GET /api/rows/{table}", authMW(http.HandlerFunc(rowsHandler.Since)))

	return mux
}

func health(rs *rowstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := rs.Ping(r.Context()); err != nil {
			jsonError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
