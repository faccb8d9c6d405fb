package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/velora-labs/velora-backend/pkg/config"
)

// CORS returns middleware that applies the API's allowed origin policy.
func CORS(cfg config.FrontendConfig) func(http.Handler) http.Handler {
	origins := cfg.Origins()
	if len(origins) == 0 {
		origins = []string{cfg.BaseURL}
	}

	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
