package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/caldervale/ledgerline/internal/auth"
	"github.com/caldervale/ledgerline/internal/http/bulkpost"
	"github.com/caldervale/ledgerline/internal/http/ingestfeed"
	"github.com/caldervale/ledgerline/internal/http/invoice"
	"github.com/caldervale/ledgerline/internal/http/issue"
	"github.com/caldervale/ledgerline/internal/http/preflight"
	"github.com/caldervale/ledgerline/internal/http/vendors"
)

func New(
	authSecret string,
	invoicesV1 *invoice.Handler,
	ingestV1 *ingestfeed.Handler,
	preflightV1 *preflight.Handler,
	postingsV1 *bulkpost.Handler,
	issuesV1 *issue.Handler,
	vendorsV1 *vendor.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Verify(authSecret))

		r.Route("/invoices", func(r chi.Router) {
			invoicesV1.Routes(r)
		})

		r.Route("/ingest", ingestV1.Routes)

		r.Route("/preflight", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			preflightV1.Routes(r)
		})

		r.Route("/postings", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			postingsV1.Routes(r)
		})

		r.Route("/issues", func(r chi.Router) {
			issuesV1.Routes(r)
		})

		r.Route("/vendors", func(r chi.Router) {
			vendorsV1.Routes(r)
		})
	})

	return router
}
