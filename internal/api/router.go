package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Router builds the chi router for the bridge.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/launch", h.Launch)
	r.Get("/legal/terms", h.Terms)
	r.Get("/legal/privacy", h.Privacy)

	r.Get("/oauth/start", h.OAuthStart)
	r.Get("/oauth/callback", h.OAuthCallback)

	r.Group(func(r chi.Router) {
		r.Use(RequireAPIKey(h.cfg.ActionAPIKey))

		r.Get("/qbo/query", h.Query)
		r.Post("/qbo/purchase", h.CreatePurchase)
		r.Post("/qbo/vendor", h.UpsertVendor)
		r.Post("/qbo/account", h.UpsertAccount)
		r.Post("/qbo/attachment", h.UploadAttachment)

		r.Get("/lookups/vendors", h.LookupVendors)
		r.Get("/lookups/accounts", h.LookupAccounts)
		r.Get("/lookups/customers", h.LookupCustomers)

		r.Post("/workflow/expense-intake", h.ExpenseIntake)

		r.Post("/upload/session/start", h.UploadStart)
		r.Post("/upload/session/append", h.UploadAppend)
		r.Post("/upload/session/finish", h.UploadFinish)
		r.Post("/upload/session/abort", h.UploadAbort)
	})

	return r
}
