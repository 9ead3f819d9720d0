package api

import (
	"net/http"

	"github.com/pigeonworks-llc/qbo-bridge/internal/fault"
	"github.com/pigeonworks-llc/qbo-bridge/internal/qbo"
)

// Query handles GET /qbo/query: raw structured-query passthrough.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	realmID := r.URL.Query().Get("realmId")
	q := r.URL.Query().Get("q")
	if realmID == "" || q == "" {
		writeError(w, fault.Validation("realmId and q are required"))
		return
	}

	result, err := h.client.Query(r.Context(), realmID, q)
	if err != nil {
		fe := fault.Translate(err)
		fault.ApplyQueryHint(fe, q)
		writeJSON(w, fe.Status, fe)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// LookupVendors handles GET /lookups/vendors: name-contains vendor search.
func (h *Handler) LookupVendors(w http.ResponseWriter, r *http.Request) {
	h.lookup(w, r, func(name string) string {
		builder := qbo.Select("Vendor", "Id", "DisplayName")
		if name != "" {
			builder.WhereLike("DisplayName", name)
		}
		return builder.Limit(1, 50).Build()
	})
}

// LookupAccounts handles GET /lookups/accounts.
func (h *Handler) LookupAccounts(w http.ResponseWriter, r *http.Request) {
	h.lookup(w, r, func(name string) string {
		builder := qbo.Select("Account", "Id", "Name", "AccountType")
		if name != "" {
			builder.WhereLike("Name", name)
		}
		return builder.Limit(1, 50).Build()
	})
}

// LookupCustomers handles GET /lookups/customers.
func (h *Handler) LookupCustomers(w http.ResponseWriter, r *http.Request) {
	h.lookup(w, r, func(name string) string {
		builder := qbo.Select("Customer", "Id", "DisplayName")
		if name != "" {
			builder.WhereLike("DisplayName", name)
		}
		return builder.Limit(1, 50).Build()
	})
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request, buildQuery func(name string) string) {
	realmID := r.URL.Query().Get("realmId")
	if realmID == "" {
		writeError(w, fault.Validation("realmId is required"))
		return
	}

	result, err := h.client.Query(r.Context(), realmID, buildQuery(r.URL.Query().Get("name")))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
