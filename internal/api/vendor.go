package api

import (
	"encoding/json"
	"net/http"

	"github.com/pigeonworks-llc/qbo-bridge/internal/fault"
	"github.com/pigeonworks-llc/qbo-bridge/internal/resolver"
)

type vendorRequest struct {
	RealmID     string         `json:"realmId,omitempty"`
	DisplayName string         `json:"displayName"`
	Email       string         `json:"email,omitempty"`
	Phone       string         `json:"phone,omitempty"`
	BillAddr    map[string]any `json:"billAddr,omitempty"`
}

// UpsertVendor handles POST /qbo/vendor: find-or-create a vendor by display
// name.
func (h *Handler) UpsertVendor(w http.ResponseWriter, r *http.Request) {
	var req vendorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fault.Validation("invalid request body"))
		return
	}
	if req.DisplayName == "" {
		writeError(w, fault.Validation("displayName is required"))
		return
	}

	realmID, err := h.effectiveRealm(r.Context(), req.RealmID)
	if err != nil {
		writeError(w, err)
		return
	}

	vendor, err := h.resolver.Vendor(r.Context(), realmID, resolver.VendorInput{
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Phone:       req.Phone,
		BillAddr:    resolver.NormalizeBillAddr(req.BillAddr),
	})
	if err != nil {
		fe := fault.Translate(err)
		fault.ApplyVendorHint(fe, req.DisplayName, resolver.CleanDisplayName(req.DisplayName))
		writeJSON(w, fe.Status, fe)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"Vendor": map[string]any{"Id": vendor.ID, "DisplayName": vendor.DisplayName},
	})
}
