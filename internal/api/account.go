package api

import (
	"encoding/json"
	"net/http"

	"github.com/pigeonworks-llc/qbo-bridge/internal/fault"
	"github.com/pigeonworks-llc/qbo-bridge/internal/qbo"
	"github.com/pigeonworks-llc/qbo-bridge/internal/resolver"
)

type accountRequest struct {
	RealmID    string   `json:"realmId,omitempty"`
	Name       string   `json:"name"`
	Type       string   `json:"type,omitempty"`
	DetailType string   `json:"detailType,omitempty"`
	ParentRef  *qbo.Ref `json:"parentRef,omitempty"`
}

// UpsertAccount handles POST /qbo/account: find-or-create an account by
// exact name with a default Expense classification.
func (h *Handler) UpsertAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fault.Validation("invalid request body"))
		return
	}
	if req.Name == "" {
		writeError(w, fault.Validation("name is required"))
		return
	}

	realmID, err := h.effectiveRealm(r.Context(), req.RealmID)
	if err != nil {
		writeError(w, err)
		return
	}

	account, err := h.resolver.Account(r.Context(), realmID, resolver.AccountInput{
		Name:       req.Name,
		Type:       req.Type,
		DetailType: req.DetailType,
		ParentRef:  req.ParentRef,
	})
	if err != nil {
		fe := fault.Translate(err)
		fault.ApplyAccountHint(fe, req.Type, req.DetailType)
		writeJSON(w, fe.Status, fe)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"Account": map[string]any{"Id": account.ID, "Name": account.Name, "AccountType": account.AccountType},
	})
}
