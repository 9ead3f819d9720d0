package api

import (
	"encoding/json"
	"net/http"
	"regexp"

	"github.com/pigeonworks-llc/qbo-bridge/internal/fault"
	"github.com/pigeonworks-llc/qbo-bridge/internal/qbo"
	"github.com/pigeonworks-llc/qbo-bridge/internal/resolver"
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

type purchaseLineRequest struct {
	Amount            float64  `json:"amount"`
	Description       string   `json:"description,omitempty"`
	ExpenseAccountRef *qbo.Ref `json:"expenseAccountRef"`
	CustomerRef       *qbo.Ref `json:"customerRef,omitempty"`
	ClassRef          *qbo.Ref `json:"classRef,omitempty"`
	TaxCodeRef        *qbo.Ref `json:"taxCodeRef,omitempty"`
	BillableStatus    string   `json:"billableStatus,omitempty"`
}

type purchaseRequest struct {
	RealmID     string                `json:"realmId,omitempty"`
	PaymentType string                `json:"paymentType"`
	AccountRef  *qbo.Ref              `json:"accountRef"`
	VendorRef   *qbo.Ref              `json:"vendorRef,omitempty"`
	VendorName  string                `json:"vendorName,omitempty"`
	TxnDate     string                `json:"txnDate"`
	PrivateNote string                `json:"privateNote,omitempty"`
	Lines       []purchaseLineRequest `json:"lines"`
}

func (p *purchaseRequest) validate() error {
	if p.PaymentType != "Cash" && p.PaymentType != "CreditCard" {
		return fault.Validation("paymentType must be Cash or CreditCard")
	}
	if p.AccountRef == nil || p.AccountRef.Value == "" {
		return fault.Validation("accountRef is required")
	}
	if !datePattern.MatchString(p.TxnDate) {
		return fault.Validation("txnDate must be YYYY-MM-DD")
	}
	if len(p.Lines) == 0 {
		return fault.Validation("at least one line is required")
	}
	for _, line := range p.Lines {
		if line.Amount <= 0 {
			return fault.Validation("line amount must be positive")
		}
		if line.ExpenseAccountRef == nil || line.ExpenseAccountRef.Value == "" {
			return fault.Validation("line expenseAccountRef is required")
		}
	}
	if p.VendorRef == nil && p.VendorName == "" {
		return fault.Validation("Provide vendorRef or vendorName")
	}
	return nil
}

// CreatePurchase handles POST /qbo/purchase: direct single-transaction
// creation guarded by a duplicate check. Unlike the intake workflow, a
// duplicate here is a hard 409, not a reuse.
func (h *Handler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fault.Validation("invalid request body"))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, err)
		return
	}

	realmID, err := h.effectiveRealm(r.Context(), req.RealmID)
	if err != nil {
		writeError(w, err)
		return
	}

	vendorRef := req.VendorRef
	if vendorRef == nil {
		vendor, err := h.resolver.Vendor(r.Context(), realmID, resolver.VendorInput{DisplayName: req.VendorName})
		if err != nil {
			writeError(w, err)
			return
		}
		vendorRef = &qbo.Ref{Value: vendor.ID}
	}

	var total float64
	for _, line := range req.Lines {
		total += line.Amount
	}

	// Duplicate check on exact date, total, and vendor. Failures are
	// non-fatal: creation proceeds as if no match was found.
	dupQuery := qbo.Select("Purchase", "Id").
		WhereEq("TxnDate", req.TxnDate).
		WhereAmount("TotalAmt", total).
		WhereEq("EntityRef", vendorRef.Value).
		Build()
	if dupResult, err := h.client.Query(r.Context(), realmID, dupQuery); err != nil {
		h.logger.Warn("duplicate check failed, proceeding with creation", "error", err)
	} else if rows := dupResult.QueryResponse.Purchase; len(rows) > 0 {
		writeError(w, fault.DuplicateDetected(rows[0].ID))
		return
	}

	purchase := &qbo.Purchase{
		TxnDate:     req.TxnDate,
		PaymentType: req.PaymentType,
		PrivateNote: req.PrivateNote,
		AccountRef:  req.AccountRef,
		EntityRef:   vendorRef,
	}
	for _, line := range req.Lines {
		purchase.Line = append(purchase.Line, qbo.PurchaseLine{
			Amount:      line.Amount,
			Description: line.Description,
			DetailType:  "AccountBasedExpenseLineDetail",
			Detail: &qbo.ExpenseLineDetail{
				AccountRef:     *line.ExpenseAccountRef,
				CustomerRef:    line.CustomerRef,
				ClassRef:       line.ClassRef,
				TaxCodeRef:     line.TaxCodeRef,
				BillableStatus: line.BillableStatus,
			},
		})
	}

	created, err := h.client.CreatePurchase(r.Context(), realmID, purchase)
	if err != nil {
		fe := fault.Translate(err)
		fault.ApplyPurchaseHint(fe)
		writeJSON(w, fe.Status, fe)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"Purchase": created})
}
