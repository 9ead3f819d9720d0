package api

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/pigeonworks-llc/qbo-bridge/internal/fault"
	"github.com/pigeonworks-llc/qbo-bridge/internal/qbo"
	"github.com/pigeonworks-llc/qbo-bridge/internal/workflow"
)

type intakeFunding struct {
	Type        string   `json:"type"`
	AccountRef  *qbo.Ref `json:"accountRef,omitempty"`
	AccountName string   `json:"accountName,omitempty"`
}

type intakeReceipt struct {
	FileURL       string `json:"fileUrl,omitempty"`
	ContentBase64 string `json:"contentBase64,omitempty"`
	FileName      string `json:"fileName,omitempty"`
	Mime          string `json:"mime,omitempty"`
}

type intakeRequest struct {
	RealmID           string         `json:"realmId,omitempty"`
	Amount            float64        `json:"amount"`
	TxnDate           string         `json:"txnDate"`
	Currency          string         `json:"currency,omitempty"`
	VendorRef         *qbo.Ref       `json:"vendorRef,omitempty"`
	VendorName        string         `json:"vendorName,omitempty"`
	Memo              string         `json:"memo,omitempty"`
	CategoryName      string         `json:"categoryName,omitempty"`
	ExpenseAccountRef *qbo.Ref       `json:"expenseAccountRef,omitempty"`
	Funding           *intakeFunding `json:"funding"`
	Receipt           *intakeReceipt `json:"receipt,omitempty"`
}

func (req *intakeRequest) validate() error {
	if req.Amount <= 0 {
		return fault.Validation("amount must be positive")
	}
	if !datePattern.MatchString(req.TxnDate) {
		return fault.Validation("txnDate must be YYYY-MM-DD")
	}
	if req.Funding == nil {
		return fault.Validation("funding is required")
	}
	if req.Funding.Type != "Cash" && req.Funding.Type != "CreditCard" {
		return fault.Validation("funding.type must be Cash or CreditCard")
	}
	if req.Receipt != nil && req.Receipt.FileURL != "" {
		if _, err := url.ParseRequestURI(req.Receipt.FileURL); err != nil {
			return fault.Validation("receipt.fileUrl must be a valid URL")
		}
	}
	return nil
}

// ExpenseIntake handles POST /workflow/expense-intake: the full intake
// pipeline from expense description to a created-or-matched transaction
// with an optional receipt.
func (h *Handler) ExpenseIntake(w http.ResponseWriter, r *http.Request) {
	var req intakeRequest
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

	wfReq := &workflow.IntakeRequest{
		RealmID:           realmID,
		Amount:            req.Amount,
		TxnDate:           req.TxnDate,
		VendorRef:         req.VendorRef,
		VendorName:        req.VendorName,
		Memo:              req.Memo,
		CategoryName:      req.CategoryName,
		ExpenseAccountRef: req.ExpenseAccountRef,
		Funding: workflow.Funding{
			Type:        req.Funding.Type,
			AccountRef:  req.Funding.AccountRef,
			AccountName: req.Funding.AccountName,
		},
	}
	if req.Receipt != nil {
		wfReq.Receipt = &workflow.Receipt{
			FileURL:       req.Receipt.FileURL,
			ContentBase64: req.Receipt.ContentBase64,
			FileName:      req.Receipt.FileName,
			Mime:          req.Receipt.Mime,
		}
	}

	result, err := h.orchestrator.Intake(r.Context(), wfReq)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
