package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pigeonworks-llc/qbo-bridge/internal/fault"
	"github.com/pigeonworks-llc/qbo-bridge/internal/qbo"
	"github.com/pigeonworks-llc/qbo-bridge/internal/resolver"
)

const defaultCategoryName = "Supplies"

// Funding identifies the account a payment is drawn from, by reference or
// exact name.
type Funding struct {
	Type        string // Cash or CreditCard
	AccountRef  *qbo.Ref
	AccountName string
}

// IntakeRequest is a validated expense description handed in by the routing
// layer.
type IntakeRequest struct {
	RealmID           string
	Amount            float64
	TxnDate           string // YYYY-MM-DD
	VendorRef         *qbo.Ref
	VendorName        string
	Memo              string
	CategoryName      string
	ExpenseAccountRef *qbo.Ref
	Funding           Funding
	Receipt           *Receipt
}

// TransactionSummary is the terminal view of the created or matched
// transaction.
type TransactionSummary struct {
	ID       string  `json:"Id"`
	TotalAmt float64 `json:"TotalAmt"`
	TxnDate  string  `json:"TxnDate"`
}

// IntakeResult is the orchestrator's terminal output. AttachmentError is a
// secondary failure: the transaction result is always reported even when the
// receipt upload failed.
type IntakeResult struct {
	Status          string             `json:"status"` // created or matched
	Transaction     TransactionSummary `json:"Purchase"`
	Attachment      *qbo.Attachable    `json:"attachment,omitempty"`
	AttachmentError *fault.Error       `json:"attachmentError,omitempty"`
}

// Orchestrator runs the expense intake pipeline. Within one invocation the
// steps run strictly in sequence; across invocations no mutual exclusion is
// applied.
type Orchestrator struct {
	client   *qbo.Client
	resolver *resolver.Resolver
	guard    *Guard
	fetcher  *fetcher
	logger   *slog.Logger
}

// NewOrchestrator creates an intake orchestrator.
func NewOrchestrator(client *qbo.Client, res *resolver.Resolver, guard *Guard, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		client:   client,
		resolver: res,
		guard:    guard,
		fetcher:  newFetcher(),
		logger:   logger,
	}
}

// Intake turns an expense description into a created-or-matched purchase,
// optionally attaching a receipt. Resolution and validation failures abort
// the pipeline; duplicate-search failures are ignored; attachment failures
// are reported as a secondary error alongside the transaction result.
func (o *Orchestrator) Intake(ctx context.Context, req *IntakeRequest) (*IntakeResult, error) {
	vendorRef, err := o.resolveCounterparty(ctx, req)
	if err != nil {
		return nil, err
	}

	accountRef, err := o.resolveFunding(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := o.validateFundingType(ctx, req, accountRef); err != nil {
		return nil, err
	}

	search := o.guard.FindLikelyPurchase(ctx, req.RealmID, Candidate{
		Amount:           req.Amount,
		TxnDate:          req.TxnDate,
		VendorID:         refValue(vendorRef),
		FundingAccountID: refValue(req.Funding.AccountRef),
	})
	if search.Ignored != nil {
		o.logger.Warn("duplicate search failed, treating as no match", "error", search.Ignored)
	}

	matched := search.Match
	status := "matched"
	if matched == nil {
		created, err := o.createPurchase(ctx, req, vendorRef, accountRef)
		if err != nil {
			return nil, err
		}
		matched = created
		status = "created"
	}

	result := &IntakeResult{
		Status: status,
		Transaction: TransactionSummary{
			ID:       matched.ID,
			TotalAmt: matched.TotalAmt,
			TxnDate:  matched.TxnDate,
		},
	}

	if req.Receipt != nil && (req.Receipt.FileURL != "" || req.Receipt.ContentBase64 != "") {
		attachment, attachErr := o.attachReceipt(ctx, req, matched.ID)
		if attachErr != nil {
			// The transaction stands; surface the attachment failure as a
			// secondary error with retry guidance.
			fe := fault.Translate(attachErr)
			fault.ApplyAttachmentHint(fe)
			result.AttachmentError = fe
		} else {
			result.Attachment = attachment
		}
	}

	return result, nil
}

// resolveCounterparty returns the vendor reference, resolving by name when
// only a name is given. A missing counterparty is not fatal.
func (o *Orchestrator) resolveCounterparty(ctx context.Context, req *IntakeRequest) (*qbo.Ref, error) {
	if req.VendorRef != nil {
		return req.VendorRef, nil
	}
	if req.VendorName == "" {
		return nil, nil
	}

	vendor, err := o.resolver.Vendor(ctx, req.RealmID, resolver.VendorInput{DisplayName: req.VendorName})
	if err != nil {
		return nil, err
	}
	return &qbo.Ref{Value: vendor.ID}, nil
}

// resolveFunding returns the funding account reference. Absence is fatal.
func (o *Orchestrator) resolveFunding(ctx context.Context, req *IntakeRequest) (*qbo.Ref, error) {
	if req.Funding.AccountRef != nil {
		return req.Funding.AccountRef, nil
	}
	if req.Funding.AccountName != "" {
		account, err := o.resolver.FindAccountByName(ctx, req.RealmID, req.Funding.AccountName)
		if err != nil {
			return nil, err
		}
		if account != nil {
			return &qbo.Ref{Value: account.ID}, nil
		}
	}
	return nil, fault.Validation("funding.accountRef or funding.accountName is required")
}

// validateFundingType confirms the funding account's classification matches
// the declared payment type.
func (o *Orchestrator) validateFundingType(ctx context.Context, req *IntakeRequest, accountRef *qbo.Ref) error {
	account, err := o.client.GetAccount(ctx, req.RealmID, accountRef.Value)
	if err != nil {
		return err
	}

	var ok bool
	var want string
	if req.Funding.Type == "CreditCard" {
		ok = account.AccountType == "Credit Card"
		want = "Credit Card"
	} else {
		ok = account.AccountType == "Bank" || account.AccountType == "Other Current Asset"
		want = "Bank or Other Current Asset"
	}
	if !ok {
		msg := fmt.Sprintf("For funding.type=%s, accountRef must be a %s account", req.Funding.Type, want)
		return fault.ClassificationMismatch(msg, accountRef.Value, account.AccountType)
	}
	return nil
}

// createPurchase resolves the line category and submits a single-line
// purchase.
func (o *Orchestrator) createPurchase(ctx context.Context, req *IntakeRequest, vendorRef, accountRef *qbo.Ref) (*qbo.Purchase, error) {
	expenseRef := req.ExpenseAccountRef
	if expenseRef == nil {
		category := req.CategoryName
		if category == "" {
			category = defaultCategoryName
		}
		account, err := o.resolver.Account(ctx, req.RealmID, resolver.AccountInput{Name: category})
		if err != nil {
			return nil, err
		}
		expenseRef = &qbo.Ref{Value: account.ID}
	}

	purchase := &qbo.Purchase{
		TxnDate:     req.TxnDate,
		PaymentType: req.Funding.Type,
		PrivateNote: req.Memo,
		AccountRef:  accountRef,
		EntityRef:   vendorRef,
		Line: []qbo.PurchaseLine{
			{
				Amount:      req.Amount,
				Description: req.Memo,
				DetailType:  "AccountBasedExpenseLineDetail",
				Detail:      &qbo.ExpenseLineDetail{AccountRef: *expenseRef},
			},
		},
	}

	return o.client.CreatePurchase(ctx, req.RealmID, purchase)
}

// attachReceipt resolves the receipt source to bytes and uploads it bound to
// the transaction id.
func (o *Orchestrator) attachReceipt(ctx context.Context, req *IntakeRequest, txnID string) (*qbo.Attachable, error) {
	data, mime, err := o.fetcher.resolve(ctx, req.Receipt)
	if err != nil {
		return nil, fault.AttachmentFetch(err)
	}

	fileName := req.Receipt.FileName
	if fileName == "" {
		fileName = "receipt"
	}

	meta := &qbo.Attachable{
		Note: req.Memo,
		AttachableRef: []qbo.AttachableRef{
			{EntityRef: qbo.EntityTypeRef{Type: "Purchase", Value: txnID}},
		},
	}

	return o.client.Upload(ctx, req.RealmID, meta, data, fileName, mime)
}

func refValue(ref *qbo.Ref) string {
	if ref == nil {
		return ""
	}
	return ref.Value
}
