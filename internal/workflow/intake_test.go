package workflow

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pigeonworks-llc/qbo-bridge/internal/fault"
	"github.com/pigeonworks-llc/qbo-bridge/internal/qbo"
	"github.com/pigeonworks-llc/qbo-bridge/internal/resolver"
)

// fakeLedger emulates the accounting API endpoints the intake pipeline hits:
// entity queries, account reads, purchase creation, and uploads.
type fakeLedger struct {
	accounts         map[string]qbo.Account // by id
	accountsByName   map[string]qbo.Account
	vendorsByName    map[string]qbo.Vendor
	duplicates       []qbo.Purchase
	createdPurchases []qbo.Purchase
	createdVendors   int
	createdAccounts  int
	uploads          int
	uploadStatus     int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		accounts:       map[string]qbo.Account{},
		accountsByName: map[string]qbo.Account{},
		vendorsByName:  map[string]qbo.Vendor{},
		uploadStatus:   http.StatusOK,
	}
}

func (f *fakeLedger) addAccount(a qbo.Account) {
	f.accounts[a.ID] = a
	f.accountsByName[a.Name] = a
}

func (f *fakeLedger) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/query"):
			f.handleQuery(w, r)

		case strings.Contains(path, "/account/"):
			id := path[strings.LastIndex(path, "/")+1:]
			account, ok := f.accounts[id]
			if !ok {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"Fault":{"type":"ValidationFault","Error":[{"code":"610","Message":"Object Not Found"}]}}`))
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]qbo.Account{"Account": account})

		case strings.HasSuffix(path, "/purchase"):
			var p qbo.Purchase
			if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
				t.Fatalf("decoding purchase: %v", err)
			}
			p.ID = "p-created"
			if p.TotalAmt == 0 && len(p.Line) > 0 {
				p.TotalAmt = p.Line[0].Amount
			}
			f.createdPurchases = append(f.createdPurchases, p)
			_ = json.NewEncoder(w).Encode(map[string]qbo.Purchase{"Purchase": p})

		case strings.HasSuffix(path, "/vendor"):
			var v qbo.Vendor
			if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
				t.Fatalf("decoding vendor: %v", err)
			}
			v.ID = "v-created"
			f.createdVendors++
			f.vendorsByName[v.DisplayName] = v
			_ = json.NewEncoder(w).Encode(map[string]qbo.Vendor{"Vendor": v})

		case strings.HasSuffix(path, "/account"):
			var a qbo.Account
			if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
				t.Fatalf("decoding account: %v", err)
			}
			a.ID = "a-created"
			f.createdAccounts++
			f.addAccount(a)
			_ = json.NewEncoder(w).Encode(map[string]qbo.Account{"Account": a})

		case strings.HasSuffix(path, "/upload"):
			f.uploads++
			if f.uploadStatus != http.StatusOK {
				w.WriteHeader(f.uploadStatus)
				_, _ = w.Write([]byte(`{"Fault":{"type":"SystemFault","Error":[{"code":"500","Message":"upload failed"}]}}`))
				return
			}
			_, _ = w.Write([]byte(`{"AttachableResponse":[{"Attachable":{"Id":"att-1","FileName":"receipt.pdf"}}]}`))

		default:
			t.Errorf("unexpected request: %s %s", r.Method, path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func (f *fakeLedger) handleQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("query")
	resp := qbo.QueryResult{}
	switch {
	case strings.Contains(q, "FROM Purchase"):
		resp.QueryResponse.Purchase = append(append([]qbo.Purchase{}, f.duplicates...), f.createdPurchases...)
	case strings.Contains(q, "FROM Vendor"):
		for name, v := range f.vendorsByName {
			if strings.Contains(q, "'"+name+"'") {
				resp.QueryResponse.Vendor = append(resp.QueryResponse.Vendor, v)
			}
		}
	case strings.Contains(q, "FROM Account"):
		for name, a := range f.accountsByName {
			if strings.Contains(q, "'"+name+"'") {
				resp.QueryResponse.Account = append(resp.QueryResponse.Account, a)
			}
		}
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func newTestOrchestrator(t *testing.T, fake *fakeLedger) *Orchestrator {
	t.Helper()
	server := httptest.NewServer(fake.handler(t))
	t.Cleanup(server.Close)
	client := qbo.NewClient(qbo.ClientConfig{BaseURL: server.URL, Tokens: staticTokens{}})
	res := resolver.New(client, nil)
	return NewOrchestrator(client, res, NewGuard(client), nil)
}

func baseRequest() *IntakeRequest {
	return &IntakeRequest{
		RealmID: "realm-1",
		Amount:  42.5,
		TxnDate: "2024-03-10",
		Memo:    "Team lunch",
		Funding: Funding{Type: "CreditCard", AccountRef: &qbo.Ref{Value: "cc-1"}},
	}
}

func TestIntakeCreatesPurchase(t *testing.T) {
	fake := newFakeLedger()
	fake.addAccount(qbo.Account{ID: "cc-1", Name: "Company Card", AccountType: "Credit Card"})
	fake.addAccount(qbo.Account{ID: "exp-1", Name: "Supplies", AccountType: "Expense"})
	o := newTestOrchestrator(t, fake)

	result, err := o.Intake(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("Intake() error: %v", err)
	}

	if result.Status != "created" {
		t.Errorf("Status = %q, expected created", result.Status)
	}
	if result.Transaction.ID != "p-created" {
		t.Errorf("transaction id = %q", result.Transaction.ID)
	}
	if len(fake.createdPurchases) != 1 {
		t.Fatalf("created %d purchases, expected 1", len(fake.createdPurchases))
	}

	p := fake.createdPurchases[0]
	if p.PaymentType != "CreditCard" || p.AccountRef.Value != "cc-1" {
		t.Errorf("purchase = %+v", p)
	}
	if len(p.Line) != 1 || p.Line[0].Amount != 42.5 || p.Line[0].DetailType != "AccountBasedExpenseLineDetail" {
		t.Errorf("lines = %+v", p.Line)
	}
	if p.Line[0].Detail.AccountRef.Value != "exp-1" {
		t.Errorf("expense line should use the default Supplies category, got %+v", p.Line[0].Detail)
	}
}

func TestIntakeMatchesExistingPurchase(t *testing.T) {
	fake := newFakeLedger()
	fake.addAccount(qbo.Account{ID: "cc-1", Name: "Company Card", AccountType: "Credit Card"})
	fake.duplicates = []qbo.Purchase{{ID: "p-existing", TxnDate: "2024-03-09", TotalAmt: 42.5}}
	o := newTestOrchestrator(t, fake)

	result, err := o.Intake(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("Intake() error: %v", err)
	}

	if result.Status != "matched" {
		t.Errorf("Status = %q, expected matched", result.Status)
	}
	if result.Transaction.ID != "p-existing" {
		t.Errorf("transaction id = %q, expected p-existing", result.Transaction.ID)
	}
	if len(fake.createdPurchases) != 0 {
		t.Error("a matched intake must not create a purchase")
	}
}

func TestIntakeRepeatSubmissionMatches(t *testing.T) {
	fake := newFakeLedger()
	fake.addAccount(qbo.Account{ID: "cc-1", Name: "Company Card", AccountType: "Credit Card"})
	fake.addAccount(qbo.Account{ID: "exp-1", Name: "Supplies", AccountType: "Expense"})
	o := newTestOrchestrator(t, fake)

	first, err := o.Intake(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("first Intake() error: %v", err)
	}
	if first.Status != "created" {
		t.Fatalf("first Status = %q, expected created", first.Status)
	}

	second, err := o.Intake(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("second Intake() error: %v", err)
	}
	if second.Status != "matched" {
		t.Errorf("second Status = %q, expected matched", second.Status)
	}
	if second.Transaction.ID != first.Transaction.ID {
		t.Errorf("transaction id = %q, expected %q from the first submission", second.Transaction.ID, first.Transaction.ID)
	}
	if len(fake.createdPurchases) != 1 {
		t.Errorf("created %d purchases, expected only the first submission to create", len(fake.createdPurchases))
	}
}

func TestIntakeResolvesVendorByName(t *testing.T) {
	fake := newFakeLedger()
	fake.addAccount(qbo.Account{ID: "cc-1", Name: "Company Card", AccountType: "Credit Card"})
	fake.addAccount(qbo.Account{ID: "exp-1", Name: "Supplies", AccountType: "Expense"})
	o := newTestOrchestrator(t, fake)

	req := baseRequest()
	req.VendorName = "Corner Cafe"

	if _, err := o.Intake(context.Background(), req); err != nil {
		t.Fatalf("Intake() error: %v", err)
	}

	if fake.createdVendors != 1 {
		t.Errorf("created %d vendors, expected 1", fake.createdVendors)
	}
	if ref := fake.createdPurchases[0].EntityRef; ref == nil || ref.Value != "v-created" {
		t.Errorf("purchase EntityRef = %+v, expected the created vendor", ref)
	}
}

func TestIntakeFundingByName(t *testing.T) {
	fake := newFakeLedger()
	fake.addAccount(qbo.Account{ID: "bank-1", Name: "Checking", AccountType: "Bank"})
	fake.addAccount(qbo.Account{ID: "exp-1", Name: "Supplies", AccountType: "Expense"})
	o := newTestOrchestrator(t, fake)

	req := baseRequest()
	req.Funding = Funding{Type: "Cash", AccountName: "Checking"}

	result, err := o.Intake(context.Background(), req)
	if err != nil {
		t.Fatalf("Intake() error: %v", err)
	}
	if result.Status != "created" {
		t.Errorf("Status = %q", result.Status)
	}
	if ref := fake.createdPurchases[0].AccountRef; ref == nil || ref.Value != "bank-1" {
		t.Errorf("AccountRef = %+v, expected bank-1", ref)
	}
}

func TestIntakeMissingFunding(t *testing.T) {
	fake := newFakeLedger()
	o := newTestOrchestrator(t, fake)

	req := baseRequest()
	req.Funding = Funding{Type: "Cash", AccountName: "Nonexistent"}

	_, err := o.Intake(context.Background(), req)
	var fe *fault.Error
	if !errors.As(err, &fe) || fe.Kind != fault.KindValidation {
		t.Errorf("error = %v, expected a validation fault", err)
	}
}

func TestIntakeClassificationMismatch(t *testing.T) {
	fake := newFakeLedger()
	fake.addAccount(qbo.Account{ID: "bank-1", Name: "Checking", AccountType: "Bank"})
	o := newTestOrchestrator(t, fake)

	req := baseRequest()
	req.Funding = Funding{Type: "CreditCard", AccountRef: &qbo.Ref{Value: "bank-1"}}

	_, err := o.Intake(context.Background(), req)
	var fe *fault.Error
	if !errors.As(err, &fe) || fe.Kind != fault.KindClassificationMismatch {
		t.Fatalf("error = %v, expected a classification mismatch", err)
	}
	if fe.Detail["accountId"] != "bank-1" || fe.Detail["actualType"] != "Bank" {
		t.Errorf("Detail = %v", fe.Detail)
	}
	if len(fake.createdPurchases) != 0 {
		t.Error("mismatch must abort before creation")
	}
}

func TestIntakeCashAcceptsOtherCurrentAsset(t *testing.T) {
	fake := newFakeLedger()
	fake.addAccount(qbo.Account{ID: "petty-1", Name: "Petty Cash", AccountType: "Other Current Asset"})
	fake.addAccount(qbo.Account{ID: "exp-1", Name: "Supplies", AccountType: "Expense"})
	o := newTestOrchestrator(t, fake)

	req := baseRequest()
	req.Funding = Funding{Type: "Cash", AccountRef: &qbo.Ref{Value: "petty-1"}}

	if _, err := o.Intake(context.Background(), req); err != nil {
		t.Errorf("Intake() error: %v, expected Other Current Asset to pass for Cash", err)
	}
}

func TestIntakeAttachesReceipt(t *testing.T) {
	fake := newFakeLedger()
	fake.addAccount(qbo.Account{ID: "cc-1", Name: "Company Card", AccountType: "Credit Card"})
	fake.addAccount(qbo.Account{ID: "exp-1", Name: "Supplies", AccountType: "Expense"})
	o := newTestOrchestrator(t, fake)

	encoded := base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 receipt"))
	req := baseRequest()
	req.Receipt = &Receipt{
		ContentBase64: "data:application/pdf;base64," + encoded,
		FileName:      "receipt.pdf",
	}

	result, err := o.Intake(context.Background(), req)
	if err != nil {
		t.Fatalf("Intake() error: %v", err)
	}

	if result.Attachment == nil || result.Attachment.ID != "att-1" {
		t.Errorf("Attachment = %+v, expected att-1", result.Attachment)
	}
	if result.AttachmentError != nil {
		t.Errorf("AttachmentError = %v, expected nil", result.AttachmentError)
	}
	if fake.uploads != 1 {
		t.Errorf("uploads = %d, expected 1", fake.uploads)
	}
}

func TestIntakeAttachmentFailureIsSecondary(t *testing.T) {
	fake := newFakeLedger()
	fake.addAccount(qbo.Account{ID: "cc-1", Name: "Company Card", AccountType: "Credit Card"})
	fake.addAccount(qbo.Account{ID: "exp-1", Name: "Supplies", AccountType: "Expense"})
	fake.uploadStatus = http.StatusInternalServerError
	o := newTestOrchestrator(t, fake)

	encoded := base64.StdEncoding.EncodeToString([]byte("receipt"))
	req := baseRequest()
	req.Receipt = &Receipt{ContentBase64: encoded}

	result, err := o.Intake(context.Background(), req)
	if err != nil {
		t.Fatalf("Intake() error: %v, the transaction result must survive an upload failure", err)
	}

	if result.Status != "created" || result.Transaction.ID != "p-created" {
		t.Errorf("result = %+v, expected the created transaction", result)
	}
	if result.AttachmentError == nil {
		t.Fatal("expected a secondary attachment error")
	}
	if result.AttachmentError.Suggestions["retryWithoutReceipt"] != true {
		t.Errorf("Suggestions = %v, expected retry guidance", result.AttachmentError.Suggestions)
	}
}

func TestIntakeBadReceiptSourceIsSecondary(t *testing.T) {
	fake := newFakeLedger()
	fake.addAccount(qbo.Account{ID: "cc-1", Name: "Company Card", AccountType: "Credit Card"})
	fake.addAccount(qbo.Account{ID: "exp-1", Name: "Supplies", AccountType: "Expense"})
	o := newTestOrchestrator(t, fake)

	req := baseRequest()
	req.Receipt = &Receipt{ContentBase64: "!!! not base64 !!!"}

	result, err := o.Intake(context.Background(), req)
	if err != nil {
		t.Fatalf("Intake() error: %v", err)
	}
	if result.AttachmentError == nil || result.AttachmentError.Kind != fault.KindAttachmentFetch {
		t.Errorf("AttachmentError = %+v, expected attachment_fetch_error", result.AttachmentError)
	}
	if fake.uploads != 0 {
		t.Error("no upload expected for an undecodable receipt")
	}
}
