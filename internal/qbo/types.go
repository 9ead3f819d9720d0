// Package qbo provides a QuickBooks Online API client and wire types.
package qbo

// Ref is a QBO entity reference.
type Ref struct {
	Value string `json:"value"`
	Name  string `json:"name,omitempty"`
}

// Vendor represents a QBO Vendor entity.
type Vendor struct {
	ID               string    `json:"Id,omitempty"`
	DisplayName      string    `json:"DisplayName"`
	PrimaryEmailAddr *Email    `json:"PrimaryEmailAddr,omitempty"`
	PrimaryPhone     *Phone    `json:"PrimaryPhone,omitempty"`
	BillAddr         *BillAddr `json:"BillAddr,omitempty"`
}

// Email wraps an email address field.
type Email struct {
	Address string `json:"Address"`
}

// Phone wraps a free-form phone number field.
type Phone struct {
	FreeFormNumber string `json:"FreeFormNumber"`
}

// BillAddr is a billing address on a vendor.
type BillAddr struct {
	Line1                  string `json:"Line1,omitempty"`
	City                   string `json:"City,omitempty"`
	CountrySubDivisionCode string `json:"CountrySubDivisionCode,omitempty"`
	PostalCode             string `json:"PostalCode,omitempty"`
}

// Account represents a QBO Account entity.
type Account struct {
	ID             string `json:"Id,omitempty"`
	Name           string `json:"Name"`
	AccountType    string `json:"AccountType,omitempty"`
	AccountSubType string `json:"AccountSubType,omitempty"`
	ParentRef      *Ref   `json:"ParentRef,omitempty"`
	SubAccount     bool   `json:"SubAccount,omitempty"`
}

// Customer represents a QBO Customer entity (lookups only).
type Customer struct {
	ID          string `json:"Id,omitempty"`
	DisplayName string `json:"DisplayName"`
}

// Purchase represents a QBO Purchase transaction.
type Purchase struct {
	ID          string         `json:"Id,omitempty"`
	TxnDate     string         `json:"TxnDate,omitempty"` // YYYY-MM-DD
	TotalAmt    float64        `json:"TotalAmt,omitempty"`
	PaymentType string         `json:"PaymentType,omitempty"` // Cash or CreditCard
	PrivateNote string         `json:"PrivateNote,omitempty"`
	AccountRef  *Ref           `json:"AccountRef,omitempty"`
	EntityRef   *Ref           `json:"EntityRef,omitempty"`
	Line        []PurchaseLine `json:"Line,omitempty"`
}

// PurchaseLine is a single line on a Purchase.
type PurchaseLine struct {
	Amount      float64            `json:"Amount"`
	Description string             `json:"Description,omitempty"`
	DetailType  string             `json:"DetailType"`
	Detail      *ExpenseLineDetail `json:"AccountBasedExpenseLineDetail,omitempty"`
}

// ExpenseLineDetail carries account-based expense line fields.
type ExpenseLineDetail struct {
	AccountRef     Ref    `json:"AccountRef"`
	CustomerRef    *Ref   `json:"CustomerRef,omitempty"`
	ClassRef       *Ref   `json:"ClassRef,omitempty"`
	TaxCodeRef     *Ref   `json:"TaxCodeRef,omitempty"`
	BillableStatus string `json:"BillableStatus,omitempty"`
}

// Attachable represents an uploaded attachment linked to a transaction.
type Attachable struct {
	ID            string          `json:"Id,omitempty"`
	FileName      string          `json:"FileName,omitempty"`
	Note          string          `json:"Note,omitempty"`
	AttachableRef []AttachableRef `json:"AttachableRef,omitempty"`
}

// AttachableRef links an attachable to an entity.
type AttachableRef struct {
	EntityRef EntityTypeRef `json:"EntityRef"`
}

// EntityTypeRef is a typed entity reference used in attachable metadata.
type EntityTypeRef struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// QueryResponse is the collection envelope returned by the query endpoint.
type QueryResponse struct {
	Vendor        []Vendor   `json:"Vendor,omitempty"`
	Account       []Account  `json:"Account,omitempty"`
	Customer      []Customer `json:"Customer,omitempty"`
	Purchase      []Purchase `json:"Purchase,omitempty"`
	StartPosition int        `json:"startPosition,omitempty"`
	MaxResults    int        `json:"maxResults,omitempty"`
}

// QueryResult is the top-level response from the query endpoint.
type QueryResult struct {
	QueryResponse QueryResponse `json:"QueryResponse"`
	Time          string        `json:"time,omitempty"`
}

// Fault is the structured error envelope returned by the QBO API.
type Fault struct {
	Type   string       `json:"type,omitempty"`
	Errors []FaultError `json:"Error,omitempty"`
}

// FaultError is a single entry in a fault envelope.
type FaultError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"Message,omitempty"`
	Detail  string `json:"Detail,omitempty"`
	Element string `json:"element,omitempty"`
}

// faultEnvelope matches the response body shape carrying a fault.
type faultEnvelope struct {
	Fault *Fault `json:"Fault,omitempty"`
}
