package fault

import "strings"

// Fault codes with known remediation guidance.
const (
	codeInvalidName  = "2040" // illegal character in a name field
	codeBusinessRule = "2010" // business validation, e.g. type/subtype conflict
)

const purchaseHint = "For Purchase: AccountRef must be a Bank or CreditCard account for the chosen paymentType; " +
	"VendorRef and all Line expenseAccountRef IDs must exist; omit TaxCodeRef unless configured."

const vendorHint = "For Vendor: DisplayName must not contain illegal characters (avoid colons and control characters); " +
	"BillAddr keys should be Line1, City, CountrySubDivisionCode, PostalCode; " +
	"email/phone map to PrimaryEmailAddr.Address and PrimaryPhone.FreeFormNumber."

// ApplyPurchaseHint annotates a structured fault from the purchase path with
// field guidance. Advisory only; the error is never retried automatically.
func ApplyPurchaseHint(e *Error) {
	if e.Fault != nil {
		e.Hint = purchaseHint
	}
}

// ApplyVendorHint annotates a structured fault from the vendor path, and when
// the fault reports an illegal DisplayName, suggests the sanitized variant.
func ApplyVendorHint(e *Error, original, sanitized string) {
	if e.Fault == nil {
		return
	}
	e.Hint = vendorHint

	for _, fe := range e.Fault.Errors {
		if fe.Code != codeInvalidName {
			continue
		}
		haystack := fe.Element + fe.Detail + fe.Message
		if !strings.Contains(strings.ToLower(haystack), "displayname") {
			continue
		}
		if sanitized != "" && sanitized != original {
			if e.Suggestions == nil {
				e.Suggestions = map[string]any{}
			}
			e.Suggestions["displayNameSanitized"] = sanitized
			e.Suggestions["reason"] = "DisplayName contained illegal characters; try sanitized variant."
		}
		return
	}
}

// ApplyAccountHint suggests a corrected AccountType when a business-rule
// fault indicates a *Cogs detail type paired with the wrong type.
func ApplyAccountHint(e *Error, accountType, detailType string) {
	if e.Fault == nil {
		return
	}

	has2010 := false
	for _, fe := range e.Fault.Errors {
		if fe.Code == codeBusinessRule {
			has2010 = true
			break
		}
	}
	if !has2010 {
		return
	}

	dt := strings.ToLower(detailType)
	t := strings.ToLower(accountType)
	if strings.Contains(dt, "cogs") && t != "cost of goods sold" {
		if e.Suggestions == nil {
			e.Suggestions = map[string]any{}
		}
		e.Suggestions["type"] = "Cost of Goods Sold"
		e.Suggestions["reason"] = `detailType *Cogs typically requires AccountType "Cost of Goods Sold"`
	}
}

// ApplyQueryHint suggests the correct name field when a structured query
// fault reports an invalid property on the two entities whose name fields
// are commonly confused: Vendor uses DisplayName, Account uses Name.
func ApplyQueryHint(e *Error, query string) {
	if e.Fault == nil {
		return
	}

	propertyError := false
	for _, fe := range e.Fault.Errors {
		if strings.Contains(strings.ToLower(fe.Detail+" "+fe.Message), "property") {
			propertyError = true
			break
		}
	}
	if !propertyError {
		return
	}

	ql := strings.ToLower(query)
	switch {
	case strings.Contains(ql, "from vendor") && strings.Contains(ql, "name") && !strings.Contains(ql, "displayname"):
		if e.Suggestions == nil {
			e.Suggestions = map[string]any{}
		}
		e.Suggestions["useField"] = "DisplayName"
		e.Suggestions["reason"] = "Vendor has no Name property; filter on DisplayName."
	case strings.Contains(ql, "from account") && strings.Contains(ql, "displayname"):
		if e.Suggestions == nil {
			e.Suggestions = map[string]any{}
		}
		e.Suggestions["useField"] = "Name"
		e.Suggestions["reason"] = "Account has no DisplayName property; filter on Name."
	}
}

// ApplyAttachmentHint records the retry guidance for a failed receipt upload.
func ApplyAttachmentHint(e *Error) {
	if e.Suggestions == nil {
		e.Suggestions = map[string]any{}
	}
	e.Suggestions["retryWithoutReceipt"] = true
	e.Suggestions["allowContentBase64"] = true
	e.Suggestions["reason"] = "Attachment failed; supply a web-accessible fileUrl or a contentBase64 payload."
}
