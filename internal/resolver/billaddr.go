package resolver

import "github.com/pigeonworks-llc/qbo-bridge/internal/qbo"

// NormalizeBillAddr maps tolerant billing-address key aliases onto the
// canonical QBO field names. Returns nil when no recognized field is set.
func NormalizeBillAddr(raw map[string]any) *qbo.BillAddr {
	if len(raw) == 0 {
		return nil
	}

	pick := func(keys ...string) string {
		for _, k := range keys {
			if v, ok := raw[k].(string); ok && v != "" {
				return v
			}
		}
		return ""
	}

	addr := &qbo.BillAddr{
		Line1:                  pick("Line1", "line1", "address1", "Address1", "street", "Street"),
		City:                   pick("City", "city"),
		CountrySubDivisionCode: pick("CountrySubDivisionCode", "countrySubdivisionCode", "State", "state", "Province", "province"),
		PostalCode:             pick("PostalCode", "postalCode", "Zip", "zip"),
	}

	if addr.Line1 == "" && addr.City == "" && addr.CountrySubDivisionCode == "" && addr.PostalCode == "" {
		return nil
	}
	return addr
}
