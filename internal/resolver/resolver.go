// Package resolver maps free-form vendor and account names to canonical
// remote entity references, creating missing entities on demand.
package resolver

import (
	"context"
	"fmt"

	"github.com/pigeonworks-llc/qbo-bridge/internal/qbo"
)

// Resolver performs find-or-create lookups against the accounting API.
//
// Lookups are exact-match on the display/name field. Two concurrent
// resolutions of the same unseen name may both miss and both create,
// yielding two entities with the same display name; callers tolerate this.
type Resolver struct {
	client  *qbo.Client
	mapping *Mapping
}

// New creates a Resolver. mapping may be nil, in which case every category
// gets the built-in default classification.
func New(client *qbo.Client, mapping *Mapping) *Resolver {
	return &Resolver{client: client, mapping: mapping}
}

// VendorInput describes a vendor to resolve or create.
type VendorInput struct {
	DisplayName string
	Email       string
	Phone       string
	BillAddr    *qbo.BillAddr
}

// Vendor resolves a vendor by display name, creating it when absent.
// The display name is sanitized before querying or creating because the
// remote service rejects certain characters.
func (r *Resolver) Vendor(ctx context.Context, realmID string, input VendorInput) (*qbo.Vendor, error) {
	name := CleanDisplayName(input.DisplayName)

	query := qbo.Select("Vendor", "Id", "DisplayName").
		WhereEq("DisplayName", name).
		Limit(1, 1).
		Build()

	result, err := r.client.Query(ctx, realmID, query)
	if err != nil {
		return nil, fmt.Errorf("vendor lookup failed: %w", err)
	}
	if len(result.QueryResponse.Vendor) > 0 {
		return &result.QueryResponse.Vendor[0], nil
	}

	vendor := &qbo.Vendor{DisplayName: name}
	if input.Email != "" {
		vendor.PrimaryEmailAddr = &qbo.Email{Address: input.Email}
	}
	if input.Phone != "" {
		vendor.PrimaryPhone = &qbo.Phone{FreeFormNumber: input.Phone}
	}
	vendor.BillAddr = input.BillAddr

	created, err := r.client.CreateVendor(ctx, realmID, vendor)
	if err != nil {
		return nil, err
	}
	return created, nil
}

// AccountInput describes an account to resolve or create.
type AccountInput struct {
	Name       string
	Type       string
	DetailType string
	ParentRef  *qbo.Ref
}

// Account resolves an account by exact name, creating it when absent.
// Unset type fields default to the category mapping's classification for
// the name.
func (r *Resolver) Account(ctx context.Context, realmID string, input AccountInput) (*qbo.Account, error) {
	query := qbo.Select("Account", "Id", "Name", "AccountType").
		WhereEq("Name", input.Name).
		Limit(1, 1).
		Build()

	result, err := r.client.Query(ctx, realmID, query)
	if err != nil {
		return nil, fmt.Errorf("account lookup failed: %w", err)
	}
	if len(result.QueryResponse.Account) > 0 {
		return &result.QueryResponse.Account[0], nil
	}

	cls := r.mapping.Classify(input.Name)
	accountType := input.Type
	if accountType == "" {
		accountType = cls.Type
	}
	detailType := input.DetailType
	if detailType == "" {
		detailType = cls.DetailType
	}

	account := &qbo.Account{
		Name:           input.Name,
		AccountType:    accountType,
		AccountSubType: detailType,
		ParentRef:      input.ParentRef,
	}
	if input.ParentRef != nil {
		account.SubAccount = true
	}

	created, err := r.client.CreateAccount(ctx, realmID, account)
	if err != nil {
		return nil, err
	}
	return created, nil
}

// FindAccountByName looks up an account by exact name without creating it.
// Returns (nil, nil) when no account matches.
func (r *Resolver) FindAccountByName(ctx context.Context, realmID, name string) (*qbo.Account, error) {
	query := qbo.Select("Account", "Id", "Name", "AccountType").
		WhereEq("Name", name).
		Limit(1, 1).
		Build()

	result, err := r.client.Query(ctx, realmID, query)
	if err != nil {
		return nil, fmt.Errorf("account lookup failed: %w", err)
	}
	if len(result.QueryResponse.Account) == 0 {
		return nil, nil
	}
	return &result.QueryResponse.Account[0], nil
}
