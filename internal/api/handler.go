// Package api provides the HTTP surface of qbo-bridge: OAuth endpoints,
// QBO proxy routes, the expense intake workflow, and upload sessions.
package api

import (
	"context"
	"errors"
	"log/slog"

	"github.com/pigeonworks-llc/qbo-bridge/internal/config"
	"github.com/pigeonworks-llc/qbo-bridge/internal/fault"
	"github.com/pigeonworks-llc/qbo-bridge/internal/oauth"
	"github.com/pigeonworks-llc/qbo-bridge/internal/qbo"
	"github.com/pigeonworks-llc/qbo-bridge/internal/resolver"
	"github.com/pigeonworks-llc/qbo-bridge/internal/upload"
	"github.com/pigeonworks-llc/qbo-bridge/internal/workflow"
)

// Handler bundles the components the HTTP routes dispatch into.
type Handler struct {
	cfg          *config.Config
	tokens       *oauth.Manager
	client       *qbo.Client
	resolver     *resolver.Resolver
	guard        *workflow.Guard
	orchestrator *workflow.Orchestrator
	uploads      *upload.Store
	logger       *slog.Logger
}

// NewHandler creates the API handler.
func NewHandler(
	cfg *config.Config,
	tokens *oauth.Manager,
	client *qbo.Client,
	res *resolver.Resolver,
	guard *workflow.Guard,
	orchestrator *workflow.Orchestrator,
	uploads *upload.Store,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		cfg:          cfg,
		tokens:       tokens,
		client:       client,
		resolver:     res,
		guard:        guard,
		orchestrator: orchestrator,
		uploads:      uploads,
		logger:       logger,
	}
}

// effectiveRealm picks the realm for a request: the connected credential's
// realm wins, falling back to the caller-supplied one.
func (h *Handler) effectiveRealm(ctx context.Context, requested string) (string, error) {
	realm, err := h.tokens.ConnectedRealm(ctx)
	if err == nil && realm != "" {
		return realm, nil
	}

	var fe *fault.Error
	if err != nil && !errors.As(err, &fe) {
		return "", err
	}
	if requested != "" {
		return requested, nil
	}
	return "", fault.Validation("realmId is required and no connected realm was found")
}
