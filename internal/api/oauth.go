package api

import (
	"net/http"

	"github.com/pigeonworks-llc/qbo-bridge/internal/fault"
	"github.com/pigeonworks-llc/qbo-bridge/internal/oauth"
)

const connectedPage = `<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="UTF-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1.0" />
    <title>QuickBooks Connected</title>
    <style>
      body { font-family: system-ui, -apple-system, Segoe UI, Roboto, sans-serif; margin: 2rem; color: #1f2937; }
      .card { max-width: 560px; padding: 1.5rem; border: 1px solid #e5e7eb; border-radius: 12px; }
      h1 { margin-top: 0; }
      .muted { color: #6b7280; }
    </style>
  </head>
  <body>
    <div class="card">
      <h1>QuickBooks Connected</h1>
      <p>Your QuickBooks Online account has been connected successfully.</p>
      <p class="muted">You can now return to the assistant and start using the actions.</p>
    </div>
  </body>
</html>
`

// OAuthStart handles GET /oauth/start: redirect to the identity provider's
// authorization page with a signed state token.
func (h *Handler) OAuthStart(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		userID = "default"
	}

	state, err := oauth.BuildState(userID, h.cfg.SessionSecret)
	if err != nil {
		writeError(w, err)
		return
	}

	http.Redirect(w, r, h.tokens.AuthCodeURL(state), http.StatusFound)
}

// OAuthCallback handles GET /oauth/callback: verify state, exchange the
// authorization code, persist the credential, and render a success page.
func (h *Handler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	realmID := r.URL.Query().Get("realmId")
	state := r.URL.Query().Get("state")
	if code == "" || realmID == "" || state == "" {
		writeError(w, fault.Validation("Missing code, state, or realmId"))
		return
	}

	if _, ok := oauth.VerifyState(state, h.cfg.SessionSecret); !ok {
		writeError(w, fault.Validation("Invalid OAuth state"))
		return
	}

	tok, err := h.tokens.Exchange(r.Context(), code)
	if err != nil {
		writeError(w, fault.UpstreamAuth(err))
		return
	}

	if err := h.tokens.SaveInitial(r.Context(), realmID, tok); err != nil {
		writeError(w, err)
		return
	}

	writeHTML(w, http.StatusOK, connectedPage)
}
