package api

import "net/http"

const launchPage = `<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="UTF-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1.0" />
    <title>QBO Bridge</title>
    <style>
      body { font-family: system-ui, -apple-system, Segoe UI, Roboto, sans-serif; margin: 2rem; color: #1f2937; }
      .card { max-width: 560px; padding: 1.5rem; border: 1px solid #e5e7eb; border-radius: 12px; }
      h1 { margin-top: 0; }
      a.button { display: inline-block; padding: 0.6rem 1.2rem; border-radius: 8px; background: #2ca01c; color: #fff; text-decoration: none; }
      .muted { color: #6b7280; }
    </style>
  </head>
  <body>
    <div class="card">
      <h1>QBO Bridge</h1>
      <p>Connect your QuickBooks Online company to record expenses and attach receipts.</p>
      <p><a class="button" href="/oauth/start">Connect to QuickBooks</a></p>
      <p class="muted"><a href="/legal/terms">Terms of Service</a> &middot; <a href="/legal/privacy">Privacy Policy</a></p>
    </div>
  </body>
</html>
`

const termsPage = `<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="UTF-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1.0" />
    <title>Terms of Service</title>
    <style>
      body { font-family: system-ui, -apple-system, Segoe UI, Roboto, sans-serif; margin: 2rem; color: #1f2937; max-width: 720px; }
    </style>
  </head>
  <body>
    <h1>Terms of Service</h1>
    <p>This service connects your QuickBooks Online company to an assistant so
    that expenses can be recorded and receipts attached on your behalf.</p>
    <p>The service is provided as is, without warranty of any kind. You are
    responsible for reviewing transactions created through it. Access tokens
    are used only to perform the actions you request and can be revoked at any
    time by disconnecting the company.</p>
  </body>
</html>
`

const privacyPage = `<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="UTF-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1.0" />
    <title>Privacy Policy</title>
    <style>
      body { font-family: system-ui, -apple-system, Segoe UI, Roboto, sans-serif; margin: 2rem; color: #1f2937; max-width: 720px; }
    </style>
  </head>
  <body>
    <h1>Privacy Policy</h1>
    <p>The service stores OAuth tokens needed to talk to QuickBooks Online and
    nothing else about your company. Transaction data passes through the
    service but is not retained. Receipt bytes held in an upload session are
    deleted once the upload finishes or is aborted.</p>
    <p>Tokens are deleted when you disconnect the company.</p>
  </body>
</html>
`

// Launch renders the landing page with the connect link.
func (h *Handler) Launch(w http.ResponseWriter, r *http.Request) {
	writeHTML(w, http.StatusOK, launchPage)
}

// Terms renders the terms of service page.
func (h *Handler) Terms(w http.ResponseWriter, r *http.Request) {
	writeHTML(w, http.StatusOK, termsPage)
}

// Privacy renders the privacy policy page.
func (h *Handler) Privacy(w http.ResponseWriter, r *http.Request) {
	writeHTML(w, http.StatusOK, privacyPage)
}
