package api

import (
	"encoding/json"
	"net/http"

	"github.com/pigeonworks-llc/qbo-bridge/internal/fault"
)

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError translates an error through the fault taxonomy and writes it.
// The body carries the machine-readable kind, a message, and any structured
// upstream detail plus remediation hints; never credential values or stack
// traces.
func writeError(w http.ResponseWriter, err error) {
	fe := fault.Translate(err)
	writeJSON(w, fe.Status, fe)
}

// writeHTML writes a static HTML page.
func writeHTML(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
