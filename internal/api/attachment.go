package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/pigeonworks-llc/qbo-bridge/internal/fault"
	"github.com/pigeonworks-llc/qbo-bridge/internal/qbo"
)

// Attachments are capped at 20 MB, matching the upload-session ceiling.
const maxAttachmentSize = 20 << 20

// UploadAttachment handles POST /qbo/attachment: a direct multipart upload
// linking a file to an existing transaction.
func (h *Handler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAttachmentSize+1<<20)
	if err := r.ParseMultipartForm(maxAttachmentSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, fault.SizeLimit("request body exceeds maximum size"))
			return
		}
		writeError(w, fault.Validation("failed to parse multipart form"))
		return
	}

	realmID := r.FormValue("realmId")
	txnID := r.FormValue("txnId")
	if realmID == "" || txnID == "" {
		writeError(w, fault.Validation("realmId and txnId are required"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, fault.Validation("file is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxAttachmentSize+1))
	if err != nil {
		writeError(w, err)
		return
	}
	if len(data) > maxAttachmentSize {
		writeError(w, fault.SizeLimit("file exceeds maximum size"))
		return
	}

	meta := &qbo.Attachable{
		Note: r.FormValue("note"),
		AttachableRef: []qbo.AttachableRef{
			{EntityRef: qbo.EntityTypeRef{Type: "Purchase", Value: txnID}},
		},
	}

	attachment, err := h.client.Upload(r.Context(), realmID, meta, data,
		header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"Attachable": attachment})
}
