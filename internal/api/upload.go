package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/pigeonworks-llc/qbo-bridge/internal/fault"
	"github.com/pigeonworks-llc/qbo-bridge/internal/qbo"
	"github.com/pigeonworks-llc/qbo-bridge/internal/upload"
)

type uploadStartRequest struct {
	RealmID  string `json:"realmId,omitempty"`
	TxnID    string `json:"txnId"`
	Note     string `json:"note,omitempty"`
	FileName string `json:"fileName"`
	Mime     string `json:"mime,omitempty"`
	MaxSize  int64  `json:"maxSize,omitempty"`
}

// UploadStart handles POST /upload/session/start: opens a chunked upload
// session bound to a transaction.
func (h *Handler) UploadStart(w http.ResponseWriter, r *http.Request) {
	var req uploadStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fault.Validation("invalid request body"))
		return
	}
	if req.TxnID == "" || req.FileName == "" {
		writeError(w, fault.Validation("txnId and fileName are required"))
		return
	}

	realmID, err := h.effectiveRealm(r.Context(), req.RealmID)
	if err != nil {
		writeError(w, err)
		return
	}

	if req.MaxSize > upload.DefaultMaxSize {
		writeError(w, fault.Validation("maxSize may not exceed 20 MB"))
		return
	}

	sess := &upload.Session{
		RealmID:  realmID,
		TxnID:    req.TxnID,
		Note:     req.Note,
		FileName: req.FileName,
		Mime:     req.Mime,
		MaxSize:  req.MaxSize,
	}
	id, err := h.uploads.Start(sess)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"sessionId": id, "maxSize": sess.MaxSize})
}

type uploadAppendRequest struct {
	SessionID   string `json:"sessionId"`
	ChunkBase64 string `json:"chunkBase64"`
}

// UploadAppend handles POST /upload/session/append: decodes one base64 chunk
// into the session's byte sink.
func (h *Handler) UploadAppend(w http.ResponseWriter, r *http.Request) {
	var req uploadAppendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fault.Validation("invalid request body"))
		return
	}
	if req.SessionID == "" || req.ChunkBase64 == "" {
		writeError(w, fault.Validation("sessionId and chunkBase64 are required"))
		return
	}

	chunk, err := base64.StdEncoding.DecodeString(strings.TrimSpace(req.ChunkBase64))
	if err != nil {
		writeError(w, fault.Validation("chunkBase64 is not valid base64"))
		return
	}

	size, err := h.uploads.Append(req.SessionID, chunk)
	if err != nil {
		if errors.Is(err, upload.ErrNotFound) {
			writeError(w, fault.Validation("unknown sessionId"))
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"sessionId": req.SessionID, "size": size})
}

type uploadFinishRequest struct {
	SessionID string `json:"sessionId"`
}

// UploadFinish handles POST /upload/session/finish: attaches the accumulated
// bytes to the session's transaction and discards the session.
func (h *Handler) UploadFinish(w http.ResponseWriter, r *http.Request) {
	var req uploadFinishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fault.Validation("invalid request body"))
		return
	}
	if req.SessionID == "" {
		writeError(w, fault.Validation("sessionId is required"))
		return
	}

	sess, err := h.uploads.Get(req.SessionID)
	if err != nil {
		if errors.Is(err, upload.ErrNotFound) {
			writeError(w, fault.Validation("unknown sessionId"))
			return
		}
		writeError(w, err)
		return
	}
	if sess.Size == 0 {
		writeError(w, fault.Validation("session has no data"))
		return
	}

	data, err := h.uploads.Data(req.SessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	meta := &qbo.Attachable{
		Note: sess.Note,
		AttachableRef: []qbo.AttachableRef{
			{EntityRef: qbo.EntityTypeRef{Type: "Purchase", Value: sess.TxnID}},
		},
	}
	attachment, err := h.client.Upload(r.Context(), sess.RealmID, meta, data, sess.FileName, sess.Mime)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.uploads.Delete(req.SessionID); err != nil {
		h.logger.Warn("failed to delete finished upload session", "session_id", req.SessionID, "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]any{"Attachable": attachment})
}

// UploadAbort handles POST /upload/session/abort: discards a session and its
// bytes.
func (h *Handler) UploadAbort(w http.ResponseWriter, r *http.Request) {
	var req uploadFinishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fault.Validation("invalid request body"))
		return
	}
	if req.SessionID == "" {
		writeError(w, fault.Validation("sessionId is required"))
		return
	}

	if err := h.uploads.Delete(req.SessionID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"aborted": true})
}
