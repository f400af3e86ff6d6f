package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

// idempotencyRecord is either a pending marker held while the first request
// runs or the captured response replayed to retries. Body is base64 on the
// wire through encoding/json. Claim is unique per request so a pending
// record identifies the request that owns it.
type idempotencyRecord struct {
	Pending     bool   `json:"pending,omitempty"`
	Claim       string `json:"claim,omitempty"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
	RequestHash string `json:"request_hash"`
}

func pendingRecord(fingerprint string) string {
	payload, _ := idempotencyRecord{Pending: true, Claim: uuid.NewString(), RequestHash: fingerprint}.encode()
	return payload
}

func (rec idempotencyRecord) encode() (string, error) {
	payload, err := json.Marshal(rec)
	return string(payload), err
}

func decodeRecord(payload string) (idempotencyRecord, error) {
	var rec idempotencyRecord
	err := json.Unmarshal([]byte(payload), &rec)
	return rec, err
}

func (rec idempotencyRecord) writeTo(w http.ResponseWriter) {
	if rec.ContentType != "" {
		w.Header().Set("Content-Type", rec.ContentType)
	}
	w.Header().Set(replayedHeader, "true")
	w.WriteHeader(rec.Status)
	_, _ = w.Write(rec.Body)
}

func hashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// responseCapture tees the response so it can be stored after the handler
// returns.
type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *responseCapture) WriteHeader(code int) {
	if c.status == 0 {
		c.status = code
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

// record reports false for 5xx responses, which are left retryable.
func (c *responseCapture) record(fingerprint string) (idempotencyRecord, bool) {
	status := c.status
	if status == 0 {
		status = http.StatusOK
	}
	if status >= http.StatusInternalServerError {
		return idempotencyRecord{}, false
	}
	return idempotencyRecord{
		Status:      status,
		ContentType: c.Header().Get("Content-Type"),
		Body:        bytes.Clone(c.body.Bytes()),
		RequestHash: fingerprint,
	}, true
}
