// Package webhook handles function calls from the voice-assistant platform: decoding the
// call envelope, redacting it for logs and dispatching it to registered functions.
package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/jrsteele09/go-credential-gateway/internal/errors"
)

// maxEnvelopeBytes bounds the body read for one function call.
const maxEnvelopeBytes = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// Envelope is one inbound function call. Parameters stay raw so that key order survives
// credential stripping.
type Envelope struct {
	Name       string          `json:"name" validate:"required"`
	Parameters json.RawMessage `json:"parameters"`
}

// DecodeEnvelope reads and validates an envelope. It returns the raw body as well so the
// caller can log a redacted copy.
func DecodeEnvelope(r io.Reader) (Envelope, []byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, maxEnvelopeBytes))
	if err != nil {
		return Envelope{}, nil, fmt.Errorf("[webhook DecodeEnvelope] read: %w", errors.Join(errors.ErrMalformedBody, err))
	}

	var envelope Envelope
	decoder := json.NewDecoder(bytes.NewReader(body))
	if err := decoder.Decode(&envelope); err != nil {
		return Envelope{}, body, fmt.Errorf("[webhook DecodeEnvelope] %w", errors.Join(errors.ErrMalformedBody, err))
	}
	if err := validate.Struct(envelope); err != nil {
		return Envelope{}, body, fmt.Errorf("[webhook DecodeEnvelope] %w", errors.Join(errors.ErrMalformedBody, err))
	}
	return envelope, body, nil
}
