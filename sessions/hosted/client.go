package hosted

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/jrsteele09/go-credential-gateway/internal/errors"
	hostedoauth "github.com/jrsteele09/go-credential-gateway/oauth2"
	"github.com/jrsteele09/go-credential-gateway/sessions"
)

const (
	pathToken     = "/auth/v1/token"
	pathUser      = "/auth/v1/user"
	pathLogout    = "/auth/v1/logout"
	pathAuthorize = "/auth/v1/authorize"

	maxErrorBody = 64 << 10
)

// call performs a single request against the auth REST API and decodes a 2xx body into out.
// Non-2xx answers become *sessions.ProviderError wrapping class: ErrUnauthenticated for 4xx
// when class is nil, ErrUpstream otherwise.
func (p *Provider) call(ctx context.Context, method, path string, query url.Values, body any, bearer string, class error, out any) error {
	endpoint := p.cfg.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("[Hosted call] encoding body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("[Hosted call] building request: %w", err)
	}
	req.Header.Set("apikey", p.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return &sessions.ProviderError{Message: err.Error(), Err: errors.Join(errors.ErrUpstream, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return p.providerError(resp, class)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &sessions.ProviderError{
			StatusCode: resp.StatusCode,
			Message:    "unexpected response from auth server",
			Err:        errors.Join(errors.ErrUpstream, err),
		}
	}
	return nil
}

func (p *Provider) providerError(resp *http.Response, class error) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var body hostedoauth.ErrorResponse
	_ = json.Unmarshal(raw, &body)

	message := body.Message()
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	if class == nil {
		class = errors.ErrUpstream
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			class = errors.ErrUnauthenticated
		}
	}
	return &sessions.ProviderError{
		StatusCode: resp.StatusCode,
		Code:       body.Error,
		Message:    message,
		Err:        class,
	}
}
