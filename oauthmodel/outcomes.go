package oauthmodel

import "net/url"

// CallbackOutcome is the terminal state of one OAuth callback. Every outcome is a redirect.
type CallbackOutcome string

const (
	OutcomeOAuthError     CallbackOutcome = "oauth_error"
	OutcomeNoCode         CallbackOutcome = "no_code"
	OutcomeExchangeFailed CallbackOutcome = "exchange_failed"
	OutcomeNoSession      CallbackOutcome = "no_session"
	OutcomeSuccess        CallbackOutcome = "success"
	OutcomeUnexpected     CallbackOutcome = "unexpected"
)

// ErrorPagePath renders callback failures.
const ErrorPagePath = "/auth/auth-code-error"

// Error codes carried to the error page. An authorization server error is passed through as sent.
const (
	ErrorCodeNoCode         = "no_code"
	ErrorCodeExchangeFailed = "exchange_failed"
	ErrorCodeNoSession      = "no_session"
	ErrorCodeUnexpected     = "unexpected"
)

const (
	DescriptionNoCode    = "No authorization code was returned by the provider"
	DescriptionNoSession = "The provider did not return a session"
)

// CallbackError is what the error page is told about a failed sign-in.
type CallbackError struct {
	Outcome     CallbackOutcome
	Code        string
	Description string
}

// Location is the error page URL, with code and description query-escaped.
func (e CallbackError) Location() string {
	query := url.Values{}
	query.Set("error", e.Code)
	query.Set("description", e.Description)
	return ErrorPagePath + "?" + query.Encode()
}
