package oauthmodel

import (
	"net/url"
	"strings"
)

// CallbackParameters are the query parameters the authorization server redirects back with.
type CallbackParameters struct {
	// Code is the authorization code to exchange. Absent when the provider reports an error.
	Code string
	// State is echoed back by OIDC providers and checked against the state cookie.
	State string
	// Error is the provider's error code, e.g. "access_denied".
	Error string
	// ErrorDescription is the provider's human readable explanation of Error.
	ErrorDescription string
	// Next is the application path to land on after sign-in. Defaults to "/".
	Next string
}

func ParseCallbackParameters(query url.Values) CallbackParameters {
	return CallbackParameters{
		Code:             query.Get("code"),
		State:            query.Get("state"),
		Error:            query.Get("error"),
		ErrorDescription: query.Get("error_description"),
		Next:             SafeNext(query.Get("next")),
	}
}

// SafeNext keeps next only when it is a path on this origin. Anything else, including
// protocol-relative "//host" forms, becomes "/".
func SafeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") {
		return "/"
	}
	if strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
