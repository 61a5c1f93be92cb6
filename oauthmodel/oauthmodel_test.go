package oauthmodel_test

import (
	"net/url"
	"testing"

	"github.com/jrsteele09/go-credential-gateway/oauthmodel"
	"github.com/stretchr/testify/require"
)

func TestSafeNext(t *testing.T) {
	cases := map[string]string{
		"":                     "/",
		"/":                    "/",
		"/foo":                 "/foo",
		"/foo/bar?x=1":         "/foo/bar?x=1",
		"foo":                  "/",
		"https://evil.example": "/",
		"//evil.example/path":  "/",
		"/\\evil.example/path": "/",
		"javascript:alert(1)":  "/",
	}
	for in, want := range cases {
		require.Equal(t, want, oauthmodel.SafeNext(in), in)
	}
}

func TestParseCallbackParameters(t *testing.T) {
	params := oauthmodel.ParseCallbackParameters(url.Values{
		"code":              {"abc"},
		"error":             {"access_denied"},
		"error_description": {"User said no"},
	})
	require.Equal(t, "abc", params.Code)
	require.Equal(t, "access_denied", params.Error)
	require.Equal(t, "User said no", params.ErrorDescription)
	require.Equal(t, "/", params.Next)
}

func TestCallbackError_Location(t *testing.T) {
	location := oauthmodel.CallbackError{Code: "access_denied", Description: "User denied & left"}.Location()

	parsed, err := url.Parse(location)
	require.NoError(t, err)
	require.Equal(t, oauthmodel.ErrorPagePath, parsed.Path)
	require.Equal(t, "access_denied", parsed.Query().Get("error"))
	require.Equal(t, "User denied & left", parsed.Query().Get("description"))
	require.Equal(t, "/auth/auth-code-error?description=User+denied+%26+left&error=access_denied", location)
}
