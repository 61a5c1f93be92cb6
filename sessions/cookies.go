package sessions

import (
	"net/http"
	"time"
)

const (
	accessTokenSuffix  = "-access-token"
	refreshTokenSuffix = "-refresh-token"
	idTokenSuffix      = "-id-token"
	stateSuffix        = "-auth-state"
	verifierSuffix     = "-code-verifier"

	// signInCookieMaxAge bounds how long a browser has to complete the provider round trip
	signInCookieMaxAge = 10 * time.Minute
)

// StoredTokens are the raw session credentials read back from cookies.
type StoredTokens struct {
	AccessToken  string
	RefreshToken string
	IDToken      string
}

// Empty reports whether no session credential was present.
func (t StoredTokens) Empty() bool {
	return t.AccessToken == "" && t.RefreshToken == ""
}

// CookieCodec maps sessions to and from the cookie jar.
type CookieCodec struct {
	Prefix string
	Secure bool
	MaxAge time.Duration
}

// NewCookieCodec creates a codec writing cookies named <prefix>-access-token and so on.
func NewCookieCodec(prefix string, secure bool, maxAge time.Duration) CookieCodec {
	if prefix == "" {
		prefix = "sb"
	}
	return CookieCodec{Prefix: prefix, Secure: secure, MaxAge: maxAge}
}

func (c CookieCodec) AccessTokenName() string  { return c.Prefix + accessTokenSuffix }
func (c CookieCodec) RefreshTokenName() string { return c.Prefix + refreshTokenSuffix }
func (c CookieCodec) IDTokenName() string      { return c.Prefix + idTokenSuffix }
func (c CookieCodec) StateName() string        { return c.Prefix + stateSuffix }
func (c CookieCodec) VerifierName() string     { return c.Prefix + verifierSuffix }

// Encode returns the cookies that persist s. The ID token cookie is only written when present.
func (c CookieCodec) Encode(s *Session) []*http.Cookie {
	if s == nil {
		return c.Clear()
	}
	cookies := []*http.Cookie{
		c.cookie(c.AccessTokenName(), s.AccessToken, c.MaxAge),
		c.cookie(c.RefreshTokenName(), s.RefreshToken, c.MaxAge),
	}
	if s.IDToken != "" {
		cookies = append(cookies, c.cookie(c.IDTokenName(), s.IDToken, c.MaxAge))
	}
	return cookies
}

// Decode reads the session credentials out of a cookie list.
func (c CookieCodec) Decode(cookies []*http.Cookie) StoredTokens {
	return StoredTokens{
		AccessToken:  FindCookie(cookies, c.AccessTokenName()),
		RefreshToken: FindCookie(cookies, c.RefreshTokenName()),
		IDToken:      FindCookie(cookies, c.IDTokenName()),
	}
}

// Clear returns cookies that remove every session cookie from the browser.
func (c CookieCodec) Clear() []*http.Cookie {
	return []*http.Cookie{
		c.Expire(c.AccessTokenName()),
		c.Expire(c.RefreshTokenName()),
		c.Expire(c.IDTokenName()),
	}
}

// SignInCookies returns the short-lived cookies carrying OAuth state and the PKCE verifier.
func (c CookieCodec) SignInCookies(state, verifier string) []*http.Cookie {
	cookies := []*http.Cookie{c.cookie(c.VerifierName(), verifier, signInCookieMaxAge)}
	if state != "" {
		cookies = append(cookies, c.cookie(c.StateName(), state, signInCookieMaxAge))
	}
	return cookies
}

// ClearSignIn removes the sign-in cookies once the callback has consumed them.
func (c CookieCodec) ClearSignIn() []*http.Cookie {
	return []*http.Cookie{c.Expire(c.StateName()), c.Expire(c.VerifierName())}
}

// Expire returns a deletion cookie for name.
func (c CookieCodec) Expire(name string) *http.Cookie {
	cookie := c.cookie(name, "", 0)
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0)
	return cookie
}

func (c CookieCodec) cookie(name, value string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(maxAge.Seconds()),
	}
}

// FindCookie returns the value of the last cookie named name, or "".
// A deletion instruction (MaxAge < 0) counts as absent.
func FindCookie(cookies []*http.Cookie, name string) string {
	value := ""
	for _, c := range cookies {
		if c == nil || c.Name != name {
			continue
		}
		if c.MaxAge < 0 {
			value = ""
			continue
		}
		value = c.Value
	}
	return value
}
