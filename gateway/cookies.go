package gateway

import (
	"net/http"
	"strings"
	"time"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// CookieOverlay is the request-scoped cookie view. Session renewals applied to it are
// visible to every handler that runs later in the same request.
type CookieOverlay struct {
	cookies []*http.Cookie
}

// NewCookieOverlay starts from the cookies the browser sent.
func NewCookieOverlay(r *http.Request) *CookieOverlay {
	return &CookieOverlay{cookies: r.Cookies()}
}

// Set replaces any cookie with the same name. A deletion instruction, a negative MaxAge
// or an Expires already in the past, removes it.
func (o *CookieOverlay) Set(cookie *http.Cookie) {
	if cookie == nil {
		return
	}
	kept := o.cookies[:0]
	for _, c := range o.cookies {
		if c.Name != cookie.Name {
			kept = append(kept, c)
		}
	}
	o.cookies = kept
	if deletes(cookie) {
		return
	}
	o.cookies = append(o.cookies, &http.Cookie{Name: cookie.Name, Value: cookie.Value})
}

func deletes(cookie *http.Cookie) bool {
	if cookie.MaxAge < 0 {
		return true
	}
	return cookie.MaxAge == 0 && !cookie.Expires.IsZero() && cookie.Expires.Before(NowTimeFunc())
}

// Cookies returns the current view.
func (o *CookieOverlay) Cookies() []*http.Cookie {
	return append([]*http.Cookie(nil), o.cookies...)
}

// Header renders the view as a Cookie request header value.
func (o *CookieOverlay) Header() string {
	parts := make([]string, 0, len(o.cookies))
	for _, c := range o.cookies {
		parts = append(parts, (&http.Cookie{Name: c.Name, Value: c.Value}).String())
	}
	return strings.Join(parts, "; ")
}

// Apply rewrites r's Cookie header so downstream r.Cookie calls see the overlay.
func (o *CookieOverlay) Apply(r *http.Request) {
	r.Header.Del("Cookie")
	if header := o.Header(); header != "" {
		r.Header.Set("Cookie", header)
	}
}

// ResponseCookies is the set of Set-Cookie instructions for the client's next request.
// One instruction per name survives; a later Set for the same name replaces the earlier one.
type ResponseCookies struct {
	cookies []*http.Cookie
}

func NewResponseCookies() *ResponseCookies {
	return &ResponseCookies{}
}

func (rc *ResponseCookies) Set(cookie *http.Cookie) {
	if cookie == nil {
		return
	}
	for i, c := range rc.cookies {
		if c.Name == cookie.Name {
			rc.cookies[i] = cookie
			return
		}
	}
	rc.cookies = append(rc.cookies, cookie)
}

func (rc *ResponseCookies) Cookies() []*http.Cookie {
	return append([]*http.Cookie(nil), rc.cookies...)
}

// Write emits one Set-Cookie header per instruction. Must run before the header is written.
func (rc *ResponseCookies) Write(w http.ResponseWriter) {
	for _, c := range rc.cookies {
		http.SetCookie(w, c)
	}
}
