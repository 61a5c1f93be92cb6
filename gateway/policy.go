package gateway

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-credential-gateway/internal/config"
)

// Decision is the route-protection outcome for one request.
type Decision string

const (
	DecisionPass           Decision = "pass"
	DecisionRedirectSignIn Decision = "redirect_signin"
	DecisionRedirectHome   Decision = "redirect_home"
)

// redirectParam carries the originally requested path to the sign-in page.
const redirectParam = "redirect"

// Outcome is a Decision plus, for redirects, where to send the browser.
type Outcome struct {
	Decision Decision
	Location string
	Status   int
}

// Policy is the static Route Protection Policy. It is built once and never mutated.
type Policy struct {
	protected  []string
	signInPath string
	signUpPath string
}

func NewPolicy(cfg config.RouteConfig) Policy {
	return Policy{
		protected:  append([]string(nil), cfg.GetProtectedPrefixes()...),
		signInPath: cfg.GetSignInPath(),
		signUpPath: cfg.GetSignUpPath(),
	}
}

// Protected reports whether any protected prefix matches path. Matching is case-sensitive.
func (p Policy) Protected(path string) bool {
	for _, prefix := range p.protected {
		if prefix != "" && strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// AuthPage reports whether path is the sign-in or sign-up page.
func (p Policy) AuthPage(path string) bool {
	return samePage(path, p.signInPath) || samePage(path, p.signUpPath)
}

// Evaluate applies the policy rules in order: protected without session, session on an
// auth page, then pass through.
func (p Policy) Evaluate(path string, hasSession bool) Outcome {
	switch {
	case !hasSession && p.Protected(path):
		return Outcome{
			Decision: DecisionRedirectSignIn,
			Location: p.signInPath + "?" + url.Values{redirectParam: {path}}.Encode(),
			Status:   http.StatusTemporaryRedirect,
		}
	case hasSession && p.AuthPage(path):
		return Outcome{Decision: DecisionRedirectHome, Location: "/", Status: http.StatusTemporaryRedirect}
	default:
		return Outcome{Decision: DecisionPass}
	}
}

func samePage(path, page string) bool {
	if page == "" {
		return false
	}
	return path == page || strings.HasPrefix(path, page+"/")
}

// Matcher decides which requests the gateway runs on: everything except the excluded prefixes.
type Matcher struct {
	excluded []string
}

func NewMatcher(cfg config.RouteConfig) Matcher {
	return Matcher{excluded: append([]string(nil), cfg.GetExcludedPrefixes()...)}
}

func (m Matcher) Matches(path string) bool {
	for _, prefix := range m.excluded {
		if prefix == "" {
			continue
		}
		if strings.HasPrefix(path, prefix) || path == strings.TrimSuffix(prefix, "/") {
			return false
		}
	}
	return true
}
