package fakesessionprovider

import (
	"context"
	"net/http"
	"sync"

	"github.com/jrsteele09/go-credential-gateway/internal/errors"
	"github.com/jrsteele09/go-credential-gateway/sessions"
	"github.com/jrsteele09/go-credential-gateway/users"
)

var _ sessions.Provider = (*FakeProvider)(nil)

// FakeProvider is an in-memory session provider. Sessions are keyed by access token,
// renewals by refresh token, exchanges by authorization code and bearer lookups by token.
type FakeProvider struct {
	codec    sessions.CookieCodec
	active   map[string]*sessions.Session
	renewals map[string]*sessions.Session
	codes    map[string]*sessions.Session
	bearers  map[string]*users.User
	lock     sync.Mutex
	calls    map[string]int

	RefreshErr  error
	ExchangeErr error
	SignOutErr  error
	PanicOn     string // Method name that panics when called
}

func NewFakeProvider(codec sessions.CookieCodec) *FakeProvider {
	return &FakeProvider{
		codec:    codec,
		active:   make(map[string]*sessions.Session),
		renewals: make(map[string]*sessions.Session),
		codes:    make(map[string]*sessions.Session),
		bearers:  make(map[string]*users.User),
		calls:    make(map[string]int),
	}
}

// AddSession registers a session that is valid as long as its access token is presented.
func (fp *FakeProvider) AddSession(session *sessions.Session) {
	fp.lock.Lock()
	defer fp.lock.Unlock()
	fp.active[session.AccessToken] = session
}

// AddRenewal registers the session issued when refreshToken is redeemed.
func (fp *FakeProvider) AddRenewal(refreshToken string, session *sessions.Session) {
	fp.lock.Lock()
	defer fp.lock.Unlock()
	fp.renewals[refreshToken] = session
}

// AddCode registers the session an authorization code exchanges for. A nil session
// simulates a provider that answers without one.
func (fp *FakeProvider) AddCode(code string, session *sessions.Session) {
	fp.lock.Lock()
	defer fp.lock.Unlock()
	fp.codes[code] = session
}

// AddBearer registers the identity a bearer token resolves to.
func (fp *FakeProvider) AddBearer(token string, user *users.User) {
	fp.lock.Lock()
	defer fp.lock.Unlock()
	fp.bearers[token] = user
}

// Calls returns how many times method was invoked.
func (fp *FakeProvider) Calls(method string) int {
	fp.lock.Lock()
	defer fp.lock.Unlock()
	return fp.calls[method]
}

func (fp *FakeProvider) record(method string) {
	fp.lock.Lock()
	fp.calls[method]++
	panicOn := fp.PanicOn
	fp.lock.Unlock()
	if panicOn == method {
		panic("fake provider: " + method)
	}
}

func (fp *FakeProvider) Refresh(_ context.Context, cookies []*http.Cookie) (sessions.RefreshResult, error) {
	fp.record("Refresh")
	if fp.RefreshErr != nil {
		return sessions.RefreshResult{}, fp.RefreshErr
	}

	stored := fp.codec.Decode(cookies)
	if stored.Empty() {
		return sessions.RefreshResult{}, nil
	}

	fp.lock.Lock()
	defer fp.lock.Unlock()
	if session, ok := fp.active[stored.AccessToken]; ok {
		return sessions.RefreshResult{Session: session}, nil
	}
	if session, ok := fp.renewals[stored.RefreshToken]; ok {
		fp.active[session.AccessToken] = session
		return sessions.RefreshResult{Session: session, Cookies: fp.codec.Encode(session)}, nil
	}
	return sessions.RefreshResult{Cookies: fp.codec.Clear()}, nil
}

func (fp *FakeProvider) StartSignIn(_ context.Context, redirectTo string) (sessions.SignInStart, error) {
	fp.record("StartSignIn")
	return sessions.SignInStart{
		AuthURL: "https://idp.example.com/authorize?redirect_to=" + redirectTo,
		Cookies: fp.codec.SignInCookies("state", "verifier"),
	}, nil
}

func (fp *FakeProvider) ExchangeCode(_ context.Context, exchange sessions.CodeExchange) (*sessions.Session, []*http.Cookie, error) {
	fp.record("ExchangeCode")
	if fp.ExchangeErr != nil {
		return nil, nil, fp.ExchangeErr
	}

	fp.lock.Lock()
	defer fp.lock.Unlock()
	session, ok := fp.codes[exchange.Code]
	if !ok {
		return nil, nil, &sessions.ProviderError{Code: "invalid_grant", Message: "invalid authorization code", Err: errors.ErrExchangeFailed}
	}
	if session == nil {
		return nil, nil, nil
	}
	fp.active[session.AccessToken] = session
	return session, fp.codec.Encode(session), nil
}

func (fp *FakeProvider) UserFromBearer(_ context.Context, token string) (*users.User, error) {
	fp.record("UserFromBearer")

	fp.lock.Lock()
	defer fp.lock.Unlock()
	user, ok := fp.bearers[token]
	if !ok {
		return nil, errors.ErrInvalidAccessToken
	}
	return user, nil
}

func (fp *FakeProvider) SignOut(_ context.Context, cookies []*http.Cookie) ([]*http.Cookie, error) {
	fp.record("SignOut")

	stored := fp.codec.Decode(cookies)
	fp.lock.Lock()
	delete(fp.active, stored.AccessToken)
	fp.lock.Unlock()
	return fp.codec.Clear(), fp.SignOutErr
}
