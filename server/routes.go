package server

import "net/http"

func (s *Server) initRoutes() {
	// Pages. The session gateway runs in front of the mux for every non-excluded path
	s.RegisterRouteFunc("GET "+RouteIndex, ChainMiddleware(s.IndexHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteFunc("GET "+RouteSignIn, ChainMiddleware(s.SignInPageHandler("Sign in"), s.HTMLMiddleWare()...))
	s.RegisterRouteFunc("GET "+RouteSignUp, ChainMiddleware(s.SignInPageHandler("Sign up"), s.HTMLMiddleWare()...))
	s.RegisterRouteFunc("GET "+RouteProfile, ChainMiddleware(s.ProfileHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteFunc("GET "+RouteIntegrations, ChainMiddleware(s.IntegrationsHandler(), s.HTMLMiddleWare()...))

	// Auth
	s.RegisterRouteFunc("GET "+RouteAuthCallback, ChainMiddleware(s.AuthCallbackHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteFunc("GET "+RouteAuthSignInOAuth, ChainMiddleware(s.SignInOAuthHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteFunc("POST "+RouteAuthSignOut, ChainMiddleware(s.SignOutHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteFunc("GET "+RouteAuthCodeErrorPage, ChainMiddleware(s.AuthCodeErrorHandler(), s.HTMLMiddleWare()...))

	// API routes authorize themselves and never pass through the gateway
	s.RegisterRouteFunc("POST "+RouteAPIStorageRefreshToken, ChainMiddleware(s.TokenRefreshHandler(), s.APIMiddleware(s.RequireAPISession())...))
	s.RegisterRouteFunc("POST "+RouteAPIVoiceFunctionCall, ChainMiddleware(s.FunctionCallHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("OPTIONS "+RouteAPIPrefix, ChainMiddleware(http.NotFound, s.APIMiddleware()...))
}
