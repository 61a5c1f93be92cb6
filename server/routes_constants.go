package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Pages
	RouteIndex        = "/{$}"
	RouteSignIn       = "/signin"
	RouteSignUp       = "/signup"
	RouteProfile      = "/profile"
	RouteIntegrations = "/integrations"

	// Auth Routes
	RouteAuthCallback      = "/auth/callback"
	RouteAuthSignInOAuth   = "/auth/signin/oauth"
	RouteAuthSignOut       = "/auth/signout"
	RouteAuthCodeErrorPage = "/auth/auth-code-error"

	// API Routes
	RouteAPIPrefix              = "/api/"
	RouteAPIStorageRefreshToken = "/api/storage/refresh-token"
	RouteAPIVoiceFunctionCall   = "/api/voice/function-call"
)
