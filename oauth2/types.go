package oauth2

// CodeMethodType represents the PKCE (Proof Key for Code Exchange) challenge method.
// Used to prevent authorization code interception attacks.
type CodeMethodType string

const (
	// CodeMethodTypeS256 indicates SHA-256 hashing is used for the code challenge.
	// Client sends: code_challenge = BASE64URL(SHA256(code_verifier))
	// Note: the hosted backend expects the lowercase spelling
	CodeMethodTypeS256 CodeMethodType = "s256"
)

// GrantType represents the grant_type query parameter of the hosted token endpoint.
type GrantType string

const (
	// RefreshTokenGrant exchanges a refresh token for a new session.
	// Used in: Session Gateway refresh on every request
	// Token request body: {"refresh_token": "..."}
	// Returns: new access_token and a rotated refresh_token
	RefreshTokenGrant GrantType = "refresh_token"

	// PKCEGrant exchanges an authorization code plus the PKCE verifier for a session.
	// Used in: OAuth callback after a third-party identity provider sign-in
	// Token request body: {"auth_code": "...", "code_verifier": "..."}
	PKCEGrant GrantType = "pkce"
)

// PKCEExchangeRequest is the body of a pkce grant token request.
type PKCEExchangeRequest struct {
	AuthCode     string `json:"auth_code"`
	CodeVerifier string `json:"code_verifier"`
}

// RefreshRequest is the body of a refresh_token grant token request.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}
