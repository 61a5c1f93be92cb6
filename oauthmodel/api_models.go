package oauthmodel

// RefreshTokenRequest is the body of POST /api/storage/refresh-token. The user it refreshes
// for comes from the session, never from the body.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshTokenResponse returns expires_in exactly as the authorization server sent it.
type RefreshTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   any    `json:"expires_in"`
}

// APIError is the body of every API error response.
type APIError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// FunctionCallResponse is the body returned to the voice-assistant platform.
type FunctionCallResponse struct {
	Success bool   `json:"success"`
	Result  any    `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}
