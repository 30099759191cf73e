package dto

import (
	"github.com/retasker/retasker-backend/internal/models"
	"github.com/retasker/retasker-backend/internal/service"
)

// Envelope is the unified response shape: {"ok": true, "data": ...} on
// success, {"ok": false, "error": {...}} on failure.
type Envelope struct {
	OK    bool       `json:"ok"`
	Data  any        `json:"data,omitempty"`
	Error *ErrorBody `json:"error,omitempty"`
}

// ErrorBody carries a stable machine-readable code and a human message.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// OK wraps data in a success envelope.
func OK(data any) Envelope {
	return Envelope{OK: true, Data: data}
}

// Fail builds an error envelope.
func Fail(code, message string) Envelope {
	return Envelope{OK: false, Error: &ErrorBody{Code: code, Message: message}}
}

// AuthResponse returns the authenticated user with a JWT pair.
type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
}

// NewAuthResponse builds an AuthResponse from the service result.
func NewAuthResponse(res *service.AuthResult) *AuthResponse {
	return &AuthResponse{
		User:         res.User,
		AccessToken:  res.TokenPair.AccessToken,
		RefreshToken: res.TokenPair.RefreshToken,
	}
}

// LoginTokenResponse returns a one-time login token in plaintext.
// It is shown exactly once; only a bcrypt hash is stored.
type LoginTokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in_seconds"`
}

// TokenPairResponse returns a fresh JWT pair.
type TokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// OrderListResponse represents a paginated list of orders.
type OrderListResponse struct {
	Orders []models.Order `json:"orders"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// DealListResponse represents a paginated list of deals.
type DealListResponse struct {
	Deals  []models.Deal `json:"deals"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// AvatarResponse returns the public URL of an uploaded avatar.
type AvatarResponse struct {
	AvatarURL string `json:"avatar_url"`
}
