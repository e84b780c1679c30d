package models

// TokenType distinguishes the two token classes. A token is only ever
// accepted in the context matching its type.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// AuthToken is the identity payload carried by access and refresh tokens.
// Status and Admin are snapshots taken when the token was minted.
//
// Admin is only ever encoded when true; a missing key means non-admin.
type AuthToken struct {
	Username string     `json:"username"`
	Type     TokenType  `json:"type"`
	Status   UserStatus `json:"status"`
	Admin    *bool      `json:"admin,omitempty"`
}

// IsAdmin reports whether the token grants admin rights.
func (t AuthToken) IsAdmin() bool {
	return t.Admin != nil && *t.Admin
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Username  string `json:"username" binding:"required"`
	Password  string `json:"password" binding:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// ChangePasswordRequest payload for updating password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

// TokenPair is issued on a successful login.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// RefreshVerification is the outcome of checking a refresh token.
// RefreshToken is the token the session should continue with: the
// presented one, or its replacement when Rotated is set.
type RefreshVerification struct {
	Claims       AuthToken
	RefreshToken string
	Rotated      bool
}

// RenewResult carries a fresh access token and, after a rotation, the new
// refresh token.
type RenewResult struct {
	AccessToken  string
	RefreshToken string
	Rotated      bool
}

// SessionResult reports the refresh token a caller should keep using after
// an operation that may rotate it.
type SessionResult struct {
	RefreshToken string
	Rotated      bool
}
