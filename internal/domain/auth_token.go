package domain

import "time"

type AuthTokenStatus string

const (
	AuthTokenPending  AuthTokenStatus = "pending"
	AuthTokenVerified AuthTokenStatus = "verified"
	AuthTokenRejected AuthTokenStatus = "rejected"
	AuthTokenExpired  AuthTokenStatus = "expired"
)

type AuthToken struct {
	Token     string          `json:"token"`
	UserID    string          `json:"userID"`
	CodeHash  string          `json:"-"`
	Expiry    time.Time       `json:"expiry"`
	Status    AuthTokenStatus `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
}
