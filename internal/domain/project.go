package domain

import "time"

type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
}

type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteAccepted InviteStatus = "accepted"
	InviteExpired  InviteStatus = "expired"
)

// AccessInvite doubles as the membership row: an accepted invite grants access to the project.
type AccessInvite struct {
	ID        string       `json:"id"`
	ProjectID string       `json:"projectID"`
	UserID    string       `json:"userID"`
	InviterID string       `json:"inviterID"`
	Expiry    time.Time    `json:"expiry"`
	Status    InviteStatus `json:"status"`
	CreatedAt time.Time    `json:"createdAt"`
}

type ProjectMember struct {
	UserID string       `json:"userID"`
	Email  string       `json:"email"`
	Name   string       `json:"name"`
	Status InviteStatus `json:"status"`
}
