package domain

const (
	MailTypeAuthCode      = "auth_code"
	MailTypeProjectInvite = "project_invite"
)

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type AuthCodeMailData struct {
	Name       string `json:"name"`
	Code       string `json:"code"`
	Expiration int    `json:"expiration"` // minutes
}

type ProjectInviteMailData struct {
	Inviter            string `json:"inviter"`
	ProjectName        string `json:"projectName"`
	ProjectDescription string `json:"projectDescription"`
	Link               string `json:"link"`
	Expiration         int    `json:"expiration"` // minutes
}
