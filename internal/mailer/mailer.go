// Package mailer renders queued mail messages into HTML emails and sends them over SMTP.
package mailer

import (
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"path/filepath"

	"github.com/lws-dev/hiring/backend/internal/domain"
	"github.com/lws-dev/hiring/backend/internal/queue"
	"github.com/wneessen/go-mail"
)

var subjects = map[string]string{
	domain.MailTypeAuthCode:      "Your sign-in code",
	domain.MailTypeProjectInvite: "You have been invited to a project",
}

type Mailer struct {
	serviceName string
	from        string
	templates   map[string]*template.Template
}

// New parses templates/<type>.html for every known mail type.
func New(serviceName, from, templateDir string) (*Mailer, error) {
	templates := make(map[string]*template.Template, len(subjects))
	for mailType := range subjects {
		tmpl, err := template.ParseFiles(filepath.Join(templateDir, mailType+".html"))
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", mailType, err)
		}
		templates[mailType] = tmpl
	}

	return &Mailer{
		serviceName: serviceName,
		from:        from,
		templates:   templates,
	}, nil
}

// Build turns a queued message into a ready to send email.
func (m *Mailer) Build(message *domain.MailMessage) (*mail.Msg, error) {
	tmpl, ok := m.templates[message.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported mail type %q", message.Type)
	}

	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return nil, fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(message.To); err != nil {
		return nil, fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(fmt.Sprintf("%s - %s", m.serviceName, subjects[message.Type]))

	if err := msg.SetBodyHTMLTemplate(tmpl, message.Data); err != nil {
		return nil, fmt.Errorf("render body: %w", err)
	}

	return msg, nil
}

// Sender is satisfied by *mail.Client.
type Sender interface {
	DialAndSend(messages ...*mail.Msg) error
}

type Worker struct {
	mailer *Mailer
	sender Sender
}

func NewWorker(mailer *Mailer, sender Sender) *Worker {
	return &Worker{
		mailer: mailer,
		sender: sender,
	}
}

// Handle processes one delivery body. Messages that cannot be built are dropped,
// SMTP failures are requeued.
func (w *Worker) Handle(body []byte) queue.Outcome {
	message := &domain.MailMessage{}
	if err := json.Unmarshal(body, message); err != nil {
		slog.Error("could not decode mail message", "error", err)
		return queue.Drop
	}

	msg, err := w.mailer.Build(message)
	if err != nil {
		slog.Error("could not build mail", "type", message.Type, "to", message.To, "error", err)
		return queue.Drop
	}

	if err := w.sender.DialAndSend(msg); err != nil {
		slog.Error("could not send mail", "type", message.Type, "to", message.To, "error", err)
		return queue.Requeue
	}

	slog.Info("mail sent", "type", message.Type, "to", message.To)
	return queue.Ack
}
