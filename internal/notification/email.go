package notification

import (
	"context"
	"fmt"
	"net/smtp"
	"time"
)

// SMTPConfig carries mail relay settings.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// EmailNotifier sends transaction confirmation emails over SMTP.
type EmailNotifier struct {
	cfg SMTPConfig
}

// NewEmailNotifier builds an SMTP-backed notifier.
func NewEmailNotifier(cfg SMTPConfig) *EmailNotifier {
	return &EmailNotifier{cfg: cfg}
}

var subjects = map[string]string{
	KindDeposit:    "Dépôt effectué",
	KindWithdrawal: "Retrait effectué",
	KindPayment:    "Paiement effectué",
}

// Send emails the transaction summary to the user. Requires message.Email.
func (n *EmailNotifier) Send(_ context.Context, message Message) error {
	if message.Email == "" {
		return fmt.Errorf("notification without recipient email")
	}
	subject, ok := subjects[message.Kind]
	if !ok {
		subject = "Transaction"
	}

	body := fmt.Sprintf("Subject: %s\r\nFrom: %s\r\nTo: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n"+
		"Montant: %d FCFA\r\nRéférence: %s\r\nDate: %s\r\n",
		subject, n.cfg.From, message.Email,
		message.Amount, message.Reference, time.Now().UTC().Format(time.RFC1123))

	auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	addr := n.cfg.Host + ":" + n.cfg.Port
	return smtp.SendMail(addr, auth, n.cfg.From, []string{message.Email}, []byte(body))
}
