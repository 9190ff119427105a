package notificator

import (
	"fmt"
	"net/smtp"
)

type EmailNotificator struct {
	smtpServerAddress string
	smtpServerPort    int
	username          string
	password          string
}

func NewEmailNotificator(
	smtpServerAddress string,
	smtpServerPort int,
	username string,
	password string,
) *EmailNotificator {
	return &EmailNotificator{
		smtpServerAddress: smtpServerAddress,
		smtpServerPort:    smtpServerPort,
		username:          username,
		password:          password,
	}
}

type EmailMessage struct {
	From    string
	To      string
	Subject string
	Body    string
}

func NewEmailMessage(from, to, subject, body string) (*EmailMessage, error) {
	if from == "" || to == "" {
		return nil, fmt.Errorf("from and to cannot be empty")
	}

	return &EmailMessage{
		From:    from,
		To:      to,
		Subject: subject,
		Body:    body,
	}, nil
}

func (nt *EmailNotificator) Send(msg *EmailMessage) error {
	addr := fmt.Sprintf("%s:%d", nt.smtpServerAddress, nt.smtpServerPort)
	auth := smtp.PlainAuth("", nt.username, nt.password, nt.smtpServerAddress)

	payload := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		msg.From, msg.To, msg.Subject, msg.Body,
	)

	if err := smtp.SendMail(
		addr, auth, msg.From, []string{msg.To}, []byte(payload),
	); err != nil {
		return fmt.Errorf("error sending email: %w", err)
	}

	return nil
}
