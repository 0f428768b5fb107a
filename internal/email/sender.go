package email

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type Sender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSender(host string, port int, username, password, from string) *Sender {
	return &Sender{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (s *Sender) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	return s.dialer.DialAndSend(m)
}

func (s *Sender) SendTicketAssigned(to, name, ticketTitle, technician string) error {
	subject := "Your ticket has been assigned"
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your ticket <b>%s</b> has been picked up by %s. "+
			"You can now chat with them from the ticket page.</p>",
		name, ticketTitle, technician)
	return s.send(to, subject, body)
}

func (s *Sender) SendTicketClosed(to, name, ticketTitle string) error {
	subject := "Your ticket has been closed"
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your ticket <b>%s</b> has been closed. "+
			"If the issue persists, open a new ticket and reference this one.</p>",
		name, ticketTitle)
	return s.send(to, subject, body)
}
