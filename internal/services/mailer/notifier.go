package mailer

import (
	"fmt"

	"go.uber.org/zap"
)

// Notifier formats and sends the lifecycle emails. Every method is
// best-effort: a delivery failure is logged and swallowed so the write
// that triggered it is never rolled back.
type Notifier struct {
	Sender          Sender
	FrontendBaseURL string
	Log             *zap.Logger
}

func NewNotifier(sender Sender, frontendBaseURL string, log *zap.Logger) *Notifier {
	return &Notifier{Sender: sender, FrontendBaseURL: frontendBaseURL, Log: log}
}

func (n *Notifier) send(subject, body, to string) {
	if err := n.Sender.Send(subject, body, to); err != nil {
		n.Log.Warn("email delivery failed",
			zap.String("subject", subject),
			zap.String("to", to),
			zap.Error(err))
	}
}

func (n *Notifier) Welcome(email, firstName, lastName string) {
	subject := "Herzlich Willkommen bei der Rosenblum Übersetzungsbüro!"
	body := fmt.Sprintf(
		"Sehr geehrte/r %s %s,\n\n"+
			"herzlich willkommen bei Rosenblum Übersetzungsbüro! Wir freuen uns sehr, "+
			"dass Sie sich entschieden haben, Teil unserer Gemeinschaft zu werden.\n\n"+
			"Link zu Ihrem Profil: %s/profile\n\n"+
			"Mit freundlichen Grüßen,\nIhr Rosenblum Übersetzungsbüro-Team",
		firstName, lastName, n.FrontendBaseURL)
	n.send(subject, body, email)
}

func (n *Notifier) VerificationCode(email, firstName, lastName, code string) {
	subject := "Ihr Verifizierungscode"
	body := fmt.Sprintf(
		"Hallo %s %s\n"+
			"Hier ist Ihr Verifizierungscode.\n"+
			"%s\n\n"+
			"Ihr Übersetzungsbüro Rosenblum",
		firstName, lastName, code)
	n.send(subject, body, email)
}

func (n *Notifier) NewMessage(email string) {
	subject := "Sie haben eine neue Nachricht!"
	body := fmt.Sprintf(
		"Eine neue Nachricht wurde für Sie zugestellt.\n\n"+
			"Sie können die Nachricht unter folgendem Link einsehen: %s/messages\n"+
			"Ihr Übersetzungsbüro Rosenblum",
		n.FrontendBaseURL)
	n.send(subject, body, email)
}

func (n *Notifier) OrderReady(email string, orderID uint) {
	subject := "Ihre Übersetzung ist fertig!"
	body := fmt.Sprintf(
		"Ihre Bestellung Nr. %d ist fertiggestellt.\n\n"+
			"Sie können die Dokumente jetzt in Ihrem Profil einsehen oder abholen.\n\n"+
			"Mit freundlichen Grüßen,\nIhr Übersetzungsbüro Rosenblum",
		orderID)
	n.send(subject, body, email)
}

func (n *Notifier) RequestReceived(email, name string) {
	subject := "Wir haben Ihre Anfrage erhalten"
	body := fmt.Sprintf(
		"Hallo %s,\n\n"+
			"vielen Dank für Ihre Anfrage. Wir melden uns so schnell wie möglich bei Ihnen.\n\n"+
			"Ihr Übersetzungsbüro Rosenblum",
		name)
	n.send(subject, body, email)
}

func (n *Notifier) RequestAnswered(email, name, answer string) {
	subject := "Antwort auf Ihre Anfrage"
	body := fmt.Sprintf(
		"Hallo %s,\n\n"+
			"es gibt eine Antwort auf Ihre Anfrage:\n\n%s\n\n"+
			"Ihr Übersetzungsbüro Rosenblum",
		name, answer)
	n.send(subject, body, email)
}

func (n *Notifier) PasswordReset(email, resetLink string) {
	subject := "Passwort zurücksetzen"
	body := fmt.Sprintf(
		"Sie haben eine Zurücksetzung Ihres Passworts angefordert.\n\n"+
			"Folgen Sie diesem Link, um ein neues Passwort zu vergeben:\n%s\n\n"+
			"Falls Sie das nicht waren, ignorieren Sie diese E-Mail.\n\n"+
			"Ihr Übersetzungsbüro Rosenblum",
		resetLink)
	n.send(subject, body, email)
}
