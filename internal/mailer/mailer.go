// Package mailer sends analysis result emails to candidates over SMTP.
package mailer

import (
	"context"
	"fmt"
	"html"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/hirelens/hirelens/screening"
)

const subject = "Your Resume Analysis Results"

// Config holds SMTP connection settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer delivers result emails through an SMTP server over SSL.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

func New(cfg Config) *Mailer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.Port == 465

	from := cfg.From
	if from == "" {
		from = cfg.Username
	}

	return &Mailer{
		dialer: d,
		from:   from,
	}
}

// SendResults emails the candidate their score and feedback.
func (m *Mailer) SendResults(_ context.Context, email screening.ResultEmail) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", email.To)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", buildPlainBody(email))
	msg.AddAlternative("text/html", buildHTMLBody(email))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", email.To, err)
	}
	return nil
}

func greetingName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "Candidate"
	}
	return name
}

func indent(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = "    " + line
	}
	return strings.Join(lines, "\n")
}

func buildPlainBody(email screening.ResultEmail) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", greetingName(email.Name))
	b.WriteString("Thank you for submitting your resume. Here are your analysis results:\n\n")
	fmt.Fprintf(&b, "Match Score: %d/100\n\n", email.MatchScore)
	b.WriteString("Detailed Feedback:\n")
	b.WriteString("-----------------------------------------\n")
	b.WriteString(indent(email.Reasoning))
	b.WriteString("\n-----------------------------------------\n\n")
	b.WriteString("Best regards,\nThe Hiring Team\n")
	return b.String()
}

func buildHTMLBody(email screening.ResultEmail) string {
	reasoning := strings.ReplaceAll(html.EscapeString(email.Reasoning), "\n", "<br>")

	var b strings.Builder
	fmt.Fprintf(&b, "<p>Dear %s,</p>", html.EscapeString(greetingName(email.Name)))
	b.WriteString("<p>Thank you for submitting your resume. Here are your analysis results:</p>")
	fmt.Fprintf(&b, "<p><strong>Match Score: %d/100</strong></p>", email.MatchScore)
	b.WriteString("<p><strong>Detailed Feedback:</strong></p>")
	fmt.Fprintf(&b, "<blockquote>%s</blockquote>", reasoning)
	b.WriteString("<p>Best regards,<br>The Hiring Team</p>")
	return b.String()
}
