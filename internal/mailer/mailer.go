// Package mailer sends the ranked-report summary email.
package mailer

import (
	"fmt"
	"html"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/sharphuman/hr-passive-cv/internal/report"
)

// previewRows bounds how many candidates the email body previews.
const previewRows = 5

type Config struct {
	Host     string
	Port     int
	From     string
	Password string
}

type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

func New(cfg *Config) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.From, cfg.Password),
		from:   cfg.From,
	}
}

// SendReport delivers the summary email with a preview table and the
// archive locator.
func (m *Mailer) SendReport(to string, rep *report.Report, locator string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", fmt.Sprintf("Candidates: %s", rep.Role))
	msg.SetBody("text/html", buildBody(rep, locator))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("could not send email: %w", err)
	}
	return nil
}

func buildBody(rep *report.Report, locator string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "<h3>Search Results: %s</h3>\n", html.EscapeString(rep.Role))
	fmt.Fprintf(&b, "<p>%d candidates scored above %d.</p>\n", rep.Len(), rep.MinScore)
	fmt.Fprintf(&b, "<p><strong>Archived:</strong> %s</p>\n<hr>\n", html.EscapeString(locator))

	b.WriteString("<table border=\"0\">\n<tr><th>Score</th><th>Name</th><th>Reason</th><th>Link</th></tr>\n")
	for _, candidate := range rep.Top(previewRows) {
		reason := ""
		if candidate.AI != nil {
			reason = candidate.AI.Reason
		}
		fmt.Fprintf(&b, "<tr><td>%d</td><td>%s</td><td>%s</td><td><a href=\"%s\">%s</a></td></tr>\n",
			candidate.Score(),
			html.EscapeString(candidate.Name),
			html.EscapeString(reason),
			html.EscapeString(candidate.Link),
			html.EscapeString(candidate.Link),
		)
	}
	b.WriteString("</table>\n")

	return b.String()
}
