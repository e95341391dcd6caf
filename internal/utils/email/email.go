package email

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/Dan9191/cashflow-forecast/internal/config"
	"github.com/Dan9191/cashflow-forecast/internal/forecast"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
	send   func(e *email.Email, addr string, auth smtp.Auth) error
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

// SendForecastWarnings sends the warnings of a forecast run to the user
func (s *Sender) SendForecastWarnings(to, username string, warnings []forecast.Warning) error {
	if len(warnings) == 0 {
		return nil
	}

	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = warningSubject(warnings)
	e.Text = []byte(warningBody(username, warnings))

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	var auth smtp.Auth
	if s.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}
	if err := s.send(e, addr, auth); err != nil {
		s.logger.Errorf("Failed to send forecast warnings to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}

func warningSubject(warnings []forecast.Warning) string {
	for _, w := range warnings {
		if w.Kind == forecast.WarningNegativeBalance {
			return "Your balance is projected to go negative"
		}
	}
	return "Your balance is projected to fall below your safety threshold"
}

func warningBody(username string, warnings []forecast.Warning) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", username)
	b.WriteString("Our latest forecast of your account balance found the following:\n\n")
	for _, w := range warnings {
		fmt.Fprintf(&b, "  %s  %s\n", w.Date.Format(time.DateOnly), w.Message)
	}
	b.WriteString("\nReview your upcoming payments or adjust your spending to stay on track.\n")
	b.WriteString("\nBest regards,\nBank Service")
	return b.String()
}
