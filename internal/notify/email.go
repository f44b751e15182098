package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ossa-ma/recovrr/internal/common"
	"github.com/ossa-ma/recovrr/internal/models"
)

// EmailNotifier delivers match alerts over SMTP
type EmailNotifier struct {
	config *common.SMTPConfig
	logger arbor.ILogger
}

// NewEmailNotifier creates an email notifier. Returns an error when the
// SMTP configuration is incomplete so the dispatcher can skip the channel.
func NewEmailNotifier(config *common.SMTPConfig, logger arbor.ILogger) (*EmailNotifier, error) {
	if config.Host == "" {
		return nil, fmt.Errorf("SMTP host not configured")
	}
	if config.Username == "" || config.Password == "" {
		return nil, fmt.Errorf("SMTP credentials not configured")
	}
	if config.From == "" {
		return nil, fmt.Errorf("SMTP from address not configured")
	}
	return &EmailNotifier{
		config: config,
		logger: logger,
	}, nil
}

// Channel returns the notification channel identifier
func (n *EmailNotifier) Channel() string {
	return "email"
}

// Notify sends a match alert email to the profile owner
func (n *EmailNotifier) Notify(ctx context.Context, listing *models.Listing, profile *models.SearchProfile, result *models.AnalysisResult) error {
	if profile.OwnerEmail == "" {
		return fmt.Errorf("profile %s has no owner email", profile.ID)
	}

	subject := formatSubject(profile, result)
	body := formatEmailBody(listing, profile, result)

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: Recovrr <%s>\r\n", n.config.From)
	fmt.Fprintf(&msg, "To: %s\r\n", profile.OwnerEmail)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	if err := n.send(profile.OwnerEmail, msg.String()); err != nil {
		return fmt.Errorf("failed to send match alert email: %w", err)
	}

	n.logger.Info().
		Str("to", profile.OwnerEmail).
		Str("listing_id", listing.ID).
		Float64("match_score", result.MatchScore).
		Msg("Match alert email sent")

	return nil
}

// send delivers one message, choosing the transport by tls_policy
func (n *EmailNotifier) send(to, msg string) error {
	addr := fmt.Sprintf("%s:%d", n.config.Host, n.config.Port)
	auth := smtp.PlainAuth("", n.config.Username, n.config.Password, n.config.Host)

	switch strings.ToLower(n.config.TLSPolicy) {
	case "tls":
		return n.sendWithTLS(addr, auth, n.config.From, to, msg)
	case "starttls":
		return n.sendWithSTARTTLS(addr, auth, n.config.From, to, msg)
	default:
		return smtp.SendMail(addr, auth, n.config.From, []string{to}, []byte(msg))
	}
}

// sendWithTLS sends over a direct TLS connection (required for Gmail on 465)
func (n *EmailNotifier) sendWithTLS(addr string, auth smtp.Auth, from, to, msg string) error {
	host := strings.Split(addr, ":")[0]

	conn, err := tls.Dial("tcp", addr, &tls.Config{
		ServerName: host,
	})
	if err != nil {
		// Fallback to STARTTLS if direct TLS fails
		return n.sendWithSTARTTLS(addr, auth, from, to, msg)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}

	return n.writeMessage(client, from, to, msg)
}

// sendWithSTARTTLS sends using a STARTTLS upgrade on a plain connection
func (n *EmailNotifier) sendWithSTARTTLS(addr string, auth smtp.Auth, from, to, msg string) error {
	host := strings.Split(addr, ":")[0]

	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Close()

	tlsConfig := &tls.Config{
		ServerName: host,
	}
	if err := client.StartTLS(tlsConfig); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}

	return n.writeMessage(client, from, to, msg)
}

func (n *EmailNotifier) writeMessage(client *smtp.Client, from, to, msg string) error {
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("failed to set mail from: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set mail recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to start data: %w", err)
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	return client.Quit()
}
