package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/danbauman77/reginfo-monitor/internal/config"
	ntpl "github.com/danbauman77/reginfo-monitor/internal/notify/template"
	"github.com/danbauman77/reginfo-monitor/internal/types"
)

// messageTemplate is the template name rendered for every notification.
const messageTemplate = "rin_changes.html"

// EmailNotifier sends the batched change report over SMTP.
type EmailNotifier struct {
	config    *config.EmailConfig
	baseURL   string
	logger    *zap.Logger
	tplLoader *ntpl.Loader
}

// NewEmailNotifier creates a new email notifier. baseURL is used to build
// the export links embedded in the message.
func NewEmailNotifier(cfg *config.EmailConfig, baseURL string, logger *zap.Logger) (*EmailNotifier, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("email notifier is disabled")
	}

	loader, err := ntpl.NewLoader()
	if err != nil {
		return nil, err
	}

	if cfg.TemplateFile != "" {
		content, err := os.ReadFile(cfg.TemplateFile)
		if err != nil {
			return nil, fmt.Errorf("read template file: %w", err)
		}
		if err := loader.SetCustomTemplate(messageTemplate, string(content)); err != nil {
			return nil, err
		}
	}

	return &EmailNotifier{
		config:    cfg,
		baseURL:   baseURL,
		logger:    logger,
		tplLoader: loader,
	}, nil
}

// reportView is the per-report shape handed to the message template.
type reportView struct {
	RIN           string
	Title         string
	PublicationID string
	FirstSeen     bool
	Diffs         []types.FieldDiff
	PreviousURL   string
	CurrentURL    string
}

// Notify renders and sends one message for the whole batch. Failures are
// *types.DeliveryError; snapshot state is never rolled back for them.
func (n *EmailNotifier) Notify(_ context.Context, reports []types.ChangeReport) error {
	if len(reports) == 0 {
		return nil
	}

	content, err := n.render(reports)
	if err != nil {
		return &types.DeliveryError{Err: err}
	}

	subject := fmt.Sprintf("RegInfo Monitor: %d notable change(s)", len(reports))
	if err := n.sendEmail(subject, content); err != nil {
		return &types.DeliveryError{Err: err}
	}

	n.logger.Info("Notification sent",
		zap.Int("reports", len(reports)),
		zap.Strings("to", n.config.To))
	return nil
}

// render builds the HTML body for a batch of reports. The message is
// stamped with the newest detection time in the batch.
func (n *EmailNotifier) render(reports []types.ChangeReport) (string, error) {
	var detectedAt time.Time
	views := make([]reportView, 0, len(reports))
	for _, r := range reports {
		if r.DetectedAt.After(detectedAt) {
			detectedAt = r.DetectedAt
		}
		title, _ := r.Current.Field(types.FieldTitle)
		v := reportView{
			RIN:           r.RIN,
			Title:         title,
			PublicationID: r.Current.PublicationID,
			FirstSeen:     r.Classification == types.ClassFirstSeen,
			Diffs:         r.Diffs,
			CurrentURL:    n.exportURL(r.RIN, r.Current.PublicationID),
		}
		if r.Previous != nil {
			v.PreviousURL = n.exportURL(r.RIN, r.Previous.PublicationID)
		}
		views = append(views, v)
	}

	tmpl, err := n.tplLoader.GetTemplate(messageTemplate)
	if err != nil {
		return "", err
	}

	var content bytes.Buffer
	err = tmpl.Execute(&content, map[string]any{
		"Reports":   views,
		"Timestamp": detectedAt,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render message: %w", err)
	}
	return content.String(), nil
}

// exportURL builds the public XML export URL for one RIN and publication.
func (n *EmailNotifier) exportURL(rin, pubID string) string {
	return fmt.Sprintf(
		"%s/public/do/eAgendaViewRule?pubId=%s&RIN=%s&operation=OPERATION_EXPORT_XML",
		n.baseURL, pubID, rin)
}

// sendEmail sends an email
func (n *EmailNotifier) sendEmail(subject, content string) error {
	auth := smtp.PlainAuth("", n.config.Username, n.config.Password, n.config.SMTPServer)

	msg := buildEmailMessage(n.config.From, n.config.To, subject, content)

	var err error
	if n.config.UseTLS {
		err = n.sendTLSEmail(auth, msg)
	} else {
		addr := fmt.Sprintf("%s:%d", n.config.SMTPServer, n.config.SMTPPort)
		err = smtp.SendMail(addr, auth, cleanEmailAddress(n.config.From), cleanEmailAddresses(n.config.To), msg)
	}

	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

// sendTLSEmail sends email over an explicit TLS connection
func (n *EmailNotifier) sendTLSEmail(auth smtp.Auth, msg []byte) error {
	addr := fmt.Sprintf("%s:%d", n.config.SMTPServer, n.config.SMTPPort)

	tlsConfig := &tls.Config{
		ServerName: n.config.SMTPServer,
		MinVersion: tls.VersionTLS12,
	}

	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		return fmt.Errorf("failed to create TLS connection: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, n.config.SMTPServer)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	if err = client.Auth(auth); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	from := cleanEmailAddress(n.config.From)
	if !strings.Contains(from, "@") {
		return fmt.Errorf("invalid from address: %s", n.config.From)
	}

	if err = client.Mail(from); err != nil {
		return fmt.Errorf("MAIL FROM failed for %s: %w", from, err)
	}

	for _, rcpt := range cleanEmailAddresses(n.config.To) {
		if err = client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("RCPT TO failed for %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}

	if _, err = w.Write(msg); err != nil {
		w.Close()
		return fmt.Errorf("failed to write message: %w", err)
	}

	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close message writer: %w", err)
	}
	return client.Quit()
}

// buildEmailMessage builds email message
func buildEmailMessage(from string, to []string, subject, body string) []byte {
	var msg bytes.Buffer

	headers := []struct{ key, value string }{
		{"From", cleanEmailAddress(from)},
		{"To", strings.Join(cleanEmailAddresses(to), ", ")},
		{"Subject", subject},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/html; charset=UTF-8"},
		{"X-Mailer", "reginfo-monitor/1.0"},
		{"Date", time.Now().Format(time.RFC1123Z)},
	}

	for _, h := range headers {
		msg.WriteString(fmt.Sprintf("%s: %s\r\n", h.key, h.value))
	}

	msg.WriteString("\r\n")
	msg.WriteString(body)
	msg.WriteString("\r\n")

	return msg.Bytes()
}

// cleanEmailAddress removes display name and angle brackets
func cleanEmailAddress(addr string) string {
	if idx := strings.LastIndex(addr, "<"); idx >= 0 {
		return strings.Trim(addr[idx:], "<>")
	}
	return addr
}

// cleanEmailAddresses cleans a list of email addresses
func cleanEmailAddresses(addrs []string) []string {
	cleaned := make([]string, len(addrs))
	for i, addr := range addrs {
		cleaned[i] = cleanEmailAddress(addr)
	}
	return cleaned
}
