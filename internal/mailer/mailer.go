package mailer

import (
	"bytes"
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"forecastmail/internal/errorutil"
	"forecastmail/internal/logger"
	"forecastmail/internal/report"
)

// Config contains SMTP delivery settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

// Mailer delivers rendered reports over SMTP with inline image attachments.
type Mailer struct {
	config Config
}

// New creates a Mailer for the given SMTP settings.
func New(config Config) *Mailer {
	return &Mailer{config: config}
}

// Send composes and delivers one report. Every inline image is embedded
// with the content-identifier the HTML body references. One attempt only;
// the caller decides how a delivery failure is reported.
func (m *Mailer) Send(ctx context.Context, rep *report.Report) error {
	complete := logger.LogOperationStart("mail_delivery", map[string]any{
		"host":   m.config.Host,
		"port":   m.config.Port,
		"to":     m.config.To,
		"images": len(rep.Images),
	})

	msg, err := m.compose(rep)
	if err != nil {
		complete(err)
		return err
	}

	client, err := m.newClient()
	if err != nil {
		complete(err)
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		netErr := errorutil.NewNetworkError("mail delivery", m.config.Host, err)
		errorutil.LogNetworkError(logger.Get().Logger, netErr)
		complete(netErr)
		return netErr
	}

	complete(nil)
	logger.Info("Report sent to %s", m.config.To)

	return nil
}

// compose builds the multipart message from a rendered report.
func (m *Mailer) compose(rep *report.Report) (*mail.Msg, error) {
	msg := mail.NewMsg()

	if err := msg.From(m.config.From); err != nil {
		return nil, fmt.Errorf("invalid sender address %q: %w", m.config.From, err)
	}
	if err := msg.To(m.config.To); err != nil {
		return nil, fmt.Errorf("invalid recipient address %q: %w", m.config.To, err)
	}

	msg.Subject(rep.Subject)
	msg.SetBodyString(mail.TypeTextHTML, rep.HTML)

	for _, img := range rep.Images {
		if err := msg.EmbedReader(img.CID+".png", bytes.NewReader(img.Data),
			mail.WithFileContentID(img.CID),
			mail.WithFileContentType(mail.ContentType("image/png")),
		); err != nil {
			return nil, fmt.Errorf("failed to embed image %s: %w", img.CID, err)
		}
	}

	return msg, nil
}

// newClient builds the SMTP client. Port 465 uses implicit TLS; everything
// else negotiates STARTTLS.
func (m *Mailer) newClient() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(m.config.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.config.Username),
		mail.WithPassword(m.config.Password),
	}

	if m.config.Port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	}

	return mail.NewClient(m.config.Host, opts...)
}
