package mailer

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/russross/blackfriday/v2"

	"github.com/paul-reitz/relate.io/internal/clients"
	"github.com/paul-reitz/relate.io/internal/models"
)

const (
	DEFAULT_FROM_ADDRESS = "advisor@relate.io"
	DEFAULT_SUBJECT      = "Your Weekly Portfolio Update"
	DEFAULT_FRONTEND_URL = "http://localhost:3000"
	EMAIL_CHARSET        = "UTF-8"
)

// sesAPI is the slice of the SES client the mailer needs.
type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// Mailer renders communication requests into branded HTML email and
// delivers them through SES. The raw markdown travels as the plain-text
// alternative.
type Mailer struct {
	ses         sesAPI
	fromAddress string
	frontendURL string
}

func New(sesClient sesAPI) *Mailer {
	from := os.Getenv("SES_FROM_ADDRESS")
	if from == "" {
		from = DEFAULT_FROM_ADDRESS
	}
	frontend := os.Getenv("FRONTEND_URL")
	if frontend == "" {
		frontend = DEFAULT_FRONTEND_URL
	}

	return &Mailer{
		ses:         sesClient,
		fromAddress: from,
		frontendURL: strings.TrimRight(frontend, "/"),
	}
}

// NewFromEnv wires the shared SES client.
func NewFromEnv() *Mailer {
	return New(clients.GetSESClient())
}

func (m *Mailer) Send(ctx context.Context, req models.CommunicationRequest, branding models.FirmBranding) error {
	if req.ToEmail == "" {
		return fmt.Errorf("communication %d has no recipient address", req.CommunicationID)
	}

	subject := req.Subject
	if subject == "" {
		subject = DEFAULT_SUBJECT
	}

	body := m.RenderHTML(req, branding)

	_, err := m.ses.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{req.ToEmail},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject), Charset: aws.String(EMAIL_CHARSET)},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(body), Charset: aws.String(EMAIL_CHARSET)},
				Text: &types.Content{Data: aws.String(req.Content), Charset: aws.String(EMAIL_CHARSET)},
			},
		},
		Source: aws.String(m.fromAddress),
	})
	if err != nil {
		slog.Error("[Mailer] Failed to send email",
			slog.Int64("communication_id", req.CommunicationID),
			slog.String("to", req.ToEmail),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email to %s: %w", req.ToEmail, err)
	}

	slog.Info("[Mailer] Email sent",
		slog.Int64("communication_id", req.CommunicationID),
		slog.String("to", req.ToEmail),
		slog.String("subject", subject))

	return nil
}

// FeedbackURL is the per-client link placed under every rendered email.
func (m *Mailer) FeedbackURL(clientID int64) string {
	return fmt.Sprintf("%s/feedback?client_id=%d", m.frontendURL, clientID)
}

const emailFrame = `<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;background-color:#f4f5f7;font-family:Arial,Helvetica,sans-serif;">
<div style="max-width:600px;margin:0 auto;background-color:#ffffff;">
<div style="background-color:#1a2b4c;color:#ffffff;padding:24px;font-size:20px;font-weight:bold;">%s</div>
<div style="padding:24px;color:#333333;font-size:15px;line-height:1.6;">%s</div>
<div style="padding:0 24px 32px;">
<a href="%s" style="display:inline-block;background-color:#2563eb;color:#ffffff;padding:12px 24px;border-radius:6px;text-decoration:none;font-weight:bold;">Provide Feedback</a>
</div>
<div style="padding:16px 24px;background-color:#f4f5f7;color:#6b7280;font-size:12px;line-height:1.5;">%s</div>
</div>
</body>
</html>`

// RenderHTML converts the request's markdown content to HTML and wraps
// it in the firm frame with a feedback call to action.
func (m *Mailer) RenderHTML(req models.CommunicationRequest, branding models.FirmBranding) string {
	content := blackfriday.Run([]byte(req.Content))

	firm := branding.CompanyName
	if firm == "" {
		firm = "Your Advisory Team"
	}
	firm = html.EscapeString(firm)

	footer := fmt.Sprintf("You are receiving this update from %s.", firm)
	if branding.ComplianceNotes != "" {
		footer += "<br/>" + html.EscapeString(branding.ComplianceNotes)
	}

	return fmt.Sprintf(emailFrame, firm, string(content), m.FeedbackURL(req.ClientID), footer)
}
