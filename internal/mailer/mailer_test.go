package mailer

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paul-reitz/relate.io/internal/models"
)

type stubSES struct {
	inputs []*ses.SendEmailInput
	err    error
}

func (s *stubSES) SendEmail(_ context.Context, params *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	s.inputs = append(s.inputs, params)
	if s.err != nil {
		return nil, s.err
	}
	return &ses.SendEmailOutput{}, nil
}

func weeklyUpdateRequest() models.CommunicationRequest {
	return models.CommunicationRequest{
		CommunicationID: 12,
		ClientID:        7,
		AdvisorID:       3,
		ToEmail:         "john.smith@email.com",
		ClientName:      "John Smith",
		Content:         "Dear John,\n\nYour portfolio **gained 5.2%** this quarter.",
	}
}

func TestMailer_SendBuildsBrandedEmail(t *testing.T) {
	t.Setenv("FRONTEND_URL", "https://app.relate.io/")
	t.Setenv("SES_FROM_ADDRESS", "")

	stub := &stubSES{}
	m := New(stub)

	branding := models.FirmBranding{
		CompanyName:     "Acme Wealth",
		ComplianceNotes: "Past performance does not guarantee future results.",
	}

	err := m.Send(context.Background(), weeklyUpdateRequest(), branding)
	require.NoError(t, err)
	require.Len(t, stub.inputs, 1)

	input := stub.inputs[0]
	assert.Equal(t, "advisor@relate.io", *input.Source)
	assert.Equal(t, []string{"john.smith@email.com"}, input.Destination.ToAddresses)
	assert.Equal(t, "Your Weekly Portfolio Update", *input.Message.Subject.Data)

	htmlBody := *input.Message.Body.Html.Data
	assert.Contains(t, htmlBody, "<strong>gained 5.2%</strong>")
	assert.Contains(t, htmlBody, "https://app.relate.io/feedback?client_id=7")
	assert.Contains(t, htmlBody, "Acme Wealth")
	assert.Contains(t, htmlBody, "Past performance does not guarantee future results.")

	textBody := *input.Message.Body.Text.Data
	assert.Equal(t, "Dear John,\n\nYour portfolio **gained 5.2%** this quarter.", textBody)
}

func TestMailer_SendUsesPerRequestSubject(t *testing.T) {
	t.Setenv("SES_FROM_ADDRESS", "updates@acmewealth.com")

	stub := &stubSES{}
	m := New(stub)

	req := weeklyUpdateRequest()
	req.Subject = "Quarterly Review"

	err := m.Send(context.Background(), req, models.FirmBranding{})
	require.NoError(t, err)
	require.Len(t, stub.inputs, 1)

	assert.Equal(t, "Quarterly Review", *stub.inputs[0].Message.Subject.Data)
	assert.Equal(t, "updates@acmewealth.com", *stub.inputs[0].Source)
}

func TestMailer_SendFailurePropagates(t *testing.T) {
	sendErr := errors.New("Throttling: rate exceeded")
	stub := &stubSES{err: sendErr}
	m := New(stub)

	err := m.Send(context.Background(), weeklyUpdateRequest(), models.FirmBranding{})
	require.Error(t, err)
	assert.ErrorIs(t, err, sendErr)
	assert.Contains(t, err.Error(), "john.smith@email.com")
}

func TestMailer_SendRejectsMissingRecipient(t *testing.T) {
	stub := &stubSES{}
	m := New(stub)

	req := weeklyUpdateRequest()
	req.ToEmail = ""

	err := m.Send(context.Background(), req, models.FirmBranding{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no recipient address")
	assert.Empty(t, stub.inputs)
}

func TestRenderHTML(t *testing.T) {
	t.Setenv("FRONTEND_URL", "http://localhost:3000")

	m := New(&stubSES{})

	t.Run("defaults firm name when branding is empty", func(t *testing.T) {
		body := m.RenderHTML(weeklyUpdateRequest(), models.FirmBranding{})

		assert.Contains(t, body, "Your Advisory Team")
		assert.Contains(t, body, "http://localhost:3000/feedback?client_id=7")
		assert.Contains(t, body, "Provide Feedback")
	})

	t.Run("escapes firm name", func(t *testing.T) {
		body := m.RenderHTML(weeklyUpdateRequest(), models.FirmBranding{CompanyName: "Smith & Co."})

		assert.Contains(t, body, "Smith &amp; Co.")
	})

	t.Run("renders markdown headings and lists", func(t *testing.T) {
		req := weeklyUpdateRequest()
		req.Content = "## Highlights\n\n- AAPL up 4%\n- GOOGL up 2%"

		body := m.RenderHTML(req, models.FirmBranding{})

		assert.Contains(t, body, "<h2>Highlights</h2>")
		assert.Contains(t, body, "<li>AAPL up 4%</li>")
	})
}

func TestFeedbackURL_TrimsTrailingSlash(t *testing.T) {
	t.Setenv("FRONTEND_URL", "http://localhost:3000/")

	m := New(&stubSES{})

	assert.Equal(t, "http://localhost:3000/feedback?client_id=42", m.FeedbackURL(42))
}
