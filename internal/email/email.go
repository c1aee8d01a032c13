package email

import (
	"fmt"

	"trainboard-backend/internal/models"

	"github.com/labstack/echo/v4"
	resend "github.com/resend/resend-go/v2"
)

// EmailClient is an interface for sending emails
type EmailClient interface {
	SendAsync(toEmail, subject, htmlBody string)
	SendAssignmentEmail(participant *models.Participant, training *models.Training)
	SendFeedbackReceiptEmail(participant *models.Participant, training *models.Training, certificateID string)
}

// ResendEmailClient implements EmailClient using the Resend service
type ResendEmailClient struct {
	client        *resend.Client
	defaultSender string
	logger        echo.Logger
}

// NewResendEmailClient creates a new ResendEmailClient
func NewResendEmailClient(client *resend.Client, defaultSender string, logger echo.Logger) *ResendEmailClient {
	return &ResendEmailClient{
		client:        client,
		defaultSender: defaultSender,
		logger:        logger,
	}
}

// SendAsync sends an email asynchronously
func (c *ResendEmailClient) SendAsync(toEmail, subject, htmlBody string) {
	if c == nil || c.client == nil {
		return
	}

	if c.defaultSender == "" {
		c.logger.Errorf("Resend default sender not configured, skipping email.")
		return
	}

	go func() {
		params := &resend.SendEmailRequest{
			From:    c.defaultSender,
			To:      []string{toEmail},
			Subject: subject,
			Html:    htmlBody,
		}

		_, err := c.client.Emails.Send(params)
		if err != nil {
			c.logger.Errorf("Failed to send email to %s (Subject: %s): %v", toEmail, subject, err)
		} else {
			c.logger.Infof("Email sent successfully to %s (Subject: %s)", toEmail, subject)
		}
	}()
}

// SendAssignmentEmail notifies a participant that they were scheduled for a
// training.
func (c *ResendEmailClient) SendAssignmentEmail(participant *models.Participant, training *models.Training) {
	if participant == nil || training == nil {
		return
	}

	subject := fmt.Sprintf("You have been assigned to %q", training.Topic)
	htmlBody := fmt.Sprintf(
		"<p>Hi %s,</p><p>You have been assigned to the training <strong>%s</strong> "+
			"with %s on %s. Please submit your feedback after attending.</p>",
		participant.Name, training.Topic, training.Trainer,
		training.Date.Format("Jan 2, 2006"))

	c.SendAsync(participant.Email, subject, htmlBody)
}

// SendFeedbackReceiptEmail confirms a feedback submission and carries the
// certificate serial the participant can print their certificate with.
func (c *ResendEmailClient) SendFeedbackReceiptEmail(participant *models.Participant, training *models.Training, certificateID string) {
	if participant == nil || training == nil {
		return
	}

	subject := fmt.Sprintf("Feedback received for %q", training.Topic)
	htmlBody := fmt.Sprintf(
		"<p>Hi %s,</p><p>Thank you for your feedback on <strong>%s</strong>. "+
			"Your completion certificate serial is <code>%s</code>.</p>",
		participant.Name, training.Topic, certificateID)

	c.SendAsync(participant.Email, subject, htmlBody)
}
