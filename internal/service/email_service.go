package service

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"gleanenglish/internal/logger"
)

// EmailSender is the part of the SES client used by EmailService
type EmailSender interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailService sends transactional email through Amazon SES
type EmailService struct {
	client     EmailSender
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
	log        *logger.Logger
}

// NewEmailService creates an email service. Without a from address the
// service is disabled and every send is skipped.
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName, appBaseURL string, log *logger.Logger) (*EmailService, error) {
	log = log.With("service", "EmailService")
	if fromEmail == "" {
		log.Info("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{log: log}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Info("Email service enabled", "from", fromEmail, "region", awsRegion)
	return NewEmailServiceWithClient(sesv2.NewFromConfig(cfg), fromEmail, fromName, appBaseURL, log), nil
}

// NewEmailServiceWithClient creates an enabled email service over an existing client
func NewEmailServiceWithClient(client EmailSender, fromEmail, fromName, appBaseURL string, log *logger.Logger) *EmailService {
	return &EmailService{
		client:     client,
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: strings.TrimSuffix(appBaseURL, "/"),
		enabled:    true,
		log:        log,
	}
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

var welcomeHTML = template.Must(template.New("welcome").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
	<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
		<div style="background-color: #4f46e5; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0;">
			<h1>Welcome to Glean English!</h1>
		</div>
		<div style="background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px;">
			<p>Hi {{.Name}},</p>
			<p>Your account is ready. Practice grammar with short quizzes and follow your progress on your dashboard.</p>
			<p style="text-align: center;">
				<a href="{{.Link}}" style="display: inline-block; padding: 12px 30px; background-color: #4f46e5; color: white; text-decoration: none; border-radius: 5px;">Start learning</a>
			</p>
		</div>
		<p style="text-align: center; font-size: 12px; color: #666;">This is an automated email from Glean English. Please do not reply.</p>
	</div>
</body>
</html>
`))

// SendWelcomeEmail greets a newly registered user
func (s *EmailService) SendWelcomeEmail(ctx context.Context, toEmail, toName string) error {
	if !s.enabled {
		s.log.Debug("Skipping welcome email (service disabled)", "to", toEmail)
		return nil
	}

	link := s.appBaseURL + "/lessons/noun"
	var html strings.Builder
	if err := welcomeHTML.Execute(&html, struct{ Name, Link string }{toName, link}); err != nil {
		return fmt.Errorf("failed to render welcome email: %w", err)
	}

	text := fmt.Sprintf(`Hi %s,

Your Glean English account is ready. Practice grammar with short quizzes and follow your progress on your dashboard.

Start learning: %s

---
This is an automated email from Glean English. Please do not reply.
`, toName, link)

	return s.sendEmail(ctx, toEmail, "Welcome to Glean English!", html.String(), text)
}

func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(htmlBody), Charset: aws.String("UTF-8")},
					Text: &types.Content{Data: aws.String(textBody), Charset: aws.String("UTF-8")},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	messageID := ""
	if result != nil && result.MessageId != nil {
		messageID = *result.MessageId
	}
	s.log.Info("Email sent", "to", toEmail, "subject", subject, "message_id", messageID)
	return nil
}
