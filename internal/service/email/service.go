package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/resend/resend-go/v3"

	"bloodlink/internal/config"
)

//go:embed templates/*.html
var templateFS embed.FS

type Service interface {
	SendCampaignExpiredEmail(ctx context.Context, toEmail, ownerName, campaignTitle string, endDate time.Time) error
	SendRequestCancelledEmail(ctx context.Context, toEmail, recipientName string, bloodGroup, reason string) error
}

type service struct {
	client *resend.Client
	config *config.Config
}

func NewService(cfg *config.Config) Service {
	return &service{
		client: resend.NewClient(cfg.ResendAPIKey),
		config: cfg,
	}
}

func render(templateName string, data any) (string, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+templateName)
	if err != nil {
		return "", fmt.Errorf("failed to parse email templates: %w", err)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return "", fmt.Errorf("failed to execute email template: %w", err)
	}
	return body.String(), nil
}

// sendEmail is a no-op when no Resend API key is configured.
func (s *service) sendEmail(ctx context.Context, toEmail, subject, templateName string, data any) error {
	if s.config.ResendAPIKey == "" {
		return nil
	}

	html, err := render(templateName, data)
	if err != nil {
		return err
	}

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("BloodLink <%s>", s.config.FromEmail),
		To:      []string{toEmail},
		Html:    html,
		Subject: subject,
	}

	_, err = s.client.Emails.SendWithContext(ctx, params)
	return err
}

func (s *service) SendCampaignExpiredEmail(ctx context.Context, toEmail, ownerName, campaignTitle string, endDate time.Time) error {
	data := struct {
		Title         string
		Name          string
		CampaignTitle string
		EndDate       string
	}{
		Title:         "Your campaign is past its end date",
		Name:          ownerName,
		CampaignTitle: campaignTitle,
		EndDate:       endDate.Format("2 January 2006"),
	}
	return s.sendEmail(ctx, toEmail, fmt.Sprintf("%s has passed its end date - BloodLink", campaignTitle), "campaign_expired.html", data)
}

func (s *service) SendRequestCancelledEmail(ctx context.Context, toEmail, recipientName string, bloodGroup, reason string) error {
	data := struct {
		Title      string
		Name       string
		BloodGroup string
		Reason     string
	}{
		Title:      "Request cancelled",
		Name:       recipientName,
		BloodGroup: bloodGroup,
		Reason:     reason,
	}
	return s.sendEmail(ctx, toEmail, fmt.Sprintf("%s request cancelled - BloodLink", bloodGroup), "request_cancelled.html", data)
}
