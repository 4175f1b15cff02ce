// Package alert implements the Alert Fanout boundary: webhook, email
// (gated), and dashboard delivery for a detected anomaly, plus severity
// color mapping shared by both channels.
package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/sentinela-labs/sentinela/logging"
	"github.com/sentinela-labs/sentinela/store"
)

// Channel is one fanout destination kind.
type Channel string

const (
	ChannelWebhook   Channel = "webhook"
	ChannelEmail     Channel = "email"
	ChannelDashboard Channel = "dashboard"
)

// DefaultChannels matches the upstream default alert_types list when the
// caller doesn't specify one.
var DefaultChannels = []Channel{ChannelWebhook, ChannelDashboard}

// Outcome records one channel's delivery attempt for one destination.
type Outcome struct {
	Channel     Channel
	Destination string
	AlertID     string
	Err         error
}

// Summary is the result of SendAnomalyAlert across all requested
// channels.
type Summary struct {
	AnomalyID string
	Sent      []Outcome
	Failed    []Outcome
}

// EmailSender abstracts the templated email transport; Service is
// usable without one (email channel becomes a documented no-op).
type EmailSender interface {
	SendTemplateEmail(ctx context.Context, to, subject, template string, data map[string]interface{}) error
}

// Service sends alerts across the configured channels and records every
// attempt in the store, regardless of delivery outcome.
type Service struct {
	webhookURLs  []string
	alertEmails  []string
	emailEnabled bool

	store       store.AnomalyInvestigationStore
	emailSender EmailSender
	httpClient  *plainWebhookClient
	logger      logging.Logger
}

// New builds a Service. emailSender may be nil; if emailEnabled is true
// with a nil sender, email alerts are logged and skipped (matching the
// upstream "email disabled" fallback, generalised to "sender absent").
func New(webhookURLs, alertEmails []string, emailEnabled bool, st store.AnomalyInvestigationStore, emailSender EmailSender, logger logging.Logger) *Service {
	if logger == nil {
		logger = &logging.NoOpLogger{}
	}
	return &Service{
		webhookURLs:  webhookURLs,
		alertEmails:  alertEmails,
		emailEnabled: emailEnabled,
		store:        st,
		emailSender:  emailSender,
		httpClient:   newPlainWebhookClient(),
		logger:       logger,
	}
}

// AnomalyAlertInput is the rendering input for one anomaly, independent
// of the persisted store.Anomaly shape so callers can alert on data not
// yet committed.
type AnomalyAlertInput struct {
	ID              string
	Title           string
	Severity        store.Severity
	Score           float64
	Source          string
	AnomalyType     string
	Description     string
	Indicators      []string
	Recommendations []string
	ContractData    map[string]interface{}
}

// SendAnomalyAlert dispatches across channels (default {webhook,
// dashboard} when channels is empty), recording one Alert row per
// attempt win or loss is irrelevant to the record — delivery status is
// tracked via UpdateAlertStatus.
func (s *Service) SendAnomalyAlert(ctx context.Context, in AnomalyAlertInput, channels []Channel) Summary {
	if len(channels) == 0 {
		channels = DefaultChannels
	}

	summary := Summary{AnomalyID: in.ID}
	message := renderMessage(in)

	for _, ch := range channels {
		switch ch {
		case ChannelWebhook:
			for _, url := range s.webhookURLs {
				s.dispatchWebhook(ctx, in, url, message, &summary)
			}
		case ChannelEmail:
			for _, email := range s.alertEmails {
				s.dispatchEmail(ctx, in, email, message, &summary)
			}
		case ChannelDashboard:
			s.dispatchDashboard(ctx, in, message, &summary)
		}
	}

	return summary
}

func (s *Service) dispatchWebhook(ctx context.Context, in AnomalyAlertInput, url, message string, summary *Summary) {
	err := s.httpClient.post(ctx, url, webhookPayload(in))

	record, recordErr := s.store.CreateAlert(ctx, store.CreateAlertArgs{
		AnomalyID: in.ID, AlertType: store.AlertWebhook, Severity: in.Severity,
		Title: in.Title, Message: message, Recipients: []string{url},
		Metadata: map[string]interface{}{"sent_at": time.Now().UTC().Format(time.RFC3339)},
	})

	outcome := Outcome{Channel: ChannelWebhook, Destination: url}
	if recordErr == nil {
		outcome.AlertID = record.ID
	}
	if err != nil {
		outcome.Err = err
		s.logger.Error("webhook alert failed", map[string]interface{}{"anomaly_id": in.ID, "webhook_url": url, "error": err.Error()})
		summary.Failed = append(summary.Failed, outcome)
		if record != nil {
			_ = s.store.UpdateAlertStatus(ctx, record.ID, store.AlertFailed)
		}
		return
	}

	s.logger.Info("webhook alert sent", map[string]interface{}{"anomaly_id": in.ID, "webhook_url": url})
	summary.Sent = append(summary.Sent, outcome)
	if record != nil {
		_ = s.store.UpdateAlertStatus(ctx, record.ID, store.AlertSent)
	}
}

func (s *Service) dispatchEmail(ctx context.Context, in AnomalyAlertInput, email, message string, summary *Summary) {
	var err error
	if !s.emailEnabled || s.emailSender == nil {
		s.logger.Info("email alert skipped", map[string]interface{}{"reason": "email_disabled", "recipient": email, "anomaly_id": in.ID})
	} else {
		err = s.emailSender.SendTemplateEmail(ctx, email, emailSubject(in), "anomaly_alert", emailTemplateData(in))
	}

	record, recordErr := s.store.CreateAlert(ctx, store.CreateAlertArgs{
		AnomalyID: in.ID, AlertType: store.AlertEmail, Severity: in.Severity,
		Title: in.Title, Message: message, Recipients: []string{email},
		Metadata: map[string]interface{}{"sent_at": time.Now().UTC().Format(time.RFC3339)},
	})

	outcome := Outcome{Channel: ChannelEmail, Destination: email}
	if recordErr == nil {
		outcome.AlertID = record.ID
	}
	if err != nil {
		outcome.Err = err
		s.logger.Error("email alert failed", map[string]interface{}{"anomaly_id": in.ID, "email": email, "error": err.Error()})
		summary.Failed = append(summary.Failed, outcome)
		if record != nil {
			_ = s.store.UpdateAlertStatus(ctx, record.ID, store.AlertFailed)
		}
		return
	}

	summary.Sent = append(summary.Sent, outcome)
	if record != nil {
		_ = s.store.UpdateAlertStatus(ctx, record.ID, store.AlertSent)
	}
}

func (s *Service) dispatchDashboard(ctx context.Context, in AnomalyAlertInput, message string, summary *Summary) {
	record, err := s.store.CreateAlert(ctx, store.CreateAlertArgs{
		AnomalyID: in.ID, AlertType: store.AlertDashboard, Severity: in.Severity,
		Title: in.Title, Message: message, Recipients: nil,
		Metadata: map[string]interface{}{"created_at": time.Now().UTC().Format(time.RFC3339), "auto_generated": true},
	})

	outcome := Outcome{Channel: ChannelDashboard}
	if err != nil {
		outcome.Err = err
		s.logger.Error("dashboard alert failed", map[string]interface{}{"anomaly_id": in.ID, "error": err.Error()})
		summary.Failed = append(summary.Failed, outcome)
		return
	}

	outcome.AlertID = record.ID
	_ = s.store.UpdateAlertStatus(ctx, record.ID, store.AlertSent)
	summary.Sent = append(summary.Sent, outcome)
}

func webhookPayload(in AnomalyAlertInput) map[string]interface{} {
	return map[string]interface{}{
		"event":     "anomaly_detected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"anomaly": map[string]interface{}{
			"id":              in.ID,
			"title":           in.Title,
			"severity":        in.Severity,
			"score":           in.Score,
			"source":          in.Source,
			"type":            in.AnomalyType,
			"description":     in.Description,
			"indicators":      in.Indicators,
			"recommendations": in.Recommendations,
		},
		"contract": in.ContractData,
	}
}

func emailSubject(in AnomalyAlertInput) string {
	return fmt.Sprintf("[%s] Alerta de Anomalia: %s", in.Severity, in.Title)
}

func emailTemplateData(in AnomalyAlertInput) map[string]interface{} {
	return map[string]interface{}{
		"anomaly_id":       in.ID,
		"title":            in.Title,
		"severity":         in.Severity,
		"severity_color":   store.SeverityColor(in.Severity),
		"score":            in.Score,
		"source":           in.Source,
		"anomaly_type":     in.AnomalyType,
		"description":      in.Description,
		"indicators":       in.Indicators,
		"recommendations":  in.Recommendations,
		"contract_data":    in.ContractData,
		"detected_at":      time.Now().UTC().Format("02/01/2006 15:04:05"),
	}
}

func renderMessage(in AnomalyAlertInput) string {
	return fmt.Sprintf("[%s] %s — score %.4f from %s (%s)", in.Severity, in.Title, in.Score, in.Source, in.AnomalyType)
}
