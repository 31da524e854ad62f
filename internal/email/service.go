package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/royaltymeds/pharmacy-api/config"
	"github.com/royaltymeds/pharmacy-api/pkg/metrics"
)

type Service interface {
	SendOrderConfirmation(ctx context.Context, to, orderID, total string) error
	SendPaymentReceived(ctx context.Context, to, orderID string) error
	SendPrescriptionStatus(ctx context.Context, to, status string) error
	SendRefillUpdate(ctx context.Context, to, status string) error
	SendCustom(ctx context.Context, to, subject, content string) error
}

type smtpService struct {
	dialer  *gomail.Dialer
	from    string
	metrics *metrics.Metrics
}

func NewSMTPService(cfg config.SMTPConfig, m *metrics.Metrics) Service {
	return &smtpService{
		dialer:  gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:    cfg.From,
		metrics: m,
	}
}

func (s *smtpService) send(template, to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	err := s.dialer.DialAndSend(msg)
	if s.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		s.metrics.EmailsSent.WithLabelValues(template, status).Inc()
	}
	if err != nil {
		return fmt.Errorf("failed to send %s email: %w", template, err)
	}
	return nil
}

func (s *smtpService) SendOrderConfirmation(ctx context.Context, to, orderID, total string) error {
	body := fmt.Sprintf("<p>Thank you for your order.</p><p>Order reference: %s<br>Total: %s</p>", orderID, total)
	return s.send("order_confirmation", to, "Your RoyaltyMeds order", body)
}

func (s *smtpService) SendPaymentReceived(ctx context.Context, to, orderID string) error {
	body := fmt.Sprintf("<p>We have received payment for order %s. It is now being prepared.</p>", orderID)
	return s.send("payment_received", to, "Payment received", body)
}

func (s *smtpService) SendPrescriptionStatus(ctx context.Context, to, status string) error {
	body := fmt.Sprintf("<p>Your prescription status has changed to <b>%s</b>.</p>", status)
	return s.send("prescription_status", to, "Prescription update", body)
}

func (s *smtpService) SendRefillUpdate(ctx context.Context, to, status string) error {
	body := fmt.Sprintf("<p>Your refill request is now <b>%s</b>.</p>", status)
	return s.send("refill_update", to, "Refill request update", body)
}

func (s *smtpService) SendCustom(ctx context.Context, to, subject, content string) error {
	return s.send("custom", to, subject, content)
}
