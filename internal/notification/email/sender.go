package email

import (
	"context"
	"fmt"
	"net/smtp"
	"os"

	"github.com/Hasin-ai/E-commerce-sub001/pkg/mylogger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Sender interface {
	SendOrderConfirmation(ctx context.Context, to, orderNumber, total string) error
	SendOrderCancellation(ctx context.Context, to, orderNumber, reason string) error
	SendRefundNotice(ctx context.Context, to, amount string) error
}

type smtpSender struct {
	from     string
	password string
	host     string
	port     string
	logger   *zap.Logger
	tracer   trace.Tracer
}

func NewSMTPSender(logger *zap.Logger) Sender {
	return &smtpSender{
		from:     os.Getenv("SMTP_USER"),
		password: os.Getenv("SMTP_PASSWORD"),
		host:     os.Getenv("SMTP_HOST"),
		port:     os.Getenv("SMTP_PORT"),
		logger:   logger,
		tracer:   otel.Tracer("notification/email"),
	}
}

func (s *smtpSender) SendOrderConfirmation(ctx context.Context, to, orderNumber, total string) error {
	subject := fmt.Sprintf("Subject: Order %s confirmed\n", orderNumber)
	body := fmt.Sprintf("<h1>Thanks for your purchase!</h1><p>Order %s for %s is confirmed.</p>", orderNumber, total)

	return s.send(ctx, "smtp.SendOrderConfirmation", to, subject, body)
}

func (s *smtpSender) SendOrderCancellation(ctx context.Context, to, orderNumber, reason string) error {
	subject := fmt.Sprintf("Subject: Order %s cancelled\n", orderNumber)
	body := fmt.Sprintf("<h1>Your order was cancelled</h1><p>Order %s: %s.</p>", orderNumber, reason)

	return s.send(ctx, "smtp.SendOrderCancellation", to, subject, body)
}

func (s *smtpSender) SendRefundNotice(ctx context.Context, to, amount string) error {
	subject := "Subject: Your refund is on the way\n"
	body := fmt.Sprintf("<h1>Refund issued</h1><p>%s will arrive within a few business days.</p>", amount)

	return s.send(ctx, "smtp.SendRefundNotice", to, subject, body)
}

func (s *smtpSender) send(ctx context.Context, spanName, to, subject, body string) error {
	ctx, span := s.tracer.Start(ctx, spanName)
	defer span.End()

	span.SetAttributes(
		attribute.String("to.email", to),
	)

	mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
	msg := []byte(subject + mime + body)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	auth := smtp.PlainAuth("", s.from, s.password, s.host)

	if err := smtp.SendMail(addr, auth, s.from, []string{to}, msg); err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			s.logger,
			"Failed to send email",
			zap.String("to", to),
			zap.Error(err),
		)

		return err
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Email sent",
		zap.String("to", to),
	)

	return nil
}
