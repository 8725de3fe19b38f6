package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/bafnalights-dot/stock/internal/model"
	"github.com/bafnalights-dot/stock/platform/logger"
)

var validate = validator.New()

// RequestEmailReport accepts a report delivery. It is queued when a publisher is
// configured and sent before returning otherwise.
func (svc *service) RequestEmailReport(ctx context.Context, email string) (*model.ReportEmailRequest, error) {
	const op string = "report.service.RequestEmailReport"

	email = strings.TrimSpace(email)
	if err := validate.Var(email, "required,email"); err != nil {
		return nil, fmt.Errorf("%s: %w", op, model.ValidationError("invalid email address %q", email))
	}

	req := model.ReportEmailRequest{
		RequestID:   uuid.New(),
		Email:       email,
		RequestedAt: svc.now().UTC(),
	}
	log := logger.With(
		logger.String("request_id", req.RequestID.String()),
		logger.String("email", email),
	)

	if svc.queue != nil {
		if err := svc.queue.PublishReportRequest(ctx, req); err != nil {
			log.Error(ctx, "publish report request", logger.ErrorF(err))
			return nil, fmt.Errorf("%s: %w", op, model.ErrBadGateway)
		}
		log.Info(ctx, "report request queued")
		return &req, nil
	}

	if err := svc.SendEmailReport(ctx, req); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &req, nil
}

// SendEmailReport renders the workbook and mails it to the requester. Concurrent
// sends to the same address are rejected with ErrServiceBusy while a locker is set.
func (svc *service) SendEmailReport(ctx context.Context, req model.ReportEmailRequest) error {
	const op string = "report.service.SendEmailReport"
	log := logger.With(
		logger.String("request_id", req.RequestID.String()),
		logger.String("email", req.Email),
	)

	if svc.mailer == nil {
		log.Error(ctx, "mailer is not configured")
		return fmt.Errorf("%s: %w", op, model.ErrBadGateway)
	}

	if svc.locker != nil {
		unlock, err := svc.locker.Lock(ctx, "report-email:"+strings.ToLower(req.Email), svc.lockTTL)
		if err != nil {
			log.Warn(ctx, "obtain report lock", logger.ErrorF(err))
			if errors.Is(err, model.ErrServiceBusy) {
				return fmt.Errorf("%s: %w", op, err)
			}
			return fmt.Errorf("%s: %w", op, model.ErrBadGateway)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				log.Warn(ctx, "release report lock", logger.ErrorF(err))
			}
		}()
	}

	wb, err := svc.Export(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = svc.mailer.Send(ctx, model.Mail{
		To:      []string{req.Email},
		Subject: "Stock report " + wb.GeneratedAt.Format(dateLayout),
		Body:    "Please find attached the stock report generated at " + wb.GeneratedAt.Format(dateTimeLayout) + ".",
		Attachments: []model.Attachment{{
			Filename:    wb.Filename,
			ContentType: model.ExcelContentType,
			Content:     wb.Content,
		}},
	})
	if err != nil {
		log.Error(ctx, "mailer send", logger.ErrorF(err))
		return fmt.Errorf("%s: %w", op, model.ErrBadGateway)
	}

	log.Info(ctx, "report e-mailed", logger.String("filename", wb.Filename))
	return nil
}
