package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/escolaware/escola-api/internal/dto"
	appErrors "github.com/escolaware/escola-api/pkg/errors"
	"github.com/escolaware/escola-api/pkg/mailer"
)

// ContactService forwards contact-us submissions to the configured
// recipient. Delivery is best effort: a failed send is logged and the
// caller still gets an accepted response.
type ContactService struct {
	mailer    mailer.Mailer
	recipient mailer.Address
	validator *validator.Validate
	logger    *zap.Logger
}

// NewContactService creates a new contact service.
func NewContactService(m mailer.Mailer, recipient mailer.Address, validate *validator.Validate, logger *zap.Logger) *ContactService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactService{mailer: m, recipient: recipient, validator: validate, logger: logger}
}

// Submit validates and dispatches a contact message.
func (s *ContactService) Submit(ctx context.Context, req dto.ContactRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid contact payload")
	}

	msg, err := mailer.RenderContact(s.recipient, mailer.ContactData{
		Name:  req.Name,
		Email: req.Email,
		Body:  req.Message,
	})
	if err != nil {
		s.logger.Error("failed to render contact message", zap.Error(err))
		return nil
	}

	if s.mailer == nil {
		s.logger.Warn("no mailer configured, dropping contact message", zap.String("from", req.Email))
		return nil
	}

	if err := s.mailer.Send(msg); err != nil {
		s.logger.Error("failed to deliver contact message", zap.String("from", req.Email), zap.Error(err))
	}
	return nil
}
