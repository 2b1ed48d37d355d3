// internal/intake/intake.go
package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"omnilertlab-service/internal/model"
	"omnilertlab-service/internal/store"
)

// OrderStore persists accepted orders. Nil-able: with no database configured
// the intake runs on notification and email alone.
type OrderStore interface {
	InsertOrder(ctx context.Context, p store.OrderParams) (store.OrderRow, error)
}

// OrderMailer sends the operator and confirmation emails.
type OrderMailer interface {
	SendOrderEmails(ctx context.Context, o model.Order) bool
}

// OrderNotifier relays the order to the operator's messaging channel.
type OrderNotifier interface {
	NotifyOrder(ctx context.Context, o model.Order) bool
}

// FieldError is one field-addressable validation failure, suitable for
// inline form display.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result is the outcome of a submission attempt.
type Result struct {
	Success bool         `json:"success"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// Service validates commission orders and fans them out to persistence,
// email and notification.
type Service struct {
	store    OrderStore
	mailer   OrderMailer
	notifier OrderNotifier
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService creates an intake Service. store may be nil when no database
// is configured.
func NewService(st OrderStore, mailer OrderMailer, notifier OrderNotifier, logger *slog.Logger) *Service {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report errors under the JSON field names the form submitted.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Service{
		store:    st,
		mailer:   mailer,
		notifier: notifier,
		validate: v,
		logger:   logger,
	}
}

// Submit validates the order and, on acceptance, attempts all three side
// effects. The steps are isolated: each one runs regardless of the others'
// outcomes and each failure is logged on its own. The submission succeeds
// iff the durable record was written, or persistence is unconfigured.
func (s *Service) Submit(ctx context.Context, order model.Order) Result {
	if fieldErrs := s.Validate(order); len(fieldErrs) > 0 {
		return Result{Success: false, Errors: fieldErrs}
	}

	persisted := true
	if s.store != nil {
		row, err := s.store.InsertOrder(ctx, store.OrderParams{
			ProjectType:    order.ProjectType,
			ProjectName:    order.ProjectName,
			Description:    order.Description,
			Budget:         order.Budget,
			Timeline:       order.Timeline,
			ClientName:     order.Name,
			ClientEmail:    order.Email,
			ClientLinkedIn: order.LinkedIn,
		})
		if err != nil {
			persisted = false
			s.logger.Error("Order persistence failed", "project", order.ProjectName, "error", err)
		} else {
			s.logger.Info("Order persisted", "order_id", row.ID, "project", order.ProjectName)
		}
	} else {
		s.logger.Warn("Order store not configured, accepting order without persistence")
	}

	if !s.mailer.SendOrderEmails(ctx, order) {
		s.logger.Error("Order emails failed", "project", order.ProjectName)
	}

	if !s.notifier.NotifyOrder(ctx, order) {
		s.logger.Error("Order notification failed", "project", order.ProjectName)
	}

	return Result{Success: persisted}
}

// Validate checks the order against the form schema and returns
// field-addressable errors, empty on success.
func (s *Service) Validate(order model.Order) []FieldError {
	err := s.validate.Struct(order)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "", Message: err.Error()}}
	}

	fieldErrs := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fieldErrs = append(fieldErrs, FieldError{
			Field:   fe.Field(),
			Message: describeViolation(fe),
		})
	}
	return fieldErrs
}

func describeViolation(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
