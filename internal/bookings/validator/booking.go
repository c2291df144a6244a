package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"tripshare/pkg/logger"
	"tripshare/pkg/model"

	"github.com/go-playground/validator/v10"
)

var (
	orderIDRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validator.New()

	if err := v.RegisterValidation("order_id", validateOrderID); err != nil {
		log.Fatal("Failed to register 'order_id' validator",
			"error", err,
		)
	}

	log.Debug("Booking validator initialized successfully")

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

func validateOrderID(fl validator.FieldLevel) bool {
	return orderIDRegex.MatchString(fl.Field().String())
}

func (v *BookingValidator) ValidateCreateTrip(req *model.CreateTripRequest) error {
	if err := v.validateStruct(req); err != nil {
		return err
	}
	if strings.EqualFold(strings.TrimSpace(req.DepartureCity), strings.TrimSpace(req.ArrivalCity)) {
		return ValidationErrors{
			ValidationError{
				Field:   "ArrivalCity",
				Message: "arrival_city must differ from departure_city",
			},
		}
	}
	return nil
}

func (v *BookingValidator) ValidateBook(req *model.BookRequest) error {
	return v.validateStruct(req)
}

func (v *BookingValidator) ValidateTransition(req *model.TransitionRequest) error {
	return v.validateStruct(req)
}

func (v *BookingValidator) ValidateCapture(req *model.CaptureRequest) error {
	return v.validateStruct(req)
}

func (v *BookingValidator) ValidatePaymentStatus(req *model.PaymentStatusRequest) error {
	return v.validateStruct(req)
}

func (v *BookingValidator) ValidateDeactivate(req *model.DeactivateTripRequest) error {
	return v.validateStruct(req)
}

func (v *BookingValidator) validateStruct(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "required_without":
			message = fmt.Sprintf("%s is required when %s is absent", err.Field(), err.Param())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "datetime":
			message = fmt.Sprintf("%s must match layout %s", err.Field(), err.Param())
		case "nefield":
			message = fmt.Sprintf("%s must differ from %s", err.Field(), err.Param())
		case "order_id":
			message = fmt.Sprintf("%s must be 1-64 letters, digits, '-' or '_'", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
