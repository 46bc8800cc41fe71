package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/dsemenov/remindd/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums and wire formats
	// These should never fail in normal operation, but log if they do
	if err := Validate.RegisterValidation("payload_kind", validatePayloadKind); err != nil {
		panic(fmt.Sprintf("failed to register payload_kind validator: %v", err))
	}
	if err := Validate.RegisterValidation("due_date", validateDueDate); err != nil {
		panic(fmt.Sprintf("failed to register due_date validator: %v", err))
	}
	if err := Validate.RegisterValidation("due_time", validateDueTime); err != nil {
		panic(fmt.Sprintf("failed to register due_time validator: %v", err))
	}
}

// validatePayloadKind validates that a string is a valid PayloadKind enum value
func validatePayloadKind(fl validator.FieldLevel) bool {
	return models.PayloadKind(fl.Field().String()).Valid()
}

// validateDueDate validates that a string parses as a YYYY-MM-DD calendar date
func validateDueDate(fl validator.FieldLevel) bool {
	_, err := models.ParseDate(fl.Field().String())
	return err == nil
}

// validateDueTime validates that a string parses as an HH:MM wall-clock time
func validateDueTime(fl validator.FieldLevel) bool {
	_, err := models.ParseClockTime(fl.Field().String())
	return err == nil
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	// Trim whitespace
	text = strings.TrimSpace(text)

	// Remove control characters except newline and tab
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidatePayloadKind validates a PayloadKind string value
func ValidatePayloadKind(value string) error {
	if !models.PayloadKind(value).Valid() {
		return fmt.Errorf("invalid kind: %s (must be one of 'text', 'photo', 'video', 'audio', 'document', 'voice', or 'video_note')", value)
	}
	return nil
}
