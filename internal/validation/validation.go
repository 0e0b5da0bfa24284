package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// MaxNameLength caps paragraph display names
	MaxNameLength = 120
	// MaxTextLength caps paragraph text; long enough for any speech, short
	// enough to keep the hash and chunking cheap
	MaxTextLength = 50000
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateParagraphName checks a paragraph display name
func ValidateParagraphName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: "name", Message: "name is required"}
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return ValidationError{Field: "name", Message: fmt.Sprintf("name must be at most %d characters", MaxNameLength)}
	}
	return nil
}

// ValidateParagraphText checks text submitted for training
func ValidateParagraphText(text string) error {
	if strings.TrimSpace(text) == "" {
		return ValidationError{Field: "text", Message: "text is required"}
	}
	if utf8.RuneCountInString(text) > MaxTextLength {
		return ValidationError{Field: "text", Message: fmt.Sprintf("text must be at most %d characters", MaxTextLength)}
	}
	return nil
}

// ValidateChunkSize checks the words-per-chunk slider value
func ValidateChunkSize(n int) error {
	if n < 1 || n > 100 {
		return ValidationError{Field: "chunk_size", Message: "chunk size must be between 1 and 100 words"}
	}
	return nil
}

// ValidateMemorizeTime checks the memorize countdown slider value
func ValidateMemorizeTime(n int) error {
	if n < 0 || n > 600 {
		return ValidationError{Field: "memorize_time", Message: "memorise time must be between 0 and 600 seconds"}
	}
	return nil
}
