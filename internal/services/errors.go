package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTransient marks a recoverable failure of a remote collaborator. A
	// stage responds by applying its local fallback; the item keeps moving.
	ErrTransient = errors.New("transient failure")
	// ErrFatalItem marks an unprocessable record. The owning stage drops the
	// item and records a diagnostic; the pipeline continues.
	ErrFatalItem = errors.New("fatal item error")
	// ErrConfiguration marks invalid startup configuration. It never reaches
	// the pipeline runtime.
	ErrConfiguration = errors.New("configuration error")
	// ErrTimeout marks expiry of the overall pipeline deadline.
	ErrTimeout = errors.New("pipeline timeout")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above; nil defaults to ErrTransient.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsTransient reports whether err should be recovered via a stage fallback.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// IsFatalItem reports whether err makes the item unprocessable.
func IsFatalItem(err error) bool {
	return errors.Is(err, ErrFatalItem)
}

// IsTimeout reports whether err represents pipeline deadline expiry.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
