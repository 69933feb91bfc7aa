package failure

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrParse            = errors.New("parse error")
	ErrEmptyIndex       = errors.New("no matching entries")
	ErrCopy             = errors.New("copy error")
	ErrCodecUnavailable = errors.New("codec unavailable")
	ErrConversion       = errors.New("conversion error")
	ErrCanceled         = errors.New("canceled")
)

// Reason is the stable identifier reported when a job fails.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonNotFound         Reason = "not_found"
	ReasonEmptyIndex       Reason = "empty_index"
	ReasonCodecUnavailable Reason = "codec_unavailable"
	ReasonCanceled         Reason = "canceled"
	ReasonInternal         Reason = "internal"
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		if err == nil {
			return errors.New(detail)
		}
		return fmt.Errorf("%s: %w", detail, err)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ReasonOf maps an error that ended a job to its failure reason. Parse errors
// report as an empty index because an unreadable manifest yields no entries.
func ReasonOf(err error) Reason {
	switch {
	case err == nil:
		return ReasonNone
	case errors.Is(err, ErrCanceled), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ReasonCanceled
	case errors.Is(err, ErrNotFound):
		return ReasonNotFound
	case errors.Is(err, ErrEmptyIndex), errors.Is(err, ErrParse):
		return ReasonEmptyIndex
	case errors.Is(err, ErrCodecUnavailable):
		return ReasonCodecUnavailable
	default:
		return ReasonInternal
	}
}

// IsItemError reports whether err is a recoverable per-item failure.
func IsItemError(err error) bool {
	return errors.Is(err, ErrCopy) || errors.Is(err, ErrConversion)
}

// Message returns the user-facing sentence for a failure reason.
func (r Reason) Message() string {
	switch r {
	case ReasonNotFound:
		return "no asset index found in the Minecraft folder"
	case ReasonEmptyIndex:
		return "no matching sound entries found in the asset index"
	case ReasonCodecUnavailable:
		return "audio codec is unavailable; extracted files were kept"
	case ReasonCanceled:
		return "extraction canceled"
	case ReasonInternal:
		return "extraction failed"
	default:
		return ""
	}
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
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
