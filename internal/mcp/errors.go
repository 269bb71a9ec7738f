package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/breakwatch/internal/analysis"
	"github.com/rpggio/breakwatch/internal/backup"
	"github.com/rpggio/breakwatch/internal/domain/activity"
	"github.com/rpggio/breakwatch/internal/domain/identity"
	"github.com/rpggio/breakwatch/internal/domain/scan"
	"github.com/rpggio/breakwatch/internal/syncer"
)

// ErrUnknownMethod is returned by Handle for names outside the tool catalog.
var ErrUnknownMethod = errors.New("unknown method")

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	var ingestErr *scan.IngestionError
	var decodeErr *backup.DecodeError
	var statusErr *syncer.StatusError

	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, scan.ErrInvalidTimestamp):
		details := map[string]string{}
		if errors.As(err, &ingestErr) {
			details["badge_code"] = ingestErr.BadgeCode
			details["timestamp"] = ingestErr.RawTimestamp
			details["reason"] = ingestErr.Reason
		}
		return &APIError{Code: "INVALID_TIMESTAMP", Message: "scan timestamp could not be parsed", Details: details, RecoveryHint: "Use RFC 3339 or YYYY-MM-DD HH:MM[:SS]"}
	case errors.Is(err, scan.ErrEmptyBadgeCode), errors.Is(err, scan.ErrInvalidStatus), errors.Is(err, scan.ErrInvalidInput):
		return &APIError{Code: "VALIDATION_FAILED", Message: err.Error()}
	case errors.Is(err, identity.ErrDuplicateBadgeCode):
		return &APIError{Code: "DUPLICATE_BADGE_CODE", Message: "badge code already registered", Details: validationFields(err), RecoveryHint: "Update the existing identity instead"}
	case errors.Is(err, identity.ErrDuplicateExternalRef):
		return &APIError{Code: "DUPLICATE_EXTERNAL_REF", Message: "external reference already registered", Details: validationFields(err), RecoveryHint: "Update the existing identity instead"}
	case errors.Is(err, identity.ErrInvalidInput):
		return &APIError{Code: "VALIDATION_FAILED", Message: "identity input is invalid", Details: validationFields(err)}
	case errors.Is(err, identity.ErrIdentityNotFound):
		return &APIError{Code: "IDENTITY_NOT_FOUND", Message: "identity not found", RecoveryHint: "Call list_identities to find the ID"}
	case errors.As(err, &decodeErr):
		return &APIError{Code: "DECODE_ERROR", Message: "backup document is malformed", Details: map[string]string{"path": decodeErr.Path, "reason": decodeErr.Reason}, RecoveryHint: "Nothing was restored; fix the document and retry"}
	case errors.Is(err, backup.ErrMalformedDocument):
		return &APIError{Code: "DECODE_ERROR", Message: err.Error(), RecoveryHint: "Nothing was restored; fix the document and retry"}
	case errors.Is(err, syncer.ErrNotConfigured):
		return &APIError{Code: "SYNC_NOT_CONFIGURED", Message: "no sync endpoint configured", RecoveryHint: "Call configure_sync first"}
	case errors.Is(err, syncer.ErrInvalidConfig):
		return &APIError{Code: "VALIDATION_FAILED", Message: err.Error()}
	case errors.Is(err, syncer.ErrNoRemoteDocument):
		return &APIError{Code: "NO_REMOTE_DOCUMENT", Message: "sync endpoint holds no backup", RecoveryHint: "Push from a device that has data"}
	case errors.As(err, &statusErr):
		return &APIError{Code: "SYNC_FAILED", Message: err.Error(), Details: map[string]any{"method": statusErr.Method, "status": statusErr.Code}}
	case errors.Is(err, analysis.ErrTrendWindow):
		return invalidParams(err)
	case errors.Is(err, activity.ErrInvalidInput):
		return &APIError{Code: "VALIDATION_FAILED", Message: err.Error()}
	default:
		return nil
	}
}

func validationFields(err error) any {
	var target *identity.ValidationError
	if errors.As(err, &target) && len(target.Fields) > 0 {
		return target.Fields
	}
	return nil
}

func invalidParams(err error) *APIError {
	return &APIError{Code: "INVALID_PARAMS", Message: fmt.Sprintf("invalid params: %v", err)}
}
