package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/gitlink/internal/deviceauth"
	"github.com/rpggio/gitlink/internal/domain/link"
	"github.com/rpggio/gitlink/internal/domain/project"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	if e.RecoveryHint == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.RecoveryHint)
}

// MapError maps domain errors to MCP error codes. It returns nil for errors
// without a stable code.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, project.ErrProjectNotFound):
		return &APIError{Code: "PROJECT_NOT_FOUND", Message: "project not found", RecoveryHint: "Call list_projects for valid ids"}
	case errors.Is(err, project.ErrAlreadyExists):
		return &APIError{Code: "PROJECT_EXISTS", Message: "a project already uses this worktree path"}
	case errors.Is(err, project.ErrInvalidInput), errors.Is(err, link.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error()}
	case errors.Is(err, link.ErrFlowNotFound):
		return &APIError{Code: "FLOW_NOT_FOUND", Message: "link flow not found", RecoveryHint: "Call start_link to open a new flow"}
	case errors.Is(err, deviceauth.ErrExpired):
		return &APIError{Code: "DEVICE_CODE_EXPIRED", Message: "device code expired", RecoveryHint: "Request a new code"}
	case errors.Is(err, deviceauth.ErrDenied):
		return &APIError{Code: "ACCESS_DENIED", Message: "the user declined the authorization"}
	case errors.Is(err, deviceauth.ErrUnknown):
		return &APIError{Code: "DEVICE_AUTH_FAILED", Message: err.Error(), RecoveryHint: "Retry later"}
	default:
		return nil
	}
}

func toolError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
