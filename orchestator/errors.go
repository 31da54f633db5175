package orchestator

import (
	"net/http"

	"github.com/Abraxas-365/chatkeep/pkg/errx"
)

// Error registry for orchestrator package
var errRegistry = errx.NewRegistry("ORCHESTRATOR")

var (
	ErrCodeInvalidRequest = errRegistry.Register(
		"INVALID_REQUEST",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Invalid chat request",
	)

	ErrCodeMissingMessage = errRegistry.Register(
		"MISSING_MESSAGE",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Message is required",
	)

	ErrCodeNotConfigured = errRegistry.Register(
		"NOT_CONFIGURED",
		errx.TypeInternal,
		http.StatusServiceUnavailable,
		"Orchestrator is not fully configured",
	)
)

func NewInvalidRequestError(reason string) *errx.Error {
	return errRegistry.NewWithMessage(ErrCodeInvalidRequest, reason)
}

func NewMissingMessageError() *errx.Error {
	return errRegistry.New(ErrCodeMissingMessage)
}

func NewNotConfiguredError(component string) *errx.Error {
	return errRegistry.New(ErrCodeNotConfigured).WithDetail("component", component)
}
