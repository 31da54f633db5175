package agentx

import (
	"net/http"

	"github.com/Abraxas-365/chatkeep/pkg/errx"
)

var errRegistry = errx.NewRegistry("AGENT")

var (
	ErrCodeGenerationFailed = errRegistry.Register(
		"GENERATION_FAILED",
		errx.TypeExternal,
		http.StatusBadGateway,
		"The model failed to generate a reply",
	)

	ErrCodeEmptyReply = errRegistry.Register(
		"EMPTY_REPLY",
		errx.TypeExternal,
		http.StatusBadGateway,
		"The model returned an empty reply",
	)

	ErrCodeEmptyInput = errRegistry.Register(
		"EMPTY_INPUT",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Message cannot be empty",
	)
)

func ErrGenerationFailed(cause error) *errx.Error {
	return errRegistry.NewWithCause(ErrCodeGenerationFailed, cause)
}

func ErrEmptyReply(provider string) *errx.Error {
	return errRegistry.New(ErrCodeEmptyReply).WithDetail("provider", provider)
}

func ErrEmptyInput() *errx.Error {
	return errRegistry.New(ErrCodeEmptyInput)
}

// IsGenerationError reports whether err came from the model call
func IsGenerationError(err error) bool {
	return errx.IsCode(err, ErrCodeGenerationFailed) || errx.IsCode(err, ErrCodeEmptyReply)
}
