package llm

import (
	"net/http"

	"github.com/Abraxas-365/chatkeep/pkg/errx"
)

var errRegistry = errx.NewRegistry("LLM")

var (
	ErrCodeProviderNotConfigured = errRegistry.Register(
		"PROVIDER_NOT_CONFIGURED",
		errx.TypeInternal,
		http.StatusInternalServerError,
		"LLM provider is not configured",
	)

	ErrCodeUnsupportedProvider = errRegistry.Register(
		"UNSUPPORTED_PROVIDER",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Unsupported LLM provider",
	)

	ErrCodeNoChoices = errRegistry.Register(
		"NO_CHOICES",
		errx.TypeExternal,
		http.StatusBadGateway,
		"Provider returned no choices",
	)
)

func ErrProviderNotConfigured() *errx.Error {
	return errRegistry.New(ErrCodeProviderNotConfigured)
}

func ErrUnsupportedProvider(name string) *errx.Error {
	return errRegistry.New(ErrCodeUnsupportedProvider).WithDetail("provider", name)
}

func ErrNoChoices(provider string) *errx.Error {
	return errRegistry.New(ErrCodeNoChoices).WithDetail("provider", provider)
}
