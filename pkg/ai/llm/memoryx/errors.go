package memoryx

import (
	"net/http"

	"github.com/Abraxas-365/chatkeep/pkg/errx"
)

var errRegistry = errx.NewRegistry("MEMORY")

var (
	ErrCodeStorageFailed = errRegistry.Register(
		"STORAGE_FAILED",
		errx.TypeInternal,
		http.StatusServiceUnavailable,
		"Session storage is unavailable",
	)

	ErrCodeInvalidSessionID = errRegistry.Register(
		"INVALID_SESSION_ID",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Invalid session id",
	)

	ErrCodeInvalidMessage = errRegistry.Register(
		"INVALID_MESSAGE",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Invalid message role",
	)

	ErrCodeMessageSerializationFailed = errRegistry.Register(
		"MESSAGE_SERIALIZATION_FAILED",
		errx.TypeInternal,
		http.StatusInternalServerError,
		"Failed to serialize message",
	)
)

// ErrStorage wraps a failure of the storage medium
func ErrStorage(op string, cause error) *errx.Error {
	return errRegistry.NewWithCause(ErrCodeStorageFailed, cause).WithDetail("op", op)
}

func ErrInvalidSessionID(id SessionID, reason string) *errx.Error {
	return errRegistry.NewWithMessage(ErrCodeInvalidSessionID, reason).
		WithDetail("session_id", string(id))
}

func ErrInvalidMessage(role string) *errx.Error {
	return errRegistry.New(ErrCodeInvalidMessage).WithDetail("role", role)
}

func ErrMessageSerializationFailed(cause error) *errx.Error {
	return errRegistry.NewWithCause(ErrCodeMessageSerializationFailed, cause)
}

// IsStorageError reports whether err is a storage failure
func IsStorageError(err error) bool {
	return errx.IsCode(err, ErrCodeStorageFailed)
}
