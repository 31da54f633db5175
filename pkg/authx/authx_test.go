package authx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Abraxas-365/chatkeep/pkg/errx"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifier_IssueAndVerify(t *testing.T) {
	v := NewVerifier("secret", "chatkeep")

	token, err := v.Issue("alice", time.Minute)
	require.NoError(t, err)

	claims, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, "chatkeep", claims.Issuer)
}

func TestVerifier_Rejects(t *testing.T) {
	v := NewVerifier("secret", "chatkeep")

	wrongSecret, err := NewVerifier("other", "chatkeep").Issue("alice", time.Minute)
	require.NoError(t, err)

	wrongIssuer, err := NewVerifier("secret", "someone-else").Issue("alice", time.Minute)
	require.NoError(t, err)

	expired, err := v.Issue("alice", -time.Minute)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "alice"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": wrongSecret,
		"wrong issuer": wrongIssuer,
		"expired":      expired,
		"alg none":     none,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(token)
			assert.True(t, errx.IsCode(err, ErrCodeInvalidToken), "got %v", err)
		})
	}
}

func newApp(v *Verifier) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := errx.As(err); ok {
				return c.Status(e.HTTPStatus).JSON(fiber.Map{"code": e.Code})
			}
			return c.SendStatus(fiber.StatusInternalServerError)
		},
	})
	app.Use(Middleware(v))
	app.Get("/me", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(SubjectKey).(string))
	})
	return app
}

func TestMiddleware(t *testing.T) {
	v := NewVerifier("secret", "")
	app := newApp(v)

	token, err := v.Issue("bob", time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer " + token, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"invalid", "Bearer nope", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
