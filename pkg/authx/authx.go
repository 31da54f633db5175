package authx

import (
	"net/http"
	"strings"
	"time"

	"github.com/Abraxas-365/chatkeep/pkg/errx"
	"github.com/Abraxas-365/chatkeep/pkg/logx"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var errRegistry = errx.NewRegistry("AUTH")

var (
	ErrCodeMissingToken = errRegistry.Register(
		"MISSING_TOKEN",
		errx.TypeUnauthorized,
		http.StatusUnauthorized,
		"Bearer token is required",
	)

	ErrCodeInvalidToken = errRegistry.Register(
		"INVALID_TOKEN",
		errx.TypeUnauthorized,
		http.StatusUnauthorized,
		"Bearer token is invalid",
	)
)

// SubjectKey is the fiber.Ctx local holding the authenticated subject
const SubjectKey = "auth_subject"

// Claims are the token claims accepted by the API
type Claims struct {
	jwt.RegisteredClaims
}

// Verifier checks HS256 tokens signed with a shared secret
type Verifier struct {
	secret []byte
	issuer string
}

// NewVerifier creates a verifier. A non-empty issuer must match the iss claim.
func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer}
}

// Verify parses and validates a compact JWT
func (v *Verifier) Verify(token string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, errRegistry.NewWithCause(ErrCodeInvalidToken, err)
	}
	return claims, nil
}

// Issue signs a token for subject valid for ttl
func (v *Verifier) Issue(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// Middleware rejects requests without a valid bearer token and stores the
// token subject under SubjectKey
func Middleware(v *Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			return errRegistry.New(ErrCodeMissingToken)
		}

		claims, err := v.Verify(strings.TrimSpace(token))
		if err != nil {
			logx.WithFields(logx.Fields{
				"path":       c.Path(),
				"request_id": c.Get("X-Request-ID"),
			}).WithError(err).Warn("Rejected bearer token")
			return err
		}

		c.Locals(SubjectKey, claims.Subject)
		return c.Next()
	}
}
