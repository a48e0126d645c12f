package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	apperrors "petrent/pkg/errors"
	httputil "petrent/pkg/http"
	"petrent/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
)

var errMissingToken = errors.New("missing bearer token")

type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// SignToken issues an HS256 token for subject. Used by tooling and tests.
func SignToken(secret []byte, subject, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func ParseToken(secret []byte, tokenStr string) (*Claims, error) {
	claims := &Claims{}
	t, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !t.Valid || claims.Subject == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// Authenticate resolves the caller's subject from a bearer token. When
// required is false a request without a token passes through anonymously.
func Authenticate(secret []byte, required bool, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, err := bearerToken(r)
			if errors.Is(err, errMissingToken) && !required {
				next.ServeHTTP(w, r)
				return
			}
			if err == nil {
				var claims *Claims
				claims, err = ParseToken(secret, tokenStr)
				if err == nil {
					next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), claims.Subject)))
					return
				}
			}

			log.Warn("Authentication failed",
				"request_id", requestID(r),
				"path", r.URL.Path,
				"error", err,
			)
			_ = httputil.WriteError(w, apperrors.Unauthorized("Authentication required"))
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", errMissingToken
	}
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", errors.New("malformed authorization header")
	}
	return strings.TrimSpace(token), nil
}
