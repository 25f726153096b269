package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/example/campus-booking/internal/booking"
	"github.com/example/campus-booking/internal/logging"
)

var errMissingToken = errors.New("an access token is required")

// CallerVerifier turns a bearer token into the acting principal.
type CallerVerifier interface {
	VerifyCaller(ctx context.Context, token string) (booking.Principal, error)
}

// TokenVerifier verifies HMAC signed access tokens issued by the identity
// service. The token subject is the user id; the "adm" claim marks
// administrators.
type TokenVerifier struct {
	secret []byte
}

// NewTokenVerifier creates a verifier for the shared signing secret.
func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret)}
}

// VerifyCaller implements CallerVerifier.
func (v *TokenVerifier) VerifyCaller(_ context.Context, tokenString string) (booking.Principal, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return booking.Principal{}, fmt.Errorf("%w: %v", booking.ErrUnauthorized, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return booking.Principal{}, booking.ErrUnauthorized
	}

	subject, _ := claims["sub"].(string)
	if subject == "" {
		return booking.Principal{}, booking.ErrUnauthorized
	}
	isAdmin, _ := claims["adm"].(bool)

	return booking.Principal{UserID: subject, IsAdmin: isAdmin}, nil
}

// RequireCaller rejects requests without a valid bearer token and stores the
// verified principal in the request context.
func RequireCaller(verifier CallerVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractTokenFromRequest(r)
			if token == "" {
				responder.writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{
					ErrorCode: "AUTH_TOKEN_MISSING",
					Message:   errMissingToken.Error(),
				})
				return
			}

			principal, err := verifier.VerifyCaller(r.Context(), token)
			if err != nil {
				responder.writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{
					ErrorCode: "AUTH_TOKEN_INVALID",
					Message:   "The access token is invalid or expired.",
				})
				return
			}

			ctx := ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestLogger attaches a per-request logger to the context and records
// request start and completion.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	var counter atomic.Uint64

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := counter.Add(1)
			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := logging.ContextWithLogger(r.Context(), logger)
			start := time.Now()
			logger.InfoContext(ctx, "request started")
			next.ServeHTTP(w, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed", "duration", time.Since(start))
		})
	}
}

func extractTokenFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		const prefix = "Bearer "
		if strings.HasPrefix(header, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(header, prefix))
		}
	}
	return ""
}
