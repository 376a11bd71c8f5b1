package middleware

import (
	"net/http"
	"strings"

	"github.com/2beens/fitcoach/internal/telemetry/tracing"
	"github.com/2beens/fitcoach/pkg"

	lru "github.com/hashicorp/golang-lru/v2"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

const AdminTokenHeader = "X-FITCOACH-TOKEN"

//go:generate mockgen -source=$GOFILE -destination=auth_mocks_test.go -package=middleware_test

type tokenChecker interface {
	IsValid(token string) bool
}

// BcryptTokenChecker compares admin tokens against a bcrypt hash.
// Tokens that passed once are remembered, so bcrypt runs once per token.
type BcryptTokenChecker struct {
	tokenHash string
	accepted  *lru.Cache[string, struct{}]
}

func NewBcryptTokenChecker(tokenHash string) *BcryptTokenChecker {
	accepted, _ := lru.New[string, struct{}](16)
	return &BcryptTokenChecker{
		tokenHash: tokenHash,
		accepted:  accepted,
	}
}

func (c *BcryptTokenChecker) IsValid(token string) bool {
	if token == "" || c.tokenHash == "" {
		return false
	}
	if c.accepted.Contains(token) {
		return true
	}
	if !pkg.CheckSecretHash(token, c.tokenHash) {
		return false
	}
	c.accepted.Add(token, struct{}{})
	return true
}

type AuthMiddlewareHandler struct {
	tokenChecker      tokenChecker
	protectedPrefixes []string
}

// NewAuthMiddlewareHandler guards the admin paths, every other path is public.
func NewAuthMiddlewareHandler(tokenChecker tokenChecker) *AuthMiddlewareHandler {
	return &AuthMiddlewareHandler{
		tokenChecker: tokenChecker,
		protectedPrefixes: []string{
			"/insights/reports",
		},
	}
}

func (h *AuthMiddlewareHandler) pathIsProtected(path string) bool {
	for _, prefix := range h.protectedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (h *AuthMiddlewareHandler) AuthCheck() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, span := tracing.GlobalTracer.Start(r.Context(), "middleware.auth")
			defer span.End()

			if r.Method == http.MethodOptions {
				w.Header().Add("Allow", "GET, POST, OPTIONS")
				w.WriteHeader(http.StatusOK)
				span.SetStatus(codes.Ok, "options-ok")
				return
			}

			if !h.pathIsProtected(r.URL.Path) {
				span.SetStatus(codes.Ok, "ok")
				next.ServeHTTP(w, r)
				return
			}

			authToken := r.Header.Get(AdminTokenHeader)
			if authToken == "" {
				log.Tracef("[missing token] [auth middleware] unauthorized => %s", r.URL.Path)
				http.Error(w, "no can do", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "missing-auth-token")
				return
			}

			if !h.tokenChecker.IsValid(authToken) {
				reqIp, _ := pkg.ReadUserIP(r)
				log.Warnf("[invalid token] [auth middleware] unauthorized => %s from %s", r.URL.Path, reqIp)
				http.Error(w, "no can do", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "invalid-token")
				return
			}

			span.SetStatus(codes.Ok, "ok")
			next.ServeHTTP(w, r)
		})
	}
}
