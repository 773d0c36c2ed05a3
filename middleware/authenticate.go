package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"forum-gate-service/domain"
	"forum-gate-service/httperrors"
	"forum-gate-service/request"
)

const (
	sessionTokenHeader = "x-session-token"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.AuthenticateResponse, error)
}

func Authenticate(authenticator Authenticator) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx *request.Context) error {
			token := strings.TrimSpace(ctx.Param(sessionTokenHeader))
			if token == "" {
				return httperrors.New(
					http.StatusUnauthorized,
					"session token required",
					errors.New("authenticate: session token required"),
				)
			}

			resp, err := authenticator.Authenticate(ctx.Context(), token)
			if err != nil {
				return errors.WithMessage(err, "authenticate: authenticate")
			}
			if !resp.Authenticated || resp.User == nil {
				return httperrors.New(
					http.StatusUnauthorized,
					"invalid session token",
					errors.WithMessage(errors.New(resp.ErrorReason), "authenticate: authenticate"),
				)
			}
			ctx.Authenticate(*resp.User)

			return next.Handle(ctx)
		})
	}
}
