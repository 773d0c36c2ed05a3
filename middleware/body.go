package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"github.com/txix-open/isp-kit/json"
	"forum-gate-service/httperrors"
	"forum-gate-service/request"
)

// peekBody unmarshals a projection of the request body into target and
// restores the body for the proxy downstream
func peekBody(ctx *request.Context, target interface{}) error {
	body, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return errors.WithMessage(err, "read request body")
	}
	err = ctx.Request().Body.Close()
	if err != nil {
		return errors.WithMessage(err, "close request reader")
	}
	ctx.Request().Body = io.NopCloser(bytes.NewReader(body))

	if len(body) == 0 {
		return nil
	}
	err = json.Unmarshal(body, target)
	if err != nil {
		return httperrors.New(
			http.StatusBadRequest,
			"invalid json body",
			errors.WithMessage(err, "unmarshal request body"),
		)
	}
	return nil
}
