package proxy

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"forum-gate-service/httperrors"
	"forum-gate-service/request"

	"github.com/pkg/errors"
	"github.com/txix-open/isp-kit/requestid"
	"golang.org/x/net/context"
)

const (
	userIdHeader = "x-user-id"
)

type HttpHostManager interface {
	Next() (string, error)
}

type Http struct {
	hostManager HttpHostManager
	skipAuth    bool
	timeout     time.Duration
}

func NewHttp(hostManager HttpHostManager, skipAuth bool, timeout time.Duration) Http {
	return Http{
		hostManager: hostManager,
		skipAuth:    skipAuth,
		timeout:     timeout,
	}
}

func (p Http) Handle(ctx *request.Context) error {
	host, err := p.hostManager.Next()
	if err != nil {
		return errors.WithMessage(err, "http: next host")
	}

	rawUrl := fmt.Sprintf("http://%s", host) // secure HTTP links are reset connection
	target, err := url.Parse(rawUrl)
	if err != nil {
		return errors.WithMessage(err, "http: parse url")
	}

	httpRequest := ctx.Request()
	httpRequest.URL.Path = ctx.Endpoint()
	err = setHttpHeaders(ctx, httpRequest.Header, p.skipAuth)
	if err != nil {
		return err
	}
	reverseProxy := httputil.NewSingleHostReverseProxy(target)
	var resultError error
	reverseProxy.ErrorHandler = func(writer http.ResponseWriter, request *http.Request, err error) {
		resultError = httperrors.New(
			http.StatusServiceUnavailable,
			"upstream is not available",
			errors.WithMessagef(err, "http proxy to %s", host),
		)
	}

	context, cancel := context.WithTimeout(httpRequest.Context(), p.timeout)
	defer cancel()
	httpRequest = httpRequest.WithContext(context)
	reverseProxy.ServeHTTP(ctx.ResponseWriter(), httpRequest)

	return resultError
}

func setHttpHeaders(ctx *request.Context, header http.Header, skipAuth bool) error {
	header.Set(requestid.Header, requestid.FromContext(ctx.Context()))
	if skipAuth {
		header.Del(userIdHeader)
		return nil
	}
	user, err := ctx.User()
	if err != nil {
		return errors.WithMessage(err, "http: get user")
	}
	header.Set(userIdHeader, user.Id)
	return nil
}
