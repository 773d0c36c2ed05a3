package proxy

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/tomakado/websocketproxy"
	"forum-gate-service/httperrors"
	"forum-gate-service/request"
)

// Ws passes the forum's live subscription channel through the gate,
// write throttling never applies to it
type Ws struct {
	hostManager HttpHostManager
	skipAuth    bool
}

func NewWs(hostManager HttpHostManager, skipAuth bool) Ws {
	return Ws{
		hostManager: hostManager,
		skipAuth:    skipAuth,
	}
}

//nolint:mnd
func (ws Ws) Handle(ctx *request.Context) error {
	host, err := ws.hostManager.Next()
	if err != nil {
		return errors.WithMessage(err, "ws: next host")
	}

	rawUrl := fmt.Sprintf("ws://%s", host)
	target, err := url.Parse(rawUrl)
	if err != nil {
		return errors.WithMessage(err, "ws: parse url")
	}

	httpRequest := ctx.Request()
	httpRequest.URL.Path = ctx.Endpoint()

	var resultError error
	proxy := websocketproxy.NewProxy(target)
	proxy.Director = func(incoming *http.Request, out http.Header) {
		_ = setHttpHeaders(ctx, out, ws.skipAuth)
	}
	proxy.Upgrader = &websocket.Upgrader{
		HandshakeTimeout: 5 * time.Second,
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			resultError = httperrors.New(
				http.StatusServiceUnavailable,
				"upstream is not available",
				errors.WithMessagef(reason, "ws proxy to %s", host),
			)
		},
	}
	proxy.ServeHTTP(ctx.ResponseWriter(), httpRequest)

	return resultError
}
