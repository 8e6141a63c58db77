package transport

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/joomcode/errorx"
)

var (
	transportErrors = errorx.NewNamespace("transport")

	//ConnectFailure is returned when a connection to the server can't be established (transient)
	ConnectFailure = transportErrors.NewType("connect_failure", errorx.Temporary())
	//SendFailure is returned when the connection broke while the request was sent (transient)
	SendFailure = transportErrors.NewType("send_failure", errorx.Temporary())
	//Timeout is returned when the server didn't respond in time (transient)
	Timeout = transportErrors.NewType("timeout", errorx.Temporary(), errorx.Timeout())
	//ServerError is returned for 408, 429 and 5xx responses (transient)
	ServerError = transportErrors.NewType("server_error", errorx.Temporary())
	//Rejected is returned for all other non 2xx responses (permanent)
	Rejected = transportErrors.NewType("rejected")
	//InvalidRequest is returned before sending when the request is malformed (permanent)
	InvalidRequest = transportErrors.NewType("invalid_request")

	StatusCode = errorx.RegisterPrintableProperty("status_code")
)

//IsTransient returns true if the request might succeed later and the payload must be kept
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	return errorx.IsTemporary(err)
}

//StatusCodeOf returns HTTP status code attached to the error
func StatusCodeOf(err error) (int, bool) {
	e := errorx.Cast(err)
	if e == nil {
		return 0, false
	}

	value, ok := e.Property(StatusCode)
	if !ok {
		return 0, false
	}

	code, ok := value.(int)
	return code, ok
}

//statusError returns nil for 2xx or classified error
func statusError(code int, body []byte) error {
	if code >= 200 && code < 300 {
		return nil
	}

	msg := "server responded with " + http.StatusText(code)
	if len(body) > 0 {
		msg += ": " + truncateBody(body)
	}

	if code == http.StatusRequestTimeout || code == http.StatusTooManyRequests || code >= 500 {
		return ServerError.New(msg).WithProperty(StatusCode, code)
	}

	return Rejected.New(msg).WithProperty(StatusCode, code)
}

//classifyRequestError maps http.Client errors to the closed taxonomy
func classifyRequestError(ctx context.Context, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return Timeout.Wrap(err, "request deadline exceeded")
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Timeout.Wrap(err, "request timed out")
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ConnectFailure.Wrap(err, "name resolution failed")
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return ConnectFailure.Wrap(err, "connection failed")
	}

	return SendFailure.Wrap(err, "sending request failed")
}

func truncateBody(body []byte) string {
	const maxLen = 256
	if len(body) > maxLen {
		return string(body[:maxLen]) + "..."
	}
	return string(body)
}
