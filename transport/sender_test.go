package transport

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/joomcode/errorx"
	"github.com/stretchr/testify/require"
)

const testURL = "https://collector.example.com/api/2/apps/app/crashes"

func newMockedSender() (*HTTPSender, *httpmock.MockTransport) {
	mt := httpmock.NewMockTransport()
	return NewHTTPSender(&http.Client{Transport: mt}, "crashnative/test"), mt
}

func TestSendSuccess(t *testing.T) {
	sender, mt := newMockedSender()
	mt.RegisterResponder(http.MethodPost, testURL, func(req *http.Request) (*http.Response, error) {
		require.Equal(t, "crashnative/test", req.Header.Get(HeaderUserAgent))
		require.Equal(t, "application/x-www-form-urlencoded", req.Header.Get(HeaderContentType))
		require.Equal(t, "gzip", req.Header.Get(HeaderContentEncoding))
		return httpmock.NewStringResponse(http.StatusCreated, "ok"), nil
	})

	resp, err := sender.Send(context.Background(), &Request{
		URL:             testURL,
		ContentType:     "application/x-www-form-urlencoded",
		ContentEncoding: "gzip",
		Body:            []byte("raw=1"),
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, "ok", string(resp.Body))
}

func TestSendClassification(t *testing.T) {
	tests := []struct {
		name      string
		responder httpmock.Responder
		transient bool
		status    int
	}{
		{
			"connect failure",
			httpmock.NewErrorResponder(&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}),
			true,
			0,
		},
		{
			"send failure",
			httpmock.NewErrorResponder(errors.New("connection reset by peer")),
			true,
			0,
		},
		{
			"server error",
			httpmock.NewStringResponder(http.StatusServiceUnavailable, "down"),
			true,
			http.StatusServiceUnavailable,
		},
		{
			"too many requests",
			httpmock.NewStringResponder(http.StatusTooManyRequests, ""),
			true,
			http.StatusTooManyRequests,
		},
		{
			"bad request",
			httpmock.NewStringResponder(http.StatusBadRequest, "malformed"),
			false,
			http.StatusBadRequest,
		},
		{
			"not found",
			httpmock.NewStringResponder(http.StatusNotFound, ""),
			false,
			http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender, mt := newMockedSender()
			mt.RegisterResponder(http.MethodPost, testURL, tt.responder)

			_, err := sender.Send(context.Background(), &Request{URL: testURL, Body: []byte("x")})
			require.Error(t, err)
			require.Equal(t, tt.transient, IsTransient(err), err.Error())

			code, ok := StatusCodeOf(err)
			if tt.status == 0 {
				require.False(t, ok)
			} else {
				require.True(t, ok)
				require.Equal(t, tt.status, code)
			}
		})
	}
}

func TestUserAgentIsMandatory(t *testing.T) {
	mt := httpmock.NewMockTransport()
	sender := NewHTTPSender(&http.Client{Transport: mt}, "")

	_, err := sender.Send(context.Background(), &Request{URL: testURL})
	require.Error(t, err)
	require.True(t, errorx.IsOfType(err, InvalidRequest))
	require.Equal(t, 0, mt.GetTotalCallCount())

	_, err = sender.Send(context.Background(), &Request{URL: ""})
	require.Error(t, err)
	require.False(t, IsTransient(err))
}

func TestIsTransientOnPlainError(t *testing.T) {
	require.False(t, IsTransient(nil))
	require.False(t, IsTransient(errors.New("plain")))
	_, ok := StatusCodeOf(errors.New("plain"))
	require.False(t, ok)
}
