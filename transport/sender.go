package transport

import (
	"bytes"
	"context"
	"io"
	"io/ioutil"
	"net/http"
	"time"
)

const (
	defaultTimeout  = 30 * time.Second
	maxResponseBody = 1 << 20

	HeaderUserAgent       = "User-Agent"
	HeaderContentType     = "Content-Type"
	HeaderContentEncoding = "Content-Encoding"
)

//Request is a transport level request
type Request struct {
	Method          string
	URL             string
	Headers         http.Header
	ContentType     string
	ContentEncoding string
	Body            []byte
}

//Response is a successful (2xx) transport level response
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

//Sender performs requests. Non 2xx responses and network problems are returned as classified errors (see errors.go)
type Sender interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

//HTTPSender is a Sender on top of net/http client
type HTTPSender struct {
	client    *http.Client
	userAgent string
}

//NewHTTPSender returns HTTPSender with default client if client is nil
func NewHTTPSender(client *http.Client, userAgent string) *HTTPSender {
	if client == nil {
		client = &http.Client{
			Timeout: defaultTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	return &HTTPSender{client: client, userAgent: userAgent}
}

func (hs *HTTPSender) Send(ctx context.Context, req *Request) (*Response, error) {
	if req.URL == "" {
		return nil, InvalidRequest.New("request URL can't be empty")
	}

	method := req.Method
	if method == "" {
		method = http.MethodPost
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, InvalidRequest.Wrap(err, "malformed request")
	}

	for name, values := range req.Headers {
		for _, value := range values {
			httpReq.Header.Add(name, value)
		}
	}

	if httpReq.Header.Get(HeaderUserAgent) == "" {
		if hs.userAgent == "" {
			return nil, InvalidRequest.New("User-Agent header is mandatory")
		}
		httpReq.Header.Set(HeaderUserAgent, hs.userAgent)
	}
	if req.ContentType != "" {
		httpReq.Header.Set(HeaderContentType, req.ContentType)
	}
	if req.ContentEncoding != "" {
		httpReq.Header.Set(HeaderContentEncoding, req.ContentEncoding)
	}

	resp, err := hs.client.Do(httpReq)
	if err != nil {
		return nil, classifyRequestError(ctx, err)
	}
	defer resp.Body.Close()

	respBody, err := ioutil.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, SendFailure.Wrap(err, "reading response body failed")
	}

	if err := statusError(resp.StatusCode, respBody); err != nil {
		return nil, err
	}

	return &Response{StatusCode: resp.StatusCode, Headers: resp.Header, Body: respBody}, nil
}
