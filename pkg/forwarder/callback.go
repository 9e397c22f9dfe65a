package forwarder

import (
	"context"
	"io"
	"net/http"
	"strings"

	"smsrelay/internal/models"

	"github.com/sirupsen/logrus"
)

// HTTPCallbackForwarder delivers messages to a user-defined endpoint with a
// configurable HTTP method and static payload merging.
type HTTPCallbackForwarder struct {
	httpSender
	endpointURL string
	method      string
	uriPayload  map[string]string
	jsonPayload map[string]string
}

// NewHTTPCallbackForwarder creates a callback forwarder. The endpoint URL
// must be non-empty and the method one of GET, POST or PUT; an empty method
// defaults to POST.
func NewHTTPCallbackForwarder(endpointURL, method string, uriPayload, jsonPayload map[string]string, client *http.Client, logger *logrus.Logger) (*HTTPCallbackForwarder, error) {
	if endpointURL == "" {
		return nil, models.ConfigError{Message: "missing callback URL"}
	}

	method, err := normalizeMethod(method)
	if err != nil {
		return nil, err
	}

	return &HTTPCallbackForwarder{
		httpSender:  newHTTPSender(client, logger),
		endpointURL: endpointURL,
		method:      method,
		uriPayload:  stripReserved(uriPayload),
		jsonPayload: stripReserved(jsonPayload),
	}, nil
}

func (f *HTTPCallbackForwarder) Kind() Kind {
	return KindHTTPCallback
}

func (f *HTTPCallbackForwarder) Forward(ctx context.Context, msg models.SmsMessage) error {
	return f.send(ctx, f.Kind(), msg, f.buildRequest)
}

// EndpointURL returns the configured endpoint.
func (f *HTTPCallbackForwarder) EndpointURL() string {
	return f.endpointURL
}

// encodedParts assembles the target URL and the request body for a message.
// GET carries everything in the query string; POST and PUT carry the merged
// message fields in a form body with only the static uriPayload on the URL.
func (f *HTTPCallbackForwarder) encodedParts(msg models.SmsMessage) (targetURL, body string) {
	if f.method == MethodGet {
		return f.endpointURL + EncodeQuery(mergeFields(msg.PayloadFields(), f.uriPayload)), ""
	}
	return f.endpointURL + EncodeQuery(f.uriPayload), EncodePairs(mergeFields(msg.PayloadFields(), f.jsonPayload))
}

func (f *HTTPCallbackForwarder) buildRequest(ctx context.Context, msg models.SmsMessage) (*http.Request, error) {
	targetURL, body := f.encodedParts(msg)
	return f.newRequest(ctx, targetURL, body)
}

func (f *HTTPCallbackForwarder) newRequest(ctx context.Context, targetURL, body string) (*http.Request, error) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, f.method, targetURL, reader)
	if err != nil {
		return nil, err
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return req, nil
}

func normalizeMethod(method string) (string, error) {
	switch method {
	case "":
		// Configs predating the method field decode to POST.
		return MethodPost, nil
	case MethodGet, MethodPost, MethodPut:
		return method, nil
	default:
		return "", models.ConfigError{Message: "unrecognized HTTP method: " + method}
	}
}

// stripReserved drops the reserved thread id key from a static payload map.
// The encoder strips it again on every request; removing it here keeps the
// invariant visible on the stored configuration too.
func stripReserved(payload map[string]string) map[string]string {
	if payload == nil {
		return map[string]string{}
	}
	cleaned := make(map[string]string, len(payload))
	for k, v := range payload {
		if k == ThreadIDKey {
			continue
		}
		cleaned[k] = v
	}
	return cleaned
}
