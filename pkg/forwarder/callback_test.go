package forwarder

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"smsrelay/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMessage = models.SmsMessage{
	Sender:    "A",
	Body:      "hi",
	Timestamp: 0,
	ThreadID:  "7",
}

func TestNewHTTPCallbackForwarder(t *testing.T) {
	tests := []struct {
		name        string
		endpointURL string
		method      string
		wantErr     string
	}{
		{name: "valid GET", endpointURL: "https://example.com/hook", method: "GET"},
		{name: "valid PUT", endpointURL: "https://example.com/hook", method: "PUT"},
		{name: "empty method defaults", endpointURL: "https://example.com/hook", method: ""},
		{name: "missing URL", endpointURL: "", method: "POST", wantErr: "missing callback URL"},
		{name: "unknown method", endpointURL: "https://example.com/hook", method: "PATCH", wantErr: "unrecognized HTTP method: PATCH"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fwd, err := NewHTTPCallbackForwarder(tt.endpointURL, tt.method, nil, nil, nil, nil)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.IsType(t, models.ConfigError{}, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, fwd)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, KindHTTPCallback, fwd.Kind())
		})
	}
}

func TestCallbackForwardGet(t *testing.T) {
	var gotQuery string
	var gotBody []byte
	var gotMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotQuery = r.URL.RawQuery
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	fwd, err := NewHTTPCallbackForwarder(server.URL, MethodGet, map[string]string{"k": "v"}, nil, server.Client(), nil)
	require.NoError(t, err)

	require.NoError(t, fwd.Forward(context.Background(), testMessage))

	assert.Equal(t, http.MethodGet, gotMethod)
	assert.Empty(t, gotBody, "GET must carry no request body")
	assert.Contains(t, gotQuery, "sender=A")
	assert.Contains(t, gotQuery, "body=hi")
	assert.Contains(t, gotQuery, "timestamp=0")
	assert.Contains(t, gotQuery, "k=v")
	assert.NotContains(t, gotQuery, "thread_id")
}

func TestCallbackForwardPost(t *testing.T) {
	var gotQuery, gotBody, gotMethod, gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotQuery = r.URL.RawQuery
		gotContentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	fwd, err := NewHTTPCallbackForwarder(server.URL, MethodPost,
		map[string]string{"src": "phone"},
		map[string]string{"extra": "1"},
		server.Client(), nil)
	require.NoError(t, err)

	require.NoError(t, fwd.Forward(context.Background(), testMessage))

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)
	assert.Equal(t, "src=phone&", gotQuery, "POST puts only the static uriPayload on the URL")
	assert.Contains(t, gotBody, "sender=A")
	assert.Contains(t, gotBody, "body=hi")
	assert.Contains(t, gotBody, "extra=1")
	assert.NotContains(t, gotBody, "thread_id")
}

func TestCallbackStaticPayloadWinsOverMessageFields(t *testing.T) {
	fwd, err := NewHTTPCallbackForwarder("https://example.com/hook", MethodGet,
		map[string]string{"sender": "fixed"}, nil, nil, nil)
	require.NoError(t, err)

	targetURL, body := fwd.encodedParts(testMessage)
	assert.Contains(t, targetURL, "sender=fixed")
	assert.NotContains(t, targetURL, "sender=A")
	assert.Empty(t, body)
}

func TestCallbackForwardNon200IsFailure(t *testing.T) {
	for _, status := range []int{http.StatusCreated, http.StatusNoContent, http.StatusInternalServerError} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		fwd, err := NewHTTPCallbackForwarder(server.URL, MethodPost, nil, nil, server.Client(), nil)
		require.NoError(t, err)

		err = fwd.Forward(context.Background(), testMessage)
		require.Error(t, err, "status %d must be a reported failure", status)

		var dErr *DeliveryError
		require.ErrorAs(t, err, &dErr)
		assert.Equal(t, status, dErr.Status)

		server.Close()
	}
}

func TestCallbackForwardTransportErrorIsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := server.Client()
	server.Close() // connection refused from here on

	fwd, err := NewHTTPCallbackForwarder(server.URL, MethodPost, nil, nil, client, nil)
	require.NoError(t, err)

	err = fwd.Forward(context.Background(), testMessage)
	require.Error(t, err)

	var dErr *DeliveryError
	require.ErrorAs(t, err, &dErr)
	assert.Equal(t, 0, dErr.Status)
	assert.Error(t, dErr.Unwrap())
}

func TestStripReserved(t *testing.T) {
	cleaned := stripReserved(map[string]string{"thread_id": "x", "a": "1"})
	assert.Equal(t, map[string]string{"a": "1"}, cleaned)
	assert.Equal(t, map[string]string{}, stripReserved(nil))
}
