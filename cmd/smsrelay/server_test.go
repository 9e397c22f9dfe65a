package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"smsrelay/internal/models"
	"smsrelay/internal/service"
	"smsrelay/pkg/forwarder"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	blob       string
	deliveries []models.DeliveryRecord
}

func (m *memoryStore) SaveForwarderConfig(_ context.Context, blob string) error {
	m.blob = blob
	return nil
}

func (m *memoryStore) GetForwarderConfig(context.Context) (string, error) {
	return m.blob, nil
}

func (m *memoryStore) DeleteForwarderConfig(context.Context) error {
	m.blob = ""
	return nil
}

func (m *memoryStore) RecordDelivery(_ context.Context, rec models.DeliveryRecord) error {
	m.deliveries = append(m.deliveries, rec)
	return nil
}

func newTestServer(t *testing.T, client *http.Client) (*Server, *service.Dispatcher) {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	codec := forwarder.NewCodec(client, logger, models.RelayConfig{
		BaseURL:   "https://relay.example.com",
		BotHandle: "relay_bot",
	})
	dispatcher := service.NewDispatcher(codec, &memoryStore{}, logger)

	cfg := &models.Config{}
	cfg.Server.Port = 0

	return NewServer(cfg, dispatcher, logger), dispatcher
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := doRequest(s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := doRequest(s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var snapshot map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
	assert.Contains(t, snapshot, "counters")
	assert.Contains(t, snapshot, "uptime_ms")
}

func TestIncomingSMSDelivered(t *testing.T) {
	s, dispatcher := newTestServer(t, nil)
	require.NoError(t, dispatcher.Activate(context.Background(), `{"Stdout": {}}`))

	rec := doRequest(s, http.MethodPost, "/sms",
		`{"sender": "+1234567890", "body": "hello", "timestamp": 1700000000000}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp["delivered"])
}

func TestIncomingSMSDeliveryFailureStaysHTTP200(t *testing.T) {
	s, dispatcher := newTestServer(t, nil)
	require.NoError(t, dispatcher.Activate(context.Background(),
		`{"HttpCallback": {"callbackUrl": "http://127.0.0.1:1/hook"}}`))

	rec := doRequest(s, http.MethodPost, "/sms", `{"sender": "+1", "body": "hello"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp["delivered"])
}

func TestIncomingSMSWithoutForwarder(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := doRequest(s, http.MethodPost, "/sms", `{"sender": "+1", "body": "hello"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIncomingSMSValidation(t *testing.T) {
	s, dispatcher := newTestServer(t, nil)
	require.NoError(t, dispatcher.Activate(context.Background(), `{"Stdout": {}}`))

	rec := doRequest(s, http.MethodPost, "/sms", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(s, http.MethodPost, "/sms", `{"body": "no sender"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInstallForwarder(t *testing.T) {
	s, dispatcher := newTestServer(t, nil)

	rec := doRequest(s, http.MethodPut, "/forwarder",
		`{"TelegramBot": {"token": "T", "chatId": "42"}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "TelegramBot", resp["forwarder"])
	require.NotNil(t, dispatcher.Active())
}

func TestInstallForwarderInvalidConfig(t *testing.T) {
	s, dispatcher := newTestServer(t, nil)

	rec := doRequest(s, http.MethodPut, "/forwarder", `{"TelegramBot": {"token": "T"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, dispatcher.Active())

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp, "error")
}

func TestGetForwarder(t *testing.T) {
	s, dispatcher := newTestServer(t, nil)

	rec := doRequest(s, http.MethodGet, "/forwarder", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, dispatcher.Activate(context.Background(),
		`{"TelegramBot": {"token": "T", "chatId": "42"}}`))

	rec = doRequest(s, http.MethodGet, "/forwarder", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"TelegramBot": {"token": "T", "chatId": "42"}}`, rec.Body.String())
}

func TestDeleteForwarder(t *testing.T) {
	s, dispatcher := newTestServer(t, nil)
	require.NoError(t, dispatcher.Activate(context.Background(), `{"Stdout": {}}`))

	rec := doRequest(s, http.MethodDelete, "/forwarder", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Nil(t, dispatcher.Active())
}

func TestSetupStateWithoutRelay(t *testing.T) {
	s, dispatcher := newTestServer(t, nil)

	rec := doRequest(s, http.MethodGet, "/forwarder/setup", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, dispatcher.Activate(context.Background(), `{"Stdout": {}}`))
	rec = doRequest(s, http.MethodGet, "/forwarder/setup", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetupStateWithRelay(t *testing.T) {
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/check_user" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer relay.Close()

	s, dispatcher := newTestServer(t, relay.Client())
	require.NoError(t, dispatcher.Activate(context.Background(),
		`{"ManagedRelay": {"tgHandle": "alice", "tgCode": "ABCDEFGH", "baseUrl": "`+relay.URL+`"}}`))

	rec := doRequest(s, http.MethodGet, "/forwarder/setup", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		SetupURL string `json:"setupUrl"`
		Linked   bool   `json:"linked"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "https://t.me/relay_bot?start=ABCDEFGH_alice", resp.SetupURL)
	assert.True(t, resp.Linked)
}

func TestRequestIDPropagation(t *testing.T) {
	s, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, "fixed-id", rec.Header().Get("X-Request-ID"))
}
