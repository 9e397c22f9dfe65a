package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "smsrelay/internal/errors"
	"smsrelay/internal/metrics"
	"smsrelay/internal/models"
	"smsrelay/internal/service"
	"smsrelay/pkg/forwarder"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const maxRequestBodyBytes = 64 * 1024

type contextKey string

const requestIDKey contextKey = "request_id"

type Server struct {
	router     *mux.Router
	logger     *logrus.Logger
	dispatcher *service.Dispatcher
	cfg        *models.Config
	server     *http.Server
}

func NewServer(cfg *models.Config, dispatcher *service.Dispatcher, logger *logrus.Logger) *Server {
	s := &Server{
		router:     mux.NewRouter(),
		logger:     logger,
		dispatcher: dispatcher,
		cfg:        cfg,
	}

	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.loggingMiddleware)
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth()).Methods(http.MethodGet)
	s.router.HandleFunc("/metrics", s.handleMetrics()).Methods(http.MethodGet)

	s.router.HandleFunc("/sms", s.handleIncomingSMS()).Methods(http.MethodPost)

	fwd := s.router.PathPrefix("/forwarder").Subrouter()
	fwd.HandleFunc("", s.handleInstallForwarder()).Methods(http.MethodPut)
	fwd.HandleFunc("", s.handleGetForwarder()).Methods(http.MethodGet)
	fwd.HandleFunc("", s.handleDeleteForwarder()).Methods(http.MethodDelete)
	fwd.HandleFunc("/setup", s.handleSetupState()).Methods(http.MethodGet)
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Server.WriteTimeoutSec) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.Server.IdleTimeoutSec) * time.Second,
	}

	s.logger.Infof("Starting server on port %d", s.cfg.Server.Port)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, requestID)))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"elapsed":    time.Since(start).String(),
			"request_id": requestID(r),
		}).Debug("Request handled")
	})
}

func requestID(r *http.Request) string {
	if id, ok := r.Context().Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

func (s *Server) handleMetrics() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, metrics.Snapshot())
	}
}

// handleIncomingSMS accepts one received SMS and pushes it through the
// active forwarder. Delivery failures are part of the response body, not an
// HTTP error: the webhook caller is not the one who can fix them.
func (s *Server) handleIncomingSMS() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var msg models.SmsMessage
		if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBodyBytes)).Decode(&msg); err != nil {
			s.writeError(w, r, apperrors.NewValidationError("body", "malformed SMS payload"))
			return
		}
		if msg.Sender == "" {
			s.writeError(w, r, apperrors.NewValidationError("sender", "sender is required"))
			return
		}

		err := s.dispatcher.Dispatch(r.Context(), msg)
		if err != nil {
			if _, ok := err.(models.ConfigError); ok {
				s.writeError(w, r, apperrors.New(apperrors.ErrCodeMissingConfig, err.Error()).
					WithUserMessage("No forwarder configured"))
				return
			}
		}

		s.writeJSON(w, http.StatusOK, map[string]bool{"delivered": err == nil})
	}
}

func (s *Server) handleInstallForwarder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		blob, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodyBytes))
		if err != nil {
			s.writeError(w, r, apperrors.NewValidationError("body", "failed to read request body"))
			return
		}

		if err := s.dispatcher.Activate(r.Context(), string(blob)); err != nil {
			if cfgErr, ok := err.(models.ConfigError); ok {
				s.writeError(w, r, apperrors.NewConfigError(cfgErr.Message))
				return
			}
			s.writeError(w, r, apperrors.NewDatabaseError("save config", err))
			return
		}

		s.writeJSON(w, http.StatusOK, map[string]string{
			"forwarder": string(s.dispatcher.Active().Kind()),
		})
	}
}

func (s *Server) handleGetForwarder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		blob, err := s.dispatcher.EncodeActive()
		if err != nil {
			s.writeError(w, r, apperrors.Wrap(err, apperrors.ErrCodeInternalError, "failed to encode config"))
			return
		}
		if blob == "" {
			s.writeError(w, r, apperrors.NewNotFoundError("forwarder"))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(blob))
	}
}

func (s *Server) handleDeleteForwarder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.dispatcher.Deactivate(r.Context()); err != nil {
			s.writeError(w, r, apperrors.NewDatabaseError("delete config", err))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleSetupState reports the managed relay pairing state: the deep link
// to open and a live link check against the relay.
func (s *Server) handleSetupState() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		relay, ok := s.dispatcher.Active().(*forwarder.ManagedRelayForwarder)
		if !ok {
			s.writeError(w, r, apperrors.NewNotFoundError("managed relay forwarder"))
			return
		}

		s.writeJSON(w, http.StatusOK, map[string]interface{}{
			"setupUrl": relay.SetupURL(),
			"linked":   relay.CheckLinked(r.Context()),
		})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.WithFields(logrus.Fields{
		"request_id": requestID(r),
		"path":       r.URL.Path,
	}).WithError(err).Warn("Request failed")
	s.writeJSON(w, apperrors.HTTPStatusCode(err), apperrors.ToHTTPResponse(err, requestID(r)))
}
