package forwarder

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"strings"

	"smsrelay/internal/constants"
	"smsrelay/internal/models"

	"github.com/sirupsen/logrus"
)

// ManagedRelayForwarder delivers messages through the managed relay service,
// which binds a phone number to a Telegram handle via a one-time
// confirmation code. It is a callback forwarder against the relay's
// /forward endpoint with the pairing parameters appended to every request.
type ManagedRelayForwarder struct {
	HTTPCallbackForwarder
	baseURL   string
	botHandle string
	tgHandle  string
	code      string
}

// RelayOptions carries the optional parts of a managed relay configuration.
// Zero values fall back to the known defaults; an empty Code means a fresh
// one is generated and pairing must be redone.
type RelayOptions struct {
	BaseURL     string
	BotHandle   string
	Code        string
	Method      string
	URIPayload  map[string]string
	JSONPayload map[string]string
}

// NewManagedRelayForwarder creates a managed relay forwarder for the given
// Telegram handle. The handle is required.
func NewManagedRelayForwarder(tgHandle string, opts RelayOptions, client *http.Client, logger *logrus.Logger) (*ManagedRelayForwarder, error) {
	if tgHandle == "" {
		return nil, models.ConfigError{Message: "missing Telegram handle"}
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = constants.DefaultRelayBaseURL
	}
	botHandle := opts.BotHandle
	if botHandle == "" {
		botHandle = constants.DefaultRelayBotHandle
	}
	code := opts.Code
	if code == "" {
		code = NewConfirmationCode()
	}

	callback, err := NewHTTPCallbackForwarder(baseURL+"/forward", opts.Method, opts.URIPayload, opts.JSONPayload, client, logger)
	if err != nil {
		return nil, err
	}

	return &ManagedRelayForwarder{
		HTTPCallbackForwarder: *callback,
		baseURL:               baseURL,
		botHandle:             botHandle,
		tgHandle:              tgHandle,
		code:                  code,
	}, nil
}

func (f *ManagedRelayForwarder) Kind() Kind {
	return KindManagedRelay
}

func (f *ManagedRelayForwarder) Forward(ctx context.Context, msg models.SmsMessage) error {
	return f.send(ctx, f.Kind(), msg, f.buildRequest)
}

// buildRequest builds the callback request and appends the pairing
// parameters as a literal trailer. They ride after the encoder's trailing
// ampersand on purpose: the relay matches them positionally and they are
// never percent-encoded as map entries.
func (f *ManagedRelayForwarder) buildRequest(ctx context.Context, msg models.SmsMessage) (*http.Request, error) {
	targetURL, body := f.encodedParts(msg)

	trailer := fmt.Sprintf("code=%s&username=%s", f.code, f.tgHandle)
	if f.method == MethodGet {
		targetURL += trailer
	} else {
		body += trailer
	}

	return f.newRequest(ctx, targetURL, body)
}

// SetupURL returns the deep link the user opens to pair their Telegram
// account with this forwarder. Opening it is out of the core's control.
func (f *ManagedRelayForwarder) SetupURL() string {
	return fmt.Sprintf("https://t.me/%s?start=%s_%s", f.botHandle, f.code, f.tgHandle)
}

// CheckLinked asks the relay whether the user completed the pairing
// handshake. Any non-200 status or transport failure reads as "not linked";
// the check is retryable and never fatal.
func (f *ManagedRelayForwarder) CheckLinked(ctx context.Context) bool {
	endpoint := fmt.Sprintf("%s/check_user?username=%s&code=%s", f.baseURL, f.tgHandle, f.code)

	req, err := http.NewRequestWithContext(ctx, MethodGet, endpoint, nil)
	if err != nil {
		return false
	}

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.WithError(err).Debug("Relay link check failed")
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// ConfirmationCode returns the pairing code. It is generated once and kept
// stable across restarts through the persisted configuration.
func (f *ManagedRelayForwarder) ConfirmationCode() string {
	return f.code
}

// TelegramHandle returns the handle this forwarder is bound to.
func (f *ManagedRelayForwarder) TelegramHandle() string {
	return f.tgHandle
}

// NewConfirmationCode draws a fresh 8-letter uppercase pairing code. A
// non-cryptographic source is fine here: the code proves the setup link was
// opened, it does not authenticate anything.
func NewConfirmationCode() string {
	var b strings.Builder
	b.Grow(constants.ConfirmationCodeLength)
	for i := 0; i < constants.ConfirmationCodeLength; i++ {
		b.WriteByte(constants.ConfirmationCodeAlphabet[rand.Intn(len(constants.ConfirmationCodeAlphabet))])
	}
	return b.String()
}
