package forwarder

import (
	"encoding/json"
	"fmt"
	"net/http"

	"smsrelay/internal/models"

	"github.com/sirupsen/logrus"
)

// rawConfig is the union of every variant's persisted fields. Decoding goes
// through it so that defaulting rules for absent fields stay explicit
// instead of hiding behind struct zero values.
type rawConfig struct {
	CallbackURL string                `json:"callbackUrl,omitempty"`
	Method      string                `json:"method,omitempty"`
	URIPayload  map[string]string     `json:"uriPayload,omitempty"`
	JSONPayload map[string]string     `json:"jsonPayload,omitempty"`
	Token       string                `json:"token,omitempty"`
	ChatID      models.FlexibleString `json:"chatId,omitempty"`
	TgCode      string                `json:"tgCode,omitempty"`
	BaseURL     string                `json:"baseUrl,omitempty"`
	TgHandle    string                `json:"tgHandle,omitempty"`
	BotHandle   string                `json:"botHandle,omitempty"`
}

// Codec encodes forwarder instances into persisted configuration blobs and
// reconstructs them. The blob is a JSON object with exactly one top-level
// key naming the variant tag; a legacy flat object without the tag wrapper
// decodes too, with its variant inferred from the fields present.
type Codec struct {
	client        *http.Client
	logger        *logrus.Logger
	relayDefaults models.RelayConfig
}

// NewCodec creates a codec. The client and logger are handed to every
// forwarder it reconstructs; relayDefaults fills baseUrl and botHandle for
// managed relay configs that omit them.
func NewCodec(client *http.Client, logger *logrus.Logger, relayDefaults models.RelayConfig) *Codec {
	return &Codec{
		client:        client,
		logger:        logger,
		relayDefaults: relayDefaults,
	}
}

// Encode dumps a forwarder into its persisted configuration blob. The dump
// is lossless: decoding it reconstructs a value-equal instance.
func (c *Codec) Encode(f Forwarder) (string, error) {
	var raw rawConfig

	switch fw := f.(type) {
	case *StdoutForwarder:
		// No state to persist.
	case *HTTPCallbackForwarder:
		raw = rawConfig{
			CallbackURL: fw.endpointURL,
			Method:      fw.method,
			URIPayload:  fw.uriPayload,
			JSONPayload: fw.jsonPayload,
		}
	case *TelegramBotForwarder:
		raw = rawConfig{
			Token:  fw.token,
			ChatID: models.FlexibleString(fw.chatID),
		}
	case *ManagedRelayForwarder:
		raw = rawConfig{
			TgCode:      fw.code,
			BaseURL:     fw.baseURL,
			TgHandle:    fw.tgHandle,
			BotHandle:   fw.botHandle,
			Method:      fw.method,
			URIPayload:  fw.uriPayload,
			JSONPayload: fw.jsonPayload,
		}
	default:
		return "", fmt.Errorf("unsupported forwarder type %T", f)
	}

	blob, err := json.Marshal(map[Kind]rawConfig{f.Kind(): raw})
	if err != nil {
		return "", fmt.Errorf("failed to marshal forwarder config: %w", err)
	}
	return string(blob), nil
}

// Decode reconstructs a forwarder from a persisted configuration blob. A
// missing required field or an unknown variant tag yields
// models.ConfigError and no instance.
func (c *Codec) Decode(blob string) (Forwarder, error) {
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal([]byte(blob), &tagged); err != nil {
		return nil, models.ConfigError{Message: fmt.Sprintf("malformed forwarder config: %v", err)}
	}

	if len(tagged) == 1 {
		for tag, fields := range tagged {
			if kind, known := knownKind(tag); known {
				var raw rawConfig
				if err := json.Unmarshal(fields, &raw); err != nil {
					return nil, models.ConfigError{Message: fmt.Sprintf("malformed %s config: %v", tag, err)}
				}
				return c.decodeVariant(kind, raw)
			}
		}
	}

	// Legacy flat encoding: no tag wrapper, the variant is inferred from
	// which fields are present.
	var raw rawConfig
	if err := json.Unmarshal([]byte(blob), &raw); err != nil {
		return nil, models.ConfigError{Message: fmt.Sprintf("malformed forwarder config: %v", err)}
	}

	switch {
	case raw.Token != "" || raw.ChatID != "":
		return c.decodeVariant(KindTelegramBot, raw)
	case raw.TgHandle != "" || raw.TgCode != "":
		return c.decodeVariant(KindManagedRelay, raw)
	case raw.CallbackURL != "":
		return c.decodeVariant(KindHTTPCallback, raw)
	default:
		return nil, models.ConfigError{Message: "unknown forwarder config variant"}
	}
}

func (c *Codec) decodeVariant(kind Kind, raw rawConfig) (Forwarder, error) {
	switch kind {
	case KindStdout:
		return NewStdoutForwarder(c.logger), nil
	case KindHTTPCallback:
		return NewHTTPCallbackForwarder(raw.CallbackURL, raw.Method, raw.URIPayload, raw.JSONPayload, c.client, c.logger)
	case KindTelegramBot:
		return NewTelegramBotForwarder(raw.Token, raw.ChatID.String(), c.client, c.logger)
	case KindManagedRelay:
		baseURL := raw.BaseURL
		if baseURL == "" {
			baseURL = c.relayDefaults.BaseURL
		}
		botHandle := raw.BotHandle
		if botHandle == "" {
			botHandle = c.relayDefaults.BotHandle
		}
		return NewManagedRelayForwarder(raw.TgHandle, RelayOptions{
			BaseURL:     baseURL,
			BotHandle:   botHandle,
			Code:        raw.TgCode,
			Method:      raw.Method,
			URIPayload:  raw.URIPayload,
			JSONPayload: raw.JSONPayload,
		}, c.client, c.logger)
	default:
		return nil, models.ConfigError{Message: fmt.Sprintf("unknown forwarder tag: %s", kind)}
	}
}

func knownKind(tag string) (Kind, bool) {
	switch Kind(tag) {
	case KindStdout, KindHTTPCallback, KindTelegramBot, KindManagedRelay:
		return Kind(tag), true
	}
	return "", false
}
