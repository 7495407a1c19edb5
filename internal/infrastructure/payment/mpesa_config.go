package payment

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/hazina/backend/internal/infrastructure/config"
)

const (
	mpesaSandboxBaseURL    = "https://sandbox.safaricom.co.ke"
	mpesaProductionBaseURL = "https://api.safaricom.co.ke"
)

// MpesaConfig contains configuration for the Safaricom Daraja API
type MpesaConfig struct {
	// BaseURL is the Daraja host, e.g. https://sandbox.safaricom.co.ke
	BaseURL string
	// ConsumerKey and ConsumerSecret are the app's OAuth client credentials
	ConsumerKey    string
	ConsumerSecret string
	// ShortCode is the paybill or till number receiving the payment
	ShortCode string
	// PassKey is the Lipa Na M-Pesa Online passkey
	PassKey string
	// CallbackURL is where Daraja posts the STK push result
	CallbackURL string
	// Timeout bounds each HTTP call to Daraja
	Timeout time.Duration
}

// Errors for configuration validation
var (
	ErrMpesaMissingCredentials = errors.New("mpesa: missing consumer key or secret")
	ErrMpesaMissingShortCode   = errors.New("mpesa: missing business short code")
	ErrMpesaMissingPassKey     = errors.New("mpesa: missing passkey")
	ErrMpesaInvalidCallbackURL = errors.New("mpesa: callback URL must be an absolute URL")
	ErrMpesaInvalidBaseURL     = errors.New("mpesa: invalid base URL")
)

// MpesaConfigFromApp builds the adapter configuration from application config
func MpesaConfigFromApp(cfg config.MpesaConfig) *MpesaConfig {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = mpesaSandboxBaseURL
		if cfg.Environment == "production" {
			baseURL = mpesaProductionBaseURL
		}
	}
	return &MpesaConfig{
		BaseURL:        strings.TrimRight(baseURL, "/"),
		ConsumerKey:    cfg.ConsumerKey,
		ConsumerSecret: cfg.ConsumerSecret,
		ShortCode:      cfg.ShortCode,
		PassKey:        cfg.PassKey,
		CallbackURL:    cfg.CallbackURL,
		Timeout:        cfg.Timeout,
	}
}

// Validate validates the configuration
func (c *MpesaConfig) Validate() error {
	if c.ConsumerKey == "" || c.ConsumerSecret == "" {
		return ErrMpesaMissingCredentials
	}
	if c.ShortCode == "" {
		return ErrMpesaMissingShortCode
	}
	if c.PassKey == "" {
		return ErrMpesaMissingPassKey
	}
	if u, err := url.Parse(c.CallbackURL); err != nil || !u.IsAbs() || u.Host == "" {
		return ErrMpesaInvalidCallbackURL
	}
	if u, err := url.Parse(c.BaseURL); err != nil || !u.IsAbs() {
		return ErrMpesaInvalidBaseURL
	}
	return nil
}
