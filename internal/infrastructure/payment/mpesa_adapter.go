package payment

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/hazina/backend/internal/domain/mobilemoney"
	"go.uber.org/zap"
)

// nairobi is the zone Daraja expects STK push timestamps in
var nairobi = func() *time.Location {
	if loc, err := time.LoadLocation("Africa/Nairobi"); err == nil {
		return loc
	}
	return time.FixedZone("EAT", 3*60*60)
}()

// MpesaAdapter implements mobilemoney.Gateway for Safaricom Daraja STK push
type MpesaAdapter struct {
	config     *MpesaConfig
	configErr  error
	httpClient *http.Client
	logger     *zap.Logger
	now        func() time.Time

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// MpesaOption configures an MpesaAdapter
type MpesaOption func(*MpesaAdapter)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(c *http.Client) MpesaOption {
	return func(a *MpesaAdapter) {
		a.httpClient = c
	}
}

// WithLogger sets the adapter logger
func WithLogger(l *zap.Logger) MpesaOption {
	return func(a *MpesaAdapter) {
		a.logger = l
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) MpesaOption {
	return func(a *MpesaAdapter) {
		a.now = now
	}
}

// NewMpesaAdapter creates a new Daraja adapter. An invalid configuration does
// not fail construction: every call then returns ErrGatewayMisconfigured so
// the rest of the service keeps running.
func NewMpesaAdapter(config *MpesaConfig, opts ...MpesaOption) *MpesaAdapter {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	a := &MpesaAdapter{
		config:     config,
		configErr:  config.Validate(),
		httpClient: &http.Client{Timeout: timeout},
		logger:     zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AccessToken returns a cached OAuth token, fetching a new one when the
// cached token is missing or within a minute of expiry.
func (a *MpesaAdapter) AccessToken(ctx context.Context) (string, error) {
	if a.configErr != nil {
		return "", fmt.Errorf("%w: %v", mobilemoney.ErrGatewayMisconfigured, a.configErr)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	if a.token != "" && now.Before(a.tokenExpiry) {
		return a.token, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.config.BaseURL+mpesaOAuthPath, nil)
	if err != nil {
		return "", fmt.Errorf("mpesa: failed to create token request: %w", err)
	}
	req.SetBasicAuth(a.config.ConsumerKey, a.config.ConsumerSecret)
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", mobilemoney.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", mobilemoney.ErrGatewayUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", fmt.Errorf("%w: token request returned HTTP %d", mobilemoney.ErrGatewayMisconfigured, resp.StatusCode)
	case resp.StatusCode >= 300:
		return "", fmt.Errorf("%w: token request returned HTTP %d", mobilemoney.ErrGatewayUnavailable, resp.StatusCode)
	}

	var tok mpesaTokenResponse
	if err := json.Unmarshal(body, &tok); err != nil || tok.AccessToken == "" {
		return "", fmt.Errorf("%w: token response", mobilemoney.ErrGatewayInvalidResponse)
	}

	lifetime, err := tok.ExpiresIn.Int64()
	if err != nil || lifetime <= 0 {
		lifetime = mpesaDefaultTokenLifetime
	}
	a.token = tok.AccessToken
	a.tokenExpiry = now.Add(time.Duration(lifetime-mpesaTokenRefreshMargin) * time.Second)

	a.logger.Debug("Obtained M-Pesa access token", zap.Int64("expires_in", lifetime))
	return a.token, nil
}

// InitiateCharge sends an STK push. A response with a non-zero ResponseCode
// is returned as is; the caller decides whether the charge was accepted.
func (a *MpesaAdapter) InitiateCharge(ctx context.Context, token string, req *mobilemoney.ChargeRequest) (*mobilemoney.ChargeResponse, error) {
	if a.configErr != nil {
		return nil, fmt.Errorf("%w: %v", mobilemoney.ErrGatewayMisconfigured, a.configErr)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	timestamp := a.now().In(nairobi).Format(mpesaTimestampLayout)
	body, err := json.Marshal(mpesaSTKPushRequest{
		BusinessShortCode: a.config.ShortCode,
		Password:          a.password(timestamp),
		Timestamp:         timestamp,
		TransactionType:   mpesaTransactionType,
		Amount:            req.Amount,
		PartyA:            req.PhoneNumber,
		PartyB:            a.config.ShortCode,
		PhoneNumber:       req.PhoneNumber,
		CallBackURL:       a.config.CallbackURL,
		AccountReference:  req.AccountReference,
		TransactionDesc:   req.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("mpesa: failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.BaseURL+mpesaSTKPushPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("mpesa: failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", mobilemoney.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", mobilemoney.ErrGatewayUnavailable, err)
	}

	if resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusUnauthorized {
			a.invalidateToken()
		}
		var errResp mpesaErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.ErrorCode != "" {
			return nil, fmt.Errorf("%w: HTTP %d %s - %s", mobilemoney.ErrGatewayUnavailable, resp.StatusCode, errResp.ErrorCode, errResp.ErrorMessage)
		}
		return nil, fmt.Errorf("%w: HTTP %d", mobilemoney.ErrGatewayUnavailable, resp.StatusCode)
	}

	var out mpesaSTKPushResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", mobilemoney.ErrGatewayInvalidResponse, err)
	}
	if out.ResponseCode == "" {
		return nil, fmt.Errorf("%w: missing ResponseCode", mobilemoney.ErrGatewayInvalidResponse)
	}

	return &mobilemoney.ChargeResponse{
		MerchantRequestID:   out.MerchantRequestID,
		CheckoutRequestID:   out.CheckoutRequestID,
		ResponseCode:        out.ResponseCode,
		ResponseDescription: out.ResponseDescription,
		CustomerMessage:     out.CustomerMessage,
	}, nil
}

// password is base64(shortcode + passkey + timestamp)
func (a *MpesaAdapter) password(timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(a.config.ShortCode + a.config.PassKey + timestamp))
}

func (a *MpesaAdapter) invalidateToken() {
	a.mu.Lock()
	a.token = ""
	a.mu.Unlock()
}

// Ensure MpesaAdapter implements mobilemoney.Gateway
var _ mobilemoney.Gateway = (*MpesaAdapter)(nil)
