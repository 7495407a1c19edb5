package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	appcontribution "github.com/hazina/backend/internal/application/contribution"
	apppayment "github.com/hazina/backend/internal/application/payment"
	"github.com/hazina/backend/internal/infrastructure/cache"
	"github.com/hazina/backend/internal/infrastructure/config"
	"github.com/hazina/backend/internal/infrastructure/metrics"
	"github.com/hazina/backend/internal/infrastructure/payment"
	"github.com/hazina/backend/internal/infrastructure/persistence"
	"github.com/hazina/backend/internal/interfaces/http/handler"
	"github.com/hazina/backend/internal/interfaces/http/router"
	"github.com/hazina/backend/tests/testutil"
	"github.com/stretchr/testify/require"
)

// fakeDaraja answers the OAuth and STK push endpoints
type fakeDaraja struct {
	server *httptest.Server
	pushes atomic.Int64
}

func newFakeDaraja(t *testing.T) *fakeDaraja {
	t.Helper()
	d := &fakeDaraja{}
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/v1/generate", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"integration-token","expires_in":"3599"}`))
	})
	mux.HandleFunc("/mpesa/stkpush/v1/processrequest", func(w http.ResponseWriter, r *http.Request) {
		n := d.pushes.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"MerchantRequestID":   fmt.Sprintf("29115-3462-%d", n),
			"CheckoutRequestID":   fmt.Sprintf("ws_CO_%d", n),
			"ResponseCode":        "0",
			"ResponseDescription": "Success. Request accepted for processing",
			"CustomerMessage":     "Success. Request accepted for processing",
		})
	})
	d.server = httptest.NewServer(mux)
	t.Cleanup(d.server.Close)
	return d
}

type testApp struct {
	db      *TestDB
	members *persistence.GormMemberRepository
	tokens  *testutil.Tokens
	client  *testutil.Client
	daraja  *fakeDaraja
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	skipIfShort(t)

	db := NewSharedTestDB(t)
	daraja := newFakeDaraja(t)
	timeout := 5 * time.Second

	members := persistence.NewGormMemberRepository(db.DB, timeout)
	methods := persistence.NewGormPaymentMethodRepository(db.DB, timeout)
	ledger := persistence.NewGormLedgerStore(db.DB, timeout)
	transactions := persistence.NewGormMobileMoneyRepository(db.DB, timeout)
	summaries := cache.NopSummaryCache{}
	registry := metrics.NewRegistry()

	mpesa := payment.NewMpesaAdapter(payment.MpesaConfigFromApp(config.MpesaConfig{
		BaseURL:        daraja.server.URL,
		ConsumerKey:    "key",
		ConsumerSecret: "secret",
		ShortCode:      "174379",
		PassKey:        "passkey",
		CallbackURL:    "https://pay.example.com/api/v1/payments/mpesa/callback",
		Timeout:        5 * time.Second,
	}))

	tokens := testutil.NewTokens()
	engine, err := router.NewEngine(router.Options{
		HTTP:    config.HTTPConfig{MaxBodySize: 1 << 20},
		Tokens:  tokens,
		Metrics: registry,
	}, router.Handlers{
		System: handler.NewSystemHandler("hazina", "test", nil),
		Contributions: handler.NewContributionHandler(
			appcontribution.NewSubmissionService(appcontribution.SubmissionServiceConfig{
				Members: members, PaymentMethods: methods, Store: ledger, Cache: summaries, Metrics: registry,
			}),
			appcontribution.NewApprovalResolver(appcontribution.ApprovalResolverConfig{
				Members: members, Store: ledger, Cache: summaries, Metrics: registry,
			}),
			appcontribution.NewReportingAggregator(appcontribution.ReportingAggregatorConfig{
				Members: members, Store: ledger, Cache: summaries, Metrics: registry,
			}),
			appcontribution.NewMembership(members),
		),
		PaymentMethods: handler.NewPaymentMethodHandler(appcontribution.NewPaymentMethodService(members, methods, nil)),
		Payments: handler.NewPaymentHandler(apppayment.NewGatewayBridge(apppayment.GatewayBridgeConfig{
			Gateway: mpesa, Transactions: transactions, Members: members, Summaries: summaries, Metrics: registry,
		})),
	})
	require.NoError(t, err)

	return &testApp{
		db:      db,
		members: members,
		tokens:  tokens,
		client:  testutil.NewClient(engine),
		daraja:  daraja,
	}
}
