package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"sixdegrees-service/internal/config"
	"sixdegrees-service/internal/metrics"
	"sixdegrees-service/internal/middleware"
	"sixdegrees-service/internal/mocks"
	"sixdegrees-service/internal/services"
	"sixdegrees-service/internal/telemetry"
)

const testJWTSecret = "handlers-secret"

type apiFixture struct {
	router      *gin.Engine
	users       *mocks.MockUserRepository
	connections *mocks.MockConnectionRepository
	requests    *mocks.MockRequestRepository
	chains      *mocks.MockChainRepository
	wallets     *mocks.MockWalletRepository
	swipes      *mocks.MockSwipeRepository
	guard       *mocks.MockGuard
	avatars     *mocks.MockAvatarSigner
	events      *mocks.MockPublisher
	audits      *mocks.MockPublisher
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	metrics.RegisterDomainMetrics()
	cfg := config.Default()

	f := &apiFixture{
		users:       new(mocks.MockUserRepository),
		connections: new(mocks.MockConnectionRepository),
		requests:    new(mocks.MockRequestRepository),
		chains:      new(mocks.MockChainRepository),
		wallets:     new(mocks.MockWalletRepository),
		swipes:      new(mocks.MockSwipeRepository),
		guard:       new(mocks.MockGuard),
		avatars:     new(mocks.MockAvatarSigner),
		events:      new(mocks.MockPublisher),
	}
	f.events.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	f.audits = new(mocks.MockPublisher)
	f.audits.On("Publish", mock.Anything, telemetry.AuditRoutingKey, mock.Anything).Return(nil).Maybe()
	audit := telemetry.NewAuditEmitter(f.audits, "sixdegrees-service", "test")

	userSvc := services.NewUserService(f.users, f.connections, f.requests, f.avatars, cfg.Rewards.SignupBonusCredits)
	requestSvc := services.NewRequestService(f.requests, f.chains, cfg.Rewards)
	chainSvc := services.NewChainService(f.requests, f.chains, f.guard, cfg.Rewards, cfg.Links.ClickDedupeWindow)
	walletSvc := services.NewWalletService(f.wallets, cfg.CreditPackages, f.events)
	swipeSvc := services.NewSwipeService(f.swipes, f.users, cfg.Swipes)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	RegisterRoutes(r, Handlers{
		Users:       NewUserHandler(userSvc, audit),
		Connections: NewConnectionHandler(f.connections, userSvc, audit),
		Requests:    NewRequestHandler(requestSvc, chainSvc, audit),
		Chains:      NewChainHandler(chainSvc, audit),
		Wallet:      NewWalletHandler(walletSvc, audit),
		Swipes:      NewSwipeHandler(swipeSvc, audit),
	}, testJWTSecret, middleware.NewRateLimiter(cfg.Links.RateLimitRPS, cfg.Links.RateLimitBurst))
	f.router = r
	return f
}

// do sends a request as userID; zero means anonymous.
func (f *apiFixture) do(t *testing.T, method, path string, userID int64, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != 0 {
		token, err := middleware.SignToken(userID, "user", testJWTSecret)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

// auditEnvelopes returns the audit envelopes published so far.
func (f *apiFixture) auditEnvelopes() []telemetry.Envelope {
	var out []telemetry.Envelope
	for _, call := range f.audits.Calls {
		if env, ok := call.Arguments.Get(2).(telemetry.Envelope); ok {
			out = append(out, env)
		}
	}
	return out
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, rec.Code, rec.Body.String())
}
