package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/latticepricing/internal/pricing/application"
	"github.com/wyfcoding/latticepricing/internal/pricing/domain"
)

type stubRepo struct {
	mu      sync.Mutex
	rows    []*domain.PricingResult
	readErr error
}

func (r *stubRepo) WithTx(ctx context.Context, fn func(context.Context) error) error { return fn(ctx) }

func (r *stubRepo) SavePricingResult(_ context.Context, res *domain.PricingResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	res.ID = uint(len(r.rows) + 1)
	r.rows = append(r.rows, res)
	return nil
}

func (r *stubRepo) GetLatestPricingResult(_ context.Context, symbol string) (*domain.PricingResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.readErr != nil {
		return nil, r.readErr
	}
	for i := len(r.rows) - 1; i >= 0; i-- {
		if r.rows[i].Symbol == symbol {
			return r.rows[i], nil
		}
	}
	return nil, nil
}

func (r *stubRepo) GetPricingResultHistory(_ context.Context, symbol string, limit int) ([]*domain.PricingResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.PricingResult
	for i := len(r.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if r.rows[i].Symbol == symbol {
			out = append(out, r.rows[i])
		}
	}
	return out, nil
}

type envelope struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestRouter(t *testing.T, repo *stubRepo, maxBatch int) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	pricer := domain.NewBinomialPricer(domain.DefaultMaxSteps)
	svc := application.NewPricingService(
		application.NewPricingCommandService(pricer, repo, nil, nil),
		application.NewPricingQueryService(repo, nil, 2),
	)
	r := gin.New()
	NewPricingHandler(svc, maxBatch).RegisterRoutes(r)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func europeanCall(symbol string) map[string]any {
	return map[string]any{
		"symbol":           symbol,
		"option_type":      "CALL",
		"exercise_style":   "EUROPEAN",
		"strike_price":     100,
		"maturity":         1,
		"underlying_price": 100,
		"volatility":       0.2,
		"risk_free_rate":   0.05,
		"steps":            2,
	}
}

func TestHealth(t *testing.T) {
	w, env := doJSON(t, newTestRouter(t, &stubRepo{}, 0), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", env.Code)
}

func TestPriceOption(t *testing.T) {
	repo := &stubRepo{}
	r := newTestRouter(t, repo, 0)

	w, env := doJSON(t, r, http.MethodPost, "/api/v1/pricing/option/price", europeanCall("AAPL-C100"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var dto application.PriceOptionDTO
	require.NoError(t, json.Unmarshal(env.Data, &dto))
	assert.InDelta(t, 9.540501338582947, dto.Price, 1e-9)
	assert.InDelta(t, 0.5, dto.Params.Dt, 1e-12)
	require.Len(t, dto.UnderlyingLattice, 3)
	require.Len(t, dto.ValueLattice, 3)
	assert.Empty(t, dto.AfterLattice)
	require.NotNil(t, dto.Result)
	assert.Equal(t, "AAPL-C100", dto.Result.Symbol)
	assert.Len(t, repo.rows, 1)
}

func TestPriceOptionKnockIn(t *testing.T) {
	body := europeanCall("KI")
	body["barrier"] = map[string]any{"level": 110, "direction": "UP", "knock": "IN"}

	w, env := doJSON(t, newTestRouter(t, &stubRepo{}, 0), http.MethodPost, "/api/v1/pricing/option/price", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var dto application.PriceOptionDTO
	require.NoError(t, json.Unmarshal(env.Data, &dto))
	assert.Len(t, dto.AfterLattice, 3)
	assert.NotEmpty(t, dto.CrossedNodes)
}

func TestPriceOptionClientErrors(t *testing.T) {
	cases := []struct {
		name     string
		mutate   func(map[string]any)
		wantCode string
	}{
		{"bad style", func(m map[string]any) { m["exercise_style"] = "BERMUDAN" }, "INVALID_STYLE"},
		{"bad kind", func(m map[string]any) { m["option_type"] = "STRADDLE" }, "INVALID_OPTION_KIND"},
		{"zero steps", func(m map[string]any) { m["steps"] = 0 }, "INVALID_PARAMETER"},
		{"missing symbol", func(m map[string]any) { delete(m, "symbol") }, "INVALID_REQUEST"},
		{"barrier on wrong side", func(m map[string]any) {
			m["barrier"] = map[string]any{"level": 90, "direction": "UP", "knock": "OUT"}
		}, "INVALID_PARAMETER"},
	}
	r := newTestRouter(t, &stubRepo{}, 0)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body := europeanCall("X")
			tc.mutate(body)
			w, env := doJSON(t, r, http.MethodPost, "/api/v1/pricing/option/price", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tc.wantCode, env.Code)
		})
	}
}

func TestBatchPriceOptions(t *testing.T) {
	r := newTestRouter(t, &stubRepo{}, 2)

	bad := europeanCall("BAD")
	bad["volatility"] = -1
	w, env := doJSON(t, r, http.MethodPost, "/api/v1/pricing/option/batch", map[string]any{
		"batch_id":  "b-1",
		"contracts": []any{europeanCall("A"), bad},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var dto application.BatchPricingDTO
	require.NoError(t, json.Unmarshal(env.Data, &dto))
	assert.Equal(t, "b-1", dto.BatchID)
	assert.Equal(t, 1, dto.SuccessCount)
	assert.Equal(t, 1, dto.FailureCount)
	require.Len(t, dto.Errors, 1)
	assert.Equal(t, 1, dto.Errors[0].Index)

	w, env = doJSON(t, r, http.MethodPost, "/api/v1/pricing/option/batch", map[string]any{
		"contracts": []any{europeanCall("A"), europeanCall("B"), europeanCall("C")},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "BATCH_TOO_LARGE", env.Code)
}

func TestResultQueries(t *testing.T) {
	repo := &stubRepo{}
	r := newTestRouter(t, repo, 0)

	w, env := doJSON(t, r, http.MethodGet, "/api/v1/pricing/results/AAPL/latest", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", env.Code)

	for i := 0; i < 3; i++ {
		w, _ = doJSON(t, r, http.MethodPost, "/api/v1/pricing/option/price", europeanCall("AAPL"))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w, env = doJSON(t, r, http.MethodGet, "/api/v1/pricing/results/AAPL/latest", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var latest application.PricingResultDTO
	require.NoError(t, json.Unmarshal(env.Data, &latest))
	assert.Equal(t, uint(3), latest.ID)
	assert.Len(t, latest.ValueLattice, 3)

	w, env = doJSON(t, r, http.MethodGet, "/api/v1/pricing/results/AAPL/history?limit=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []application.PricingResultDTO
	require.NoError(t, json.Unmarshal(env.Data, &history))
	assert.Len(t, history, 2)

	w, _ = doJSON(t, r, http.MethodGet, "/api/v1/pricing/results/AAPL/history?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	repo.readErr = errors.New("db down")
	w, env = doJSON(t, r, http.MethodGet, "/api/v1/pricing/results/AAPL/latest", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL", env.Code)
}
