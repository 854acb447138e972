package strategy_fetcher

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcher_ParsesStrategy(t *testing.T) {
	var gotService string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotService = r.URL.Query().Get("service")
		_, _ = w.Write([]byte(`{
			"strategyType":"PROBABILISTIC",
			"probabilisticSampling":{"samplingRate":0.25},
			"operationSampling":{
				"defaultSamplingProbability":0.1,
				"defaultLowerBoundTracesPerSecond":2,
				"perOperationStrategies":[
					{"operation":"op a","probabilisticSampling":{"samplingRate":1}}
				]
			}
		}`))
	}))
	defer server.Close()

	fetcher := New(FetcherConfig{Service: "svc with spaces", ServerURL: server.URL})
	strategy, err := fetcher.Fetch()
	require.NoError(t, err)

	assert.Equal(t, "svc with spaces", gotService)
	assert.Equal(t, StrategyTypeProbabilistic, strategy.StrategyType)
	require.NotNil(t, strategy.ProbabilisticSampling)
	assert.Equal(t, 0.25, strategy.ProbabilisticSampling.SamplingRate)
	require.NotNil(t, strategy.OperationSampling)
	assert.Equal(t, 0.1, strategy.OperationSampling.DefaultSamplingProbability)
	require.Len(t, strategy.OperationSampling.PerOperationStrategies, 1)
	assert.Equal(t, "op a", strategy.OperationSampling.PerOperationStrategies[0].Operation)
}

func TestFetcher_ConstAndRateLimiting(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"strategyType":"RATE_LIMITING","rateLimitingSampling":{"maxTracesPerSecond":50}}`))
	}))
	defer server.Close()

	fetcher := New(FetcherConfig{Service: "svc", ServerURL: server.URL})
	strategy, err := fetcher.Fetch()
	require.NoError(t, err)
	assert.Equal(t, StrategyTypeRateLimiting, strategy.StrategyType)
	require.NotNil(t, strategy.RateLimitingSampling)
	assert.Equal(t, float64(50), strategy.RateLimitingSampling.MaxTracesPerSecond)
}

func TestFetcher_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	fetcher := New(FetcherConfig{Service: "svc", ServerURL: server.URL})
	_, err := fetcher.Fetch()
	assert.Error(t, err)
}

func TestFetcher_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{`))
	}))
	defer server.Close()

	fetcher := New(FetcherConfig{Service: "svc", ServerURL: server.URL})
	_, err := fetcher.Fetch()
	assert.Error(t, err)
}

func TestFetcher_Unreachable(t *testing.T) {
	fetcher := New(FetcherConfig{Service: "svc", ServerURL: "http://127.0.0.1:1"})
	_, err := fetcher.Fetch()
	assert.Error(t, err)
}
