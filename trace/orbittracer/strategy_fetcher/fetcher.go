package strategy_fetcher

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"time"

	"github.com/orbit-telemetry/orbit-client-go/trace/orbittracer/logger"
)

const (
	defaultServerURL = "http://127.0.0.1:5778/sampling"
	defaultTimeout   = 5 * time.Second
)

type FetcherConfig struct {
	Service   string
	ServerURL string
	Timeout   time.Duration
	Logger    logger.Logger
}

// Fetcher performs one-shot strategy queries against the sampling server.
// The polling cadence is owned by the remotely controlled sampler; the
// fetcher itself keeps no state beyond the HTTP client.
type Fetcher struct {
	service string
	url     string
	client  *http.Client
	logger  logger.Logger
}

func New(config FetcherConfig) *Fetcher {
	if config.ServerURL == "" {
		config.ServerURL = defaultServerURL
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	if config.Logger == nil {
		config.Logger = &logger.NoopLogger{}
	}
	return &Fetcher{
		service: config.Service,
		url:     config.ServerURL,
		client:  &http.Client{Timeout: config.Timeout},
		logger:  config.Logger,
	}
}

func (f *Fetcher) Fetch() (*StrategyResponse, error) {
	resp, err := f.client.Get(f.url + "?service=" + url.QueryEscape(f.service))
	if err != nil {
		return nil, fmt.Errorf("strategy query failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("strategy server returned status %d", resp.StatusCode)
	}
	rawData, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read strategy body: %w", err)
	}
	strategy := StrategyResponse{}
	if err := json.Unmarshal(rawData, &strategy); err != nil {
		return nil, fmt.Errorf("unmarshal strategy: %w", err)
	}
	f.logger.Debug("[Fetch] got strategy %+v", strategy)
	return &strategy, nil
}
