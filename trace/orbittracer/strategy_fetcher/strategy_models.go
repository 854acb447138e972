package strategy_fetcher

// Strategy descriptors returned by the sampling server. The layout follows
// the Jaeger remote-sampling JSON schema, extended with a const strategy.

const (
	StrategyTypeConst         = "CONST"
	StrategyTypeProbabilistic = "PROBABILISTIC"
	StrategyTypeRateLimiting  = "RATE_LIMITING"
)

type ConstSampling struct {
	Decision bool `json:"decision"`
}

type ProbabilisticSampling struct {
	SamplingRate float64 `json:"samplingRate"`
}

type RateLimitingSampling struct {
	MaxTracesPerSecond float64 `json:"maxTracesPerSecond"`
}

type OperationStrategy struct {
	Operation             string                 `json:"operation"`
	ProbabilisticSampling *ProbabilisticSampling `json:"probabilisticSampling"`
}

type PerOperationStrategies struct {
	DefaultSamplingProbability       float64              `json:"defaultSamplingProbability"`
	DefaultLowerBoundTracesPerSecond float64              `json:"defaultLowerBoundTracesPerSecond"`
	PerOperationStrategies           []*OperationStrategy `json:"perOperationStrategies"`
}

type StrategyResponse struct {
	StrategyType          string                  `json:"strategyType"`
	ConstSampling         *ConstSampling          `json:"constSampling,omitempty"`
	ProbabilisticSampling *ProbabilisticSampling  `json:"probabilisticSampling,omitempty"`
	RateLimitingSampling  *RateLimitingSampling   `json:"rateLimitingSampling,omitempty"`
	OperationSampling     *PerOperationStrategies `json:"operationSampling,omitempty"`
}
