package macrotrack

import "time"

type LookupConfig struct {
	Provider       string        `env:"LOOKUP_PROVIDER,default=gemini"`
	ModelID        string        `env:"MODEL_ID,default=gemini-2.0-flash"`
	APIKey         string        `env:"GEMINI_API_KEY"`
	BedrockModelID string        `env:"BEDROCK_MODEL_ID"`
	BaseEndpoint   string        `env:"GEMINI_BASE_ENDPOINT,default=https://generativelanguage.googleapis.com/v1beta"`
	MaxAttempts    int           `env:"LOOKUP_MAX_ATTEMPTS,default=3"`
	BaseDelay      time.Duration `env:"LOOKUP_BASE_DELAY,default=2s"`
	PreflightDelay time.Duration `env:"LOOKUP_PREFLIGHT_DELAY,default=1s"`
	MaxResults     int           `env:"LOOKUP_MAX_RESULTS,default=5"`
	RequestTimeout time.Duration `env:"LOOKUP_REQUEST_TIMEOUT,default=30s"`
}

type ModelConfig struct {
	MaxTokens   int32   `env:"MAX_TOKENS,default=1024"`
	Temperature float32 `env:"TEMPERATURE,default=0.2"`
	TopP        float32 `env:"TOP_P,default=0.9"`
}

type TrackerConfig struct {
	CalorieTarget  float64       `env:"CALORIE_TARGET,default=2213"`
	FoodTablePath  string        `env:"FOOD_TABLE_PATH"`
	MinQueryLength int           `env:"MIN_QUERY_LENGTH,default=3"`
	SearchCacheTTL time.Duration `env:"SEARCH_CACHE_TTL,default=5m"`
	SlackWebhook   string        `env:"SLACK_WEBHOOK_URL"`
	SlackChannel   string        `env:"SLACK_CHANNEL,default=#nutrition"`
	DebugDump      bool          `env:"DEBUG_DUMP,default=false"`
}

type ServerConfig struct {
	ListenAddr string `env:"LISTEN_ADDR,default=:8080"`
	GinMode    string `env:"GIN_MODE,default=release"`
}
