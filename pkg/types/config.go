package types

type Config struct {
	Environment     string `envconfig:"ENVIRONMENT" default:"development"`
	ServerPort      uint   `envconfig:"SERVER_PORT" default:"8080"`
	DatabaseURL     string `envconfig:"DATABASE_URL"`
	ReadTimeoutSec  uint   `envconfig:"READ_TIMEOUT_SEC" default:"10"`
	WriteTimeoutSec uint   `envconfig:"WRITE_TIMEOUT_SEC" default:"15"`

	// Cognito Auth
	CognitoUserPoolID string `envconfig:"COGNITO_USER_POOL_ID"`
	CognitoClientID   string `envconfig:"COGNITO_CLIENT_ID"`
	CognitoIssuerURL  string `envconfig:"COGNITO_ISSUER_URL"`

	// Auth Configuration
	CookieName string `envconfig:"SESSION_COOKIE_NAME" default:"session_id"`

	// Cookie encryption keys (base64 encoded)
	// openssl rand -base64 32
	// to generate values
	CookieHashKey  string `envconfig:"COOKIE_HASH_KEY"`  // 32 or 64 bytes
	CookieBlockKey string `envconfig:"COOKIE_BLOCK_KEY"` // 16, 24, or 32 bytes

	// Uploaded applicant documents
	DocumentBucket string `envconfig:"DOCUMENT_BUCKET" default:"zakatdesk-documents"`

	// Disbursement summary cache. Empty REDIS_URL disables caching.
	RedisURL           string `envconfig:"REDIS_URL"`
	SummaryCacheTTLSec uint   `envconfig:"SUMMARY_CACHE_TTL_SEC" default:"300"`

	// Upper bound for history/notification writes that follow a transition
	SideEffectTimeoutSec uint `envconfig:"SIDE_EFFECT_TIMEOUT_SEC" default:"5"`

	ApplicationNumberPrefix string `envconfig:"APPLICATION_NUMBER_PREFIX" default:"ZK"`
}
