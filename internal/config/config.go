package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort        string
	AppEnv         string
	LogLevel       string
	AllowedOrigins []string // CORS allowed origins
	TrustedProxies []string // peers whose X-Forwarded-For is believed by the rate limiter

	OTPTTL             time.Duration
	OTPSweepInterval   time.Duration
	OTPAllowedNumbers  []string // numbers eligible for real SMS delivery; "*" allows all
	OTPExposeDebugCode bool

	SMSProvider            string // "twilio" | "sns" | "none"
	TwilioAccountSID       string
	TwilioAuthToken        string
	TwilioVerifyServiceSID string
	SNSRegion              string
	SMSSenderID            string

	AWSRegion         string
	AWSEndpointURL    string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID    string
	AWSSecretKey      string
	S3BucketName      string // empty disables the PDF archive
	DocumentsTable    string // empty disables analysis records
	DocumentRetention time.Duration
	MaxUploadBytes    int64

	LLMProvider    string // "openai" | "googleai"
	OpenAIAPIKey   string
	OpenAIModel    string
	GoogleAIAPIKey string
	GoogleAIModel  string
	LLMTimeout     time.Duration

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration
}

// Production reports whether the service runs with production defaults.
func (c *Config) Production() bool {
	return c.AppEnv == "production"
}

// Load reads all configuration from environment variables.
func Load() *Config {
	appEnv := getEnv("APP_ENV", "development")
	cfg := &Config{
		AppPort:        getEnv("APP_PORT", "5000"),
		AppEnv:         appEnv,
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "*")),
		TrustedProxies: splitList(getEnv("TRUSTED_PROXIES", "")),

		OTPTTL:             getEnvDuration("OTP_TTL", 10*time.Minute),
		OTPSweepInterval:   getEnvDuration("OTP_SWEEP_INTERVAL", time.Minute),
		OTPAllowedNumbers:  splitList(getEnv("OTP_ALLOWED_NUMBERS", "")),
		OTPExposeDebugCode: getEnvBool("OTP_EXPOSE_DEBUG_CODE", appEnv != "production"),

		SMSProvider:            strings.ToLower(getEnv("SMS_PROVIDER", "none")),
		TwilioAccountSID:       getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:        getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioVerifyServiceSID: getEnv("TWILIO_VERIFY_SERVICE_SID", ""),
		SNSRegion:              getEnv("SNS_REGION", "us-east-1"),
		SMSSenderID:            getEnv("SMS_SENDER_ID", ""),

		AWSRegion:         getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL:    getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID:    getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
		S3BucketName:      getEnv("S3_BUCKET_NAME", ""),
		DocumentsTable:    getEnv("DOCUMENTS_TABLE", ""),
		DocumentRetention: getEnvDuration("DOCUMENT_RETENTION", 7*24*time.Hour),
		MaxUploadBytes:    int64(getEnvInt("MAX_UPLOAD_BYTES", 10<<20)),

		LLMProvider:    strings.ToLower(getEnv("LLM_PROVIDER", "openai")),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
		GoogleAIAPIKey: getEnv("GOOGLEAI_API_KEY", ""),
		GoogleAIModel:  getEnv("GOOGLEAI_MODEL", "gemini-2.5-flash"),
		LLMTimeout:     getEnvDuration("LLM_TIMEOUT", 60*time.Second),

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 24)) * time.Hour,
	}
	// Simulated codes are never echoed back in production.
	if cfg.Production() {
		cfg.OTPExposeDebugCode = false
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// splitList splits a comma-separated value, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
