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
	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables
	S3BucketName   string
	MaxUploadBytes int64
	SMTPHost       string
	SMTPPort       string
	SMTPFrom       string
	SMTPUsername   string
	SMTPPassword   string
	SNSRegion      string
	// SuccessionTopicARN receives succession triggers. Empty disables publishing;
	// triggers are then only logged.
	SuccessionTopicARN string
	AllowedOrigins     []string // CORS allowed origins

	InactivitySweepInterval time.Duration
	DefaultInactivityDays   int
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users                string
	Nominees             string
	Assets               string
	VerificationRequests string
	ActivityLogs         string
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:        getEnv("APP_PORT", "3000"),
		AppEnv:         getEnv("APP_ENV", "development"),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users:                getEnv("DYNAMO_TABLE_USERS", "users"),
			Nominees:             getEnv("DYNAMO_TABLE_NOMINEES", "nominees"),
			Assets:               getEnv("DYNAMO_TABLE_ASSETS", "assets"),
			VerificationRequests: getEnv("DYNAMO_TABLE_VERIFICATION_REQUESTS", "verification_requests"),
			ActivityLogs:         getEnv("DYNAMO_TABLE_ACTIVITY_LOGS", "activity_logs"),
		},
		S3BucketName:   getEnv("S3_BUCKET_NAME", "succession-vault-documents"),
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_BYTES", 20<<20)),
		SMTPHost:       getEnv("SMTP_HOST", "localhost"),
		SMTPPort:       getEnv("SMTP_PORT", "1025"),
		SMTPFrom:       getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername:   getEnv("SMTP_USERNAME", ""),
		SMTPPassword:   getEnv("SMTP_PASSWORD", ""),
		SNSRegion:      getEnv("SNS_REGION", "us-east-1"),

		SuccessionTopicARN: getEnv("SUCCESSION_TOPIC_ARN", ""),
		AllowedOrigins:     strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),

		InactivitySweepInterval: getEnvDuration("INACTIVITY_SWEEP_INTERVAL", 24*time.Hour),
		DefaultInactivityDays:   getEnvInt("DEFAULT_INACTIVITY_DAYS", 180),
	}
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

// getEnvDuration accepts Go duration syntax ("24h", "90m"). Non-positive values fall back.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
