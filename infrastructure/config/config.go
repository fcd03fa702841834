package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	domainconfig "workflowstudio/domain/config"
)

// Storage backends
const (
	StorageMemory   = "memory"
	StorageDynamoDB = "dynamodb"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress   string
	Environment     string
	ShutdownTimeout time.Duration

	// AWS configuration
	AWSRegion      string
	StorageBackend string
	DynamoDBTable  string
	EventBusName   string

	// Lambda configuration
	IsLambda bool

	// Logging
	LogLevel string

	// Workflow graph
	BlockCatalogPath string
	DefaultEdgeType  string

	// Feature flags
	EnableEvents  bool
	EnableMetrics bool
	EnableTracing bool
	EnableCORS    bool
	CORSOrigins   []string

	MetricsNamespace string
	ServiceName      string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress:   getEnv("SERVER_ADDRESS", ":8080"),
		Environment:     getEnv("ENVIRONMENT", "development"),
		ShutdownTimeout: time.Duration(getEnvInt("SHUTDOWN_TIMEOUT_SECONDS", 30)) * time.Second,

		AWSRegion:      getEnv("AWS_REGION", "us-west-2"),
		StorageBackend: getEnv("STORAGE_BACKEND", StorageMemory),
		DynamoDBTable:  getEnv("DYNAMODB_TABLE", "workflowstudio"),
		EventBusName:   getEnv("EVENT_BUS_NAME", "workflowstudio-events"),

		IsLambda: getEnvBool("IS_LAMBDA", os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		BlockCatalogPath: getEnv("BLOCK_CATALOG_PATH", ""),
		DefaultEdgeType:  getEnv("DEFAULT_EDGE_TYPE", ""),

		EnableEvents:  getEnvBool("ENABLE_EVENTS", false),
		EnableMetrics: getEnvBool("ENABLE_METRICS", false),
		EnableTracing: getEnvBool("ENABLE_TRACING", false),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),
		CORSOrigins:   getEnvList("CORS_ORIGINS", []string{"*"}),

		MetricsNamespace: getEnv("METRICS_NAMESPACE", "WorkflowStudio"),
		ServiceName:      getEnv("SERVICE_NAME", "workflowstudio"),
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case StorageMemory:
	case StorageDynamoDB:
		if c.DynamoDBTable == "" {
			return fmt.Errorf("DYNAMODB_TABLE is required for the dynamodb storage backend")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}

	if c.EnableEvents && c.EventBusName == "" {
		return fmt.Errorf("EVENT_BUS_NAME is required when events are enabled")
	}

	if c.IsProduction() && c.StorageBackend == StorageMemory {
		return fmt.Errorf("the memory storage backend is not allowed in production")
	}

	return nil
}

// DomainConfig returns the graph limits for this environment with the
// configured overrides applied.
func (c *Config) DomainConfig() *domainconfig.DomainConfig {
	dc := domainconfig.LoadDomainConfig(c.Environment)
	if c.DefaultEdgeType != "" {
		dc.DefaultEdgeType = c.DefaultEdgeType
	}
	return dc
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated variable, dropping empty entries
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
