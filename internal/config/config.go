// Package config provides configuration management for qbo-bridge.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config represents the application configuration.
type Config struct {
	Intuit        IntuitConfig
	Port          string
	NodeEnv       string
	AppBaseURL    string
	SessionSecret string
	ActionAPIKey  string
	UserID        string
	DBPath        string
	UploadDBPath  string
	MappingPath   string
	Debug         bool
}

// IntuitConfig represents Intuit OAuth and QBO API configuration.
type IntuitConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthURL      string
	TokenURL     string
	APIBaseURL   string
}

// Load loads configuration from environment variables.
// It automatically loads a .env file from the current directory if available.
// You can optionally specify a custom .env file path.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Try to load .env from current directory (ignore error if not found)
		_ = godotenv.Load()
	}

	config := &Config{
		Intuit: IntuitConfig{
			ClientID:     os.Getenv("INTUIT_CLIENT_ID"),
			ClientSecret: os.Getenv("INTUIT_CLIENT_SECRET"),
			RedirectURI:  os.Getenv("OAUTH_REDIRECT_URI"),
			AuthURL:      getEnvOrDefault("INTUIT_AUTH_URL", "https://appcenter.intuit.com/connect/oauth2"),
			TokenURL:     getEnvOrDefault("INTUIT_TOKEN_URL", "https://oauth.platform.intuit.com/oauth2/v1/tokens/bearer"),
			APIBaseURL:   getEnvOrDefault("QBO_API_URL", "https://quickbooks.api.intuit.com/v3/company"),
		},
		Port:          getEnvOrDefault("PORT", "3000"),
		NodeEnv:       getEnvOrDefault("NODE_ENV", "development"),
		AppBaseURL:    os.Getenv("APP_BASE_URL"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		ActionAPIKey:  os.Getenv("ACTION_API_KEY"),
		UserID:        getEnvOrDefault("GPT_USER_ID", "default"),
		DBPath:        getEnvOrDefault("DB_PATH", "./data/tokens.db"),
		UploadDBPath:  getEnvOrDefault("UPLOAD_DB_PATH", "./data/uploads.db"),
		MappingPath:   os.Getenv("CATEGORY_MAPPING_PATH"),
		Debug:         os.Getenv("DEBUG") == "true",
	}

	return config, nil
}

// Validate checks that the named configuration fields are set.
// Field names are dot-separated, e.g. "intuit.clientId".
func (c *Config) Validate(required ...string) error {
	var missing []string

	for _, name := range required {
		var value string
		switch name {
		case "intuit.clientId":
			value = c.Intuit.ClientID
		case "intuit.clientSecret":
			value = c.Intuit.ClientSecret
		case "intuit.redirectUri":
			value = c.Intuit.RedirectURI
		case "appBaseUrl":
			value = c.AppBaseURL
		case "sessionSecret":
			value = c.SessionSecret
		case "actionApiKey":
			value = c.ActionAPIKey
		case "dbPath":
			value = c.DBPath
		default:
			value = ""
		}

		if value == "" {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s\nPlease check your .env file or environment variables",
			strings.Join(missing, ", "))
	}

	return nil
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.NodeEnv == "production"
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
