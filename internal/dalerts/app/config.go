package app

import (
	"os"
	"strings"
)

type Config struct {
	ClientID     string   // Required: OAuth application ID
	ClientSecret string   // Required: OAuth application secret
	RedirectURI  string   // Optional: only needed for authorization-code flows
	AccessToken  string   // Required: current access token for the account
	RefreshToken string   // Required: current refresh token for the account
	Scopes       []string // Scopes the tokens were granted (default: user + donations)
	LogLevel     string   // Log level (debug, info, warn, error) (default: info)
	LogFormat    string   // Log format (json, text) (default: text)
}

func LoadConfig() Config {
	return Config{
		ClientID:     os.Getenv("DA_CLIENT_ID"),
		ClientSecret: os.Getenv("DA_CLIENT_SECRET"),
		RedirectURI:  os.Getenv("DA_REDIRECT_URI"),
		AccessToken:  os.Getenv("DA_ACCESS_TOKEN"),
		RefreshToken: os.Getenv("DA_REFRESH_TOKEN"),
		Scopes:       parseScopes(getEnvOrDefault("DA_SCOPES", "oauth-user-show oauth-donation-index")),
		LogLevel:     getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:    getEnvOrDefault("LOG_FORMAT", "text"),
	}
}

func parseScopes(s string) []string {
	return strings.Fields(s)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
