package config

import (
	"encoding/base64"
	"fmt"
)

type Config struct {
	ServerAddr      string
	DatabaseDSN     string
	SigningKey      []byte
	AllowedOrigins  []string
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubscriber string
}

func decodeSigningSecret(base64Secret string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(base64Secret)
}

func NewConfig(serverAddr, databaseDSN, base64Secret string, allowedOrigins []string, vapidPublicKey, vapidPrivateKey, vapidSubscriber string) (*Config, error) {
	if serverAddr == "" {
		return nil, fmt.Errorf("server address cannot be empty")
	}
	if databaseDSN == "" {
		return nil, fmt.Errorf("database DSN cannot be empty")
	}
	if base64Secret == "" {
		return nil, fmt.Errorf("signing secret cannot be empty")
	}

	signingKey, err := decodeSigningSecret(base64Secret)
	if err != nil {
		return nil, fmt.Errorf("decode signing secret: %w", err)
	}

	// Push is enabled only when both keys are present; a half-configured
	// pair behaves the same as no configuration at all.
	if vapidPublicKey == "" || vapidPrivateKey == "" {
		vapidPublicKey = ""
		vapidPrivateKey = ""
	}

	return &Config{
		ServerAddr:      serverAddr,
		DatabaseDSN:     databaseDSN,
		SigningKey:      signingKey,
		AllowedOrigins:  allowedOrigins,
		VAPIDPublicKey:  vapidPublicKey,
		VAPIDPrivateKey: vapidPrivateKey,
		VAPIDSubscriber: vapidSubscriber,
	}, nil
}

// PushConfigured reports whether Web Push delivery credentials are
// available.
func (c *Config) PushConfigured() bool {
	return c.VAPIDPublicKey != "" && c.VAPIDPrivateKey != ""
}
