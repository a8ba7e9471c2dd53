package cmd

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/scoreflow/hyouka/internal/config"
	"github.com/scoreflow/hyouka/internal/remote"
	"github.com/scoreflow/hyouka/internal/remote/httpclient"
)

// newClient builds the production remote.Client from the loaded
// configuration. The signing key, when configured, is a base64-encoded
// 64-byte Ed25519 private key read from a file or inline env var; absent
// either, httpclient generates an ephemeral key suitable only against a
// development-mode data service.
func newClient(cfg config.Config) (remote.Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("cmd: HYOUKA_ENDPOINT is required")
	}

	key, err := loadSigningKey(cfg)
	if err != nil {
		return nil, err
	}

	return httpclient.New(httpclient.Config{
		Endpoint:    cfg.Endpoint,
		SigningKey:  key,
		ServiceName: cfg.ServiceName,
		Audience:    "hyouka-remote",
		RPS:         cfg.RateLimitPerSecond,
	}), nil
}

func loadSigningKey(cfg config.Config) (ed25519.PrivateKey, error) {
	raw := cfg.JWTSigningKey
	if raw == "" && cfg.JWTSigningKeyPath != "" {
		b, err := os.ReadFile(cfg.JWTSigningKeyPath)
		if err != nil {
			return nil, fmt.Errorf("cmd: read signing key: %w", err)
		}
		raw = string(b)
	}
	if raw == "" {
		return nil, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("cmd: decode signing key: %w", err)
	}
	if len(decoded) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("cmd: signing key must decode to %d bytes, got %d", ed25519.PrivateKeySize, len(decoded))
	}
	return ed25519.PrivateKey(decoded), nil
}
