package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultSecretsPath is where the runtime-managed secret store is read from.
const DefaultSecretsPath = ".secrets.yaml"

// ErrMissingAPIKey is returned when neither the secret store nor the
// environment provides the classification API key.
var ErrMissingAPIKey = errors.New("classification API key not configured")

// Secrets is the flat key/value document managed by the deployment runtime.
type Secrets map[string]string

// LoadSecrets reads the YAML secret store. A missing file yields empty secrets.
func LoadSecrets(path string) (Secrets, error) {
	if strings.TrimSpace(path) == "" {
		return Secrets{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Secrets{}, nil
		}
		return nil, fmt.Errorf("read secrets %s: %w", path, err)
	}
	secrets := Secrets{}
	if err := yaml.Unmarshal(data, &secrets); err != nil {
		return nil, fmt.Errorf("parse secrets %s: %w", path, err)
	}
	return secrets, nil
}

// ResolveAPIKey looks the key up in the secret store first, then the environment.
func ResolveAPIKey(name string, secrets Secrets) (string, error) {
	if val := strings.TrimSpace(secrets[name]); val != "" {
		return val, nil
	}
	if val := strings.TrimSpace(os.Getenv(name)); val != "" {
		return val, nil
	}
	return "", fmt.Errorf("%w: %s not found; add it to the secret store (%s) or set the %s environment variable (a local .env file works)",
		ErrMissingAPIKey, name, DefaultSecretsPath, name)
}
