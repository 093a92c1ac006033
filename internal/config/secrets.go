// internal/config/secrets.go
//
// `vault:` reference resolution.
//
// A secret field may hold `vault:<mount>/<path>#<key>` instead of a plain
// value.  ResolveSecrets swaps every such reference for the value returned
// by the SecretGetter.  The production getter is *vault.Client; tests pass
// a map-backed fake.

package config

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const vaultPrefix = "vault:"

// secretTTL is how long the getter may cache a resolved value.
const secretTTL = 5 * time.Minute

// SecretGetter fetches one key from a KV secret.
type SecretGetter interface {
	GetKV(ctx context.Context, secretPath, key string, ttl time.Duration) (string, error)
}

// HasSecretRefs reports whether any secret field carries a vault reference.
func HasSecretRefs(cfg *Config) bool {
	for _, p := range secretFields(cfg) {
		if strings.HasPrefix(*p, vaultPrefix) {
			return true
		}
	}
	return false
}

// ResolveSecrets replaces vault references in place.  It must run before
// the config is handed to any other component.
func ResolveSecrets(ctx context.Context, cfg *Config, g SecretGetter) error {
	for _, p := range secretFields(cfg) {
		if !strings.HasPrefix(*p, vaultPrefix) {
			continue
		}
		path, key, err := parseRef(*p)
		if err != nil {
			return err
		}
		val, err := g.GetKV(ctx, path, key, secretTTL)
		if err != nil {
			return fmt.Errorf("resolve %s#%s: %w", path, key, err)
		}
		*p = val
	}
	return nil
}

// secretFields lists pointers to every field that may hold a reference.
func secretFields(cfg *Config) []*string {
	var out []*string
	if cfg.BasicAuth != nil {
		if cfg.BasicAuth.User != nil {
			out = append(out, &cfg.BasicAuth.User.Password)
		}
		for i := range cfg.BasicAuth.Users {
			out = append(out, &cfg.BasicAuth.Users[i].Password)
		}
	}
	if cfg.Database != nil {
		out = append(out, &cfg.Database.Password)
	}
	return out
}

func parseRef(ref string) (path, key string, err error) {
	body := strings.TrimPrefix(ref, vaultPrefix)
	i := strings.LastIndexByte(body, '#')
	if i <= 0 || i == len(body)-1 {
		return "", "", fmt.Errorf("malformed vault reference %q (want vault:<path>#<key>)", ref)
	}
	return body[:i], body[i+1:], nil
}
