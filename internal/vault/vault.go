// internal/vault/vault.go
//
// Vault client wrapper for kapenta.
//
// Context
// -------
//   - Resolves the `vault:<mount/path>#<key>` references that the config
//     loader leaves in basic-auth and database passwords.
//   - Adds background token renewal, a KV-v2 helper, and per-key caching.
//   - Only constructed when the configuration actually references Vault.
//
// Public workflow
// ---------------
//  1. cli, err := vault.New(ctx, zap.S().Infof)          // during boot.
//  2. err = config.ResolveSecrets(ctx, cfg, cli)          // satisfies SecretGetter.
//
// Environment expectations
// ------------------------
// • VAULT_ADDR   – scheme and host of the Vault server.
// • VAULT_TOKEN  – initial token (falls back to ~/.vault-token).
package vault

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	vault "github.com/hashicorp/vault/api"
)

// Client is safe for concurrent use.  Zero value is invalid.
type Client struct {
	api   *vault.Client
	logFn func(string, ...any)

	cacheMu sync.RWMutex
	cache   map[string]cached // path#key → value + expiry
}

type cached struct {
	val string
	exp time.Time
}

// New constructs a Vault client and starts a background token-renewal loop
// that lives until ctx is cancelled.
func New(ctx context.Context, logFn func(string, ...any)) (*Client, error) {
	cfg := vault.DefaultConfig()
	if err := cfg.ReadEnvironment(); err != nil {
		return nil, fmt.Errorf("vault env cfg: %w", err)
	}

	apiCli, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault api: %w", err)
	}
	if tok := os.Getenv("VAULT_TOKEN"); tok != "" {
		apiCli.SetToken(tok)
	}

	c := newClient(apiCli, logFn)
	go c.renewLoop(ctx)
	return c, nil
}

func newClient(api *vault.Client, logFn func(string, ...any)) *Client {
	if logFn == nil {
		logFn = func(string, ...any) {}
	}
	return &Client{api: api, logFn: logFn, cache: make(map[string]cached)}
}

// GetKV fetches a single key from a KV-v2 secret.  If ttl > 0 the result is
// cached for that duration.
func (c *Client) GetKV(ctx context.Context, secretPath, key string, ttl time.Duration) (string, error) {
	if secretPath == "" || key == "" {
		return "", errors.New("secret path and key must be non-empty")
	}
	canonical := secretPath + "#" + key

	if v, ok := c.cached(canonical); ok {
		return v, nil
	}

	mount, rel := splitMount(secretPath)
	sec, err := c.api.KVv2(mount).Get(ctx, rel)
	if err != nil {
		return "", fmt.Errorf("vault get %s: %w", secretPath, err)
	}

	raw, ok := sec.Data[key]
	if !ok {
		return "", fmt.Errorf("key %q not found in secret %q", key, secretPath)
	}
	sval, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("value at %s#%s is not a string", secretPath, key)
	}

	if ttl > 0 {
		c.store(canonical, sval, ttl)
	}
	return sval, nil
}

func (c *Client) cached(k string) (string, bool) {
	c.cacheMu.RLock()
	defer c.cacheMu.RUnlock()
	cv, ok := c.cache[k]
	if !ok || !time.Now().Before(cv.exp) {
		return "", false
	}
	return cv.val, true
}

func (c *Client) store(k, v string, ttl time.Duration) {
	c.cacheMu.Lock()
	c.cache[k] = cached{val: v, exp: time.Now().Add(ttl)}
	c.cacheMu.Unlock()
}

//
// Background token renewal
//

func (c *Client) renewLoop(ctx context.Context) {
	for ctx.Err() == nil {
		sec, err := c.api.Auth().Token().RenewSelf(0)
		if err != nil {
			c.logFn("vault: token renew self failed: %v", err)
			backoff(ctx, 30*time.Second)
			continue
		}
		if sec == nil || sec.Auth == nil || !sec.Auth.Renewable {
			c.logFn("vault: token is not renewable, sleeping 1h")
			backoff(ctx, time.Hour)
			continue
		}

		watcher, err := c.api.NewLifetimeWatcher(&vault.LifetimeWatcherInput{
			Secret: sec,
		})
		if err != nil {
			c.logFn("vault: watcher init error: %v", err)
			backoff(ctx, 30*time.Second)
			continue
		}

		c.watch(ctx, watcher)
		backoff(ctx, 15*time.Second)
	}
}

// watch runs one watcher until it finishes or ctx ends.
func (c *Client) watch(ctx context.Context, w *vault.LifetimeWatcher) {
	go w.Start()
	defer w.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-w.DoneCh():
			if err != nil {
				c.logFn("vault: token renewal stopped: %v", err)
			}
			return
		case ev := <-w.RenewCh():
			if ev != nil && ev.Secret != nil && ev.Secret.Auth != nil {
				c.logFn("vault: token renewed, ttl=%ds", ev.Secret.Auth.LeaseDuration)
			}
		}
	}
}

//
// Helpers
//

// splitMount separates the KV mount from the secret path: "kv/app/db" →
// ("kv", "app/db").
func splitMount(p string) (mount, rel string) {
	mount, rel, _ = strings.Cut(p, "/")
	return mount, rel
}

func backoff(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
