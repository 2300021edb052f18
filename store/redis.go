package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopglow/go-session"
)

// RedisConfig configures the Redis-backed credential store.
type RedisConfig struct {
	Client *redis.Client
	// Prefix namespaces keys so multiple profiles can share an instance.
	Prefix string
	// TTL bounds how long abandoned credentials linger. Zero means no expiry.
	TTL time.Duration
	// Secret, when set, seals values before they reach the server.
	Secret []byte
	Logger session.Logger
}

// Redis persists credentials in Redis, for hosts that already run one and
// want sessions to survive across machines. Same best-effort contract as the
// SQLite store.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	sealer *Sealer
	logger session.Logger
}

var _ session.CredentialStore = &Redis{}

func NewRedis(cfg RedisConfig) (*Redis, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("redis store requires a client")
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "session"
	}
	if cfg.Logger == nil {
		cfg.Logger = session.NopLogger{}
	}

	r := &Redis{
		client: cfg.Client,
		prefix: cfg.Prefix,
		ttl:    cfg.TTL,
		logger: cfg.Logger,
	}

	if len(cfg.Secret) > 0 {
		sealer, err := NewSealer(cfg.Secret)
		if err != nil {
			return nil, err
		}
		r.sealer = sealer
	}

	return r, nil
}

func (r *Redis) Load(ctx context.Context) session.Credentials {
	creds := session.Credentials{}

	if token, ok := r.get(ctx, r.tokenKey()); ok {
		creds.Token = token
	}

	if raw, ok := r.get(ctx, r.userKey()); ok {
		user := &session.User{}
		if err := json.Unmarshal([]byte(raw), user); err != nil {
			r.logger.Warn("stored user failed to decode, dropping it", "error", err)
		} else {
			creds.User = user
		}
	}

	return creds
}

func (r *Redis) SaveToken(ctx context.Context, token string) {
	if token == "" {
		r.del(ctx, r.tokenKey())
		return
	}
	r.put(ctx, r.tokenKey(), token)
}

func (r *Redis) SaveUser(ctx context.Context, user *session.User) {
	if user == nil {
		r.del(ctx, r.userKey())
		return
	}

	raw, err := json.Marshal(user)
	if err != nil {
		r.logger.Warn("failed to serialize user for storage", "error", err)
		return
	}
	r.put(ctx, r.userKey(), string(raw))
}

func (r *Redis) Clear(ctx context.Context) {
	r.del(ctx, r.tokenKey(), r.userKey())
}

func (r *Redis) tokenKey() string { return r.prefix + ":token" }
func (r *Redis) userKey() string  { return r.prefix + ":user" }

func (r *Redis) get(ctx context.Context, key string) (string, bool) {
	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			r.logger.Warn("failed to read credential", "key", key, "error", err)
		}
		return "", false
	}

	if r.sealer != nil {
		plaintext, err := r.sealer.Open(value)
		if err != nil {
			r.logger.Warn("stored credential failed to unseal, dropping it", "key", key, "error", err)
			return "", false
		}
		value = string(plaintext)
	}

	return value, true
}

func (r *Redis) put(ctx context.Context, key, value string) {
	if r.sealer != nil {
		sealed, err := r.sealer.Seal([]byte(value))
		if err != nil {
			r.logger.Warn("failed to seal credential", "key", key, "error", err)
			return
		}
		value = sealed
	}

	if err := r.client.Set(ctx, key, value, r.ttl).Err(); err != nil {
		r.logger.Warn("failed to persist credential", "key", key, "error", err)
	}
}

func (r *Redis) del(ctx context.Context, keys ...string) {
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		r.logger.Warn("failed to delete credentials", "error", err)
	}
}
