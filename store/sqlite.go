package store

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/shopglow/go-session"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const (
	keyToken = "token"
	keyUser  = "user"
)

// CredentialModel is the Bun model for persisted credential entries. One row
// per key, identified by a UUID derived from namespace and key so the same
// profile always lands on the same row.
type CredentialModel struct {
	bun.BaseModel `bun:"table:credentials"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	Key       string    `bun:"key,notnull"`
	Value     string    `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,default:current_timestamp"`
}

// SQLiteConfig configures the on-disk credential store.
type SQLiteConfig struct {
	// Path is the database file; ":memory:" is valid for tests.
	Path string
	// Namespace isolates profiles sharing one database file.
	Namespace string
	// Secret, when set, seals values at rest. Leave empty for plaintext.
	Secret []byte
	Logger session.Logger
}

// SQLite persists credentials in a local SQLite database. Load, save and
// clear are best-effort: failures are logged and the session continues with
// in-memory state only.
type SQLite struct {
	db        *bun.DB
	namespace string
	sealer    *Sealer
	logger    session.Logger
}

var _ session.CredentialStore = &SQLite{}

// NewSQLite opens (and if needed creates) the backing database.
func NewSQLite(ctx context.Context, cfg SQLiteConfig) (*SQLite, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite store requires a path")
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "default"
	}
	if cfg.Logger == nil {
		cfg.Logger = session.NopLogger{}
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	if _, err := db.NewCreateTable().
		Model((*CredentialModel)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create credentials table: %w", err)
	}

	s := &SQLite{
		db:        db,
		namespace: cfg.Namespace,
		logger:    cfg.Logger,
	}

	if len(cfg.Secret) > 0 {
		sealer, err := NewSealer(cfg.Secret)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		s.sealer = sealer
	}

	return s, nil
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Load(ctx context.Context) session.Credentials {
	creds := session.Credentials{}

	if token, ok := s.get(ctx, keyToken); ok {
		creds.Token = token
	}

	if raw, ok := s.get(ctx, keyUser); ok {
		user := &session.User{}
		if err := json.Unmarshal([]byte(raw), user); err != nil {
			s.logger.Warn("stored user failed to decode, dropping it", "error", err)
		} else {
			creds.User = user
		}
	}

	return creds
}

func (s *SQLite) SaveToken(ctx context.Context, token string) {
	if token == "" {
		s.del(ctx, keyToken)
		return
	}
	s.put(ctx, keyToken, token)
}

func (s *SQLite) SaveUser(ctx context.Context, user *session.User) {
	if user == nil {
		s.del(ctx, keyUser)
		return
	}

	raw, err := json.Marshal(user)
	if err != nil {
		s.logger.Warn("failed to serialize user for storage", "error", err)
		return
	}
	s.put(ctx, keyUser, string(raw))
}

func (s *SQLite) Clear(ctx context.Context) {
	s.del(ctx, keyToken)
	s.del(ctx, keyUser)
}

// rowID derives the stable primary key for a namespace/key pair.
func (s *SQLite) rowID(key string) (uuid.UUID, error) {
	return hashid.NewUUID(s.namespace + "/" + key)
}

func (s *SQLite) get(ctx context.Context, key string) (string, bool) {
	id, err := s.rowID(key)
	if err != nil {
		s.logger.Warn("failed to derive storage key", "key", key, "error", err)
		return "", false
	}

	var model CredentialModel
	err = s.db.NewSelect().
		Model(&model).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if !stderrors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("failed to read credential", "key", key, "error", err)
		}
		return "", false
	}

	value := model.Value
	if s.sealer != nil {
		plaintext, err := s.sealer.Open(value)
		if err != nil {
			s.logger.Warn("stored credential failed to unseal, dropping it", "key", key, "error", err)
			return "", false
		}
		value = string(plaintext)
	}

	return value, true
}

func (s *SQLite) put(ctx context.Context, key, value string) {
	id, err := s.rowID(key)
	if err != nil {
		s.logger.Warn("failed to derive storage key", "key", key, "error", err)
		return
	}

	if s.sealer != nil {
		sealed, err := s.sealer.Seal([]byte(value))
		if err != nil {
			s.logger.Warn("failed to seal credential", "key", key, "error", err)
			return
		}
		value = sealed
	}

	model := &CredentialModel{
		ID:        id,
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}

	_, err = s.db.NewInsert().
		Model(model).
		On("CONFLICT (id) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		s.logger.Warn("failed to persist credential", "key", key, "error", err)
	}
}

func (s *SQLite) del(ctx context.Context, key string) {
	id, err := s.rowID(key)
	if err != nil {
		s.logger.Warn("failed to derive storage key", "key", key, "error", err)
		return
	}

	_, err = s.db.NewDelete().
		Model((*CredentialModel)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		s.logger.Warn("failed to delete credential", "key", key, "error", err)
	}
}
