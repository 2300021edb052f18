// sessionctl drives an authenticated dashboard session from the terminal:
// it signs in against a backend, persists the credentials locally, and lets
// you inspect or end the session the same way the dashboard would.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/goliatone/go-print"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/shopglow/go-session"
	"github.com/shopglow/go-session/client"
	"github.com/shopglow/go-session/store"
	"github.com/shopglow/go-session/zaplog"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "sessionctl:", err)
		os.Exit(1)
	}
}

type app struct {
	manager *session.Manager
	client  *client.Client
	logger  session.Logger
	close   func()
}

func run(args []string) error {
	if len(args) == 0 {
		usage()
		return fmt.Errorf("a command is required")
	}

	_ = godotenv.Load()

	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	command, rest := args[0], args[1:]
	switch command {
	case "register":
		return a.register(ctx, rest)
	case "login":
		return a.login(ctx, rest)
	case "validate":
		return a.validate(ctx)
	case "me":
		return a.me(ctx)
	case "status":
		return a.status()
	case "logout":
		return a.logout(ctx)
	case "forgot":
		return a.forgot(ctx, rest)
	case "reset":
		return a.reset(ctx, rest)
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: sessionctl <command> [flags]

commands:
  register  -name NAME -email EMAIL -password PASSWORD
  login     -email EMAIL -password PASSWORD
  validate  confirm (and refresh) the stored token
  me        fetch the profile for the stored token
  status    print the local session without any network call
  logout    end the session server-side and clear local credentials
  forgot    -email EMAIL
  reset     -token TOKEN -password PASSWORD

environment (also read from .env):
  SESSION_API_URL     backend origin (required)
  SESSION_DB_PATH     sqlite credential file (default sessionctl.db)
  SESSION_REDIS_ADDR  use redis instead of sqlite when set
  SESSION_SECRET      seal credentials at rest when set
  SESSION_DEBUG       verbose logging and payload dumps`)
}

func setup() (*app, error) {
	baseURL := getEnv("SESSION_API_URL", "")
	if baseURL == "" {
		return nil, fmt.Errorf("SESSION_API_URL is required")
	}
	debug := getEnvAsBool("SESSION_DEBUG", false)

	zapLogger, err := buildZap(debug)
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}
	logger := zaplog.New(zapLogger)

	credStore, closeStore, err := buildStore(logger)
	if err != nil {
		return nil, err
	}

	bridge := session.NewUnauthorizedBridge()

	apiClient, err := client.New(client.Config{
		BaseURL:      baseURL,
		Store:        credStore,
		Unauthorized: bridge.Publish,
		Logger:       logger,
		Debug:        debug,
	})
	if err != nil {
		closeStore()
		return nil, err
	}

	manager := session.NewManager(apiClient, credStore,
		session.WithManagerLogger(logger),
		session.WithManagerBridge(bridge),
	)

	return &app{
		manager: manager,
		client:  apiClient,
		logger:  logger,
		close: func() {
			manager.Close()
			closeStore()
			_ = zapLogger.Sync()
		},
	}, nil
}

func buildZap(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func buildStore(logger session.Logger) (session.CredentialStore, func(), error) {
	secret := []byte(getEnv("SESSION_SECRET", ""))
	if len(secret) == 0 {
		secret = nil
	}

	if addr := getEnv("SESSION_REDIS_ADDR", ""); addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: getEnv("SESSION_REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("SESSION_REDIS_DB", 0),
		})
		redisStore, err := store.NewRedis(store.RedisConfig{
			Client: rdb,
			Prefix: getEnv("SESSION_REDIS_PREFIX", "sessionctl"),
			Secret: secret,
			Logger: logger,
		})
		if err != nil {
			_ = rdb.Close()
			return nil, nil, err
		}
		return redisStore, func() { _ = rdb.Close() }, nil
	}

	sqliteStore, err := store.NewSQLite(context.Background(), store.SQLiteConfig{
		Path:      getEnv("SESSION_DB_PATH", "sessionctl.db"),
		Namespace: getEnv("SESSION_API_URL", "default"),
		Secret:    secret,
		Logger:    logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return sqliteStore, func() { _ = sqliteStore.Close() }, nil
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	_ = fs.Parse(args)

	res, err := a.manager.Register(ctx, session.RegisterPayload{
		Name:            *name,
		Email:           *email,
		Password:        *password,
		ConfirmPassword: *password,
	})
	if err != nil {
		return describeAuthError(err)
	}

	fmt.Println(print.MaybePrettyJSON(res))
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	_ = fs.Parse(args)

	res, err := a.manager.Login(ctx, session.LoginPayload{
		Email:    *email,
		Password: *password,
	})
	if err != nil {
		return describeAuthError(err)
	}

	fmt.Println(print.MaybePrettyJSON(res.User))
	return nil
}

func (a *app) validate(ctx context.Context) error {
	res, err := a.manager.Validate(ctx)
	if err != nil {
		return describeAuthError(err)
	}

	fmt.Printf("token valid, refreshed for %ds\n", res.ExpiresIn)
	return nil
}

func (a *app) me(ctx context.Context) error {
	user, err := a.manager.Me(ctx)
	if err != nil {
		return describeAuthError(err)
	}

	fmt.Println(print.MaybePrettyJSON(user))
	return nil
}

func (a *app) status() error {
	snap := a.manager.Snapshot()
	if !snap.IsAuthenticated {
		fmt.Println("not signed in")
		return nil
	}

	fmt.Printf("signed in as %s <%s> (%s)\n", snap.User.Name, snap.User.Email, snap.User.Role)
	if session.TokenLooksExpired(snap.Token, time.Now()) {
		fmt.Println("stored token looks expired; run `sessionctl validate`")
	}
	return nil
}

func (a *app) logout(ctx context.Context) error {
	if err := a.manager.Logout(ctx); err != nil {
		// Local credentials are gone either way.
		fmt.Println("signed out locally; server could not be told:", err)
		return nil
	}

	fmt.Println("signed out")
	return nil
}

func (a *app) forgot(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("forgot", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	_ = fs.Parse(args)

	if err := a.manager.ForgotPassword(ctx, session.ForgotPasswordPayload{Email: *email}); err != nil {
		return describeAuthError(err)
	}

	fmt.Println("reset email requested")
	return nil
}

func (a *app) reset(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	token := fs.String("token", "", "reset token")
	password := fs.String("password", "", "new password")
	_ = fs.Parse(args)

	if err := a.manager.ResetPassword(ctx, session.ResetPasswordPayload{
		Token:           *token,
		Password:        *password,
		ConfirmPassword: *password,
	}); err != nil {
		return describeAuthError(err)
	}

	fmt.Println("password reset")
	return nil
}

func describeAuthError(err error) error {
	code := session.ErrorCode(err)
	if fields := session.FieldErrors(err); len(fields) > 0 {
		return fmt.Errorf("%s: %w\n%s", code, err, print.MaybePrettyJSON(fields))
	}
	return fmt.Errorf("%s: %w", code, err)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
