// Package mockapi is an in-process fake of the dashboard backend. It speaks
// the same envelope, token and error conventions as the real service so the
// client and session packages can be exercised end to end without a network.
package mockapi

import (
	stderrors "errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopglow/go-session"
	"github.com/shopglow/go-session/client"
)

// Config tunes the fake backend.
type Config struct {
	// Secret signs issued tokens. Randomized when empty.
	Secret []byte
	// TokenTTL is the issued token lifetime. Defaults to one hour.
	TokenTTL time.Duration
	// ResetTTL is the reset-token lifetime. Defaults to fifteen minutes.
	ResetTTL time.Duration
	Logger   session.Logger
}

type account struct {
	user     *session.User
	password string
}

type resetToken struct {
	email     string
	expiresAt time.Time
	used      bool
}

// Server is the fake backend instance. Safe for concurrent requests.
type Server struct {
	app      *fiber.App
	secret   []byte
	tokenTTL time.Duration
	resetTTL time.Duration
	logger   session.Logger

	mu       sync.Mutex
	accounts map[string]*account
	resets   map[string]*resetToken
	data     seedData

	baseURL string
	ln      net.Listener
}

// New builds a server with the canned dashboard dataset and no accounts.
func New(cfg Config) *Server {
	if len(cfg.Secret) == 0 {
		cfg.Secret = []byte(uuid.NewString())
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = time.Hour
	}
	if cfg.ResetTTL == 0 {
		cfg.ResetTTL = 15 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = session.NopLogger{}
	}

	s := &Server{
		secret:   cfg.Secret,
		tokenTTL: cfg.TokenTTL,
		resetTTL: cfg.ResetTTL,
		logger:   cfg.Logger,
		accounts: map[string]*account{},
		resets:   map[string]*resetToken{},
		data:     defaultSeedData(),
	}

	s.app = s.buildApp()
	return s
}

// Start listens on an ephemeral loopback port and serves in the background.
func (s *Server) Start() (string, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("failed to listen: %w", err)
	}

	s.ln = ln
	s.baseURL = "http://" + ln.Addr().String()

	go func() {
		if err := s.app.Listener(ln); err != nil {
			s.logger.Warn("mock backend stopped", "error", err)
		}
	}()

	return s.baseURL, nil
}

// URL returns the base URL after Start.
func (s *Server) URL() string {
	return s.baseURL
}

// Shutdown stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// SeedUser registers an account directly, bypassing the register endpoint.
func (s *Server) SeedUser(name, email, password string, role session.UserRole) *session.User {
	now := time.Now().UTC()
	user := &session.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     strings.ToLower(email),
		Role:      role,
		CreatedAt: &now,
	}

	s.mu.Lock()
	s.accounts[user.Email] = &account{user: user, password: password}
	s.mu.Unlock()

	return user
}

// LastResetToken exposes the most recent reset token issued for email, so a
// caller can walk the forgot/reset flow without reading any mail.
func (s *Server) LastResetToken(email string) string {
	email = strings.ToLower(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	var latest string
	var latestExpiry time.Time
	for token, rt := range s.resets {
		if rt.email == email && rt.expiresAt.After(latestExpiry) {
			latest = token
			latestExpiry = rt.expiresAt
		}
	}
	return latest
}

func (s *Server) buildApp() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	auth := app.Group("/api/auth")
	auth.Post("/register", s.handleRegister)
	auth.Post("/login", s.handleLogin)
	auth.Get("/validate", s.handleValidate)
	auth.Post("/logout", s.handleLogout)
	auth.Post("/forgot-password", s.handleForgotPassword)
	auth.Post("/reset-password", s.handleResetPassword)
	auth.Get("/me", s.handleMe)

	api := app.Group("/api", s.requireAuth)
	api.Get("/stores", s.handleStores)
	api.Get("/stores/:id", s.handleStore)
	api.Get("/products", s.handleProducts)
	api.Get("/products/:id", s.handleProduct)
	api.Get("/customers", s.handleCustomers)
	api.Get("/credits", s.handleCredits)
	api.Get("/credits/:storeID/balance", s.handleCreditBalance)
	api.Get("/generations", s.handleGenerations)
	api.Get("/orders", s.handleOrders)
	api.Post("/track/cart", s.handleTrackCart)

	return app
}

func fail(c *fiber.Ctx, status int, code, message string, fields map[string]string) error {
	body := fiber.Map{
		"success": false,
		"message": message,
		"error":   code,
	}
	if len(fields) > 0 {
		body["errors"] = fields
	}
	return c.Status(status).JSON(body)
}

func (s *Server) issueToken(email string) (string, int64, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": email,
		"iat": now.Unix(),
		"exp": now.Add(s.tokenTTL).Unix(),
		"jti": uuid.NewString(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", 0, err
	}
	return token, int64(s.tokenTTL.Seconds()), nil
}

// authenticate resolves the bearer token to an account. The error code tells
// the caller which envelope to send.
func (s *Server) authenticate(c *fiber.Ctx) (*account, string, string) {
	header := c.Get("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return nil, session.TextCodeMissingToken, "no authentication token provided"
	}

	raw := strings.TrimPrefix(header, "Bearer ")
	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return nil, session.TextCodeTokenExpired, "token has expired"
		}
		return nil, session.TextCodeInvalidToken, "token is invalid"
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, session.TextCodeInvalidToken, "token is invalid"
	}

	email, _ := claims["sub"].(string)

	s.mu.Lock()
	acct := s.accounts[email]
	s.mu.Unlock()

	if acct == nil {
		return nil, session.TextCodeInvalidToken, "token does not match a known account"
	}
	return acct, "", ""
}

func (s *Server) requireAuth(c *fiber.Ctx) error {
	_, code, message := s.authenticate(c)
	if code != "" {
		return fail(c, fiber.StatusUnauthorized, code, message, nil)
	}
	return c.Next()
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(c *fiber.Ctx) error {
	req := registerRequest{}
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, session.TextCodeValidation, "invalid payload", nil)
	}

	fields := map[string]string{}
	if req.Name == "" {
		fields["name"] = "name is required"
	}
	if req.Email == "" {
		fields["email"] = "email is required"
	}
	if len(req.Password) < 8 {
		fields["password"] = "password must be at least 8 characters"
	}
	if len(fields) > 0 {
		return fail(c, fiber.StatusBadRequest, session.TextCodeValidation, "payload failed validation", fields)
	}

	email := strings.ToLower(req.Email)

	s.mu.Lock()
	if _, exists := s.accounts[email]; exists {
		s.mu.Unlock()
		return fail(c, fiber.StatusConflict, session.TextCodeEmailExists, "email already exists", nil)
	}

	now := time.Now().UTC()
	user := &session.User{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Email:     email,
		Role:      session.RoleStoreAdmin,
		CreatedAt: &now,
	}
	s.accounts[email] = &account{user: user, password: req.Password}
	s.mu.Unlock()

	return s.respondWithSession(c, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	req := loginRequest{}
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, session.TextCodeValidation, "invalid payload", nil)
	}

	email := strings.ToLower(req.Email)

	s.mu.Lock()
	acct := s.accounts[email]
	if acct == nil || acct.password != req.Password {
		s.mu.Unlock()
		return fail(c, fiber.StatusUnauthorized, session.TextCodeInvalidCreds, "the credentials provided are invalid", nil)
	}

	now := time.Now().UTC()
	acct.user.LastLoginAt = &now
	user := acct.user
	s.mu.Unlock()

	return s.respondWithSession(c, user)
}

// handleValidate confirms the token and rotates it: every successful
// validation extends the session.
func (s *Server) handleValidate(c *fiber.Ctx) error {
	acct, code, message := s.authenticate(c)
	if code != "" {
		return fail(c, fiber.StatusUnauthorized, code, message, nil)
	}
	return s.respondWithSession(c, acct.user)
}

func (s *Server) handleLogout(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// handleForgotPassword always answers success so the endpoint does not leak
// which emails exist. A reset token is only minted for known accounts.
func (s *Server) handleForgotPassword(c *fiber.Ctx) error {
	req := forgotPasswordRequest{}
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, session.TextCodeValidation, "invalid payload", nil)
	}

	email := strings.ToLower(req.Email)

	s.mu.Lock()
	if _, exists := s.accounts[email]; exists {
		s.resets[uuid.NewString()] = &resetToken{
			email:     email,
			expiresAt: time.Now().Add(s.resetTTL),
		}
	}
	s.mu.Unlock()

	return c.JSON(fiber.Map{"success": true})
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (s *Server) handleResetPassword(c *fiber.Ctx) error {
	req := resetPasswordRequest{}
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, session.TextCodeValidation, "invalid payload", nil)
	}
	if len(req.Password) < 8 {
		return fail(c, fiber.StatusBadRequest, session.TextCodeValidation, "payload failed validation",
			map[string]string{"password": "password must be at least 8 characters"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rt := s.resets[req.Token]
	switch {
	case rt == nil:
		return fail(c, fiber.StatusBadRequest, session.TextCodeInvalidToken, "reset token is invalid", nil)
	case rt.used:
		return fail(c, fiber.StatusBadRequest, session.TextCodeTokenUsed, "reset token has already been used", nil)
	case time.Now().After(rt.expiresAt):
		return fail(c, fiber.StatusBadRequest, session.TextCodeTokenExpired, "reset token has expired", nil)
	}

	rt.used = true
	if acct := s.accounts[rt.email]; acct != nil {
		acct.password = req.Password
	}

	return c.JSON(fiber.Map{"success": true})
}

func (s *Server) handleMe(c *fiber.Ctx) error {
	acct, code, message := s.authenticate(c)
	if code != "" {
		return fail(c, fiber.StatusUnauthorized, code, message, nil)
	}
	return c.JSON(fiber.Map{"success": true, "user": acct.user})
}

func (s *Server) respondWithSession(c *fiber.Ctx, user *session.User) error {
	token, expiresIn, err := s.issueToken(user.Email)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, session.TextCodeServerError, "failed to issue token", nil)
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"user":      user,
		"token":     token,
		"expiresIn": expiresIn,
	})
}

func parseListQuery(c *fiber.Ctx) listQuery {
	return listQuery{
		page:    c.QueryInt("page"),
		perPage: c.QueryInt("perPage"),
		search:  c.Query("search"),
		storeID: c.Query("storeId"),
	}
}

func (s *Server) handleStores(c *fiber.Ctx) error {
	return c.JSON(paginate(s.data.stores, parseListQuery(c),
		func(st client.Store) string { return st.ID },
		func(st client.Store, needle string) bool {
			return strings.Contains(strings.ToLower(st.Name), needle) ||
				strings.Contains(strings.ToLower(st.Domain), needle)
		}))
}

func (s *Server) handleStore(c *fiber.Ctx) error {
	id := c.Params("id")
	for _, st := range s.data.stores {
		if st.ID == id {
			return c.JSON(st)
		}
	}
	return fail(c, fiber.StatusNotFound, session.TextCodeUnknownError, "store not found", nil)
}

func (s *Server) handleProducts(c *fiber.Ctx) error {
	return c.JSON(paginate(s.data.products, parseListQuery(c),
		func(p client.Product) string { return p.StoreID },
		func(p client.Product, needle string) bool {
			return strings.Contains(strings.ToLower(p.Title), needle)
		}))
}

func (s *Server) handleProduct(c *fiber.Ctx) error {
	id := c.Params("id")
	for _, p := range s.data.products {
		if p.ID == id {
			return c.JSON(p)
		}
	}
	return fail(c, fiber.StatusNotFound, session.TextCodeUnknownError, "product not found", nil)
}

func (s *Server) handleCustomers(c *fiber.Ctx) error {
	return c.JSON(paginate(s.data.customers, parseListQuery(c),
		func(cu client.Customer) string { return cu.StoreID },
		func(cu client.Customer, needle string) bool {
			return strings.Contains(strings.ToLower(cu.Name), needle) ||
				strings.Contains(strings.ToLower(cu.Email), needle)
		}))
}

func (s *Server) handleCredits(c *fiber.Ctx) error {
	return c.JSON(paginate(s.data.transactions, parseListQuery(c),
		func(tx client.CreditTransaction) string { return tx.StoreID },
		func(tx client.CreditTransaction, needle string) bool {
			return strings.Contains(strings.ToLower(tx.Reason), needle)
		}))
}

func (s *Server) handleCreditBalance(c *fiber.Ctx) error {
	storeID := c.Params("storeID")
	if balance, ok := s.data.balances[storeID]; ok {
		return c.JSON(balance)
	}
	return fail(c, fiber.StatusNotFound, session.TextCodeUnknownError, "store not found", nil)
}

func (s *Server) handleGenerations(c *fiber.Ctx) error {
	return c.JSON(paginate(s.data.generations, parseListQuery(c),
		func(g client.Generation) string { return g.StoreID },
		func(g client.Generation, needle string) bool {
			return strings.Contains(strings.ToLower(g.Prompt), needle) ||
				strings.Contains(strings.ToLower(g.Status), needle)
		}))
}

func (s *Server) handleOrders(c *fiber.Ctx) error {
	return c.JSON(paginate(s.data.orders, parseListQuery(c),
		func(o client.Order) string { return o.StoreID },
		func(o client.Order, needle string) bool {
			return strings.Contains(strings.ToLower(o.Status), needle)
		}))
}

func (s *Server) handleTrackCart(c *fiber.Ctx) error {
	event := client.CartEvent{}
	if err := c.BodyParser(&event); err != nil {
		return fail(c, fiber.StatusBadRequest, session.TextCodeValidation, "invalid payload", nil)
	}
	if event.StoreID == "" || event.EventType == "" {
		return fail(c, fiber.StatusBadRequest, session.TextCodeValidation, "payload failed validation",
			map[string]string{"storeId": "storeId and eventType are required"})
	}

	s.logger.Debug("cart event tracked", "store", event.StoreID, "event", event.EventType)
	return c.JSON(fiber.Map{"success": true})
}
