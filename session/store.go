// Package session holds the authenticated identity and its bearer token,
// persisted in a dynsched.KeyValueStore so it survives restarts.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/benjamonnguyen/dynsched"
)

const (
	msgMissingCredentials = "Please enter both username and password"
	msgMissingFields      = "Please fill in username, email and password"
	msgSaveFailed         = "Failed to save session. Please try again."
	MsgExpired            = "Your session has expired. Please log in again."
)

// sessionKeys are removed together by Logout and Invalidate.
var sessionKeys = []string{
	dynsched.StorageKeyUser,
	dynsched.StorageKeyToken,
	dynsched.StorageKeyProfileImage,
	dynsched.StorageKeyLegacyLoggedIn,
	dynsched.StorageKeyLegacyUsername,
}

// Authenticator performs the network side of login and registration.
type Authenticator interface {
	Login(ctx context.Context, creds dynsched.Credentials) (dynsched.LoginResult, error)
	Register(ctx context.Context, req dynsched.RegisterRequest) (dynsched.User, error)
}

// Store is safe for concurrent use. Network calls run outside the locks and
// the last successful commit wins.
type Store struct {
	kv   dynsched.KeyValueStore
	auth Authenticator
	l    dynsched.Logger
	now  func() time.Time

	// writeMu orders storage writes with the in-memory state they back
	writeMu sync.Mutex

	mu          sync.RWMutex
	user        *dynsched.User
	token       string
	tokenExp    time.Time
	lastErr     string
	initialized bool
	inFlight    int
}

func NewStore(kv dynsched.KeyValueStore, auth Authenticator, logger dynsched.Logger) *Store {
	return &Store{
		kv:   kv,
		auth: auth,
		l:    logger,
		now:  time.Now,
	}
}

// Initialize restores the persisted session. Anything inconsistent is
// discarded and the store starts logged out. Only a storage read failure is
// returned.
func (s *Store) Initialize(ctx context.Context) error {
	defer func() {
		s.mu.Lock()
		s.initialized = true
		s.mu.Unlock()
	}()

	if err := s.kv.Remove(ctx, dynsched.StorageKeyLegacyLoggedIn, dynsched.StorageKeyLegacyUsername); err != nil {
		s.l.Warn("failed removing legacy session keys", "error", err)
	}

	rawUser, hasUser, err := s.kv.Get(ctx, dynsched.StorageKeyUser)
	if err != nil {
		return fmt.Errorf("read stored user: %w", err)
	}
	token, hasToken, err := s.kv.Get(ctx, dynsched.StorageKeyToken)
	if err != nil {
		return fmt.Errorf("read stored token: %w", err)
	}
	if !hasUser && !hasToken {
		s.l.Debug("no stored session")
		return nil
	}

	user, info, reason := restore(rawUser, hasUser, token, hasToken, s.now())
	if reason != "" {
		s.l.Info("discarding stored session", "reason", reason)
		if err := s.kv.Remove(ctx, dynsched.StorageKeyUser, dynsched.StorageKeyToken); err != nil {
			s.l.Warn("failed clearing stored session", "error", err)
		}
		return nil
	}

	s.mu.Lock()
	s.user = &user
	s.token = token
	s.tokenExp = info.expiresAt
	s.mu.Unlock()
	s.l.Info("restored session", "user", user.Username)
	return nil
}

// restore validates the persisted pair and reports why it is unusable, if it is.
func restore(rawUser string, hasUser bool, token string, hasToken bool, now time.Time) (dynsched.User, tokenInfo, string) {
	var user dynsched.User
	switch {
	case !hasUser:
		return user, tokenInfo{}, "token without user"
	case !hasToken || token == "":
		return user, tokenInfo{}, "user without token"
	}
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		return user, tokenInfo{}, "corrupt user: " + err.Error()
	}
	if user.ID == "" && user.Username == "" {
		return user, tokenInfo{}, "empty user"
	}

	info := inspectToken(token)
	if info.expired(now) {
		return user, info, "token expired"
	}
	if info.subject != "" && user.ID != "" && info.subject != user.ID {
		return user, info, "token belongs to another user"
	}
	return user, info, ""
}

// Login authenticates and persists the result. On failure the previous
// session is kept and LastError explains why.
func (s *Store) Login(ctx context.Context, creds dynsched.Credentials) bool {
	creds.Identifier = strings.TrimSpace(creds.Identifier)
	if creds.Identifier == "" || creds.Password == "" {
		s.setError(msgMissingCredentials)
		return false
	}

	s.begin()
	defer s.end()

	res, err := s.auth.Login(ctx, creds)
	if err != nil {
		s.l.Warn("login failed", "identifier", creds.Identifier, "error", err)
		s.setError(dynsched.Message(err))
		return false
	}
	if err := s.commit(ctx, res); err != nil {
		s.l.Error("failed persisting session", "error", err)
		s.setError(msgSaveFailed)
		return false
	}
	s.l.Info("logged in", "user", res.User.Username)
	return true
}

// Register creates the account and then logs in with the same credentials.
func (s *Store) Register(ctx context.Context, req dynsched.RegisterRequest) bool {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		s.setError(msgMissingFields)
		return false
	}

	s.begin()
	defer s.end()

	u, err := s.auth.Register(ctx, req)
	if err != nil {
		s.l.Warn("registration failed", "username", req.Username, "error", err)
		s.setError(dynsched.Message(err))
		return false
	}
	s.l.Info("registered", "user", u.Username)

	return s.Login(ctx, dynsched.Credentials{Identifier: req.Username, Password: req.Password})
}

func (s *Store) commit(ctx context.Context, res dynsched.LoginResult) error {
	b, err := json.Marshal(res.User)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	user := res.User
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.kv.SetMany(ctx, map[string]string{
		dynsched.StorageKeyUser:  string(b),
		dynsched.StorageKeyToken: res.Token,
	}); err != nil {
		return err
	}

	s.mu.Lock()
	s.user = &user
	s.token = res.Token
	s.tokenExp = inspectToken(res.Token).expiresAt
	s.lastErr = ""
	s.mu.Unlock()
	return nil
}

// Logout clears the session from memory and storage. Memory is cleared even
// when storage fails.
func (s *Store) Logout(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.clear("")
	if err := s.kv.Remove(ctx, sessionKeys...); err != nil {
		s.l.Error("failed clearing stored session", "error", err)
		return fmt.Errorf("clear session: %w", err)
	}
	s.l.Info("logged out")
	return nil
}

// Invalidate drops the session if it still holds the rejected token. A
// rejection of a token that has since been replaced is ignored.
func (s *Store) Invalidate(ctx context.Context, rejected string) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if current := s.Token(); rejected == "" || current != rejected {
		s.l.Debug("ignoring rejection of a replaced token")
		return
	}
	s.clear(MsgExpired)
	if err := s.kv.Remove(ctx, sessionKeys...); err != nil {
		s.l.Error("failed clearing stored session", "error", err)
	}
	s.l.Info("session invalidated")
}

func (s *Store) clear(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.token = ""
	s.tokenExp = time.Time{}
	s.lastErr = msg
}

// IsAuthenticated requires both an identity and an unexpired token.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil || s.token == "" {
		return false
	}
	return s.tokenExp.IsZero() || s.now().Before(s.tokenExp)
}

func (s *Store) Session() dynsched.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess := dynsched.Session{Token: s.token}
	if s.user != nil {
		u := *s.user
		sess.User = &u
	}
	return sess
}

func (s *Store) CurrentUser() (dynsched.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return dynsched.User{}, false
	}
	return *s.user, true
}

// Token is empty when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Store) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Loading is true until Initialize returns and while a login or
// registration is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.initialized || s.inFlight > 0
}

func (s *Store) setError(msg string) {
	s.mu.Lock()
	s.lastErr = msg
	s.mu.Unlock()
}

func (s *Store) begin() {
	s.mu.Lock()
	s.inFlight++
	s.lastErr = ""
	s.mu.Unlock()
}

func (s *Store) end() {
	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()
}
