package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/ssh"

	"pkt.systems/pslog"
	"pkt.systems/replx/internal/appconfig"
)

// User is one stored shell account.
type User struct {
	Username     string   `json:"username"`
	PasswordHash string   `json:"password_hash"`
	TOTPSecret   string   `json:"totp_secret"`
	PublicKeys   []string `json:"public_keys,omitempty"`
}

// Store manages shell accounts in a JSON file. The file is reloaded
// when its on-disk identity changes, so CLI edits take effect on a
// running server without a restart.
type Store struct {
	path      string
	mu        sync.RWMutex
	users     map[string]User
	fileState fileState
	log       pslog.Logger
}

// NewStore loads the user file, creating it from seeds when absent.
func NewStore(path string, seeds []appconfig.SeedUser) (*Store, error) {
	return NewStoreWithLogger(path, seeds, nil)
}

// NewStoreWithLogger loads the user file with logging.
func NewStoreWithLogger(path string, seeds []appconfig.SeedUser, logger pslog.Logger) (*Store, error) {
	if path == "" {
		return nil, errors.New("user file path is required")
	}
	if logger != nil {
		logger = logger.With("user_file", path)
	}
	store := &Store{
		path:  path,
		users: make(map[string]User),
		log:   logger,
	}
	if err := store.ensureFile(seeds); err != nil {
		return nil, err
	}
	if err := store.loadFromDisk(); err != nil {
		return nil, err
	}
	return store, nil
}

// ValidateUsername enforces the account naming rules: non-empty,
// no surrounding space, lowercase letters, digits, '.', '_', '-'.
func ValidateUsername(username string) (string, error) {
	if username == "" || strings.TrimSpace(username) != username {
		return "", errors.New("invalid username")
	}
	for _, r := range username {
		if r >= 'a' && r <= 'z' {
			continue
		}
		if r >= '0' && r <= '9' {
			continue
		}
		if r == '.' || r == '_' || r == '-' {
			continue
		}
		return "", errors.New("invalid username")
	}
	return username, nil
}

func (s *Store) lookup(username string) (User, error) {
	if err := s.refreshIfNeeded(); err != nil {
		return User{}, err
	}
	normalized, err := ValidateUsername(username)
	if err != nil {
		return User{}, err
	}
	s.mu.RLock()
	user, ok := s.users[normalized]
	s.mu.RUnlock()
	if !ok {
		return User{}, errors.New("invalid credentials")
	}
	return user, nil
}

// VerifyPassword checks the stored bcrypt hash.
func (s *Store) VerifyPassword(username, password string) error {
	user, err := s.lookup(username)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return errors.New("invalid credentials")
	}
	return nil
}

// ValidateTOTP checks a one-time code against the stored secret.
func (s *Store) ValidateTOTP(username, code string) error {
	user, err := s.lookup(username)
	if err != nil {
		return err
	}
	if !totp.Validate(code, user.TOTPSecret) {
		return errors.New("invalid totp")
	}
	return nil
}

// Authenticate verifies password and one-time code together.
func (s *Store) Authenticate(username, password, totpCode string) error {
	if err := s.VerifyPassword(username, password); err != nil {
		return err
	}
	return s.ValidateTOTP(username, totpCode)
}

// ChangePassword verifies the current credentials and stores a new
// bcrypt hash.
func (s *Store) ChangePassword(username, currentPassword, totpCode, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return errors.New("new password is required")
	}
	if err := s.Authenticate(username, currentPassword, totpCode); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.SetPassword(username, string(hash))
}

// HasPublicKey reports whether the key is authorized for the user.
func (s *Store) HasPublicKey(username string, key ssh.PublicKey) (bool, error) {
	user, err := s.lookup(username)
	if err != nil {
		return false, err
	}
	for _, raw := range user.PublicKeys {
		if keyEqual(raw, key) {
			return true, nil
		}
	}
	return false, nil
}

// AddPublicKey authorizes a key for the user and returns its 1-based
// position.
func (s *Store) AddPublicKey(username, pubKey string) (int, error) {
	if err := s.refreshIfNeeded(); err != nil {
		return 0, err
	}
	normalized, err := ValidateUsername(username)
	if err != nil {
		return 0, err
	}
	line, parsed, err := normalizePublicKey(pubKey)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[normalized]
	if !ok {
		return 0, errors.New("user not found")
	}
	for idx, existing := range user.PublicKeys {
		if keyEqual(existing, parsed) {
			return idx + 1, errors.New("public key already exists")
		}
	}
	user.PublicKeys = append(user.PublicKeys, line)
	s.users[normalized] = user
	if err := s.saveLocked(); err != nil {
		s.warn("auth pubkey add failed", "user", normalized, "err", err)
		return 0, err
	}
	s.info("auth pubkey added", "user", normalized, "id", len(user.PublicKeys))
	return len(user.PublicKeys), nil
}

// ListPublicKeys returns the user's authorized keys.
func (s *Store) ListPublicKeys(username string) ([]string, error) {
	user, err := s.lookup(username)
	if err != nil {
		return nil, err
	}
	return append([]string{}, user.PublicKeys...), nil
}

// RemovePublicKey drops the key at the provided 1-based position.
func (s *Store) RemovePublicKey(username string, index int) error {
	if err := s.refreshIfNeeded(); err != nil {
		return err
	}
	normalized, err := ValidateUsername(username)
	if err != nil {
		return err
	}
	if index <= 0 {
		return errors.New("public key id must be positive")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[normalized]
	if !ok {
		return errors.New("user not found")
	}
	if index > len(user.PublicKeys) {
		return errors.New("public key id out of range")
	}
	user.PublicKeys = append(user.PublicKeys[:index-1], user.PublicKeys[index:]...)
	s.users[normalized] = user
	if err := s.saveLocked(); err != nil {
		s.warn("auth pubkey remove failed", "user", normalized, "err", err)
		return err
	}
	s.info("auth pubkey removed", "user", normalized, "id", index)
	return nil
}

// Users returns a snapshot of all accounts sorted by username.
func (s *Store) Users() []User {
	if err := s.refreshIfNeeded(); err != nil {
		s.warn("auth store refresh failed", "err", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users
}

// AddUser inserts a new account and persists the store.
func (s *Store) AddUser(user User) error {
	if err := s.refreshIfNeeded(); err != nil {
		return err
	}
	username, err := ValidateUsername(user.Username)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[username]; ok {
		return errors.New("user already exists")
	}
	user.Username = username
	s.users[username] = user
	if err := s.saveLocked(); err != nil {
		s.warn("auth user add failed", "user", username, "err", err)
		return err
	}
	s.info("auth user added", "user", username)
	return nil
}

// SetPassword replaces the stored password hash.
func (s *Store) SetPassword(username, passwordHash string) error {
	if strings.TrimSpace(passwordHash) == "" {
		return errors.New("password hash is required")
	}
	return s.update(username, "password", func(user *User) {
		user.PasswordHash = passwordHash
	})
}

// SetTOTPSecret replaces the stored TOTP secret.
func (s *Store) SetTOTPSecret(username, secret string) error {
	if strings.TrimSpace(secret) == "" {
		return errors.New("totp secret is required")
	}
	return s.update(username, "totp", func(user *User) {
		user.TOTPSecret = secret
	})
}

// DeleteUser removes an account.
func (s *Store) DeleteUser(username string) error {
	if err := s.refreshIfNeeded(); err != nil {
		return err
	}
	normalized, err := ValidateUsername(username)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[normalized]; !ok {
		return errors.New("user not found")
	}
	delete(s.users, normalized)
	if err := s.saveLocked(); err != nil {
		s.warn("auth user delete failed", "user", normalized, "err", err)
		return err
	}
	s.info("auth user deleted", "user", normalized)
	return nil
}

func (s *Store) update(username, what string, mutate func(*User)) error {
	if err := s.refreshIfNeeded(); err != nil {
		return err
	}
	normalized, err := ValidateUsername(username)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[normalized]
	if !ok {
		return errors.New("user not found")
	}
	mutate(&user)
	s.users[normalized] = user
	if err := s.saveLocked(); err != nil {
		s.warn("auth "+what+" update failed", "user", normalized, "err", err)
		return err
	}
	s.info("auth "+what+" updated", "user", normalized)
	return nil
}

func (s *Store) ensureFile(seeds []appconfig.SeedUser) error {
	if _, statErr := os.Stat(s.path); statErr == nil {
		return nil
	} else if !os.IsNotExist(statErr) {
		s.warn("auth store init failed", "err", statErr)
		return statErr
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		s.warn("auth store init failed", "err", err)
		return err
	}
	users := make([]User, 0, len(seeds))
	for _, seed := range seeds {
		if _, err := ValidateUsername(seed.Username); err != nil {
			return err
		}
		users = append(users, User{
			Username:     seed.Username,
			PasswordHash: seed.PasswordHash,
			TOTPSecret:   seed.TOTPSecret,
		})
	}
	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		s.warn("auth store init failed", "err", err)
		return err
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		s.warn("auth store init failed", "err", err)
		return err
	}
	s.info("auth store initialized", "users", len(users))
	return nil
}

func (s *Store) saveLocked() error {
	users := make([]User, 0, len(s.users))
	names := make([]string, 0, len(s.users))
	for name := range s.users {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		users = append(users, s.users[name])
	}
	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), "users-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return err
	}
	if info, err := os.Stat(s.path); err == nil {
		s.fileState = fileStateFromInfo(info)
	}
	s.debug("auth store save ok", "users", len(users))
	return nil
}

type fileState struct {
	modTime time.Time
	size    int64
	inode   uint64
	dev     uint64
}

func fileStateFromInfo(info os.FileInfo) fileState {
	state := fileState{
		modTime: info.ModTime(),
		size:    info.Size(),
	}
	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		state.inode = stat.Ino
		state.dev = stat.Dev
	}
	return state
}

func (s fileState) equal(other fileState) bool {
	return s.size == other.size &&
		s.modTime.Equal(other.modTime) &&
		s.inode == other.inode &&
		s.dev == other.dev
}

func (s *Store) refreshIfNeeded() error {
	info, err := os.Stat(s.path)
	if err != nil {
		s.warn("auth store stat failed", "err", err)
		return err
	}
	latest := fileStateFromInfo(info)
	s.mu.RLock()
	current := s.fileState
	s.mu.RUnlock()
	if current.equal(latest) {
		return nil
	}
	return s.loadFromDisk()
}

func (s *Store) loadFromDisk() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		s.warn("auth store load failed", "err", err)
		return err
	}
	var users []User
	if err := json.Unmarshal(data, &users); err != nil {
		s.warn("auth store load failed", "err", err)
		return err
	}
	info, err := os.Stat(s.path)
	if err != nil {
		s.warn("auth store load failed", "err", err)
		return err
	}
	next := make(map[string]User, len(users))
	for _, user := range users {
		if _, err := ValidateUsername(user.Username); err != nil {
			s.warn("auth store load failed", "user", user.Username, "err", err)
			return err
		}
		next[user.Username] = user
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = next
	s.fileState = fileStateFromInfo(info)
	s.debug("auth store load ok", "users", len(users))
	return nil
}

func (s *Store) warn(msg string, kv ...any) {
	if s.log != nil {
		s.log.Warn(msg, kv...)
	}
}

func (s *Store) info(msg string, kv ...any) {
	if s.log != nil {
		s.log.Info(msg, kv...)
	}
}

func (s *Store) debug(msg string, kv ...any) {
	if s.log != nil {
		s.log.Debug(msg, kv...)
	}
}

func normalizePublicKey(raw string) (string, ssh.PublicKey, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", nil, errors.New("pubkey is required")
	}
	key, _, _, _, err := ssh.ParseAuthorizedKey([]byte(trimmed))
	if err != nil {
		return "", nil, errors.New("invalid pubkey")
	}
	return trimmed, key, nil
}

func keyEqual(raw string, key ssh.PublicKey) bool {
	parsed, _, _, _, err := ssh.ParseAuthorizedKey([]byte(strings.TrimSpace(raw)))
	if err != nil {
		return false
	}
	return bytes.Equal(parsed.Marshal(), key.Marshal())
}
