package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/felixgeelhaar/hirelink/internal/errors"
	"github.com/felixgeelhaar/hirelink/internal/log"
)

// FileStore persists the session as a single JSON document, optionally
// sealed with a passphrase. Writes go through a temp file and rename so a
// reader sees either the old session or the new one.
type FileStore struct {
	mu     sync.Mutex
	path   string
	sealer *sealer
	logger *log.Logger
	now    func() time.Time
}

// Option configures a FileStore
type Option func(*FileStore)

// WithPassphrase seals the stored session under passphrase
func WithPassphrase(passphrase string) Option {
	return func(s *FileStore) {
		s.sealer = newSealer(passphrase)
	}
}

// WithLogger sets the logger used for diagnostics on unreadable sessions
func WithLogger(logger *log.Logger) Option {
	return func(s *FileStore) {
		s.logger = logger
	}
}

// WithClock overrides the clock used for token expiry checks
func WithClock(now func() time.Time) Option {
	return func(s *FileStore) {
		s.now = now
	}
}

// NewFileStore creates a store backed by the file at path. The file and its
// directory are created on first Save.
func NewFileStore(path string, opts ...Option) *FileStore {
	s := &FileStore{
		path: path,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = log.OrDiscard(s.logger).With("component", "session")
	return s
}

// Path returns the backing file path
func (s *FileStore) Path() string {
	return s.path
}

// Load implements Provider.
func (s *FileStore) Load() (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Debug("session unreadable", "path", s.path, "error", err)
		}
		return Session{}, false
	}

	if isSealed(data) {
		if s.sealer == nil {
			s.logger.Debug("session is sealed but no passphrase is configured", "path", s.path)
			return Session{}, false
		}
		data, err = s.sealer.open(data)
		if err != nil {
			s.logger.Debug("session could not be unsealed", "path", s.path, "error", err)
			return Session{}, false
		}
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		s.logger.Debug("session is malformed", "path", s.path, "error", err)
		return Session{}, false
	}

	if !sess.Valid(s.now()) {
		s.logger.Debug("stored session is incomplete or expired", "path", s.path)
		return Session{}, false
	}
	return sess, true
}

// Save implements Store.
func (s *FileStore) Save(token string, user Identity) error {
	if err := checkComplete(token, user); err != nil {
		return err
	}

	data, err := json.MarshalIndent(Session{Token: token, User: user}, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeSessionWriteFailed, "failed to encode session", err)
	}
	if s.sealer != nil {
		if data, err = s.sealer.seal(data); err != nil {
			return errors.Wrap(errors.ErrCodeSessionSealFailed, "failed to seal session", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return writeAtomic(s.path, data)
}

// Clear implements Store.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeSessionWriteFailed, fmt.Sprintf("failed to remove %s", s.path), err)
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrap(errors.ErrCodeDirectoryFailed, "failed to create session directory", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.tmp")
	if err != nil {
		return errors.Wrap(errors.ErrCodeSessionWriteFailed, "failed to create temp file", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeSessionWriteFailed, "failed to write session", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeSessionWriteFailed, "failed to sync session", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeSessionWriteFailed, "failed to close session file", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return errors.Wrap(errors.ErrCodeSessionWriteFailed, "failed to set session permissions", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errors.Wrap(errors.ErrCodeSessionWriteFailed, "failed to replace session file", err)
	}
	return nil
}

func checkComplete(token string, user Identity) error {
	switch {
	case token == "":
		return errors.NewIncompleteSessionError("token")
	case user.ID == "":
		return errors.NewIncompleteSessionError("user id")
	case !user.Role.Valid():
		return errors.NewIncompleteSessionError(fmt.Sprintf("a valid role (got %q)", user.Role))
	}
	return nil
}
