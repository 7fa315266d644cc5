package histfile

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode"

	"pkt.systems/pslog"
)

const defaultMax = 200

// Store persists command history as one entry per line, newest last.
// Append grows the file; once it holds more than twice the cap the
// store compacts it back down with an atomic rewrite.
type Store struct {
	mu    sync.Mutex
	path  string
	max   int
	count int
	log   pslog.Logger
}

// New constructs a store for the given file. The file and its parent
// directory are created lazily on first append.
func New(path string, max int) (*Store, error) {
	return NewWithLogger(path, max, nil)
}

// NewWithLogger constructs a store with logging.
func NewWithLogger(path string, max int, logger pslog.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("history file path is required")
	}
	if max <= 0 {
		max = defaultMax
	}
	if logger != nil {
		logger = logger.With("history_file", path)
	}
	return &Store{path: path, max: max, log: logger}, nil
}

// Load returns up to max persisted entries, oldest first. A missing
// file is an empty history, not an error.
func (s *Store) Load() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.read()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if s.log != nil {
				s.log.Debug("history load miss")
			}
			return nil, nil
		}
		if s.log != nil {
			s.log.Warn("history load failed", "err", err)
		}
		return nil, err
	}
	s.count = len(entries)
	if len(entries) > s.max {
		entries = entries[len(entries)-s.max:]
	}
	if s.log != nil {
		s.log.Debug("history load ok", "entries", len(entries))
	}
	return entries, nil
}

// Append records one submitted command. Entries containing newlines
// are flattened to single lines before writing.
func (s *Store) Append(entry string) error {
	entry = strings.ReplaceAll(entry, "\n", " ")
	if strings.TrimSpace(entry) == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		if s.log != nil {
			s.log.Warn("history append failed", "err", err)
		}
		return err
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		if s.log != nil {
			s.log.Warn("history append failed", "err", err)
		}
		return err
	}
	_, err = f.WriteString(entry + "\n")
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		if s.log != nil {
			s.log.Warn("history append failed", "err", err)
		}
		return err
	}
	s.count++
	if s.count > s.max*2 {
		if err := s.compact(); err != nil {
			if s.log != nil {
				s.log.Warn("history compact failed", "err", err)
			}
		}
	}
	return nil
}

func (s *Store) read() ([]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var entries []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		entries = append(entries, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// compact rewrites the file with only the newest max entries. The
// rewrite goes through a temp file and a rename so a crash never
// leaves a truncated history behind.
func (s *Store) compact() error {
	entries, err := s.read()
	if err != nil {
		return err
	}
	if len(entries) > s.max {
		entries = entries[len(entries)-s.max:]
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "history-*.tmp")
	if err != nil {
		return err
	}
	w := bufio.NewWriter(tmp)
	for _, entry := range entries {
		if _, err := w.WriteString(entry + "\n"); err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
			return err
		}
	}
	if err := w.Flush(); err != nil {
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
		_ = os.Remove(tmp.Name())
		return err
	}
	s.count = len(entries)
	if s.log != nil {
		s.log.Trace("history compacted", "entries", len(entries))
	}
	return nil
}

// PathFor maps a user name to a history file under dir, sanitizing the
// name so it is always a safe single path element.
func PathFor(dir, user string) string {
	name := sanitize(user)
	if name == "" {
		name = "unknown"
	}
	return filepath.Join(dir, name+".history")
}

func sanitize(value string) string {
	var b strings.Builder
	for _, r := range value {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		if r == '-' || r == '_' || r == '.' {
			b.WriteRune(r)
			continue
		}
		b.WriteRune('_')
	}
	return b.String()
}
