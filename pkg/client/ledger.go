package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/networkhq/network-intake/internal/domain"
	"github.com/networkhq/network-intake/internal/validation"
)

// Ledger remembers which emails this client already submitted. It is a local
// convenience; the server remains the authority on duplicates.
type Ledger interface {
	Has(kind domain.SubmissionKind, email string) bool
	Record(kind domain.SubmissionKind, email string) error
}

func ledgerKey(kind domain.SubmissionKind, email string) string {
	return string(kind) + ":" + validation.NormalizeEmail(email)
}

// MemoryLedger keeps entries for the lifetime of the process.
type MemoryLedger struct {
	mu      sync.RWMutex
	entries map[string]struct{}
}

// NewMemoryLedger returns an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{entries: make(map[string]struct{})}
}

func (l *MemoryLedger) Has(kind domain.SubmissionKind, email string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.entries[ledgerKey(kind, email)]
	return ok
}

func (l *MemoryLedger) Record(kind domain.SubmissionKind, email string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[ledgerKey(kind, email)] = struct{}{}
	return nil
}

// FileLedger persists entries as a JSON array so they survive restarts.
type FileLedger struct {
	mu      sync.Mutex
	path    string
	entries map[string]struct{}
}

// OpenFileLedger loads path, treating a missing file as empty.
func OpenFileLedger(path string) (*FileLedger, error) {
	l := &FileLedger{path: path, entries: make(map[string]struct{})}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	if len(raw) == 0 {
		return l, nil
	}

	var keys []string
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, fmt.Errorf("decode ledger %s: %w", path, err)
	}
	for _, k := range keys {
		l.entries[k] = struct{}{}
	}
	return l, nil
}

func (l *FileLedger) Has(kind domain.SubmissionKind, email string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.entries[ledgerKey(kind, email)]
	return ok
}

func (l *FileLedger) Record(kind domain.SubmissionKind, email string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := ledgerKey(kind, email)
	if _, ok := l.entries[key]; ok {
		return nil
	}
	l.entries[key] = struct{}{}
	return l.flush()
}

// flush writes through a temp file and rename. Caller holds mu.
func (l *FileLedger) flush() error {
	keys := make([]string, 0, len(l.entries))
	for k := range l.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	raw, err := json.MarshalIndent(keys, "", "  ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(l.path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create ledger dir: %w", err)
		}
	}
	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	return os.Rename(tmp, l.path)
}
