package store

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gofrs/flock"
)

// docLocks serializes read-modify-write cycles per document. The
// in-process mutex covers goroutines in this server; the flock covers
// other processes touching the same data directory.
type docLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newDocLocks() *docLocks {
	return &docLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *docLocks) acquire(documentID string) func() {
	l.mu.Lock()
	m, ok := l.locks[documentID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[documentID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

func withFileLock(path string, fn func() error) error {
	fl := flock.New(path + ".lock")
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	defer fl.Unlock()
	return fn()
}

// validDocumentID rejects ids that could escape the data directory.
func validDocumentID(documentID string) error {
	if documentID == "" {
		return fmt.Errorf("empty document id")
	}
	if strings.ContainsAny(documentID, `/\`) || strings.Contains(documentID, "..") {
		return fmt.Errorf("invalid document id: %q", documentID)
	}
	return nil
}
