package store

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// echoSet remembers the hash of the last content written per path.
type echoSet struct {
	mu     sync.Mutex
	hashes map[string]uint64
}

func newEchoSet() *echoSet {
	return &echoSet{hashes: make(map[string]uint64)}
}

func (e *echoSet) record(path string, data []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hashes[path] = xxhash.Sum64(data)
}

// matches reports whether data is what was last written to path.
func (e *echoSet) matches(path string, data []byte) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	h, ok := e.hashes[path]
	return ok && h == xxhash.Sum64(data)
}

func (e *echoSet) forget(path string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.hashes, path)
}
