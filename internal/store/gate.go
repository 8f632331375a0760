package store

import "sync"

// writeGate orders commits against reloads from disk. A write to one key
// holds the gate shared plus that key's lock from clone to swap, so its
// file and its in-memory value land together. Reloads hold the gate
// exclusively and never observe a file whose swap is still pending.
type writeGate struct {
	rw   sync.RWMutex
	mu   sync.Mutex
	keys map[string]*sync.Mutex
}

// lock acquires the gate for a write to key and returns the release.
func (g *writeGate) lock(key string) func() {
	g.rw.RLock()

	g.mu.Lock()
	if g.keys == nil {
		g.keys = make(map[string]*sync.Mutex)
	}
	m, ok := g.keys[key]
	if !ok {
		m = &sync.Mutex{}
		g.keys[key] = m
	}
	g.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		g.rw.RUnlock()
	}
}

// lockAll waits for every in-flight write and blocks new ones.
func (g *writeGate) lockAll() func() {
	g.rw.Lock()
	return g.rw.Unlock
}
