package ble

import "sync"

// links tracks live connections keyed by peer address. The connect handler
// of the radio stack runs on its own goroutine, so access is guarded.
type links[D any] struct {
	mu    sync.Mutex
	peers map[string]D
}

func newLinks[D any]() *links[D] {
	return &links[D]{peers: make(map[string]D)}
}

func (l *links[D]) add(addr string, dev D) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.peers[addr] = dev
}

// remove forgets addr and reports whether it was known.
func (l *links[D]) remove(addr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.peers[addr]
	delete(l.peers, addr)
	return ok
}

func (l *links[D]) get(addr string) (D, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	d, ok := l.peers[addr]
	return d, ok
}

func (l *links[D]) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.peers)
}
