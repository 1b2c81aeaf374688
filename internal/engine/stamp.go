package engine

import "sync"

// stampTable issues monotonically increasing sequence stamps per endpoint.
//
// A flow takes a stamp before calling out; when the response resolves it is
// applied only if no newer stamp has been issued for the same endpoint in
// the meantime. A later-issued fetch resolving first therefore wins, and the
// earlier response is discarded instead of clobbering fresher state.
type stampTable struct {
	mu     sync.Mutex
	latest map[string]int64
}

func newStampTable() *stampTable {
	return &stampTable{latest: make(map[string]int64)}
}

// issue hands out the next stamp for an endpoint.
func (t *stampTable) issue(endpoint string) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.latest[endpoint]++
	return t.latest[endpoint]
}

// current reports whether stamp is still the latest issued for endpoint.
func (t *stampTable) current(endpoint string, stamp int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.latest[endpoint] == stamp
}
