package monitor

import "sync"

// singleFlight 按任务名的互斥占用表
type singleFlight struct {
	mu      sync.Mutex
	running map[string]bool
}

func newSingleFlight() *singleFlight {
	return &singleFlight{running: make(map[string]bool)}
}

func (f *singleFlight) acquire(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.running[name] {
		return false
	}
	f.running[name] = true
	return true
}

func (f *singleFlight) release(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.running, name)
}
