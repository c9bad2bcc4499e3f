package app

import "sync"

// gameLocks serializes the moves of one game while different games proceed
// in parallel. Entries are dropped once nobody holds or waits for them.
type gameLocks struct {
	mu    sync.Mutex
	locks map[string]*gameLock
}

type gameLock struct {
	sync.Mutex
	refs int
}

// lock blocks until the game is free and returns the matching unlock.
func (l *gameLocks) lock(gameID string) (unlock func()) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*gameLock)
	}
	gl, ok := l.locks[gameID]
	if !ok {
		gl = &gameLock{}
		l.locks[gameID] = gl
	}
	gl.refs++
	l.mu.Unlock()

	gl.Lock()
	return func() {
		gl.Unlock()
		l.mu.Lock()
		gl.refs--
		if gl.refs == 0 {
			delete(l.locks, gameID)
		}
		l.mu.Unlock()
	}
}

// held is the number of games currently locked or waited on.
func (l *gameLocks) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
