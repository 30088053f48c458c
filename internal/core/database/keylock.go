package database

import (
	"fmt"
	"sync"
)

// KeyLock serializes work per ledger key (employee, leave type, year).
// Row-level SELECT FOR UPDATE protects multi-node deployments; this
// in-process lock additionally keeps single-node runs and tests
// deterministic under concurrent applications for the same key.
type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewKeyLock() *KeyLock {
	return &KeyLock{locks: make(map[string]*sync.Mutex)}
}

// Acquire locks the mutex for the given ledger key and returns the
// release function.
func (k *KeyLock) Acquire(employeeID, leaveTypeID int64, year int) func() {
	key := fmt.Sprintf("%d/%d/%d", employeeID, leaveTypeID, year)

	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
