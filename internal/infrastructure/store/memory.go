package store

import (
	"encoding/json"
	"sync"

	"github.com/mesavista/storefront-core/internal/core/domain"
)

// Memory is an in-process SessionStore. It holds serialized records like the
// durable stores do, so defensive-parsing behaviour is identical. Used in
// tests and as the backing for short-lived runtimes when durability is not
// configured.
type Memory struct {
	mu      sync.Mutex
	records map[string][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{records: make(map[string][]byte)}
}

func (m *Memory) SaveSession(sessionKey string, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[keySessionKey] = []byte(sessionKey)
	if user == nil {
		delete(m.records, keyUserData)
		return nil
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	m.records[keyUserData] = raw
	return nil
}

func (m *Memory) LoadSession() (string, *domain.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key, exists := m.records[keySessionKey]
	if !exists || len(key) == 0 {
		return "", nil, false
	}
	user, ok := decodeUser(m.records[keyUserData])
	if !ok {
		delete(m.records, keySessionKey)
		delete(m.records, keyUserData)
		return "", nil, false
	}
	return string(key), user, true
}

func (m *Memory) ClearSession() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, keySessionKey)
	delete(m.records, keyUserData)
	return nil
}

func (m *Memory) SaveCart(lines []domain.CartLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(lines) == 0 {
		delete(m.records, keyCart)
		return nil
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	m.records[keyCart] = raw
	return nil
}

func (m *Memory) LoadCart() []domain.CartLine {
	m.mu.Lock()
	defer m.mu.Unlock()

	lines, ok := decodeLines(m.records[keyCart])
	if !ok {
		delete(m.records, keyCart)
		return nil
	}
	return lines
}

// SetRaw overwrites a record with arbitrary bytes. Test hook for exercising
// corrupt-state recovery.
func (m *Memory) SetRaw(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[key] = value
}
