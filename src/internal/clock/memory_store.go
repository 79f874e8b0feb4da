package clock

import (
	"context"
	"sort"
	"surihub-timeclock-svc/src/internal/models"
	"sync"
)

// MemoryStore is a Store kept in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*ClockSession
	current  map[string]string
	last     map[string]string
	archive  map[string]*ClockSession
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*ClockSession),
		current:  make(map[string]string),
		last:     make(map[string]string),
		archive:  make(map[string]*ClockSession),
	}
}

func (m *MemoryStore) ReadCurrent(_ context.Context, userID string) (*ClockSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.current[userID]
	if !ok || id == "" {
		return nil, nil
	}
	return m.sessions[id].Clone(), nil
}

func (m *MemoryStore) WriteCurrent(_ context.Context, userID string, session *ClockSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if session == nil {
		if id := m.current[userID]; id != "" {
			m.last[userID] = id
		}
		delete(m.current, userID)
		return nil
	}

	if id := m.current[userID]; id != "" && id != session.ID {
		return models.ErrSessionAlreadyOpen
	}

	if _, exists := m.sessions[session.ID]; !exists {
		m.sessions[session.ID] = session.Clone()
	}
	m.current[userID] = session.ID
	return nil
}

func (m *MemoryStore) AppendArchive(_ context.Context, key string, session *ClockSession) (*ClockSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.archive[key]; ok {
		if existing.ID != session.ID {
			return nil, models.ErrArchiveConflict
		}
		return existing.Clone(), nil
	}

	stored := session.Clone()
	stored.ArchiveKey = key
	m.archive[key] = stored
	return stored.Clone(), nil
}

func (m *MemoryStore) ReadArchive(_ context.Context, filter ArchiveFilter) ([]*ClockSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*ClockSession, 0)
	for _, s := range m.archive {
		if filter.Matches(s) {
			result = append(result, s.Clone())
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ClockInTime.After(result[j].ClockInTime)
	})

	if filter.Limit > 0 && int64(len(result)) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (m *MemoryStore) UpdateNotes(_ context.Context, userID, sessionID, notes string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current[userID] != sessionID {
		return models.ErrSessionArchived
	}
	session, ok := m.sessions[sessionID]
	if !ok {
		return models.ErrSessionArchived
	}
	session.Notes = notes
	return nil
}

func (m *MemoryStore) CountOpen(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return int64(len(m.current)), nil
}

// LastSessionID returns the id of the session most recently cleared for userID.
func (m *MemoryStore) LastSessionID(userID string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.last[userID]
}
