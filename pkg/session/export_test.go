package session

// ActiveLocks returns the number of lock entries held by the manager.
func ActiveLocks(m *Manager) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}
