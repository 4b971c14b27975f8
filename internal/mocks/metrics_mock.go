package mocks

import (
	"sync"
	"time"
)

// MockMetrics is a mock implementation of metrics recorder for testing
type MockMetrics struct {
	mu sync.Mutex

	RegistrationCalls int
	LoginAttempts     map[string]int
	Dispatches        map[string]int // keyed "request/outcome"
	StorageCalls      map[string]int // keyed "container/operation/outcome"
	Denials           []string
	AuditFailures     map[string]int
}

func NewMockMetrics() *MockMetrics {
	return &MockMetrics{
		LoginAttempts: make(map[string]int),
		Dispatches:    make(map[string]int),
		StorageCalls:  make(map[string]int),
		AuditFailures: make(map[string]int),
	}
}

func (m *MockMetrics) RecordRegistration() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RegistrationCalls++
}

func (m *MockMetrics) RecordLoginAttempt(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LoginAttempts[status]++
}

func (m *MockMetrics) RecordDispatch(request, outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Dispatches[request+"/"+outcome]++
}

func (m *MockMetrics) RecordStorageCall(container, operation, outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StorageCalls[container+"/"+operation+"/"+outcome]++
}

func (m *MockMetrics) RecordPermissionDenial(permission string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Denials = append(m.Denials, permission)
}

func (m *MockMetrics) RecordAuditFailure(sink string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AuditFailures[sink]++
}

// DenialCount returns the number of recorded permission denials.
func (m *MockMetrics) DenialCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Denials)
}
