package ncbi

import (
	"context"
	"sync"

	"github.com/cesargomez89/genofetch/internal/domain"
)

// MockClient is a scripted LookupClient for tests and offline runs. Each
// name maps to a fixed reply; unknown names report zero matches.
type MockClient struct {
	mu      sync.Mutex
	replies map[string]MockReply
	calls   []string
}

// MockReply is one scripted lookup result.
type MockReply struct {
	Records []domain.GenomeRecord
	Err     error
}

func NewMockClient() *MockClient {
	return &MockClient{replies: make(map[string]MockReply)}
}

// Script sets the reply returned for a name.
func (m *MockClient) Script(name string, reply MockReply) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies[name] = reply
}

func (m *MockClient) Lookup(ctx context.Context, name string) ([]domain.GenomeRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)

	reply, ok := m.replies[name]
	if !ok {
		return nil, nil
	}
	if reply.Err != nil {
		return nil, reply.Err
	}
	return reply.Records, nil
}

// Calls returns the names looked up so far, in call order.
func (m *MockClient) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

var _ LookupClient = (*MockClient)(nil)
