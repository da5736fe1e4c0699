package messaging

import (
	"context"
	"sync"
)

// MockMessageSender records fill messages for tests.
type MockMessageSender struct {
	mu       sync.Mutex
	messages []*FillMessage
	closed   bool
}

// NewMockMessageSender creates an empty mock sender.
func NewMockMessageSender() *MockMessageSender {
	return &MockMessageSender{}
}

// SendFillMessage implements MessageSender.
func (m *MockMessageSender) SendFillMessage(ctx context.Context, msg *FillMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

// Messages returns the recorded messages.
func (m *MockMessageSender) Messages() []*FillMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*FillMessage, len(m.messages))
	copy(out, m.messages)
	return out
}

// Close implements MessageSender.
func (m *MockMessageSender) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
