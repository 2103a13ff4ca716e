// Package sms abstracts the SMS provider. The core hands a plaintext code to
// a Sender and never sees provider details.
package sms

import "context"

type Sender interface {
	Send(ctx context.Context, phone, code string) error
}

// MockSender records the last code per phone instead of sending anything.
// Bound in development and tests.
type MockSender struct {
	Sent map[string]string
}

func NewMockSender() *MockSender {
	return &MockSender{Sent: map[string]string{}}
}

func (s *MockSender) Send(ctx context.Context, phone, code string) error {
	s.Sent[phone] = code
	return nil
}
