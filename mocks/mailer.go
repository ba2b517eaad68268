package mocks

import (
	"context"
	"sync"
)

type Email struct {
	To      string
	Subject string
	Body    string
}

// Mailer records every message. SendFunc, when set, decides the outcome.
type Mailer struct {
	SendFunc func(ctx context.Context, to, subject, body string) error

	mu   sync.Mutex
	Sent []Email
}

func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	if m.SendFunc != nil {
		if err := m.SendFunc(ctx, to, subject, body); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, Email{To: to, Subject: subject, Body: body})
	return nil
}

func (m *Mailer) Last() (Email, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return Email{}, false
	}
	return m.Sent[len(m.Sent)-1], true
}
