package senders

import "context"

// NoopSender accepts every message without delivering it. Used for the call
// channel, where reminders surface on the agent call list instead of going
// through a provider, and as a dev stand-in for unconfigured channels.
type NoopSender struct {
	name string
}

func NewNoopSender(name string) *NoopSender {
	return &NoopSender{name: name}
}

func (s *NoopSender) ProviderID() string {
	return s.name
}

func (s *NoopSender) Send(context.Context, string, string) error {
	return nil
}
