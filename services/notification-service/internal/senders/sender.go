// Package senders holds the per-channel delivery providers. Each sender takes
// an already rendered message body; content decisions happen upstream in the
// scheduling side's template registry.
package senders

import "context"

type Sender interface {
	Send(ctx context.Context, to string, content string) error
	ProviderID() string
}
