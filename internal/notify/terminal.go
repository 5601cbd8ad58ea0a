package notify

import (
	"context"
	"fmt"
	"os"
)

// TerminalChannel prints notifications to stdout. It is the default channel
// for single-shot runs from the command line.
type TerminalChannel struct {
	out *os.File
}

// NewTerminalChannel creates a new TerminalChannel.
func NewTerminalChannel() *TerminalChannel {
	return &TerminalChannel{out: os.Stdout}
}

// Name returns the name of the channel.
func (t *TerminalChannel) Name() string {
	return "terminal"
}

// IsEnabled returns whether the channel is enabled.
func (t *TerminalChannel) IsEnabled() bool {
	return true
}

// Send prints the notification.
func (t *TerminalChannel) Send(ctx context.Context, n Notification) error {
	_, err := fmt.Fprintf(t.out, "🔔 %s\n   %s\n", n.Title, n.Message)
	return err
}
