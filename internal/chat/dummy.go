package chat

import (
	"context"
	"fmt"
	"strings"
)

// Dummy is a deterministic template provider used when no credentials are
// configured, or explicitly selected for tests.
type Dummy struct{}

// Complete returns a fixed Bulgarian template referencing the transcript,
// never touching the network.
func (Dummy) Complete(ctx context.Context, messages []Message, systemPrompt string, maxTokens int) (string, error) {
	var lastUser string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			lastUser = messages[i].Content
			break
		}
	}
	lastUser = strings.TrimSpace(lastUser)
	if lastUser == "" {
		return "Разбрах. Разкажи ми повече.", nil
	}
	return fmt.Sprintf("Разбрах: %q. Продължавай.", lastUser), nil
}
