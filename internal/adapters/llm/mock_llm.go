package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/PabloGalante/sweep-agent/internal/domain"
)

// MockLLM answers without calling any API. Used for local development.
type MockLLM struct{}

func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

func (m *MockLLM) GenerateReply(_ context.Context, prompt string, _ domain.GenerationParams) (string, error) {
	return fmt.Sprintf("Happy to help with your cleaning! You asked: %q. Start with the room you use most and work top to bottom.", lastUserMessage(prompt)), nil
}

// lastUserMessage pulls the newest user line out of an assembled prompt.
func lastUserMessage(prompt string) string {
	i := strings.LastIndex(prompt, "User: ")
	if i < 0 {
		return strings.TrimSpace(prompt)
	}
	msg := prompt[i+len("User: "):]
	msg = strings.TrimSuffix(msg, "\n\nAI: ")
	return strings.TrimSpace(msg)
}
