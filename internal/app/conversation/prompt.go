package conversation

import (
	"fmt"
	"strings"
	"time"

	"github.com/PabloGalante/sweep-agent/internal/domain"
)

const systemPromptTemplate = `You are a specialist AI assistant focused exclusively on cleaning and seasonal cleaning advice.

Your capabilities include:
1. Answering cleaning-related questions (methods, products, techniques)
2. Creating cleaning to-do lists for daily, weekly, monthly, and seasonal tasks
3. Making seasonal cleaning planners for homes and businesses
4. Providing customized cleaning schedules

Important rules:
- Only respond to queries related to cleaning and home/business organization
- For non-cleaning questions, politely explain that you can only provide cleaning-related assistance
- Be specific and practical in your advice
- When creating to-do lists, organize items by priority and time requirements
- For seasonal planners, consider the current date (%s) and provide timely advice

Current season: %s

Always be helpful, positive, and encouraging about cleaning tasks!`

// promptDateLayout renders dates as M/D/YYYY.
const promptDateLayout = "1/2/2006"

// SystemPrompt returns the fixed instructions stamped with now's date and season.
func SystemPrompt(now time.Time) string {
	return fmt.Sprintf(systemPromptTemplate, now.Format(promptDateLayout), domain.SeasonAt(now))
}

// BuildPrompt linearizes the system instructions, the stored history and the
// new message into the single text block sent to the model.
func BuildPrompt(now time.Time, history []domain.Turn, userMessage string) string {
	var b strings.Builder
	b.WriteString(SystemPrompt(now))
	b.WriteString("\n\n")
	b.WriteString(RenderConversation(history, userMessage))
	return b.String()
}

// RenderConversation renders history as "User: ..."/"AI: ..." blocks and ends
// with the new message and an open "AI: " slot.
//
// The new message is placed at the end of the rendered sequence and skipped
// there if it is a user turn, since it is written separately below. Every
// stored turn is rendered, including a trailing unanswered user turn.
func RenderConversation(history []domain.Turn, userMessage string) string {
	entries := make([]domain.Turn, 0, len(history)+1)
	entries = append(entries, history...)
	entries = append(entries, domain.UserTurn(userMessage))

	var b strings.Builder
	for i, t := range entries {
		if i == len(entries)-1 && t.Role == domain.RoleUser {
			continue
		}

		if t.Role == domain.RoleUser {
			b.WriteString("User: ")
		} else {
			b.WriteString("AI: ")
		}
		b.WriteString(t.Content)
		b.WriteString("\n\n")
	}

	b.WriteString("User: ")
	b.WriteString(userMessage)
	b.WriteString("\n\nAI: ")
	return b.String()
}
