// Package session holds the per-interview state machine and the transcript
// store that backs it.
package session

import (
	"strings"
	"sync"

	"recruitai/interview-orchestrator/internal/models"
)

// Transcript is an ordered, append-mostly store of conversation turns.
// Streaming updates for the same item ID coalesce into a single turn; turn
// order follows first emission, not last update. Safe for concurrent use.
type Transcript struct {
	mu    sync.RWMutex
	turns []models.TranscriptTurn
	index map[string]int
}

func NewTranscript() *Transcript {
	return &Transcript{
		index: make(map[string]int),
	}
}

// Upsert records a turn. When the item ID is already known the turn's text
// is replaced in place and its position is preserved; otherwise the turn is
// appended.
func (t *Transcript) Upsert(id string, role models.Role, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if pos, ok := t.index[id]; ok {
		t.turns[pos].Text = text
		return
	}

	t.index[id] = len(t.turns)
	t.turns = append(t.turns, models.TranscriptTurn{ID: id, Role: role, Text: text})
}

// Turns returns a copy of the ordered turns.
func (t *Transcript) Turns() []models.TranscriptTurn {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]models.TranscriptTurn, len(t.turns))
	copy(out, t.turns)
	return out
}

// Len returns the number of distinct turns.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.turns)
}

// Flatten renders the conversation as one line per turn, in order.
func (t *Transcript) Flatten() string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var b strings.Builder
	for i, turn := range t.turns {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(strings.ToUpper(string(turn.Role)))
		b.WriteString(": ")
		b.WriteString(turn.Text)
	}
	return b.String()
}

// Text concatenates the text of all turns spoken by the given role. Used
// for token accounting, where user turns count as input and assistant turns
// as output.
func (t *Transcript) Text(role models.Role) string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var parts []string
	for _, turn := range t.turns {
		if turn.Role == role {
			parts = append(parts, turn.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// Reset discards all turns.
func (t *Transcript) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.turns = nil
	t.index = make(map[string]int)
}
