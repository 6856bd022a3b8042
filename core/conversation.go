package core

import "pkt.systems/sayam/schema"

// conversationLog holds the ordered transcript for one session.
type conversationLog struct {
	entries []schema.ConversationEntry
	max     int
}

func newConversationLog(max int) *conversationLog {
	return &conversationLog{max: max}
}

func (l *conversationLog) append(entry schema.ConversationEntry) (int, schema.ConversationEntry) {
	if l.max > 0 && len(l.entries) >= l.max {
		drop := len(l.entries) - l.max + 1
		l.entries = append(l.entries[:0], l.entries[drop:]...)
	}
	l.entries = append(l.entries, entry)
	return len(l.entries) - 1, entry
}

func (l *conversationLog) appendUser(text string, source schema.SourceTag) (int, schema.ConversationEntry) {
	return l.append(schema.ConversationEntry{Role: schema.RoleUser, Text: text, Source: source})
}

func (l *conversationLog) appendAgent(text string, source schema.SourceTag) (int, schema.ConversationEntry) {
	return l.append(schema.ConversationEntry{Role: schema.RoleAgent, Text: text, Source: source})
}

// addThought merges a reasoning step into the trailing in-progress agent
// entry, creating one when the previous turn is already finalized. The
// returned flag reports an in-place update.
func (l *conversationLog) addThought(text string) (int, schema.ConversationEntry, bool) {
	if n := len(l.entries); n > 0 && l.entries[n-1].InProgress() {
		last := &l.entries[n-1]
		last.Thoughts = append(last.Thoughts, text)
		return n - 1, *last, true
	}
	idx, entry := l.append(schema.ConversationEntry{Role: schema.RoleAgent, Thoughts: []string{text}})
	return idx, entry, false
}

// finalize attaches the agent's answer for the turn. A response continuing
// an out-of-band turn lands in CompletionText so the streamed trace keeps
// its shape; otherwise the pending entry's Text is filled in place. With no
// pending trace the answer becomes a fresh entry.
func (l *conversationLog) finalize(text string, source schema.SourceTag) (int, schema.ConversationEntry, bool) {
	if n := len(l.entries); n > 0 && l.entries[n-1].InProgress() {
		last := &l.entries[n-1]
		if source == schema.SourceSMS {
			last.CompletionText = text
			last.Source = source
		} else {
			last.Text = text
		}
		return n - 1, *last, true
	}
	idx, entry := l.appendAgent(text, source)
	return idx, entry, false
}

func (l *conversationLog) snapshot() []schema.ConversationEntry {
	out := make([]schema.ConversationEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *conversationLog) len() int { return len(l.entries) }
