package schema

// ConversationEntry is one entry in the append-only conversation log.
//
// An agent entry with thoughts and no text is an in-progress streamed
// reasoning trace; it is mutated in place as further thought events arrive
// and finalized by attaching Text (or CompletionText when the turn
// originated from the SMS side channel). Once finalized an entry is
// immutable; entries are only removed by a full log reset.
type ConversationEntry struct {
	Role           Role      `json:"role"`
	Text           string    `json:"text"`
	Thoughts       []string  `json:"thoughts,omitempty"`
	CompletionText string    `json:"completion_text,omitempty"`
	Source         SourceTag `json:"source,omitempty"`
}

// InProgress reports whether the entry is an unfinalized reasoning trace.
func (e ConversationEntry) InProgress() bool {
	return e.Role == RoleAgent && e.Text == "" && e.CompletionText == "" && len(e.Thoughts) > 0
}
