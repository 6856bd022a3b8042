package schema

import "time"

// Flashcard is one generated study card.
type Flashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// Resource is one curated study resource link.
type Resource struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Tag   string `json:"tag"`
}

// StudySessionSnapshot is a persisted, point-in-time capture of generated
// study artifacts. Snapshots are stored newest-first and capped; deletion
// happens only by explicit user action.
type StudySessionSnapshot struct {
	ID         SnapshotID  `json:"id"`
	SavedAt    time.Time   `json:"saved_at"`
	Subject    string      `json:"subject"`
	Flashcards []Flashcard `json:"flashcards"`
	Resources  []Resource  `json:"resources"`
}

// MaxStudySessionSnapshots caps the stored snapshot collection; the oldest
// entries beyond the cap are evicted silently.
const MaxStudySessionSnapshots = 30
