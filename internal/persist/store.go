package persist

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"pkt.systems/pslog"
	"pkt.systems/sayam/schema"
)

const snapshotsFile = "study_sessions.json"

// Store persists study session snapshots to disk. Snapshots are kept
// newest first and capped at schema.MaxStudySessionSnapshots; saving with
// a known id overwrites in place without promoting the entry.
type Store struct {
	dir string
	log pslog.Logger
}

// NewStore constructs a persistent store at the given directory.
func NewStore(dir string) (*Store, error) {
	return NewStoreWithLogger(dir, nil)
}

// NewStoreWithLogger constructs a persistent store with logging.
func NewStoreWithLogger(dir string, logger pslog.Logger) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("state directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	if logger != nil {
		logger = logger.With("state_dir", dir)
	}
	return &Store{dir: dir, log: logger}, nil
}

// List returns all snapshots, newest first. A missing or undecodable file
// yields an empty list; snapshot state is a cache, not a source of truth.
func (s *Store) List() ([]schema.StudySessionSnapshot, error) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if s.log != nil {
				s.log.Debug("snapshot load miss")
			}
			return nil, nil
		}
		if s.log != nil {
			s.log.Warn("snapshot load failed", "err", err)
		}
		return nil, err
	}
	var snapshots []schema.StudySessionSnapshot
	if err := json.Unmarshal(data, &snapshots); err != nil {
		if s.log != nil {
			s.log.Warn("snapshot decode failed, starting empty", "err", err)
		}
		return nil, nil
	}
	if s.log != nil {
		s.log.Debug("snapshot load ok", "count", len(snapshots))
	}
	return snapshots, nil
}

// Load returns one snapshot by id.
func (s *Store) Load(id schema.SnapshotID) (schema.StudySessionSnapshot, error) {
	snapshots, err := s.List()
	if err != nil {
		return schema.StudySessionSnapshot{}, err
	}
	for _, snapshot := range snapshots {
		if snapshot.ID == id {
			return snapshot, nil
		}
	}
	return schema.StudySessionSnapshot{}, schema.ErrSnapshotNotFound
}

// Save writes study artifacts under the given id, or under a fresh id when
// none is passed. New snapshots are prepended; an existing id keeps its
// position. The list is re-capped after every save.
func (s *Store) Save(subject string, cards []schema.Flashcard, resources []schema.Resource, id schema.SnapshotID) (schema.SnapshotID, error) {
	snapshots, err := s.List()
	if err != nil {
		return "", err
	}
	snapshot := schema.StudySessionSnapshot{
		ID:         id,
		SavedAt:    time.Now().UTC(),
		Subject:    subject,
		Flashcards: append([]schema.Flashcard(nil), cards...),
		Resources:  append([]schema.Resource(nil), resources...),
	}
	replaced := false
	if id != "" {
		for i := range snapshots {
			if snapshots[i].ID == id {
				snapshots[i] = snapshot
				replaced = true
				break
			}
		}
	}
	if !replaced {
		if snapshot.ID == "" {
			snapshot.ID = schema.SnapshotID(uuid.NewString())
		}
		snapshots = append([]schema.StudySessionSnapshot{snapshot}, snapshots...)
	}
	if len(snapshots) > schema.MaxStudySessionSnapshots {
		snapshots = snapshots[:schema.MaxStudySessionSnapshots]
	}
	if err := s.write(snapshots); err != nil {
		return "", err
	}
	if s.log != nil {
		s.log.Trace("snapshot save ok", "id", snapshot.ID, "cards", len(cards), "resources", len(resources))
	}
	return snapshot.ID, nil
}

// Delete removes one snapshot by id. Deleting an unknown id is a no-op.
func (s *Store) Delete(id schema.SnapshotID) error {
	snapshots, err := s.List()
	if err != nil {
		return err
	}
	kept := snapshots[:0]
	for _, snapshot := range snapshots {
		if snapshot.ID != id {
			kept = append(kept, snapshot)
		}
	}
	if len(kept) == len(snapshots) {
		return nil
	}
	return s.write(kept)
}

func (s *Store) write(snapshots []schema.StudySessionSnapshot) error {
	if snapshots == nil {
		snapshots = []schema.StudySessionSnapshot{}
	}
	data, err := json.MarshalIndent(snapshots, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, "sessions-*.json")
	if err != nil {
		if s.log != nil {
			s.log.Warn("snapshot save failed", "err", err)
		}
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		if s.log != nil {
			s.log.Warn("snapshot save failed", "err", err)
		}
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		if s.log != nil {
			s.log.Warn("snapshot save failed", "err", err)
		}
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		if s.log != nil {
			s.log.Warn("snapshot save failed", "err", err)
		}
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		_ = os.Remove(tmp.Name())
		if s.log != nil {
			s.log.Warn("snapshot save failed", "err", err)
		}
		return err
	}
	if err := os.Rename(tmp.Name(), s.path()); err != nil {
		if s.log != nil {
			s.log.Warn("snapshot save failed", "err", err)
		}
		return err
	}
	return nil
}

func (s *Store) path() string {
	return filepath.Join(s.dir, snapshotsFile)
}
