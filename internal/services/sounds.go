package services

import (
	"bytes"
	"context"
	"database/sql"
	"log/slog"
	"strconv"
	"sync"

	"github.com/bonkboard/backend/internal/apperr"
	"github.com/bonkboard/backend/internal/db"
	"github.com/bonkboard/backend/internal/filestore"
	"github.com/bonkboard/backend/internal/models"
)

// UploadSoundParams are the metadata fields of a sound upload. Count
// arrives as a form string and is validated here.
type UploadSoundParams struct {
	Filename    string
	DisplayName string
	Source      string
	Count       string
	Association string
}

// UpdateSoundParams are the optional fields of a sound modify; nil fields
// are left unchanged.
type UpdateSoundParams struct {
	Filename    *string
	DisplayName *string
	Source      *string
	Count       *int64
	Association *string
}

// SoundService owns the in-memory sound cache and keeps it consistent with
// durable storage and the on-disk audio files. Admin mutations update
// memory only after the durable write succeeds.
type SoundService struct {
	mu      sync.Mutex
	queries *db.Queries
	files   *filestore.Store
	sounds  []models.Sound // ordered by ID ascending
}

// NewSoundService builds the registry from the durable rows.
func NewSoundService(queries *db.Queries, files *filestore.Store, rows []db.Sound) *SoundService {
	s := &SoundService{queries: queries, files: files}
	for _, row := range rows {
		s.sounds = append(s.sounds, soundFromRow(row))
	}
	return s
}

func soundFromRow(row db.Sound) models.Sound {
	m := models.Sound{ID: row.ID, Filename: row.Filename, Count: row.Count}
	if row.DisplayName.Valid {
		v := row.DisplayName.String
		m.DisplayName = &v
	}
	if row.Source.Valid {
		v := row.Source.String
		m.Source = &v
	}
	if row.Association.Valid {
		v := row.Association.String
		m.Association = &v
	}
	return m
}

// List returns sounds, optionally filtered by source and count predicate.
func (s *SoundService) List(source *string, filter CountFilter) ([]models.Sound, error) {
	if err := filter.validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Sound, 0, len(s.sounds))
	for _, snd := range s.sounds {
		if source != nil && (snd.Source == nil || *snd.Source != *source) {
			continue
		}
		if filter.active() && !filter.matches(snd.Count) {
			continue
		}
		out = append(out, snd)
	}
	return out, nil
}

// Lookup returns the sound with the given filename, or nil.
func (s *SoundService) Lookup(filename string) *models.Sound {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, snd := range s.sounds {
		if snd.Filename == filename {
			found := snd
			return &found
		}
	}
	return nil
}

// Upload validates and stores a new sound clip: audio file first, then the
// durable record, then the in-memory entry.
func (s *SoundService) Upload(ctx context.Context, params UploadSoundParams, audio []byte) (models.Sound, error) {
	if params.Filename == "" {
		return models.Sound{}, apperr.Invalid("filename is required")
	}
	if params.Count == "" {
		return models.Sound{}, apperr.Invalid("count is required")
	}
	count, err := strconv.ParseInt(params.Count, 10, 64)
	if err != nil || count < 0 {
		return models.Sound{}, apperr.Invalid("count must be a non-negative number")
	}
	if !isMP3(audio) {
		return models.Sound{}, apperr.ErrUnsupportedFormat
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, snd := range s.sounds {
		if snd.Filename == params.Filename {
			return models.Sound{}, apperr.ErrDuplicateFilename
		}
	}

	if err := s.files.Write(params.Filename, audio); err != nil {
		return models.Sound{}, apperr.Storage(err)
	}

	row, err := s.queries.CreateSound(ctx, db.CreateSoundParams{
		Filename:    params.Filename,
		DisplayName: nullString(params.DisplayName),
		Source:      nullString(params.Source),
		Count:       count,
		Association: nullString(params.Association),
	})
	if err != nil {
		return models.Sound{}, apperr.Storage(err)
	}

	snd := soundFromRow(row)
	s.sounds = append(s.sounds, snd)
	return snd, nil
}

// Modify updates a sound's metadata and, when the filename changes or new
// audio is supplied, the backing file. A filename change without new audio
// renames the file through a backup so a failed rename restores the
// original. When new audio replaces the old under a different name, the
// old file is removed only after the durable write succeeds; a failed
// write undoes the file step instead.
func (s *SoundService) Modify(ctx context.Context, id int64, params UpdateSoundParams, newAudio []byte) (models.Sound, error) {
	if newAudio != nil && !isMP3(newAudio) {
		return models.Sound{}, apperr.ErrUnsupportedFormat
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.sounds {
		if s.sounds[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return models.Sound{}, apperr.ErrNotFound
	}

	current := s.sounds[idx]
	updated := current
	if params.Filename != nil && *params.Filename != current.Filename {
		if *params.Filename == "" {
			return models.Sound{}, apperr.Invalid("filename is required")
		}
		for _, snd := range s.sounds {
			if snd.ID != id && snd.Filename == *params.Filename {
				return models.Sound{}, apperr.ErrDuplicateFilename
			}
		}
		updated.Filename = *params.Filename
	}
	if params.DisplayName != nil {
		v := *params.DisplayName
		updated.DisplayName = &v
	}
	if params.Source != nil {
		v := *params.Source
		updated.Source = &v
	}
	if params.Count != nil {
		if *params.Count < 0 {
			return models.Sound{}, apperr.Invalid("count must be a non-negative number")
		}
		updated.Count = *params.Count
	}
	if params.Association != nil {
		v := *params.Association
		updated.Association = &v
	}

	renamed := newAudio == nil && updated.Filename != current.Filename
	switch {
	case newAudio != nil:
		if err := s.files.Write(updated.Filename, newAudio); err != nil {
			return models.Sound{}, apperr.Storage(err)
		}
	case renamed:
		if err := s.files.Rename(current.Filename, updated.Filename); err != nil {
			return models.Sound{}, apperr.Storage(err)
		}
	}

	if err := s.queries.UpdateSound(ctx, db.UpdateSoundParams{
		ID:          id,
		Filename:    updated.Filename,
		DisplayName: nullPtr(updated.DisplayName),
		Source:      nullPtr(updated.Source),
		Count:       updated.Count,
		Association: nullPtr(updated.Association),
	}); err != nil {
		// Undo the file step so disk keeps matching the record.
		switch {
		case newAudio != nil && updated.Filename != current.Filename:
			if rmErr := s.files.Remove(updated.Filename); rmErr != nil {
				slog.Error("failed to remove new audio file after failed update",
					slog.String("filename", updated.Filename), slog.Any("error", rmErr))
			}
		case renamed:
			if rnErr := s.files.Rename(updated.Filename, current.Filename); rnErr != nil {
				slog.Error("failed to rename audio file back after failed update",
					slog.String("filename", updated.Filename), slog.Any("error", rnErr))
			}
		}
		return models.Sound{}, apperr.Storage(err)
	}

	// Only now is the old file unreferenced by both memory and disk state.
	if newAudio != nil && updated.Filename != current.Filename {
		if err := s.files.Remove(current.Filename); err != nil {
			slog.Error("failed to remove old audio file after replace",
				slog.String("filename", current.Filename), slog.Any("error", err))
		}
	}

	s.sounds[idx] = updated
	return updated, nil
}

// Remove deletes the durable record, the in-memory entry, and the backing
// file, in that order. An unlink failure is logged, not retried; the
// removal stands.
func (s *SoundService) Remove(ctx context.Context, id int64) (models.Sound, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.sounds {
		if s.sounds[i].ID == id {
			removed := s.sounds[i]
			if err := s.queries.DeleteSound(ctx, id); err != nil {
				return models.Sound{}, apperr.Storage(err)
			}
			s.sounds = append(s.sounds[:i], s.sounds[i+1:]...)
			if err := s.files.Remove(removed.Filename); err != nil {
				slog.Error("failed to remove audio file",
					slog.String("filename", removed.Filename), slog.Any("error", err))
			}
			return removed, nil
		}
	}
	return models.Sound{}, apperr.ErrNotFound
}

// RecordSoundClick increments the per-sound counter and returns the updated
// record. An unknown filename is a no-op, not an error; the durable count
// catches up on the next periodic flush.
func (s *SoundService) RecordSoundClick(filename string) *models.Sound {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.sounds {
		if s.sounds[i].Filename == filename {
			s.sounds[i].Count++
			updated := s.sounds[i]
			return &updated
		}
	}
	return nil
}

// CountSnapshot returns every sound's id and current click count for the
// periodic flush.
func (s *SoundService) CountSnapshot() []db.UpdateSoundCountParams {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]db.UpdateSoundCountParams, len(s.sounds))
	for i, snd := range s.sounds {
		out[i] = db.UpdateSoundCountParams{ID: snd.ID, Count: snd.Count}
	}
	return out
}

func nullString(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}

func nullPtr(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

// isMP3 sniffs the payload header: either an ID3v2 tag or a raw MPEG
// audio frame sync.
func isMP3(data []byte) bool {
	if bytes.HasPrefix(data, []byte("ID3")) {
		return true
	}
	return len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0
}
