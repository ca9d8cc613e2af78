// Package jsonfile persists the game list and the suggestion list as flat
// JSON files with read-all/write-all semantics. Absent or corrupt files read
// as empty collections; writes replace the whole file atomically.
package jsonfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jujucrew/jubot/internal/domain"
	"github.com/jujucrew/jubot/internal/logger"
)

const (
	gamesFile       = "games.json"
	suggestionsFile = "suggestions.json"
)

var (
	ErrDuplicateGame       = errors.New("store: app id already in the game list")
	ErrGameNotFound        = errors.New("store: app id not in the game list")
	ErrDuplicateSuggestion = errors.New("store: app id already suggested")
	ErrBadIndex            = errors.New("store: suggestion index out of range")
)

// Store owns the two collection files under dir. The mutex spans every
// read-modify-write, so duplicate checks and the following write are atomic
// within the process.
type Store struct {
	dir string
	mu  sync.Mutex
	log logger.Logger
}

func New(dir string, log logger.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{dir: dir, log: log}, nil
}

// Games returns the game list in storage order. Missing or unreadable
// storage yields an empty list, never an error.
func (s *Store) Games() []domain.GameRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readGames()
}

// SaveGames replaces the whole game list.
func (s *Store) SaveGames(games []domain.GameRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeFile(gamesFile, games)
}

// AddGame appends rec unless its app id is already present. The presence
// check and the write happen under one lock.
func (s *Store) AddGame(rec domain.GameRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	games := s.readGames()
	for _, g := range games {
		if g.AppID == rec.AppID {
			return ErrDuplicateGame
		}
	}
	return s.writeFile(gamesFile, append(games, rec))
}

// RemoveGame deletes the entry with the given app id and returns it.
func (s *Store) RemoveGame(appID int) (domain.GameRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	games := s.readGames()
	for i, g := range games {
		if g.AppID == appID {
			out := append(games[:i:i], games[i+1:]...)
			if err := s.writeFile(gamesFile, out); err != nil {
				return domain.GameRecord{}, err
			}
			return g, nil
		}
	}
	return domain.GameRecord{}, ErrGameNotFound
}

// Suggestions returns the suggestion list in storage order.
func (s *Store) Suggestions() []domain.SuggestionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readSuggestions()
}

// AddSuggestion appends rec unless its app id was already suggested.
func (s *Store) AddSuggestion(rec domain.SuggestionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	suggestions := s.readSuggestions()
	for _, sg := range suggestions {
		if sg.AppID == rec.AppID {
			return ErrDuplicateSuggestion
		}
	}
	return s.writeFile(suggestionsFile, append(suggestions, rec))
}

// RemoveSuggestionAt deletes the 1-based index and returns the removed
// record.
func (s *Store) RemoveSuggestionAt(index int) (domain.SuggestionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	suggestions := s.readSuggestions()
	if index < 1 || index > len(suggestions) {
		return domain.SuggestionRecord{}, ErrBadIndex
	}
	removed := suggestions[index-1]
	out := append(suggestions[:index-1:index-1], suggestions[index:]...)
	if err := s.writeFile(suggestionsFile, out); err != nil {
		return domain.SuggestionRecord{}, err
	}
	return removed, nil
}

// ClearSuggestions empties the suggestion list.
func (s *Store) ClearSuggestions() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeFile(suggestionsFile, []domain.SuggestionRecord{})
}

func (s *Store) readGames() []domain.GameRecord {
	var games []domain.GameRecord
	s.readFile(gamesFile, &games)
	if games == nil {
		games = []domain.GameRecord{}
	}
	return games
}

func (s *Store) readSuggestions() []domain.SuggestionRecord {
	var suggestions []domain.SuggestionRecord
	s.readFile(suggestionsFile, &suggestions)
	if suggestions == nil {
		suggestions = []domain.SuggestionRecord{}
	}
	return suggestions
}

// readFile loads one collection. Absent files are normal (first run);
// corrupt files are logged and treated as empty rather than failing the
// command that triggered the read.
func (s *Store) readFile(name string, v interface{}) {
	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("failed to read collection",
				logger.String("file", path),
				logger.Error(err))
		}
		return
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.log.Warn("corrupt collection file, treating as empty",
			logger.String("file", path),
			logger.Error(err))
	}
}

// writeFile replaces one collection via temp file + rename so a crash
// mid-write never leaves a truncated file behind.
func (s *Store) writeFile(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	data = append(data, '\n')

	path := filepath.Join(s.dir, name)
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}
