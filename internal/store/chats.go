package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"nbweb-backend/internal/models"
)

// ChatStore persists saved chat sessions as one JSON file per document.
type ChatStore struct {
	dir   string
	locks *docLocks
}

func NewChatStore(dataDir string) (*ChatStore, error) {
	dir := filepath.Join(dataDir, "chats")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create chats dir: %w", err)
	}
	return &ChatStore{dir: dir, locks: newDocLocks()}, nil
}

func (s *ChatStore) path(documentID string) string {
	return filepath.Join(s.dir, documentID+".json")
}

func (s *ChatStore) read(documentID string) []models.ChatSession {
	b, err := os.ReadFile(s.path(documentID))
	if err != nil {
		return []models.ChatSession{}
	}
	var chats []models.ChatSession
	if err := json.Unmarshal(b, &chats); err != nil {
		return []models.ChatSession{}
	}
	return chats
}

func (s *ChatStore) write(documentID string, chats []models.ChatSession) error {
	b, err := json.MarshalIndent(chats, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(documentID), b, 0o644)
}

func (s *ChatStore) List(documentID string) ([]models.ChatSession, error) {
	if err := validDocumentID(documentID); err != nil {
		return nil, err
	}
	unlock := s.locks.acquire(documentID)
	defer unlock()
	return s.read(documentID), nil
}

// Save replaces the session with the same id or appends it.
func (s *ChatStore) Save(documentID string, chat models.ChatSession) error {
	if err := validDocumentID(documentID); err != nil {
		return err
	}
	unlock := s.locks.acquire(documentID)
	defer unlock()

	return withFileLock(s.path(documentID), func() error {
		chats := s.read(documentID)
		found := false
		for i := range chats {
			if chats[i].ID == chat.ID {
				chats[i] = chat
				found = true
				break
			}
		}
		if !found {
			chats = append(chats, chat)
		}
		return s.write(documentID, chats)
	})
}

func (s *ChatStore) Delete(documentID, chatID string) error {
	if err := validDocumentID(documentID); err != nil {
		return err
	}
	unlock := s.locks.acquire(documentID)
	defer unlock()

	return withFileLock(s.path(documentID), func() error {
		chats := s.read(documentID)
		kept := chats[:0]
		for _, c := range chats {
			if c.ID != chatID {
				kept = append(kept, c)
			}
		}
		return s.write(documentID, kept)
	})
}
