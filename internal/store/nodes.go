package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"nbweb-backend/internal/models"
)

// NodeStore persists knowledge nodes as one JSON file per document.
type NodeStore struct {
	dir   string
	locks *docLocks
}

func NewNodeStore(dataDir string) (*NodeStore, error) {
	dir := filepath.Join(dataDir, "nodes")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create nodes dir: %w", err)
	}
	return &NodeStore{dir: dir, locks: newDocLocks()}, nil
}

func (s *NodeStore) path(documentID string) string {
	return filepath.Join(s.dir, documentID+".json")
}

func (s *NodeStore) read(documentID string) []models.KnowledgeNode {
	b, err := os.ReadFile(s.path(documentID))
	if err != nil {
		return []models.KnowledgeNode{}
	}
	var nodes []models.KnowledgeNode
	if err := json.Unmarshal(b, &nodes); err != nil {
		// Corrupt store file: start over rather than fail every request.
		return []models.KnowledgeNode{}
	}
	return nodes
}

func (s *NodeStore) write(documentID string, nodes []models.KnowledgeNode) error {
	b, err := json.MarshalIndent(nodes, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(documentID), b, 0o644)
}

func (s *NodeStore) List(documentID string) ([]models.KnowledgeNode, error) {
	if err := validDocumentID(documentID); err != nil {
		return nil, err
	}
	unlock := s.locks.acquire(documentID)
	defer unlock()
	return s.read(documentID), nil
}

// Upsert replaces the node with the same id or appends it.
func (s *NodeStore) Upsert(documentID string, node models.KnowledgeNode) error {
	if err := validDocumentID(documentID); err != nil {
		return err
	}
	unlock := s.locks.acquire(documentID)
	defer unlock()

	return withFileLock(s.path(documentID), func() error {
		nodes := s.read(documentID)
		found := false
		for i := range nodes {
			if nodes[i].NodeID == node.NodeID {
				nodes[i] = node
				found = true
				break
			}
		}
		if !found {
			nodes = append(nodes, node)
		}
		return s.write(documentID, nodes)
	})
}

func (s *NodeStore) Delete(documentID, nodeID string) error {
	if err := validDocumentID(documentID); err != nil {
		return err
	}
	unlock := s.locks.acquire(documentID)
	defer unlock()

	return withFileLock(s.path(documentID), func() error {
		nodes := s.read(documentID)
		kept := nodes[:0]
		for _, n := range nodes {
			if n.NodeID != nodeID {
				kept = append(kept, n)
			}
		}
		return s.write(documentID, kept)
	})
}
