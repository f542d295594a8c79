package store

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"nbweb-backend/internal/models"
)

// DocumentStore keeps each document in its own folder under the docs
// root: <id>/<id>.md, <id>/<id>.html and <id>/images/*.
type DocumentStore struct {
	dir string
}

func NewDocumentStore(dataDir string) (*DocumentStore, error) {
	dir := filepath.Join(dataDir, "documents")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create documents dir: %w", err)
	}
	return &DocumentStore{dir: dir}, nil
}

// Dir is the docs root, exported for the static asset mount.
func (s *DocumentStore) Dir() string {
	return s.dir
}

// List returns every document folder as a document.
func (s *DocumentStore) List() ([]models.DocumentInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	docs := []models.DocumentInfo{}
	for _, e := range entries {
		if e.IsDir() {
			docs = append(docs, models.DocumentInfo{DocumentID: e.Name(), Title: e.Name()})
		}
	}
	return docs, nil
}

// Markdown returns the document's full markdown text.
func (s *DocumentStore) Markdown(documentID string) (string, error) {
	if err := validDocumentID(documentID); err != nil {
		return "", err
	}
	b, err := os.ReadFile(filepath.Join(s.dir, documentID, documentID+".md"))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// HTML returns the document's rendered HTML body.
func (s *DocumentStore) HTML(documentID string) (string, error) {
	if err := validDocumentID(documentID); err != nil {
		return "", err
	}
	b, err := os.ReadFile(filepath.Join(s.dir, documentID, documentID+".html"))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Create lays down a new document folder with its markdown and HTML.
func (s *DocumentStore) Create(documentID, markdown, html string) error {
	if err := validDocumentID(documentID); err != nil {
		return err
	}
	docDir := filepath.Join(s.dir, documentID)
	if err := os.MkdirAll(docDir, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(docDir, documentID+".md"), []byte(markdown), 0o644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(docDir, documentID+".html"), []byte(html), 0o644)
}

// SaveHTMLUpload stores a raw HTML upload. The filename doubles as the
// document id, matching direct-upload documents which have no markdown
// or asset folder.
func (s *DocumentStore) SaveHTMLUpload(filename string, data []byte) (string, error) {
	if err := validDocumentID(filename); err != nil {
		return "", err
	}
	docDir := filepath.Join(s.dir, filename)
	if err := os.MkdirAll(docDir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(docDir, filename+".html"), data, 0o644); err != nil {
		return "", err
	}
	return filename, nil
}

// AssetPath resolves a relative asset reference inside the document's
// folder, refusing anything that escapes it.
func (s *DocumentStore) AssetPath(documentID, rel string) (string, error) {
	if err := validDocumentID(documentID); err != nil {
		return "", err
	}
	clean := path.Clean("/" + rel)
	if clean == "/" {
		return "", fmt.Errorf("empty asset path")
	}
	return filepath.Join(s.dir, documentID, filepath.FromSlash(clean[1:])), nil
}

// ImportArchive extracts a converter asset archive into the document's
// folder. The archive carries the clean markdown (with relative
// images/ paths) next to an images/ or assets/ directory; the media
// files land under <doc>/images regardless of the archive's name for
// that directory. Returns the archive markdown when found.
func (s *DocumentStore) ImportArchive(documentID string, archive []byte) (markdown string, hasImages bool, err error) {
	if err := validDocumentID(documentID); err != nil {
		return "", false, err
	}

	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return "", false, fmt.Errorf("open asset archive: %w", err)
	}

	var mdDir string
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !strings.HasSuffix(f.Name, ".md") {
			continue
		}
		rc, openErr := f.Open()
		if openErr != nil {
			return "", false, openErr
		}
		b, readErr := io.ReadAll(rc)
		rc.Close()
		if readErr != nil {
			return "", false, readErr
		}
		markdown = string(b)
		mdDir = path.Dir(f.Name)
		break
	}

	imagesDir := filepath.Join(s.dir, documentID, "images")
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rel := f.Name
		if mdDir != "." && mdDir != "" {
			rel = strings.TrimPrefix(rel, mdDir+"/")
		}

		var inMedia bool
		switch {
		case strings.HasPrefix(rel, "images/"):
			rel = strings.TrimPrefix(rel, "images/")
			inMedia = true
		case strings.HasPrefix(rel, "assets/"):
			rel = strings.TrimPrefix(rel, "assets/")
			inMedia = true
		}
		if !inMedia || rel == "" || strings.Contains(rel, "..") {
			continue
		}

		dest := filepath.Join(imagesDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return "", false, err
		}
		rc, openErr := f.Open()
		if openErr != nil {
			return "", false, openErr
		}
		b, readErr := io.ReadAll(rc)
		rc.Close()
		if readErr != nil {
			return "", false, readErr
		}
		if err := os.WriteFile(dest, b, 0o644); err != nil {
			return "", false, err
		}
		hasImages = true
	}

	// The converter sometimes names the media folder "assets"; the
	// markdown is normalized to reference images/ either way.
	if hasImages && markdown != "" {
		markdown = strings.ReplaceAll(markdown, "](assets/", "](images/")
	}

	return markdown, hasImages, nil
}
