package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestDescriber(t *testing.T, model *spyModel) (*ImageDescriber, string) {
	t.Helper()
	root := t.TempDir()
	d := NewImageDescriber(model, &tempAssets{root: root}, os.ReadFile)
	return d, root
}

func TestDescribe_UnsupportedReference(t *testing.T) {
	model := &spyModel{configured: true}
	d, _ := newTestDescriber(t, model)

	tests := []struct {
		name string
		ref  string
	}{
		{"relative path", "images/fig1.png"},
		{"data url", "data:image/png;base64,AAAA"},
		{"asset prefix without a file", AssetURLPrefix + "doc1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := d.Describe(context.Background(), tt.ref)
			if src.Available() {
				t.Fatalf("Expected unavailable source for %q", tt.ref)
			}
			if !strings.Contains(src.Reason, "unsupported image reference") {
				t.Errorf("Expected unsupported-reference reason, got %q", src.Reason)
			}
		})
	}

	if model.describeCalls != 0 {
		t.Errorf("Expected no vision calls, got %d", model.describeCalls)
	}
}

func TestDescribe_LocalAssetMissing(t *testing.T) {
	model := &spyModel{configured: true}
	d, _ := newTestDescriber(t, model)

	src := d.Describe(context.Background(), AssetURLPrefix+"doc1/images/missing.png")
	if src.Available() {
		t.Fatal("Expected unavailable source for a missing file")
	}
	if !strings.Contains(src.Reason, "image file not found") {
		t.Errorf("Expected not-found reason, got %q", src.Reason)
	}
	if model.describeCalls != 0 {
		t.Errorf("Expected no vision call, got %d", model.describeCalls)
	}
}

func TestDescribe_LocalAsset(t *testing.T) {
	model := &spyModel{configured: true, reply: "a bar chart"}
	d, root := newTestDescriber(t, model)

	dir := filepath.Join(root, "doc1", "images")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "fig1.jpg"), []byte("jpegbytes"), 0644); err != nil {
		t.Fatal(err)
	}

	src := d.Describe(context.Background(), AssetURLPrefix+"doc1/images/fig1.jpg")
	if !src.Available() {
		t.Fatalf("Expected available source, got reason %q", src.Reason)
	}
	if src.Text != "a bar chart" {
		t.Errorf("Expected the model description, got %q", src.Text)
	}
	if model.describeCalls != 1 {
		t.Fatalf("Expected one vision call, got %d", model.describeCalls)
	}
	if model.lastMimeType != "image/jpeg" {
		t.Errorf("Expected mime type from extension, got %q", model.lastMimeType)
	}
}

func TestDescribe_RemoteFetchStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	model := &spyModel{configured: true}
	d, _ := newTestDescriber(t, model)

	src := d.Describe(context.Background(), srv.URL+"/gone.png")
	if src.Available() {
		t.Fatal("Expected unavailable source for a 404 fetch")
	}
	if !strings.Contains(src.Reason, "status 404") {
		t.Errorf("Expected the status in the reason, got %q", src.Reason)
	}
	if model.describeCalls != 0 {
		t.Errorf("Expected no vision call, got %d", model.describeCalls)
	}
}

func TestDescribe_RemoteContentTypeDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write([]byte("pngbytes"))
	}))
	defer srv.Close()

	model := &spyModel{configured: true, reply: "a diagram"}
	d, _ := newTestDescriber(t, model)

	src := d.Describe(context.Background(), srv.URL+"/fig.png")
	if !src.Available() {
		t.Fatalf("Expected available source, got reason %q", src.Reason)
	}
	if model.lastMimeType != "image/png" {
		t.Errorf("Expected non-image content type to default to image/png, got %q", model.lastMimeType)
	}
}

func TestDescribe_RemoteContentTypeWithParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/webp; charset=binary")
		w.Write([]byte("webpbytes"))
	}))
	defer srv.Close()

	model := &spyModel{configured: true, reply: "ok"}
	d, _ := newTestDescriber(t, model)

	d.Describe(context.Background(), srv.URL+"/fig.webp")
	if model.lastMimeType != "image/webp" {
		t.Errorf("Expected media type stripped of parameters, got %q", model.lastMimeType)
	}
}

func TestDescribe_VisionFailureDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("pngbytes"))
	}))
	defer srv.Close()

	model := &spyModel{configured: true, err: context.DeadlineExceeded}
	d, _ := newTestDescriber(t, model)

	src := d.Describe(context.Background(), srv.URL+"/fig.png")
	if src.Available() {
		t.Fatal("Expected unavailable source when the vision call fails")
	}
	if !strings.Contains(src.Reason, "image analysis failed") {
		t.Errorf("Expected analysis-failure reason, got %q", src.Reason)
	}
}
