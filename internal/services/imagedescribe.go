package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"path"
	"strings"
)

// AssetURLPrefix is the route under which per-document asset folders
// are served; local image references must be rooted here.
const AssetURLPrefix = "/api/documents_assets/"

var ErrUnsupportedImageReference = errors.New("unsupported image reference")

// imageAnalysisPrompt asks for a description exhaustive enough that a
// text-only model can answer questions about the image without seeing
// it.
const imageAnalysisPrompt = `Analyze this image exhaustively so that someone who cannot see it could still answer questions about its content.

1. Image type and core subject: identify what kind of image this is (slide, diagram, chart, flowchart, map, photo, manuscript page) and its primary topic, overall composition, and visual style.
2. Verbatim text transcription: transcribe all textual content exactly as it appears, grouped by its location or function (headers, captions, labels, legend text), preserving language and formatting.
3. Discrete visual elements: analyze each significant non-textual element one by one. Identify its components (axes, data series, legends, labeled parts, arrows, symbols), describe how they are connected and organized, and define precisely what every annotation points to, every axis range and unit, and every arrow's start, end, and meaning.
4. Tables and data sets: replicate any tables perfectly in Markdown, with all headers, rows, and columns.
5. Formulas and special notation: transcribe mathematical equations, chemical formulas, and other formal notation, defining each variable from the surrounding context.
6. Concluding summary: a final, holistic statement of what the image factually presents, without interpretation.`

// AssetResolver maps a relative asset reference inside a document
// folder to a filesystem path.
type AssetResolver interface {
	AssetPath(documentID, rel string) (string, error)
}

// FileReader reads resolved asset files; split out so tests can point
// the describer at a temp directory.
type FileReader func(path string) ([]byte, error)

// ImageDescriber fetches an image by reference and asks the vision
// model for an exhaustive description, which downstream text-only
// context assembly substitutes for the image itself. Every failure
// degrades to an unavailable Source; a chat never aborts over an
// image. No caching: a reference is re-fetched and re-described each
// time it appears.
type ImageDescriber struct {
	model    ModelClient
	assets   AssetResolver
	client   *http.Client
	readFile FileReader
}

func NewImageDescriber(model ModelClient, assets AssetResolver, readFile FileReader) *ImageDescriber {
	return &ImageDescriber{
		model:    model,
		assets:   assets,
		client:   &http.Client{},
		readFile: readFile,
	}
}

// Describe resolves an image reference (local asset path or absolute
// http(s) URL), fetches the bytes, and runs the vision analysis.
func (d *ImageDescriber) Describe(ctx context.Context, ref string) Source {
	data, mimeType, err := d.fetch(ctx, ref)
	if err != nil {
		log.Printf("WARNING: image reference %q unusable: %v", ref, err)
		return UnavailableSource(err.Error())
	}

	desc, err := d.model.DescribeImage(ctx, data, mimeType, imageAnalysisPrompt)
	if err != nil {
		log.Printf("WARNING: image analysis failed for %q: %v", ref, err)
		return UnavailableSource(fmt.Sprintf("image analysis failed: %v", err))
	}
	return TextSource(desc)
}

func (d *ImageDescriber) fetch(ctx context.Context, ref string) (data []byte, mimeType string, err error) {
	switch {
	case strings.HasPrefix(ref, AssetURLPrefix):
		return d.fetchLocal(ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return d.fetchRemote(ctx, ref)
	default:
		return nil, "", fmt.Errorf("%w: %q", ErrUnsupportedImageReference, ref)
	}
}

func (d *ImageDescriber) fetchLocal(ref string) ([]byte, string, error) {
	rel := strings.TrimPrefix(ref, AssetURLPrefix)
	documentID, assetRel, ok := strings.Cut(rel, "/")
	if !ok || assetRel == "" {
		return nil, "", fmt.Errorf("%w: %q", ErrUnsupportedImageReference, ref)
	}

	p, err := d.assets.AssetPath(documentID, assetRel)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %q", ErrUnsupportedImageReference, ref)
	}

	data, err := d.readFile(p)
	if err != nil {
		return nil, "", fmt.Errorf("image file not found: %s", assetRel)
	}

	mimeType := mime.TypeByExtension(path.Ext(assetRel))
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = "image/png"
	}
	return data, mimeType, nil
}

func (d *ImageDescriber) fetchRemote(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("image fetch failed: %v", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("image fetch failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("image fetch failed: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("image fetch failed: %v", err)
	}

	mimeType := resp.Header.Get("Content-Type")
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if !strings.HasPrefix(mimeType, "image/") {
		// Absent or non-image content types default to PNG.
		mimeType = "image/png"
	}
	return data, mimeType, nil
}
