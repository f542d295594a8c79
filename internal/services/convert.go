package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
)

// ConvertOptions mirror the conversion service's knobs.
type ConvertOptions struct {
	MaxPages      int
	Language      string
	EnableFormula bool
	EnableTable   bool
}

// ConvertResult is what the pipeline hands back: markdown referencing
// relative images/ paths, a plain-text rendition, and optionally a zip
// of the extracted assets.
type ConvertResult struct {
	Markdown  string
	PlainText string
	AssetsZip []byte
}

// Converter is a thin client for the external PDF→Markdown pipeline.
// Without a configured base URL it degrades to local plain-text
// extraction, which yields no images but keeps uploads working.
type Converter struct {
	baseURL string
	client  *http.Client
}

func NewConverter(baseURL string) *Converter {
	return &Converter{baseURL: baseURL, client: &http.Client{}}
}

func (c *Converter) Convert(ctx context.Context, pdfData []byte, opts ConvertOptions) (*ConvertResult, error) {
	if c.baseURL == "" {
		log.Println("WARNING: no converter configured, falling back to local pdf text extraction")
		text, err := ExtractPDFText(pdfData)
		if err != nil {
			return nil, err
		}
		return &ConvertResult{Markdown: text, PlainText: text}, nil
	}
	return c.convertRemote(ctx, pdfData, opts)
}

func (c *Converter) convertRemote(ctx context.Context, pdfData []byte, opts ConvertOptions) (*ConvertResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", "document.pdf")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(pdfData); err != nil {
		return nil, err
	}
	mw.WriteField("max_pages", strconv.Itoa(opts.MaxPages))
	mw.WriteField("language", opts.Language)
	mw.WriteField("formula_enable", strconv.FormatBool(opts.EnableFormula))
	mw.WriteField("table_enable", strconv.FormatBool(opts.EnableTable))
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/convert", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("converter request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("converter returned status %d: %s", resp.StatusCode, detail)
	}

	var payload struct {
		Markdown  string `json:"markdown"`
		Text      string `json:"text"`
		AssetsZip string `json:"assets_zip"` // base64
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode converter response: %w", err)
	}
	if payload.Markdown == "" {
		return nil, fmt.Errorf("converter returned empty markdown")
	}

	result := &ConvertResult{Markdown: payload.Markdown, PlainText: payload.Text}
	if payload.AssetsZip != "" {
		zipData, err := base64.StdEncoding.DecodeString(payload.AssetsZip)
		if err != nil {
			return nil, fmt.Errorf("decode converter asset archive: %w", err)
		}
		result.AssetsZip = zipData
	}
	return result, nil
}
