package services

import (
	"bytes"
	"log"
	"regexp"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// PostProcessor turns raw model output into the reply pair (text,
// html). Deterministic text transform, no I/O.
type PostProcessor struct {
	md goldmark.Markdown
}

func NewPostProcessor() *PostProcessor {
	return &PostProcessor{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(
				html.WithHardWraps(),
				// Raw image tags and inline math notation pass through
				// to the client untouched.
				html.WithUnsafe(),
			),
		),
	}
}

// Process unwraps code-fenced image tags, rewrites relative asset
// paths to the document's asset mount, and renders markdown to HTML.
func (p *PostProcessor) Process(raw, documentID string) (string, string) {
	unwrapped := p.unwrapFencedImages(raw)
	rewritten := rewriteAssetPaths(unwrapped, documentID)

	var buf bytes.Buffer
	if err := p.md.Convert([]byte(rewritten), &buf); err != nil {
		log.Printf("WARNING: markdown rendering failed: %v", err)
		return unwrapped, "<p>" + rewritten + "</p>"
	}
	return unwrapped, buf.String()
}

var imgTagLine = regexp.MustCompile(`^<img\b[^>]*>$`)

// unwrapFencedImages removes code fences the model sometimes wraps
// around bare image tags. Fenced blocks are located through the
// markdown AST rather than by text patterns, so indented or
// language-tagged fence variants are caught; a block qualifies when
// every non-blank line is a single image tag.
func (p *PostProcessor) unwrapFencedImages(src string) string {
	source := []byte(src)
	root := p.md.Parser().Parse(text.NewReader(source))

	type splice struct {
		start, end int
		body       string
	}
	var splices []splice

	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fc, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}

		body, ok := fencedImageBody(fc, source)
		if !ok {
			return ast.WalkContinue, nil
		}

		lines := fc.Lines()
		start, end, ok := fenceSpan(src, lines.At(0).Start, lines.At(lines.Len()-1).Stop)
		if !ok {
			return ast.WalkContinue, nil
		}
		splices = append(splices, splice{start: start, end: end, body: body})
		return ast.WalkContinue, nil
	})

	if len(splices) == 0 {
		return src
	}

	sort.Slice(splices, func(i, j int) bool { return splices[i].start > splices[j].start })
	out := src
	for _, s := range splices {
		out = out[:s.start] + s.body + out[s.end:]
	}
	return out
}

// fencedImageBody returns the fence's content when it consists solely
// of image tags, one per line.
func fencedImageBody(fc *ast.FencedCodeBlock, source []byte) (string, bool) {
	lines := fc.Lines()
	if lines.Len() == 0 {
		return "", false
	}

	var tags []string
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		line := strings.TrimSpace(string(source[seg.Start:seg.Stop]))
		if line == "" {
			continue
		}
		if !imgTagLine.MatchString(line) {
			return "", false
		}
		tags = append(tags, line)
	}
	if len(tags) == 0 {
		return "", false
	}
	return strings.Join(tags, "\n"), true
}

// fenceSpan widens the content span [first, last) to cover the
// backtick fence lines around it.
func fenceSpan(src string, first, last int) (int, int, bool) {
	open := strings.LastIndex(src[:first], "```")
	if open < 0 {
		return 0, 0, false
	}
	start := strings.LastIndex(src[:open], "\n") + 1

	end := last
	if close := strings.Index(src[last:], "```"); close >= 0 {
		end = last + close + 3
		for end < len(src) && src[end] == '`' {
			end++
		}
	}
	return start, end, true
}

// rewriteAssetPaths points relative images/ references at the
// document's asset mount. Already-absolute paths keep their prefix, so
// running the rewrite twice is a no-op.
func rewriteAssetPaths(text, documentID string) string {
	if documentID == "" {
		return text
	}
	base := AssetURLPrefix + documentID + "/images/"
	text = strings.ReplaceAll(text, "](images/", "]("+base)
	text = strings.ReplaceAll(text, `src="images/`, `src="`+base)
	text = strings.ReplaceAll(text, `src='images/`, `src='`+base)
	return text
}
