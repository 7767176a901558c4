// Package extract turns an uploaded file into bounded prompt context, or into a
// re-encoded PNG for image uploads.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/document/parser"
	"golang.org/x/text/encoding/unicode"

	"docqa/internal/models"
)

const DefaultContextLimit = 3000

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrImageProcessing   = errors.New("error processing image")
)

// Strategy is the extraction rule selected for an upload.
type Strategy int

const (
	StrategyNone Strategy = iota
	StrategyPDF
	StrategyJSON
	StrategyJSONL
	StrategyText
	StrategyImage
	StrategyFallback
	StrategyUnsupported
)

func (s Strategy) String() string {
	switch s {
	case StrategyPDF:
		return "pdf"
	case StrategyJSON:
		return "json"
	case StrategyJSONL:
		return "jsonl"
	case StrategyText:
		return "text"
	case StrategyImage:
		return "image"
	case StrategyFallback:
		return "fallback"
	case StrategyUnsupported:
		return "unsupported"
	default:
		return "none"
	}
}

var imageExts = map[string]struct{}{
	".png":  {},
	".jpeg": {},
	".jpg":  {},
	".webp": {},
}

// IsImageName reports whether a filename selects the image strategy.
func IsImageName(name string) bool {
	for ext := range imageExts {
		if strings.HasSuffix(strings.ToLower(name), ext) {
			return true
		}
	}
	return false
}

// Detect picks the strategy for an upload; the first matching rule wins.
func Detect(u *models.Upload, strict bool) Strategy {
	if u == nil {
		return StrategyNone
	}
	name := u.Name()
	switch {
	case strings.HasSuffix(name, ".pdf") || u.MediaType() == "application/pdf":
		return StrategyPDF
	case strings.HasSuffix(name, ".json"):
		return StrategyJSON
	case strings.HasSuffix(name, ".jsonl"):
		return StrategyJSONL
	case strings.HasSuffix(name, ".txt"):
		return StrategyText
	case IsImageName(name):
		return StrategyImage
	case strict:
		return StrategyUnsupported
	default:
		return StrategyFallback
	}
}

// ArtifactSaver persists a processed image and returns where it was written.
type ArtifactSaver interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
}

// Result is what an upload contributes to the request. Text is always set
// (possibly empty) for text strategies; ImagePath is set for images.
type Result struct {
	Strategy  Strategy
	Text      string
	ImagePath string
	ImageName string
}

type Options struct {
	Limit  int
	Strict bool
}

// Extractor dispatches uploads to eino document parsers.
type Extractor struct {
	parsers   map[Strategy]parser.Parser
	artifacts ArtifactSaver
	limit     int
	strict    bool
}

func New(artifacts ArtifactSaver, opts Options) *Extractor {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultContextLimit
	}
	text := parser.TextParser{}
	return &Extractor{
		parsers: map[Strategy]parser.Parser{
			StrategyPDF:      pdfParser{},
			StrategyJSON:     jsonParser{},
			StrategyJSONL:    text,
			StrategyText:     text,
			StrategyFallback: text,
		},
		artifacts: artifacts,
		limit:     limit,
		strict:    opts.Strict,
	}
}

// Extract never fails for text strategies: parse errors are logged and
// degrade to empty context. Images fail with ErrImageProcessing and unknown
// types in strict mode with ErrUnsupportedFormat.
func (e *Extractor) Extract(ctx context.Context, u *models.Upload) (*Result, error) {
	strategy := Detect(u, e.strict)
	res := &Result{Strategy: strategy}
	switch strategy {
	case StrategyNone:
		return res, nil
	case StrategyUnsupported:
		return res, fmt.Errorf("%w: %s", ErrUnsupportedFormat, u.Name())
	case StrategyImage:
		name := "processed_" + u.Name()
		path, err := e.processImage(ctx, u.Data, name)
		if err != nil {
			log.Printf("process image %s failed: %v", u.Name(), err)
			return res, fmt.Errorf("%w: %v", ErrImageProcessing, err)
		}
		res.ImagePath = path
		res.ImageName = name
		return res, nil
	}

	text, err := e.parse(ctx, strategy, u)
	if err != nil {
		log.Printf("extract %s text from %s failed: %v", strategy, u.Name(), err)
		return res, nil
	}
	res.Text = Truncate(text, e.limit)
	return res, nil
}

func (e *Extractor) parse(ctx context.Context, strategy Strategy, u *models.Upload) (string, error) {
	p, ok := e.parsers[strategy]
	if !ok {
		return "", fmt.Errorf("no parser for %s", strategy)
	}
	var reader io.Reader = bytes.NewReader(u.Data)
	if strategy != StrategyPDF {
		reader = strings.NewReader(DecodeLossy(u.Data))
	}
	docs, err := p.Parse(ctx, reader, parser.WithURI(u.Name()))
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(docs))
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		parts = append(parts, doc.Content)
	}
	return strings.Join(parts, "\n"), nil
}

// DecodeLossy decodes UTF-8, replacing invalid sequences with U+FFFD.
func DecodeLossy(data []byte) string {
	out, err := unicode.UTF8.NewDecoder().Bytes(data)
	if err != nil {
		return strings.ToValidUTF8(string(data), "\uFFFD")
	}
	return string(out)
}

// Truncate keeps at most limit characters of s.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	count := 0
	for idx := range s {
		if count == limit {
			return s[:idx]
		}
		count++
	}
	return s
}
