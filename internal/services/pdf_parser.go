package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ledongthuc/pdf"
)

// DocumentParser extracts plain text from an uploaded résumé.
type DocumentParser interface {
	ExtractText(ctx context.Context, filePath string) (string, error)
}

// PDFContent is the extracted text of a document.
type PDFContent struct {
	Text      string
	PageCount int
}

type PDFParserService struct{}

var _ DocumentParser = (*PDFParserService)(nil)

func NewPDFParserService() *PDFParserService {
	return &PDFParserService{}
}

// ExtractText implements DocumentParser. ctx is checked between pages.
func (p *PDFParserService) ExtractText(ctx context.Context, filePath string) (string, error) {
	content, err := p.extract(ctx, filePath, false)
	if err != nil {
		return "", err
	}
	return content.Text, nil
}

// ExtractTextWithMetaData is ExtractText with page markers and the page count,
// used when ingesting interview guides.
func (p *PDFParserService) ExtractTextWithMetaData(ctx context.Context, filePath string) (*PDFContent, error) {
	return p.extract(ctx, filePath, true)
}

func (p *PDFParserService) extract(ctx context.Context, filePath string, pageMarkers bool) (*PDFContent, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "parse aborted")
	}
	if _, err := os.Stat(filePath); err != nil {
		return nil, errors.Wrap(err, "document is not readable")
	}

	f, reader, err := pdf.Open(filePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open PDF")
	}
	defer f.Close()

	pages := reader.NumPage()
	var b strings.Builder

	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(err, "parse aborted at page %d", i)
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		// Unreadable pages are skipped; the rest may still carry text.
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		if pageMarkers {
			fmt.Fprintf(&b, "--- Page %d ---\n", i)
		}
		b.WriteString(text)
		b.WriteString("\n\n")
	}

	if strings.TrimSpace(b.String()) == "" {
		return nil, errors.Newf("no text content found in %s", filepath.Base(filePath))
	}

	return &PDFContent{Text: b.String(), PageCount: pages}, nil
}

// CleanText trims every line and drops blank ones.
func CleanText(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	cleanedLines := make([]string, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleanedLines = append(cleanedLines, line)
		}
	}

	return strings.Join(cleanedLines, "\n")
}
