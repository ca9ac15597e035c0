package extract

import (
	"context"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"juris-backend/internal/shared/metrics"
	"juris-backend/internal/shared/telemetry"
)

// BatchSize is the number of PDF pages handled by one extraction worker.
const BatchSize = 5

// ContentKey holds the whole text of non-paginated documents.
const ContentKey = "content"

var (
	// ErrNoText is returned when a paginated document yields no text on any page.
	ErrNoText = errors.New("no valid text extracted from any pages")
	// ErrEmptyFile is returned for zero-length uploads.
	ErrEmptyFile = errors.New("empty file")

	errBlankPage = errors.New("blank page")
)

// Pages is the extraction result. Text is keyed by 1-based page number for PDFs
// and by ContentKey for other documents.
type Pages struct {
	Text    map[string]string `json:"extracted_text"`
	Skipped []int             `json:"skipped_pages"`
}

// ExtractPages extracts text from an uploaded document, dispatching on the file extension.
func ExtractPages(ctx context.Context, data []byte, fileName string) (Pages, error) {
	if err := ctx.Err(); err != nil {
		return Pages{}, err
	}
	if len(data) == 0 {
		return Pages{}, ErrEmptyFile
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return extractPDFPages(ctx, data)
	case ".docx":
		text, err := extractDOCX(data)
		if err != nil {
			return Pages{}, errors.Wrapf(err, "extract docx %s", fileName)
		}
		return contentPages(text), nil
	default:
		return contentPages(DecodeText(data)), nil
	}
}

func contentPages(text string) Pages {
	return Pages{Text: map[string]string{ContentKey: text}, Skipped: []int{}}
}

type pageResult struct {
	page int
	text string
	err  error
}

func extractPDFPages(ctx context.Context, data []byte) (Pages, error) {
	doc, err := openPDF(data)
	if err != nil {
		return Pages{}, errors.Wrap(err, "open pdf")
	}
	numPages := doc.NumPage()

	results := make([]pageResult, numPages)
	g, gctx := errgroup.WithContext(ctx)
	for start := 1; start <= numPages; start += BatchSize {
		start := start
		end := min(start+BatchSize-1, numPages)
		g.Go(func() error {
			// Each batch owns its reader; parsed PDF state is not shared across goroutines.
			batchDoc, err := openPDF(data)
			if err != nil {
				for p := start; p <= end; p++ {
					results[p-1] = pageResult{page: p, err: err}
				}
				return nil
			}
			for p := start; p <= end; p++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				text, err := batchDoc.PageText(p)
				results[p-1] = pageResult{page: p, text: text, err: err}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Pages{}, err
	}

	out := Pages{Text: make(map[string]string, numPages), Skipped: []int{}}
	var failed []int
	for _, r := range results {
		if r.err != nil {
			telemetry.Warn("extract.page.failed", map[string]any{"page": r.page, "error": r.err})
			failed = append(failed, r.page)
			continue
		}
		out.Text[strconv.Itoa(r.page)] = r.text
	}

	if len(failed) > 0 {
		retried, err := retryPages(ctx, data, failed)
		if err != nil {
			return Pages{}, err
		}
		for _, r := range retried {
			if r.err != nil {
				out.Skipped = append(out.Skipped, r.page)
				continue
			}
			out.Text[strconv.Itoa(r.page)] = r.text
		}
	}
	sort.Ints(out.Skipped)

	metrics.AddPages(len(out.Text), len(out.Skipped))
	if len(out.Text) == 0 && len(out.Skipped) > 0 {
		return out, ErrNoText
	}
	return out, nil
}

// retryPages re-extracts each failed page on its own reader.
func retryPages(ctx context.Context, data []byte, pages []int) ([]pageResult, error) {
	results := make([]pageResult, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(BatchSize)
	for i, p := range pages {
		i, p := i, p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			doc, err := openPDF(data)
			if err != nil {
				results[i] = pageResult{page: p, err: err}
				return nil
			}
			text, err := doc.PageText(p)
			results[i] = pageResult{page: p, text: text, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
