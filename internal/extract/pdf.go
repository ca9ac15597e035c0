package extract

import (
	"bytes"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ledongthuc/pdf"
)

// pageSource is a parsed paginated document.
type pageSource interface {
	NumPage() int
	PageText(page int) (string, error)
}

// openPDF is swapped in tests.
var openPDF = func(data []byte) (pageSource, error) {
	return newPDFDoc(data)
}

type pdfDoc struct {
	r *pdf.Reader
}

func newPDFDoc(data []byte) (doc *pdfDoc, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.Newf("malformed pdf: %v", rec)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	return &pdfDoc{r: r}, nil
}

func (d *pdfDoc) NumPage() int {
	return d.r.NumPage()
}

// PageText returns the plain text of a 1-based page. Blank pages are errors so they get retried.
func (d *pdfDoc) PageText(n int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.Newf("page %d: malformed content: %v", n, rec)
		}
	}()

	p := d.r.Page(n)
	if p.V.IsNull() {
		return "", errors.Newf("page %d: missing", n)
	}
	fonts := make(map[string]*pdf.Font)
	for _, name := range p.Fonts() {
		f := p.Font(name)
		fonts[name] = &f
	}
	text, err = p.GetPlainText(fonts)
	if err != nil {
		return "", errors.Wrapf(err, "page %d", n)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.Wrapf(errBlankPage, "page %d", n)
	}
	return text, nil
}
