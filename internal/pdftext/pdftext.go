// Package pdftext turns statement documents into text lines.
package pdftext

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	// ErrEncrypted is returned for password protected documents.
	ErrEncrypted = errors.New("document is encrypted")
	// ErrUnreadable is returned for documents that are not well-formed PDF.
	ErrUnreadable = errors.New("document is unreadable")
)

// Extractor produces the text lines of one document in reading order.
type Extractor interface {
	Lines(r io.Reader) ([]string, error)
}

// Reader extracts text from PDF documents.
type Reader struct {
	// SpaceRatio is the horizontal gap between two text runs, relative to the font size, above which
	// a space is inserted. Zero means 0.15.
	SpaceRatio float64
}

// Lines reads the whole document and returns its text one row per line, pages in order.
func (x Reader) Lines(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	return x.linesOf(data)
}

func (x Reader) linesOf(data []byte) (lines []string, err error) {
	// The PDF library panics on some malformed inputs.
	defer func() {
		if rec := recover(); rec != nil {
			lines, err = nil, fmt.Errorf("%w: %v", ErrUnreadable, rec)
		}
	}()

	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		if errors.Is(err, pdf.ErrInvalidPassword) {
			return nil, fmt.Errorf("%w: %v", ErrEncrypted, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	for i := 1; i <= doc.NumPage(); i++ {
		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", ErrUnreadable, i, err)
		}
		for _, row := range rows {
			lines = append(lines, x.joinRow(row.Content))
		}
	}
	return lines, nil
}

func (x Reader) joinRow(texts pdf.TextHorizontal) string {
	ratio := x.SpaceRatio
	if ratio == 0 {
		ratio = 0.15
	}
	sort.SliceStable(texts, func(i, j int) bool { return texts[i].X < texts[j].X })

	var b strings.Builder
	end := math.Inf(-1)
	for _, t := range texts {
		if b.Len() > 0 && t.X-end > ratio*t.FontSize && !strings.HasSuffix(b.String(), " ") && !strings.HasPrefix(t.S, " ") {
			b.WriteByte(' ')
		}
		b.WriteString(t.S)
		end = t.X + t.W
	}
	return b.String()
}

// Text reads documents that are already plain text, one statement line per text line.
type Text struct{}

// Lines splits r into lines. CRLF and CR line endings are normalized.
func (Text) Lines(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	normalized := strings.ReplaceAll(strings.ReplaceAll(string(data), "\r\n", "\n"), "\r", "\n")

	var lines []string
	sc := bufio.NewScanner(strings.NewReader(normalized))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return lines, nil
}

// ByExtension picks Text for ".txt" names and Reader otherwise.
func ByExtension(name string) Extractor {
	if strings.EqualFold(filepath.Ext(name), ".txt") {
		return Text{}
	}
	return Reader{}
}
