package extraction

import (
	"bytes"
	"fmt"
	"image/jpeg"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

// maxPDFPages limits how many rendered pages are sent to the vision call.
// Statements and invoices carry their fields on the first pages; later pages
// only add cost.
const maxPDFPages = 2

// renderPDFPages converts the leading pages of a PDF into JPEG images
// suitable for a multimodal analysis call.
func renderPDFPages(data []byte, logger *zap.Logger) ([][]byte, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	if pageCount > maxPDFPages {
		pageCount = maxPDFPages
	}

	var pages [][]byte
	for pageNum := 0; pageNum < pageCount; pageNum++ {
		img, err := doc.Image(pageNum)
		if err != nil {
			logger.Warn("Failed to render PDF page",
				zap.Int("page", pageNum),
				zap.Error(err))
			continue
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
			logger.Warn("Failed to encode PDF page to JPEG",
				zap.Int("page", pageNum),
				zap.Error(err))
			continue
		}
		pages = append(pages, buf.Bytes())
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("no renderable pages in PDF")
	}
	return pages, nil
}
