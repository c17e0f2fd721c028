package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kyc-compliance/kyc-intake/constants"
	"github.com/kyc-compliance/kyc-intake/internal/common"
)

// extractPDF cascades through strategies by cost: the poppler text layer
// first, then the mupdf text layer, and only then rasterization + character
// recognition. A strategy "succeeds" only when it yields non-whitespace text.
func (e *Extractor) extractPDF(ctx context.Context, path string) (ExtractionResult, error) {
	var warns []string

	text, pages, w, err := e.pdfToText(ctx, path)
	warns = append(warns, w...)
	if err == nil && strings.TrimSpace(text) != "" {
		return ExtractionResult{
			Text:       Normalize(text),
			Pages:      pages,
			SourceType: constants.PDF,
			Method:     "pdf-text",
			Warnings:   warns,
		}, nil
	}
	if err != nil {
		e.logger.Warn("pdftotext failed, trying mutool", "path", path, "error", err)
		warns = append(warns, err.Error())
	}

	text, pages, w, err = e.pdfToTextAlt(ctx, path)
	warns = append(warns, w...)
	if err == nil && strings.TrimSpace(text) != "" {
		return ExtractionResult{
			Text:       Normalize(text),
			Pages:      pages,
			SourceType: constants.PDF,
			Method:     "pdf-text-alt",
			Warnings:   warns,
		}, nil
	}
	if err != nil {
		e.logger.Warn("mutool failed, falling back to rasterized ocr", "path", path, "error", err)
		warns = append(warns, err.Error())
	}

	text, pages, w, err = e.pdfToOCR(ctx, path)
	warns = append(warns, w...)
	if err != nil {
		e.logger.Error("all pdf strategies exhausted", "path", path, "error", err)
		return ExtractionResult{SourceType: constants.PDF, Warnings: warns},
			fmt.Errorf("%w: %s: %v", common.ErrExtraction, filepath.Base(path), err)
	}
	return ExtractionResult{
		Text:       Normalize(text),
		Pages:      pages,
		SourceType: constants.PDF,
		Method:     "pdf-ocr",
		Warnings:   warns,
	}, nil
}

func (e *Extractor) pdfToText(ctx context.Context, path string) (text string, pages int, warnings []string, err error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", 0, []string{string(errb)}, err
	}
	text = string(out)
	// A form-feed \f is used as page separator by default
	pages = 1 + strings.Count(text, "\f")
	return text, pages, nil, nil
}

func (e *Extractor) pdfToTextAlt(ctx context.Context, path string) (text string, pages int, warnings []string, err error) {
	// mutool draw -F text -o - <path>
	out, errb, err := e.runner.Run(ctx, e.cfg.Mutool, "draw", "-F", "text", "-o", "-", path)
	if err != nil {
		return "", 0, []string{string(errb)}, err
	}
	text = string(out)
	pages = 1 + strings.Count(text, "\f")
	return text, pages, nil, nil
}

func (e *Extractor) pdfToOCR(ctx context.Context, path string) (text string, pages int, warnings []string, err error) {
	tmpDir, err := os.MkdirTemp("", "kyc-pp-*")
	if err != nil {
		return "", 0, nil, err
	}
	defer func(dir string) {
		if rerr := os.RemoveAll(dir); rerr != nil {
			e.logger.Warn("failed to remove temp dir", "dir", dir, "error", rerr)
		}
	}(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", e.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return "", 0, []string{string(errb)}, err
	}

	// collect generated pngs (prefix-1.png, prefix-2.png, ...)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return "", 0, []string{"pdftoppm produced no images"}, fmt.Errorf("no pages rendered")
	}

	var b strings.Builder
	var warns []string
	for _, img := range matches {
		txt, w, perr := e.tesseractOCR(ctx, img)
		if perr != nil {
			// page failure cascades to the next page
			warns = append(warns, perr.Error())
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(txt)
		warns = append(warns, w...)
	}
	pages = len(matches)
	return b.String(), pages, warns, nil
}
