// Package store writes finished captures to disk as PNG or PDF.
package store

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"

	"github.com/example/markshot/internal/session"
)

// Format is an export file format.
type Format string

const (
	PNG Format = "png"
	PDF Format = "pdf"
)

// Formats lists the supported formats.
func Formats() []Format { return []Format{PNG, PDF} }

// ParseFormat accepts a format name with or without a leading dot.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))); f {
	case "", PNG:
		return PNG, nil
	case PDF:
		return PDF, nil
	}
	return "", fmt.Errorf("unknown format %q (want png or pdf)", s)
}

// FormatForPath picks the format from a file extension, defaulting to PNG.
func FormatForPath(path string) Format {
	if f, err := ParseFormat(filepath.Ext(path)); err == nil {
		return f
	}
	return PNG
}

// Encode writes img to w in format f.
func Encode(w io.Writer, img *image.RGBA, f Format, md session.Metadata) error {
	switch f {
	case PNG, "":
		return png.Encode(w, img)
	case PDF:
		return encodePDF(w, img, md)
	}
	return fmt.Errorf("unknown format %q", f)
}

// encodePDF places img on a single page of the same size, one point per
// pixel.
func encodePDF(w io.Writer, img *image.RGBA, md session.Metadata) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode page image: %w", err)
	}
	width, height := float64(img.Bounds().Dx()), float64(img.Bounds().Dy())
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: width, Ht: height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("markshot", true)
	pdf.SetTitle("Screenshot "+md.Source, true)
	if md.ID != uuid.Nil {
		pdf.SetKeywords(md.ID.String(), true)
	}
	if !md.Timestamp.IsZero() {
		pdf.SetCreationDate(md.Timestamp)
	}
	pdf.AddPage()
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("capture", opts, &buf)
	pdf.ImageOptions("capture", 0, 0, width, height, false, opts, 0, "")
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("build pdf: %w", err)
	}
	return pdf.Output(w)
}

// WriteFile writes img to path in the format named by its extension.
func WriteFile(path string, img *image.RGBA, md session.Metadata) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output %q: %w", path, err)
	}
	if err := write(f, img, FormatForPath(path), md); err != nil {
		return fmt.Errorf("write %q: %w", path, err)
	}
	return nil
}

func write(f *os.File, img *image.RGBA, format Format, md session.Metadata) error {
	bw := bufio.NewWriter(f)
	err := Encode(bw, img, format, md)
	if err == nil {
		err = bw.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		if rerr := os.Remove(f.Name()); rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
			log.Printf("remove partial %s: %v", f.Name(), rerr)
		}
	}
	return err
}

// Dir persists captures into a directory as screenshot_<RFC3339>.<ext>.
type Dir struct {
	Path   string
	Format Format
}

// Persist implements session.Persister. The file name never replaces an
// existing file.
func (d Dir) Persist(ctx context.Context, img *image.RGBA, md session.Metadata) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	format := d.Format
	if format == "" {
		format = PNG
	}
	dir := d.Path
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create save directory: %w", err)
	}
	ts := md.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	stem := "screenshot_" + ts.Format(time.RFC3339)
	for attempt := 0; ; attempt++ {
		name := stem
		if attempt > 0 {
			name = fmt.Sprintf("%s_%d", stem, attempt)
		}
		path := filepath.Join(dir, name+"."+string(format))
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) && attempt < 100 {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create %q: %w", path, err)
		}
		if err := write(f, img, format, md); err != nil {
			return "", fmt.Errorf("write %q: %w", path, err)
		}
		return path, nil
	}
}
