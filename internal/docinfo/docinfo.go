// Package docinfo reads document metadata used to report on document
// watermark jobs.
package docinfo

import (
	"fmt"
	"os"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var disableConfig sync.Once

// Info describes a PDF document.
type Info struct {
	Pages   int    `json:"pages"`
	Version string `json:"version"`
}

// Inspect parses the PDF at path in relaxed validation mode.
func Inspect(path string) (Info, error) {
	disableConfig.Do(api.DisableConfigDir)

	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(f, conf)
	if err != nil {
		return Info{}, fmt.Errorf("parse pdf %s: %w", path, err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return Info{}, fmt.Errorf("count pages of %s: %w", path, err)
	}
	return Info{Pages: ctx.PageCount, Version: ctx.HeaderVersion.String()}, nil
}

// PageCount returns the number of pages in the PDF at path.
func PageCount(path string) (int, error) {
	info, err := Inspect(path)
	if err != nil {
		return 0, err
	}
	return info.Pages, nil
}
