package watermark

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	imagePattern = regexp.MustCompile(`^image/\w{1,4}$`)
	pdfPattern   = regexp.MustCompile(`^application/(x-)?pdf$`)
)

// Classify maps a content type onto a Family.
func Classify(contentType string) (Family, error) {
	switch {
	case imagePattern.MatchString(contentType):
		return FamilyRaster, nil
	case pdfPattern.MatchString(contentType):
		return FamilyDocument, nil
	}
	return 0, &UnsupportedSourceError{ContentType: contentType}
}

// Sniffer reports the content type of a file.
type Sniffer interface {
	ContentType(path string) (string, error)
}

// MimeSniffer detects content types from file signatures.
type MimeSniffer struct{}

func (MimeSniffer) ContentType(path string) (string, error) {
	m, err := mimetype.DetectFile(path)
	if err != nil {
		return "", err
	}
	ct, _, _ := strings.Cut(m.String(), ";")
	return strings.TrimSpace(ct), nil
}

// SelectBuilder sniffs source and returns the matching builder.
func SelectBuilder(source string, sniffer Sniffer) (Builder, error) {
	ct, err := sniffer.ContentType(source)
	if err != nil {
		return nil, fmt.Errorf("detect content type of %s: %w", source, err)
	}
	family, err := Classify(ct)
	if err != nil {
		return nil, err
	}
	return NewBuilder(family, source)
}
