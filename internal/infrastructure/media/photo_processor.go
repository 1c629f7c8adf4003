// Package media decodes uploaded photos and computes their perceptual
// fingerprints.
package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"regexp"
	"strings"

	"github.com/AtRiskMedia/skycards-go/internal/domain/photos"
	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrEmptyPhoto    = errors.New("empty photo data")
	ErrPhotoTooLarge = errors.New("photo exceeds size limit")
)

var dataURIPattern = regexp.MustCompile(`^data:(image/[\w.+-]+);base64,`)

// PhotoProcessor turns client uploads into images and fingerprints.
type PhotoProcessor struct {
	maxBytes int
}

// NewPhotoProcessor creates a PhotoProcessor. maxBytes <= 0 disables the
// size check.
func NewPhotoProcessor(maxBytes int) *PhotoProcessor {
	return &PhotoProcessor{maxBytes: maxBytes}
}

// DecodeDataURI accepts either a data URI or bare base64 and returns the raw
// bytes together with the declared MIME type. Bare base64 is sniffed.
func (p *PhotoProcessor) DecodeDataURI(data string) ([]byte, string, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return nil, "", ErrEmptyPhoto
	}

	mime := ""
	if m := dataURIPattern.FindStringSubmatch(data); m != nil {
		mime = m[1]
		data = data[len(m[0]):]
	} else if idx := strings.IndexByte(data, ','); idx >= 0 {
		data = data[idx+1:]
	}

	if p.maxBytes > 0 && base64.StdEncoding.DecodedLen(len(data)) > p.maxBytes+3 {
		return nil, "", ErrPhotoTooLarge
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode base64: %w", err)
	}
	if len(raw) == 0 {
		return nil, "", ErrEmptyPhoto
	}
	if p.maxBytes > 0 && len(raw) > p.maxBytes {
		return nil, "", ErrPhotoTooLarge
	}

	if mime == "" {
		mime = sniffMIME(raw)
	}
	return raw, mime, nil
}

// DecodeImage decodes PNG, JPEG, GIF, BMP, TIFF or WebP bytes.
func (p *PhotoProcessor) DecodeImage(raw []byte) (image.Image, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyPhoto
	}
	if isWebP(raw) {
		img, err := webp.Decode(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("failed to decode webp: %w", err)
		}
		return img, nil
	}
	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// Fingerprint decodes raw and returns its perceptual hash.
func (p *PhotoProcessor) Fingerprint(raw []byte) (photos.Fingerprint, error) {
	img, err := p.DecodeImage(raw)
	if err != nil {
		return 0, err
	}
	return PerceptualHash(img), nil
}

func isWebP(raw []byte) bool {
	return len(raw) >= 12 && string(raw[0:4]) == "RIFF" && string(raw[8:12]) == "WEBP"
}

// sniffMIME detects the image type of bare base64 uploads. Anything that is
// not recognisably an image is assumed to be JPEG, which is what phone
// cameras send.
func sniffMIME(raw []byte) string {
	if mtype := mimetype.Detect(raw); strings.HasPrefix(mtype.String(), "image/") {
		return mtype.String()
	}
	return "image/jpeg"
}
