package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrNotAnImage is returned when a payload is not a recognised image format.
var ErrNotAnImage = errors.New("payload is not an image")

// ErrEmptyImage is returned for empty payloads.
var ErrEmptyImage = errors.New("image payload is empty")

// ErrUnsupportedImage is returned for image formats outside AllowedImageTypes.
var ErrUnsupportedImage = errors.New("unsupported image type")

// AllowedImageTypes are the raster formats accepted for upload. Vector and
// markup based formats such as SVG can carry scripts and are refused.
var AllowedImageTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

// Image is a decoded image ready for upload.
type Image struct {
	Data        []byte
	ContentType string
	Extension   string
}

// NewImage sniffs the MIME type of data and rejects anything that is not
// one of AllowedImageTypes.
func NewImage(data []byte) (Image, error) {
	if len(data) == 0 {
		return Image{}, ErrEmptyImage
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return Image{}, fmt.Errorf("%w: detected %s", ErrNotAnImage, mt.String())
	}
	if !mimetype.EqualsAny(mt.String(), AllowedImageTypes...) {
		return Image{}, fmt.Errorf("%w: %s", ErrUnsupportedImage, mt.String())
	}
	return Image{
		Data:        data,
		ContentType: mt.String(),
		Extension:   mt.Extension(),
	}, nil
}

// DecodeBase64 decodes either a data URI ("data:image/png;base64,....") or a
// bare base64 string into an Image. The declared MIME type of a data URI is
// not trusted; the payload itself is sniffed.
func DecodeBase64(s string) (Image, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		comma := strings.IndexByte(s, ',')
		if comma < 0 || !strings.HasSuffix(s[:comma], ";base64") {
			return Image{}, errors.New("image data URI must be base64 encoded")
		}
		s = s[comma+1:]
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
		if err != nil {
			return Image{}, fmt.Errorf("invalid base64 image: %w", err)
		}
	}
	return NewImage(data)
}
