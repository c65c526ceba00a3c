// Package preview validates incoming images and produces the compressed
// placeholder variant stored alongside an original upload.
package preview

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/img2tg/img2tg/internal/consts"

	// Telegram accepts WebP uploads; register the decoder so placeholders
	// can be generated for them too.
	_ "golang.org/x/image/webp"
)

const jpegQuality = 75

var allowedTypes = map[string]struct{}{
	consts.MimeJPEG: {},
	consts.MimePNG:  {},
	consts.MimeWebP: {},
	consts.MimeGIF:  {},
}

// AllowedType reports whether a declared content type is uploadable.
func AllowedType(contentType string) bool {
	_, ok := allowedTypes[contentType]
	return ok
}

// Placeholder re-encodes an image at half its original dimensions as a
// fixed-quality JPEG. The result is a distinct, smaller file meant for fast
// preview loading; the original bytes are never modified.
func Placeholder(data []byte) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := src.Bounds()
	width := bounds.Dx() / 2
	height := bounds.Dy() / 2
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	// Fit scales down only, so tiny images are never enlarged
	resized := imaging.Fit(src, width, height, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode placeholder: %w", err)
	}
	return buf.Bytes(), nil
}
