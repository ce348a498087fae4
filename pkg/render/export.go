package render

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"golang.org/x/image/bmp"

	"github.com/go-drift/stage/pkg/errors"
)

// Export formats.
const (
	FormatPNG  = "image/png"
	FormatJPEG = "image/jpeg"
	FormatBMP  = "image/bmp"
	FormatSVG  = "image/svg+xml"
)

// JPEGQuality is the quality used for image/jpeg exports.
var JPEGQuality = 92

// Encode writes img to w in the given raster format. An empty format is
// PNG.
func Encode(w io.Writer, img image.Image, format string) error {
	switch format {
	case "", FormatPNG:
		return png.Encode(w, img)
	case FormatJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: JPEGQuality})
	case FormatBMP:
		return bmp.Encode(w, img)
	}
	return fmt.Errorf("%w: %q", errors.ErrUnsupportedFormat, format)
}

func encodeDataURL(img image.Image, format string) (string, error) {
	if format == "" {
		format = FormatPNG
	}
	var buf bytes.Buffer
	if err := Encode(&buf, img, format); err != nil {
		return "", &errors.StageError{Op: "render.ToDataURL", Kind: errors.KindExport, Err: err}
	}
	return dataURL(format, buf.Bytes()), nil
}

func dataURL(format string, data []byte) string {
	return "data:" + format + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL splits a base64 data URL produced by ToDataURL into its
// media type and payload.
func DecodeDataURL(url string) (format string, data []byte, err error) {
	rest, ok := strings.CutPrefix(url, "data:")
	if !ok {
		return "", nil, fmt.Errorf("not a data URL")
	}
	format, payload, ok := strings.Cut(rest, ";base64,")
	if !ok {
		return "", nil, fmt.Errorf("data URL is not base64 encoded")
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, err
	}
	return format, data, nil
}
