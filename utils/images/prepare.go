// Package images reencodes extracted book images.
package images

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Options controls image preparation. Zero value leaves images intact.
type Options struct {
	MaxWidth              int
	JPEGQuality           int
	RasterizeSVG          bool
	SVGWidth              int
	RemovePNGTransparency bool
}

// Image is prepared image data.
type Image struct {
	Data      []byte
	MediaType string
	Changed   bool
}

func isSVG(mediaType string) bool {
	return strings.HasSuffix(strings.ToLower(mediaType), "svg+xml")
}

// browserSafe lists decoded formats which are kept as is unless pixels change.
func browserSafe(format string) bool {
	switch format {
	case "jpeg", "png", "gif", "webp":
		return true
	}
	return false
}

// Prepare performs requested modifications. Original data is returned when
// nothing has to be changed. Images which cannot be decoded are reported as
// errors, caller decides whether to keep original bytes.
func Prepare(data []byte, mediaType string, opts Options) (Image, error) {
	res := Image{Data: data, MediaType: mediaType}

	if isSVG(mediaType) {
		if !opts.RasterizeSVG {
			return res, nil
		}
		img, err := RasterizeSVG(data, opts.SVGWidth)
		if err != nil {
			return res, fmt.Errorf("unable to rasterize svg: %w", err)
		}
		return encode(img, "png", opts)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return res, fmt.Errorf("unable to decode image: %w", err)
	}

	changed := false
	if opts.MaxWidth > 0 && img.Bounds().Dx() > opts.MaxWidth {
		img = imaging.Resize(img, opts.MaxWidth, 0, imaging.Lanczos)
		changed = true
	}

	if opts.RemovePNGTransparency && format == "png" {
		if o, ok := img.(interface{ Opaque() bool }); ok && !o.Opaque() {
			opaque := image.NewRGBA(img.Bounds())
			draw.Draw(opaque, img.Bounds(), &image.Uniform{color.RGBA{255, 255, 255, 255}}, image.Point{}, draw.Src)
			draw.Draw(opaque, img.Bounds(), img, img.Bounds().Min, draw.Over)
			img = opaque
			changed = true
		}
	}

	switch {
	case format == "jpeg" && (changed || opts.JPEGQuality > 0):
		// unchanged image is replaced only when reencoding made it smaller
		out, err := encode(img, "jpeg", opts)
		if err != nil {
			return res, err
		}
		if !changed && len(out.Data) >= len(data) {
			return res, nil
		}
		return out, nil
	case changed, !browserSafe(format):
		return encode(img, "png", opts)
	}
	return res, nil
}

func encode(img image.Image, format string, opts Options) (Image, error) {
	buf := new(bytes.Buffer)
	switch format {
	case "jpeg":
		quality := opts.JPEGQuality
		if quality <= 0 {
			quality = 75
		}
		if err := imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			return Image{}, fmt.Errorf("unable to encode jpeg: %w", err)
		}
		return Image{Data: buf.Bytes(), MediaType: "image/jpeg", Changed: true}, nil
	default:
		if err := imaging.Encode(buf, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression)); err != nil {
			return Image{}, fmt.Errorf("unable to encode png: %w", err)
		}
		return Image{Data: buf.Bytes(), MediaType: "image/png", Changed: true}, nil
	}
}
