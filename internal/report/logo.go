package report

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/richxcame/fleet-analytics/pkg/logger"
	"go.uber.org/zap"
)

// logoPixels bounds the embedded logo
const logoPixels = 256

var (
	placeholderBackground = color.NRGBA{R: 0x2c, G: 0x3e, B: 0x50, A: 0xff}
	placeholderInner      = color.NRGBA{R: 0xec, G: 0xf0, B: 0xf1, A: 0xff}
)

// Logo is an encoded image ready for the PDF renderer
type Logo struct {
	PNG         []byte
	Width       int
	Height      int
	Placeholder bool
}

// LoadLogo opens and fits the logo at path. A missing or unreadable file is
// not an error: a generated placeholder takes its place.
func LoadLogo(path string) *Logo {
	img, err := openLogo(path)
	placeholder := false
	if err != nil {
		logger.Warn("report logo unavailable, using placeholder", zap.String("path", path), zap.Error(err))
		img = Placeholder(logoPixels)
		placeholder = true
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		logger.Warn("failed to encode report logo", zap.Error(err))
		return nil
	}
	b := img.Bounds()
	return &Logo{PNG: buf.Bytes(), Width: b.Dx(), Height: b.Dy(), Placeholder: placeholder}
}

func openLogo(path string) (image.Image, error) {
	if path == "" {
		return nil, fmt.Errorf("no logo configured")
	}
	img, err := imaging.Open(path)
	if err != nil {
		return nil, err
	}
	return imaging.Fit(img, logoPixels, logoPixels, imaging.Lanczos), nil
}

// Placeholder draws a framed square of the given size.
func Placeholder(size int) image.Image {
	bg := imaging.New(size, size, placeholderBackground)
	inset := size / 8
	inner := imaging.New(size-2*inset, size-2*inset, placeholderInner)
	return imaging.Paste(bg, inner, image.Pt(inset, inset))
}
