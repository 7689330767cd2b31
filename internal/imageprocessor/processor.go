package imageprocessor

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

// ErrUnsupportedFormat - формат, который мы не перекодируем (webp, gif и т.п.)
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Processor ужимает фотографии объявлений перед загрузкой в хранилище
type Processor struct {
	quality int // JPEG 1-100
	maxSide int
}

func NewProcessor(quality, maxSide int) *Processor {
	if quality <= 0 || quality > 100 {
		quality = 85
	}
	return &Processor{
		quality: quality,
		maxSide: maxSide,
	}
}

// Downscale возвращает data без изменений, если картинка и так влезает в
// maxSide. Иначе - уменьшенную копию в том же формате с сохранением пропорций.
func (p *Processor) Downscale(data []byte) ([]byte, bool, error) {
	if p.maxSide <= 0 {
		return data, false, nil
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, false, fmt.Errorf("failed to decode image header: %w", err)
	}
	if format != "jpeg" && format != "png" {
		return data, false, ErrUnsupportedFormat
	}
	if cfg.Width <= p.maxSide && cfg.Height <= p.maxSide {
		return data, false, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, false, fmt.Errorf("failed to decode image: %w", err)
	}

	resized := p.resize(img, p.maxSide, p.maxSide)

	var buf bytes.Buffer
	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, resized, &jpeg.Options{Quality: p.quality})
	case "png":
		err = png.Encode(&buf, resized)
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode %s: %w", format, err)
	}
	return buf.Bytes(), true, nil
}

// resize вписывает картинку в maxWidth x maxHeight
func (p *Processor) resize(img image.Image, maxWidth, maxHeight int) image.Image {
	bounds := img.Bounds()
	ratio := float64(bounds.Dx()) / float64(bounds.Dy())

	newWidth, newHeight := maxWidth, maxHeight
	if float64(maxWidth)/float64(maxHeight) > ratio {
		newWidth = int(float64(maxHeight) * ratio)
	} else {
		newHeight = int(float64(maxWidth) / ratio)
	}
	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

// Dimensions - ширина и высота без полного декодирования
func Dimensions(data []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode image header: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}
