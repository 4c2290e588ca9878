package entity

import "fmt"

// PixelBuffer — декодированное изображение: RGBA построчно, 4 байта на пиксель.
type PixelBuffer struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewPixelBuffer проверяет размеры и оборачивает готовый массив пикселей.
func NewPixelBuffer(width, height int, pix []uint8) (*PixelBuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d image", ErrInvalidRegion, width, height)
	}
	if len(pix) != width*height*4 {
		return nil, fmt.Errorf("pixel buffer size mismatch: got %d bytes, want %d", len(pix), width*height*4)
	}
	return &PixelBuffer{Width: width, Height: height, Pix: pix}, nil
}

// RGB возвращает каналы пикселя (x, y); альфа игнорируется.
func (b *PixelBuffer) RGB(x, y int) (r, g, bl int) {
	i := (y*b.Width + x) * 4
	return int(b.Pix[i]), int(b.Pix[i+1]), int(b.Pix[i+2])
}
