//go:build !gocv
// +build !gocv

package decoder

import (
	"errors"

	"vision-diagnostics/internal/domain/entity"
)

// GoCVDecoder — заглушка для сборки без OpenCV.
type GoCVDecoder struct{}

// NewGoCVDecoder создаёт декодер-заглушку (без OpenCV).
func NewGoCVDecoder() *GoCVDecoder {
	return &GoCVDecoder{}
}

// Decode возвращает ошибку, если сборка без тега gocv.
func (d *GoCVDecoder) Decode(data []byte) (*entity.PixelBuffer, error) {
	_ = data
	return nil, errors.Join(entity.ErrImageDecode, errors.New("gocv build tag is not enabled"))
}
