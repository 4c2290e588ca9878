//go:build gocv
// +build gocv

package decoder

import (
	"fmt"

	"gocv.io/x/gocv"

	"vision-diagnostics/internal/domain/entity"
)

// GoCVDecoder декодирует изображения через OpenCV.
type GoCVDecoder struct{}

// NewGoCVDecoder создаёт декодер на базе gocv.
func NewGoCVDecoder() *GoCVDecoder {
	return &GoCVDecoder{}
}

// Decode превращает байты файла в RGBA-буфер.
func (d *GoCVDecoder) Decode(data []byte) (*entity.PixelBuffer, error) {
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrImageDecode, err)
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, fmt.Errorf("%w: empty image", entity.ErrImageDecode)
	}

	rgba := gocv.NewMat()
	defer rgba.Close()
	gocv.CvtColor(mat, &rgba, gocv.ColorBGRToRGBA)

	// ToBytes копирует данные, буфер переживает Close.
	return entity.NewPixelBuffer(rgba.Cols(), rgba.Rows(), rgba.ToBytes())
}
