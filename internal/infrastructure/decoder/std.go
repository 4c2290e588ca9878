package decoder

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"vision-diagnostics/internal/domain/entity"
)

// StdDecoder декодирует JPEG, PNG, GIF, BMP, TIFF и WebP без OpenCV.
type StdDecoder struct{}

// NewStdDecoder создаёт декодер на базе image и golang.org/x/image.
func NewStdDecoder() *StdDecoder {
	return &StdDecoder{}
}

// Decode превращает байты файла в RGBA-буфер без премультипликации альфы.
func (d *StdDecoder) Decode(data []byte) (*entity.PixelBuffer, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrImageDecode, err)
	}
	buf, err := FromImage(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", entity.ErrImageDecode, format, err)
	}
	return buf, nil
}

// FromImage копирует image.Image в PixelBuffer.
func FromImage(img image.Image) (*entity.PixelBuffer, error) {
	b := img.Bounds()
	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Stride != b.Dx()*4 || b.Min != (image.Point{}) {
		nrgba = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)
	}
	return entity.NewPixelBuffer(b.Dx(), b.Dy(), nrgba.Pix)
}
