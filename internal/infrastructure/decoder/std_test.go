package decoder

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"vision-diagnostics/internal/domain/entity"
)

func testImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 50), G: uint8(y * 100), B: 7, A: 255})
		}
	}
	return img
}

func TestStdDecoder_PNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage()))

	pb, err := NewStdDecoder().Decode(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, 4, pb.Width)
	require.Equal(t, 2, pb.Height)

	r, g, b := pb.RGB(3, 1)
	require.Equal(t, []int{150, 100, 7}, []int{r, g, b})
}

func TestStdDecoder_BMP(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, testImage()))

	pb, err := NewStdDecoder().Decode(buf.Bytes())
	require.NoError(t, err)
	r, g, b := pb.RGB(2, 0)
	require.Equal(t, []int{100, 0, 7}, []int{r, g, b})
}

func TestStdDecoder_Garbage(t *testing.T) {
	_, err := NewStdDecoder().Decode([]byte("not an image"))
	require.ErrorIs(t, err, entity.ErrImageDecode)
}

func TestFromImage_OffsetBounds(t *testing.T) {
	src := testImage()
	sub := src.SubImage(image.Rect(1, 1, 3, 2))

	pb, err := FromImage(sub)
	require.NoError(t, err)
	require.Equal(t, 2, pb.Width)
	require.Equal(t, 1, pb.Height)
	r, _, _ := pb.RGB(0, 0)
	require.Equal(t, 50, r)
}

func TestNew(t *testing.T) {
	d, err := New("")
	require.NoError(t, err)
	require.IsType(t, &StdDecoder{}, d)

	d, err = New(NameGoCV)
	require.NoError(t, err)
	require.IsType(t, &GoCVDecoder{}, d)

	_, err = New("imagemagick")
	require.Error(t, err)
}
