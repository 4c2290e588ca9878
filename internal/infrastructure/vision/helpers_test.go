package vision

import "vision-diagnostics/internal/domain/entity"

func uniformBuffer(w, h int, r, g, b uint8) *entity.PixelBuffer {
	pix := make([]uint8, w*h*4)
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = r, g, b, 255
	}
	return &entity.PixelBuffer{Width: w, Height: h, Pix: pix}
}

func paint(buf *entity.PixelBuffer, rect entity.Rect, r, g, b uint8) {
	for y := rect.Y; y < rect.Y+rect.Height; y++ {
		for x := rect.X; x < rect.X+rect.Width; x++ {
			i := (y*buf.Width + x) * 4
			buf.Pix[i], buf.Pix[i+1], buf.Pix[i+2] = r, g, b
		}
	}
}

func grayInput(name string) entity.ImageInput {
	return entity.ImageInput{Buffer: uniformBuffer(40, 40, 128, 128, 128), FileName: name, FileSize: 1024}
}

func rustInput(name string) entity.ImageInput {
	return entity.ImageInput{Buffer: uniformBuffer(40, 40, 200, 100, 100), FileName: name, FileSize: 2048}
}
