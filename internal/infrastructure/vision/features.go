package vision

import (
	"fmt"

	"vision-diagnostics/internal/domain/entity"
)

// Пороговые значения пиксельной классификации.
const (
	rustChannelMargin   = 30  // насколько красный канал должен превышать зелёный и синий
	rustMinRed          = 100 // минимальная яркость красного канала для ржавчины
	darkBrightness      = 80  // ниже — тёмный пиксель
	metallicMaxDelta    = 15  // максимальная разница каналов у металлического пикселя
	metallicMinBright   = 120 // минимальная яркость металлического пикселя
	textureBrightnessDx = 30  // перепад яркости между соседями, считающийся переходом
)

// ExtractFeatures считает статистику пикселей внутри rect за один проход.
// rect за пределами буфера — ошибка программиста, функция паникует.
func ExtractFeatures(buf *entity.PixelBuffer, rect entity.Rect) (entity.RegionFeatures, error) {
	if rect.Empty() {
		return entity.RegionFeatures{}, fmt.Errorf("%w: %dx%d at (%d,%d)", entity.ErrInvalidRegion, rect.Width, rect.Height, rect.X, rect.Y)
	}
	if !rect.Within(buf.Width, buf.Height) {
		panic(fmt.Sprintf("vision: region %+v outside %dx%d buffer", rect, buf.Width, buf.Height))
	}

	var (
		sumR, sumG, sumB int
		sumBrightness    float64
		red, dark        int
		metallic         int
		transitions      int
	)

	for y := rect.Y; y < rect.Y+rect.Height; y++ {
		for x := rect.X; x < rect.X+rect.Width; x++ {
			r, g, b := buf.RGB(x, y)
			brightness := float64(r+g+b) / 3

			sumR += r
			sumG += g
			sumB += b
			sumBrightness += brightness

			if isRust(r, g, b) {
				red++
			}
			if brightness < darkBrightness {
				dark++
			}
			if isMetallic(r, g, b, brightness) {
				metallic++
			}

			// Сравниваем с правым соседом внутри той же области; нижняя строка не участвует.
			if x+1 < rect.X+rect.Width && y+1 < rect.Y+rect.Height {
				nr, ng, nb := buf.RGB(x+1, y)
				next := float64(nr+ng+nb) / 3
				if abs(brightness-next) > textureBrightnessDx {
					transitions++
				}
			}
		}
	}

	n := float64(rect.Area())
	return entity.RegionFeatures{
		Region:            rect,
		PixelCount:        rect.Area(),
		RedPixelRatio:     float64(red) / n,
		DarkPixelRatio:    float64(dark) / n,
		AverageBrightness: sumBrightness / n,
		ChannelAverages: entity.ChannelAverages{
			Red:   float64(sumR) / n,
			Green: float64(sumG) / n,
			Blue:  float64(sumB) / n,
		},
		TextureVariationRatio: float64(transitions) / n,
		MetallicRatio:         float64(metallic) / n,
	}, nil
}

func isRust(r, g, b int) bool {
	return r > g+rustChannelMargin && r > b+rustChannelMargin && r > rustMinRed
}

func isMetallic(r, g, b int, brightness float64) bool {
	return absInt(r-g) < metallicMaxDelta &&
		absInt(g-b) < metallicMaxDelta &&
		absInt(r-b) < metallicMaxDelta &&
		brightness > metallicMinBright
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
