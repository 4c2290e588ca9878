package port

import (
	"context"

	"vision-diagnostics/internal/domain/entity"
)

// DiagnosticEngine интерфейс движка диагностики по изображениям
type DiagnosticEngine interface {
	// Diagnose анализирует набор изображений и строит сводный отчёт
	Diagnose(ctx context.Context, images []entity.ImageInput) (*entity.DiagnosticReport, error)
}

// ImageDecoder интерфейс декодера изображений
type ImageDecoder interface {
	// Decode превращает байты файла в RGBA-буфер
	Decode(data []byte) (*entity.PixelBuffer, error)
}
