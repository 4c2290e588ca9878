package entity

import "time"

// DiagnosisRecord — сохранённый отчёт вместе с метаданными запуска.
type DiagnosisRecord struct {
	ID        string            `json:"id"`
	UserID    int64             `json:"userId,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	Report    *DiagnosticReport `json:"report"`
	Narrative string            `json:"narrative,omitempty"` // пояснение от ИИ, если описатель настроен
}

// ImageUpload — исходный файл изображения до декодирования.
type ImageUpload struct {
	FileName string
	Data     []byte
}

// ImageInput — декодированное изображение, готовое к анализу.
type ImageInput struct {
	Buffer   *PixelBuffer
	FileName string
	FileSize int64
}
