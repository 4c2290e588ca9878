package port

import (
	"context"

	"vision-diagnostics/internal/domain/entity"
)

// UserRepository интерфейс хранилища пользователей
type UserRepository interface {
	// Get возвращает пользователя по ID, создаёт нового если не найден
	Get(ctx context.Context, userID, chatID int64) (*entity.User, error)

	// Save сохраняет состояние пользователя
	Save(ctx context.Context, user *entity.User) error

	// UpdateState обновляет состояние пользователя
	UpdateState(ctx context.Context, userID int64, state entity.UserState) error
}

// UploadQueue интерфейс очереди фото, собранных пользователем для пакетной проверки
type UploadQueue interface {
	// AppendUpload добавляет фото и возвращает размер пакета
	AppendUpload(ctx context.Context, userID int64, upload entity.ImageUpload) (int, error)

	// PendingUploads возвращает число фото в пакете
	PendingUploads(ctx context.Context, userID int64) (int, error)

	// TakeUploads забирает пакет и очищает его
	TakeUploads(ctx context.Context, userID int64) ([]entity.ImageUpload, error)
}
