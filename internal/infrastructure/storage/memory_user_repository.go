package storage

import (
	"context"
	"sync"

	"vision-diagnostics/internal/domain/entity"
	"vision-diagnostics/internal/domain/port"
)

// MemoryUserRepository in-memory хранилище пользователей и их незавершённых пакетов фото
type MemoryUserRepository struct {
	mu      sync.RWMutex
	users   map[int64]*entity.User
	pending map[int64][]entity.ImageUpload
}

// NewMemoryUserRepository создаёт новое in-memory хранилище
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users:   make(map[int64]*entity.User),
		pending: make(map[int64][]entity.ImageUpload),
	}
}

// Get возвращает копию пользователя по ID, создаёт нового если не найден
func (r *MemoryUserRepository) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	r.mu.RLock()
	user, exists := r.users[userID]
	if exists {
		u := *user
		r.mu.RUnlock()
		return &u, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	// Пока ждали блокировку, пользователя мог создать другой запрос.
	if user, exists := r.users[userID]; exists {
		u := *user
		return &u, nil
	}
	newUser := entity.NewUser(userID, chatID)
	r.users[userID] = newUser

	u := *newUser
	return &u, nil
}

// Save сохраняет копию состояния пользователя
func (r *MemoryUserRepository) Save(ctx context.Context, user *entity.User) error {
	u := *user
	r.mu.Lock()
	r.users[user.ID] = &u
	r.mu.Unlock()

	return nil
}

// UpdateState обновляет состояние пользователя
func (r *MemoryUserRepository) UpdateState(ctx context.Context, userID int64, state entity.UserState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user, exists := r.users[userID]; exists {
		user.SetState(state)
	}

	return nil
}

// AppendUpload добавляет фото в пакет пользователя и возвращает размер пакета
func (r *MemoryUserRepository) AppendUpload(ctx context.Context, userID int64, upload entity.ImageUpload) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pending[userID] = append(r.pending[userID], upload)
	return len(r.pending[userID]), nil
}

// PendingUploads возвращает число фото в пакете пользователя
func (r *MemoryUserRepository) PendingUploads(ctx context.Context, userID int64) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.pending[userID]), nil
}

// TakeUploads забирает пакет пользователя и очищает его
func (r *MemoryUserRepository) TakeUploads(ctx context.Context, userID int64) ([]entity.ImageUpload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	uploads := r.pending[userID]
	delete(r.pending, userID)
	return uploads, nil
}

// Проверка реализации интерфейса
var (
	_ port.UserRepository = (*MemoryUserRepository)(nil)
	_ port.UploadQueue    = (*MemoryUserRepository)(nil)
)
