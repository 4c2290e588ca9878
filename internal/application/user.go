package app

import (
	"context"

	"vision-diagnostics/internal/domain/entity"
	"vision-diagnostics/internal/domain/port"
)

// UserService ведёт состояние диалога пользователя с ботом
type UserService struct {
	repo port.UserRepository
}

func NewUserService(repo port.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.repo.Get(ctx, userID, chatID)
}

func (s *UserService) SetState(ctx context.Context, userID, chatID int64, state entity.UserState) (*entity.User, error) {
	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	user.SetState(state)
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// BeginCheck открывает сбор пакета фото; пока идёт диагностика, новый пакет не начать
func (s *UserService) BeginCheck(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	if user.State == entity.StateProcessing {
		return user, entity.ErrDiagnosisInProgress
	}
	return s.SetState(ctx, userID, chatID, entity.StateCollectingPhotos)
}

// Reset возвращает пользователя в главное меню
func (s *UserService) Reset(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateMainMenu)
}

// Reserve переводит пользователя в обработку; повторный запуск до завершения отклоняется
func (s *UserService) Reserve(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	if user.State == entity.StateProcessing {
		return user, entity.ErrDiagnosisInProgress
	}
	return s.SetState(ctx, userID, chatID, entity.StateProcessing)
}

// Release возвращает пользователя в главное меню после обработки
func (s *UserService) Release(ctx context.Context, userID int64) error {
	return s.repo.UpdateState(ctx, userID, entity.StateMainMenu)
}
