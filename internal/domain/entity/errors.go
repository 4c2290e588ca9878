package entity

import "errors"

var (
	// ErrInvalidRegion — прямоугольник нулевой или отрицательной площади.
	ErrInvalidRegion = errors.New("invalid region")
	// ErrNoImagesProvided — пустой набор изображений.
	ErrNoImagesProvided = errors.New("no images provided")
	// ErrImageDecode — изображение не удалось декодировать.
	ErrImageDecode = errors.New("image decode failure")
	// ErrImageTooSmall — изображение меньше сетки анализа.
	ErrImageTooSmall = errors.New("image too small")
	// ErrTooManyImages — превышен лимит изображений в одном запуске.
	ErrTooManyImages = errors.New("too many images")
	// ErrReportNotFound — отчёт с таким ID не найден.
	ErrReportNotFound = errors.New("report not found")
	// ErrDiagnosisInProgress — у пользователя уже идёт диагностика.
	ErrDiagnosisInProgress = errors.New("diagnosis already in progress")
	// ErrDescriberDisabled — описатель на базе ИИ не настроен.
	ErrDescriberDisabled = errors.New("describer is not configured")
)
