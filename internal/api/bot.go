package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	app "vision-diagnostics/internal/application"
	"vision-diagnostics/internal/container"
	"vision-diagnostics/internal/domain/entity"
)

const (
	msgStart = `👋 Hi! I diagnose equipment from photos.

📸 Send a photo of a unit and I will check it for corrosion, cracks, leaks, overheating and wear.

📋 Commands:
/check — collect several photos of one object
/done — run the diagnosis on the collected photos
/help — help
/cancel — cancel the current operation`

	msgHelp = `ℹ️ How to use the bot:

1️⃣ One photo: you get a report for it right away
2️⃣ Several angles: send /check, then the photos, then /done
3️⃣ Each photo is split into 16 zones, anomalies are found and correlated across the photos

💡 Tips:
• Shoot in good lighting
• The unit should fill most of the frame
• The photo must be sharp

📋 Commands:
/check — start collecting photos
/done — run the diagnosis
/cancel — cancel the operation`

	msgCollecting      = "📸 Send photos of the object. When you are done, send /done."
	msgPhotoAdded      = "📥 Photo %d added. Send more or /done to run the diagnosis."
	msgCancelled       = "❌ Cancelled. Send /check to start a new check."
	msgSendPhoto       = "📸 Please send a photo of the equipment to diagnose."
	msgUnknownCommand  = "❓ Unknown command. Use /help."
	msgProcessing      = "⏳ Analyzing images..."
	msgBusy            = "⏳ The previous diagnosis is still running, please wait."
	msgNoPhotos        = "📭 You have not sent any photos yet. Send a photo or /cancel."
	msgTooMany         = "⚠️ The limit of %d photos is reached. Send /done to run the diagnosis."
	msgTooLarge        = "⚠️ The file is too large. Maximum size: %d MB."
	msgDecodeError     = "⚠️ Could not read the image. Supported formats: JPEG, PNG, GIF, BMP, TIFF and WebP."
	msgTooSmall        = "⚠️ The image is too small to analyze. Send a photo at least 4×4 pixels."
	msgProcessingError = "⚠️ The diagnosis failed. Please try again."
)

// telegram ограничивает длину сообщения 4096 символами
const maxMessageRunes = 4000

// одновременно идущих диагностик
const maxConcurrentJobs = 16

// botAPI — методы Telegram API, которые использует бот.
type botAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Bot представляет Telegram-бота
type Bot struct {
	api       botAPI
	services  *container.Container
	http      *http.Client
	maxUpload int64
	jobs      chan struct{}
	log       *zap.Logger
}

// NewBot создаёт нового бота
func NewBot(token string, services *container.Container, maxUpload int64, log *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Info("telegram bot authorized", zap.String("account", api.Self.UserName))

	return newBot(api, services, maxUpload, log), nil
}

func newBot(api botAPI, services *container.Container, maxUpload int64, log *zap.Logger) *Bot {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bot{
		api:       api,
		services:  services,
		http:      http.DefaultClient,
		maxUpload: maxUpload,
		jobs:      make(chan struct{}, maxConcurrentJobs),
		log:       log,
	}
}

// Run запускает основной цикл обработки сообщений до отмены контекста.
// Сообщения разбираются по очереди, диагностика идёт в фоне.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			job := b.route(ctx, update.Message)
			if job == nil {
				continue
			}
			select {
			case b.jobs <- struct{}{}:
			case <-ctx.Done():
				job.cancel()
				return nil
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer func() { <-b.jobs }()
				job.run()
			}()
		}
	}
}

// diagnosisJob — диагностика, для которой пользователь уже переведён в обработку
type diagnosisJob struct {
	run    func()
	cancel func()
}

// handleMessage обрабатывает входящее сообщение вместе с диагностикой
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if job := b.route(ctx, msg); job != nil {
		job.run()
	}
}

// route выполняет быстрые действия и возвращает диагностику, если она нужна
func (b *Bot) route(ctx context.Context, msg *tgbotapi.Message) *diagnosisJob {
	user, err := b.services.UserService.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		b.log.Error("get user", zap.Int64("user_id", msg.From.ID), zap.Error(err))
		return nil
	}

	if msg.IsCommand() {
		return b.handleCommand(ctx, msg, user)
	}

	if fileID, size, name, ok := imageAttachment(msg); ok {
		return b.handleImage(ctx, msg, user, fileID, size, name)
	}

	b.sendMessage(msg.Chat.ID, msgSendPhoto)
	return nil
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, user *entity.User) *diagnosisJob {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		_, err := b.services.DiagnosisService.CancelBatch(ctx, user.ID, chatID)
		if err != nil && !errors.Is(err, entity.ErrDiagnosisInProgress) {
			b.log.Error("reset user", zap.Int64("user_id", user.ID), zap.Error(err))
		}
		b.sendMessage(chatID, msgStart)

	case "help":
		b.sendMessage(chatID, msgHelp)

	case "check":
		_, err := b.services.UserService.BeginCheck(ctx, user.ID, chatID)
		if errors.Is(err, entity.ErrDiagnosisInProgress) {
			b.sendMessage(chatID, msgBusy)
			return nil
		}
		if err != nil {
			b.log.Error("begin check", zap.Int64("user_id", user.ID), zap.Error(err))
			b.sendMessage(chatID, msgProcessingError)
			return nil
		}
		b.sendMessage(chatID, msgCollecting)

	case "done":
		if user.State == entity.StateProcessing {
			b.sendMessage(chatID, msgBusy)
			return nil
		}
		uploads, err := b.services.DiagnosisService.StartBatch(ctx, user.ID, chatID)
		switch {
		case errors.Is(err, entity.ErrNoImagesProvided):
			b.sendMessage(chatID, msgNoPhotos)
			return nil
		case errors.Is(err, entity.ErrDiagnosisInProgress):
			b.sendMessage(chatID, msgBusy)
			return nil
		case err != nil:
			b.log.Error("start batch", zap.Int64("user_id", user.ID), zap.Error(err))
			b.sendMessage(chatID, msgProcessingError)
			return nil
		}
		b.sendMessage(chatID, msgProcessing)
		return b.diagnosis(ctx, user.ID, chatID, uploads)

	case "cancel":
		_, err := b.services.DiagnosisService.CancelBatch(ctx, user.ID, chatID)
		if errors.Is(err, entity.ErrDiagnosisInProgress) {
			b.sendMessage(chatID, msgBusy)
			return nil
		}
		if err != nil {
			b.log.Error("cancel batch", zap.Int64("user_id", user.ID), zap.Error(err))
		}
		b.sendMessage(chatID, msgCancelled)

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}
	return nil
}

// handleImage добавляет фото в пакет или готовит диагностику одиночного снимка
func (b *Bot) handleImage(ctx context.Context, msg *tgbotapi.Message, user *entity.User, fileID string, size int, name string) *diagnosisJob {
	chatID := msg.Chat.ID

	if user.State == entity.StateProcessing {
		b.sendMessage(chatID, msgBusy)
		return nil
	}
	if b.maxUpload > 0 && int64(size) > b.maxUpload {
		b.sendMessage(chatID, fmt.Sprintf(msgTooLarge, b.maxUpload>>20))
		return nil
	}

	data, err := b.downloadFile(ctx, fileID)
	if err != nil {
		b.log.Error("download photo", zap.String("file_id", fileID), zap.Error(err))
		b.sendMessage(chatID, msgProcessingError)
		return nil
	}
	upload := entity.ImageUpload{FileName: name, Data: data}

	if user.Collecting() {
		n, err := b.services.DiagnosisService.AddPhoto(ctx, user.ID, upload)
		if errors.Is(err, entity.ErrTooManyImages) {
			b.sendMessage(chatID, fmt.Sprintf(msgTooMany, b.services.DiagnosisService.MaxImages()))
			return nil
		}
		if err != nil {
			b.log.Error("add photo", zap.Int64("user_id", user.ID), zap.Error(err))
			b.sendMessage(chatID, msgProcessingError)
			return nil
		}
		b.sendMessage(chatID, fmt.Sprintf(msgPhotoAdded, n))
		return nil
	}

	if _, err := b.services.UserService.Reserve(ctx, user.ID, chatID); err != nil {
		if errors.Is(err, entity.ErrDiagnosisInProgress) {
			b.sendMessage(chatID, msgBusy)
			return nil
		}
		b.log.Error("reserve user", zap.Int64("user_id", user.ID), zap.Error(err))
		b.sendMessage(chatID, msgProcessingError)
		return nil
	}
	b.sendMessage(chatID, msgProcessing)
	return b.diagnosis(ctx, user.ID, chatID, []entity.ImageUpload{upload})
}

func (b *Bot) diagnosis(ctx context.Context, userID, chatID int64, uploads []entity.ImageUpload) *diagnosisJob {
	return &diagnosisJob{
		run: func() {
			record, err := b.services.DiagnosisService.Complete(ctx, userID, uploads)
			b.replyWithRecord(chatID, record, err)
		},
		cancel: func() {
			if err := b.services.UserService.Release(context.WithoutCancel(ctx), userID); err != nil {
				b.log.Error("release user", zap.Int64("user_id", userID), zap.Error(err))
			}
		},
	}
}

func (b *Bot) replyWithRecord(chatID int64, record *entity.DiagnosisRecord, err error) {
	switch {
	case errors.Is(err, entity.ErrNoImagesProvided):
		b.sendMessage(chatID, msgNoPhotos)
	case errors.Is(err, entity.ErrImageDecode):
		b.sendMessage(chatID, msgDecodeError)
	case errors.Is(err, entity.ErrImageTooSmall):
		b.sendMessage(chatID, msgTooSmall)
	case err != nil:
		b.log.Error("diagnosis failed", zap.Int64("chat_id", chatID), zap.Error(err))
		b.sendMessage(chatID, msgProcessingError)
	default:
		for _, part := range splitMessage(app.FormatReport(record), maxMessageRunes) {
			b.sendMessage(chatID, part)
		}
	}
}

// imageAttachment достаёт из сообщения фото или документ-изображение
func imageAttachment(msg *tgbotapi.Message) (fileID string, size int, name string, ok bool) {
	if len(msg.Photo) > 0 {
		// последний размер самый крупный
		photo := msg.Photo[len(msg.Photo)-1]
		return photo.FileID, photo.FileSize, fmt.Sprintf("photo_%d.jpg", msg.MessageID), true
	}
	if doc := msg.Document; doc != nil && strings.HasPrefix(doc.MimeType, "image/") {
		name := doc.FileName
		if name == "" {
			name = fmt.Sprintf("document_%d", msg.MessageID)
		}
		return doc.FileID, doc.FileSize, name, true
	}
	return "", 0, "", false
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	fileURL, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	body := io.Reader(resp.Body)
	if b.maxUpload > 0 {
		body = io.LimitReader(resp.Body, b.maxUpload+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if b.maxUpload > 0 && int64(len(data)) > b.maxUpload {
		return nil, fmt.Errorf("read file: larger than %d bytes", b.maxUpload)
	}

	return data, nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Warn("send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// splitMessage режет текст по строкам на части не длиннее limit символов
func splitMessage(text string, limit int) []string {
	var parts []string
	var cur strings.Builder
	curLen := 0

	flush := func() {
		if cur.Len() > 0 {
			parts = append(parts, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		runes := []rune(line)
		for len(runes) > limit {
			flush()
			parts = append(parts, string(runes[:limit]))
			runes = runes[limit:]
		}
		if curLen+len(runes) > limit {
			flush()
		}
		cur.WriteString(string(runes))
		curLen += len(runes)
	}
	flush()

	return parts
}
