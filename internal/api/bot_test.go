package telegram

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	"vision-diagnostics/internal/container"
	"vision-diagnostics/internal/domain/entity"
	"vision-diagnostics/internal/domain/port"
	"vision-diagnostics/internal/infrastructure/decoder"
	"vision-diagnostics/internal/infrastructure/storage"
	"vision-diagnostics/internal/infrastructure/vision"
)

type fakeAPI struct {
	mu      sync.Mutex
	sent    []string
	fileURL string
	updates chan tgbotapi.Update
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, m.Text)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) GetFileDirectURL(fileID string) (string, error) {
	return f.fileURL + "/" + fileID, nil
}

func (f *fakeAPI) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

func (f *fakeAPI) contains(text string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sent {
		if strings.Contains(s, text) {
			return true
		}
	}
	return false
}

// blockingDescriber держит диагностику, пока не закрыт release
type blockingDescriber struct {
	started chan struct{}
	release chan struct{}
}

func (d *blockingDescriber) Describe(ctx context.Context, report *entity.DiagnosticReport) (*entity.AiDescription, error) {
	d.started <- struct{}{}
	select {
	case <-d.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &entity.AiDescription{Text: "Corrosion.", Model: "fake"}, nil
}

func rustPNG(t *testing.T, size int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 200, G: 100, B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestBot(t *testing.T, maxImages int) (*Bot, *fakeAPI) {
	t.Helper()
	return newTestBotWith(t, maxImages, nil)
}

func newTestBotWith(t *testing.T, maxImages int, describer port.DefectDescriber) (*Bot, *fakeAPI) {
	t.Helper()
	data := rustPNG(t, 40)
	tiny := rustPNG(t, 3)
	files := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/broken"):
			_, _ = w.Write([]byte("not an image"))
		case strings.HasSuffix(r.URL.Path, "/tiny"):
			_, _ = w.Write(tiny)
		default:
			_, _ = w.Write(data)
		}
	}))
	t.Cleanup(files.Close)

	users := storage.NewMemoryUserRepository()
	services := container.New(container.Deps{
		UserRepo:  users,
		Uploads:   users,
		Engine:    vision.NewEngine(vision.Options{Workers: 2}, nil),
		Decoder:   decoder.NewStdDecoder(),
		Reports:   storage.NewMemoryReportRepository(),
		Describer: describer,
		MaxImages: maxImages,
	})
	api := &fakeAPI{fileURL: files.URL}
	return newBot(api, services, 1<<20, nil), api
}

func command(text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: 42},
		Chat:      &tgbotapi.Chat{ID: 420},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}},
	}
}

func photo(id int, fileID string) *tgbotapi.Message {
	return photoFrom(42, id, fileID)
}

func photoFrom(userID int64, id int, fileID string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: id,
		From:      &tgbotapi.User{ID: userID},
		Chat:      &tgbotapi.Chat{ID: userID * 10},
		Photo: []tgbotapi.PhotoSize{
			{FileID: "thumb", FileSize: 100},
			{FileID: fileID, FileSize: 2048},
		},
	}
}

func TestBot_SinglePhotoIsDiagnosedImmediately(t *testing.T) {
	bot, api := newTestBot(t, 5)
	ctx := context.Background()

	bot.handleMessage(ctx, photo(7, "full"))

	require.GreaterOrEqual(t, len(api.sent), 2)
	require.Equal(t, msgProcessing, api.sent[0])
	reply := strings.Join(api.sent[1:], "")
	require.Contains(t, reply, "photo_7.jpg")
	require.Contains(t, reply, "Action plan")
}

func TestBot_BatchFlow(t *testing.T) {
	bot, api := newTestBot(t, 2)
	ctx := context.Background()

	bot.handleMessage(ctx, command("/check"))
	require.Equal(t, msgCollecting, api.last())

	bot.handleMessage(ctx, command("/done"))
	require.Equal(t, msgNoPhotos, api.last())

	bot.handleMessage(ctx, command("/check"))
	bot.handleMessage(ctx, photo(1, "a"))
	require.Contains(t, api.last(), "Photo 1 added")
	bot.handleMessage(ctx, photo(2, "b"))
	require.Contains(t, api.last(), "Photo 2 added")
	bot.handleMessage(ctx, photo(3, "c"))
	require.Contains(t, api.last(), "limit of 2 photos")

	before := len(api.sent)
	bot.handleMessage(ctx, command("/done"))
	require.Contains(t, strings.Join(api.sent[before:], ""), vision.CategoryEnvironmentalCorrosion)

	user, err := bot.services.UserService.Get(ctx, 42, 420)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)
}

func TestBot_DecodeError(t *testing.T) {
	bot, api := newTestBot(t, 5)

	bot.handleMessage(context.Background(), photo(1, "broken"))
	require.Equal(t, msgDecodeError, api.last())
}

func TestBot_TooSmall(t *testing.T) {
	bot, api := newTestBot(t, 5)
	ctx := context.Background()

	bot.handleMessage(ctx, photo(1, "tiny"))
	require.Equal(t, msgTooSmall, api.last())

	user, err := bot.services.UserService.Get(ctx, 42, 420)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)
}

func TestBot_TooLarge(t *testing.T) {
	bot, api := newTestBot(t, 5)
	msg := photo(1, "a")
	msg.Photo[1].FileSize = 2 << 20

	bot.handleMessage(context.Background(), msg)
	require.Equal(t, "⚠️ The file is too large. Maximum size: 1 MB.", api.last())
}

func TestBot_TextAndUnknownCommand(t *testing.T) {
	bot, api := newTestBot(t, 5)
	ctx := context.Background()

	bot.handleMessage(ctx, &tgbotapi.Message{From: &tgbotapi.User{ID: 1}, Chat: &tgbotapi.Chat{ID: 1}, Text: "hi"})
	require.Equal(t, msgSendPhoto, api.last())

	bot.handleMessage(ctx, command("/unknown"))
	require.Equal(t, msgUnknownCommand, api.last())

	bot.handleMessage(ctx, command("/cancel"))
	require.Equal(t, msgCancelled, api.last())
}

func TestImageAttachment(t *testing.T) {
	_, _, _, ok := imageAttachment(&tgbotapi.Message{Document: &tgbotapi.Document{MimeType: "application/pdf"}})
	require.False(t, ok)

	id, size, name, ok := imageAttachment(&tgbotapi.Message{
		MessageID: 9,
		Document:  &tgbotapi.Document{FileID: "doc", FileSize: 10, MimeType: "image/png", FileName: "pump.png"},
	})
	require.True(t, ok)
	require.Equal(t, "doc", id)
	require.Equal(t, 10, size)
	require.Equal(t, "pump.png", name)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	bot, api := newTestBot(t, 5)
	api.updates = make(chan tgbotapi.Update, 1)
	api.updates <- tgbotapi.Update{Message: command("/help")}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bot.Run(ctx) }()

	require.Eventually(t, func() bool {
		api.mu.Lock()
		defer api.mu.Unlock()
		return len(api.sent) == 1
	}, time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}

func TestSplitMessage(t *testing.T) {
	require.Equal(t, []string{"ab\n", "cd"}, splitMessage("ab\ncd", 3))
	require.Equal(t, []string{"ab\ncd"}, splitMessage("ab\ncd", 10))
	require.Equal(t, []string{"абв", "гд"}, splitMessage("абвгд", 3))
	require.Nil(t, splitMessage("", 3))
}

func TestBot_BusyWhileProcessing(t *testing.T) {
	bot, api := newTestBot(t, 5)
	ctx := context.Background()

	_, err := bot.services.UserService.SetState(ctx, 42, 420, entity.StateProcessing)
	require.NoError(t, err)

	bot.handleMessage(ctx, command("/check"))
	require.Equal(t, msgBusy, api.last())
	bot.handleMessage(ctx, photo(1, "a"))
	require.Equal(t, msgBusy, api.last())
	bot.handleMessage(ctx, command("/done"))
	require.Equal(t, msgBusy, api.last())
	bot.handleMessage(ctx, command("/cancel"))
	require.Equal(t, msgBusy, api.last())
}

func TestRun_DiagnosisDoesNotBlockOtherUsers(t *testing.T) {
	describer := &blockingDescriber{started: make(chan struct{}, 1), release: make(chan struct{})}
	bot, api := newTestBotWith(t, 5, describer)
	api.updates = make(chan tgbotapi.Update, 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- bot.Run(ctx) }()

	api.updates <- tgbotapi.Update{Message: photo(1, "a")}
	select {
	case <-describer.started:
	case <-time.After(2 * time.Second):
		t.Fatal("diagnosis did not start")
	}

	help := command("/help")
	help.From = &tgbotapi.User{ID: 7}
	help.Chat = &tgbotapi.Chat{ID: 70}
	api.updates <- tgbotapi.Update{Message: help}
	api.updates <- tgbotapi.Update{Message: photo(2, "b")}

	require.Eventually(t, func() bool {
		return api.contains(msgHelp) && api.contains(msgBusy)
	}, 2*time.Second, 10*time.Millisecond)
	require.False(t, api.contains("Action plan"))

	close(describer.release)
	require.Eventually(t, func() bool {
		return api.contains("Action plan")
	}, 2*time.Second, 10*time.Millisecond)

	user, err := bot.services.UserService.Get(ctx, 42, 420)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)

	cancel()
	require.NoError(t, <-done)
}
