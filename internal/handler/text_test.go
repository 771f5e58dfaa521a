package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"github.com/netvistor/personal-ai-assistant/internal/domain"
	"github.com/netvistor/personal-ai-assistant/internal/middleware"
	"github.com/netvistor/personal-ai-assistant/internal/service"
)

type fakeUsers struct{}

func (f *fakeUsers) UpdateSelectedModel(context.Context, int64, string) error { return nil }
func (f *fakeUsers) UpdateHistoryLength(context.Context, int64, int) error    { return nil }

// fakeSessions mirrors the store contract: one active session per user,
// creating a new one replaces it.
type fakeSessions struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*domain.Session
	active   map[int64]uuid.UUID
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{
		sessions: make(map[uuid.UUID]*domain.Session),
		active:   make(map[int64]uuid.UUID),
	}
}

func (f *fakeSessions) Create(_ context.Context, userID int64) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &domain.Session{ID: uuid.New(), UserID: userID, CreatedAt: time.Now()}
	f.sessions[s.ID] = s
	f.active[userID] = s.ID
	return s, nil
}

func (f *fakeSessions) FindOrCreate(ctx context.Context, user *domain.User) (*domain.Session, error) {
	f.mu.Lock()
	if id, ok := f.active[user.ID]; ok {
		s := f.sessions[id]
		f.mu.Unlock()
		return s, nil
	}
	f.mu.Unlock()
	return f.Create(ctx, user.ID)
}

type fakeTurns struct {
	mu    sync.Mutex
	turns []domain.Turn
}

func (f *fakeTurns) Create(_ context.Context, t *domain.Turn) (*domain.Turn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t.ID = int64(len(f.turns) + 1)
	t.CreatedAt = time.Now()
	f.turns = append(f.turns, *t)
	return t, nil
}

func (f *fakeTurns) ListSession(_ context.Context, sessionID uuid.UUID, limit int) ([]domain.Turn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Turn
	for _, t := range f.turns {
		if t.SessionID == sessionID {
			out = append(out, t)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (f *fakeTurns) CountByUser(_ context.Context, userID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, t := range f.turns {
		if t.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeTurns) AddImage(context.Context, *domain.ImageAttachment) error { return nil }
func (f *fakeTurns) AddAudio(context.Context, *domain.AudioAttachment) error { return nil }

func (f *fakeTurns) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.turns)
}

// testEnv wires a Handler to fake stores, a fake Telegram API and a fake
// completion provider.
type testEnv struct {
	h        *Handler
	bot      *bot.Bot
	turns    *fakeTurns
	sessions *fakeSessions

	mu          sync.Mutex
	sentTexts   []string
	promptSizes []int
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{turns: &fakeTurns{}, sessions: newFakeSessions()}

	aiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req service.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode chat request: %v", err)
		}
		env.mu.Lock()
		env.promptSizes = append(env.promptSizes, len(req.Messages))
		env.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-t",
			"choices": [{"message": {"content": "Ответ модели."}}],
			"usage": {"total_tokens": 10}
		}`))
	}))
	t.Cleanup(aiSrv.Close)

	tgSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(r.URL.Path, "sendChatAction") {
			w.Write([]byte(`{"ok":true,"result":true}`))
			return
		}
		if text := r.FormValue("text"); text != "" {
			env.mu.Lock()
			env.sentTexts = append(env.sentTexts, text)
			env.mu.Unlock()
		}
		w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	t.Cleanup(tgSrv.Close)

	b, err := bot.New("test-token", bot.WithServerURL(tgSrv.URL), bot.WithSkipGetMe())
	if err != nil {
		t.Fatalf("create bot: %v", err)
	}

	ai := service.NewOpenAIService("key").WithBaseURL(aiSrv.URL)
	registry := service.NewRegistry()
	env.bot = b
	env.h = New(Deps{
		Bot:        b,
		Users:      &fakeUsers{},
		Sessions:   env.sessions,
		Turns:      env.turns,
		Builder:    service.NewContextBuilder(registry, time.UTC),
		Completion: service.NewCompletionLoop(ai, registry),
		Location:   time.UTC,
	})
	return env
}

func (e *testEnv) lastSent() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.sentTexts) == 0 {
		return ""
	}
	return e.sentTexts[len(e.sentTexts)-1]
}

func (e *testEnv) prompts() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]int(nil), e.promptSizes...)
}

func testUser() *domain.User {
	return &domain.User{
		ID:            1,
		TelegramID:    100,
		FirstName:     "Тест",
		SelectedModel: "gpt-4",
		HistoryLength: 5,
	}
}

func TestProcessTextPersistsOneTurnPerMessage(t *testing.T) {
	env := newTestEnv(t)
	user := testUser()
	ctx := context.Background()

	for i, text := range []string{"первый вопрос", "второй вопрос", "третий вопрос"} {
		env.h.processText(ctx, env.bot, 1, user, text)
		if got := env.turns.count(); got != i+1 {
			t.Fatalf("after message %d: %d turns persisted, want %d", i+1, got, i+1)
		}
	}

	env.turns.mu.Lock()
	first := env.turns.turns[0]
	env.turns.mu.Unlock()
	if first.Message != "первый вопрос" || first.Response != "Ответ модели." {
		t.Errorf("persisted turn = %+v", first)
	}
	if env.lastSent() != "Ответ модели." {
		t.Errorf("relayed text = %q, want the model content verbatim", env.lastSent())
	}
}

func TestNewSessionEmptiesHistoryScope(t *testing.T) {
	env := newTestEnv(t)
	user := testUser()
	ctx := context.WithValue(context.Background(), middleware.UserKey, user)

	env.h.processText(ctx, env.bot, 1, user, "вопрос один")
	env.h.processText(ctx, env.bot, 1, user, "вопрос два")

	env.h.handleNewSession(ctx, env.bot, &models.Update{
		Message: &models.Message{
			Text: "/new",
			Chat: models.Chat{ID: 1, Type: "private"},
		},
	})

	env.h.processText(ctx, env.bot, 1, user, "вопрос три")

	// system + window + new turn per request: the second request carries the
	// first exchange, the third starts from an empty scope again.
	want := []int{2, 4, 2}
	got := env.prompts()
	if len(got) != len(want) {
		t.Fatalf("provider saw %d requests, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("request %d carried %d messages, want %d", i+1, got[i], want[i])
		}
	}

	// Turns from both sessions stay persisted.
	if env.turns.count() != 3 {
		t.Errorf("persisted turns = %d, want 3", env.turns.count())
	}
}

func TestStartReportsTurnTotal(t *testing.T) {
	env := newTestEnv(t)
	user := testUser()
	ctx := context.WithValue(context.Background(), middleware.UserKey, user)

	env.h.processText(ctx, env.bot, 1, user, "вопрос")

	env.h.handleStart(ctx, env.bot, &models.Update{
		Message: &models.Message{
			Text: "/start",
			Chat: models.Chat{ID: 1, Type: "private"},
		},
	})

	welcome := env.lastSent()
	if !strings.Contains(welcome, "Сообщений в истории: 1") {
		t.Errorf("welcome should report the stored turn total, got %q", welcome)
	}
}
