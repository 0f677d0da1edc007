package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path"
	"strings"
	"testing"
	"time"

	telegram "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/lms-reminder/pkg/dashboard"
	"github.com/smith3v/lms-reminder/pkg/delivery"
	"github.com/smith3v/lms-reminder/pkg/history"
	"github.com/smith3v/lms-reminder/pkg/internal/testutil"
	"github.com/smith3v/lms-reminder/pkg/kv"
	"github.com/smith3v/lms-reminder/pkg/reminders"
	"github.com/smith3v/lms-reminder/pkg/settings"
)

const testChatID int64 = 101

type stubProvider struct {
	snap dashboard.Snapshot
	err  error
}

func (p *stubProvider) Fetch(context.Context) (dashboard.Snapshot, error) {
	return p.snap, p.err
}

func newTestHandlers(t *testing.T, provider *stubProvider) *Handlers {
	t.Helper()
	gdb := testutil.SetupTestDB(t)
	store := kv.NewGormStore(gdb)
	pending := delivery.NewStore(gdb)
	settingsStore := settings.NewStore(store)
	return &Handlers{
		Engine:   reminders.NewEngine(provider, settingsStore, pending),
		Settings: settingsStore,
		History:  history.NewLog(store, 0),
		Pending:  pending,
		ChatID:   testChatID,
		Location: time.UTC,
	}
}

// apiCall is one Bot API request as seen by fakeTelegram, with its
// multipart fields decoded up front.
type apiCall struct {
	method string
	fields map[string]string
	raw    string
}

// fakeTelegram stands in for the Bot API HTTP client and answers every
// call with an empty success envelope.
type fakeTelegram struct {
	requests []apiCall
}

func newMockClient() *fakeTelegram {
	return &fakeTelegram{}
}

func (f *fakeTelegram) Do(req *http.Request) (*http.Response, error) {
	raw, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}
	f.requests = append(f.requests, apiCall{
		method: path.Base(req.URL.Path),
		fields: decodeFields(req.Header.Get("Content-Type"), raw),
		raw:    string(raw),
	})
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": {"application/json"}},
		Body:       io.NopCloser(strings.NewReader(`{"ok":true,"result":{}}`)),
	}, nil
}

// decodeFields keeps only small form values; file parts stay in raw.
func decodeFields(contentType string, raw []byte) map[string]string {
	fields := map[string]string{}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil || params["boundary"] == "" {
		return fields
	}
	form, err := multipart.NewReader(bytes.NewReader(raw), params["boundary"]).ReadForm(1 << 20)
	if err != nil {
		return fields
	}
	for name, values := range form.Value {
		if len(values) > 0 {
			fields[name] = values[0]
		}
	}
	return fields
}

func (f *fakeTelegram) last(t *testing.T) apiCall {
	t.Helper()
	if len(f.requests) == 0 {
		t.Fatal("no Bot API calls recorded")
	}
	return f.requests[len(f.requests)-1]
}

func (f *fakeTelegram) lastMessageText(t *testing.T) string {
	t.Helper()
	call := f.last(t)
	text, ok := call.fields["text"]
	if !ok {
		t.Fatalf("%s call carried no text field", call.method)
	}
	return text
}

func (f *fakeTelegram) lastRequestBody(t *testing.T) string {
	t.Helper()
	return f.last(t).raw
}

func newTestTelegramBot(t *testing.T, client *fakeTelegram) *telegram.Bot {
	t.Helper()
	b, err := telegram.New("test-token", telegram.WithSkipGetMe(), telegram.WithHTTPClient(time.Second, client))
	if err != nil {
		t.Fatalf("telegram.New: %v", err)
	}
	return b
}

// newTestUpdate builds a private-chat message where chat id equals sender id.
func newTestUpdate(text string, chatID int64) *models.Update {
	return &models.Update{Message: &models.Message{
		From: &models.User{ID: chatID},
		Chat: models.Chat{ID: chatID, Type: models.ChatTypePrivate},
		Text: text,
	}}
}

func newTestCallbackUpdate(data string, userID, chatID int64, messageID int) *models.Update {
	return &models.Update{
		CallbackQuery: &models.CallbackQuery{
			ID:   "callback-1",
			From: models.User{ID: userID},
			Data: data,
			Message: models.MaybeInaccessibleMessage{
				Type: models.MaybeInaccessibleMessageTypeMessage,
				Message: &models.Message{
					ID: messageID,
					Chat: models.Chat{
						ID:   chatID,
						Type: models.ChatTypePrivate,
					},
				},
			},
		},
	}
}
