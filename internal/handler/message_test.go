package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"github.com/tasksur/tasksur/internal/middleware"
	"github.com/tasksur/tasksur/internal/model"
)

type fakeMessages struct {
	seq  int
	msgs map[string]model.Message
}

func newFakeMessages() *fakeMessages {
	return &fakeMessages{msgs: map[string]model.Message{}}
}

func (f *fakeMessages) Create(_ context.Context, m *model.Message, _ string) error {
	f.seq++
	m.ID = "msg-" + strconv.Itoa(f.seq)
	m.CreatedAt = time.Now().UTC()
	f.msgs[m.ID] = *m
	return nil
}

func (f *fakeMessages) GetByID(_ context.Context, id string) (model.Message, error) {
	m, ok := f.msgs[id]
	if !ok {
		return model.Message{}, sql.ErrNoRows
	}
	return m, nil
}

func (f *fakeMessages) ListByTask(_ context.Context, taskID string) ([]model.Message, error) {
	var out []model.Message
	for _, m := range f.msgs {
		if m.TaskID != nil && *m.TaskID == taskID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMessages) MarkRead(_ context.Context, id string) error {
	m, ok := f.msgs[id]
	if !ok {
		return sql.ErrNoRows
	}
	now := time.Now().UTC()
	m.IsRead = true
	m.ReadAt = &now
	f.msgs[id] = m
	return nil
}

func messageFixture() (*MessageHandler, *fakeMessages, *fakeUsers) {
	msgs := newFakeMessages()
	users := newFakeUsers()
	return NewMessageHandler(msgs, users), msgs, users
}

func TestMessageCreateForTask(t *testing.T) {
	h, msgs, users := messageFixture()
	sender := users.add(model.User{ID: "client-1", Role: model.RoleClient, FirstName: "C", LastName: "L"})
	users.add(model.User{ID: "tasker-1", Role: model.RoleTasker, Email: "t@example.com"})
	task := model.Task{ID: "task-1", ClientID: sender.ID}

	c, rec := jsonCtx(t, http.MethodPost, "/api/tasks/task-1/messages", map[string]string{
		"receiverId": "tasker-1",
		"content":    "hello there",
	}, &sender, "id", task.ID)
	c.Set(middleware.CtxTask, task)

	require.NoError(t, h.CreateForTask(c))
	wantStatus(t, rec, http.StatusCreated)
	require.Len(t, msgs.msgs, 1)
	for _, m := range msgs.msgs {
		require.NotNil(t, m.TaskID)
		require.Equal(t, "task-1", *m.TaskID)
		require.Equal(t, sender.ID, m.SenderID)
	}
}

func TestMessageCreateToSelf(t *testing.T) {
	h, _, users := messageFixture()
	sender := users.add(model.User{ID: "u-1", Role: model.RoleClient})

	c, rec := jsonCtx(t, http.MethodPost, "/api/messages", map[string]string{
		"receiverId": "u-1",
		"content":    "talking to myself",
	}, &sender)
	require.NoError(t, h.CreateDirect(c))
	wantStatus(t, rec, http.StatusBadRequest)
}

func TestMessageCreateUnknownReceiver(t *testing.T) {
	h, _, users := messageFixture()
	sender := users.add(model.User{ID: "u-1", Role: model.RoleClient})

	c, rec := jsonCtx(t, http.MethodPost, "/api/messages", map[string]string{
		"receiverId": "ghost",
		"content":    "anyone there?",
	}, &sender)
	require.NoError(t, h.CreateDirect(c))
	wantStatus(t, rec, http.StatusNotFound)
}

func TestMessageMarkReadReceiverOnly(t *testing.T) {
	h, msgs, users := messageFixture()
	sender := users.add(model.User{ID: "u-1", Role: model.RoleClient})
	receiver := users.add(model.User{ID: "u-2", Role: model.RoleTasker})

	m := model.Message{SenderID: sender.ID, ReceiverID: receiver.ID, Content: "hi"}
	require.NoError(t, msgs.Create(nil, &m, "S"))

	// the sender cannot mark it read
	c, rec := jsonCtx(t, http.MethodPatch, "/api/messages/"+m.ID+"/read", nil, &sender, "id", m.ID)
	require.NoError(t, h.MarkRead(c))
	wantStatus(t, rec, http.StatusForbidden)

	// the receiver can
	c, rec = jsonCtx(t, http.MethodPatch, "/api/messages/"+m.ID+"/read", nil, &receiver, "id", m.ID)
	require.NoError(t, h.MarkRead(c))
	wantStatus(t, rec, http.StatusOK)
	require.True(t, msgs.msgs[m.ID].IsRead)
	require.NotNil(t, msgs.msgs[m.ID].ReadAt)
}

func TestPreviewCutsOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("héllo wörld ", 20)
	got := preview(long, 120)
	require.True(t, utf8.ValidString(got))
	require.Equal(t, 123, utf8.RuneCountInString(got)) // 120 runes + "..."
	require.True(t, strings.HasSuffix(got, "..."))

	require.Equal(t, "日本語", preview("日本語", 120))
	require.Equal(t, "日本...", preview("日本語のメッセージ", 2))
}
