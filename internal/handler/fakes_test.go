package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tasksur/tasksur/internal/middleware"
	"github.com/tasksur/tasksur/internal/model"
	"github.com/tasksur/tasksur/internal/repository"
	"github.com/tasksur/tasksur/internal/utils"
)

// In-memory fakes backing the handler tests. Each fake implements the
// matching store interface with just enough semantics for the
// behaviors under test.

type fakeUsers struct {
	seq   int
	users map[string]model.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[string]model.User{}}
}

func (f *fakeUsers) add(u model.User) model.User {
	if u.ID == "" {
		f.seq++
		u.ID = "user-" + strconv.Itoa(f.seq)
	}
	f.users[u.ID] = u
	return u
}

func (f *fakeUsers) Create(_ context.Context, email, password, role, firstName, lastName string, cost int) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range f.users {
		if u.Email == email {
			return "", repository.ErrEmailExists
		}
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return "", err
	}
	u := f.add(model.User{Email: email, PasswordHash: hash, Role: role, FirstName: firstName, LastName: lastName})
	return u.ID, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, sql.ErrNoRows
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, id string, upd repository.UserUpdate) error {
	u, ok := f.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	if upd.FirstName != nil {
		u.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		u.LastName = *upd.LastName
	}
	if upd.Bio != nil {
		u.Bio = *upd.Bio
	}
	if upd.Location != nil {
		u.Location = *upd.Location
	}
	if upd.Phone != nil {
		u.Phone = *upd.Phone
	}
	if upd.Skills != nil {
		u.Skills = *upd.Skills
	}
	if upd.HourlyRate != nil {
		u.HourlyRate = upd.HourlyRate
	}
	f.users[id] = u
	return nil
}

func (f *fakeUsers) Stats(_ context.Context, userID string) (model.UserStats, error) {
	if _, ok := f.users[userID]; !ok {
		return model.UserStats{}, sql.ErrNoRows
	}
	return model.UserStats{}, nil
}

func (f *fakeUsers) DeleteCascade(_ context.Context, userID string) (bool, error) {
	if _, ok := f.users[userID]; !ok {
		return false, nil
	}
	delete(f.users, userID)
	return true, nil
}

type fakeSession struct {
	userID  string
	exp     time.Time
	revoked bool
}

type fakeSessions struct {
	sessions map[string]*fakeSession
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: map[string]*fakeSession{}}
}

func (f *fakeSessions) Store(_ context.Context, sid, userID string, exp time.Time) error {
	f.sessions[sid] = &fakeSession{userID: userID, exp: exp}
	return nil
}

func (f *fakeSessions) Validate(_ context.Context, sid string) (string, error) {
	s, ok := f.sessions[sid]
	if !ok || s.revoked || time.Now().After(s.exp) {
		return "", sql.ErrNoRows
	}
	return s.userID, nil
}

func (f *fakeSessions) Revoke(_ context.Context, sid string) error {
	if s, ok := f.sessions[sid]; ok {
		s.revoked = true
	}
	return nil
}

func (f *fakeSessions) RevokeAllForUser(_ context.Context, userID string) error {
	for _, s := range f.sessions {
		if s.userID == userID {
			s.revoked = true
		}
	}
	return nil
}

func (f *fakeSessions) active() int {
	n := 0
	for _, s := range f.sessions {
		if !s.revoked {
			n++
		}
	}
	return n
}

type fakeTasks struct {
	seq   int
	tasks map[string]model.Task
}

func newFakeTasks() *fakeTasks {
	return &fakeTasks{tasks: map[string]model.Task{}}
}

func (f *fakeTasks) add(t model.Task) model.Task {
	if t.ID == "" {
		f.seq++
		t.ID = "task-" + strconv.Itoa(f.seq)
	}
	if t.Status == "" {
		t.Status = model.TaskOpen
	}
	f.tasks[t.ID] = t
	return t
}

func (f *fakeTasks) List(_ context.Context, fl model.TaskFilter, page, limit int) ([]model.TaskDetail, int64, error) {
	var all []model.TaskDetail
	for _, t := range f.tasks {
		if fl.Status != "" && t.Status != fl.Status {
			continue
		}
		if fl.ClientID != "" && t.ClientID != fl.ClientID {
			continue
		}
		all = append(all, model.TaskDetail{Task: t})
	}
	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return []model.TaskDetail{}, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (f *fakeTasks) GetByID(_ context.Context, id string) (model.TaskDetail, error) {
	t, ok := f.tasks[id]
	if !ok {
		return model.TaskDetail{}, sql.ErrNoRows
	}
	return model.TaskDetail{Task: t}, nil
}

func (f *fakeTasks) Get(_ context.Context, id string) (model.Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return model.Task{}, sql.ErrNoRows
	}
	return t, nil
}

func (f *fakeTasks) Create(_ context.Context, t *model.Task) error {
	*t = f.add(*t)
	return nil
}

func (f *fakeTasks) Update(_ context.Context, id string, upd repository.TaskUpdate) error {
	t, ok := f.tasks[id]
	if !ok {
		return sql.ErrNoRows
	}
	if upd.Title != nil {
		t.Title = *upd.Title
	}
	if upd.Status != nil {
		t.Status = *upd.Status
	}
	if upd.Budget != nil {
		t.Budget = *upd.Budget
	}
	f.tasks[id] = t
	return nil
}

func (f *fakeTasks) Delete(_ context.Context, id string) (bool, error) {
	if _, ok := f.tasks[id]; !ok {
		return false, nil
	}
	delete(f.tasks, id)
	return true, nil
}

type fakeOffers struct {
	seq    int
	offers map[string]model.Offer
	tasks  *fakeTasks
}

func newFakeOffers(tasks *fakeTasks) *fakeOffers {
	return &fakeOffers{offers: map[string]model.Offer{}, tasks: tasks}
}

func (f *fakeOffers) add(o model.Offer) model.Offer {
	if o.ID == "" {
		f.seq++
		o.ID = "offer-" + strconv.Itoa(f.seq)
	}
	if o.Status == "" {
		o.Status = model.OfferPending
	}
	f.offers[o.ID] = o
	return o
}

func (f *fakeOffers) Create(_ context.Context, o *model.Offer) error {
	*o = f.add(*o)
	return nil
}

func (f *fakeOffers) GetByID(_ context.Context, id string) (model.Offer, error) {
	o, ok := f.offers[id]
	if !ok {
		return model.Offer{}, sql.ErrNoRows
	}
	return o, nil
}

func (f *fakeOffers) ListByTask(_ context.Context, taskID string, page, limit int) ([]model.OfferWithTasker, int64, error) {
	var out []model.OfferWithTasker
	for _, o := range f.offers {
		if o.TaskID == taskID {
			out = append(out, model.OfferWithTasker{Offer: o})
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeOffers) ListByTasker(_ context.Context, taskerID string, page, limit int) ([]model.OfferWithTask, int64, error) {
	var out []model.OfferWithTask
	for _, o := range f.offers {
		if o.TaskerID == taskerID {
			out = append(out, model.OfferWithTask{Offer: o})
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeOffers) UpdateStatus(_ context.Context, id string, status model.OfferStatus) error {
	o, ok := f.offers[id]
	if !ok {
		return sql.ErrNoRows
	}
	o.Status = status
	f.offers[id] = o
	return nil
}

func (f *fakeOffers) Accept(_ context.Context, offerID string) (model.Offer, error) {
	o, ok := f.offers[offerID]
	if !ok {
		return model.Offer{}, sql.ErrNoRows
	}
	if o.Status != model.OfferPending {
		return model.Offer{}, repository.ErrOfferNotPending
	}
	t, ok := f.tasks.tasks[o.TaskID]
	if !ok {
		return model.Offer{}, sql.ErrNoRows
	}
	if t.Status != model.TaskOpen {
		return model.Offer{}, repository.ErrTaskNotOpen
	}
	o.Status = model.OfferAccepted
	f.offers[o.ID] = o
	for id, sib := range f.offers {
		if sib.TaskID == o.TaskID && sib.ID != o.ID && sib.Status == model.OfferPending {
			sib.Status = model.OfferRejected
			f.offers[id] = sib
		}
	}
	tasker := o.TaskerID
	t.AssignedTaskerID = &tasker
	t.Status = model.TaskInProgress
	f.tasks.tasks[t.ID] = t
	return o, nil
}

type fakeReviews struct {
	seq     int
	reviews map[string]model.Review
}

func newFakeReviews() *fakeReviews {
	return &fakeReviews{reviews: map[string]model.Review{}}
}

func (f *fakeReviews) Create(_ context.Context, rev *model.Review) error {
	for _, r := range f.reviews {
		if r.TaskID == rev.TaskID && r.ReviewerID == rev.ReviewerID {
			return repository.ErrDuplicateReview
		}
	}
	f.seq++
	rev.ID = "review-" + strconv.Itoa(f.seq)
	f.reviews[rev.ID] = *rev
	return nil
}

func (f *fakeReviews) ListByReviewee(_ context.Context, revieweeID string) ([]model.ReviewWithReviewer, error) {
	var out []model.ReviewWithReviewer
	for _, r := range f.reviews {
		if r.RevieweeID == revieweeID {
			out = append(out, model.ReviewWithReviewer{Review: r})
		}
	}
	return out, nil
}

// ----- request helpers -----

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

// jsonCtx builds an echo context carrying an optional JSON body,
// optional authenticated user and optional route params given as
// name/value pairs.
func jsonCtx(t *testing.T, method, target string, body any, u *model.User, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, rd)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := newTestEcho().NewContext(req, rec)
	if u != nil {
		c.Set(middleware.CtxUser, u)
		c.Set(middleware.CtxUserID, u.ID)
		c.Set(middleware.CtxRole, u.Role)
	}
	var names, values []string
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	if len(names) > 0 {
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}
	return c, rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response: %v (body: %s)", err, rec.Body.String())
	}
}

func wantStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body: %s)", rec.Code, want, rec.Body.String())
	}
}
