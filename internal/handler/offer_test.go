package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tasksur/tasksur/internal/model"
)

func offerFixture() (*OfferHandler, *fakeTasks, *fakeOffers, *fakeUsers) {
	tasks := newFakeTasks()
	offers := newFakeOffers(tasks)
	users := newFakeUsers()
	return NewOfferHandler(offers, tasks, users, newFakeNotifications()), tasks, offers, users
}

func TestOfferCreate(t *testing.T) {
	h, tasks, _, _ := offerFixture()
	task := tasks.add(model.Task{Title: "t", ClientID: "client-1", Currency: "EUR"})
	tasker := model.User{ID: "tasker-1", Role: model.RoleTasker}

	c, rec := jsonCtx(t, http.MethodPost, "/api/offers", map[string]any{
		"taskId": task.ID,
		"amount": 55.0,
	}, &tasker)
	require.NoError(t, h.Create(c))
	wantStatus(t, rec, http.StatusCreated)

	var o model.Offer
	decodeBody(t, rec, &o)
	require.Equal(t, model.OfferPending, o.Status)
	require.Equal(t, "tasker-1", o.TaskerID)
	require.Equal(t, "EUR", o.Currency) // inherited from the task
}

func TestOfferCreateOnOwnTask(t *testing.T) {
	h, tasks, _, _ := offerFixture()
	task := tasks.add(model.Task{Title: "t", ClientID: "dual-1"})
	owner := model.User{ID: "dual-1", Role: model.RoleTasker}

	c, rec := jsonCtx(t, http.MethodPost, "/api/offers", map[string]any{
		"taskId": task.ID,
		"amount": 10.0,
	}, &owner)
	require.NoError(t, h.Create(c))
	wantStatus(t, rec, http.StatusForbidden)
}

func TestOfferCreateTaskNotOpen(t *testing.T) {
	h, tasks, _, _ := offerFixture()
	task := tasks.add(model.Task{Title: "t", ClientID: "client-1", Status: model.TaskInProgress})
	tasker := model.User{ID: "tasker-1", Role: model.RoleTasker}

	c, rec := jsonCtx(t, http.MethodPost, "/api/offers", map[string]any{
		"taskId": task.ID,
		"amount": 10.0,
	}, &tasker)
	require.NoError(t, h.Create(c))
	wantStatus(t, rec, http.StatusConflict)
}

func TestOfferAcceptWorkflow(t *testing.T) {
	tasks := newFakeTasks()
	offers := newFakeOffers(tasks)
	users := newFakeUsers()
	notifications := newFakeNotifications()
	h := NewOfferHandler(offers, tasks, users, notifications)
	task := tasks.add(model.Task{Title: "t", ClientID: "client-1"})
	client := users.add(model.User{ID: "client-1", Role: model.RoleClient, FirstName: "C", LastName: "L"})
	users.add(model.User{ID: "tasker-1", Role: model.RoleTasker, Email: "t1@example.com"})

	winner := offers.add(model.Offer{TaskID: task.ID, TaskerID: "tasker-1", Amount: 50})
	loser := offers.add(model.Offer{TaskID: task.ID, TaskerID: "tasker-2", Amount: 60})

	c, rec := jsonCtx(t, http.MethodPatch, "/api/offers/"+winner.ID, map[string]string{
		"status": "accepted",
	}, &client, "id", winner.ID)
	require.NoError(t, h.UpdateStatus(c))
	wantStatus(t, rec, http.StatusOK)

	require.Equal(t, model.OfferAccepted, offers.offers[winner.ID].Status)
	require.Equal(t, model.OfferRejected, offers.offers[loser.ID].Status)

	got := tasks.tasks[task.ID]
	require.Equal(t, model.TaskInProgress, got.Status)
	require.NotNil(t, got.AssignedTaskerID)
	require.Equal(t, "tasker-1", *got.AssignedTaskerID)

	// the tasker got an in-app notification
	require.Len(t, notifications.items, 1)
	for _, n := range notifications.items {
		require.Equal(t, "tasker-1", n.UserID)
		require.Equal(t, model.NotificationOfferAccepted, n.Type)
	}
}

func TestOfferAcceptAlreadyDecided(t *testing.T) {
	h, tasks, offers, users := offerFixture()
	task := tasks.add(model.Task{Title: "t", ClientID: "client-1"})
	client := users.add(model.User{ID: "client-1", Role: model.RoleClient})
	o := offers.add(model.Offer{TaskID: task.ID, TaskerID: "tasker-1", Status: model.OfferRejected})

	c, rec := jsonCtx(t, http.MethodPatch, "/api/offers/"+o.ID, map[string]string{
		"status": "accepted",
	}, &client, "id", o.ID)
	require.NoError(t, h.UpdateStatus(c))
	wantStatus(t, rec, http.StatusConflict)
}

func TestOfferAcceptOnAssignedTask(t *testing.T) {
	h, tasks, offers, users := offerFixture()
	task := tasks.add(model.Task{Title: "t", ClientID: "client-1", Status: model.TaskAssigned})
	client := users.add(model.User{ID: "client-1", Role: model.RoleClient})
	o := offers.add(model.Offer{TaskID: task.ID, TaskerID: "tasker-1", Status: model.OfferPending})

	c, rec := jsonCtx(t, http.MethodPatch, "/api/offers/"+o.ID, map[string]string{
		"status": "accepted",
	}, &client, "id", o.ID)
	require.NoError(t, h.UpdateStatus(c))
	wantStatus(t, rec, http.StatusConflict)
	require.Equal(t, model.OfferPending, offers.offers[o.ID].Status)
}

func TestOfferUpdateRejectsPendingStatus(t *testing.T) {
	h, _, _, users := offerFixture()
	client := users.add(model.User{ID: "client-1", Role: model.RoleClient})

	c, rec := jsonCtx(t, http.MethodPatch, "/api/offers/x", map[string]string{
		"status": "pending",
	}, &client, "id", "x")
	require.NoError(t, h.UpdateStatus(c))
	wantStatus(t, rec, http.StatusBadRequest)
}

func TestOfferListByTaskerForbiddenForOthers(t *testing.T) {
	h, _, _, users := offerFixture()
	me := users.add(model.User{ID: "tasker-1", Role: model.RoleTasker})

	c, rec := jsonCtx(t, http.MethodGet, "/api/users/tasker-2/offers", nil, &me, "id", "tasker-2")
	require.NoError(t, h.ListByTasker(c))
	wantStatus(t, rec, http.StatusForbidden)
}
