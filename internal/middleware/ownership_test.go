package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/tasksur/tasksur/internal/model"
)

type fakeTasks struct {
	tasks map[string]model.Task
}

func (f *fakeTasks) Get(_ context.Context, id string) (model.Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return model.Task{}, sql.ErrNoRows
	}
	return t, nil
}

func taskFixture() (*fakeTasks, model.Task) {
	tasker := "tasker-1"
	t := model.Task{
		ID:               "task-1",
		ClientID:         "client-1",
		AssignedTaskerID: &tasker,
		Status:           model.TaskInProgress,
	}
	return &fakeTasks{tasks: map[string]model.Task{t.ID: t}}, t
}

func runCanModifyTask(t *testing.T, u *model.User, taskID string) (int, echo.Context) {
	t.Helper()
	tasks, _ := taskFixture()
	c, rec := newTestContext(t, http.MethodPatch, "/api/tasks/"+taskID)
	c.SetParamNames("id")
	c.SetParamValues(taskID)
	if u != nil {
		c.Set(CtxUser, u)
	}
	if err := CanModifyTask(tasks)(okHandler)(c); err != nil {
		t.Fatalf("middleware: %v", err)
	}
	return rec.Code, c
}

func TestCanModifyTaskAdmits(t *testing.T) {
	cases := []struct {
		name string
		user model.User
	}{
		{"client", model.User{ID: "client-1", Role: model.RoleClient}},
		{"assigned tasker", model.User{ID: "tasker-1", Role: model.RoleTasker}},
		{"admin", model.User{ID: "someone-else", Role: model.RoleAdmin}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, c := runCanModifyTask(t, &tc.user, "task-1")
			if code != http.StatusOK {
				t.Fatalf("status = %d, want 200", code)
			}
			if _, ok := c.Get(CtxTask).(model.Task); !ok {
				t.Error("task not stashed in context")
			}
		})
	}
}

func TestCanModifyTaskRejectsStranger(t *testing.T) {
	u := model.User{ID: "stranger", Role: model.RoleTasker}
	code, _ := runCanModifyTask(t, &u, "task-1")
	if code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", code)
	}
}

func TestCanModifyTaskMissingTask(t *testing.T) {
	u := model.User{ID: "client-1", Role: model.RoleClient}
	code, _ := runCanModifyTask(t, &u, "nope")
	if code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", code)
	}
}

func TestCanModifyTaskUnauthenticated(t *testing.T) {
	code, _ := runCanModifyTask(t, nil, "task-1")
	if code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", code)
	}
}

func runCanModifyOffer(t *testing.T, u model.User, taskStatus model.TaskStatus) int {
	t.Helper()
	task := model.Task{ID: "task-1", ClientID: "client-1", Status: taskStatus}
	tasks := &fakeTasks{tasks: map[string]model.Task{task.ID: task}}
	taskOf := func(c echo.Context) (string, error) {
		if c.Param("id") != "offer-1" {
			return "", sql.ErrNoRows
		}
		return task.ID, nil
	}
	c, rec := newTestContext(t, http.MethodPatch, "/api/offers/offer-1")
	c.SetParamNames("id")
	c.SetParamValues("offer-1")
	c.Set(CtxUser, &u)
	if err := CanModifyOffer(tasks, taskOf)(okHandler)(c); err != nil {
		t.Fatalf("middleware: %v", err)
	}
	return rec.Code
}

func TestCanModifyOfferClientWhileOpen(t *testing.T) {
	u := model.User{ID: "client-1", Role: model.RoleClient}
	if code := runCanModifyOffer(t, u, model.TaskOpen); code != http.StatusOK {
		t.Errorf("status = %d, want 200", code)
	}
}

func TestCanModifyOfferTaskNotOpen(t *testing.T) {
	u := model.User{ID: "client-1", Role: model.RoleClient}
	if code := runCanModifyOffer(t, u, model.TaskInProgress); code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", code)
	}
}

func TestCanModifyOfferNotTheClient(t *testing.T) {
	u := model.User{ID: "other", Role: model.RoleClient}
	if code := runCanModifyOffer(t, u, model.TaskOpen); code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", code)
	}
}

func TestCanModifyOfferAdminBypasses(t *testing.T) {
	u := model.User{ID: "admin-1", Role: model.RoleAdmin}
	if code := runCanModifyOffer(t, u, model.TaskCompleted); code != http.StatusOK {
		t.Errorf("status = %d, want 200", code)
	}
}

func TestCanAccessTaskMessages(t *testing.T) {
	tasks, task := taskFixture()
	cases := []struct {
		name string
		user model.User
		want int
	}{
		{"client", model.User{ID: task.ClientID, Role: model.RoleClient}, http.StatusOK},
		{"assigned tasker", model.User{ID: *task.AssignedTaskerID, Role: model.RoleTasker}, http.StatusOK},
		{"admin", model.User{ID: "root", Role: model.RoleAdmin}, http.StatusOK},
		{"stranger", model.User{ID: "nosy", Role: model.RoleClient}, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newTestContext(t, http.MethodGet, "/api/tasks/task-1/messages")
			c.SetParamNames("id")
			c.SetParamValues(task.ID)
			c.Set(CtxUser, &tc.user)
			if err := CanAccessTaskMessages(tasks)(okHandler)(c); err != nil {
				t.Fatalf("middleware: %v", err)
			}
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}
