package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PlanD600/pland-tui/internal/models"
)

func setupTestServer(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient(server.URL, "test-token", zerolog.Nop())
	client.SetHTTPClient(server.Client())
	return client, server
}

func TestClient_FetchProjectsSnapshot(t *testing.T) {
	client, _ := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/projects", r.URL.Path)
		assert.Equal(t, "tasks", r.URL.Query().Get("include"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode([]models.Project{
			{ID: "p1", Title: "Rollout", Tasks: []models.Task{{ID: "t1", Title: "Kickoff"}}},
		})
	})

	projects, err := client.FetchProjectsSnapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "Rollout", projects[0].Title)
	assert.Len(t, projects[0].Tasks, 1)
}

func TestClient_UpdateTaskSendsPartialPatch(t *testing.T) {
	start := models.NewDate(2024, time.March, 13)
	client, _ := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/projects/p1/tasks/t1", r.URL.Path)

		var body map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body, "startDate")
		assert.Equal(t, `"2024-03-13"`, string(body["startDate"]))
		assert.NotContains(t, body, "title")
		assert.NotContains(t, body, "status")

		json.NewEncoder(w).Encode(models.Task{ID: "t1", ProjectID: "p1", StartDate: &start})
	})

	task, err := client.UpdateTask(context.Background(), "p1", "t1", models.TaskPatch{StartDate: &start})
	require.NoError(t, err)
	assert.Equal(t, "t1", task.ID)
	assert.Equal(t, "2024-03-13", task.StartDate.String())
}

func TestClient_UpdateTaskErrorCarriesMessage(t *testing.T) {
	client, _ := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{"message": "only managers may move tasks"})
	})

	_, err := client.UpdateTask(context.Background(), "p1", "t1", models.TaskPatch{})
	require.Error(t, err)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, "only managers may move tasks", apiErr.Message)
	assert.Equal(t, "only managers may move tasks", err.Error())
}

func TestClient_AddComment(t *testing.T) {
	client, _ := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/projects/p1/tasks/t1/comments", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "looks good", body["text"])
		json.NewEncoder(w).Encode(models.Comment{ID: "c1", TaskID: "t1", Text: "looks good"})
	})

	comment, err := client.AddComment(context.Background(), "p1", "t1", "looks good")
	require.NoError(t, err)
	assert.Equal(t, "c1", comment.ID)
}

func TestClient_CurrentUser(t *testing.T) {
	client, _ := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/me", r.URL.Path)
		json.NewEncoder(w).Encode(models.User{ID: "u1", Name: "Dana", Role: models.RoleTeamLeader})
	})

	user, err := client.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeamLeader, user.Role)
}
