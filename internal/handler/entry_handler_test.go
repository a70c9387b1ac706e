package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polarais/haru-sub000/internal/auth"
	"github.com/polarais/haru-sub000/internal/cache"
	"github.com/polarais/haru-sub000/internal/handler"
	"github.com/polarais/haru-sub000/internal/middleware"
	"github.com/polarais/haru-sub000/internal/model"
	"github.com/polarais/haru-sub000/internal/repository"
	"github.com/polarais/haru-sub000/internal/service"
	"github.com/polarais/haru-sub000/internal/storage"
)

var testSecret = []byte("handler-test-secret")

type stubPhotoStorage struct{}

func (stubPhotoStorage) Upload(ctx context.Context, up storage.Upload) (string, error) {
	return "https://cdn.example/" + up.Filename, nil
}

type stubCompleter struct{}

func (stubCompleter) Reflect(ctx context.Context, entry *model.DiaryEntry, transcript []model.ChatTurn) string {
	return "A thoughtful reply."
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	users := auth.ContextProvider{}
	repo := repository.NewMemoryDiaryRepository(users)
	svc := service.NewJournalService(repo, users, stubPhotoStorage{}, stubCompleter{}, cache.NewEntryCache(time.Minute), zerolog.Nop())
	h := handler.NewEntryHandler(svc, nil)

	app := fiber.New()
	api := app.Group("/api/v1", middleware.AuthFiber(testSecret))
	api.Get("/entries", h.ListEntriesFiber)
	api.Post("/entries", h.CreateEntryFiber)
	api.Delete("/entries", h.DeleteAllEntriesFiber)
	api.Delete("/entries/purged", h.PurgeEntriesFiber)
	api.Get("/entries/date/:date", h.ListEntriesByDateFiber)
	api.Get("/entries/date/:date/count", h.CountEntriesByDateFiber)
	api.Get("/entries/:id", h.GetEntryFiber)
	api.Put("/entries/:id", h.UpdateEntryFiber)
	api.Delete("/entries/:id", h.DeleteEntryFiber)
	api.Post("/entries/:id/photos", h.UploadPhotoFiber)
	api.Post("/entries/:id/reflect", h.ReflectFiber)
	return app
}

func bearerToken(t *testing.T, profileID string) string {
	t.Helper()
	token, err := auth.GenerateToken(profileID, testSecret, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestListEntriesWithoutToken(t *testing.T) {
	app := newTestApp(t)

	resp := doJSON(t, app, fiber.MethodGet, "/api/v1/entries", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	body := decode[model.Result[[]model.DiaryEntry]](t, resp)
	assert.Equal(t, repository.ErrMsgUnauthenticated, body.Error)
}

func TestCreateAndGetEntry(t *testing.T) {
	app := newTestApp(t)
	token := bearerToken(t, "profile-1")

	resp := doJSON(t, app, fiber.MethodPost, "/api/v1/entries", token, fiber.Map{
		"date":    "2025-09-17",
		"mood":    "😊",
		"title":   "First",
		"content": "Hello [PHOTO:1] world",
	})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	created := decode[model.Result[*model.DiaryEntry]](t, resp)
	require.NotNil(t, created.Data)
	assert.Equal(t, "profile-1", created.Data.ProfileID)

	resp = doJSON(t, app, fiber.MethodGet, "/api/v1/entries/"+created.Data.ID, token, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	got := decode[model.Result[*model.DiaryEntry]](t, resp)
	require.NotNil(t, got.Data)
	assert.Equal(t, "Hello [PHOTO:1] world", got.Data.Content)
}

func TestDailyLimitConflict(t *testing.T) {
	app := newTestApp(t)
	token := bearerToken(t, "profile-1")

	payload := fiber.Map{"date": "2025-09-17", "mood": "🙂"}
	for i := 0; i < repository.DailyEntryLimit; i++ {
		resp := doJSON(t, app, fiber.MethodPost, "/api/v1/entries", token, payload)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	resp := doJSON(t, app, fiber.MethodPost, "/api/v1/entries", token, payload)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	body := decode[model.Result[*model.DiaryEntry]](t, resp)
	assert.Equal(t, repository.ErrMsgDailyLimit, body.Error)
}

func TestGetEntryNotFound(t *testing.T) {
	app := newTestApp(t)
	token := bearerToken(t, "profile-1")

	resp := doJSON(t, app, fiber.MethodGet, "/api/v1/entries/nope", token, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	body := decode[model.Result[*model.DiaryEntry]](t, resp)
	assert.Equal(t, repository.ErrMsgNotFound, body.Error)
}

func TestUpdateAndDeleteFlow(t *testing.T) {
	app := newTestApp(t)
	token := bearerToken(t, "profile-1")

	resp := doJSON(t, app, fiber.MethodPost, "/api/v1/entries", token, fiber.Map{
		"date": "2025-09-17", "mood": "🙂", "title": "before",
	})
	created := decode[model.Result[*model.DiaryEntry]](t, resp)
	require.NotNil(t, created.Data)
	id := created.Data.ID

	resp = doJSON(t, app, fiber.MethodPut, "/api/v1/entries/"+id, token, fiber.Map{"title": "after"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	updated := decode[model.Result[*model.DiaryEntry]](t, resp)
	require.NotNil(t, updated.Data)
	assert.Equal(t, "after", updated.Data.Title)
	assert.Equal(t, "🙂", updated.Data.Mood)

	resp = doJSON(t, app, fiber.MethodDelete, "/api/v1/entries/"+id, token, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, fiber.MethodGet, "/api/v1/entries/"+id, token, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestDateRoutes(t *testing.T) {
	app := newTestApp(t)
	token := bearerToken(t, "profile-1")

	for _, date := range []string{"2025-09-17", "2025-09-17", "2025-09-18"} {
		resp := doJSON(t, app, fiber.MethodPost, "/api/v1/entries", token, fiber.Map{"date": date, "mood": "🙂"})
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	resp := doJSON(t, app, fiber.MethodGet, "/api/v1/entries/date/2025-09-17", token, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	listed := decode[model.Result[[]model.DiaryEntry]](t, resp)
	assert.Len(t, listed.Data, 2)

	resp = doJSON(t, app, fiber.MethodGet, "/api/v1/entries/date/2025-09-17/count", token, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	count := decode[model.Result[int64]](t, resp)
	assert.EqualValues(t, 2, count.Data)
}

func TestPurgeRoute(t *testing.T) {
	app := newTestApp(t)
	token := bearerToken(t, "profile-1")

	resp := doJSON(t, app, fiber.MethodPost, "/api/v1/entries", token, fiber.Map{"date": "2025-09-17", "mood": "🙂"})
	created := decode[model.Result[*model.DiaryEntry]](t, resp)
	require.NotNil(t, created.Data)

	resp = doJSON(t, app, fiber.MethodDelete, "/api/v1/entries/"+created.Data.ID, token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, fiber.MethodDelete, "/api/v1/entries/purged", token, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	purged := decode[model.Result[int64]](t, resp)
	assert.EqualValues(t, 1, purged.Data)
}

func TestUploadPhoto(t *testing.T) {
	app := newTestApp(t)
	token := bearerToken(t, "profile-1")

	resp := doJSON(t, app, fiber.MethodPost, "/api/v1/entries", token, fiber.Map{"date": "2025-09-17", "mood": "🙂"})
	created := decode[model.Result[*model.DiaryEntry]](t, resp)
	require.NotNil(t, created.Data)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("photo", "sunset.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("jpeg bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.WriteField("caption", "the beach"))
	require.NoError(t, writer.WriteField("position_index", "7"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(fiber.MethodPost, fmt.Sprintf("/api/v1/entries/%s/photos", created.Data.ID), &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", token)
	uploadResp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, uploadResp.StatusCode)

	photo := decode[model.Result[*model.EntryPhoto]](t, uploadResp)
	require.NotNil(t, photo.Data)
	assert.Equal(t, "the beach", photo.Data.Caption)
	assert.Equal(t, 7, photo.Data.PositionIndex)
	assert.Equal(t, "https://cdn.example/sunset.jpg", photo.Data.StoragePath)
}

func TestReflectRoute(t *testing.T) {
	app := newTestApp(t)
	token := bearerToken(t, "profile-1")

	resp := doJSON(t, app, fiber.MethodPost, "/api/v1/entries", token, fiber.Map{"date": "2025-09-17", "mood": "🙂"})
	created := decode[model.Result[*model.DiaryEntry]](t, resp)
	require.NotNil(t, created.Data)

	resp = doJSON(t, app, fiber.MethodPost, "/api/v1/entries/"+created.Data.ID+"/reflect", token, fiber.Map{
		"message": "Was today good?",
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decode[model.Result[*model.DiaryEntry]](t, resp)
	require.NotNil(t, body.Data)
	require.Len(t, body.Data.AIChats, 2)
	assert.Equal(t, "A thoughtful reply.", body.Data.AIChats[1].Message)
}

func TestCrossUserIsolationOverHTTP(t *testing.T) {
	app := newTestApp(t)
	tokenA := bearerToken(t, "profile-a")
	tokenB := bearerToken(t, "profile-b")

	resp := doJSON(t, app, fiber.MethodPost, "/api/v1/entries", tokenA, fiber.Map{"date": "2025-09-17", "mood": "🙂"})
	created := decode[model.Result[*model.DiaryEntry]](t, resp)
	require.NotNil(t, created.Data)

	resp = doJSON(t, app, fiber.MethodGet, "/api/v1/entries/"+created.Data.ID, tokenB, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, fiber.MethodGet, "/api/v1/entries", tokenB, nil)
	listed := decode[model.Result[[]model.DiaryEntry]](t, resp)
	assert.Empty(t, listed.Data)
}
