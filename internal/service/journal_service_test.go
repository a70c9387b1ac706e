package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polarais/haru-sub000/internal/auth"
	"github.com/polarais/haru-sub000/internal/cache"
	"github.com/polarais/haru-sub000/internal/model"
	"github.com/polarais/haru-sub000/internal/repository"
	"github.com/polarais/haru-sub000/internal/service"
	"github.com/polarais/haru-sub000/internal/storage"
)

type fakePhotoStorage struct {
	uploads []storage.Upload
	err     error
}

func (f *fakePhotoStorage) Upload(ctx context.Context, up storage.Upload) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.uploads = append(f.uploads, up)
	return "https://cdn.example/" + up.OwnerID + "/" + up.Filename, nil
}

type fakeCompleter struct {
	reply string
	calls int
}

func (f *fakeCompleter) Reflect(ctx context.Context, entry *model.DiaryEntry, transcript []model.ChatTurn) string {
	f.calls++
	return f.reply
}

type fixture struct {
	svc    *service.JournalService
	repo   *repository.MemoryDiaryRepository
	photos *fakePhotoStorage
	ai     *fakeCompleter
	cache  *cache.EntryCache
	ctx    context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	users := auth.ContextProvider{}
	repo := repository.NewMemoryDiaryRepository(users)
	photos := &fakePhotoStorage{}
	ai := &fakeCompleter{reply: "Sounds like a calm day."}
	entryCache := cache.NewEntryCache(time.Minute)
	svc := service.NewJournalService(repo, users, photos, ai, entryCache, zerolog.Nop())
	return &fixture{
		svc:    svc,
		repo:   repo,
		photos: photos,
		ai:     ai,
		cache:  entryCache,
		ctx:    auth.WithUser(context.Background(), &auth.User{ID: "profile-1"}),
	}
}

func (f *fixture) create(t *testing.T, title string) *model.DiaryEntry {
	t.Helper()
	res, photoErrs := f.svc.CreateEntry(f.ctx, service.CreateEntryRequest{
		CreateEntryInput: repository.CreateEntryInput{Date: "2025-09-17", Mood: "🙂", Title: title},
	})
	require.True(t, res.OK(), res.Error)
	require.Empty(t, photoErrs)
	return res.Data
}

func TestCreateEntryFromLegacyBlocks(t *testing.T) {
	f := newFixture(t)

	res, photoErrs := f.svc.CreateEntry(f.ctx, service.CreateEntryRequest{
		CreateEntryInput: repository.CreateEntryInput{Date: "2025-09-17", Mood: "😊"},
		Blocks: model.ContentBlocks{
			{Type: model.BlockParagraph, Text: "Morning walk."},
			{Type: model.BlockImage, URL: "https://cdn.example/walk.jpg", Caption: "the park"},
		},
	})
	require.True(t, res.OK(), res.Error)
	assert.Empty(t, photoErrs)
	assert.Equal(t, "Morning walk.\n\n[PHOTO:1]", res.Data.Content)

	got := f.svc.GetEntry(f.ctx, res.Data.ID)
	require.True(t, got.OK())
	require.Len(t, got.Data.Photos, 1)
	assert.Equal(t, "https://cdn.example/walk.jpg", got.Data.Photos[0].StoragePath)
}

func TestListEntriesUsesCache(t *testing.T) {
	f := newFixture(t)
	f.create(t, "cached")

	first := f.svc.ListEntries(f.ctx)
	require.True(t, first.OK())
	require.Len(t, first.Data, 1)

	// A write through the repository directly bypasses the service and its
	// invalidation, so the cached list is served unchanged.
	direct := f.repo.CreateEntry(f.ctx, repository.CreateEntryInput{Date: "2025-09-17", Mood: "🙂"})
	require.True(t, direct.OK())

	second := f.svc.ListEntries(f.ctx)
	require.True(t, second.OK())
	assert.Len(t, second.Data, 1)
}

func TestMutationsInvalidateCache(t *testing.T) {
	f := newFixture(t)
	entry := f.create(t, "first")

	listed := f.svc.ListEntries(f.ctx)
	require.True(t, listed.OK())
	require.Len(t, listed.Data, 1)

	require.True(t, f.svc.DeleteEntry(f.ctx, entry.ID).OK())

	listed = f.svc.ListEntries(f.ctx)
	require.True(t, listed.OK())
	assert.Empty(t, listed.Data)
}

func TestListEntriesUnauthenticated(t *testing.T) {
	f := newFixture(t)
	res := f.svc.ListEntries(context.Background())
	assert.Equal(t, repository.ErrMsgUnauthenticated, res.Error)
}

func TestAttachPhoto(t *testing.T) {
	f := newFixture(t)
	entry := f.create(t, "with photo")

	res := f.svc.AttachPhoto(f.ctx, entry.ID, storage.Upload{
		Filename:    "pic.jpg",
		ContentType: "image/jpeg",
		Body:        strings.NewReader("jpeg bytes"),
	}, "sunset", 5)
	require.True(t, res.OK(), res.Error)
	assert.Equal(t, "sunset", res.Data.Caption)
	assert.Equal(t, 5, res.Data.PositionIndex)
	assert.Equal(t, "https://cdn.example/profile-1/pic.jpg", res.Data.StoragePath)

	require.Len(t, f.photos.uploads, 1)
	assert.Equal(t, "profile-1", f.photos.uploads[0].OwnerID)
	assert.Equal(t, entry.ID, f.photos.uploads[0].EntryID)
}

func TestAttachPhotoUploadFailure(t *testing.T) {
	f := newFixture(t)
	entry := f.create(t, "upload fails")
	f.photos.err = errors.New("bucket unreachable")

	res := f.svc.AttachPhoto(f.ctx, entry.ID, storage.Upload{Filename: "pic.jpg"}, "", 0)
	assert.Equal(t, "Failed to upload photo: bucket unreachable", res.Error)

	// The entry itself is untouched.
	got := f.svc.GetEntry(f.ctx, entry.ID)
	require.True(t, got.OK())
	assert.Empty(t, got.Data.Photos)
}

func TestAttachPhotoUnauthenticated(t *testing.T) {
	f := newFixture(t)
	res := f.svc.AttachPhoto(context.Background(), "any", storage.Upload{}, "", 0)
	assert.Equal(t, repository.ErrMsgUnauthenticated, res.Error)
	assert.Empty(t, f.photos.uploads)
}

func TestReflectAppendsTwoTurns(t *testing.T) {
	f := newFixture(t)
	entry := f.create(t, "reflect on me")

	res := f.svc.Reflect(f.ctx, entry.ID, "Was today good?")
	require.True(t, res.OK(), res.Error)
	assert.Equal(t, 1, f.ai.calls)

	turns := res.Data.AIChats
	require.Len(t, turns, 2)
	assert.Equal(t, model.RoleUser, turns[0].Role)
	assert.Equal(t, "Was today good?", turns[0].Message)
	assert.Equal(t, model.RoleAssistant, turns[1].Role)
	assert.Equal(t, "Sounds like a calm day.", turns[1].Message)

	// A second round extends the same transcript.
	res = f.svc.Reflect(f.ctx, entry.ID, "Anything else?")
	require.True(t, res.OK())
	assert.Len(t, res.Data.AIChats, 4)
}

func TestReflectMissingEntry(t *testing.T) {
	f := newFixture(t)
	res := f.svc.Reflect(f.ctx, "missing", "hello?")
	assert.Equal(t, repository.ErrMsgNotFound, res.Error)
	assert.Zero(t, f.ai.calls)
}

// legacyContentRepo serves rows stored before the marker-string migration:
// empty content, block-array content_blocks.
type legacyContentRepo struct {
	repository.DiaryRepository
}

func legacyEntry() model.DiaryEntry {
	return model.DiaryEntry{
		ID:        "legacy-1",
		ProfileID: "profile-1",
		Date:      "2025-09-17",
		Mood:      "🙂",
		ContentBlocks: model.ContentBlocks{
			{Type: model.BlockParagraph, Text: "Morning walk."},
			{Type: model.BlockImage, URL: "https://cdn.example/walk.jpg", Caption: "the park"},
		},
	}
}

func (legacyContentRepo) GetEntries(ctx context.Context) model.Result[[]model.DiaryEntry] {
	return model.Ok([]model.DiaryEntry{legacyEntry()})
}

func (legacyContentRepo) GetEntriesByDate(ctx context.Context, date string) model.Result[[]model.DiaryEntry] {
	return model.Ok([]model.DiaryEntry{legacyEntry()})
}

func (legacyContentRepo) GetEntryByID(ctx context.Context, id string) model.Result[*model.DiaryEntry] {
	e := legacyEntry()
	return model.Ok(&e)
}

func TestReadPathsNormalizeLegacyContent(t *testing.T) {
	users := auth.ContextProvider{}
	svc := service.NewJournalService(legacyContentRepo{}, users, &fakePhotoStorage{},
		&fakeCompleter{}, cache.NewEntryCache(time.Minute), zerolog.Nop())
	ctx := auth.WithUser(context.Background(), &auth.User{ID: "profile-1"})

	const want = "Morning walk.\n\n[PHOTO:1]"

	listed := svc.ListEntries(ctx)
	require.True(t, listed.OK())
	require.Len(t, listed.Data, 1)
	assert.Equal(t, want, listed.Data[0].Content)

	byDate := svc.ListEntriesByDate(ctx, "2025-09-17")
	require.True(t, byDate.OK())
	require.Len(t, byDate.Data, 1)
	assert.Equal(t, want, byDate.Data[0].Content)

	one := svc.GetEntry(ctx, "legacy-1")
	require.True(t, one.OK())
	assert.Equal(t, want, one.Data.Content)

	// The cached list holds the normalized copy too.
	cached := svc.ListEntries(ctx)
	require.True(t, cached.OK())
	assert.Equal(t, want, cached.Data[0].Content)
}

func TestRenderEntry(t *testing.T) {
	f := newFixture(t)
	entry := &model.DiaryEntry{
		Content: "Look: [PHOTO:1]",
		Photos: []model.EntryPhoto{
			{StoragePath: "https://cdn.example/a.jpg", Caption: "a", PositionIndex: 6},
		},
	}
	assert.Equal(t, "Look: ![a](https://cdn.example/a.jpg)", f.svc.RenderEntry(entry))
}
