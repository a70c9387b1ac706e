package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/polarais/haru-sub000/internal/auth"
	"github.com/polarais/haru-sub000/internal/model"
)

// MemoryDiaryRepository is a map-backed DiaryRepository with the same
// semantics as the GORM implementation. It backs the test suite and local
// development without a database. A single mutex serializes everything, so
// concurrent creates cannot slip past the daily cap.
type MemoryDiaryRepository struct {
	mu      sync.Mutex
	users   auth.UserProvider
	entries map[string]*model.DiaryEntry
	photoID uint
	now     func() time.Time
}

// NewMemoryDiaryRepository creates an empty in-memory repository.
func NewMemoryDiaryRepository(users auth.UserProvider) *MemoryDiaryRepository {
	return &MemoryDiaryRepository{
		users:   users,
		entries: make(map[string]*model.DiaryEntry),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the time source. Tests use it to pin creation order.
func (r *MemoryDiaryRepository) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

func (r *MemoryDiaryRepository) GetEntries(ctx context.Context) model.Result[[]model.DiaryEntry] {
	user := r.users.CurrentUser(ctx)
	if user == nil {
		return model.Fail[[]model.DiaryEntry](ErrMsgUnauthenticated)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.collect(func(e *model.DiaryEntry) bool {
		return e.ProfileID == user.ID && !e.IsDeleted
	})
	// created_at DESC, id DESC, matching the GORM implementation. The id
	// tiebreak makes the order total, not temporal: ids are random uuids.
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.After(entries[j].CreatedAt)
		}
		return entries[i].ID > entries[j].ID
	})
	return model.Ok(entries)
}

func (r *MemoryDiaryRepository) GetEntryByID(ctx context.Context, id string) model.Result[*model.DiaryEntry] {
	user := r.users.CurrentUser(ctx)
	if user == nil {
		return model.Fail[*model.DiaryEntry](ErrMsgUnauthenticated)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok || e.IsDeleted || e.ProfileID != user.ID {
		return model.Fail[*model.DiaryEntry](ErrMsgNotFound)
	}
	c := clone(e)
	return model.Ok(&c)
}

func (r *MemoryDiaryRepository) GetEntriesByDate(ctx context.Context, date string) model.Result[[]model.DiaryEntry] {
	user := r.users.CurrentUser(ctx)
	if user == nil {
		return model.Fail[[]model.DiaryEntry](ErrMsgUnauthenticated)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.collect(func(e *model.DiaryEntry) bool {
		return e.ProfileID == user.ID && !e.IsDeleted && e.Date == date
	})
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.Before(entries[j].CreatedAt)
		}
		return entries[i].ID < entries[j].ID
	})
	return model.Ok(entries)
}

func (r *MemoryDiaryRepository) CreateEntry(ctx context.Context, input CreateEntryInput) model.Result[*model.DiaryEntry] {
	user := r.users.CurrentUser(ctx)
	if user == nil {
		return model.Fail[*model.DiaryEntry](ErrMsgUnauthenticated)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var count int
	for _, e := range r.entries {
		if e.ProfileID == user.ID && e.Date == input.Date && !e.IsDeleted {
			count++
		}
	}
	if count >= DailyEntryLimit {
		return model.Fail[*model.DiaryEntry](ErrMsgDailyLimit)
	}

	writeMode := input.WriteMode
	if writeMode == "" {
		writeMode = model.WriteModeJournal
	}

	now := r.now()
	entry := &model.DiaryEntry{
		ID:        uuid.NewString(),
		ProfileID: user.ID,
		Date:      input.Date,
		Mood:      input.Mood,
		Title:     input.Title,
		Content:   input.Content,
		AIChats:   model.ChatTurns{},
		WriteMode: writeMode,
		IsDeleted: false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.entries[entry.ID] = entry

	c := clone(entry)
	return model.Ok(&c)
}

func (r *MemoryDiaryRepository) UpdateEntry(ctx context.Context, id string, changes UpdateEntryInput) model.Result[*model.DiaryEntry] {
	user := r.users.CurrentUser(ctx)
	if user == nil {
		return model.Fail[*model.DiaryEntry](ErrMsgUnauthenticated)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok || e.IsDeleted || e.ProfileID != user.ID {
		return model.Fail[*model.DiaryEntry](ErrMsgNotFound)
	}

	if changes.Mood != nil {
		e.Mood = *changes.Mood
	}
	if changes.Title != nil {
		e.Title = *changes.Title
	}
	if changes.Content != nil {
		e.Content = *changes.Content
	}
	if changes.Summary != nil {
		e.Summary = *changes.Summary
	}
	if changes.WriteMode != nil {
		e.WriteMode = *changes.WriteMode
	}
	if changes.AIChats != nil {
		e.AIChats = append(model.ChatTurns{}, (*changes.AIChats)...)
	}
	e.UpdatedAt = r.now()

	c := clone(e)
	return model.Ok(&c)
}

func (r *MemoryDiaryRepository) DeleteEntry(ctx context.Context, id string) model.Result[*model.DiaryEntry] {
	user := r.users.CurrentUser(ctx)
	if user == nil {
		return model.Fail[*model.DiaryEntry](ErrMsgUnauthenticated)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok || e.IsDeleted || e.ProfileID != user.ID {
		return model.Fail[*model.DiaryEntry](ErrMsgNotFound)
	}
	e.IsDeleted = true
	e.UpdatedAt = r.now()
	return model.Result[*model.DiaryEntry]{}
}

func (r *MemoryDiaryRepository) GetEntryCountByDate(ctx context.Context, date string) model.Result[int64] {
	user := r.users.CurrentUser(ctx)
	if user == nil {
		return model.Fail[int64](ErrMsgUnauthenticated)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for _, e := range r.entries {
		if e.ProfileID == user.ID && e.Date == date && !e.IsDeleted {
			count++
		}
	}
	return model.Ok(count)
}

func (r *MemoryDiaryRepository) DeleteAllEntries(ctx context.Context) model.Result[int64] {
	user := r.users.CurrentUser(ctx)
	if user == nil {
		return model.Fail[int64](ErrMsgUnauthenticated)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var affected int64
	now := r.now()
	for _, e := range r.entries {
		if e.ProfileID == user.ID && !e.IsDeleted {
			e.IsDeleted = true
			e.UpdatedAt = now
			affected++
		}
	}
	return model.Ok(affected)
}

func (r *MemoryDiaryRepository) PurgeDeletedEntries(ctx context.Context) model.Result[int64] {
	user := r.users.CurrentUser(ctx)
	if user == nil {
		return model.Fail[int64](ErrMsgUnauthenticated)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var affected int64
	for id, e := range r.entries {
		if e.ProfileID == user.ID && e.IsDeleted {
			delete(r.entries, id)
			affected++
		}
	}
	return model.Ok(affected)
}

func (r *MemoryDiaryRepository) AddPhoto(ctx context.Context, entryID string, photo model.EntryPhoto) model.Result[*model.EntryPhoto] {
	user := r.users.CurrentUser(ctx)
	if user == nil {
		return model.Fail[*model.EntryPhoto](ErrMsgUnauthenticated)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[entryID]
	if !ok || e.IsDeleted || e.ProfileID != user.ID {
		return model.Fail[*model.EntryPhoto](ErrMsgNotFound)
	}

	r.photoID++
	photo.ID = r.photoID
	photo.EntryID = entryID
	photo.CreatedAt = r.now()
	e.Photos = append(e.Photos, photo)
	sort.SliceStable(e.Photos, func(i, j int) bool {
		return e.Photos[i].PositionIndex < e.Photos[j].PositionIndex
	})

	p := photo
	return model.Ok(&p)
}

func (r *MemoryDiaryRepository) collect(match func(*model.DiaryEntry) bool) []model.DiaryEntry {
	var out []model.DiaryEntry
	for _, e := range r.entries {
		if match(e) {
			out = append(out, clone(e))
		}
	}
	if out == nil {
		out = []model.DiaryEntry{}
	}
	return out
}

// clone copies an entry so callers never alias internal state.
func clone(e *model.DiaryEntry) model.DiaryEntry {
	c := *e
	c.AIChats = append(model.ChatTurns{}, e.AIChats...)
	if e.ContentBlocks != nil {
		c.ContentBlocks = append(model.ContentBlocks{}, e.ContentBlocks...)
	}
	if e.Photos != nil {
		c.Photos = append([]model.EntryPhoto{}, e.Photos...)
	}
	return c
}
