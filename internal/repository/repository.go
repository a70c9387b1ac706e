package repository

import (
	"context"

	"github.com/polarais/haru-sub000/internal/model"
)

// DailyEntryLimit is the maximum number of non-deleted entries a profile may
// hold for a single calendar date.
const DailyEntryLimit = 3

// Error strings surfaced through Result.Error. Callers pattern-match on
// these for UX messaging, so the wording is part of the contract.
const (
	// ErrMsgUnauthenticated is returned by every operation when no user can
	// be resolved; storage is never touched in that case.
	ErrMsgUnauthenticated = "User not authenticated"
	// ErrMsgNotFound covers absent, soft-deleted and foreign-owned entries
	// alike, so callers cannot probe for other users' data.
	ErrMsgNotFound = "Entry not found"
	// ErrMsgDailyLimit is returned by CreateEntry when the cap is reached.
	ErrMsgDailyLimit = "You can only create up to 3 entries per day"
)

// CreateEntryInput carries the caller-supplied fields for a new entry.
// The owning profile is never taken from the input; it is resolved from the
// session on every call.
type CreateEntryInput struct {
	Date      string `json:"date"`
	Mood      string `json:"mood"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	WriteMode string `json:"write_mode"`
}

// UpdateEntryInput is a partial update: only non-nil fields are written.
// The entry's date and owner are immutable after creation.
type UpdateEntryInput struct {
	Mood      *string          `json:"mood"`
	Title     *string          `json:"title"`
	Content   *string          `json:"content"`
	Summary   *string          `json:"summary"`
	WriteMode *string          `json:"write_mode"`
	AIChats   *model.ChatTurns `json:"ai_chats"`
}

// Updates flattens the input into a column map for the mutation.
func (in UpdateEntryInput) Updates() map[string]interface{} {
	updates := map[string]interface{}{}
	if in.Mood != nil {
		updates["mood"] = *in.Mood
	}
	if in.Title != nil {
		updates["title"] = *in.Title
	}
	if in.Content != nil {
		updates["content"] = *in.Content
	}
	if in.Summary != nil {
		updates["summary"] = *in.Summary
	}
	if in.WriteMode != nil {
		updates["write_mode"] = *in.WriteMode
	}
	if in.AIChats != nil {
		updates["ai_chats"] = *in.AIChats
	}
	return updates
}

// DiaryRepository is the diary entry persistence contract. Every operation is
// implicitly scoped to the currently authenticated user (no operation takes
// a user id) and communicates failure exclusively through Result.Error.
//
// GetEntries orders by created_at descending with id descending as the
// stable tiebreak (most recently created first).
//
// DeleteEntry is a soft delete; deleting an entry that is already deleted
// reports "Entry not found", the same answer as for a foreign-owned or
// absent id.
type DiaryRepository interface {
	GetEntries(ctx context.Context) model.Result[[]model.DiaryEntry]
	GetEntryByID(ctx context.Context, id string) model.Result[*model.DiaryEntry]
	GetEntriesByDate(ctx context.Context, date string) model.Result[[]model.DiaryEntry]
	CreateEntry(ctx context.Context, input CreateEntryInput) model.Result[*model.DiaryEntry]
	UpdateEntry(ctx context.Context, id string, changes UpdateEntryInput) model.Result[*model.DiaryEntry]
	DeleteEntry(ctx context.Context, id string) model.Result[*model.DiaryEntry]
	GetEntryCountByDate(ctx context.Context, date string) model.Result[int64]

	// Bulk operations return the number of affected rows; zero is a valid,
	// non-error outcome.
	DeleteAllEntries(ctx context.Context) model.Result[int64]
	PurgeDeletedEntries(ctx context.Context) model.Result[int64]

	// AddPhoto attaches an uploaded photo to an entry the current user owns.
	AddPhoto(ctx context.Context, entryID string, photo model.EntryPhoto) model.Result[*model.EntryPhoto]
}
