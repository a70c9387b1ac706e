package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/polarais/haru-sub000/internal/assistant"
	"github.com/polarais/haru-sub000/internal/auth"
	"github.com/polarais/haru-sub000/internal/cache"
	"github.com/polarais/haru-sub000/internal/content"
	"github.com/polarais/haru-sub000/internal/model"
	"github.com/polarais/haru-sub000/internal/repository"
	"github.com/polarais/haru-sub000/internal/storage"
)

// JournalService orchestrates the repository, the photo store, the AI
// collaborator and the entry cache. Caching is layered here, not in the
// repository, and every mutation invalidates the caller's cached list.
type JournalService struct {
	repo   repository.DiaryRepository
	users  auth.UserProvider
	photos storage.PhotoStorage
	ai     assistant.Completer
	cache  *cache.EntryCache
	logger zerolog.Logger
	now    func() time.Time
}

// NewJournalService wires the service.
func NewJournalService(
	repo repository.DiaryRepository,
	users auth.UserProvider,
	photos storage.PhotoStorage,
	ai assistant.Completer,
	entryCache *cache.EntryCache,
	logger zerolog.Logger,
) *JournalService {
	return &JournalService{
		repo:   repo,
		users:  users,
		photos: photos,
		ai:     ai,
		cache:  entryCache,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateEntryRequest is the service-level create payload. Legacy clients may
// still send the block-array content form; it is normalized to the canonical
// marker string before anything touches storage.
type CreateEntryRequest struct {
	repository.CreateEntryInput
	Blocks model.ContentBlocks `json:"content_blocks,omitempty"`
}

// ListEntries returns the caller's entries, served from the TTL cache when
// fresh. Legacy block entries are normalized before they are cached or
// returned.
func (s *JournalService) ListEntries(ctx context.Context) model.Result[[]model.DiaryEntry] {
	user := s.users.CurrentUser(ctx)
	if user != nil {
		if entries, ok := s.cache.Get(user.ID); ok {
			return model.Ok(entries)
		}
	}

	res := s.repo.GetEntries(ctx)
	if res.OK() {
		for i := range res.Data {
			normalizeLegacy(&res.Data[i])
		}
		if user != nil {
			s.cache.Set(user.ID, res.Data)
		}
	}
	return res
}

// GetEntry returns one entry; legacy block entries are normalized to the
// marker string on the way out.
func (s *JournalService) GetEntry(ctx context.Context, id string) model.Result[*model.DiaryEntry] {
	res := s.repo.GetEntryByID(ctx, id)
	if res.OK() {
		normalizeLegacy(res.Data)
	}
	return res
}

// ListEntriesByDate returns the caller's entries for one calendar date.
func (s *JournalService) ListEntriesByDate(ctx context.Context, date string) model.Result[[]model.DiaryEntry] {
	res := s.repo.GetEntriesByDate(ctx, date)
	if res.OK() {
		for i := range res.Data {
			normalizeLegacy(&res.Data[i])
		}
	}
	return res
}

// CountEntriesByDate returns how many active entries the caller holds for a
// date. The UI disables the "add new" affordance at the cap.
func (s *JournalService) CountEntriesByDate(ctx context.Context, date string) model.Result[int64] {
	return s.repo.GetEntryCountByDate(ctx, date)
}

// CreateEntry persists a new entry. When the payload carries legacy content
// blocks they are flattened first, and any image blocks become photo rows
// attached after the insert. Photo attachment failures are reported
// additively in the second return value; the saved entry is never rolled
// back over them.
func (s *JournalService) CreateEntry(ctx context.Context, req CreateEntryRequest) (model.Result[*model.DiaryEntry], []string) {
	input := req.CreateEntryInput
	var pending []model.EntryPhoto
	if len(req.Blocks) > 0 && input.Content == "" {
		input.Content, pending = content.NormalizeBlocks(req.Blocks)
	}

	res := s.repo.CreateEntry(ctx, input)
	if !res.OK() {
		return res, nil
	}
	s.invalidate(ctx)

	var photoErrors []string
	for _, photo := range pending {
		if attach := s.repo.AddPhoto(ctx, res.Data.ID, photo); !attach.OK() {
			s.logger.Warn().Str("entry_id", res.Data.ID).Str("error", attach.Error).
				Msg("failed to attach migrated photo")
			photoErrors = append(photoErrors, attach.Error)
		}
	}
	return res, photoErrors
}

// UpdateEntry applies a partial update and refreshes the cache.
func (s *JournalService) UpdateEntry(ctx context.Context, id string, changes repository.UpdateEntryInput) model.Result[*model.DiaryEntry] {
	res := s.repo.UpdateEntry(ctx, id, changes)
	if res.OK() {
		s.invalidate(ctx)
	}
	return res
}

// DeleteEntry soft-deletes an entry.
func (s *JournalService) DeleteEntry(ctx context.Context, id string) model.Result[*model.DiaryEntry] {
	res := s.repo.DeleteEntry(ctx, id)
	if res.OK() {
		s.invalidate(ctx)
	}
	return res
}

// DeleteAllEntries soft-deletes everything the caller owns and reports the
// affected count; zero is "nothing to delete", not an error.
func (s *JournalService) DeleteAllEntries(ctx context.Context) model.Result[int64] {
	res := s.repo.DeleteAllEntries(ctx)
	if res.OK() {
		s.invalidate(ctx)
	}
	return res
}

// PurgeDeletedEntries permanently removes the caller's soft-deleted rows.
func (s *JournalService) PurgeDeletedEntries(ctx context.Context) model.Result[int64] {
	res := s.repo.PurgeDeletedEntries(ctx)
	if res.OK() {
		s.invalidate(ctx)
	}
	return res
}

// AttachPhoto uploads an image to object storage and records it against the
// entry at the given marker position. The upload and the row insert are two
// network operations; an upload failure is reported to the caller and leaves
// the entry untouched.
func (s *JournalService) AttachPhoto(ctx context.Context, entryID string, up storage.Upload, caption string, positionIndex int) model.Result[*model.EntryPhoto] {
	user := s.users.CurrentUser(ctx)
	if user == nil {
		return model.Fail[*model.EntryPhoto](repository.ErrMsgUnauthenticated)
	}
	up.OwnerID = user.ID
	up.EntryID = entryID

	url, err := s.photos.Upload(ctx, up)
	if err != nil {
		s.logger.Warn().Err(err).Str("entry_id", entryID).Msg("photo upload failed")
		return model.Fail[*model.EntryPhoto]("Failed to upload photo: " + err.Error())
	}

	res := s.repo.AddPhoto(ctx, entryID, model.EntryPhoto{
		StoragePath:   url,
		Caption:       caption,
		PositionIndex: positionIndex,
	})
	if res.OK() {
		s.invalidate(ctx)
	}
	return res
}

// Reflect runs one turn of the AI reflection conversation: the user message
// and the assistant's reply are appended to the entry's transcript. The AI
// collaborator never fails the flow; it degrades to a canned reply.
func (s *JournalService) Reflect(ctx context.Context, entryID, message string) model.Result[*model.DiaryEntry] {
	current := s.repo.GetEntryByID(ctx, entryID)
	if !current.OK() {
		return current
	}
	entry := current.Data

	transcript := append(model.ChatTurns{}, entry.AIChats...)
	transcript = append(transcript, model.ChatTurn{
		Role:      model.RoleUser,
		Message:   message,
		Timestamp: s.now(),
	})

	reply := s.ai.Reflect(ctx, entry, transcript)
	transcript = append(transcript, model.ChatTurn{
		Role:      model.RoleAssistant,
		Message:   reply,
		Timestamp: s.now(),
	})

	res := s.repo.UpdateEntry(ctx, entryID, repository.UpdateEntryInput{AIChats: &transcript})
	if res.OK() {
		s.invalidate(ctx)
	}
	return res
}

// RenderEntry substitutes the entry's photo markers with image references for
// display.
func (s *JournalService) RenderEntry(entry *model.DiaryEntry) string {
	return content.RenderPhotos(entry.Content, entry.Photos)
}

func (s *JournalService) invalidate(ctx context.Context) {
	if user := s.users.CurrentUser(ctx); user != nil {
		s.cache.Invalidate(user.ID)
	}
}

// normalizeLegacy converts a block-array entry to the canonical marker form
// in place. Stored photos already exist for migrated entries, so only the
// text shape changes.
func normalizeLegacy(entry *model.DiaryEntry) {
	if entry == nil || entry.Content != "" || len(entry.ContentBlocks) == 0 {
		return
	}
	entry.Content, _ = content.NormalizeBlocks(entry.ContentBlocks)
}
