package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/polarais/haru-sub000/internal/auth"
	"github.com/polarais/haru-sub000/internal/model"
)

// GormDiaryRepository binds the contract to the diaries table. Every query
// carries the profile_id and is_deleted filters; for mutations the filter and
// the write are the same UPDATE statement, so an authorization check can
// never race with the mutation it guards.
type GormDiaryRepository struct {
	db    *gorm.DB
	users auth.UserProvider
}

// NewGormDiaryRepository creates a repository over the given database handle.
func NewGormDiaryRepository(db *gorm.DB, users auth.UserProvider) DiaryRepository {
	return &GormDiaryRepository{db: db, users: users}
}

var errDailyLimit = errors.New(ErrMsgDailyLimit)

// GetEntries returns all non-deleted entries for the current user, most
// recently created first (created_at DESC, id DESC).
func (r *GormDiaryRepository) GetEntries(ctx context.Context) model.Result[[]model.DiaryEntry] {
	user := r.users.CurrentUser(ctx)
	if user == nil {
		return model.Fail[[]model.DiaryEntry](ErrMsgUnauthenticated)
	}

	var entries []model.DiaryEntry
	err := r.scoped(ctx, user.ID).
		Order("created_at DESC, id DESC").
		Preload("Photos", photoOrder).
		Find(&entries).Error
	if err != nil {
		return model.Fail[[]model.DiaryEntry](err.Error())
	}
	return model.Ok(entries)
}

// GetEntryByID returns one entry. Absent, deleted and foreign-owned ids are
// indistinguishable to the caller.
func (r *GormDiaryRepository) GetEntryByID(ctx context.Context, id string) model.Result[*model.DiaryEntry] {
	user := r.users.CurrentUser(ctx)
	if user == nil {
		return model.Fail[*model.DiaryEntry](ErrMsgUnauthenticated)
	}

	var entry model.DiaryEntry
	err := r.scoped(ctx, user.ID).
		Where("id = ?", id).
		Preload("Photos", photoOrder).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Fail[*model.DiaryEntry](ErrMsgNotFound)
		}
		return model.Fail[*model.DiaryEntry](err.Error())
	}
	return model.Ok(&entry)
}

// GetEntriesByDate returns the current user's non-deleted entries for an
// exact YYYY-MM-DD date string, in creation order within the day.
func (r *GormDiaryRepository) GetEntriesByDate(ctx context.Context, date string) model.Result[[]model.DiaryEntry] {
	user := r.users.CurrentUser(ctx)
	if user == nil {
		return model.Fail[[]model.DiaryEntry](ErrMsgUnauthenticated)
	}

	var entries []model.DiaryEntry
	err := r.scoped(ctx, user.ID).
		Where("date = ?", date).
		Order("created_at ASC, id ASC").
		Preload("Photos", photoOrder).
		Find(&entries).Error
	if err != nil {
		return model.Fail[[]model.DiaryEntry](err.Error())
	}
	return model.Ok(entries)
}

// CreateEntry inserts a new entry after enforcing the daily cap. The count
// and the insert run in one transaction serialized per (profile, date) by a
// Postgres advisory lock, so concurrent creates cannot breach the cap.
func (r *GormDiaryRepository) CreateEntry(ctx context.Context, input CreateEntryInput) model.Result[*model.DiaryEntry] {
	user := r.users.CurrentUser(ctx)
	if user == nil {
		return model.Fail[*model.DiaryEntry](ErrMsgUnauthenticated)
	}

	writeMode := input.WriteMode
	if writeMode == "" {
		writeMode = model.WriteModeJournal
	}

	entry := &model.DiaryEntry{
		ProfileID: user.ID,
		Date:      input.Date,
		Mood:      input.Mood,
		Title:     input.Title,
		Content:   input.Content,
		AIChats:   model.ChatTurns{},
		WriteMode: writeMode,
		IsDeleted: false,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			"SELECT pg_advisory_xact_lock(hashtext(?))",
			user.ID+"/"+input.Date,
		).Error; err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&model.DiaryEntry{}).
			Where("profile_id = ? AND date = ? AND is_deleted = ?", user.ID, input.Date, false).
			Count(&count).Error; err != nil {
			return err
		}
		if count >= DailyEntryLimit {
			return errDailyLimit
		}

		return tx.Create(entry).Error
	})
	if err != nil {
		return model.Fail[*model.DiaryEntry](err.Error())
	}
	return model.Ok(entry)
}

// UpdateEntry applies a partial update. The ownership and soft-delete filters
// are part of the UPDATE itself; zero affected rows means the entry does not
// exist for this caller. updated_at is refreshed even when no field changed.
func (r *GormDiaryRepository) UpdateEntry(ctx context.Context, id string, changes UpdateEntryInput) model.Result[*model.DiaryEntry] {
	user := r.users.CurrentUser(ctx)
	if user == nil {
		return model.Fail[*model.DiaryEntry](ErrMsgUnauthenticated)
	}

	updates := changes.Updates()
	updates["updated_at"] = time.Now().UTC()

	res := r.db.WithContext(ctx).Model(&model.DiaryEntry{}).
		Where("id = ? AND profile_id = ? AND is_deleted = ?", id, user.ID, false).
		Updates(updates)
	if res.Error != nil {
		return model.Fail[*model.DiaryEntry](res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return model.Fail[*model.DiaryEntry](ErrMsgNotFound)
	}

	return r.GetEntryByID(ctx, id)
}

// DeleteEntry soft-deletes an entry. The row is kept; it just disappears
// from every read. An already-deleted id reports "Entry not found".
func (r *GormDiaryRepository) DeleteEntry(ctx context.Context, id string) model.Result[*model.DiaryEntry] {
	user := r.users.CurrentUser(ctx)
	if user == nil {
		return model.Fail[*model.DiaryEntry](ErrMsgUnauthenticated)
	}

	res := r.db.WithContext(ctx).Model(&model.DiaryEntry{}).
		Where("id = ? AND profile_id = ? AND is_deleted = ?", id, user.ID, false).
		Updates(map[string]interface{}{"is_deleted": true, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return model.Fail[*model.DiaryEntry](res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return model.Fail[*model.DiaryEntry](ErrMsgNotFound)
	}
	return model.Result[*model.DiaryEntry]{}
}

// GetEntryCountByDate counts the current user's non-deleted entries for an
// exact date. CreateEntry's cap check and the UI's "add new" affordance both
// rely on it.
func (r *GormDiaryRepository) GetEntryCountByDate(ctx context.Context, date string) model.Result[int64] {
	user := r.users.CurrentUser(ctx)
	if user == nil {
		return model.Fail[int64](ErrMsgUnauthenticated)
	}

	var count int64
	err := r.db.WithContext(ctx).Model(&model.DiaryEntry{}).
		Where("profile_id = ? AND date = ? AND is_deleted = ?", user.ID, date, false).
		Count(&count).Error
	if err != nil {
		return model.Fail[int64](err.Error())
	}
	return model.Ok(count)
}

// DeleteAllEntries soft-deletes every active entry of the current user and
// returns how many rows were affected.
func (r *GormDiaryRepository) DeleteAllEntries(ctx context.Context) model.Result[int64] {
	user := r.users.CurrentUser(ctx)
	if user == nil {
		return model.Fail[int64](ErrMsgUnauthenticated)
	}

	res := r.db.WithContext(ctx).Model(&model.DiaryEntry{}).
		Where("profile_id = ? AND is_deleted = ?", user.ID, false).
		Updates(map[string]interface{}{"is_deleted": true, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return model.Fail[int64](res.Error.Error())
	}
	return model.Ok(res.RowsAffected)
}

// PurgeDeletedEntries permanently removes the current user's soft-deleted
// rows. Attached photo rows go with them via the cascade constraint.
func (r *GormDiaryRepository) PurgeDeletedEntries(ctx context.Context) model.Result[int64] {
	user := r.users.CurrentUser(ctx)
	if user == nil {
		return model.Fail[int64](ErrMsgUnauthenticated)
	}

	res := r.db.WithContext(ctx).
		Where("profile_id = ? AND is_deleted = ?", user.ID, true).
		Delete(&model.DiaryEntry{})
	if res.Error != nil {
		return model.Fail[int64](res.Error.Error())
	}
	return model.Ok(res.RowsAffected)
}

// AddPhoto attaches a photo record to an entry the current user owns. The
// ownership probe answers "Entry not found" for anything the caller may not
// touch.
func (r *GormDiaryRepository) AddPhoto(ctx context.Context, entryID string, photo model.EntryPhoto) model.Result[*model.EntryPhoto] {
	user := r.users.CurrentUser(ctx)
	if user == nil {
		return model.Fail[*model.EntryPhoto](ErrMsgUnauthenticated)
	}

	var entry model.DiaryEntry
	err := r.scoped(ctx, user.ID).Select("id").Where("id = ?", entryID).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Fail[*model.EntryPhoto](ErrMsgNotFound)
		}
		return model.Fail[*model.EntryPhoto](err.Error())
	}

	photo.ID = 0
	photo.EntryID = entryID
	if err := r.db.WithContext(ctx).Create(&photo).Error; err != nil {
		return model.Fail[*model.EntryPhoto](err.Error())
	}
	return model.Ok(&photo)
}

// scoped applies the two filters every read shares.
func (r *GormDiaryRepository) scoped(ctx context.Context, profileID string) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.DiaryEntry{}).
		Where("profile_id = ? AND is_deleted = ?", profileID, false)
}

// photoOrder keeps attached photos in marker order.
func photoOrder(db *gorm.DB) *gorm.DB {
	return db.Order("position_index ASC")
}
