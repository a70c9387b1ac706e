package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Write modes recorded on an entry. They describe which authoring flow
// produced the entry and do not change how it is stored.
const (
	WriteModeJournal = "journal"
	WriteModeChat    = "chat"
)

// Chat roles for AI conversation turns.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DiaryEntry represents one journal entry owned by a single profile.
// A profile may hold at most 3 non-deleted entries per calendar date;
// the repository enforces this at creation time.
type DiaryEntry struct {
	ID        string `json:"id" gorm:"type:uuid;primarykey"`
	ProfileID string `json:"profile_id" gorm:"type:uuid;not null;index:idx_diaries_profile_date"`
	// Date is calendar-day granular and stored as YYYY-MM-DD so lookups
	// are exact string matches, independent of timezone.
	Date    string `json:"date" gorm:"type:varchar(10);not null;index:idx_diaries_profile_date"`
	Mood    string `json:"mood" gorm:"not null"`
	Title   string `json:"title"`
	Content string `json:"content" gorm:"type:text"`
	// ContentBlocks is the legacy block representation. New writes always
	// produce the flattened marker string in Content; blocks are only read
	// back for entries stored before the migration.
	ContentBlocks ContentBlocks `json:"content_blocks,omitempty" gorm:"type:jsonb"`
	AIChats       ChatTurns     `json:"ai_chats" gorm:"type:jsonb"`
	Summary       string        `json:"summary"`
	WriteMode     string        `json:"write_mode" gorm:"default:journal"`
	IsDeleted     bool          `json:"is_deleted" gorm:"not null;default:false;index"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	Photos        []EntryPhoto  `json:"photos,omitempty" gorm:"foreignKey:EntryID;constraint:OnDelete:CASCADE"`
}

// TableName keeps the historical table name used by earlier deployments.
func (DiaryEntry) TableName() string {
	return "diaries"
}

// BeforeCreate assigns a server-side id when the caller did not provide one.
func (e *DiaryEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// EntryPhoto is one uploaded image attached to an entry. PositionIndex is the
// character offset in the entry's flattened content where the [PHOTO:n]
// marker was inserted; rendering substitutes photos in ascending
// PositionIndex order.
type EntryPhoto struct {
	ID            uint      `json:"id" gorm:"primarykey"`
	EntryID       string    `json:"entry_id" gorm:"type:uuid;not null;index"`
	StoragePath   string    `json:"storage_path" gorm:"not null"`
	Caption       string    `json:"caption"`
	PositionIndex int       `json:"position_index" gorm:"not null;default:0"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName specifies the table name for the EntryPhoto model.
func (EntryPhoto) TableName() string {
	return "entry_photos"
}

// ChatTurn is a single turn of the AI reflection conversation attached to an
// entry. The transcript is append-only from the application's perspective.
type ChatTurn struct {
	Role      string    `json:"role"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatTurns stores the conversation as a JSONB column.
type ChatTurns []ChatTurn

// Value implements the Valuer interface for ChatTurns.
func (t ChatTurns) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	b, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the Scanner interface for ChatTurns.
func (t *ChatTurns) Scan(value interface{}) error {
	return scanJSON(value, t)
}

// ContentBlock is one element of the legacy block-array content
// representation: a paragraph of text, or an image with its url and caption.
type ContentBlock struct {
	Type    string            `json:"type"`
	Text    string            `json:"text,omitempty"`
	URL     string            `json:"url,omitempty"`
	Caption string            `json:"caption,omitempty"`
	Meta    map[string]string `json:"meta,omitempty"`
}

// Block types for the legacy content representation.
const (
	BlockParagraph = "paragraph"
	BlockImage     = "image"
)

// ContentBlocks stores the legacy block array as a JSONB column.
type ContentBlocks []ContentBlock

// Value implements the Valuer interface for ContentBlocks.
func (b ContentBlocks) Value() (driver.Value, error) {
	if b == nil {
		return nil, nil
	}
	raw, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan implements the Scanner interface for ContentBlocks.
func (b *ContentBlocks) Scan(value interface{}) error {
	return scanJSON(value, b)
}

func scanJSON(value interface{}, dest interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported Scan, storing driver.Value type %T into %T", value, dest)
	}
}
