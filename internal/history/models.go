package history

import "time"

const (
	RoleUser   = "user"
	RoleSystem = "system"
)

// ChatMessage is one turn of the text-mode conversation.
type ChatMessage struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint64    `gorm:"not null;index:idx_chat_user_session,priority:1" json:"-"`
	SessionID string    `gorm:"type:varchar(100);not null;index:idx_chat_user_session,priority:2" json:"session_id"`
	Role      string    `gorm:"column:message_type;type:varchar(16);not null" json:"message_type"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Timestamp time.Time `gorm:"column:timestamp;autoCreateTime;index" json:"timestamp"`
}

func (ChatMessage) TableName() string { return "chat_history" }

// ImageChatMessage mirrors ChatMessage for the image-mode conversation.
// The two modes deliberately live in parallel tables.
type ImageChatMessage struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint64    `gorm:"not null;index:idx_imgchat_user_session,priority:1" json:"-"`
	SessionID string    `gorm:"type:varchar(100);not null;index:idx_imgchat_user_session,priority:2" json:"session_id"`
	Role      string    `gorm:"column:message_type;type:varchar(16);not null" json:"message_type"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Timestamp time.Time `gorm:"column:timestamp;autoCreateTime;index" json:"timestamp"`
}

func (ImageChatMessage) TableName() string { return "image_chat_history" }

// GenerationRecord stores one produced image inline as a data URL.
// Append-only; rows are removed only by retention cleanup.
type GenerationRecord struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint64    `gorm:"not null;index" json:"-"`
	ImageURL  string    `gorm:"type:longtext;not null" json:"image_url"`
	Prompt    string    `gorm:"type:text" json:"prompt"`
	Model     string    `gorm:"type:varchar(50)" json:"model"`
	Style     string    `gorm:"type:varchar(50)" json:"style"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (GenerationRecord) TableName() string { return "generation_records" }
