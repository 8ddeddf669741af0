package history

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Mode selects which of the two parallel chat tables an operation targets.
type Mode string

const (
	ModeText  Mode = "text"
	ModeImage Mode = "image"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) SaveChatMessage(ctx context.Context, mode Mode, userID uint64, sessionID, role, content string) error {
	if mode == ModeImage {
		return r.db.WithContext(ctx).Create(&ImageChatMessage{
			UserID:    userID,
			SessionID: sessionID,
			Role:      role,
			Content:   content,
		}).Error
	}
	return r.db.WithContext(ctx).Create(&ChatMessage{
		UserID:    userID,
		SessionID: sessionID,
		Role:      role,
		Content:   content,
	}).Error
}

// GetChatHistory returns every message of one session in ASC timestamp order.
func (r *Repo) GetChatHistory(ctx context.Context, mode Mode, userID uint64, sessionID string) ([]ChatMessage, error) {
	if mode == ModeImage {
		var imgs []ImageChatMessage
		if err := r.db.WithContext(ctx).
			Where("user_id = ? AND session_id = ?", userID, sessionID).
			Order("timestamp ASC, id ASC").
			Find(&imgs).Error; err != nil {
			return nil, err
		}
		out := make([]ChatMessage, 0, len(imgs))
		for _, m := range imgs {
			out = append(out, ChatMessage(m))
		}
		return out, nil
	}

	var msgs []ChatMessage
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		Order("timestamp ASC, id ASC").
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

// GetUserSessions lists the user's distinct session ids, most recent activity first.
func (r *Repo) GetUserSessions(ctx context.Context, mode Mode, userID uint64) ([]string, error) {
	table := ChatMessage{}.TableName()
	if mode == ModeImage {
		table = ImageChatMessage{}.TableName()
	}

	var sessions []string
	if err := r.db.WithContext(ctx).
		Table(table).
		Where("user_id = ?", userID).
		Group("session_id").
		Order("MAX(timestamp) DESC").
		Pluck("session_id", &sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *Repo) DeleteChatHistory(ctx context.Context, mode Mode, userID uint64, sessionID string) (int64, error) {
	q := r.db.WithContext(ctx).Where("user_id = ? AND session_id = ?", userID, sessionID)
	if mode == ModeImage {
		res := q.Delete(&ImageChatMessage{})
		return res.RowsAffected, res.Error
	}
	res := q.Delete(&ChatMessage{})
	return res.RowsAffected, res.Error
}

// GetRecentChatMessages returns the chronological tail of the user's
// messages across sessions (oldest of the tail first).
func (r *Repo) GetRecentChatMessages(ctx context.Context, mode Mode, userID uint64, limit int) ([]ChatMessage, error) {
	if limit <= 0 {
		limit = 10
	}

	var msgs []ChatMessage
	var err error
	if mode == ModeImage {
		var imgs []ImageChatMessage
		err = r.db.WithContext(ctx).
			Where("user_id = ?", userID).
			Order("timestamp DESC, id DESC").
			Limit(limit).
			Find(&imgs).Error
		for _, m := range imgs {
			msgs = append(msgs, ChatMessage(m))
		}
	} else {
		err = r.db.WithContext(ctx).
			Where("user_id = ?", userID).
			Order("timestamp DESC, id DESC").
			Limit(limit).
			Find(&msgs).Error
	}
	if err != nil {
		return nil, err
	}

	// newest-last for prompt building
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (r *Repo) SaveGenerationRecord(ctx context.Context, rec *GenerationRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

// ListGenerationRecords pages the user's records newest first.
func (r *Repo) ListGenerationRecords(ctx context.Context, userID uint64, limit, offset int) ([]GenerationRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	var recs []GenerationRecord
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *Repo) CountGenerationRecords(ctx context.Context, userID uint64) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&GenerationRecord{}).
		Where("user_id = ?", userID).
		Count(&cnt).Error
	return cnt, err
}

// CleanupOldRecords drops chat and generation rows older than the retention
// window. Returns (chat rows deleted, generation rows deleted).
func (r *Repo) CleanupOldRecords(ctx context.Context, olderThan time.Duration) (int64, int64, error) {
	cutoff := time.Now().Add(-olderThan)

	chatRes := r.db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&ChatMessage{})
	if chatRes.Error != nil {
		return 0, 0, chatRes.Error
	}
	if err := r.db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&ImageChatMessage{}).Error; err != nil {
		return chatRes.RowsAffected, 0, err
	}

	genRes := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&GenerationRecord{})
	if genRes.Error != nil {
		return chatRes.RowsAffected, 0, genRes.Error
	}
	return chatRes.RowsAffected, genRes.RowsAffected, nil
}
