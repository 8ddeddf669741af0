package history

import (
	"context"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&ChatMessage{}, &ImageChatMessage{}, &GenerationRecord{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestSessionIsolation(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	if err := repo.SaveChatMessage(ctx, ModeText, 1, "session-a", RoleUser, "hello a"); err != nil {
		t.Fatalf("save a: %v", err)
	}
	if err := repo.SaveChatMessage(ctx, ModeText, 1, "session-b", RoleUser, "hello b"); err != nil {
		t.Fatalf("save b: %v", err)
	}

	msgs, err := repo.GetChatHistory(ctx, ModeText, 1, "session-b")
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message in session-b, got %d", len(msgs))
	}
	if msgs[0].Content != "hello b" {
		t.Fatalf("session-a message leaked into session-b: %q", msgs[0].Content)
	}
}

func TestModesAreParallelTables(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	if err := repo.SaveChatMessage(ctx, ModeText, 1, "s1", RoleUser, "text mode"); err != nil {
		t.Fatalf("save text: %v", err)
	}
	if err := repo.SaveChatMessage(ctx, ModeImage, 1, "s1", RoleUser, "image mode"); err != nil {
		t.Fatalf("save image: %v", err)
	}

	text, err := repo.GetChatHistory(ctx, ModeText, 1, "s1")
	if err != nil {
		t.Fatalf("get text: %v", err)
	}
	img, err := repo.GetChatHistory(ctx, ModeImage, 1, "s1")
	if err != nil {
		t.Fatalf("get image: %v", err)
	}
	if len(text) != 1 || text[0].Content != "text mode" {
		t.Fatalf("unexpected text history: %+v", text)
	}
	if len(img) != 1 || img[0].Content != "image mode" {
		t.Fatalf("unexpected image history: %+v", img)
	}
}

func TestGetUserSessionsAndDelete(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	for _, sid := range []string{"s1", "s2", "s1"} {
		if err := repo.SaveChatMessage(ctx, ModeText, 1, sid, RoleUser, "m"); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	// another user's session must not appear
	if err := repo.SaveChatMessage(ctx, ModeText, 2, "s3", RoleUser, "m"); err != nil {
		t.Fatalf("save: %v", err)
	}

	sessions, err := repo.GetUserSessions(ctx, ModeText, 1)
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %v", sessions)
	}

	deleted, err := repo.DeleteChatHistory(ctx, ModeText, 1, "s1")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deleted rows, got %d", deleted)
	}

	left, err := repo.GetChatHistory(ctx, ModeText, 1, "s1")
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if len(left) != 0 {
		t.Fatalf("expected session cleared, got %d messages", len(left))
	}
}

func TestGenerationRecordsPaging(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := repo.SaveGenerationRecord(ctx, &GenerationRecord{
			UserID:   1,
			ImageURL: "data:image/png;base64,xxxx",
			Prompt:   "p",
			Model:    "wanx-v1",
			Style:    "banner",
		}); err != nil {
			t.Fatalf("save record %d: %v", i, err)
		}
	}

	recs, err := repo.ListGenerationRecords(ctx, 1, 2, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}

	cnt, err := repo.CountGenerationRecords(ctx, 1)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if cnt != 5 {
		t.Fatalf("expected count 5, got %d", cnt)
	}

	rest, err := repo.ListGenerationRecords(ctx, 1, 100, 2)
	if err != nil {
		t.Fatalf("list offset: %v", err)
	}
	if len(rest) != 3 {
		t.Fatalf("expected 3 records after offset, got %d", len(rest))
	}
}

func TestGetRecentChatMessagesChronological(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	for _, content := range []string{"one", "two", "three", "four"} {
		if err := repo.SaveChatMessage(ctx, ModeText, 1, "s1", RoleUser, content); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	msgs, err := repo.GetRecentChatMessages(ctx, ModeText, 1, 3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[0].Content != "two" || msgs[2].Content != "four" {
		t.Fatalf("expected chronological tail [two three four], got %+v", msgs)
	}
}

func TestCleanupOldRecords(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	ctx := context.Background()

	if err := repo.SaveChatMessage(ctx, ModeText, 1, "s1", RoleUser, "old"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.SaveGenerationRecord(ctx, &GenerationRecord{
		UserID:   1,
		ImageURL: "data:image/png;base64,xxxx",
	}); err != nil {
		t.Fatalf("save record: %v", err)
	}
	// backdate both rows past the retention window
	stale := time.Now().Add(-48 * time.Hour)
	if err := db.Model(&ChatMessage{}).Where("1 = 1").Update("timestamp", stale).Error; err != nil {
		t.Fatalf("backdate chat: %v", err)
	}
	if err := db.Model(&GenerationRecord{}).Where("1 = 1").Update("created_at", stale).Error; err != nil {
		t.Fatalf("backdate record: %v", err)
	}

	if err := repo.SaveChatMessage(ctx, ModeText, 1, "s1", RoleUser, "fresh"); err != nil {
		t.Fatalf("save fresh: %v", err)
	}

	chatN, genN, err := repo.CleanupOldRecords(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if chatN != 1 || genN != 1 {
		t.Fatalf("expected 1 chat + 1 record pruned, got %d/%d", chatN, genN)
	}

	left, err := repo.GetChatHistory(ctx, ModeText, 1, "s1")
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if len(left) != 1 || left[0].Content != "fresh" {
		t.Fatalf("fresh row must survive cleanup: %+v", left)
	}
}
