package stats

import (
	"context"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/linzhe2090468983-la/AI-PICTURE2/internal/history"
	"github.com/linzhe2090468983-la/AI-PICTURE2/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&history.GenerationRecord{},
		&TrendStatistic{},
		&DailyStatistic{},
		&WeeklyStatistic{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedRecord(t *testing.T, db *gorm.DB, userID uint64, model string, at time.Time) {
	t.Helper()
	rec := history.GenerationRecord{
		UserID:   userID,
		ImageURL: "data:image/png;base64,aGk=",
		Prompt:   "p",
		Model:    model,
		Style:    "modern",
	}
	if err := db.Create(&rec).Error; err != nil {
		t.Fatalf("seed record: %v", err)
	}
	if err := db.Model(&history.GenerationRecord{}).
		Where("id = ?", rec.ID).
		Update("created_at", at).Error; err != nil {
		t.Fatalf("backdate record: %v", err)
	}
}

func TestBasicStatistics(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	for _, u := range []string{"alice", "bob"} {
		if err := db.Create(&models.User{Username: u, Email: u + "@example.com", PasswordHash: "x"}).Error; err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}
	now := time.Now()
	seedRecord(t, db, 1, "creative", now)
	seedRecord(t, db, 1, "creative", now)
	seedRecord(t, db, 2, "photography", now.AddDate(0, 0, -3))

	basic, err := svc.BasicStatistics(ctx)
	if err != nil {
		t.Fatalf("basic: %v", err)
	}
	if basic.TotalUsers != 2 || basic.TotalGenerations != 3 {
		t.Fatalf("unexpected totals: %+v", basic)
	}
	if basic.GenerationsToday != 2 {
		t.Fatalf("expected 2 generations today, got %d", basic.GenerationsToday)
	}
	if basic.MostPopularModel != "creative" {
		t.Fatalf("expected creative most popular, got %q", basic.MostPopularModel)
	}
}

func TestDailyGenerationTrendsFillsEmptyDays(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)

	now := time.Now()
	seedRecord(t, db, 1, "creative", now)
	seedRecord(t, db, 1, "creative", now.AddDate(0, 0, -2))

	trends, err := svc.DailyGenerationTrends(context.Background(), 3)
	if err != nil {
		t.Fatalf("trends: %v", err)
	}
	if len(trends) != 3 {
		t.Fatalf("expected 3 points, got %d", len(trends))
	}
	if trends[0].Count != 1 || trends[1].Count != 0 || trends[2].Count != 1 {
		t.Fatalf("unexpected trend counts: %+v", trends)
	}
	if trends[2].Date != time.Now().Format(DateLayout) {
		t.Fatalf("last point must be today, got %q", trends[2].Date)
	}
}

func TestUserRankingOrder(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)

	now := time.Now()
	seedRecord(t, db, 7, "creative", now)
	seedRecord(t, db, 7, "creative", now)
	seedRecord(t, db, 7, "creative", now)
	seedRecord(t, db, 9, "creative", now)

	ranks, err := svc.UserRanking(context.Background(), 5)
	if err != nil {
		t.Fatalf("ranking: %v", err)
	}
	if len(ranks) != 2 || ranks[0].UserID != 7 || ranks[0].Count != 3 {
		t.Fatalf("unexpected ranking: %+v", ranks)
	}
}

func TestSaveCurrentDayTrendIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	seedRecord(t, db, 1, "creative", time.Now())

	if err := svc.SaveCurrentDayTrend(ctx); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	seedRecord(t, db, 2, "creative", time.Now())
	if err := svc.SaveCurrentDayTrend(ctx); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	var rows []TrendStatistic
	if err := db.Find(&rows).Error; err != nil {
		t.Fatalf("load rows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected a single row per day, got %d", len(rows))
	}
	if rows[0].GenerationCount != 2 || rows[0].ActiveUsers != 2 {
		t.Fatalf("row not recomputed: %+v", rows[0])
	}
}

func TestWeeklySnapshotKeyedByMonday(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	seedRecord(t, db, 1, "creative", time.Now())

	if err := svc.SaveWeeklySnapshot(ctx); err != nil {
		t.Fatalf("first snapshot: %v", err)
	}
	if err := svc.SaveWeeklySnapshot(ctx); err != nil {
		t.Fatalf("second snapshot: %v", err)
	}

	var rows []WeeklyStatistic
	if err := db.Find(&rows).Error; err != nil {
		t.Fatalf("load rows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one row per week, got %d", len(rows))
	}
	if rows[0].WeekStart != mondayOf(time.Now()).Format(DateLayout) {
		t.Fatalf("unexpected week key %q", rows[0].WeekStart)
	}
	if rows[0].Payload == "" {
		t.Fatal("payload must carry the rollup JSON")
	}
}
