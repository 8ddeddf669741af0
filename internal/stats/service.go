// Package stats computes platform usage figures from the chat and
// generation tables and maintains the daily/weekly snapshot rows.
package stats

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/linzhe2090468983-la/AI-PICTURE2/internal/history"
	"github.com/linzhe2090468983-la/AI-PICTURE2/internal/models"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Basic is the at-a-glance overview block.
type Basic struct {
	TotalUsers       int64  `json:"total_users"`
	TotalGenerations int64  `json:"total_generations"`
	GenerationsToday int64  `json:"generations_today"`
	MostPopularModel string `json:"most_popular_model"`
}

// DayCount is one point of the generation trend line.
type DayCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// ModelCount is one model's share of all generations.
type ModelCount struct {
	Model string `json:"model"`
	Count int64  `json:"count"`
}

// UserRank is one row of the most-active-users board.
type UserRank struct {
	UserID uint64 `json:"user_id"`
	Count  int64  `json:"count"`
}

func dayBounds(day time.Time) (time.Time, time.Time) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return start, start.AddDate(0, 0, 1)
}

func (s *Service) BasicStatistics(ctx context.Context) (*Basic, error) {
	var out Basic

	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&out.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&history.GenerationRecord{}).Count(&out.TotalGenerations).Error; err != nil {
		return nil, err
	}

	start, end := dayBounds(time.Now())
	if err := s.db.WithContext(ctx).Model(&history.GenerationRecord{}).
		Where("created_at >= ? AND created_at < ?", start, end).
		Count(&out.GenerationsToday).Error; err != nil {
		return nil, err
	}

	top, err := s.ModelUsage(ctx)
	if err != nil {
		return nil, err
	}
	if len(top) > 0 {
		out.MostPopularModel = top[0].Model
	}
	return &out, nil
}

// DailyGenerationTrends counts generations per day for the last `days` days,
// oldest first, with explicit zeroes for empty days.
func (s *Service) DailyGenerationTrends(ctx context.Context, days int) ([]DayCount, error) {
	if days <= 0 {
		days = 7
	}
	if days > 90 {
		days = 90
	}

	out := make([]DayCount, 0, days)
	now := time.Now()
	for i := days - 1; i >= 0; i-- {
		start, end := dayBounds(now.AddDate(0, 0, -i))

		var cnt int64
		if err := s.db.WithContext(ctx).Model(&history.GenerationRecord{}).
			Where("created_at >= ? AND created_at < ?", start, end).
			Count(&cnt).Error; err != nil {
			return nil, err
		}
		out = append(out, DayCount{Date: start.Format(DateLayout), Count: cnt})
	}
	return out, nil
}

// ModelUsage groups all generation records by model, busiest first.
func (s *Service) ModelUsage(ctx context.Context) ([]ModelCount, error) {
	var out []ModelCount
	err := s.db.WithContext(ctx).Model(&history.GenerationRecord{}).
		Select("model, COUNT(*) AS count").
		Group("model").
		Order("count DESC").
		Scan(&out).Error
	return out, err
}

// UserRanking lists the users with the most generations, busiest first.
func (s *Service) UserRanking(ctx context.Context, limit int) ([]UserRank, error) {
	if limit <= 0 {
		limit = 10
	}

	var out []UserRank
	err := s.db.WithContext(ctx).Model(&history.GenerationRecord{}).
		Select("user_id, COUNT(*) AS count").
		Group("user_id").
		Order("count DESC").
		Limit(limit).
		Scan(&out).Error
	return out, err
}

// SaveCurrentDayTrend recomputes today's figures and upserts the row keyed
// by stat_date, so the daily job can run any number of times.
func (s *Service) SaveCurrentDayTrend(ctx context.Context) error {
	start, end := dayBounds(time.Now())

	var generations, newUsers, activeUsers int64
	if err := s.db.WithContext(ctx).Model(&history.GenerationRecord{}).
		Where("created_at >= ? AND created_at < ?", start, end).
		Count(&generations).Error; err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("created_at >= ? AND created_at < ?", start, end).
		Count(&newUsers).Error; err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(&history.GenerationRecord{}).
		Where("created_at >= ? AND created_at < ?", start, end).
		Distinct("user_id").
		Count(&activeUsers).Error; err != nil {
		return err
	}

	row := TrendStatistic{
		StatDate:        start.Format(DateLayout),
		GenerationCount: generations,
		UserGrowth:      newUsers,
		ActiveUsers:     activeUsers,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stat_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"generation_count", "user_growth", "active_users", "updated_at"}),
	}).Create(&row).Error
}

// SaveDailySnapshot upserts the platform totals for today.
func (s *Service) SaveDailySnapshot(ctx context.Context) error {
	basic, err := s.BasicStatistics(ctx)
	if err != nil {
		return err
	}

	start, _ := dayBounds(time.Now())
	row := DailyStatistic{
		StatDate:         start.Format(DateLayout),
		TotalUsers:       basic.TotalUsers,
		TotalGenerations: basic.TotalGenerations,
		MostPopularModel: basic.MostPopularModel,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stat_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"total_users", "total_generations", "most_popular_model"}),
	}).Create(&row).Error
}

// SaveWeeklySnapshot rolls up the trend line and model mix of the week that
// just ended, keyed by its Monday.
func (s *Service) SaveWeeklySnapshot(ctx context.Context) error {
	trends, err := s.DailyGenerationTrends(ctx, 7)
	if err != nil {
		return err
	}
	usage, err := s.ModelUsage(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]any{
		"daily_trends": trends,
		"model_usage":  usage,
	})
	if err != nil {
		return err
	}

	row := WeeklyStatistic{
		WeekStart: mondayOf(time.Now()).Format(DateLayout),
		Payload:   string(payload),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "week_start"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload"}),
	}).Create(&row).Error
}

func mondayOf(t time.Time) time.Time {
	start, _ := dayBounds(t)
	offset := (int(start.Weekday()) + 6) % 7
	return start.AddDate(0, 0, -offset)
}
