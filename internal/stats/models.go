package stats

import "time"

// DateLayout is the canonical day key used by every snapshot table.
const DateLayout = "2006-01-02"

// TrendStatistic is one upserted row per calendar day. The daily job
// recomputes the current day, so re-runs update in place instead of
// appending duplicates.
type TrendStatistic struct {
	ID              uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	StatDate        string    `gorm:"type:varchar(10);not null;uniqueIndex" json:"stat_date"`
	GenerationCount int64     `gorm:"not null;default:0" json:"generation_count"`
	UserGrowth      int64     `gorm:"not null;default:0" json:"user_growth"`
	ActiveUsers     int64     `gorm:"not null;default:0" json:"active_users"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (TrendStatistic) TableName() string { return "trend_statistics" }

// DailyStatistic snapshots the platform totals as of one day.
type DailyStatistic struct {
	ID               uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	StatDate         string    `gorm:"type:varchar(10);not null;uniqueIndex" json:"stat_date"`
	TotalUsers       int64     `gorm:"not null;default:0" json:"total_users"`
	TotalGenerations int64     `gorm:"not null;default:0" json:"total_generations"`
	MostPopularModel string    `gorm:"type:varchar(50)" json:"most_popular_model"`
	CreatedAt        time.Time `json:"created_at"`
}

func (DailyStatistic) TableName() string { return "daily_statistics" }

// WeeklyStatistic stores one JSON rollup per ISO week, keyed by the Monday.
type WeeklyStatistic struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	WeekStart string    `gorm:"type:varchar(10);not null;uniqueIndex" json:"week_start"`
	Payload   string    `gorm:"type:text" json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}

func (WeeklyStatistic) TableName() string { return "weekly_statistics" }
