package db

import (
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/linzhe2090468983-la/AI-PICTURE2/internal/history"
	"github.com/linzhe2090468983-la/AI-PICTURE2/internal/models"
	"github.com/linzhe2090468983-la/AI-PICTURE2/internal/stats"
)

func Connect(dsn string) *gorm.DB {
	gdb, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	return gdb
}

// AutoMigrate creates or updates every table the server touches.
func AutoMigrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&models.User{},
		&history.ChatMessage{},
		&history.ImageChatMessage{},
		&history.GenerationRecord{},
		&stats.TrendStatistic{},
		&stats.DailyStatistic{},
		&stats.WeeklyStatistic{},
	)
}
