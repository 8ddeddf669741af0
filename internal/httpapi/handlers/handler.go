// Package handlers holds the HTTP endpoints: auth, generation, history and
// the statistics overview. Every response goes through the common envelope.
package handlers

import (
	"gorm.io/gorm"

	"github.com/linzhe2090468983-la/AI-PICTURE2/internal/aigen"
	"github.com/linzhe2090468983-la/AI-PICTURE2/internal/config"
	"github.com/linzhe2090468983-la/AI-PICTURE2/internal/history"
	"github.com/linzhe2090468983-la/AI-PICTURE2/internal/stats"
)

type Handler struct {
	DB       *gorm.DB
	Cfg      config.Config
	Repo     *history.Repo
	Cache    history.RecentCache
	Registry *aigen.Registry
	Stats    *stats.Service
}

func NewHandler(db *gorm.DB, cfg config.Config, cache history.RecentCache, reg *aigen.Registry) *Handler {
	return &Handler{
		DB:       db,
		Cfg:      cfg,
		Repo:     history.NewRepo(db),
		Cache:    cache,
		Registry: reg,
		Stats:    stats.NewService(db),
	}
}
