package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/linzhe2090468983-la/AI-PICTURE2/internal/common"
	"github.com/linzhe2090468983-la/AI-PICTURE2/internal/httpapi/middleware"
)

// StatsOverview returns the platform-wide dashboard block: totals, the daily
// trend line, model mix and the most active users.
func (h *Handler) StatsOverview(c *gin.Context) {
	if _, ok := middleware.UserID(c); !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))
	ctx := c.Request.Context()

	basic, err := h.Stats.BasicStatistics(ctx)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}
	trends, err := h.Stats.DailyGenerationTrends(ctx, days)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}
	usage, err := h.Stats.ModelUsage(ctx)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}
	ranking, err := h.Stats.UserRanking(ctx, 10)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}

	common.OK(c, gin.H{
		"basic":        basic,
		"daily_trends": trends,
		"model_usage":  usage,
		"user_ranking": ranking,
	})
}
