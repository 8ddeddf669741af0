package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/linzhe2090468983-la/AI-PICTURE2/internal/common"
	"github.com/linzhe2090468983-la/AI-PICTURE2/internal/history"
	"github.com/linzhe2090468983-la/AI-PICTURE2/internal/httpapi/middleware"
)

// historyMode picks the chat table addressed by the request; the text table
// is the default, ?mode=image selects the image-mode table.
func historyMode(c *gin.Context) history.Mode {
	if c.Query("mode") == "image" {
		return history.ModeImage
	}
	return history.ModeText
}

func (h *Handler) ListSessions(c *gin.Context) {
	uid, ok := middleware.UserID(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	sessions, err := h.Repo.GetUserSessions(c.Request.Context(), historyMode(c), uid)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}
	common.OK(c, gin.H{"sessions": sessions})
}

func (h *Handler) GetSessionHistory(c *gin.Context) {
	uid, ok := middleware.UserID(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}
	sessionID := c.Param("session_id")

	msgs, err := h.Repo.GetChatHistory(c.Request.Context(), historyMode(c), uid, sessionID)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}
	common.OK(c, gin.H{
		"session_id": sessionID,
		"messages":   msgs,
	})
}

func (h *Handler) DeleteSessionHistory(c *gin.Context) {
	uid, ok := middleware.UserID(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}
	sessionID := c.Param("session_id")

	deleted, err := h.Repo.DeleteChatHistory(c.Request.Context(), historyMode(c), uid, sessionID)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}
	h.Cache.Clear(c.Request.Context(), sessionID)

	common.OK(c, gin.H{"deleted": deleted})
}

func (h *Handler) ListGenerationRecords(c *gin.Context) {
	uid, ok := middleware.UserID(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	ctx := c.Request.Context()
	recs, err := h.Repo.ListGenerationRecords(ctx, uid, limit, offset)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}
	total, err := h.Repo.CountGenerationRecords(ctx, uid)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}

	common.OK(c, gin.H{
		"records": recs,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

func (h *Handler) RecentChatMessages(c *gin.Context) {
	uid, ok := middleware.UserID(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	msgs, err := h.Repo.GetRecentChatMessages(c.Request.Context(), historyMode(c), uid, limit)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}
	common.OK(c, gin.H{"messages": msgs})
}
