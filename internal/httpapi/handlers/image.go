package handlers

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/linzhe2090468983-la/AI-PICTURE2/internal/aigen"
	"github.com/linzhe2090468983-la/AI-PICTURE2/internal/common"
	"github.com/linzhe2090468983-la/AI-PICTURE2/internal/history"
	"github.com/linzhe2090468983-la/AI-PICTURE2/internal/httpapi/middleware"
	"github.com/linzhe2090468983-la/AI-PICTURE2/internal/imagefx"
	"github.com/linzhe2090468983-la/AI-PICTURE2/internal/prompt"
)

const maxUploadBytes = 16 << 20

// parseKnob reads an adjustment field, defaulting malformed input to 0 and
// clamping the rest to [-50, 50] before anything downstream sees it.
func parseKnob(c *gin.Context, field string) int {
	v, err := strconv.Atoi(c.PostForm(field))
	if err != nil {
		return 0
	}
	if v < -50 {
		return -50
	}
	if v > 50 {
		return 50
	}
	return v
}

func sessionOrNew(id string) string {
	if id != "" {
		return id
	}
	return common.NewULID()
}

// recentContext pulls the tail of the session's conversation for prompt
// building: the cache first, the store when the cache is cold.
func (h *Handler) recentContext(ctx context.Context, uid uint64, sessionID string, mode history.Mode) []prompt.Message {
	cached := h.Cache.Recent(ctx, sessionID, 10)
	if len(cached) > 0 {
		out := make([]prompt.Message, 0, len(cached))
		for _, m := range cached {
			out = append(out, prompt.Message{Role: m.Role, Content: m.Content})
		}
		return out
	}

	if uid == 0 {
		return nil
	}
	msgs, err := h.Repo.GetChatHistory(ctx, mode, uid, sessionID)
	if err != nil {
		log.Printf("event=history_read_failed session=%s error=%v", sessionID, err)
		return nil
	}
	out := make([]prompt.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, prompt.Message{Role: m.Role, Content: m.Content})
	}
	return out
}

// persistOutcome writes the request/outcome message pair and one generation
// record per produced image. Best effort only: failures are logged and never
// change the response. Anonymous requests skip the store but still feed the
// session cache.
func (h *Handler) persistOutcome(ctx context.Context, uid uint64, mode history.Mode, sessionID, userText, usedPrompt, model, style string, images []string) {
	outcome := fmt.Sprintf("生成了 %d 张图片", len(images))

	h.Cache.Append(ctx, sessionID, history.CachedMessage{Role: history.RoleUser, Content: userText})
	h.Cache.Append(ctx, sessionID, history.CachedMessage{Role: history.RoleSystem, Content: outcome})

	if uid == 0 {
		return
	}

	if err := h.Repo.SaveChatMessage(ctx, mode, uid, sessionID, history.RoleUser, userText); err != nil {
		log.Printf("event=history_write_failed session=%s error=%v", sessionID, err)
	}
	if err := h.Repo.SaveChatMessage(ctx, mode, uid, sessionID, history.RoleSystem, outcome); err != nil {
		log.Printf("event=history_write_failed session=%s error=%v", sessionID, err)
	}
	for _, img := range images {
		rec := history.GenerationRecord{
			UserID:   uid,
			ImageURL: img,
			Prompt:   usedPrompt,
			Model:    model,
			Style:    style,
		}
		if err := h.Repo.SaveGenerationRecord(ctx, &rec); err != nil {
			log.Printf("event=record_write_failed session=%s error=%v", sessionID, err)
		}
	}
}

// archiveBytes keeps a copy of an upload or produced image on disk.
// Best effort: a full or missing disk never fails the request.
func archiveBytes(dir, ext string, data []byte) {
	if dir == "" {
		return
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("event=archive_failed dir=%s error=%v", dir, err)
		return
	}
	name := filepath.Join(dir, common.NewULID()+ext)
	if err := os.WriteFile(name, data, 0o644); err != nil {
		log.Printf("event=archive_failed file=%s error=%v", name, err)
	}
}

func readUpload(fh *multipart.FileHeader) ([]byte, string, error) {
	ext := filepath.Ext(fh.Filename)
	if !imagefx.AllowedExt(ext) {
		return nil, "", imagefx.ErrUnsupportedFormat
	}

	f, err := fh.Open()
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		return nil, "", err
	}
	return data, ext, nil
}

func asDataURLs(base64Images []string) []string {
	out := make([]string, 0, len(base64Images))
	for _, b64 := range base64Images {
		out = append(out, imagefx.DataURL("image/png", b64))
	}
	return out
}

// Generate handles the upload endpoint: remote generation with the upload as
// reference image, falling back to local effects when the adapter fails.
func (h *Handler) Generate(c *gin.Context) {
	uid, _ := middleware.UserID(c)

	fh, err := c.FormFile("image")
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10010, "image file is required")
		return
	}
	raw, ext, err := readUpload(fh)
	if err != nil {
		if err == imagefx.ErrUnsupportedFormat {
			common.Fail(c, http.StatusBadRequest, 10011, "unsupported image format")
			return
		}
		common.Fail(c, http.StatusBadRequest, 10012, "failed to read upload")
		return
	}

	opts := imagefx.Options{
		Brightness: parseKnob(c, "brightness"),
		Contrast:   parseKnob(c, "contrast"),
		Saturation: parseKnob(c, "saturation"),
		Style:      c.PostForm("style"),
	}
	archiveBytes(h.Cfg.UploadDir, ext, raw)

	model := c.PostForm("model")
	sessionID := sessionOrNew(c.PostForm("session_id"))
	description := c.PostForm("description")
	count, _ := strconv.Atoi(c.DefaultPostForm("count", "1"))

	ctx := c.Request.Context()

	base := prompt.Default(model, opts.Style, description)
	contextual := prompt.BuildContextual(base, h.recentContext(ctx, uid, sessionID, history.ModeImage))
	used := prompt.Enhance(contextual, c.PostForm("prompt_type"))

	res, genErr := h.generate(ctx, aigen.Request{
		Prompt:   used,
		RefImage: raw,
		Size:     c.PostForm("size"),
		Count:    count,
	})
	if genErr == nil {
		images := asDataURLs(res.Images)
		h.persistOutcome(ctx, uid, history.ModeImage, sessionID, base, used, model, opts.Style, images)
		common.OK(c, gin.H{
			"image":      images[0],
			"images":     images,
			"session_id": sessionID,
			"prompt":     used,
			"fallback":   false,
			"task_id":    res.TaskID,
		})
		return
	}

	log.Printf("event=generation_failed session=%s fallback=local error=%v", sessionID, genErr)

	processed, err := imagefx.Apply(raw, ext, opts)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "image processing failed: "+err.Error())
		return
	}
	archiveBytes(h.Cfg.OutputDir, ext, processed)

	dataURL := imagefx.DataURL(imagefx.MIMEType(ext), base64.StdEncoding.EncodeToString(processed))
	h.persistOutcome(ctx, uid, history.ModeImage, sessionID, base, used, model, opts.Style, []string{dataURL})

	common.OK(c, gin.H{
		"image":      dataURL,
		"images":     []string{dataURL},
		"session_id": sessionID,
		"prompt":     used,
		"fallback":   true,
	})
}

type generateFromTextReq struct {
	Prompt     string `json:"prompt"`
	SessionID  string `json:"session_id"`
	Size       string `json:"size"`
	Count      int    `json:"count"`
	PromptType string `json:"prompt_type"`
	Model      string `json:"model"`
	Style      string `json:"style"`
}

// GenerateFromText handles the pure text endpoint. There is no source image,
// so adapter failures surface to the caller instead of falling back.
func (h *Handler) GenerateFromText(c *gin.Context) {
	uid, _ := middleware.UserID(c)

	var req generateFromTextReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if req.Prompt == "" {
		common.Fail(c, http.StatusBadRequest, 10002, "prompt is required")
		return
	}

	sessionID := sessionOrNew(req.SessionID)
	ctx := c.Request.Context()

	contextual := prompt.BuildContextual(req.Prompt, h.recentContext(ctx, uid, sessionID, history.ModeText))
	used := prompt.Enhance(contextual, req.PromptType)

	// text callers have no fallback, so give the poll loop twice the budget
	res, err := h.generate(ctx, aigen.Request{
		Prompt:     used,
		Size:       req.Size,
		Count:      req.Count,
		PollBudget: 2 * h.Cfg.PollMaxAttempts,
	})
	if err != nil {
		log.Printf("event=generation_failed session=%s fallback=none error=%v", sessionID, err)
		common.Fail(c, http.StatusBadGateway, 50201, "image generation failed: "+err.Error())
		return
	}

	images := asDataURLs(res.Images)
	h.persistOutcome(ctx, uid, history.ModeText, sessionID, req.Prompt, used, req.Model, req.Style, images)

	common.OK(c, gin.H{
		"image":      images[0],
		"images":     images,
		"session_id": sessionID,
		"prompt":     used,
		"fallback":   false,
		"task_id":    res.TaskID,
	})
}

// SimpleTest applies the local effects pipeline to an upload without any
// remote call. Useful for trying out the adjustment knobs.
func (h *Handler) SimpleTest(c *gin.Context) {
	uid, _ := middleware.UserID(c)

	fh, err := c.FormFile("image")
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10010, "image file is required")
		return
	}
	raw, ext, err := readUpload(fh)
	if err != nil {
		if err == imagefx.ErrUnsupportedFormat {
			common.Fail(c, http.StatusBadRequest, 10011, "unsupported image format")
			return
		}
		common.Fail(c, http.StatusBadRequest, 10012, "failed to read upload")
		return
	}

	opts := imagefx.Options{
		Brightness: parseKnob(c, "brightness"),
		Contrast:   parseKnob(c, "contrast"),
		Saturation: parseKnob(c, "saturation"),
		Style:      c.PostForm("style"),
	}
	sessionID := sessionOrNew(c.PostForm("session_id"))

	processed, err := imagefx.Apply(raw, ext, opts)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "image processing failed: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	dataURL := imagefx.DataURL(imagefx.MIMEType(ext), base64.StdEncoding.EncodeToString(processed))
	h.persistOutcome(ctx, uid, history.ModeImage, sessionID, "local filter test", "", "", opts.Style, []string{dataURL})

	common.OK(c, gin.H{
		"image":      dataURL,
		"session_id": sessionID,
		"fallback":   true,
	})
}

func (h *Handler) generate(ctx context.Context, req aigen.Request) (*aigen.Result, error) {
	p, err := h.Registry.Get(ctx, h.Cfg.AIProvider)
	if err != nil {
		return nil, err
	}
	return p.Generate(ctx, req)
}
