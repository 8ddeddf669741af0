package aigen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Supported output dimensions of the wanx-v1 model. Anything else falls
// back to the square default.
var tongyiSizes = map[string]bool{
	"1024*1024": true,
	"720*1280":  true,
	"1280*720":  true,
}

const (
	tongyiDefaultSize = "1024*1024"
	tongyiModel       = "wanx-v1"

	submitRetries   = 2 // extra attempts on timeout/connection failure only
	downloadRetries = 1
)

// TongyiProvider drives the Aliyun Tongyi Wanxiang (DashScope) asynchronous
// text-to-image API: submit -> task id -> poll -> result URLs -> download.
type TongyiProvider struct {
	BaseURL string
	APIKey  string
	Client  *http.Client

	// Interval is the fixed pause before each status query; MaxAttempts is
	// the polling ceiling. Both are overridable so tests can run fast.
	Interval    time.Duration
	MaxAttempts int

	// Backoff between submit/download retries.
	RetryBackoff time.Duration
}

func NewTongyiProvider(baseURL, apiKey string, interval time.Duration, maxAttempts int) *TongyiProvider {
	if baseURL == "" {
		baseURL = "https://dashscope.aliyuncs.com/api/v1"
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if maxAttempts <= 0 {
		maxAttempts = 25
	}
	return &TongyiProvider{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		APIKey:       apiKey,
		Client:       &http.Client{Timeout: 30 * time.Second},
		Interval:     interval,
		MaxAttempts:  maxAttempts,
		RetryBackoff: time.Second,
	}
}

type tongyiSubmitReq struct {
	Model string `json:"model"`
	Input struct {
		Prompt   string `json:"prompt"`
		RefImage string `json:"ref_image,omitempty"`
	} `json:"input"`
	Parameters struct {
		Size        string  `json:"size"`
		Style       string  `json:"style"`
		N           int     `json:"n"`
		Seed        int64   `json:"seed"`
		RefMode     string  `json:"ref_mode,omitempty"`
		RefStrength float64 `json:"ref_strength,omitempty"`
	} `json:"parameters"`
}

type tongyiTaskResp struct {
	Output struct {
		TaskID     string `json:"task_id"`
		TaskStatus string `json:"task_status"`
		Message    string `json:"message"`
		Results    []struct {
			URL string `json:"url"`
		} `json:"results"`
	} `json:"output"`
	Message string `json:"message"`
}

func (p *TongyiProvider) Generate(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(p.APIKey) == "" {
		return nil, &SubmitError{Err: errors.New("tongyi: api key is not configured")}
	}

	taskID, err := p.submit(ctx, req)
	if err != nil {
		return nil, err
	}

	attempts := p.MaxAttempts
	if req.PollBudget > attempts {
		attempts = req.PollBudget
	}

	urls, err := p.poll(ctx, taskID, attempts)
	if err != nil {
		return nil, err
	}

	images := make([]string, 0, len(urls))
	for _, u := range urls {
		b64, err := p.fetchAndEncode(ctx, u)
		if err != nil {
			return nil, err
		}
		images = append(images, b64)
	}
	if len(images) == 0 {
		return nil, &RemoteError{Status: "SUCCEEDED", Message: "no result images"}
	}

	return &Result{TaskID: taskID, Images: images}, nil
}

// submit starts one asynchronous job and returns its task id.
// Retried on timeout/connection failure only; a 4xx/5xx from the vendor is
// final.
func (p *TongyiProvider) submit(ctx context.Context, req Request) (string, error) {
	body := tongyiSubmitReq{Model: tongyiModel}
	body.Input.Prompt = req.Prompt
	body.Parameters.Size = normalizeSize(req.Size)
	body.Parameters.Style = "<auto>"
	body.Parameters.N = clampCount(req.Count)
	body.Parameters.Seed = time.Now().Unix() % 100000

	if len(req.RefImage) > 0 {
		body.Input.RefImage = "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(req.RefImage)
		body.Parameters.RefMode = "repaint"
		body.Parameters.RefStrength = 0.6
	}

	b, err := json.Marshal(body)
	if err != nil {
		return "", &SubmitError{Err: err}
	}

	url := p.BaseURL + "/services/aigc/text2image/image-synthesis"

	var resp *http.Response
	for retry := 0; ; retry++ {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
		if err != nil {
			return "", &SubmitError{Err: err}
		}
		httpReq.Header.Set("Authorization", "Bearer "+p.APIKey)
		httpReq.Header.Set("X-DashScope-Async", "enable")
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err = p.Client.Do(httpReq)
		if err == nil {
			break
		}
		if retry >= submitRetries || ctx.Err() != nil {
			return "", &SubmitError{Err: err}
		}
		if err := p.sleep(ctx, time.Duration(retry+1)*p.RetryBackoff); err != nil {
			return "", &SubmitError{Err: err}
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		return "", &SubmitError{Err: fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))}
	}

	var decoded tongyiTaskResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", &SubmitError{Err: err}
	}
	if decoded.Output.TaskID == "" {
		msg := decoded.Message
		if msg == "" {
			msg = "response carries no task id"
		}
		return "", &SubmitError{Err: errors.New(msg)}
	}
	return decoded.Output.TaskID, nil
}

// poll queries the task on a fixed interval until a terminal state or the
// attempt ceiling. Transient query failures consume an attempt but do not
// abort the loop.
func (p *TongyiProvider) poll(ctx context.Context, taskID string, maxAttempts int) ([]string, error) {
	url := p.BaseURL + "/tasks/" + taskID

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := p.sleep(ctx, p.Interval); err != nil {
			return nil, err
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, &SubmitError{Err: err}
		}
		httpReq.Header.Set("Authorization", "Bearer "+p.APIKey)
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := p.Client.Do(httpReq)
		if err != nil {
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			continue
		}

		var decoded tongyiTaskResp
		err = json.NewDecoder(resp.Body).Decode(&decoded)
		resp.Body.Close()
		if err != nil {
			continue
		}

		switch decoded.Output.TaskStatus {
		case "SUCCEEDED":
			urls := make([]string, 0, len(decoded.Output.Results))
			for _, r := range decoded.Output.Results {
				if r.URL != "" {
					urls = append(urls, r.URL)
				}
			}
			if len(urls) == 0 {
				return nil, &RemoteError{Status: "SUCCEEDED", Message: "no result images"}
			}
			return urls, nil
		case "FAILED", "CANCELED":
			msg := decoded.Output.Message
			if msg == "" {
				msg = decoded.Message
			}
			return nil, &RemoteError{Status: decoded.Output.TaskStatus, Message: msg}
		}
		// PENDING / RUNNING: keep polling
	}

	return nil, ErrPollTimeout
}

// fetchAndEncode downloads one result URL and base64-encodes the bytes.
func (p *TongyiProvider) fetchAndEncode(ctx context.Context, imageURL string) (string, error) {
	var resp *http.Response
	for retry := 0; ; retry++ {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
		if err != nil {
			return "", &DownloadError{URL: imageURL, Err: err}
		}

		resp, err = p.Client.Do(httpReq)
		if err == nil {
			break
		}
		if retry >= downloadRetries || ctx.Err() != nil {
			return "", &DownloadError{URL: imageURL, Err: err}
		}
		if err := p.sleep(ctx, time.Duration(retry+1)*p.RetryBackoff); err != nil {
			return "", &DownloadError{URL: imageURL, Err: err}
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &DownloadError{URL: imageURL, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &DownloadError{URL: imageURL, Err: err}
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func (p *TongyiProvider) sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func normalizeSize(size string) string {
	if tongyiSizes[size] {
		return size
	}
	return tongyiDefaultSize
}

func clampCount(n int) int {
	if n < 1 {
		return 1
	}
	if n > 4 {
		return 4
	}
	return n
}
