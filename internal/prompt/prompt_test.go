package prompt

import (
	"strings"
	"testing"
)

func TestBuildContextual_EmptyHistoryIsIdentity(t *testing.T) {
	p := "a red bicycle"

	once := BuildContextual(p, nil)
	if once != p {
		t.Fatalf("expected prompt unchanged, got %q", once)
	}
	// applying it twice must still be the identity
	twice := BuildContextual(once, nil)
	if twice != p {
		t.Fatalf("expected idempotent result, got %q", twice)
	}
}

func TestBuildContextual_RendersRoles(t *testing.T) {
	out := BuildContextual("now add a basket", []Message{
		{Role: "user", Content: "a red bicycle"},
		{Role: "system", Content: "data:image/png;base64,..."},
	})

	if !strings.Contains(out, "用户: a red bicycle") {
		t.Fatalf("user turn not quoted: %q", out)
	}
	if !strings.Contains(out, "助手: 生成了一张图片") {
		t.Fatalf("assistant turn not replaced by placeholder: %q", out)
	}
	if strings.Contains(out, "base64") {
		t.Fatalf("image payload leaked into prompt: %q", out)
	}
	if !strings.HasSuffix(out, "请根据以上上下文生成合适的图片") {
		t.Fatalf("missing closing instruction: %q", out)
	}
}

func TestBuildContextual_WindowsHistory(t *testing.T) {
	history := make([]Message, 0, 15)
	for i := 0; i < 15; i++ {
		history = append(history, Message{Role: "user", Content: "old"})
	}
	history[4].Content = "dropped"
	history[5].Content = "kept"

	out := BuildContextual("current", history)
	if strings.Contains(out, "dropped") {
		t.Fatalf("expected message outside window to be dropped: %q", out)
	}
	if !strings.Contains(out, "kept") {
		t.Fatalf("expected newest 10 messages kept: %q", out)
	}
}

func TestEnhanceTemplates(t *testing.T) {
	base := "一辆红色自行车"

	cases := map[string]string{
		"standard":     "高质量图像",
		"creative":     "创意艺术风格",
		"professional": "专业商业风格",
		"unknown":      "高质量图像",
	}
	for typ, want := range cases {
		got := Enhance(base, typ)
		if !strings.Contains(got, want) || !strings.Contains(got, base) {
			t.Fatalf("Enhance(%q): got %q", typ, got)
		}
	}
}

func TestDefaultPrompt(t *testing.T) {
	if got := Default("creative", "banner", "user text"); got != "user text" {
		t.Fatalf("description must win: %q", got)
	}
	if got := Default("creative", "banner", ""); !strings.Contains(got, "creative e-commerce") {
		t.Fatalf("unexpected creative default: %q", got)
	}
	if got := Default("other", "poster", ""); !strings.Contains(got, "poster style") {
		t.Fatalf("unexpected generic default: %q", got)
	}
}
