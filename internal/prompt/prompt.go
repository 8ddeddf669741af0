// Package prompt composes the text sent to the generation provider from the
// current request, recent session context and a named enhancement template.
// Everything here is a pure function of its inputs.
package prompt

import (
	"fmt"
	"strings"
)

// Message is one prior turn of the session, oldest first.
type Message struct {
	Role    string
	Content string
}

const contextWindow = 10

// BuildContextual prefixes the current request with the most recent session
// turns. With no history the prompt passes through unchanged.
func BuildContextual(current string, history []Message) string {
	if len(history) == 0 {
		return current
	}

	recent := history
	if len(recent) > contextWindow {
		recent = recent[len(recent)-contextWindow:]
	}

	parts := []string{"基于以下对话历史生成图片:"}
	for _, m := range recent {
		switch m.Role {
		case "user":
			parts = append(parts, "用户: "+m.Content)
		case "assistant", "system":
			parts = append(parts, "助手: 生成了一张图片")
		}
	}
	parts = append(parts, "当前请求: "+current)
	parts = append(parts, "请根据以上上下文生成合适的图片")

	return strings.Join(parts, "\n")
}

// Enhance wraps the prompt with one of three fixed marketing templates.
// Unknown types fall through to the standard template.
func Enhance(prompt, promptType string) string {
	switch promptType {
	case "creative":
		return fmt.Sprintf("创意艺术风格，%s，具有创新的设计元素，充满想象力，视觉冲击力强，艺术感十足", prompt)
	case "professional":
		return fmt.Sprintf("专业商业风格，%s，高质量，商业用途，精致制作，适合商业宣传", prompt)
	default:
		return fmt.Sprintf("高质量图像，%s，清晰度高，细节丰富", prompt)
	}
}

// Default produces a fallback prompt when the user supplied no description.
func Default(model, style, description string) string {
	if description != "" {
		return description
	}

	switch model {
	case "creative":
		return fmt.Sprintf("A creative e-commerce product image in %s style", style)
	case "photography":
		return fmt.Sprintf("A professional product photo in %s composition", style)
	case "minimalist":
		return fmt.Sprintf("A minimalist product image in %s layout", style)
	default:
		return fmt.Sprintf("An e-commerce product image in %s style", style)
	}
}
