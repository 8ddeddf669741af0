package aigen

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Request is a normalized generation request passed to any vendor provider.
type Request struct {
	Prompt string
	// RefImage optionally biases an image-to-image call.
	RefImage []byte
	// Size like "1024*1024"; invalid or empty values fall back to a square.
	Size string
	// Count of images to produce; clamped to [1,4].
	Count int
	// PollBudget raises the provider's poll attempt ceiling for call sites
	// willing to wait longer. Zero keeps the provider default.
	PollBudget int
}

// Result is the explicit outcome of a successful generation: one base64
// payload per produced image. Failures are reported as classified errors,
// never exceptions-as-control-flow.
type Result struct {
	TaskID string
	Images []string
}

// Provider submits a job to one vendor API, polls it to a terminal state
// and downloads the produced images. Generate blocks for the whole
// submit/poll/download cycle.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}

type ProviderFactory func(ctx context.Context) (Provider, error)

// Registry routes a configured vendor name to its provider factory.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]ProviderFactory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]ProviderFactory)}
}

func (r *Registry) Register(name string, f ProviderFactory) {
	name = strings.ToLower(strings.TrimSpace(name))
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

func (r *Registry) Get(ctx context.Context, name string) (Provider, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown ai provider: %s", name)
	}
	return f(ctx)
}
