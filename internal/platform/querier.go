// Package platform holds the closed set of third-party answer engines the
// measurement pipeline probes, behind one Querier interface.
package platform

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Platform identifies one supported answer engine. The set is closed:
// registering or requesting anything else is a construction-time error.
type Platform string

const (
	ChatGPT    Platform = "chatgpt"
	Perplexity Platform = "perplexity"
	Gemini     Platform = "gemini"
)

// Querier issues one natural-language probe and returns the free-text answer.
type Querier interface {
	Platform() Platform
	Query(ctx context.Context, prompt string) (string, error)
}

// Registry keeps the configured queriers keyed by platform.
type Registry struct {
	queriers map[Platform]Querier
	logger   *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		queriers: make(map[Platform]Querier),
		logger:   logger,
	}
}

func (r *Registry) Register(q Querier) error {
	p := q.Platform()
	switch p {
	case ChatGPT, Perplexity, Gemini:
	default:
		return fmt.Errorf("unknown platform %q", p)
	}
	if _, exists := r.queriers[p]; exists {
		return fmt.Errorf("querier for platform %s already registered", p)
	}
	r.queriers[p] = q
	r.logger.Info("Platform querier registered", zap.String("platform", string(p)))
	return nil
}

func (r *Registry) Get(p Platform) (Querier, error) {
	q, exists := r.queriers[p]
	if !exists {
		return nil, fmt.Errorf("querier for platform %s not found", p)
	}
	return q, nil
}

// Available lists the registered platforms in a fixed order.
func (r *Registry) Available() []Platform {
	var out []Platform
	for _, p := range []Platform{ChatGPT, Perplexity, Gemini} {
		if _, ok := r.queriers[p]; ok {
			out = append(out, p)
		}
	}
	return out
}
