// Package appstate carries the long-lived service objects into gin handlers.
package appstate

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/gitacompanion/companion/engine/guidance"
	"github.com/gitacompanion/companion/engine/llm/orchestrator"
	"github.com/gitacompanion/companion/pkg/config"
)

type contextKey string

const (
	stateKey contextKey = "app_state"
)

// Models is the part of the orchestrator exposed to status endpoints.
type Models interface {
	Default() string
	RegisteredDefault() string
	Backends() []string
	Health() map[string]orchestrator.Health
}

type State struct {
	Guidance *guidance.Service
	Models   Models
	Config   *config.Config
}

func NewState(svc *guidance.Service, models Models, cfg *config.Config) (*State, error) {
	if svc == nil {
		return nil, fmt.Errorf("guidance service is required")
	}
	if models == nil {
		return nil, fmt.Errorf("model status provider is required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	return &State{Guidance: svc, Models: models, Config: cfg}, nil
}

func WithState(ctx context.Context, state *State) context.Context {
	return context.WithValue(ctx, stateKey, state)
}

func GetState(ctx context.Context) (*State, error) {
	state, ok := ctx.Value(stateKey).(*State)
	if !ok {
		return nil, fmt.Errorf("app state not found in context")
	}
	return state, nil
}

// StateMiddleware attaches state to every request context.
func StateMiddleware(state *State) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(WithState(c.Request.Context(), state))
		c.Next()
	}
}
