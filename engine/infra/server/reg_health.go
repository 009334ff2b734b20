package server

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/gitacompanion/companion/engine/infra/server/router"
	"github.com/gitacompanion/companion/engine/llm/orchestrator"
	"github.com/gitacompanion/companion/pkg/version"
)

const providerOrchestrated = "orchestrated"

type HealthResponse struct {
	Status           string   `json:"status"`
	Version          string   `json:"version"`
	GuidanceProvider string   `json:"guidance_provider"`
	ChatProvider     string   `json:"chat_provider"`
	DefaultLLM       string   `json:"default_llm"`
	RegisteredModels []string `json:"registered_models"`
	MockMode         bool     `json:"mock_mode"`
}

type ModelStatusResponse struct {
	DefaultLLM string                         `json:"default_llm"`
	MockMode   bool                           `json:"mock_mode"`
	Providers  map[string]orchestrator.Health `json:"providers"`
}

// Health endpoint
//
//	@Summary      Get service health
//	@Description  Reports liveness, the effective default backend and every registered backend
//	@Tags         health
//	@Produce      json
//	@Success      200 {object} server.HealthResponse
//	@Router       /health [get]
func healthHandler(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	models := state.Models.Backends()
	sort.Strings(models)
	c.JSON(http.StatusOK, HealthResponse{
		Status:           "ok",
		Version:          version.Get().Version,
		GuidanceProvider: providerOrchestrated,
		ChatProvider:     providerOrchestrated,
		DefaultLLM:       state.Models.RegisteredDefault(),
		RegisteredModels: models,
		MockMode:         state.Config.LLM.UseMock,
	})
}

// Model status endpoint
//
//	@Summary      Get backend health
//	@Description  Returns the configured default backend and the last observed health of each backend
//	@Tags         health
//	@Produce      json
//	@Success      200 {object} server.ModelStatusResponse
//	@Router       /api/model-status [get]
func modelStatusHandler(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	c.JSON(http.StatusOK, ModelStatusResponse{
		DefaultLLM: state.Models.Default(),
		MockMode:   state.Config.LLM.UseMock,
		Providers:  state.Models.Health(),
	})
}
