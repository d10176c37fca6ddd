// Package api exposes workflow registration and execution over HTTP.
package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/deepnoodle-ai/automation"
	"github.com/gin-gonic/gin"
)

// ExecuteRequest is the body of an execution request
type ExecuteRequest struct {
	Record      automation.Record `json:"record" binding:"required"`
	ExecutionID string            `json:"executionId"`
}

// WorkflowSummary describes a registered workflow in listings
type WorkflowSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	NodeCount   int    `json:"nodeCount"`
	EdgeCount   int    `json:"edgeCount"`
}

// Options configures a Handler
type Options struct {
	Engine  *automation.Engine
	Catalog *Catalog
	Logger  *slog.Logger

	// AllowIncomplete registers draft graphs that would otherwise be
	// rejected, such as graphs without a trigger.
	AllowIncomplete bool
}

// Handler serves the workflow API
type Handler struct {
	engine          *automation.Engine
	catalog         *Catalog
	logger          *slog.Logger
	allowIncomplete bool
}

func NewHandler(opts Options) (*Handler, error) {
	if opts.Engine == nil {
		return nil, errors.New("engine required")
	}
	if opts.Catalog == nil {
		opts.Catalog = NewCatalog()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{
		engine:          opts.Engine,
		catalog:         opts.Catalog,
		logger:          opts.Logger,
		allowIncomplete: opts.AllowIncomplete,
	}, nil
}

// Register adds the handler's routes to the router
func (h *Handler) Register(router gin.IRouter) {
	v1 := router.Group("/api/v1")
	{
		v1.POST("/workflows", h.CreateWorkflow)
		v1.GET("/workflows", h.ListWorkflows)
		v1.GET("/workflows/:id", h.GetWorkflow)
		v1.DELETE("/workflows/:id", h.DeleteWorkflow)
		v1.POST("/workflows/:id/executions", h.ExecuteWorkflow)
		v1.GET("/workflows/:id/executions", h.ListExecutions)
		v1.GET("/executions/:id", h.GetExecution)
	}
}

// NewRouter returns a gin engine serving the API and a health check
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "actions": h.engine.ActionTypes()})
	})
	h.Register(router)
	return router
}

func (h *Handler) CreateWorkflow(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	opts, err := automation.DecodeGraphDocument(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	opts.AllowIncomplete = h.allowIncomplete
	graph, err := automation.NewGraph(opts)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.catalog.Add(graph); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	h.logger.Info("workflow registered", "workflow_id", graph.ID(), "nodes", len(graph.Nodes()))
	c.JSON(http.StatusCreated, graph)
}

func (h *Handler) ListWorkflows(c *gin.Context) {
	graphs := h.catalog.List()
	workflows := make([]WorkflowSummary, 0, len(graphs))
	for _, graph := range graphs {
		workflows = append(workflows, WorkflowSummary{
			ID:          graph.ID(),
			Name:        graph.Name(),
			Description: graph.Description(),
			NodeCount:   len(graph.Nodes()),
			EdgeCount:   len(graph.Edges()),
		})
	}
	c.JSON(http.StatusOK, gin.H{"workflows": workflows})
}

func (h *Handler) GetWorkflow(c *gin.Context) {
	graph, err := h.catalog.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, graph)
}

func (h *Handler) DeleteWorkflow(c *gin.Context) {
	if err := h.catalog.Remove(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Workflow deleted"})
}

// ExecuteWorkflow runs the workflow synchronously. A failed execution is
// still a successful request; the record status carries the outcome.
func (h *Handler) ExecuteWorkflow(c *gin.Context) {
	graph, err := h.catalog.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	var req ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	execution, err := h.engine.Execute(c.Request.Context(), graph, req.Record, req.ExecutionID)
	if err != nil {
		h.logger.Warn("execution failed",
			"workflow_id", graph.ID(),
			"execution_id", execution.ID(),
			"error", err)
	}
	c.JSON(http.StatusOK, execution.Record())
}

func (h *Handler) ListExecutions(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.catalog.Get(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	records, err := h.engine.Store().ListExecutions(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	summaries := make([]automation.ExecutionSummary, 0, len(records))
	for _, record := range records {
		summaries = append(summaries, record.Summary())
	}
	c.JSON(http.StatusOK, gin.H{"executions": summaries})
}

func (h *Handler) GetExecution(c *gin.Context) {
	record, err := h.engine.Store().GetExecution(c.Request.Context(), c.Param("id"))
	if errors.Is(err, automation.ErrExecutionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, record)
}
