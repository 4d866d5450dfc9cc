package handler

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/chaza/pricewatch/internal/logger"
	"github.com/chaza/pricewatch/internal/repository"
	"github.com/chaza/pricewatch/internal/scheduler"
	"github.com/gin-gonic/gin"
)

// JobsHandler exposes the scheduled-task control surface: inspect task
// state, trigger manual runs, and pause/resume the recurring timers.
type JobsHandler struct {
	sched *scheduler.Scheduler
	runs  *repository.ScrapingJobRepository
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(sched *scheduler.Scheduler, runs *repository.ScrapingJobRepository) *JobsHandler {
	return &JobsHandler{sched: sched, runs: runs}
}

// TaskResponse is the wire form of one scheduled task's state.
type TaskResponse struct {
	Name     string `json:"name"`
	Interval string `json:"interval"`
	LastRun  string `json:"last_run,omitempty"`
	InFlight bool   `json:"in_flight"`
	Armed    bool   `json:"armed"`
}

// List returns every registered task, sorted by name.
func (h *JobsHandler) List(c *gin.Context) {
	status := h.sched.Status()

	tasks := make([]TaskResponse, 0, len(status))
	for _, st := range status {
		resp := TaskResponse{
			Name:     st.Name,
			Interval: st.Interval.String(),
			InFlight: st.InFlight,
			Armed:    st.Armed,
		}
		if st.LastRun != nil {
			resp.LastRun = st.LastRun.Format(time.RFC3339)
		}
		tasks = append(tasks, resp)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Name < tasks[j].Name })

	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// Run triggers a one-off background run of the named task. An in-flight
// task is a conflict; the overlapping run is not queued.
func (h *JobsHandler) Run(c *gin.Context) {
	name := c.Param("name")
	ctx := c.Request.Context()

	err := h.sched.Trigger(name)
	switch {
	case errors.Is(err, scheduler.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown task: " + name})
	case errors.Is(err, scheduler.ErrTaskRunning):
		logger.CtxWarn(ctx, "Manual run rejected, task in flight: task=%s, client_ip=%s", name, c.ClientIP())
		c.JSON(http.StatusConflict, gin.H{"error": "task is already running: " + name})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		logger.CtxInfo(ctx, "Manual run accepted: task=%s, client_ip=%s", name, c.ClientIP())
		c.JSON(http.StatusAccepted, gin.H{"message": "run started", "task": name})
	}
}

// Start arms the task's recurring timer, running it immediately first.
func (h *JobsHandler) Start(c *gin.Context) {
	name := c.Param("name")

	if err := h.sched.Start(name); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown task: " + name})
		return
	}
	logger.CtxInfo(c.Request.Context(), "Task started: task=%s, client_ip=%s", name, c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"message": "task started", "task": name})
}

// Stop disarms the task's recurring timer. A run already executing
// completes on its own.
func (h *JobsHandler) Stop(c *gin.Context) {
	name := c.Param("name")

	if _, ok := h.sched.Status()[name]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown task: " + name})
		return
	}
	h.sched.Stop(name)
	logger.CtxInfo(c.Request.Context(), "Task stopped: task=%s, client_ip=%s", name, c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"message": "task stopped", "task": name})
}

// RecentRuns returns the newest reconciliation run records.
func (h *JobsHandler) RecentRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	runs, err := h.runs.ListRecent(c.Request.Context(), limit)
	if err != nil {
		logger.CtxError(c.Request.Context(), "Failed to list run records: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list runs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}
