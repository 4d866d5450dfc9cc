package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chaza/pricewatch/internal/scheduler"
	"github.com/gin-gonic/gin"
)

func newJobsRouter(sched *scheduler.Scheduler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewJobsHandler(sched, nil)
	r.GET("/api/v1/jobs", h.List)
	r.POST("/api/v1/jobs/:name/run", h.Run)
	r.POST("/api/v1/jobs/:name/stop", h.Stop)
	return r
}

func TestListJobs(t *testing.T) {
	sched := scheduler.New(nil)
	sched.Register("price-update", 24*time.Hour, func(ctx context.Context) error { return nil })
	sched.Register("price-alerts", time.Hour, func(ctx context.Context) error { return nil })

	r := newJobsRouter(sched)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp struct {
		Tasks []TaskResponse `json:"tasks"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Tasks) != 2 {
		t.Fatalf("got %d tasks, want 2", len(resp.Tasks))
	}
	// Sorted by name.
	if resp.Tasks[0].Name != "price-alerts" || resp.Tasks[1].Name != "price-update" {
		t.Errorf("unexpected task order: %s, %s", resp.Tasks[0].Name, resp.Tasks[1].Name)
	}
}

func TestRunUnknownJobReturns404(t *testing.T) {
	r := newJobsRouter(scheduler.New(nil))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/jobs/ghost/run", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestRunInFlightJobReturns409(t *testing.T) {
	sched := scheduler.New(nil)

	release := make(chan struct{})
	started := make(chan struct{})
	sched.Register("slow", time.Hour, func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	})

	r := newJobsRouter(sched)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/jobs/slow/run", nil))
	if w.Code != http.StatusAccepted {
		t.Fatalf("first run status = %d, want 202", w.Code)
	}
	<-started

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/jobs/slow/run", nil))
	if w.Code != http.StatusConflict {
		t.Errorf("overlapping run status = %d, want 409", w.Code)
	}

	close(release)
	sched.StopAll()
}

func TestStopUnknownJobReturns404(t *testing.T) {
	r := newJobsRouter(scheduler.New(nil))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/jobs/ghost/stop", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
