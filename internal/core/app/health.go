package app

import (
	"context"
	"fmt"
	"time"
)

type HealthStatus struct {
	Status     string            `json:"status"`
	Instance   string            `json:"instance"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components"`
}

type HealthService struct {
	app *App
}

func NewHealthService(app *App) *HealthService {
	return &HealthService{app: app}
}

func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:     "up",
		Instance:   s.app.ID,
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}

	if err := ctx.Err(); err != nil {
		status.Status = "down"
		status.Components["context"] = err.Error()
		return status
	}

	status.Components["types"] = fmt.Sprintf("ok (%d tables)", s.app.Types.Len())
	status.Components["merger"] = fmt.Sprintf("ok (%s, %d cached)", s.app.Merger.Strategy(), s.app.Merger.CacheLen())

	if len(s.app.Workspace.Folders()) == 0 {
		status.Status = "degraded"
		status.Components["workspace"] = "no folders"
	} else {
		status.Components["workspace"] = fmt.Sprintf("ok (%d folders)", len(s.app.Workspace.Folders()))
	}

	if s.app.Config().Watch.Enabled && s.app.watcher == nil {
		status.Status = "degraded"
		status.Components["watcher"] = "enabled but not running"
	}

	return status
}
