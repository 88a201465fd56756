package services

import (
	"context"

	"github.com/taskio/taskio-web/internal/models"
	"github.com/taskio/taskio-web/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// AnalyticsView holds the four reports. A report that failed to load is nil.
type AnalyticsView struct {
	TaskCount        *models.TaskCount          `json:"task_count"`
	StatusCount      *models.StatusCount        `json:"status_count"`
	Projects         []models.ProjectTasks      `json:"projects"`
	CompletionOnTime []models.ProjectCompletion `json:"completion_on_time"`
}

type AnalyticsService struct {
	api API
}

func NewAnalyticsService(api API) *AnalyticsService {
	return &AnalyticsService{api: api}
}

// Load fetches the user's reports in parallel. Each failure is logged and
// leaves its report empty; the view itself never fails.
func (s *AnalyticsService) Load(ctx context.Context, ws *Workspace) *AnalyticsView {
	bctx := ws.Context(ctx)
	userID := ws.Session.UserID
	view := &AnalyticsView{}

	report := func(name string, err error) {
		if err != nil {
			logger.Warn().Err(err).Str("report", name).Str("session", ws.Session.ID).Msg("analytics report failed")
		}
	}

	var g errgroup.Group
	g.Go(func() error {
		count, err := s.api.Analytics.TaskCount(bctx, userID)
		report("countusers", err)
		view.TaskCount = count
		return nil
	})
	g.Go(func() error {
		byStatus, err := s.api.Analytics.StatusCount(bctx, userID)
		report("countusersbystatus", err)
		view.StatusCount = byStatus
		return nil
	})
	g.Go(func() error {
		projects, err := s.api.Analytics.TaskProjects(bctx, userID)
		report("usertaskproject", err)
		if projects != nil {
			view.Projects = projects.Projects
		}
		return nil
	})
	g.Go(func() error {
		completion, err := s.api.Analytics.CompletionOnTime(bctx, userID)
		report("project-completion-ontime", err)
		view.CompletionOnTime = completion
		return nil
	})
	_ = g.Wait()

	return view
}
