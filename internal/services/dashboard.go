package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/taskio/taskio-web/internal/models"
	"github.com/taskio/taskio-web/pkg/logger"
	"github.com/taskio/taskio-web/pkg/response"
)

// User-facing messages of the project form.
const (
	MsgFieldsRequired     = "All fields must be filled!"
	MsgMinPeople          = "Minimum number of people must be at least 1."
	MsgMaxPeople          = "Maximum number of people must be at least 2."
	MsgMaxBelowMin        = "The maximum number of people must be greater than or equal to the minimum number!"
	MsgEndDateInPast      = "The project completion date must be after today's date!"
	MsgManagerMissing     = "Manager ID is missing. Please log in again."
	MsgDuplicateProject   = "A project with this title already exists."
	MsgTitleCheckFailed   = "There was an error checking the project title."
	MsgCreateFailed       = "There was an error creating the project."
	MsgProjectCreated     = "The project was successfully created!"
	duplicateProjectReply = "Project with this name already exists for the same manager"
)

// ProjectForm is the project-creation form as the user filled it in.
type ProjectForm struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	ExpectedEndDate string   `json:"expected_end_date"`
	MinPeople       int      `json:"min_people"`
	MaxPeople       int      `json:"max_people"`
	Users           []string `json:"users"`
}

// EndDate parses ExpectedEndDate as a calendar date or an RFC 3339 timestamp.
func (f *ProjectForm) EndDate() (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02", f.ExpectedEndDate, time.Local); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, f.ExpectedEndDate)
}

// Validate checks the form before anything is sent. Zero counts are treated
// as missing fields.
func (f *ProjectForm) Validate(now time.Time) *response.AppError {
	if strings.TrimSpace(f.Title) == "" || strings.TrimSpace(f.Description) == "" ||
		f.ExpectedEndDate == "" || f.MinPeople == 0 || f.MaxPeople == 0 {
		return response.NewValidation(MsgFieldsRequired)
	}
	if f.MinPeople < 1 {
		return response.NewValidation(MsgMinPeople)
	}
	if f.MaxPeople < 2 {
		return response.NewValidation(MsgMaxPeople)
	}
	if f.MaxPeople < f.MinPeople {
		return response.NewValidation(MsgMaxBelowMin)
	}
	if len(f.Users) > f.MaxPeople {
		return response.NewValidation(fmt.Sprintf("You can have a maximum of %d users!", f.MaxPeople))
	}
	end, err := f.EndDate()
	if err != nil || !end.After(now) {
		return response.NewValidation(MsgEndDateInPast)
	}
	return nil
}

func (f *ProjectForm) project(managerID string) models.Project {
	users := f.Users
	if users == nil {
		users = []string{}
	}
	return models.Project{
		Title:           strings.TrimSpace(f.Title),
		Description:     f.Description,
		ExpectedEndDate: f.ExpectedEndDate,
		MinPeople:       f.MinPeople,
		MaxPeople:       f.MaxPeople,
		Users:           users,
		ManagerID:       managerID,
	}
}

type DashboardView struct {
	Projects       []models.Project `json:"projects"`
	Form           ProjectForm      `json:"form"`
	ErrorMessage   string           `json:"error_message,omitempty"`
	SuccessMessage string           `json:"success_message,omitempty"`
}

type DashboardService struct {
	api API
}

func NewDashboardService(api API) *DashboardService {
	return &DashboardService{api: api}
}

// Load refreshes the project list with the projects the user manages or
// belongs to.
func (s *DashboardService) Load(ctx context.Context, ws *Workspace) (*DashboardView, error) {
	projects, err := s.api.Projects.List(ws.Context(ctx))
	if err != nil {
		return nil, fromBackend(err, "There was an error loading projects.")
	}

	mine := make([]models.Project, 0, len(projects))
	for _, p := range projects {
		if p.ManagerID == ws.Session.UserID || p.HasMember(ws.Session.UserID) {
			mine = append(mine, p)
		}
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.dashboard.Projects = mine
	view := ws.dashboard
	return &view, nil
}

func (s *DashboardService) View(ws *Workspace) DashboardView {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.dashboard
}

// ResetForm clears the form and its messages.
func (s *DashboardService) ResetForm(ws *Workspace) DashboardView {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.dashboard.Form = ProjectForm{}
	ws.dashboard.ErrorMessage = ""
	ws.dashboard.SuccessMessage = ""
	return ws.dashboard
}

// CreateProject validates the form, checks the title is free for this
// manager and creates the project. The returned view is valid on error too.
func (s *DashboardService) CreateProject(ctx context.Context, ws *Workspace, form ProjectForm, now time.Time) (*DashboardView, error) {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	ws.dashboard.Form = form
	ws.dashboard.SuccessMessage = ""

	fail := func(err *response.AppError) (*DashboardView, error) {
		ws.dashboard.ErrorMessage = err.Message
		view := ws.dashboard
		return &view, err
	}

	if err := form.Validate(now); err != nil {
		return fail(err)
	}
	ws.dashboard.ErrorMessage = ""

	managerID := ws.Session.UserID
	if managerID == "" {
		return fail(response.NewUnauthorized(MsgManagerMissing))
	}

	bctx := ws.Context(ctx)
	reply, err := s.api.Projects.CheckTitle(bctx, managerID, strings.TrimSpace(form.Title))
	if err != nil {
		logger.Warn().Err(err).Msg("project title check failed")
		return fail(response.NewBadGateway(MsgTitleCheckFailed))
	}
	switch reply {
	case models.TitleExists:
		return fail(response.NewConflict(MsgDuplicateProject))
	case models.TitleNotFound:
	default:
		return fail(response.NewBadGateway(MsgTitleCheckFailed))
	}

	created, err := s.api.Projects.Create(bctx, form.project(managerID))
	if err != nil {
		if strings.Contains(err.Error(), duplicateProjectReply) {
			return fail(response.NewConflict(MsgDuplicateProject))
		}
		logger.Warn().Err(err).Msg("project creation failed")
		return fail(response.NewBadGateway(MsgCreateFailed))
	}

	ws.dashboard.Projects = append(ws.dashboard.Projects, *created)
	ws.dashboard.Form = ProjectForm{}
	ws.dashboard.SuccessMessage = MsgProjectCreated
	view := ws.dashboard
	return &view, nil
}
