package services

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/taskio/taskio-web/internal/models"
	"github.com/taskio/taskio-web/internal/services/backend"
	"github.com/taskio/taskio-web/pkg/logger"
	"github.com/taskio/taskio-web/pkg/response"
	"golang.org/x/sync/errgroup"
)

const (
	MsgManagerCannotMove = "Managers cannot change the status of tasks."
	MsgStatusUpdateFail  = "There was an error updating the task status."
	MsgDuplicateTask     = "A task with that name already exists!"
	MsgTaskNameRequired  = "Task name is required."
	MsgProjectCompleted  = "This project is completed. Members can no longer be changed."
	MsgNoUsersSelected   = "Select at least one user."
	MsgNotProjectMember  = "The user is not a member of this project."
)

// CardState tracks a card through an optimistic move.
type CardState string

const (
	CardConfirmed CardState = "confirmed"
	CardPending   CardState = "pending"
	CardReverted  CardState = "reverted"
)

// Card is a task as placed on the board. Source is the column a pending
// card came from and returns to if the move is refused.
type Card struct {
	models.Task
	State  CardState         `json:"state"`
	Source models.TaskStatus `json:"source,omitempty"`
	Error  string            `json:"error,omitempty"`
}

type Column struct {
	Status models.TaskStatus `json:"status"`
	Cards  []Card            `json:"cards"`
}

// Board is the three-column view of one project.
type Board struct {
	Project      models.Project `json:"project"`
	Members      []models.User  `json:"members"`
	Active       bool           `json:"active"`
	Columns      []Column       `json:"columns"`
	ErrorMessage string         `json:"error_message,omitempty"`
	LoadedAt     time.Time      `json:"loaded_at"`
}

func newBoard(project models.Project, members []models.User, active bool, tasks []models.Task) *Board {
	b := &Board{
		Project:  project,
		Members:  members,
		Active:   active,
		LoadedAt: time.Now(),
	}
	if b.Members == nil {
		b.Members = []models.User{}
	}
	for _, status := range models.Columns {
		b.Columns = append(b.Columns, Column{Status: status, Cards: []Card{}})
	}
	for _, t := range tasks {
		if t.ProjectID != project.ID {
			continue
		}
		if !t.Status.Valid() {
			logger.Warn().Str("task", t.ID).Str("status", string(t.Status)).Msg("skipping task with unknown status")
			continue
		}
		col := &b.Columns[t.Status.Rank()]
		col.Cards = append(col.Cards, Card{Task: t, State: CardConfirmed})
	}
	return b
}

func (b *Board) find(taskID string) (col, idx int, ok bool) {
	for c := range b.Columns {
		for i := range b.Columns[c].Cards {
			if b.Columns[c].Cards[i].ID == taskID {
				return c, i, true
			}
		}
	}
	return 0, 0, false
}

// place moves a card to the column of status and returns a pointer to it.
func (b *Board) place(taskID string, status models.TaskStatus) *Card {
	c, i, ok := b.find(taskID)
	if !ok {
		return nil
	}
	card := b.Columns[c].Cards[i]
	b.Columns[c].Cards = slices.Delete(b.Columns[c].Cards, i, i+1)

	card.Status = status
	dst := &b.Columns[status.Rank()]
	dst.Cards = append(dst.Cards, card)
	return &dst.Cards[len(dst.Cards)-1]
}

// Card returns a copy of the card for taskID.
func (b *Board) Card(taskID string) (Card, bool) {
	c, i, ok := b.find(taskID)
	if !ok {
		return Card{}, false
	}
	return b.Columns[c].Cards[i], true
}

func (b *Board) snapshot() *Board {
	cp := *b
	cp.Project.Users = slices.Clone(b.Project.Users)
	cp.Members = slices.Clone(b.Members)
	cp.Columns = make([]Column, len(b.Columns))
	for i, col := range b.Columns {
		cp.Columns[i] = Column{Status: col.Status, Cards: slices.Clone(col.Cards)}
	}
	return &cp
}

type BoardService struct {
	api API
}

func NewBoardService(api API) *BoardService {
	return &BoardService{api: api}
}

// Load fetches the project, its members, its active flag and its tasks in
// parallel and replaces the board. The latest successful load wins.
func (s *BoardService) Load(ctx context.Context, ws *Workspace, projectID string) (*Board, error) {
	var (
		project *models.Project
		members []models.User
		active  bool
		tasks   []models.Task
	)

	g, gctx := errgroup.WithContext(ws.Context(ctx))
	g.Go(func() (err error) {
		project, err = s.api.Projects.Get(gctx, projectID)
		return err
	})
	g.Go(func() (err error) {
		members, err = s.api.Projects.Users(gctx, projectID)
		return err
	})
	g.Go(func() (err error) {
		active, err = s.api.Projects.IsActive(gctx, projectID)
		return err
	})
	g.Go(func() (err error) {
		tasks, err = s.api.Tasks.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fromBackend(err, "There was an error loading the project.")
	}

	board := newBoard(*project, members, active, tasks)

	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.boards[projectID] = board
	return board.snapshot(), nil
}

// Board returns the loaded board, loading it first if needed.
func (s *BoardService) Board(ctx context.Context, ws *Workspace, projectID string) (*Board, error) {
	ws.mu.Lock()
	b, ok := ws.boards[projectID]
	var snap *Board
	if ok {
		snap = b.snapshot()
	}
	ws.mu.Unlock()

	if ok {
		return snap, nil
	}
	return s.Load(ctx, ws, projectID)
}

// Move drags a task to another column. The card moves at once and is
// tagged pending; the membership check and the status update then either
// confirm it or put it back in its source column. Managers never reach the
// network.
func (s *BoardService) Move(ctx context.Context, ws *Workspace, projectID, taskID string, to models.TaskStatus) (*Board, error) {
	if !to.Valid() {
		return nil, response.NewValidation(fmt.Sprintf("Unknown column %q.", to))
	}
	if ws.Session.IsManager() {
		return s.refuseManager(ws, projectID, taskID)
	}
	if _, err := s.Board(ctx, ws, projectID); err != nil {
		return nil, err
	}

	ws.mu.Lock()
	board := ws.boards[projectID]
	card, ok := board.Card(taskID)
	if !ok {
		ws.mu.Unlock()
		return nil, response.NewNotFound("Task not found on this board.")
	}
	from := card.Status
	if from == to {
		snap := board.snapshot()
		ws.mu.Unlock()
		return snap, nil
	}
	moved := board.place(taskID, to)
	moved.State = CardPending
	moved.Source = from
	moved.Error = ""
	ws.mu.Unlock()

	bctx := ws.Context(ctx)
	member, err := s.api.Tasks.IsMember(bctx, taskID, ws.Session.UserID)
	if err != nil {
		return s.settle(ws, projectID, taskID, to, from, fromBackend(err, MsgStatusUpdateFail))
	}
	if !member {
		return s.settle(ws, projectID, taskID, to, from, response.NewForbidden(MsgNotMember).WithModal(response.ModalNotMember))
	}

	if err := s.api.Tasks.UpdateStatus(bctx, taskID, to); err != nil {
		appErr := response.NewBadGateway(MsgStatusUpdateFail).WithModal(response.ModalError)
		if backend.IsStatus(err, http.StatusBadRequest) && backend.BodyOf(err) != "" {
			appErr = response.NewBadRequest(backend.BodyOf(err)).WithModal(response.ModalError)
		} else {
			logger.Warn().Err(err).Str("task", taskID).Msg("status update failed")
		}
		return s.settle(ws, projectID, taskID, to, from, appErr)
	}
	return s.settle(ws, projectID, taskID, to, from, nil)
}

// settle applies the outcome of a move. A nil failure confirms the card in
// to; otherwise a card still pending in to goes back to from.
func (s *BoardService) settle(ws *Workspace, projectID, taskID string, to, from models.TaskStatus, failure *response.AppError) (*Board, error) {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	board := ws.boards[projectID]
	card, ok := board.Card(taskID)

	if failure == nil {
		if ok {
			c := board.place(taskID, to)
			c.State = CardConfirmed
			c.Source = ""
			c.Error = ""
		}
		board.ErrorMessage = ""
		return board.snapshot(), nil
	}

	if ok && card.State == CardPending && card.Status == to {
		c := board.place(taskID, from)
		c.State = CardReverted
		c.Source = ""
		c.Error = failure.Message
	}
	board.ErrorMessage = failure.Message
	return board.snapshot(), failure
}

// refuseManager rejects a manager's drag using only the loaded board. The
// card, if shown, is marked reverted where it already sits.
func (s *BoardService) refuseManager(ws *Workspace, projectID, taskID string) (*Board, error) {
	failure := response.NewForbidden(MsgManagerCannotMove).WithModal(response.ModalError)

	ws.mu.Lock()
	defer ws.mu.Unlock()

	board, ok := ws.boards[projectID]
	if !ok {
		return nil, failure
	}
	if c, i, found := board.find(taskID); found {
		card := &board.Columns[c].Cards[i]
		card.State = CardReverted
		card.Source = ""
		card.Error = failure.Message
	}
	board.ErrorMessage = failure.Message
	return board.snapshot(), failure
}

// CreateTask adds a task to the project and reloads the board.
func (s *BoardService) CreateTask(ctx context.Context, ws *Workspace, projectID, name, description string) (*Board, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, response.NewValidation(MsgTaskNameRequired)
	}

	_, err := s.api.Tasks.Create(ws.Context(ctx), models.NewTaskRequest{
		Name:        name,
		Description: description,
		ProjectID:   projectID,
	})
	if err != nil {
		if backend.IsStatus(err, http.StatusConflict) {
			return nil, response.NewConflict(MsgDuplicateTask)
		}
		return nil, fromBackend(err, "There was an error creating the task.")
	}
	return s.Load(ctx, ws, projectID)
}

func (s *BoardService) TaskMembers(ctx context.Context, ws *Workspace, taskID string) ([]models.User, error) {
	users, err := s.api.Tasks.Users(ws.Context(ctx), taskID)
	if err != nil {
		return nil, fromBackend(err, "There was an error loading task members.")
	}
	for i := range users {
		users[i] = users[i].Public()
	}
	return users, nil
}

// AddTaskMember assigns a project member to a task.
func (s *BoardService) AddTaskMember(ctx context.Context, ws *Workspace, projectID, taskID, userID string) (*Board, error) {
	board, err := s.Board(ctx, ws, projectID)
	if err != nil {
		return nil, err
	}
	if !board.Project.HasMember(userID) {
		return nil, response.NewValidation(MsgNotProjectMember)
	}
	if err := s.api.Tasks.AddUser(ws.Context(ctx), taskID, userID); err != nil {
		return nil, fromBackend(err, "There was an error adding the user to the task.")
	}
	return s.Load(ctx, ws, projectID)
}

func (s *BoardService) RemoveTaskMember(ctx context.Context, ws *Workspace, projectID, taskID, userID string) (*Board, error) {
	if err := s.api.Tasks.RemoveUser(ws.Context(ctx), taskID, userID); err != nil {
		return nil, fromBackend(err, "There was an error removing the user from the task.")
	}
	return s.Load(ctx, ws, projectID)
}

// AddMembers adds users to the project, skipping those already in it.
// Completed projects and over-capacity requests are refused locally.
func (s *BoardService) AddMembers(ctx context.Context, ws *Workspace, projectID string, userIDs []string) (*Board, error) {
	board, err := s.Board(ctx, ws, projectID)
	if err != nil {
		return nil, err
	}
	if !board.Active {
		return nil, response.NewValidation(MsgProjectCompleted)
	}

	var fresh []string
	for _, id := range userIDs {
		if id == "" || board.Project.HasMember(id) || slices.Contains(fresh, id) {
			continue
		}
		fresh = append(fresh, id)
	}
	if len(fresh) == 0 {
		return nil, response.NewValidation(MsgNoUsersSelected)
	}
	if len(board.Project.Users)+len(fresh) > board.Project.MaxPeople {
		return nil, response.NewValidation(fmt.Sprintf("You can have a maximum of %d users!", board.Project.MaxPeople))
	}

	if err := s.api.Projects.AddUsers(ws.Context(ctx), projectID, fresh); err != nil {
		return nil, fromBackend(err, "There was an error adding members.")
	}
	return s.Load(ctx, ws, projectID)
}

// RemoveMembers removes users from the project.
func (s *BoardService) RemoveMembers(ctx context.Context, ws *Workspace, projectID string, userIDs []string) (*Board, error) {
	board, err := s.Board(ctx, ws, projectID)
	if err != nil {
		return nil, err
	}
	if !board.Active {
		return nil, response.NewValidation(MsgProjectCompleted)
	}

	var members []string
	for _, id := range userIDs {
		if board.Project.HasMember(id) && !slices.Contains(members, id) {
			members = append(members, id)
		}
	}
	if len(members) == 0 {
		return nil, response.NewValidation(MsgNoUsersSelected)
	}

	if err := s.api.Projects.RemoveUsers(ws.Context(ctx), projectID, members); err != nil {
		return nil, fromBackend(err, "There was an error removing members.")
	}
	return s.Load(ctx, ws, projectID)
}

// Candidates lists active members that can still be added to the project.
func (s *BoardService) Candidates(ctx context.Context, ws *Workspace, projectID string) ([]models.User, error) {
	board, err := s.Board(ctx, ws, projectID)
	if err != nil {
		return nil, err
	}
	users, err := s.api.Users.Active(ws.Context(ctx))
	if err != nil {
		return nil, fromBackend(err, "There was an error loading users.")
	}

	out := make([]models.User, 0, len(users))
	for _, u := range users {
		if u.Role != models.RoleMember || board.Project.HasMember(u.ID) {
			continue
		}
		out = append(out, u.Public())
	}
	return out, nil
}
