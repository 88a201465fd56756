package services

import (
	"context"
	"net/http"
	"strings"

	"github.com/taskio/taskio-web/internal/models"
	"github.com/taskio/taskio-web/internal/services/backend"
	"github.com/taskio/taskio-web/internal/utils"
	"github.com/taskio/taskio-web/pkg/logger"
	"github.com/taskio/taskio-web/pkg/response"
)

// Messages shown by the login, register, reset and profile pages.
const (
	MsgAllFieldsRequired  = "All fields must be filled!"
	MsgInvalidCredentials = "Invalid username or password."
	MsgLoginFailed        = "Login failed. Please try again."

	MsgEmailNotGmail  = "Email must be in @gmail.com format!"
	MsgEmailTaken     = "Email already exists! Please try another email."
	MsgUsernameTaken  = "Username already exists! Please try another username."
	MsgRegistered     = "You are successfully registered! Check your email to confirm your account."
	MsgRegisterFailed = "The data is not correct."

	MsgResetEmailRequired = "Email must be filled out."
	MsgResetEmailNotGmail = "Email must be in @gmail.com format"
	MsgEmailNotActive     = "Email is not active."
	MsgResetSent          = "A password reset link has been sent to your email address."
	MsgResetFailed        = "There was an error sending the password reset link. Try again."
	MsgActiveCheckFailed  = "An error occurred while checking the user's status."

	MsgMagicLinkSent     = "A login link has been sent to your email address."
	MsgMagicLinkFailed   = "There was an error sending the login link. Try again."
	MsgMagicTokenMissing = "Invalid token."

	MsgProfileFailed        = "Error fetching user profile."
	MsgPasswordMismatch     = "Passwords do not match."
	MsgPasswordChanged      = "Password changed successfully."
	MsgPasswordChangeFailed = "There was an error changing the password."
	MsgDeactivateFailed     = "There was an error deactivating the account."
)

// Registration is what the register form submits.
type Registration struct {
	Username string      `json:"username"`
	Name     string      `json:"name"`
	Surname  string      `json:"surname"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

func (r Registration) complete() bool {
	for _, v := range []string{r.Username, r.Name, r.Surname, r.Email, r.Password, string(r.Role)} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// AccountService runs the flows that create, inspect and end accounts and sessions.
type AccountService struct {
	api      API
	sessions *SessionManager
}

func NewAccountService(api API, sessions *SessionManager) *AccountService {
	return &AccountService{api: api, sessions: sessions}
}

func (s *AccountService) Login(ctx context.Context, username, password string) (*Workspace, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, response.NewValidation(MsgAllFieldsRequired)
	}

	reply, err := s.api.Auth.Login(ctx, models.Credentials{Username: strings.TrimSpace(username), Password: password})
	if err != nil {
		switch backend.StatusOf(err) {
		case http.StatusForbidden:
			return nil, response.NewForbidden(MsgInactive)
		case http.StatusUnauthorized:
			return nil, response.NewUnauthorized(MsgInvalidCredentials)
		}
		logger.Warn().Err(err).Str("username", username).Msg("login failed")
		return nil, response.NewBadGateway(MsgLoginFailed)
	}
	return s.sessions.Create(ctx, reply)
}

// Register checks the form in the order the page does, then creates the
// account. Each check stops at the first problem.
func (s *AccountService) Register(ctx context.Context, reg Registration) (string, error) {
	if !reg.complete() {
		return "", response.NewValidation(MsgAllFieldsRequired)
	}
	if problem := utils.PasswordProblem(reg.Password); problem != "" {
		return "", response.NewValidation(problem)
	}
	if !reg.Role.Valid() {
		return "", response.NewValidation(MsgRegisterFailed)
	}
	if !utils.IsGmail(reg.Email) {
		return "", response.NewValidation(MsgEmailNotGmail)
	}

	exists, err := s.api.Users.EmailExists(ctx, reg.Email)
	if err != nil {
		return "", fromBackend(err, MsgRegisterFailed)
	}
	if exists {
		return "", response.NewConflict(MsgEmailTaken)
	}
	exists, err = s.api.Users.UsernameExists(ctx, reg.Username)
	if err != nil {
		return "", fromBackend(err, MsgRegisterFailed)
	}
	if exists {
		return "", response.NewConflict(MsgUsernameTaken)
	}

	user := models.User{
		Username: strings.TrimSpace(reg.Username),
		Name:     strings.TrimSpace(reg.Name),
		Surname:  strings.TrimSpace(reg.Surname),
		Email:    strings.TrimSpace(reg.Email),
		Password: reg.Password,
		Role:     reg.Role,
	}
	if err := s.api.Auth.Register(ctx, user); err != nil {
		logger.Warn().Err(err).Str("username", user.Username).Msg("registration rejected")
		return "", response.NewBadRequest(MsgRegisterFailed)
	}
	return MsgRegistered, nil
}

func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", response.NewValidation(MsgResetEmailRequired)
	}
	if !utils.IsGmail(email) {
		return "", response.NewValidation(MsgResetEmailNotGmail)
	}

	active, err := s.api.Users.IsActive(ctx, email)
	if err != nil {
		logger.Warn().Err(err).Msg("active check failed")
		return "", response.NewBadGateway(MsgActiveCheckFailed)
	}
	if !active {
		return "", response.NewForbidden(MsgEmailNotActive)
	}
	if err := s.api.Auth.ResetPassword(ctx, email); err != nil {
		logger.Warn().Err(err).Msg("password reset request failed")
		return "", response.NewBadGateway(MsgResetFailed)
	}
	return MsgResetSent, nil
}

func (s *AccountService) SendMagicLink(ctx context.Context, email, username string) (string, error) {
	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)
	if email == "" || username == "" {
		return "", response.NewValidation(MsgAllFieldsRequired)
	}
	if !utils.IsGmail(email) {
		return "", response.NewValidation(MsgEmailNotGmail)
	}
	if err := s.api.Auth.SendMagicLink(ctx, models.MagicLinkRequest{Email: email, Username: username}); err != nil {
		return "", fromBackend(err, MsgMagicLinkFailed)
	}
	return MsgMagicLinkSent, nil
}

// VerifyMagicLink trades the emailed token for a session.
func (s *AccountService) VerifyMagicLink(ctx context.Context, token string) (*Workspace, error) {
	if strings.TrimSpace(token) == "" {
		return nil, response.NewBadRequest(MsgMagicTokenMissing)
	}
	reply, err := s.api.Auth.VerifyMagicLink(ctx, token)
	if err != nil {
		logger.Warn().Err(err).Msg("magic link verification failed")
		return nil, response.NewUnauthorized(MsgLoginFailed)
	}
	return s.sessions.Create(ctx, reply)
}

// Profile returns the user behind the session, without the password.
func (s *AccountService) Profile(ctx context.Context, ws *Workspace) (*models.User, error) {
	u, err := s.api.Users.Get(ws.Context(ctx), ws.Session.UserID)
	if err != nil {
		if appErr := fromBackend(err, MsgProfileFailed); appErr.HTTPStatus == http.StatusUnauthorized {
			return nil, appErr
		}
		return nil, response.NewBadGateway(MsgProfileFailed)
	}
	public := u.Public()
	return &public, nil
}

func (s *AccountService) ChangePassword(ctx context.Context, ws *Workspace, req models.ChangePasswordRequest) (string, error) {
	if req.OldPassword == "" || req.NewPassword == "" || req.ConfirmPassword == "" {
		return "", response.NewValidation(MsgAllFieldsRequired)
	}
	if req.NewPassword != req.ConfirmPassword {
		return "", response.NewValidation(MsgPasswordMismatch)
	}
	if problem := utils.PasswordProblem(req.NewPassword); problem != "" {
		return "", response.NewValidation(problem)
	}
	if err := s.api.Users.ChangePassword(ws.Context(ctx), ws.Session.UserID, req); err != nil {
		return "", fromBackend(err, MsgPasswordChangeFailed)
	}
	return MsgPasswordChanged, nil
}

// Deactivate disables the account and ends the session.
func (s *AccountService) Deactivate(ctx context.Context, ws *Workspace) error {
	if err := s.api.Users.Deactivate(ws.Context(ctx), ws.Session.UserID); err != nil {
		return fromBackend(err, MsgDeactivateFailed)
	}
	return s.sessions.Destroy(ctx, ws.Session.ID, LogoutDeactivated)
}

func (s *AccountService) Logout(ctx context.Context, ws *Workspace) error {
	return s.sessions.Destroy(ctx, ws.Session.ID, LogoutUser)
}
