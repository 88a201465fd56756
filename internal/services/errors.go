package services

import (
	"errors"
	"net/http"

	"github.com/taskio/taskio-web/internal/services/backend"
	"github.com/taskio/taskio-web/pkg/logger"
	"github.com/taskio/taskio-web/pkg/response"
)

const (
	MsgGenericFailure = "Something went wrong. Please try again."
	MsgNotMember      = "You are not a member of this task."
	MsgInactive       = "Your account is not active."
	MsgTokenRejected  = "Your session has expired. Please log in again."
)

var (
	ErrNoSession      = errors.New("no active session")
	ErrSessionExpired = errors.New("session expired")
)

// fromBackend maps a failed backend call to the error the browser sees.
// 400 carries the backend's business-rule text and 409/403/404 keep their
// meaning. A 401 means the session token was refused; login checks
// credentials on its own path. Transport failures and anything unrecognised
// become fallback with the error modal. Nothing is retried.
func fromBackend(err error, fallback string) *response.AppError {
	var appErr *response.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	status := backend.StatusOf(err)
	body := backend.BodyOf(err)
	if fallback == "" {
		fallback = MsgGenericFailure
	}

	switch status {
	case http.StatusBadRequest:
		return response.NewBadRequest(orDefault(body, fallback)).WithModal(response.ModalError)
	case http.StatusUnauthorized:
		return response.NewUnauthorized(MsgTokenRejected).WithModal(response.ModalSessionExpiry)
	case http.StatusForbidden:
		return response.NewForbidden(orDefault(body, MsgInactive))
	case http.StatusNotFound:
		return response.NewNotFound(orDefault(body, fallback))
	case http.StatusConflict:
		return response.NewConflict(orDefault(body, fallback))
	}

	if status == 0 {
		logger.Error().Err(err).Msg("backend unreachable")
	} else {
		logger.Warn().Err(err).Int("status", status).Msg("backend rejected request")
	}
	return response.NewBadGateway(fallback).WithModal(response.ModalError)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
