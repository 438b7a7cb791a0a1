package handlers

import (
	"errors"
	"strconv"

	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/services"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/pkg/logger"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/pkg/response"
	"github.com/gin-gonic/gin"
)

// handleError maps service errors onto the response envelope. Anything it
// does not recognise is logged and returned as a generic 500.
func handleError(c *gin.Context, err error) {
	response.Error(c, classify(c, err))
}

func classify(c *gin.Context, err error) error {
	var appErr *response.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if services.IsValidationError(err) {
		return response.NewBadRequest(err.Error())
	}

	switch {
	case errors.Is(err, services.ErrProjectNotVotable),
		errors.Is(err, services.ErrSelfVote),
		errors.Is(err, services.ErrAlreadyVoted),
		errors.Is(err, services.ErrProjectLocked),
		errors.Is(err, services.ErrUnknownKind):
		return response.NewBadRequest(err.Error())

	case errors.Is(err, services.ErrInvalidRefresh):
		return response.NewUnauthorized(err.Error())

	case errors.Is(err, services.ErrNotProjectOwner),
		errors.Is(err, services.ErrUserDisabled):
		return response.NewForbidden(err.Error())

	case errors.Is(err, services.ErrProjectNotFound),
		errors.Is(err, services.ErrCycleNotFound),
		errors.Is(err, services.ErrVoteNotFound),
		errors.Is(err, services.ErrCommentNotFound),
		errors.Is(err, services.ErrSubscriberNotFound),
		errors.Is(err, services.ErrTemplateNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrUnknownProvider):
		return response.NewNotFound(err.Error())

	case errors.Is(err, services.ErrEmailDisabled):
		return response.NewUnavailable(err.Error())
	}

	logger.Error().Err(err).
		Str("method", c.Request.Method).
		Str("path", c.FullPath()).
		Msg("[API] request failed")
	return err
}

func parseUintParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// monthYear reads ?month&year, defaulting to the current cycle month when
// either is missing.
func monthYear(c *gin.Context, cycles *services.CycleService) (int, int) {
	month, _ := strconv.Atoi(c.Query("month"))
	year, _ := strconv.Atoi(c.Query("year"))
	if month < 1 || month > 12 || year <= 0 {
		return cycles.MonthOf(cycles.Now())
	}
	return month, year
}
