package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"polling-backend/models"
	"polling-backend/service"
)

// PollService is the part of service.PollService the HTTP layer drives.
type PollService interface {
	CreatePoll(ctx context.Context, question string, options []string) (*models.Poll, error)
	ListPolls(ctx context.Context) ([]models.Poll, error)
	GetPoll(ctx context.Context, pollID uint) (*models.Poll, error)
	Vote(ctx context.Context, pollID, optionID uint) (*models.Poll, error)
	DeletePoll(ctx context.Context, pollID uint) error
	ResetAll(ctx context.Context, secret string) error
}

var _ PollService = (*service.PollService)(nil)

type createPollRequest struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

type voteRequest struct {
	OptionID *uint `json:"optionId" binding:"required"`
}

type resetRequest struct {
	Password string `json:"password"`
}

// PollController serves the /polls and /reset endpoints.
type PollController struct {
	polls  PollService
	errors errorWriter
}

// NewPollController builds the controller. showDetails appends the cause of
// 500 responses to the error message.
func NewPollController(polls PollService, showDetails bool, log *slog.Logger) *PollController {
	return &PollController{
		polls:  polls,
		errors: errorWriter{showDetails: showDetails, log: log},
	}
}

func (pc *PollController) RegisterRoutes(api *gin.RouterGroup) {
	polls := api.Group("/polls")
	{
		polls.GET("", pc.ListPolls)
		polls.POST("", pc.CreatePoll)
		polls.GET("/:id", pc.GetPoll)
		polls.DELETE("/:id", pc.DeletePoll)
		polls.POST("/:id/vote", pc.Vote)
	}

	api.POST("/reset", pc.Reset)
}

// ListPolls GET /api/polls
func (pc *PollController) ListPolls(c *gin.Context) {
	polls, err := pc.polls.ListPolls(c.Request.Context())
	if err != nil {
		pc.errors.write(c, err)
		return
	}
	c.JSON(http.StatusOK, polls)
}

// GetPoll GET /api/polls/:id
func (pc *PollController) GetPoll(c *gin.Context) {
	id, ok := pollID(c)
	if !ok {
		return
	}

	poll, err := pc.polls.GetPoll(c.Request.Context(), id)
	if err != nil {
		pc.errors.write(c, err)
		return
	}
	c.JSON(http.StatusOK, poll)
}

// CreatePoll POST /api/polls
func (pc *PollController) CreatePoll(c *gin.Context) {
	var req createPollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	poll, err := pc.polls.CreatePoll(c.Request.Context(), req.Question, req.Options)
	if err != nil {
		pc.errors.write(c, err)
		return
	}
	c.JSON(http.StatusCreated, poll)
}

// Vote POST /api/polls/:id/vote
func (pc *PollController) Vote(c *gin.Context) {
	id, ok := pollID(c)
	if !ok {
		return
	}

	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, voteBindMessage(err))
		return
	}

	poll, err := pc.polls.Vote(c.Request.Context(), id, *req.OptionID)
	if err != nil {
		pc.errors.write(c, err)
		return
	}
	c.JSON(http.StatusOK, poll)
}

// DeletePoll DELETE /api/polls/:id
func (pc *PollController) DeletePoll(c *gin.Context) {
	id, ok := pollID(c)
	if !ok {
		return
	}

	if err := pc.polls.DeletePoll(c.Request.Context(), id); err != nil {
		pc.errors.write(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "poll deleted"})
}

// Reset POST /api/reset
func (pc *PollController) Reset(c *gin.Context) {
	// A POST without a body carries no password and is rejected as one.
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "invalid request body")
		return
	}

	if err := pc.polls.ResetAll(c.Request.Context(), req.Password); err != nil {
		pc.errors.write(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "all polls have been reset"})
}

func voteBindMessage(err error) string {
	var (
		typeErr *json.UnmarshalTypeError
		verrs   validator.ValidationErrors
	)
	switch {
	case errors.As(err, &typeErr):
		return "optionId must be a positive integer"
	case errors.As(err, &verrs), errors.Is(err, io.EOF):
		return "optionId is required"
	default:
		return "invalid request body"
	}
}

// pollID parses the :id path segment. An id that is not a positive integer
// cannot name a poll, so it is answered with 404.
func pollID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "poll not found"})
		return 0, false
	}
	return uint(id), true
}
