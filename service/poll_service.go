package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"

	"polling-backend/config"
	"polling-backend/lock"
	"polling-backend/models"
	"polling-backend/repository"
)

const resetLockName = "polls:reset"

// Settings carries the configuration PollService needs from config.Config.
type Settings struct {
	ResetSecret string
	Seed        []config.SeedPoll
}

// PollService applies the poll rules on top of a PollRepository.
type PollService struct {
	repo        repository.PollRepository
	locker      lock.Locker
	resetSecret string
	seed        []config.SeedPoll
	log         *slog.Logger
}

func NewPollService(repo repository.PollRepository, locker lock.Locker, settings Settings, log *slog.Logger) *PollService {
	return &PollService{
		repo:        repo,
		locker:      locker,
		resetSecret: settings.ResetSecret,
		seed:        settings.Seed,
		log:         log,
	}
}

// CreatePoll stores a new poll. Blank options are discarded before the
// two-option minimum is checked.
func (s *PollService) CreatePoll(ctx context.Context, question string, options []string) (*models.Poll, error) {
	const op = "service.CreatePoll"

	poll := buildPoll(question, options)
	if poll.Question == "" {
		return nil, &ValidationError{Msg: "question is required"}
	}
	if len(poll.Options) < 2 {
		return nil, &ValidationError{Msg: "at least two non-empty options are required"}
	}

	if err := s.repo.CreatePoll(ctx, &poll); err != nil {
		if errors.Is(err, repository.ErrTooFewOptions) {
			return nil, &ValidationError{Msg: "at least two non-empty options are required"}
		}
		return nil, s.storeError(op, err)
	}

	s.log.Info("poll created",
		slog.Uint64("poll_id", uint64(poll.ID)),
		slog.Int("options", len(poll.Options)),
	)

	poll.Tally()
	return &poll, nil
}

// ListPolls returns every poll, newest first.
func (s *PollService) ListPolls(ctx context.Context) ([]models.Poll, error) {
	const op = "service.ListPolls"

	polls, err := s.repo.ListPolls(ctx)
	if err != nil {
		return nil, s.storeError(op, err)
	}

	for i := range polls {
		polls[i].Tally()
	}
	return polls, nil
}

func (s *PollService) GetPoll(ctx context.Context, pollID uint) (*models.Poll, error) {
	const op = "service.GetPoll"

	poll, err := s.repo.GetPoll(ctx, pollID)
	if err != nil {
		if errors.Is(err, repository.ErrPollNotFound) {
			return nil, &NotFoundError{Resource: "poll"}
		}
		return nil, s.storeError(op, err)
	}

	poll.Tally()
	return poll, nil
}

// Vote adds one vote to optionID, which must belong to pollID, and returns
// the poll as it is after the increment.
func (s *PollService) Vote(ctx context.Context, pollID, optionID uint) (*models.Poll, error) {
	const op = "service.Vote"

	if err := s.repo.IncrementVote(ctx, pollID, optionID); err != nil {
		if errors.Is(err, repository.ErrOptionNotFound) {
			return nil, &NotFoundError{Resource: "option"}
		}
		return nil, s.storeError(op, err)
	}

	return s.GetPoll(ctx, pollID)
}

func (s *PollService) DeletePoll(ctx context.Context, pollID uint) error {
	const op = "service.DeletePoll"

	if err := s.repo.DeletePoll(ctx, pollID); err != nil {
		if errors.Is(err, repository.ErrPollNotFound) {
			return &NotFoundError{Resource: "poll"}
		}
		return s.storeError(op, err)
	}

	s.log.Info("poll deleted", slog.Uint64("poll_id", uint64(pollID)))
	return nil
}

// ResetAll replaces every poll with the seed set. An empty configured secret
// rejects every attempt.
func (s *PollService) ResetAll(ctx context.Context, secret string) error {
	const op = "service.ResetAll"

	if !s.secretMatches(secret) {
		s.log.Warn("reset rejected")
		return &AuthError{}
	}

	release, err := s.locker.Acquire(ctx, resetLockName)
	if err != nil {
		return s.storeError(op, err)
	}
	defer release()

	seed := seedPolls(s.seed)
	if err := s.repo.ReplaceAll(ctx, seed); err != nil {
		return s.storeError(op, err)
	}

	s.log.Info("polls reset", slog.Int("polls", len(seed)))
	return nil
}

// SeedIfEmpty installs the seed set when the store holds no polls.
func (s *PollService) SeedIfEmpty(ctx context.Context) error {
	const op = "service.SeedIfEmpty"

	release, err := s.locker.Acquire(ctx, resetLockName)
	if err != nil {
		return s.storeError(op, err)
	}
	defer release()

	n, err := s.repo.CountPolls(ctx)
	if err != nil {
		return s.storeError(op, err)
	}
	if n > 0 {
		s.log.Debug("store already has polls, skipping seed", slog.Int64("polls", n))
		return nil
	}

	seed := seedPolls(s.seed)
	if err := s.repo.ReplaceAll(ctx, seed); err != nil {
		return s.storeError(op, err)
	}

	s.log.Info("seeded polls", slog.Int("polls", len(seed)))
	return nil
}

func (s *PollService) secretMatches(secret string) bool {
	if s.resetSecret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(s.resetSecret)) == 1
}

func (s *PollService) storeError(op string, err error) error {
	s.log.Error("store operation failed",
		slog.String("op", op),
		slog.Any("error", err),
	)
	return &StoreError{Op: op, Err: err}
}
