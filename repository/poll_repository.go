package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"polling-backend/models"
)

// PollRepository is the persistence contract of the poll service.
type PollRepository interface {
	CreatePoll(ctx context.Context, poll *models.Poll) error
	ListPolls(ctx context.Context) ([]models.Poll, error)
	GetPoll(ctx context.Context, id uint) (*models.Poll, error)
	IncrementVote(ctx context.Context, pollID, optionID uint) error
	DeletePoll(ctx context.Context, id uint) error
	ReplaceAll(ctx context.Context, polls []models.Poll) error
	CountPolls(ctx context.Context) (int64, error)
}

// GormPollRepository stores polls in the polls and poll_options tables.
type GormPollRepository struct {
	db *gorm.DB
}

func NewGormPollRepository(db *gorm.DB) *GormPollRepository {
	return &GormPollRepository{db: db}
}

// CreatePoll writes the poll row and then its option rows in one transaction.
// On success poll and its options carry their generated ids.
func (r *GormPollRepository) CreatePoll(ctx context.Context, poll *models.Poll) error {
	const op = "repository.CreatePoll"

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return createPollTx(tx, poll)
	})
	if err != nil {
		poll.ID = 0
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func createPollTx(tx *gorm.DB, poll *models.Poll) error {
	if len(poll.Options) < 2 {
		return ErrTooFewOptions
	}

	options := poll.Options
	if err := tx.Omit(clause.Associations).Create(poll).Error; err != nil {
		return err
	}

	for i := range options {
		options[i].ID = 0
		options[i].PollID = poll.ID
	}
	if err := tx.Create(&options).Error; err != nil {
		return err
	}

	poll.Options = options
	return nil
}

// ListPolls returns every poll with its options, newest first. Polls created
// within the same clock tick are ordered by id.
func (r *GormPollRepository) ListPolls(ctx context.Context) ([]models.Poll, error) {
	const op = "repository.ListPolls"

	polls := make([]models.Poll, 0)
	err := r.db.WithContext(ctx).
		Preload("Options", orderOptions).
		Order("created_at DESC").
		Order("id DESC").
		Find(&polls).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return polls, nil
}

func (r *GormPollRepository) GetPoll(ctx context.Context, id uint) (*models.Poll, error) {
	const op = "repository.GetPoll"

	var poll models.Poll
	err := r.db.WithContext(ctx).Preload("Options", orderOptions).First(&poll, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrPollNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &poll, nil
}

// IncrementVote adds one vote in a single UPDATE. The option must belong to
// pollID; otherwise nothing changes and ErrOptionNotFound is returned.
func (r *GormPollRepository) IncrementVote(ctx context.Context, pollID, optionID uint) error {
	const op = "repository.IncrementVote"

	res := r.db.WithContext(ctx).
		Model(&models.PollOption{}).
		Where("id = ? AND poll_id = ?", optionID, pollID).
		UpdateColumn("votes", gorm.Expr("votes + ?", 1))
	if res.Error != nil {
		return fmt.Errorf("%s: %w", op, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrOptionNotFound)
	}

	return nil
}

// DeletePoll removes a poll together with its options.
func (r *GormPollRepository) DeletePoll(ctx context.Context, id uint) error {
	const op = "repository.DeletePoll"

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("poll_id = ?", id).Delete(&models.PollOption{}).Error; err != nil {
			return err
		}

		res := tx.Delete(&models.Poll{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrPollNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ReplaceAll empties both tables and inserts polls in their place, atomically.
func (r *GormPollRepository) ReplaceAll(ctx context.Context, polls []models.Poll) error {
	const op = "repository.ReplaceAll"

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := all.Delete(&models.PollOption{}).Error; err != nil {
			return err
		}
		if err := all.Delete(&models.Poll{}).Error; err != nil {
			return err
		}

		for i := range polls {
			if err := createPollTx(tx, &polls[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *GormPollRepository) CountPolls(ctx context.Context) (int64, error) {
	const op = "repository.CountPolls"

	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Poll{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

func orderOptions(db *gorm.DB) *gorm.DB {
	return db.Order("poll_options.id ASC")
}
