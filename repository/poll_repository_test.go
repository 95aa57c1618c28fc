package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"polling-backend/models"
	"polling-backend/testutil"
)

func newPoll(question string, options ...string) *models.Poll {
	poll := &models.Poll{Question: question}
	for _, text := range options {
		poll.Options = append(poll.Options, models.PollOption{Text: text})
	}
	return poll
}

func TestCreatePoll(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewGormPollRepository(db)

	poll := newPoll("Favorite color?", "Red", "Blue", "Green")
	require.NoError(t, repo.CreatePoll(context.Background(), poll))

	assert.NotZero(t, poll.ID)
	assert.False(t, poll.CreatedAt.IsZero())
	require.Len(t, poll.Options, 3)
	for _, opt := range poll.Options {
		assert.NotZero(t, opt.ID)
		assert.Equal(t, poll.ID, opt.PollID)
		assert.Zero(t, opt.Votes)
	}

	stored, err := repo.GetPoll(context.Background(), poll.ID)
	require.NoError(t, err)
	assert.Equal(t, "Favorite color?", stored.Question)
	require.Len(t, stored.Options, 3)
	assert.Equal(t, "Red", stored.Options[0].Text)
	assert.Equal(t, "Green", stored.Options[2].Text)
}

func TestCreatePoll_TooFewOptions(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewGormPollRepository(db)

	err := repo.CreatePoll(context.Background(), newPoll("Lonely?", "Yes"))

	assert.ErrorIs(t, err, ErrTooFewOptions)
	assert.Zero(t, testutil.Count(t, db, &models.Poll{}))
}

func TestCreatePoll_RollsBackWhenOptionsFail(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewGormPollRepository(db)

	errInjected := errors.New("disk full")
	err := db.Callback().Create().Before("gorm:create").Register("test:fail_options", func(tx *gorm.DB) {
		if tx.Statement.Schema != nil && tx.Statement.Schema.Table == "poll_options" {
			_ = tx.AddError(errInjected)
		}
	})
	require.NoError(t, err)

	poll := newPoll("Will this persist?", "Yes", "No")
	err = repo.CreatePoll(context.Background(), poll)

	assert.ErrorIs(t, err, errInjected)
	assert.Zero(t, poll.ID)
	assert.Zero(t, testutil.Count(t, db, &models.Poll{}))
	assert.Zero(t, testutil.Count(t, db, &models.PollOption{}))
}

func TestListPolls_NewestFirst(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewGormPollRepository(db)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	older := newPoll("Older", "A", "B")
	older.CreatedAt = base
	newer := newPoll("Newer", "C", "D")
	newer.CreatedAt = base.Add(time.Minute)

	require.NoError(t, repo.CreatePoll(ctx, older))
	require.NoError(t, repo.CreatePoll(ctx, newer))

	polls, err := repo.ListPolls(ctx)
	require.NoError(t, err)
	require.Len(t, polls, 2)
	assert.Equal(t, "Newer", polls[0].Question)
	assert.Equal(t, "Older", polls[1].Question)
	assert.Len(t, polls[0].Options, 2)
	assert.Equal(t, "C", polls[0].Options[0].Text)
}

func TestListPolls_TieBreakByID(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewGormPollRepository(db)
	ctx := context.Background()

	same := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	first := newPoll("First", "A", "B")
	first.CreatedAt = same
	second := newPoll("Second", "A", "B")
	second.CreatedAt = same

	require.NoError(t, repo.CreatePoll(ctx, first))
	require.NoError(t, repo.CreatePoll(ctx, second))

	for i := 0; i < 3; i++ {
		polls, err := repo.ListPolls(ctx)
		require.NoError(t, err)
		require.Len(t, polls, 2)
		assert.Equal(t, "Second", polls[0].Question)
		assert.Equal(t, "First", polls[1].Question)
	}
}

func TestListPolls_Empty(t *testing.T) {
	repo := NewGormPollRepository(testutil.NewDB(t))

	polls, err := repo.ListPolls(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, polls)
	assert.Empty(t, polls)
}

func TestGetPoll_NotFound(t *testing.T) {
	repo := NewGormPollRepository(testutil.NewDB(t))

	_, err := repo.GetPoll(context.Background(), 9999)

	assert.ErrorIs(t, err, ErrPollNotFound)
}

func TestIncrementVote(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewGormPollRepository(db)
	poll := testutil.CreatePoll(t, db, "Favorite color?", "Red", "Blue")
	red, blue := poll.Options[0].ID, poll.Options[1].ID

	require.NoError(t, repo.IncrementVote(context.Background(), poll.ID, red))

	assert.EqualValues(t, 1, testutil.Votes(t, db, red))
	assert.EqualValues(t, 0, testutil.Votes(t, db, blue))
}

func TestIncrementVote_OptionOfAnotherPoll(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewGormPollRepository(db)
	first := testutil.CreatePoll(t, db, "First?", "A", "B")
	second := testutil.CreatePoll(t, db, "Second?", "C", "D")

	err := repo.IncrementVote(context.Background(), first.ID, second.Options[0].ID)

	assert.ErrorIs(t, err, ErrOptionNotFound)
	assert.EqualValues(t, 0, testutil.Votes(t, db, second.Options[0].ID))
}

func TestIncrementVote_UnknownIDs(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewGormPollRepository(db)
	poll := testutil.CreatePoll(t, db, "Q?", "A", "B")

	assert.ErrorIs(t, repo.IncrementVote(context.Background(), poll.ID, 424242), ErrOptionNotFound)
	assert.ErrorIs(t, repo.IncrementVote(context.Background(), 424242, poll.Options[0].ID), ErrOptionNotFound)
}

func TestIncrementVote_Concurrent(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewGormPollRepository(db)
	poll := testutil.CreatePoll(t, db, "Race?", "A", "B")
	optionID := poll.Options[0].ID

	const voters = 50
	errs := make(chan error, voters)
	var wg sync.WaitGroup
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.IncrementVote(context.Background(), poll.ID, optionID)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.EqualValues(t, voters, testutil.Votes(t, db, optionID))
}

func TestDeletePoll(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewGormPollRepository(db)
	keep := testutil.CreatePoll(t, db, "Keep", "A", "B")
	drop := testutil.CreatePoll(t, db, "Drop", "C", "D")

	require.NoError(t, repo.DeletePoll(context.Background(), drop.ID))

	_, err := repo.GetPoll(context.Background(), drop.ID)
	assert.ErrorIs(t, err, ErrPollNotFound)

	var orphans int64
	require.NoError(t, db.Model(&models.PollOption{}).Where("poll_id = ?", drop.ID).Count(&orphans).Error)
	assert.Zero(t, orphans)

	_, err = repo.GetPoll(context.Background(), keep.ID)
	assert.NoError(t, err)

	assert.ErrorIs(t, repo.DeletePoll(context.Background(), drop.ID), ErrPollNotFound)
}

func TestReplaceAll(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewGormPollRepository(db)
	old := testutil.CreatePoll(t, db, "Old", "A", "B")
	testutil.SetVotes(t, db, old.Options[0].ID, 7)

	seed := []models.Poll{
		*newPoll("Seed one", "1", "2", "3", "4"),
		*newPoll("Seed two", "5", "6", "7", "8"),
	}
	require.NoError(t, repo.ReplaceAll(context.Background(), seed))

	polls, err := repo.ListPolls(context.Background())
	require.NoError(t, err)
	require.Len(t, polls, 2)

	questions := []string{polls[0].Question, polls[1].Question}
	assert.ElementsMatch(t, []string{"Seed one", "Seed two"}, questions)
	for _, p := range polls {
		assert.Len(t, p.Options, 4)
		for _, opt := range p.Options {
			assert.Zero(t, opt.Votes)
		}
	}
	assert.EqualValues(t, 8, testutil.Count(t, db, &models.PollOption{}))
}

func TestCountPolls(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewGormPollRepository(db)

	n, err := repo.CountPolls(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	testutil.CreatePoll(t, db, "Q?", "A", "B")

	n, err = repo.CountPolls(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
