package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"gorm.io/gorm"

	"polling-backend/config"
	"polling-backend/database"
	"polling-backend/migrations"
	"polling-backend/models"
)

var dbSeq atomic.Int64

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewRawDB opens a private in-memory SQLite database without any schema.
func NewRawDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb_%d?mode=memory&cache=shared", dbSeq.Add(1))

	db, err := database.Open(config.DatabaseConfig{
		Driver:   config.DriverSQLite,
		DSN:      dsn,
		LogLevel: "silent",
	}, DiscardLogger())
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	t.Cleanup(func() {
		_ = database.Close(db)
	})

	return db
}

// NewDB opens a private in-memory SQLite database with the schema applied.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db := NewRawDB(t)
	if err := migrations.Apply(db, DiscardLogger()); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// CreatePoll inserts a poll with zero-vote options directly, bypassing the service.
func CreatePoll(t *testing.T, db *gorm.DB, question string, options ...string) models.Poll {
	t.Helper()

	poll := models.Poll{Question: question}
	for _, text := range options {
		poll.Options = append(poll.Options, models.PollOption{Text: text})
	}

	if err := db.Create(&poll).Error; err != nil {
		t.Fatalf("failed to create test poll: %v", err)
	}
	return poll
}

// SetVotes overwrites an option's counter.
func SetVotes(t *testing.T, db *gorm.DB, optionID uint, votes int64) {
	t.Helper()

	err := db.Model(&models.PollOption{}).Where("id = ?", optionID).UpdateColumn("votes", votes).Error
	if err != nil {
		t.Fatalf("failed to set votes: %v", err)
	}
}

// Votes reads an option's counter straight from the store.
func Votes(t *testing.T, db *gorm.DB, optionID uint) int64 {
	t.Helper()

	var opt models.PollOption
	if err := db.First(&opt, optionID).Error; err != nil {
		t.Fatalf("failed to load option %d: %v", optionID, err)
	}
	return opt.Votes
}

// Count returns the number of rows of the given model.
func Count(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()

	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	return n
}

// MakeRequest builds a JSON test request.
func MakeRequest(method, path string, body any) *http.Request {
	if body == nil {
		return httptest.NewRequest(method, path, nil)
	}

	var reader io.Reader
	switch b := body.(type) {
	case string:
		reader = strings.NewReader(b)
	default:
		payload, _ := json.Marshal(b)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return req
}
