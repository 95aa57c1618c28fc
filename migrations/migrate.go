package migrations

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"polling-backend/models"
)

const optionOrderIndex = "idx_poll_options_poll_id_id"

// Apply brings the schema up to date. Safe to run on every start.
func Apply(db *gorm.DB, log *slog.Logger) error {
	const op = "migrations.Apply"

	if err := db.AutoMigrate(&models.Poll{}, &models.PollOption{}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := addOptionOrderIndex(db, log); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// addOptionOrderIndex covers the per-poll option lookup ordered by id.
func addOptionOrderIndex(db *gorm.DB, log *slog.Logger) error {
	if db.Migrator().HasIndex(&models.PollOption{}, optionOrderIndex) {
		log.Debug("migration skipped, index exists", slog.String("index", optionOrderIndex))
		return nil
	}

	if err := db.Exec("CREATE INDEX " + optionOrderIndex + " ON poll_options (poll_id, id)").Error; err != nil {
		return err
	}

	log.Info("migration applied", slog.String("index", optionOrderIndex))
	return nil
}
