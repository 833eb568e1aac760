package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/emilythestrangee/feedgraph/backend/internal/models"
)

// DenylistChannel is the LISTEN/NOTIFY channel raised whenever sensitive_words changes.
const DenylistChannel = "sensitive_words_changed"

const denylistNotifyTrigger = `
CREATE OR REPLACE FUNCTION notify_sensitive_words_changed() RETURNS trigger AS $$
BEGIN
	PERFORM pg_notify('` + DenylistChannel + `', '');
	RETURN NULL;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS trg_sensitive_words_changed ON sensitive_words;
CREATE TRIGGER trg_sensitive_words_changed
	AFTER INSERT OR UPDATE OR DELETE OR TRUNCATE ON sensitive_words
	FOR EACH STATEMENT EXECUTE FUNCTION notify_sensitive_words_changed();
`

// Migrate creates or updates every table the engine reads and writes.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Quote{},
		&models.Comment{},
		&models.Like{},
		&models.Bookmark{},
		&models.Poll{},
		&models.PollOption{},
		&models.PollVote{},
		&models.SensitiveWord{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	if db.Dialector.Name() == "postgres" {
		if err := db.Exec(denylistNotifyTrigger).Error; err != nil {
			return fmt.Errorf("create denylist notify trigger: %w", err)
		}
	}
	return nil
}
