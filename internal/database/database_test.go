package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/emilythestrangee/feedgraph/backend/internal/models"
)

func TestOpenSqliteAndMigrate(t *testing.T) {
	db := NewTestDB(t)

	require.NoError(t, db.Create(&models.SensitiveWord{Word: "kotu"}).Error)
	err := db.Create(&models.SensitiveWord{Word: "kotu"}).Error
	assert.Error(t, err, "word is unique")

	require.NoError(t, db.Create(&models.PollVote{PollID: 1, OptionID: 1, UserID: 7}).Error)
	err = db.Create(&models.PollVote{PollID: 1, OptionID: 2, UserID: 7}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestHealth(t *testing.T) {
	svc, err := Open(context.Background(), "sqlite://"+t.TempDir()+"/health.sqlite", nil)
	require.NoError(t, err)
	defer svc.Close()

	stats := svc.Health(context.Background())
	assert.Equal(t, "up", stats["status"])
	assert.Contains(t, stats, "open_connections")
}

func TestMigrateThreadRootAuthorIndex(t *testing.T) {
	db := NewTestDB(t)

	require.True(t, db.Migrator().HasIndex(&models.Post{}, "idx_posts_thread_root_author"))
	indexes, err := db.Migrator().GetIndexes(&models.Post{})
	require.NoError(t, err)
	var columns []string
	for _, idx := range indexes {
		if idx.Name() == "idx_posts_thread_root_author" {
			columns = idx.Columns()
		}
	}
	assert.Equal(t, []string{"thread_root_id", "author_id"}, columns)
}
