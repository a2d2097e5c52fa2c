package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"servicepulse/backend/internal/models"
	"servicepulse/backend/internal/storage"
)

func newSQLiteStore(t *testing.T) *storage.GormStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	s, err := storage.NewGormStore(db)
	require.NoError(t, err)
	return s
}

func TestGormStore_LoadMissingCollection(t *testing.T) {
	s := newSQLiteStore(t)

	raw, ok, err := s.Load(context.Background(), storage.Complaints)

	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, raw)
}

func TestGormStore_SaveUpsertsSingleRow(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	require.NoError(t, s.Save(ctx, storage.Complaints, []byte(`[{"id":"c1"}]`)))
	require.NoError(t, s.Save(ctx, storage.Complaints, []byte(`[{"id":"c1"},{"id":"c2"}]`)))

	var count int64
	require.NoError(t, s.DB.Model(&models.CollectionRecord{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	got := storage.ReadList[models.Complaint](ctx, s, storage.Complaints)
	require.Len(t, got, 2)
	assert.Equal(t, models.FlexID("c2"), got[1].ID)
}
