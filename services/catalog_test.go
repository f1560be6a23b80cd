package services

import (
	"testing"

	"progression-engine/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedDefaultsIsIdempotent(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, SeedDefaults(db))
	require.NoError(t, SeedDefaults(db))

	var tasks, targets, items int64
	require.NoError(t, db.Model(&models.TaskDefinition{}).Count(&tasks).Error)
	require.NoError(t, db.Model(&models.TargetDefinition{}).Count(&targets).Error)
	require.NoError(t, db.Model(&models.StoreItem{}).Count(&items).Error)

	assert.Equal(t, int64(5), tasks)
	assert.Equal(t, int64(2), targets)
	assert.Equal(t, int64(4), items)
}

func TestSeedNormalizesDisplayNames(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, SeedDefaults(db))

	var item models.StoreItem
	require.NoError(t, db.Where("slug = ?", "neon-badge").First(&item).Error)
	assert.Equal(t, "Neon Badge", item.Name)
}
