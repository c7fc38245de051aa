package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB connects to TEST_DATABASE_URL and empties the tables, or skips.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	connStr := os.Getenv("TEST_DATABASE_URL")
	if connStr == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := Open(connStr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.sql.Exec("TRUNCATE plants, sessions;")
	require.NoError(t, err)
	return db
}

func TestPlantRepository(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	species := "Nephrolepis exaltata"
	older := time.Now().Add(-time.Hour)
	fern, err := db.CreatePlant(ctx, uuid.NewString(), "Fern", &species, older)
	require.NoError(t, err)
	assert.Equal(t, "Fern", fern.Name)
	require.NotNil(t, fern.Species)
	assert.Equal(t, species, *fern.Species)
	assert.Nil(t, fern.LastWatered)

	cactus, err := db.CreatePlant(ctx, uuid.NewString(), "Cactus", nil, time.Now())
	require.NoError(t, err)
	assert.Nil(t, cactus.Species)

	plants, err := db.ListPlants(ctx)
	require.NoError(t, err)
	require.Len(t, plants, 2)
	assert.Equal(t, cactus.ID, plants[0].ID, "newest first")
	assert.Equal(t, fern.ID, plants[1].ID)

	day := time.Date(2024, 6, 1, 23, 30, 0, 0, time.Local)
	watered, err := db.WaterPlant(ctx, fern.ID, day)
	require.NoError(t, err)
	require.NotNil(t, watered)
	require.NotNil(t, watered.LastWatered)
	assert.Equal(t, "2024-06-01", *watered.LastWatered)
	assert.Equal(t, "Fern", watered.Name)

	updated, err := db.UpdatePlant(ctx, fern.ID, "Boston Fern", nil)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "Boston Fern", updated.Name)
	assert.Nil(t, updated.Species)
	assert.Equal(t, "2024-06-01", *updated.LastWatered)

	missing := uuid.NewString()
	none, err := db.UpdatePlant(ctx, missing, "x", nil)
	require.NoError(t, err)
	assert.Nil(t, none)
	none, err = db.WaterPlant(ctx, missing, day)
	require.NoError(t, err)
	assert.Nil(t, none)

	ok, err := db.DeletePlant(ctx, missing)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = db.DeletePlant(ctx, cactus.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	plants, err = db.ListPlants(ctx)
	require.NoError(t, err)
	require.Len(t, plants, 1)
	assert.Equal(t, fern.ID, plants[0].ID)
}

func TestSessionRepository(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateSession(ctx, "live", "owner", time.Now().Add(time.Hour)))
	require.NoError(t, db.CreateSession(ctx, "stale", "owner", time.Now().Add(-time.Hour)))

	s, err := db.GetSession(ctx, "live")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "owner", s.Subject)

	require.NoError(t, db.DeleteExpiredSessions(ctx))
	s, err = db.GetSession(ctx, "stale")
	require.NoError(t, err)
	assert.Nil(t, s)

	require.NoError(t, db.DeleteSession(ctx, "live"))
	s, err = db.GetSession(ctx, "live")
	require.NoError(t, err)
	assert.Nil(t, s)
}
