package app_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"servicepulse/backend/internal/app"
	"servicepulse/backend/internal/auth"
	"servicepulse/backend/internal/complaint"
	"servicepulse/backend/internal/config"
	"servicepulse/backend/internal/models"
)

func testConfig(driver, dsn string) *config.Config {
	return &config.Config{
		Storage:   config.StorageConfig{Driver: driver, DSN: dsn},
		Broadcast: config.BroadcastConfig{Driver: "none"},
		Auth:      config.AuthConfig{JWTSecret: "s3cret", Issuer: "servicepulse", BcryptCost: 4},
	}
}

func TestBuild_MemoryStore(t *testing.T) {
	a, err := app.Build(context.Background(), testConfig("memory", ""), app.Options{WithBot: true})
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.DB)
	assert.Nil(t, a.Redis)
	assert.Nil(t, a.Bot, "no token configured")
	assert.True(t, a.Policy.Allowed(models.RoleSecretary, auth.ResourceOrders, auth.ActionCreate))

	ctx := context.Background()
	_, err = a.Auth.Signup(ctx, auth.SignupInput{
		Name: "Asha", Email: "asha@example.com", Password: "hunter22", Role: models.RoleResident,
	})
	require.NoError(t, err)

	c, err := a.Complaints.Submit(ctx, models.Identity{Role: models.RoleResident, Email: "asha@example.com"},
		complaint.SubmitInput{Title: "Leak", Description: "Tap drips", Block: "A", Apartment: "101"})
	require.NoError(t, err)
	assert.Len(t, a.Complaints.ListForResident(ctx, models.Identity{Email: "asha@example.com"}), 1)
	assert.Equal(t, "Other", c.Category)
}

func TestBuild_SQLiteStoreSharesPolicyDatabase(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "sp.db")

	a, err := app.Build(context.Background(), testConfig("sqlite", dsn), app.Options{})
	require.NoError(t, err)
	require.NotNil(t, a.DB)

	var rules int64
	require.NoError(t, a.DB.Table("casbin_rule").Count(&rules).Error)
	assert.Positive(t, rules)
	require.NoError(t, a.Close())
}

func TestBuild_RejectsUnknownDrivers(t *testing.T) {
	_, err := app.Build(context.Background(), testConfig("floppy", ""), app.Options{})
	assert.Error(t, err)

	cfg := testConfig("memory", "")
	cfg.Broadcast.Driver = "carrier-pigeon"
	_, err = app.Build(context.Background(), cfg, app.Options{})
	assert.Error(t, err)
}
