package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"servicepulse/backend/internal/apperr"
	"servicepulse/backend/internal/auth"
	"servicepulse/backend/internal/config"
	"servicepulse/backend/internal/models"
	"servicepulse/backend/internal/storage"
)

var authCfg = config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour, Issuer: "servicepulse"}

type MockRegistrar struct {
	mock.Mock
}

func (m *MockRegistrar) RegisterVendor(ctx context.Context, name, email, category string) (string, error) {
	args := m.Called(ctx, name, email, category)
	return args.String(0), args.Error(1)
}

func TestToken_RoundTrip(t *testing.T) {
	issuer := auth.NewTokenIssuer(authCfg)
	in := models.Identity{ID: "u1", Role: models.RoleVendor, Name: "Quick", Email: "q@example.com", VendorID: "v1"}

	token, err := issuer.Issue(in)
	require.NoError(t, err)

	out, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestToken_Rejections(t *testing.T) {
	issuer := auth.NewTokenIssuer(authCfg)
	token, err := issuer.Issue(models.Identity{ID: "u1", Role: models.RoleResident})
	require.NoError(t, err)

	other := auth.NewTokenIssuer(config.AuthConfig{JWTSecret: "other", Issuer: "servicepulse"})
	_, err = other.Parse(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = issuer.Parse(token + "x")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	expired := auth.NewTokenIssuer(config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Nanosecond, Issuer: "servicepulse"})
	stale, err := expired.Issue(models.Identity{ID: "u1", Role: models.RoleResident})
	require.NoError(t, err)
	time.Sleep(time.Second)
	_, err = expired.Parse(stale)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	forged, err := issuer.Issue(models.Identity{ID: "u1", Role: "admin"})
	require.NoError(t, err)
	_, err = issuer.Parse(forged)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestHasher(t *testing.T) {
	h := auth.NewHasher(bcrypt.MinCost)

	hash, err := h.Hash("s3cret!")
	require.NoError(t, err)

	assert.NoError(t, h.Compare(hash, "s3cret!"))
	assert.ErrorIs(t, h.Compare(hash, "wrong"), auth.ErrPasswordMismatch)
}

func TestPolicy_InMemory(t *testing.T) {
	p, err := auth.NewPolicy(nil)
	require.NoError(t, err)

	assert.True(t, p.Allowed(models.RoleSecretary, auth.ResourceOrders, auth.ActionCreate))
	assert.True(t, p.Allowed(models.RoleVendor, auth.ResourceJobs, auth.ActionUpdate))
	assert.True(t, p.Allowed(models.RoleResident, auth.ResourceRatings, auth.ActionCreate))
	assert.False(t, p.Allowed(models.RoleResident, auth.ResourceOrders, auth.ActionCreate))
	assert.False(t, p.Allowed(models.RoleVendor, auth.ResourceAnalytics, auth.ActionRead))
	assert.False(t, p.Allowed("", auth.ResourceComplaints, auth.ActionRead))
}

func TestPolicy_PersistsWithDatabase(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	_, err = auth.NewPolicy(db)
	require.NoError(t, err)

	// A second start loads the seeded rules instead of duplicating them.
	p, err := auth.NewPolicy(db)
	require.NoError(t, err)
	assert.True(t, p.Allowed(models.RoleSecretary, auth.ResourceAnalytics, auth.ActionRead))

	var count int64
	require.NoError(t, db.Table("casbin_rule").Count(&count).Error)
	assert.EqualValues(t, 14, count)
}

func newAuthService(t *testing.T, reg auth.VendorRegistrar) (*auth.Service, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	return auth.NewService(store, nil, auth.NewTokenIssuer(authCfg), auth.NewHasher(bcrypt.MinCost), reg), store
}

func TestSignupAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, store := newAuthService(t, nil)

	sess, err := svc.Signup(ctx, auth.SignupInput{
		Name: "Asha", Email: "Asha@Example.com", Password: "hunter22", Role: "resident", Apartment: "101", Block: "a",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.Empty(t, sess.User.PasswordHash)
	assert.Equal(t, "asha@example.com", sess.User.Email)
	assert.Equal(t, "A", sess.User.Block)

	stored := storage.ReadList[models.User](ctx, store, storage.Users)
	require.Len(t, stored, 1)
	assert.NotEqual(t, "hunter22", stored[0].PasswordHash)

	login, err := svc.Login(ctx, auth.LoginInput{Email: "ASHA@example.com", Password: "hunter22"})
	require.NoError(t, err)

	identity, err := svc.Authenticate(login.Token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleResident, identity.Role)
	assert.Equal(t, sess.User.ID, identity.ID)

	_, err = svc.Login(ctx, auth.LoginInput{Email: "asha@example.com", Password: "nope"})
	assert.True(t, apperr.Is(err, apperr.TypeUnauthorized))

	_, err = svc.Signup(ctx, auth.SignupInput{Name: "Dup", Email: "asha@example.com", Password: "hunter22", Role: "resident"})
	assert.True(t, apperr.Is(err, apperr.TypeConflict))
}

func TestSignup_Validation(t *testing.T) {
	svc, store := newAuthService(t, nil)

	_, err := svc.Signup(context.Background(), auth.SignupInput{Name: "X", Email: "x@example.com", Password: "123", Role: "admin"})
	assert.True(t, apperr.Is(err, apperr.TypeValidation))
	assert.Zero(t, store.Writes(storage.Users))
}

func TestSignup_VendorRegistersVendorRecord(t *testing.T) {
	ctx := context.Background()
	reg := &MockRegistrar{}
	reg.On("RegisterVendor", mock.Anything, "Quick", "quick@example.com", "Plumbing").Return("v_1", nil)
	svc, _ := newAuthService(t, reg)

	sess, err := svc.Signup(ctx, auth.SignupInput{
		Name: "Quick", Email: "quick@example.com", Password: "hunter22", Role: "vendor", Category: "Plumbing",
	})
	require.NoError(t, err)
	assert.Equal(t, "v_1", sess.User.VendorID)

	identity, err := svc.Authenticate(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, "v_1", identity.VendorID)
	reg.AssertExpectations(t)
}

func TestSignup_VendorRegistrationFailureStoresNothing(t *testing.T) {
	reg := &MockRegistrar{}
	reg.On("RegisterVendor", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", apperr.Conflict("vendor already registered"))
	svc, store := newAuthService(t, reg)

	_, err := svc.Signup(context.Background(), auth.SignupInput{Name: "Q", Email: "q@example.com", Password: "hunter22", Role: "vendor"})
	assert.True(t, apperr.Is(err, apperr.TypeConflict))
	assert.Zero(t, store.Writes(storage.Users))
}

func TestActiveIdentity(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthService(t, nil)

	_, ok := svc.Active(ctx)
	assert.False(t, ok)

	require.NoError(t, svc.SetActive(ctx, models.Identity{ID: "u1", Role: models.RoleSecretary}))
	identity, ok := svc.Active(ctx)
	require.True(t, ok)
	assert.Equal(t, models.RoleSecretary, identity.Role)
}
