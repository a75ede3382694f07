package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"bizpilot/apperrors"
	"bizpilot/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testSecret = []byte("test-signing-secret")

func newTestService(t *testing.T) (*AuthService, *db.MemoryStore[db.User]) {
	t.Helper()
	store := db.NewMemoryStore[db.User]()
	svc := NewAuthService(db.NewUsersDB(store, nil), Config{
		Secret:     testSecret,
		TokenTTL:   time.Hour,
		BcryptCost: bcrypt.MinCost,
	})
	return svc, store
}

func TestSignupLoginVerify_RoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Signup(ctx, "a@x.com", "pw1"))

	token, err := svc.Login(ctx, "a@x.com", "pw1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	id, err := svc.Verify(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", id.Email)
}

func TestSignup_StoresHashAndTimestamp(t *testing.T) {
	svc, store := newTestService(t)
	fixed := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	require.NoError(t, svc.Signup(context.Background(), "  a@x.com ", "pw1"))

	users, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "a@x.com", users[0].Email)
	assert.Equal(t, "2024-05-01T09:30:00.000Z", users[0].CreatedAt)
	assert.NotEqual(t, "pw1", users[0].PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(users[0].PasswordHash), []byte("pw1")))
}

func TestSignup_Validation(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	for _, c := range [][2]string{
		{"", "pw"},
		{"a@x.com", ""},
		{"not-an-email", "pw"},
		{"a@x.com", strings.Repeat("p", 80)},
	} {
		err := svc.Signup(ctx, c[0], c[1])
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidationFailed), "%v -> %v", c, err)
	}
	assert.Equal(t, 0, store.Saves())
}

func TestSignup_LongestPasswordLogsIn(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	pw := strings.Repeat("p", 72)

	require.NoError(t, svc.Signup(ctx, "a@x.com", pw))
	token, err := svc.Login(ctx, "a@x.com", pw)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Signup(ctx, "a@x.com", "pw1"))
	before, _ := store.Load(ctx)

	err := svc.Signup(ctx, "a@x.com", "pw2")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeUserExists))
	assert.Equal(t, 400, apperrors.FromError(err).StatusCode)

	after, _ := store.Load(ctx)
	assert.Equal(t, before, after)
}

func TestLogin_Failures(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.Signup(ctx, "a@x.com", "pw1"))

	token, err := svc.Login(ctx, "a@x.com", "wrong")
	assert.Empty(t, token)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidCreds))

	token, err = svc.Login(ctx, "nobody@x.com", "pw1")
	assert.Empty(t, token)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeUserNotFound))

	_, err = svc.Login(ctx, "", "")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidationFailed))
}

func TestVerify_Failures(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Verify(ctx, "")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeMissingToken))
	assert.Equal(t, 401, apperrors.FromError(err).StatusCode)

	_, err = svc.Verify(ctx, "not.a.jwt")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidToken))

	foreign, err := GenerateToken("a@x.com", []byte("some-other-secret"), time.Hour)
	require.NoError(t, err)
	_, err = svc.Verify(ctx, foreign)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidToken))

	expired, err := GenerateToken("a@x.com", testSecret, -time.Minute)
	require.NoError(t, err)
	_, err = svc.Verify(ctx, expired)
	require.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidToken))
	assert.Equal(t, "expired", apperrors.FromError(err).Details["reason"])
}

func TestAdminGate(t *testing.T) {
	gate := NewAdminGate("boss-key")
	assert.True(t, gate.Check("boss-key"))
	assert.False(t, gate.Check("boss-kex"))
	assert.False(t, gate.Check(""))

	assert.False(t, NewAdminGate("").Check(""), "an unset key must never authorize")
}
