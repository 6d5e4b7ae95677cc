package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "kavholm/internal/domain/auth"
	domainuser "kavholm/internal/domain/user"
	"kavholm/internal/infra/security"
	"kavholm/internal/infra/storage/memory"
)

func newService() *Service {
	return &Service{
		Users:      memory.NewUserRepository(),
		Sessions:   memory.NewSessionStore(),
		Passwords:  security.BcryptHasher{},
		Tokens:     security.RandomTokenGenerator{},
		SessionTTL: time.Hour,
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	result, err := svc.Register(ctx, RegisterParams{
		Username: "JLo",
		Email:    "JLO@Example.com",
		Name:     "Jennifer",
		Password: "supersecret",
	})
	require.NoError(t, err)
	assert.Equal(t, "jlo", result.User.Username)
	assert.Equal(t, "jlo@example.com", result.User.Email)
	assert.NotEmpty(t, result.Token)
	assert.NotEqual(t, "supersecret", result.User.PasswordHash)

	login, err := svc.Login(ctx, LoginParams{Username: "jlo", Password: "supersecret"})
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, login.User.ID)
}

func TestRegister_Rejections(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterParams{Username: "jlo", Email: "jlo@example.com", Password: "short"})
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	_, err = svc.Register(ctx, RegisterParams{Email: "jlo@example.com", Password: "supersecret"})
	assert.ErrorIs(t, err, domainuser.ErrUsernameRequired)

	_, err = svc.Register(ctx, RegisterParams{Username: "jlo", Email: "jlo@example.com", Password: "supersecret"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterParams{Username: "jlo", Email: "other@example.com", Password: "supersecret"})
	assert.ErrorIs(t, err, domainuser.ErrUsernameTaken)

	_, err = svc.Register(ctx, RegisterParams{Username: "other", Email: "jlo@example.com", Password: "supersecret"})
	assert.ErrorIs(t, err, domainuser.ErrEmailAlreadyUsed)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterParams{Username: "jlo", Email: "jlo@example.com", Password: "supersecret"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginParams{Username: "jlo", Password: "wrongpass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginParams{Username: "nobody", Password: "supersecret"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestResolveToken(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	result, err := svc.Register(ctx, RegisterParams{Username: "jlo", Email: "jlo@example.com", Password: "supersecret"})
	require.NoError(t, err)

	resolved, err := svc.ResolveToken(ctx, result.Token)
	require.NoError(t, err)
	assert.Equal(t, "jlo", resolved.User.Username)

	require.NoError(t, svc.Logout(ctx, result.Token))
	_, err = svc.ResolveToken(ctx, result.Token)
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)
}

func TestResolveToken_ExpiredSessionIsDropped(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	result, err := svc.Register(ctx, RegisterParams{Username: "jlo", Email: "jlo@example.com", Password: "supersecret"})
	require.NoError(t, err)

	expired, err := domainauth.NewSession(domainauth.CreateSessionParams{
		Token:  "stale-token",
		UserID: result.User.ID,
		TTL:    time.Minute,
		Now:    time.Now().Add(-2 * time.Hour),
	})
	require.NoError(t, err)
	require.NoError(t, svc.Sessions.Save(ctx, expired))

	_, err = svc.ResolveToken(ctx, "stale-token")
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)

	// The stale record is gone as well.
	_, err = svc.Sessions.Get(ctx, "stale-token")
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)
}
