package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"auth-service/internal/config"
	"auth-service/internal/models"
	"auth-service/internal/storage"
	"auth-service/internal/tokens"
	"auth-service/mocks"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testAuthCfg() config.AuthConfig {
	return config.AuthConfig{
		AccessSecret:  "unit-access-secret",
		RefreshSecret: "unit-refresh-secret",
		Issuer:        "auth-service",
		BcryptCost:    bcrypt.MinCost,
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
	}
}

type svcMocks struct {
	storage *mocks.MockStorage
	codes   *mocks.MockCodeStore
	sms     *mocks.MockSender
	codec   *tokens.Codec
}

func newSvc(t *testing.T) (*Service, svcMocks, *gomock.Controller) {
	t.Helper()
	ctrl := gomock.NewController(t)

	cfg := testAuthCfg()
	m := svcMocks{
		storage: mocks.NewMockStorage(ctrl),
		codes:   mocks.NewMockCodeStore(ctrl),
		sms:     mocks.NewMockSender(ctrl),
		codec:   tokens.New(cfg),
	}

	svc := New(m.storage, m.codec, m.codes, m.sms, cfg, config.VerifyConfig{CodeTTL: 10 * time.Minute})
	return svc, m, ctrl
}

func mustHashPW(t *testing.T, pw string) string {
	t.Helper()
	h, err := hashPassword(pw, bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func validSignup() SignupInput {
	return SignupInput{
		FirstName: "Ivan",
		LastName:  "Petrov",
		Email:     "User@Example.com",
		Phone:     "+79991234567",
		Password:  "secret1",
	}
}

func TestSignupUser_OK(t *testing.T) {
	t.Parallel()

	svc, m, ctrl := newSvc(t)
	defer ctrl.Finish()

	norm := "user@example.com"

	m.storage.EXPECT().UserByEmail(gomock.Any(), norm).Return(nil, storage.ErrNotFound)
	m.storage.EXPECT().UserByPhone(gomock.Any(), "+79991234567").Return(nil, storage.ErrNotFound)
	m.storage.EXPECT().SaveUser(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, u *models.User) error {
			require.Equal(t, norm, u.Email)
			require.False(t, u.PhoneVerified)
			require.Equal(t, []string{models.RoleUser}, u.Roles)
			return nil
		})
	m.codes.EXPECT().Save(gomock.Any(), "+79991234567", gomock.Any(), 10*time.Minute).Return(nil)
	m.sms.EXPECT().Send(gomock.Any(), "+79991234567", gomock.Any()).Return(nil)
	m.storage.EXPECT().SaveSession(gomock.Any(), gomock.Any()).Return(nil)

	res, err := svc.SignupUser(context.Background(), validSignup())
	require.NoError(t, err)
	require.NotEmpty(t, res.AccessToken)
	require.NotEmpty(t, res.RefreshToken)
	require.Equal(t, "Bearer", res.TokenType)
	require.Equal(t, int64(900), res.ExpiresIn)
	require.Equal(t, "Ivan", res.User.FirstName)
}

func TestSignupUser_ValidationErrors(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	cases := []struct {
		name   string
		mutate func(*SignupInput)
		want   error
	}{
		{"empty_first_name", func(in *SignupInput) { in.FirstName = "  " }, ErrEmptyName},
		{"empty_last_name", func(in *SignupInput) { in.LastName = "" }, ErrEmptyName},
		{"bad_email", func(in *SignupInput) { in.Email = "not-an-email" }, ErrInvalidEmail},
		{"bad_phone_no_plus", func(in *SignupInput) { in.Phone = "79991234567" }, ErrInvalidPhone},
		{"bad_phone_letters", func(in *SignupInput) { in.Phone = "+7999abc" }, ErrInvalidPhone},
		{"short_password", func(in *SignupInput) { in.Password = "12345" }, ErrWeakPassword},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			in := validSignup()
			tc.mutate(&in)

			_, err := svc.SignupUser(context.Background(), in)
			require.Error(t, err)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestSignupUser_EmailOrPhoneTaken(t *testing.T) {
	t.Parallel()

	svc, m, ctrl := newSvc(t)
	defer ctrl.Finish()

	// Занят email.
	m.storage.EXPECT().UserByEmail(gomock.Any(), "user@example.com").
		Return(&models.User{ID: uuid.New()}, nil)

	_, err := svc.SignupUser(context.Background(), validSignup())
	require.Error(t, err)
	require.ErrorIs(t, err, ErrUserExists)

	// Занят телефон.
	m.storage.EXPECT().UserByEmail(gomock.Any(), "user@example.com").
		Return(nil, storage.ErrNotFound)
	m.storage.EXPECT().UserByPhone(gomock.Any(), "+79991234567").
		Return(&models.User{ID: uuid.New()}, nil)

	_, err = svc.SignupUser(context.Background(), validSignup())
	require.Error(t, err)
	require.ErrorIs(t, err, ErrUserExists)
}

func TestSignupUser_SaveUserRace_MapsToUserExists(t *testing.T) {
	t.Parallel()

	svc, m, ctrl := newSvc(t)
	defer ctrl.Finish()

	m.storage.EXPECT().UserByEmail(gomock.Any(), gomock.Any()).Return(nil, storage.ErrNotFound)
	m.storage.EXPECT().UserByPhone(gomock.Any(), gomock.Any()).Return(nil, storage.ErrNotFound)
	m.storage.EXPECT().SaveUser(gomock.Any(), gomock.Any()).Return(storage.ErrAlreadyExists)

	_, err := svc.SignupUser(context.Background(), validSignup())
	require.Error(t, err)
	require.ErrorIs(t, err, ErrUserExists)
}

func TestSignupUser_CodeDeliveryFailure_DoesNotFailSignup(t *testing.T) {
	t.Parallel()

	svc, m, ctrl := newSvc(t)
	defer ctrl.Finish()

	m.storage.EXPECT().UserByEmail(gomock.Any(), gomock.Any()).Return(nil, storage.ErrNotFound)
	m.storage.EXPECT().UserByPhone(gomock.Any(), gomock.Any()).Return(nil, storage.ErrNotFound)
	m.storage.EXPECT().SaveUser(gomock.Any(), gomock.Any()).Return(nil)
	m.codes.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("redis down"))
	m.storage.EXPECT().SaveSession(gomock.Any(), gomock.Any()).Return(nil)

	res, err := svc.SignupUser(context.Background(), validSignup())
	require.NoError(t, err)
	require.NotEmpty(t, res.AccessToken)
}

func TestLoginUser_OK_ByEmailAndByPhone(t *testing.T) {
	t.Parallel()

	svc, m, ctrl := newSvc(t)
	defer ctrl.Finish()

	pw := "secret1"
	user := &models.User{
		ID:            uuid.New(),
		Email:         "user@example.com",
		Phone:         "+79991234567",
		PasswordHash:  mustHashPW(t, pw),
		PhoneVerified: true,
		Roles:         []string{models.RoleUser},
	}

	m.storage.EXPECT().UserByIdentifier(gomock.Any(), "user@example.com").Return(user, nil)
	m.storage.EXPECT().SaveSession(gomock.Any(), gomock.Any()).Return(nil)

	res, err := svc.LoginUser(context.Background(), "User@Example.com", pw)
	require.NoError(t, err)
	require.NotEmpty(t, res.AccessToken)
	require.Equal(t, user.ID, res.User.ID)

	// По телефону идентификатор не нормализуется.
	m.storage.EXPECT().UserByIdentifier(gomock.Any(), "+79991234567").Return(user, nil)
	m.storage.EXPECT().SaveSession(gomock.Any(), gomock.Any()).Return(nil)

	res, err = svc.LoginUser(context.Background(), "+79991234567", pw)
	require.NoError(t, err)
	require.NotEmpty(t, res.RefreshToken)
}

func TestLoginUser_UnknownUser_OrWrongPassword(t *testing.T) {
	t.Parallel()

	svc, m, ctrl := newSvc(t)
	defer ctrl.Finish()

	m.storage.EXPECT().UserByIdentifier(gomock.Any(), "user@example.com").
		Return(nil, storage.ErrNotFound)

	_, err := svc.LoginUser(context.Background(), "user@example.com", "secret1")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidCredentials)

	user := &models.User{
		ID:            uuid.New(),
		PasswordHash:  mustHashPW(t, "secret1"),
		PhoneVerified: true,
	}
	m.storage.EXPECT().UserByIdentifier(gomock.Any(), "user@example.com").Return(user, nil)

	_, err = svc.LoginUser(context.Background(), "user@example.com", "WRONG")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUser_PhoneNotVerified_AfterPasswordCheck(t *testing.T) {
	t.Parallel()

	svc, m, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := &models.User{
		ID:            uuid.New(),
		PasswordHash:  mustHashPW(t, "secret1"),
		PhoneVerified: false,
	}

	// Верный пароль + неподтверждённый телефон -> ErrPhoneNotVerified.
	m.storage.EXPECT().UserByIdentifier(gomock.Any(), "user@example.com").Return(user, nil)

	_, err := svc.LoginUser(context.Background(), "user@example.com", "secret1")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrPhoneNotVerified)

	// Неверный пароль при неподтверждённом телефоне -> ErrInvalidCredentials:
	// ErrPhoneNotVerified не должен подтверждать чужую пару учётных данных.
	m.storage.EXPECT().UserByIdentifier(gomock.Any(), "user@example.com").Return(user, nil)

	_, err = svc.LoginUser(context.Background(), "user@example.com", "WRONG")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUser_EmptyInput(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	_, err := svc.LoginUser(context.Background(), "", "secret1")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.LoginUser(context.Background(), "user@example.com", "")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func mintRefresh(t *testing.T, m svcMocks, userID uuid.UUID) string {
	t.Helper()
	plain, err := m.codec.Mint(userID, []string{models.RoleUser}, models.KindRefresh, time.Now().UTC())
	require.NoError(t, err)
	return plain
}

func TestRefreshTokens_OK_RotatesPair(t *testing.T) {
	t.Parallel()

	svc, m, ctrl := newSvc(t)
	defer ctrl.Finish()

	userID := uuid.New()
	user := &models.User{ID: userID, PhoneVerified: true, Roles: []string{models.RoleUser}}
	plain := mintRefresh(t, m, userID)

	m.storage.EXPECT().UserByID(gomock.Any(), userID).Return(user, nil)
	m.storage.EXPECT().RedeemSession(gomock.Any(), userID, hashToken(plain)).Return(nil)
	m.storage.EXPECT().SaveSession(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, s *models.Session) error {
			require.Equal(t, userID, s.UserID)
			require.NotEqual(t, hashToken(plain), s.TokenHash)
			return nil
		})

	res, err := svc.RefreshTokens(context.Background(), plain)
	require.NoError(t, err)
	require.NotEmpty(t, res.AccessToken)
	require.NotEmpty(t, res.RefreshToken)
	require.NotEqual(t, plain, res.RefreshToken)
}

func TestRefreshTokens_NotActive_IsInvalidToken(t *testing.T) {
	t.Parallel()

	svc, m, ctrl := newSvc(t)
	defer ctrl.Finish()

	userID := uuid.New()
	plain := mintRefresh(t, m, userID)

	m.storage.EXPECT().UserByID(gomock.Any(), userID).
		Return(&models.User{ID: userID}, nil)
	m.storage.EXPECT().RedeemSession(gomock.Any(), userID, hashToken(plain)).
		Return(storage.ErrNotFound)

	_, err := svc.RefreshTokens(context.Background(), plain)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokens_GarbageOrAccessToken_IsInvalidToken(t *testing.T) {
	t.Parallel()

	svc, m, ctrl := newSvc(t)
	defer ctrl.Finish()

	_, err := svc.RefreshTokens(context.Background(), "not-a-jwt")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidToken)

	// Access-токен вместо refresh: другой секрет подписи -> невалиден.
	access, err := m.codec.Mint(uuid.New(), nil, models.KindAccess, time.Now().UTC())
	require.NoError(t, err)

	_, err = svc.RefreshTokens(context.Background(), access)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokens_Expired(t *testing.T) {
	t.Parallel()

	svc, m, ctrl := newSvc(t)
	defer ctrl.Finish()

	// Выпускаем refresh "в прошлом", чтобы он истёк с учётом leeway.
	plain, err := m.codec.Mint(uuid.New(), nil, models.KindRefresh,
		time.Now().UTC().Add(-25*time.Hour))
	require.NoError(t, err)

	_, err = svc.RefreshTokens(context.Background(), plain)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestRefreshTokens_InternalFaults_CollapseToTokenExpired(t *testing.T) {
	t.Parallel()

	svc, m, ctrl := newSvc(t)
	defer ctrl.Finish()

	userID := uuid.New()
	user := &models.User{ID: userID}

	// Сбой на чтении пользователя.
	plain := mintRefresh(t, m, userID)
	m.storage.EXPECT().UserByID(gomock.Any(), userID).Return(nil, errors.New("db down"))

	_, err := svc.RefreshTokens(context.Background(), plain)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrTokenExpired)

	// Сбой на погашении.
	m.storage.EXPECT().UserByID(gomock.Any(), userID).Return(user, nil)
	m.storage.EXPECT().RedeemSession(gomock.Any(), userID, gomock.Any()).
		Return(errors.New("db down"))

	_, err = svc.RefreshTokens(context.Background(), plain)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrTokenExpired)

	// Сбой на сохранении новой сессии.
	m.storage.EXPECT().UserByID(gomock.Any(), userID).Return(user, nil)
	m.storage.EXPECT().RedeemSession(gomock.Any(), userID, gomock.Any()).Return(nil)
	m.storage.EXPECT().SaveSession(gomock.Any(), gomock.Any()).Return(errors.New("db down"))

	_, err = svc.RefreshTokens(context.Background(), plain)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestLogout_Idempotent(t *testing.T) {
	t.Parallel()

	svc, m, ctrl := newSvc(t)
	defer ctrl.Finish()

	userID := uuid.New()
	plain := mintRefresh(t, m, userID)

	// Отзыв отсутствующей сессии storage трактует как успех.
	m.storage.EXPECT().RevokeSession(gomock.Any(), userID, hashToken(plain)).Return(nil).Times(2)

	require.NoError(t, svc.Logout(context.Background(), userID, plain))
	require.NoError(t, svc.Logout(context.Background(), userID, plain))
}

func TestLogout_StorageError_Propagated(t *testing.T) {
	t.Parallel()

	svc, m, ctrl := newSvc(t)
	defer ctrl.Finish()

	userID := uuid.New()
	m.storage.EXPECT().RevokeSession(gomock.Any(), userID, gomock.Any()).
		Return(errors.New("db down"))

	err := svc.Logout(context.Background(), userID, "whatever")
	require.Error(t, err)
}

func TestLogoutAll_OK_And_UserNotFound(t *testing.T) {
	t.Parallel()

	svc, m, ctrl := newSvc(t)
	defer ctrl.Finish()

	userID := uuid.New()

	m.storage.EXPECT().RevokeAllSessions(gomock.Any(), userID).Return(nil)
	require.NoError(t, svc.LogoutAll(context.Background(), userID))

	m.storage.EXPECT().RevokeAllSessions(gomock.Any(), userID).Return(storage.ErrNotFound)
	err := svc.LogoutAll(context.Background(), userID)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestValidateAccessToken_OK(t *testing.T) {
	t.Parallel()

	svc, m, ctrl := newSvc(t)
	defer ctrl.Finish()

	userID := uuid.New()
	access, err := m.codec.Mint(userID, []string{models.RoleUser}, models.KindAccess, time.Now().UTC())
	require.NoError(t, err)

	payload, err := svc.ValidateAccessToken(context.Background(), access)
	require.NoError(t, err)
	require.Equal(t, userID, payload.UserID)
	require.Equal(t, []string{models.RoleUser}, payload.Roles)
}

func TestValidateAccessToken_InvalidExpiredOrRefresh(t *testing.T) {
	t.Parallel()

	svc, m, ctrl := newSvc(t)
	defer ctrl.Finish()

	_, err := svc.ValidateAccessToken(context.Background(), "not-a-jwt")
	require.ErrorIs(t, err, ErrInvalidToken)

	expired, err := m.codec.Mint(uuid.New(), nil, models.KindAccess,
		time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)
	_, err = svc.ValidateAccessToken(context.Background(), expired)
	require.ErrorIs(t, err, ErrTokenExpired)

	refresh := mintRefresh(t, m, uuid.New())
	_, err = svc.ValidateAccessToken(context.Background(), refresh)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestCleanupExpiredSessions(t *testing.T) {
	t.Parallel()

	svc, m, ctrl := newSvc(t)
	defer ctrl.Finish()

	m.storage.EXPECT().DeleteExpiredSessions(gomock.Any(), gomock.Any()).Return(nil)
	require.NoError(t, svc.CleanupExpiredSessions(context.Background()))

	m.storage.EXPECT().DeleteExpiredSessions(gomock.Any(), gomock.Any()).
		Return(errors.New("db down"))
	require.Error(t, svc.CleanupExpiredSessions(context.Background()))
}
