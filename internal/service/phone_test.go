package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"auth-service/internal/models"
	"auth-service/internal/storage"
	"auth-service/internal/verify"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const testPhone = "+79991234567"

func TestRequestPhoneCode_OK(t *testing.T) {
	t.Parallel()

	svc, m, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := &models.User{ID: uuid.New(), Phone: testPhone, PhoneVerified: false}

	var issued string
	m.storage.EXPECT().UserByPhone(gomock.Any(), testPhone).Return(user, nil)
	m.codes.EXPECT().Save(gomock.Any(), testPhone, gomock.Any(), 10*time.Minute).DoAndReturn(
		func(_ context.Context, _ string, code string, _ time.Duration) error {
			require.Len(t, code, verify.CodeLen)
			issued = code
			return nil
		})
	m.sms.EXPECT().Send(gomock.Any(), testPhone, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, code string) error {
			require.Equal(t, issued, code)
			return nil
		})

	require.NoError(t, svc.RequestPhoneCode(context.Background(), testPhone))
}

func TestRequestPhoneCode_Errors(t *testing.T) {
	t.Parallel()

	svc, m, ctrl := newSvc(t)
	defer ctrl.Finish()

	// Непохожий на телефон идентификатор.
	err := svc.RequestPhoneCode(context.Background(), "not-a-phone")
	require.ErrorIs(t, err, ErrInvalidPhone)

	// Неизвестный телефон.
	m.storage.EXPECT().UserByPhone(gomock.Any(), testPhone).Return(nil, storage.ErrNotFound)
	err = svc.RequestPhoneCode(context.Background(), testPhone)
	require.ErrorIs(t, err, ErrUserNotFound)

	// Телефон уже подтверждён.
	m.storage.EXPECT().UserByPhone(gomock.Any(), testPhone).
		Return(&models.User{ID: uuid.New(), PhoneVerified: true}, nil)
	err = svc.RequestPhoneCode(context.Background(), testPhone)
	require.ErrorIs(t, err, ErrPhoneAlreadyVerified)

	// Сбой доставки пробрасывается: запрос кода — явная операция.
	m.storage.EXPECT().UserByPhone(gomock.Any(), testPhone).
		Return(&models.User{ID: uuid.New()}, nil)
	m.codes.EXPECT().Save(gomock.Any(), testPhone, gomock.Any(), gomock.Any()).Return(nil)
	m.sms.EXPECT().Send(gomock.Any(), testPhone, gomock.Any()).Return(errors.New("gateway down"))
	require.Error(t, svc.RequestPhoneCode(context.Background(), testPhone))
}

func TestVerifyPhone_OK(t *testing.T) {
	t.Parallel()

	svc, m, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := &models.User{ID: uuid.New(), Phone: testPhone, PhoneVerified: false}

	m.codes.EXPECT().Consume(gomock.Any(), testPhone, "123456").Return(true, nil)
	m.storage.EXPECT().UserByPhone(gomock.Any(), testPhone).Return(user, nil)
	m.storage.EXPECT().SetPhoneVerified(gomock.Any(), user.ID, true).Return(nil)

	msg, err := svc.VerifyPhone(context.Background(), testPhone, "123456")
	require.NoError(t, err)
	require.NotEmpty(t, msg)
}

func TestVerifyPhone_WrongOrExpiredCode(t *testing.T) {
	t.Parallel()

	svc, m, ctrl := newSvc(t)
	defer ctrl.Finish()

	m.codes.EXPECT().Consume(gomock.Any(), testPhone, "000000").Return(false, nil)

	_, err := svc.VerifyPhone(context.Background(), testPhone, "000000")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidVerificationCode)
}

func TestVerifyPhone_UserNotFound_And_AlreadyVerified(t *testing.T) {
	t.Parallel()

	svc, m, ctrl := newSvc(t)
	defer ctrl.Finish()

	m.codes.EXPECT().Consume(gomock.Any(), testPhone, "123456").Return(true, nil)
	m.storage.EXPECT().UserByPhone(gomock.Any(), testPhone).Return(nil, storage.ErrNotFound)

	_, err := svc.VerifyPhone(context.Background(), testPhone, "123456")
	require.ErrorIs(t, err, ErrUserNotFound)

	m.codes.EXPECT().Consume(gomock.Any(), testPhone, "123456").Return(true, nil)
	m.storage.EXPECT().UserByPhone(gomock.Any(), testPhone).
		Return(&models.User{ID: uuid.New(), PhoneVerified: true}, nil)

	_, err = svc.VerifyPhone(context.Background(), testPhone, "123456")
	require.ErrorIs(t, err, ErrPhoneAlreadyVerified)
}

func TestVerifyPhone_CodeStoreError_Propagated(t *testing.T) {
	t.Parallel()

	svc, m, ctrl := newSvc(t)
	defer ctrl.Finish()

	m.codes.EXPECT().Consume(gomock.Any(), testPhone, "123456").
		Return(false, errors.New("redis down"))

	_, err := svc.VerifyPhone(context.Background(), testPhone, "123456")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrInvalidVerificationCode)
}
