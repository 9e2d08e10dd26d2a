package storage

import (
	"context"
	"errors"
	"time"

	"auth-service/internal/models"

	"github.com/google/uuid"
)

var (
	// ErrNotFound — запись не найдена (пользователь/сессия).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (email/phone/хэш токена).
	ErrAlreadyExists = errors.New("already exists")
)

// UserStorage выполняет операции над пользователями.
type UserStorage interface {
	// SaveUser создает нового пользователя.
	// Возвращает ErrAlreadyExists при конфликте email или phone.
	SaveUser(ctx context.Context, user *models.User) error
	// UserByIdentifier находит пользователя по точному совпадению
	// email ИЛИ phone (единое пространство идентификаторов).
	UserByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	// UserByEmail находит пользователя по email.
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	// UserByPhone находит пользователя по телефону.
	UserByPhone(ctx context.Context, phone string) (*models.User, error)
	// UserByID находит пользователя по ID.
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// SetPhoneVerified выставляет флаг подтверждённого телефона.
	// Возвращает ErrNotFound, если пользователь не существует.
	SetPhoneVerified(ctx context.Context, id uuid.UUID, verified bool) error
}

// SessionStorage — реестр активных refresh-сессий.
//
// Требование сериализуемости: мутации множества сессий одного пользователя
// не должны чередоваться так, чтобы погашенный или отозванный токен снова
// прошёл RedeemSession. Конкретные реализации обеспечивают это либо
// условным удалением на уровне SQL, либо пер-пользовательской блокировкой.
type SessionStorage interface {
	// SaveSession регистрирует новую активную сессию.
	SaveSession(ctx context.Context, session *models.Session) error
	// RedeemSession атомарно проверяет членство и удаляет сессию за один шаг.
	// Возвращает ErrNotFound, если токен не активен (уже погашен, отозван
	// или никогда не существовал). Из двух конкурентных вызовов с одним
	// токеном ровно один завершается без ошибки.
	RedeemSession(ctx context.Context, userID uuid.UUID, tokenHash string) error
	// RevokeSession удаляет сессию, если она есть; идемпотентна.
	RevokeSession(ctx context.Context, userID uuid.UUID, tokenHash string) error
	// RevokeAllSessions удаляет все сессии пользователя.
	// Возвращает ErrNotFound, если пользователь не существует.
	RevokeAllSessions(ctx context.Context, userID uuid.UUID) error
	// DeleteExpiredSessions удаляет все просроченные сессии.
	DeleteExpiredSessions(ctx context.Context, now time.Time) error
}

// Storage задает контракт работы с хранилищем.
type Storage interface {
	UserStorage
	SessionStorage
	Close()
}
