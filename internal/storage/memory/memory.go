// memory — хранилище в памяти для тестов и локального запуска без БД.
// Повторяет контракт storage.Storage, включая требование сериализуемости
// мутаций сессий: множество сессий каждого пользователя защищено отдельным
// мьютексом, который удерживается на весь цикл «проверить-изменить».
// Межпользовательской блокировки нет.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"auth-service/internal/models"
	"auth-service/internal/storage"

	"github.com/google/uuid"
)

type userSessions struct {
	mu     sync.Mutex
	active map[string]models.Session
}

type Storage struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]models.User
	byEmail  map[string]uuid.UUID
	byPhone  map[string]uuid.UUID
	sessions map[uuid.UUID]*userSessions
}

// New создаёт пустое хранилище.
func New() *Storage {
	return &Storage{
		users:    make(map[uuid.UUID]models.User),
		byEmail:  make(map[string]uuid.UUID),
		byPhone:  make(map[string]uuid.UUID),
		sessions: make(map[uuid.UUID]*userSessions),
	}
}

// SaveUser создает нового пользователя.
// Проверка уникальности и вставка выполняются под одной блокировкой —
// аналог уникальных ограничений БД для гонки конкурентных регистраций.
func (s *Storage) SaveUser(_ context.Context, user *models.User) error {
	const op = "storage.memory.SaveUser"

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[user.Email]; ok {
		return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
	}
	if _, ok := s.byPhone[user.Phone]; ok {
		return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
	}
	if _, ok := s.users[user.ID]; ok {
		return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
	}

	s.users[user.ID] = cloneUser(user)
	s.byEmail[user.Email] = user.ID
	s.byPhone[user.Phone] = user.ID
	s.sessions[user.ID] = &userSessions{active: make(map[string]models.Session)}

	return nil
}

// UserByIdentifier находит пользователя по email ИЛИ телефону.
func (s *Storage) UserByIdentifier(_ context.Context, identifier string) (*models.User, error) {
	const op = "storage.memory.UserByIdentifier"

	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, ok := s.byEmail[identifier]; ok {
		u := s.users[id]
		return ptrUser(u), nil
	}
	if id, ok := s.byPhone[identifier]; ok {
		u := s.users[id]
		return ptrUser(u), nil
	}

	return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
}

// UserByEmail находит пользователя по email.
func (s *Storage) UserByEmail(_ context.Context, email string) (*models.User, error) {
	const op = "storage.memory.UserByEmail"

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	u := s.users[id]
	return ptrUser(u), nil
}

// UserByPhone находит пользователя по телефону.
func (s *Storage) UserByPhone(_ context.Context, phone string) (*models.User, error) {
	const op = "storage.memory.UserByPhone"

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byPhone[phone]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	u := s.users[id]
	return ptrUser(u), nil
}

// UserByID находит пользователя по ID.
func (s *Storage) UserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	const op = "storage.memory.UserByID"

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return ptrUser(u), nil
}

// SetPhoneVerified выставляет флаг подтверждённого телефона.
func (s *Storage) SetPhoneVerified(_ context.Context, id uuid.UUID, verified bool) error {
	const op = "storage.memory.SetPhoneVerified"

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	u.PhoneVerified = verified
	u.UpdatedAt = time.Now().UTC()
	s.users[id] = u

	return nil
}

// SaveSession регистрирует новую активную сессию.
func (s *Storage) SaveSession(_ context.Context, session *models.Session) error {
	const op = "storage.memory.SaveSession"

	us, err := s.bucket(session.UserID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	us.mu.Lock()
	defer us.mu.Unlock()

	if _, ok := us.active[session.TokenHash]; ok {
		return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
	}

	us.active[session.TokenHash] = *session

	return nil
}

// RedeemSession атомарно гасит сессию: членство проверяется и запись
// удаляется под одним пер-пользовательским мьютексом, поэтому из двух
// конкурентных вызовов с одним токеном успешен ровно один.
func (s *Storage) RedeemSession(_ context.Context, userID uuid.UUID, tokenHash string) error {
	const op = "storage.memory.RedeemSession"

	us, err := s.bucket(userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	us.mu.Lock()
	defer us.mu.Unlock()

	if _, ok := us.active[tokenHash]; !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	delete(us.active, tokenHash)

	return nil
}

// RevokeSession удаляет сессию, если она есть; идемпотентна.
func (s *Storage) RevokeSession(_ context.Context, userID uuid.UUID, tokenHash string) error {
	us, err := s.bucket(userID)
	if err != nil {
		// Отзыв для неизвестного пользователя — такой же no-op,
		// как и для отсутствующего токена.
		return nil
	}

	us.mu.Lock()
	defer us.mu.Unlock()

	delete(us.active, tokenHash)

	return nil
}

// RevokeAllSessions удаляет все сессии пользователя.
func (s *Storage) RevokeAllSessions(_ context.Context, userID uuid.UUID) error {
	const op = "storage.memory.RevokeAllSessions"

	us, err := s.bucket(userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	us.mu.Lock()
	defer us.mu.Unlock()

	us.active = make(map[string]models.Session)

	return nil
}

// DeleteExpiredSessions удаляет все просроченные сессии.
func (s *Storage) DeleteExpiredSessions(_ context.Context, now time.Time) error {
	s.mu.RLock()
	buckets := make([]*userSessions, 0, len(s.sessions))
	for _, us := range s.sessions {
		buckets = append(buckets, us)
	}
	s.mu.RUnlock()

	for _, us := range buckets {
		us.mu.Lock()
		for hash, sess := range us.active {
			if !sess.ExpiresAt.After(now) {
				delete(us.active, hash)
			}
		}
		us.mu.Unlock()
	}

	return nil
}

// Close — no-op для памяти.
func (s *Storage) Close() {}

// ActiveSessions возвращает число активных сессий пользователя (для тестов).
func (s *Storage) ActiveSessions(userID uuid.UUID) int {
	us, err := s.bucket(userID)
	if err != nil {
		return 0
	}

	us.mu.Lock()
	defer us.mu.Unlock()

	return len(us.active)
}

// bucket возвращает набор сессий пользователя.
func (s *Storage) bucket(userID uuid.UUID) (*userSessions, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	us, ok := s.sessions[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}

	return us, nil
}

func cloneUser(u *models.User) models.User {
	c := *u
	c.Roles = append([]string(nil), u.Roles...)
	return c
}

func ptrUser(u models.User) *models.User {
	c := u
	c.Roles = append([]string(nil), u.Roles...)
	return &c
}

// Проверка на соответствие интерфейсу Storage.
var _ storage.Storage = (*Storage)(nil)
