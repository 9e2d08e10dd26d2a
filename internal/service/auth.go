package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"auth-service/internal/models"
	"auth-service/internal/storage"
	"auth-service/internal/tokens"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// minPasswordLen — минимальная длина пароля при регистрации.
const minPasswordLen = 6

// phoneRe допускает номера в свободном международном формате:
// обязательный '+', затем от 3 до 15 цифр.
var phoneRe = regexp.MustCompile(`^\+[0-9]{3,15}$`)

// SignupInput — входные данные регистрации.
type SignupInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Password  string
}

// SignupUser регистрирует нового пользователя и сразу выпускает пару токенов.
// Телефон при этом остаётся неподтверждённым: до подтверждения повторный вход
// по паролю будет отклонён (см. LoginUser). Код подтверждения отправляется
// best-effort — сбой отправки не откатывает регистрацию.
func (s *Service) SignupUser(ctx context.Context, in SignupInput) (*models.AuthResult, error) {
	const op = "service.auth.SignupUser"

	firstName := strings.TrimSpace(in.FirstName)
	lastName := strings.TrimSpace(in.LastName)
	if firstName == "" || lastName == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyName)
	}

	normEmail, err := validateEmail(in.Email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	normPhone, err := validatePhone(in.Phone)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidPhone)
	}

	if err := validatePassword(in.Password); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Предварительная проверка занятости даёт точную ошибку до дорогого
	// bcrypt-хэширования; гонки всё равно закрывает уникальный индекс в БД.
	if _, err := s.storage.UserByEmail(ctx, normEmail); err == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUserExists)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.storage.UserByPhone(ctx, normPhone); err == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUserExists)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hashedPassword, err := hashPassword(in.Password, s.auth.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:            uuid.New(),
		FirstName:     firstName,
		LastName:      lastName,
		Email:         normEmail,
		Phone:         normPhone,
		PasswordHash:  hashedPassword,
		PhoneVerified: false,
		Roles:         []string{models.RoleUser},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserExists)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.sendVerificationCode(ctx, user.Phone)

	return s.issueTokenPair(ctx, user)
}

// LoginUser выполняет вход по идентификатору (email или телефон) и паролю.
// Порядок проверок фиксирован: сначала пароль, затем подтверждённость
// телефона — ErrPhoneNotVerified подтверждает корректность пары и потому
// не должен возвращаться раньше проверки пароля.
func (s *Service) LoginUser(ctx context.Context, identifier, password string) (*models.AuthResult, error) {
	const op = "service.auth.LoginUser"

	identifier = strings.TrimSpace(identifier)
	if identifier == "" || len(password) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	user, err := s.storage.UserByIdentifier(ctx, normalizeIdentifier(identifier))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !checkPassword(user.PasswordHash, password) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if !user.PhoneVerified {
		return nil, fmt.Errorf("%s: %w", op, ErrPhoneNotVerified)
	}

	return s.issueTokenPair(ctx, user)
}

// RefreshTokens атомарно обменивает одноразовый refresh-токен на новую пару.
// Из двух конкурентных запросов с одним токеном успеет ровно один: погашение
// в реестре сессий условное, второй запрос получит ErrInvalidToken.
//
// Любой внутренний сбой после успешной проверки подписи (недоступность БД,
// ошибка выпуска новой пары) схлопывается в ErrTokenExpired: клиент в любом
// случае должен пройти повторный вход, а настоящая причина остаётся в цепочке
// ошибки для логов.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (*models.AuthResult, error) {
	const op = "service.auth.RefreshTokens"

	payload, err := s.codec.Verify(refreshToken, models.KindRefresh)
	if err != nil {
		switch {
		case errors.Is(err, tokens.ErrTokenExpired):
			return nil, fmt.Errorf("%s: %w", op, ErrTokenExpired)
		default:
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}
	}

	user, err := s.storage.UserByID(ctx, payload.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrTokenExpired, err)
	}

	if err := s.storage.RedeemSession(ctx, user.ID, hashToken(refreshToken)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}

		return nil, fmt.Errorf("%s: %w: %v", op, ErrTokenExpired, err)
	}

	result, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrTokenExpired, err)
	}

	return result, nil
}

// Logout отзывает предъявленный refresh-токен. Операция идемпотентна:
// отзыв уже отсутствующей сессии не является ошибкой.
func (s *Service) Logout(ctx context.Context, userID uuid.UUID, refreshToken string) error {
	const op = "service.auth.Logout"

	if err := s.storage.RevokeSession(ctx, userID, hashToken(refreshToken)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// LogoutAll отзывает все активные сессии пользователя.
func (s *Service) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	const op = "service.auth.LogoutAll"

	if err := s.storage.RevokeAllSessions(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ValidateAccessToken проверяет access-токен и возвращает его полезную нагрузку.
func (s *Service) ValidateAccessToken(_ context.Context, accessToken string) (*tokens.Payload, error) {
	const op = "service.auth.ValidateAccessToken"

	payload, err := s.codec.Verify(accessToken, models.KindAccess)
	if err != nil {
		switch {
		case errors.Is(err, tokens.ErrTokenExpired):
			return nil, fmt.Errorf("%s: %w", op, ErrTokenExpired)
		case errors.Is(err, tokens.ErrKindMismatch):
			return nil, fmt.Errorf("%s: %w", op, ErrKindMismatch)
		default:
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}
	}

	return payload, nil
}

// issueTokenPair выпускает пару access+refresh и регистрирует refresh-токен
// в реестре сессий. Если регистрация не удалась, пара наружу не отдаётся:
// незарегистрированный refresh-токен невозможно погасить.
func (s *Service) issueTokenPair(ctx context.Context, user *models.User) (*models.AuthResult, error) {
	const op = "service.auth.issueTokenPair"

	now := time.Now().UTC()

	accessToken, err := s.codec.Mint(user.ID, user.Roles, models.KindAccess, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	refreshToken, err := s.codec.Mint(user.ID, user.Roles, models.KindRefresh, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	session := &models.Session{
		TokenHash: hashToken(refreshToken),
		UserID:    user.ID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.codec.TTL(models.KindRefresh)),
	}

	if err := s.storage.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.AuthResult{
		TokenPair: models.TokenPair{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			TokenType:    "Bearer",
			ExpiresIn:    int64(s.codec.TTL(models.KindAccess) / time.Second),
		},
		User: user.Summary(),
	}, nil
}

// CleanupExpiredSessions удаляет из реестра сессии с истёкшим сроком.
// Вызывается периодическим джанитором; просроченные сессии и без того
// непогашаемы (подпись токена не пройдёт проверку), чистка лишь
// сдерживает рост таблицы.
func (s *Service) CleanupExpiredSessions(ctx context.Context) error {
	const op = "service.auth.CleanupExpiredSessions"

	if err := s.storage.DeleteExpiredSessions(ctx, time.Now().UTC()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// hashToken возвращает SHA-256 хэш токена в base64url без паддинга.
// В реестре сессий хранятся только хэши, исходные токены не сохраняются.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// hashPassword хэширует пароль bcrypt'ом с заданной стоимостью.
func hashPassword(password string, cost int) (string, error) {
	const op = "service.auth.hashPassword"

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(bytes), nil
}

// checkPassword сравнивает пароль с хэшем.
func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// validateEmail проверяет базовый формат email и обрезает пробелы снаружи.
func validateEmail(raw string) (string, error) {
	const op = "service.auth.validateEmail"

	email := strings.TrimSpace(raw)
	if email == "" {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	return strings.ToLower(email), nil
}

// validatePhone проверяет формат телефона.
func validatePhone(raw string) (string, error) {
	const op = "service.auth.validatePhone"

	phone := strings.TrimSpace(raw)
	if !phoneRe.MatchString(phone) {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidPhone)
	}

	return phone, nil
}

// validatePassword проверяет минимальные требования к паролю.
func validatePassword(pw string) error {
	const op = "service.auth.validatePassword"

	if len([]rune(pw)) < minPasswordLen {
		return fmt.Errorf("%s: %w", op, ErrWeakPassword)
	}

	return nil
}

// normalizeIdentifier приводит email-идентификаторы к нижнему регистру;
// телефоны не трогает.
func normalizeIdentifier(identifier string) string {
	if strings.Contains(identifier, "@") {
		return strings.ToLower(identifier)
	}

	return identifier
}
