// service содержит бизнес-логику auth-сервиса: регистрацию/аутентификацию
// пользователей, выпуск/ротацию/отзыв пар токенов и подтверждение телефона.
// Хранилище и коллабораторы потребляются через интерфейсы
// (storage.Storage, verify.CodeStore, verify.Sender).
//
// Основные аспекты:
//   - Пакет не хранит состояние запроса внутри Service; экземпляр Service
//     безопасен для конкурентного использования из разных горутин при условии,
//     что переданное хранилище потокобезопасно.
//   - Ошибки возвращаются сентинелами и далее маппятся транспортом на
//     HTTP-статусы (см. комментарии к переменным ниже).
package service

import (
	"errors"

	"auth-service/internal/config"
	"auth-service/internal/storage"
	"auth-service/internal/tokens"
	"auth-service/internal/verify"
)

var (
	// ErrInvalidCredentials — пара идентификатор/пароль неверна или
	// пользователь не найден. Наружу уходит единое сообщение: не раскрываем,
	// что именно не совпало. Транспорт: 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrPhoneNotVerified — пароль верен, но телефон не подтверждён.
	// Проверяется строго после пароля, чтобы не выдавать существование
	// аккаунта. Транспорт: 401.
	ErrPhoneNotVerified = errors.New("phone not verified")

	// ErrUserExists — email или телефон уже занят. Транспорт: 409.
	ErrUserExists = errors.New("user already exists")

	// ErrUserNotFound — пользователь не найден (logout-all, verify-phone).
	// Транспорт: 404.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidToken — токен некорректен по формату/подписи/виду или
	// не числится активным в реестре сессий. Транспорт: 401.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired — срок действия токена истёк; также единый ответ на
	// любой внутренний сбой при ротации (причина различима только в логах).
	// Транспорт: 401.
	ErrTokenExpired = errors.New("token expired")

	// ErrKindMismatch — предъявлен токен другого вида (refresh вместо
	// access или наоборот). Транспорт: 401.
	ErrKindMismatch = errors.New("token kind mismatch")

	// ErrInvalidVerificationCode — код подтверждения не совпал или истёк.
	// Транспорт: 400.
	ErrInvalidVerificationCode = errors.New("invalid verification code")

	// ErrPhoneAlreadyVerified — повторная попытка подтвердить телефон.
	// Явная ошибка, не тихий no-op. Транспорт: 400.
	ErrPhoneAlreadyVerified = errors.New("phone already verified")

	// ErrInvalidEmail — email имеет некорректный формат. Транспорт: 400.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrInvalidPhone — телефон имеет некорректный формат. Транспорт: 400.
	ErrInvalidPhone = errors.New("invalid phone format")

	// ErrWeakPassword — пароль короче минимальной длины. Транспорт: 400.
	ErrWeakPassword = errors.New("password is too weak")

	// ErrEmptyName — имя или фамилия не заданы. Транспорт: 400.
	ErrEmptyName = errors.New("name is empty")
)

// Service описывает бизнес-логику auth-сервиса.
type Service struct {
	storage storage.Storage
	codec   *tokens.Codec
	codes   verify.CodeStore
	sms     verify.Sender
	auth    config.AuthConfig
	verify  config.VerifyConfig
}

// New создаёт новый экземпляр Service.
func New(
	st storage.Storage,
	codec *tokens.Codec,
	codes verify.CodeStore,
	sms verify.Sender,
	authCfg config.AuthConfig,
	verifyCfg config.VerifyConfig,
) *Service {
	return &Service{
		storage: st,
		codec:   codec,
		codes:   codes,
		sms:     sms,
		auth:    authCfg,
		verify:  verifyCfg,
	}
}
