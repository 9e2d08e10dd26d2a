package models

import (
	"time"

	"github.com/google/uuid"
)

// RoleUser — роль по умолчанию, назначаемая при регистрации.
const RoleUser = "user"

// User — модель пользователя в системе.
//
// Инварианты:
//   - Email и Phone глобально уникальны (обеспечивается хранилищем);
//   - Roles — снимок ролей на момент чтения; при выпуске токенов он
//     фиксируется в полезной нагрузке и не обновляется до истечения токена.
type User struct {
	ID            uuid.UUID
	FirstName     string
	LastName      string
	Email         string
	Phone         string
	PasswordHash  string
	PhoneVerified bool
	Roles         []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// UserSummary — публичное представление пользователя в ответах аутентификации.
type UserSummary struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Roles     []string  `json:"roles"`
}

// Summary возвращает публичную проекцию пользователя (без учётных данных).
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Roles:     u.Roles,
	}
}
