package models

import (
	"time"

	"github.com/google/uuid"
)

// Session — связка одного активного refresh-токена с пользователем.
//
// Описание:
//   - TokenHash — SHA-256 → base64url от строки refresh-токена; сам токен
//     на сервере не хранится;
//   - Создаётся при выпуске пары; уничтожается при погашении (ротации),
//     явном отзыве (logout) или отзыве всех сессий (logout-all);
//   - Просроченные записи отсекаются подписью JWT и дочищаются фоновой задачей.
type Session struct {
	TokenHash string
	UserID    uuid.UUID
	IssuedAt  time.Time
	ExpiresAt time.Time
}
