package models

// TokenKind — дискриминатор вида токена в полезной нагрузке JWT.
// Проверяется при каждой верификации: access-токен никогда не принимается
// там, где требуется refresh, и наоборот.
type TokenKind string

const (
	// KindAccess — короткоживущий stateless-токен для обычных запросов.
	KindAccess TokenKind = "access"
	// KindRefresh — одноразовый токен для выпуска новой пары;
	// отслеживается на сервере (SessionRegistry).
	KindRefresh TokenKind = "refresh"
)

// Valid сообщает, является ли значение известным видом токена.
func (k TokenKind) Valid() bool {
	return k == KindAccess || k == KindRefresh
}
