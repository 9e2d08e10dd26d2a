package models

// TokenPair — пара токенов, выдаваемая при регистрации/входе/ротации.
//
// Описание:
//   - AccessToken — короткоживущий JWT (kind=access) для доступа к API;
//   - RefreshToken — JWT (kind=refresh), одноразовый: предъявляется ровно один
//     раз для выпуска новой пары и при этом атомарно гасится в реестре сессий;
//   - TokenType — всегда "Bearer";
//   - ExpiresIn — срок действия access-токена в секундах.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// AuthResult — полный ответ операций аутентификации: пара токенов
// плюс публичная сводка пользователя.
type AuthResult struct {
	TokenPair
	User UserSummary `json:"user"`
}
