// tokens реализует кодек JWT для двух видов токенов (access/refresh).
//
// Основные аспекты:
//   - Каждый вид подписывается собственным секретом: компрометация одного
//     секрета не позволяет подделать токены другого вида;
//   - В полезной нагрузке есть дискриминатор "type", который проверяется при
//     каждой верификации — даже при общем секрете перекрёстное предъявление
//     токена отклоняется;
//   - Роли фиксируются в токене на момент выпуска и живут до истечения.
package tokens

import (
	"errors"
	"fmt"
	"time"

	"auth-service/internal/config"
	"auth-service/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken — токен некорректен по формату или подписи.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired — срок действия токена истёк.
	ErrTokenExpired = errors.New("token expired")
	// ErrKindMismatch — вид токена не совпадает с ожидаемым
	// (access предъявлен вместо refresh или наоборот).
	ErrKindMismatch = errors.New("token kind mismatch")
)

// Payload — проверенная полезная нагрузка токена.
type Payload struct {
	UserID    uuid.UUID
	Roles     []string
	Kind      models.TokenKind
	ExpiresAt time.Time
}

type claims struct {
	Roles []string `json:"roles"`
	Kind  string   `json:"type"`
	jwt.RegisteredClaims
}

// Codec подписывает и проверяет токены обоих видов.
type Codec struct {
	issuer     string
	accessKey  []byte
	refreshKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// New создаёт кодек из конфигурации аутентификации.
// Корректность секретов и TTL гарантируется валидацией config.Load.
func New(cfg config.AuthConfig) *Codec {
	return &Codec{
		issuer:     cfg.Issuer,
		accessKey:  []byte(cfg.AccessSecret),
		refreshKey: []byte(cfg.RefreshSecret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
	}
}

// TTL возвращает срок действия для вида токена.
func (c *Codec) TTL(kind models.TokenKind) time.Duration {
	if kind == models.KindRefresh {
		return c.refreshTTL
	}

	return c.accessTTL
}

// Mint выпускает подписанный токен вида kind с данными пользователя.
func (c *Codec) Mint(userID uuid.UUID, roles []string, kind models.TokenKind, now time.Time) (string, error) {
	const op = "tokens.Mint"

	if !kind.Valid() {
		return "", fmt.Errorf("%s: unknown token kind %q", op, kind)
	}

	cl := claims{
		Roles: roles,
		Kind:  string(kind),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.TTL(kind))),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, cl)
	signed, err := token.SignedString(c.secretFor(kind))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// Verify проверяет подпись, срок действия и вид токена.
// Ошибки: ErrTokenExpired — истёк; ErrKindMismatch — подпись верна, но токен
// другого вида; ErrInvalidToken — всё остальное.
func (c *Codec) Verify(raw string, want models.TokenKind) (*Payload, error) {
	const op = "tokens.Verify"

	if !want.Valid() {
		return nil, fmt.Errorf("%s: unknown token kind %q", op, want)
	}

	token, err := jwt.ParseWithClaims(raw, &claims{},
		func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
			}

			return c.secretFor(want), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(5*time.Second),
		jwt.WithIssuer(c.issuer),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%s: %w", op, ErrTokenExpired)
		}

		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	cl, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if models.TokenKind(cl.Kind) != want {
		return nil, fmt.Errorf("%s: %w", op, ErrKindMismatch)
	}

	uid, err := uuid.Parse(cl.Subject)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return &Payload{
		UserID:    uid,
		Roles:     cl.Roles,
		Kind:      want,
		ExpiresAt: cl.ExpiresAt.Time,
	}, nil
}

func (c *Codec) secretFor(kind models.TokenKind) []byte {
	if kind == models.KindRefresh {
		return c.refreshKey
	}

	return c.accessKey
}
