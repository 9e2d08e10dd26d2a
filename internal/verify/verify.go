// verify содержит коллаборатора подтверждения телефона: генерацию
// одноразовых кодов, их хранение с TTL и канал доставки (SMS).
//
// Код генерируется случайно, живёт ограниченное время и гасится при
// успешном совпадении — фиксированных кодов в продакшн-контуре нет.
package verify

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"
)

// CodeLen — длина кода подтверждения в цифрах.
const CodeLen = 6

// CodeStore хранит выданные коды подтверждения по телефону.
type CodeStore interface {
	// Save сохраняет код с TTL; повторная выдача перезаписывает старый код.
	Save(ctx context.Context, phone, code string, ttl time.Duration) error
	// Consume сравнивает предъявленный код с сохранённым и при совпадении
	// гасит его (одноразовость). Возвращает true только при совпадении.
	Consume(ctx context.Context, phone, code string) (bool, error)
	// Close освобождает ресурсы хранилища.
	Close() error
}

// Sender доставляет код владельцу телефона. Реальная реализация — внешний
// SMS-шлюз; в dev-окружении используется логирующая заглушка.
type Sender interface {
	Send(ctx context.Context, phone, code string) error
}

// GenerateCode возвращает случайный код из CodeLen десятичных цифр.
func GenerateCode() (string, error) {
	const op = "verify.GenerateCode"

	max := big.NewInt(1)
	for i := 0; i < CodeLen; i++ {
		max.Mul(max, big.NewInt(10))
	}

	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return fmt.Sprintf("%0*d", CodeLen, n), nil
}

// equalCodes — сравнение кодов за постоянное время.
func equalCodes(a, b string) bool {
	return len(a) == len(b) && subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
