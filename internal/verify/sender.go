package verify

import (
	"context"
	"log/slog"

	"auth-service/internal/pkg/log"
	"auth-service/internal/pkg/redact"
)

type logSender struct{}

// NewLogSender — заглушка доставки для local/dev: пишет код в лог вместо
// отправки SMS. В прод-окружении подключается реальный SMS-шлюз.
func NewLogSender() Sender {
	return logSender{}
}

func (logSender) Send(ctx context.Context, phone, code string) error {
	log.From(ctx).Info("sms_code_issued",
		slog.String("phone", redact.Phone(phone)),
		slog.String("code", code),
	)

	return nil
}
