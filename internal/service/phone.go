package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"auth-service/internal/pkg/log"
	"auth-service/internal/pkg/redact"
	"auth-service/internal/storage"
	"auth-service/internal/verify"
)

// RequestPhoneCode генерирует новый код подтверждения, сохраняет его в
// хранилище кодов с TTL и отправляет на телефон. Повторный запрос
// перезаписывает прежний код.
func (s *Service) RequestPhoneCode(ctx context.Context, phone string) error {
	const op = "service.phone.RequestPhoneCode"

	normPhone, err := validatePhone(phone)
	if err != nil {
		return fmt.Errorf("%s: %w", op, ErrInvalidPhone)
	}

	user, err := s.storage.UserByPhone(ctx, normPhone)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if user.PhoneVerified {
		return fmt.Errorf("%s: %w", op, ErrPhoneAlreadyVerified)
	}

	code, err := verify.GenerateCode()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.codes.Save(ctx, normPhone, code, s.verify.CodeTTL); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.sms.Send(ctx, normPhone, code); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// VerifyPhone подтверждает телефон по одноразовому коду. Совпавший код
// гасится атомарно: повторное предъявление того же кода вернёт
// ErrInvalidVerificationCode.
func (s *Service) VerifyPhone(ctx context.Context, phone, code string) (string, error) {
	const op = "service.phone.VerifyPhone"

	normPhone, err := validatePhone(phone)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidPhone)
	}

	ok, err := s.codes.Consume(ctx, normPhone, code)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidVerificationCode)
	}

	user, err := s.storage.UserByPhone(ctx, normPhone)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	if user.PhoneVerified {
		return "", fmt.Errorf("%s: %w", op, ErrPhoneAlreadyVerified)
	}

	if err := s.storage.SetPhoneVerified(ctx, user.ID, true); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	return "phone verified successfully", nil
}

// sendVerificationCode отправляет код подтверждения best-effort: сбой
// генерации/сохранения/отправки логируется, но не прерывает вызывающую
// операцию.
func (s *Service) sendVerificationCode(ctx context.Context, phone string) {
	const op = "service.phone.sendVerificationCode"

	code, err := verify.GenerateCode()
	if err != nil {
		log.From(ctx).Warn("verification_code_send_failed",
			slog.String("op", op),
			slog.String("phone", redact.Phone(phone)),
			slog.String("error", err.Error()))
		return
	}

	if err := s.codes.Save(ctx, phone, code, s.verify.CodeTTL); err != nil {
		log.From(ctx).Warn("verification_code_send_failed",
			slog.String("op", op),
			slog.String("phone", redact.Phone(phone)),
			slog.String("error", err.Error()))
		return
	}

	if err := s.sms.Send(ctx, phone, code); err != nil {
		log.From(ctx).Warn("verification_code_send_failed",
			slog.String("op", op),
			slog.String("phone", redact.Phone(phone)),
			slog.String("error", err.Error()))
	}
}
