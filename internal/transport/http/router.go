// transport/http собирает HTTP-роутер auth-service: REST-эндпоинты
// аутентификации поверх chi с подключёнными мидлварами.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"auth-service/internal/ratelimit"
	"auth-service/internal/service"
	"auth-service/internal/transport/http/handlers"
	"auth-service/internal/transport/http/middleware"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger  *slog.Logger
	Timeout time.Duration
	// GlobalLimiter ограничивает общий поток запросов на сервис;
	// AuthLimiter — отдельный, более строгий лимит на чувствительные
	// эндпоинты (login/signup/refresh и операции с кодами). nil отключает
	// соответствующий лимит.
	GlobalLimiter ratelimit.Limiter
	AuthLimiter   ratelimit.Limiter
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc *service.Service, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
		middleware.Metrics(),            // счётчики/гистограммы по маршрутам
		middleware.RateLimit(opts.GlobalLimiter),
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout)) // общий дедлайн запроса
	}

	h := handlers.New(svc)

	// Чувствительные эндпоинты: строгий лимит против перебора паролей и кодов.
	root.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(opts.AuthLimiter))

		r.Post("/auth/signup", h.SignupUser)
		r.Post("/auth/login", h.LoginUser)
		r.Post("/auth/refresh", h.RefreshTokens)
		r.Post("/auth/request-code", h.RequestPhoneCode)
		r.Post("/auth/verify-phone", h.VerifyPhone)
	})

	// Защищённые маршруты: требуют валидный access-токен.
	root.Group(func(r chi.Router) {
		r.Use(middleware.AuthBearer(svc))

		r.Post("/auth/logout", h.Logout)
		r.Post("/auth/logout-all", h.LogoutAll)
	})

	return root
}
