package app

import (
	httpMW "github.com/yungbote/codecompanion-backend/internal/http/middleware"
	"github.com/yungbote/codecompanion-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

func wireMiddleware(log *logger.Logger, serviceset Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, serviceset.Tokens),
	}
}
