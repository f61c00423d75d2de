package main

import (
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/config"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/handlers"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/ws"
)

type Handlers struct {
	Auth   *handlers.AuthHandler
	Admin  *handlers.AdminHandler
	Health *handlers.HealthHandler
	WS     *ws.Handler
}

func initHandlers(cfg *config.Config, repos *Repositories, svcs *Services, limiters *RateLimiters, hub *ws.Hub) *Handlers {
	online := func() int { return len(hub.OnlineUserIDs()) }

	return &Handlers{
		Auth:   handlers.NewAuthHandler(svcs.Auth, limiters.Login),
		Admin:  handlers.NewAdminHandler(svcs.Admin),
		Health: handlers.NewHealthHandler(repos.DB.Conn, online),
		WS:     ws.NewHandler(hub, svcs.Auth, originAllowed(cfg.CORS.AllowedOrigins)),
	}
}
