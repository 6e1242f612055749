package setup

import (
	"github.com/itchan-dev/userhub/internal/config"
	"github.com/itchan-dev/userhub/internal/handler"
	"github.com/itchan-dev/userhub/internal/jwt"
	"github.com/itchan-dev/userhub/internal/middleware"
	"github.com/itchan-dev/userhub/internal/service"
	"github.com/itchan-dev/userhub/internal/storage/pg"
)

// Dependencies struct to hold all initialized dependencies.
type Dependencies struct {
	Config         *config.Config
	Storage        *pg.Storage
	Handler        *handler.Handler
	Jwt            jwt.TokenService
	AuthMiddleware *middleware.Auth
}

// SetupDependencies initializes all dependencies required for the application.
func SetupDependencies(cfg *config.Config) (*Dependencies, error) {
	storage, err := pg.New(cfg)
	if err != nil {
		return nil, err
	}

	jwtService := jwt.New(cfg.JwtKey(), cfg.Public.JwtIssuer, cfg.Public.JwtAudience, cfg.JwtTTL())
	auth := service.NewAuth(storage, jwtService)
	h := handler.New(auth, cfg)
	authMw := middleware.NewAuth(jwtService)

	return &Dependencies{
		Config:         cfg,
		Storage:        storage,
		Handler:        h,
		Jwt:            jwtService,
		AuthMiddleware: authMw,
	}, nil
}
