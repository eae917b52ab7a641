package main

import (
	"go.uber.org/fx"

	"github.com/andrasnagy-data/feedback/internal/components/feedback"
	"github.com/andrasnagy-data/feedback/internal/components/users"
	"github.com/andrasnagy-data/feedback/internal/server"
	"github.com/andrasnagy-data/feedback/internal/shared/config"
	"github.com/andrasnagy-data/feedback/internal/shared/database"
	"github.com/andrasnagy-data/feedback/internal/shared/logging"
	"github.com/andrasnagy-data/feedback/internal/shared/render"
	"github.com/andrasnagy-data/feedback/internal/shared/session"
)

// asRoutes provides a component router into the server's route group.
func asRoutes(constructor any) any {
	return fx.Annotate(
		constructor,
		fx.As(new(server.Routes)),
		fx.ResultTags(`group:"routes"`),
	)
}

func main() {
	fx.New(
		fx.Provide(
			config.NewConfig,
			logging.NewLogger,
			database.NewPgxPool,
			session.NewManager,
			render.NewRenderer,
			server.NewServer,
			server.NewHealthSrvc,
			server.NewHealthHandler,
			feedback.NewRepo,
			feedback.NewService,
			users.NewRepo,
			users.NewService,
			asRoutes(feedback.NewRouter),
			asRoutes(users.NewRouter),
		),
		fx.Invoke((*server.Server).Start),
	).Run()
}
