package fx

import (
	"github.com/ibrahim-qi/sesh-app/internal/auth"
	"github.com/ibrahim-qi/sesh-app/internal/config"
	"github.com/ibrahim-qi/sesh-app/internal/database"
	"github.com/ibrahim-qi/sesh-app/internal/events"
	"github.com/ibrahim-qi/sesh-app/internal/logger"
	"github.com/ibrahim-qi/sesh-app/internal/notify"
	"github.com/ibrahim-qi/sesh-app/internal/repository"
	"github.com/ibrahim-qi/sesh-app/internal/server"
	"github.com/ibrahim-qi/sesh-app/internal/service"

	"go.uber.org/fx"
)

// ProvideRecapNotifier hands the webhook client to the scoring service.
func ProvideRecapNotifier(c *notify.WebhookClient) service.RecapNotifier {
	return c
}

var Module = fx.Options(
	config.Module,
	fx.Provide(logger.New),
	fx.Provide(database.New),
	// repos
	fx.Provide(repository.NewTransactor),
	fx.Provide(repository.NewGroupRepository),
	fx.Provide(repository.NewMemberRepository),
	fx.Provide(repository.NewSessionRepository),
	fx.Provide(repository.NewGameRepository),
	fx.Provide(repository.NewScoreEventRepository),
	// auth
	fx.Provide(auth.NewTokenIssuer),
	fx.Provide(auth.NewSetupGate),
	// fan-out and outbound
	fx.Provide(events.NewBroker),
	fx.Provide(notify.NewWebhookClient),
	fx.Provide(ProvideRecapNotifier),
	// svc
	fx.Provide(service.SystemClock),
	fx.Provide(service.NewSquadService),
	fx.Provide(service.NewRosterService),
	fx.Provide(service.NewSessionService),
	fx.Provide(service.NewStatsService),
	fx.Provide(service.NewScoringService),
	// server
	fx.Provide(server.NewServer),
)
