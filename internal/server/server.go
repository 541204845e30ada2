package server

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ibrahim-qi/sesh-app/internal/auth"
	"github.com/ibrahim-qi/sesh-app/internal/config"
	"github.com/ibrahim-qi/sesh-app/internal/events"
	"github.com/ibrahim-qi/sesh-app/internal/metrics"
	"github.com/ibrahim-qi/sesh-app/internal/middleware"
	"github.com/ibrahim-qi/sesh-app/internal/notify"
	"github.com/ibrahim-qi/sesh-app/internal/server/apierr"
	"github.com/ibrahim-qi/sesh-app/internal/service"
	"github.com/rs/zerolog"
)

// Server is the HTTP face of the squad, session and scoring services.
type Server struct {
	engine *gin.Engine

	cfg      *config.Config
	db       *sql.DB
	tokens   *auth.TokenIssuer
	squads   *service.SquadService
	roster   *service.RosterService
	sessions *service.SessionService
	scoring  *service.ScoringService
	stats    *service.StatsService
	broker   events.Broker
	webhook  *notify.WebhookClient
	logger   zerolog.Logger
}

func NewServer(
	cfg *config.Config,
	db *sql.DB,
	tokens *auth.TokenIssuer,
	squads *service.SquadService,
	roster *service.RosterService,
	sessions *service.SessionService,
	scoring *service.ScoringService,
	stats *service.StatsService,
	broker events.Broker,
	webhook *notify.WebhookClient,
	logger zerolog.Logger,
) (*Server, error) {
	if err := registerValidators(); err != nil {
		return nil, err
	}

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:      cfg,
		db:       db,
		tokens:   tokens,
		squads:   squads,
		roster:   roster,
		sessions: sessions,
		scoring:  scoring,
		stats:    stats,
		broker:   broker,
		webhook:  webhook,
		logger:   logger,
	}
	s.engine = s.routes()
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), metrics.GinMiddleware)

	r.GET("/healthz", s.Health)
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")
	api.POST("/squads", s.CreateSquad)
	api.GET("/squads/invite/:code", s.GetSquadByInvite)
	api.POST("/squads/invite/:code/join", s.Join)
	api.POST("/auth/login", s.Login)
	api.POST("/auth/logout", s.Logout)

	authed := api.Group("", middleware.Auth(s.tokens))
	authed.GET("/me", s.Me)
	authed.PATCH("/me", s.UpdateProfile)

	authed.GET("/squad", s.GetSquad)
	authed.PATCH("/squad", s.RenameSquad)
	authed.GET("/squad/members", s.ListMembers)
	authed.POST("/squad/members", s.AddMember)
	authed.DELETE("/squad/members/:memberId", s.RemoveMember)
	authed.PUT("/squad/members/:memberId/role", s.ChangeRole)

	authed.GET("/sessions", s.ListSessions)
	authed.POST("/sessions", s.ScheduleSession)
	authed.GET("/sessions/next", s.NextSession)
	authed.GET("/sessions/:id", s.GetSession)
	authed.DELETE("/sessions/:id", s.DeleteSession)
	authed.PATCH("/sessions/:id/teams/:teamId", s.UpdateTeam)

	authed.POST("/sessions/:id/start", s.StartSession)
	authed.POST("/sessions/:id/end", s.EndSession)
	authed.GET("/sessions/:id/live", s.LiveState)
	authed.POST("/sessions/:id/scores", s.RecordScore)
	authed.DELETE("/sessions/:id/scores/last", s.UndoLastScore)
	authed.POST("/sessions/:id/reconcile", s.Reconcile)
	authed.GET("/sessions/:id/recap", s.SessionRecap)
	authed.GET("/sessions/:id/stream", s.Stream)

	authed.GET("/leaderboard", s.Leaderboard)
	authed.GET("/members/:memberId/stats", s.MemberStats)

	return r
}

type healthResp struct {
	Status       string                 `json:"status"`
	RecapWebhook *notify.DeliveryStatus `json:"recap_webhook,omitempty"`
}

func (s *Server) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		s.logger.Error().Err(err).Msg("health check failed")
		c.JSON(http.StatusServiceUnavailable, healthResp{Status: "unavailable"})
		return
	}

	resp := healthResp{Status: "ok"}
	if s.webhook != nil && s.webhook.Enabled() {
		status := s.webhook.Status()
		resp.RecapWebhook = &status
	}
	c.JSON(http.StatusOK, resp)
}

// principal is set by the auth middleware on every authenticated route.
func principal(c *gin.Context) auth.Principal {
	p, _ := auth.FromContext(c.Request.Context())
	return p
}

// log returns the request logger, or the server logger outside a request
// id scope.
func (s *Server) log(c *gin.Context) *zerolog.Logger {
	if l := zerolog.Ctx(c.Request.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &s.logger
}

// fail writes the response for a service error. Errors without a client
// meaning are logged and hidden behind a 500.
func (s *Server) fail(c *gin.Context, err error, msg string) {
	logger := s.log(c)
	if apierr.Handle(c, err) {
		logger.Debug().Err(err).Msg(msg)
		return
	}

	logger.Error().Err(err).Msg(msg)
	apierr.WriteApiErrJSON(c, http.StatusInternalServerError, apierr.InternalServerError)
}

func (s *Server) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		s.log(c).Debug().Err(err).Msg("error parsing request")
		apierr.Bind(c, err)
		return false
	}
	return true
}
