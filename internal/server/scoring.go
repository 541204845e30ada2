package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ibrahim-qi/sesh-app/internal/apidto"
	"github.com/ibrahim-qi/sesh-app/internal/constants"
	"github.com/ibrahim-qi/sesh-app/internal/service"
)

type scoreReq struct {
	MemberID string `json:"member_id" binding:"required"`
	TeamID   string `json:"team_id" binding:"required"`
	Points   int    `json:"points" binding:"required,min=1,max=3"`
}

type liveStateResp struct {
	Session      apidto.Session      `json:"session"`
	Teams        []apidto.Team       `json:"teams"`
	Games        []apidto.Game       `json:"games"`
	Active       *apidto.Game        `json:"active_game"`
	Events       []apidto.ScoreEvent `json:"events"`
	PlayerPoints map[string]int      `json:"player_points"`
	Waiting      []string            `json:"waiting_team_ids"`
	Streak       *apidto.Streak      `json:"streak,omitempty"`
	LastEvent    *apidto.ScoreEvent  `json:"last_event,omitempty"`
	TargetScore  int                 `json:"target_score"`
}

func fromLiveState(st *service.LiveState) liveStateResp {
	return liveStateResp{
		Session:      apidto.FromSession(&st.Session),
		Teams:        apidto.FromTeams(st.Teams),
		Games:        apidto.FromGames(st.Games),
		Active:       apidto.FromGame(st.Active),
		Events:       apidto.FromScoreEvents(st.Events),
		PlayerPoints: st.PlayerPoints,
		Waiting:      st.Waiting,
		Streak:       apidto.FromStreak(st.Streak),
		LastEvent:    apidto.FromScoreEvent(st.LastEvent),
		TargetScore:  constants.TargetScore,
	}
}

type scoreResp struct {
	Event     apidto.ScoreEvent `json:"event"`
	Game      apidto.Game       `json:"game"`
	Completed bool              `json:"completed"`
	Draw      bool              `json:"draw"`
	NextGame  *apidto.Game      `json:"next_game,omitempty"`
}

type undoResp struct {
	Event apidto.ScoreEvent `json:"retracted"`
	Game  apidto.Game       `json:"game"`
}

type endResp struct {
	Session   apidto.Session `json:"session"`
	Game      *apidto.Game   `json:"game,omitempty"`
	Draw      bool           `json:"draw"`
	Discarded bool           `json:"discarded"`
}

type reconcileResp struct {
	Repaired []apidto.Game `json:"repaired"`
}

func (s *Server) StartSession(c *gin.Context) {
	game, err := s.scoring.StartSession(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		s.fail(c, err, "error starting session")
		return
	}
	c.JSON(http.StatusOK, apidto.FromGame(game))
}

func (s *Server) EndSession(c *gin.Context) {
	res, err := s.scoring.EndSession(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		s.fail(c, err, "error ending session")
		return
	}
	c.JSON(http.StatusOK, endResp{
		Session:   apidto.FromSession(&res.Session),
		Game:      apidto.FromGame(res.Game),
		Draw:      res.Outcome.Draw,
		Discarded: res.Discarded,
	})
}

func (s *Server) LiveState(c *gin.Context) {
	st, err := s.scoring.LiveState(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		s.fail(c, err, "error loading live state")
		return
	}
	c.JSON(http.StatusOK, fromLiveState(st))
}

func (s *Server) RecordScore(c *gin.Context) {
	var req scoreReq
	if !s.bind(c, &req) {
		return
	}

	res, err := s.scoring.RecordScore(c.Request.Context(), principal(c), c.Param("id"), service.ScoreInput{
		MemberID: req.MemberID,
		TeamID:   req.TeamID,
		Points:   req.Points,
	})
	if err != nil {
		s.fail(c, err, "error recording score")
		return
	}
	c.JSON(http.StatusCreated, scoreResp{
		Event:     *apidto.FromScoreEvent(&res.Event),
		Game:      *apidto.FromGame(&res.Game),
		Completed: res.Outcome.Completed,
		Draw:      res.Outcome.Draw,
		NextGame:  apidto.FromGame(res.NextGame),
	})
}

func (s *Server) UndoLastScore(c *gin.Context) {
	res, err := s.scoring.UndoLastScore(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		s.fail(c, err, "error undoing score")
		return
	}
	c.JSON(http.StatusOK, undoResp{
		Event: *apidto.FromScoreEvent(&res.Event),
		Game:  *apidto.FromGame(&res.Game),
	})
}

func (s *Server) Reconcile(c *gin.Context) {
	repaired, err := s.scoring.Reconcile(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		s.fail(c, err, "error reconciling session")
		return
	}
	c.JSON(http.StatusOK, reconcileResp{Repaired: apidto.FromGames(repaired)})
}
