package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ibrahim-qi/sesh-app/internal/apidto"
	"github.com/ibrahim-qi/sesh-app/internal/constants"
	"github.com/ibrahim-qi/sesh-app/internal/domain"
	"github.com/ibrahim-qi/sesh-app/internal/service"
)

type createSquadReq struct {
	SetupCode string `json:"setup_code" binding:"required"`
	SquadName string `json:"squad_name" binding:"required,max=40"`
	AdminName string `json:"admin_name" binding:"required,max=40"`
	AvatarURL string `json:"avatar_url" binding:"omitempty,url,max=2048"`
}

type nameReq struct {
	Name string `json:"name" binding:"required,max=40"`
}

type profileReq struct {
	Name      string `json:"name" binding:"required,max=40"`
	AvatarURL string `json:"avatar_url" binding:"omitempty,url,max=2048"`
}

type roleReq struct {
	Role string `json:"role" binding:"required,role"`
}

type authResp struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	Member    apidto.Member `json:"member"`
	Squad     apidto.Squad  `json:"squad"`
}

type membersResp struct {
	Members []apidto.Member `json:"members"`
}

// signedIn answers a successful sign-in and sets the session cookie used by
// the browser client and the change stream.
func (s *Server) signedIn(c *gin.Context, status int, res *service.AuthResult) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(constants.TokenCookieName, res.Token, int(time.Until(res.ExpiresAt).Seconds()), "/", "", c.Request.TLS != nil, true)
	c.JSON(status, authResp{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		Member:    apidto.FromMember(&res.Member),
		Squad:     apidto.FromSquad(&res.Group),
	})
}

func (s *Server) CreateSquad(c *gin.Context) {
	var req createSquadReq
	if !s.bind(c, &req) {
		return
	}

	res, err := s.squads.CreateSquad(c.Request.Context(), service.CreateSquadInput{
		SetupCode: req.SetupCode,
		SquadName: req.SquadName,
		AdminName: req.AdminName,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		s.fail(c, err, "error creating squad")
		return
	}
	s.signedIn(c, http.StatusCreated, res)
}

func (s *Server) GetSquadByInvite(c *gin.Context) {
	g, err := s.squads.GetSquadByInvite(c.Request.Context(), c.Param("code"))
	if err != nil {
		s.fail(c, err, "error looking up invite")
		return
	}
	c.JSON(http.StatusOK, apidto.FromPublicSquad(g))
}

func (s *Server) Join(c *gin.Context) {
	var req nameReq
	if !s.bind(c, &req) {
		return
	}

	res, err := s.squads.Join(c.Request.Context(), c.Param("code"), req.Name)
	if err != nil {
		s.fail(c, err, "error joining squad")
		return
	}
	s.signedIn(c, http.StatusOK, res)
}

func (s *Server) Login(c *gin.Context) {
	var req nameReq
	if !s.bind(c, &req) {
		return
	}

	res, err := s.squads.Login(c.Request.Context(), req.Name)
	if err != nil {
		s.fail(c, err, "error logging in")
		return
	}
	s.signedIn(c, http.StatusOK, res)
}

func (s *Server) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(constants.TokenCookieName, "", -1, "/", "", c.Request.TLS != nil, true)
	c.Status(http.StatusNoContent)
}

func (s *Server) Me(c *gin.Context) {
	m, err := s.squads.Me(c.Request.Context(), principal(c))
	if err != nil {
		s.fail(c, err, "error loading member")
		return
	}
	c.JSON(http.StatusOK, apidto.FromMember(m))
}

func (s *Server) UpdateProfile(c *gin.Context) {
	var req profileReq
	if !s.bind(c, &req) {
		return
	}

	m, err := s.roster.UpdateProfile(c.Request.Context(), principal(c), req.Name, req.AvatarURL)
	if err != nil {
		s.fail(c, err, "error updating profile")
		return
	}
	c.JSON(http.StatusOK, apidto.FromMember(m))
}

func (s *Server) GetSquad(c *gin.Context) {
	g, err := s.squads.GetSquad(c.Request.Context(), principal(c))
	if err != nil {
		s.fail(c, err, "error loading squad")
		return
	}
	c.JSON(http.StatusOK, apidto.FromSquad(g))
}

func (s *Server) RenameSquad(c *gin.Context) {
	var req nameReq
	if !s.bind(c, &req) {
		return
	}

	g, err := s.squads.RenameSquad(c.Request.Context(), principal(c), req.Name)
	if err != nil {
		s.fail(c, err, "error renaming squad")
		return
	}
	c.JSON(http.StatusOK, apidto.FromSquad(g))
}

func (s *Server) ListMembers(c *gin.Context) {
	members, err := s.roster.ListMembers(c.Request.Context(), principal(c))
	if err != nil {
		s.fail(c, err, "error listing members")
		return
	}
	c.JSON(http.StatusOK, membersResp{Members: apidto.FromMembers(members)})
}

func (s *Server) AddMember(c *gin.Context) {
	var req nameReq
	if !s.bind(c, &req) {
		return
	}

	m, err := s.roster.AddMember(c.Request.Context(), principal(c), req.Name)
	if err != nil {
		s.fail(c, err, "error adding member")
		return
	}
	c.JSON(http.StatusCreated, apidto.FromMember(m))
}

func (s *Server) RemoveMember(c *gin.Context) {
	if err := s.roster.RemoveMember(c.Request.Context(), principal(c), c.Param("memberId")); err != nil {
		s.fail(c, err, "error removing member")
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) ChangeRole(c *gin.Context) {
	var req roleReq
	if !s.bind(c, &req) {
		return
	}

	m, err := s.roster.ChangeRole(c.Request.Context(), principal(c), c.Param("memberId"), domain.Role(req.Role))
	if err != nil {
		s.fail(c, err, "error changing role")
		return
	}
	c.JSON(http.StatusOK, apidto.FromMember(m))
}
