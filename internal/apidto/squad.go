package apidto

import (
	"time"

	"github.com/ibrahim-qi/sesh-app/internal/domain"
)

type Squad struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	InviteCode string    `json:"invite_code"`
	CreatedAt  time.Time `json:"created_at"`
}

// PublicSquad is what the join page may see before login.
type PublicSquad struct {
	Name       string `json:"name"`
	InviteCode string `json:"invite_code"`
}

type Member struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Initials  string    `json:"initials"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func FromSquad(g *domain.Group) Squad {
	if g == nil {
		return Squad{}
	}
	return Squad{ID: g.ID, Name: g.Name, InviteCode: g.InviteCode, CreatedAt: g.CreatedAt}
}

func FromPublicSquad(g *domain.Group) PublicSquad {
	return PublicSquad{Name: g.Name, InviteCode: g.InviteCode}
}

func FromMember(m *domain.Member) Member {
	if m == nil {
		return Member{}
	}
	return Member{
		ID:        m.ID,
		Name:      m.Name,
		AvatarURL: m.AvatarURL,
		Initials:  domain.Initials(m.Name),
		Role:      string(m.Role),
		CreatedAt: m.CreatedAt,
	}
}

func FromMembers(members []domain.Member) []Member {
	out := make([]Member, 0, len(members))
	for i := range members {
		out = append(out, FromMember(&members[i]))
	}
	return out
}
