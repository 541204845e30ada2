package auth

import (
	"fmt"
	"strings"

	"github.com/ibrahim-qi/sesh-app/internal/config"
	"github.com/ibrahim-qi/sesh-app/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// SetupGate guards squad creation behind SETUP_CODE. Only the bcrypt hash
// of the code is kept in memory.
type SetupGate struct {
	hash []byte
}

func NewSetupGate(cfg *config.Config) (*SetupGate, error) {
	code := normalizeCode(cfg.SetupCode)
	if code == "" {
		return &SetupGate{}, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash setup code: %w", err)
	}
	return &SetupGate{hash: hash}, nil
}

func (g *SetupGate) Enabled() bool {
	return len(g.hash) > 0
}

func (g *SetupGate) Check(code string) error {
	if !g.Enabled() {
		return domain.ErrSetupDisabled
	}
	if bcrypt.CompareHashAndPassword(g.hash, []byte(normalizeCode(code))) != nil {
		return domain.ErrForbidden
	}
	return nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
