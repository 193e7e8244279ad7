package security

import (
	"context"
	"errors"

	"github.com/parceltrack/backend/internal/domain"
	"github.com/parceltrack/backend/internal/drivers"
)

type DriverLookup interface {
	ByUserID(ctx context.Context, userID string) (*drivers.Driver, error)
}

// Gate превращает Bearer-токен в domain.Caller. admin из токена сохраняется,
// иначе роль driver определяется наличием профиля водителя.
type Gate struct {
	jwt     *JWTManager
	drivers DriverLookup
}

func NewGate(jwt *JWTManager, drv DriverLookup) *Gate {
	return &Gate{jwt: jwt, drivers: drv}
}

func (g *Gate) Resolve(ctx context.Context, token string) (domain.Caller, error) {
	userID, role, err := g.jwt.ParseAccess(token)
	if err != nil {
		return domain.Caller{}, err
	}
	return g.ResolveUser(ctx, userID, domain.Role(role))
}

// ResolveUser перечитывает профиль; вызывается и после register-driver.
func (g *Gate) ResolveUser(ctx context.Context, userID string, claimed domain.Role) (domain.Caller, error) {
	c := domain.Caller{UserID: userID, Role: domain.RoleCustomer}
	d, err := g.drivers.ByUserID(ctx, userID)
	switch {
	case err == nil:
		id := d.ID
		c.DriverID = &id
		c.Role = domain.RoleDriver
	case !errors.Is(err, drivers.ErrNotFound):
		return domain.Caller{}, err
	}
	if claimed == domain.RoleAdmin {
		c.Role = domain.RoleAdmin
	}
	return c, nil
}
