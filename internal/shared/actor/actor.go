// Package actor reads the authenticated tenant and user that an upstream
// gateway attaches to every request.
package actor

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	orderdomain "github.com/Apurer/repairshop-api/internal/domains/orders/domain"
	apierrors "github.com/Apurer/repairshop-api/internal/shared/errors"
)

const (
	HeaderTenantID = "X-Tenant-ID"
	HeaderUserID   = "X-User-ID"

	contextKey = "repairshop.actor"
)

var ErrMissingActor = errors.New("tenant and user headers are required")

// Middleware rejects requests without a valid actor with a 401 problem.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		a, err := parse(c.GetHeader(HeaderTenantID), c.GetHeader(HeaderUserID))
		if err != nil {
			apierrors.Respond(c, apierrors.ErrUnauthorized.WithDetail(err.Error()))
			c.Abort()
			return
		}
		c.Set(contextKey, a)
		c.Next()
	}
}

// From returns the actor stored by Middleware.
func From(c *gin.Context) (orderdomain.Actor, bool) {
	value, ok := c.Get(contextKey)
	if !ok {
		return orderdomain.Actor{}, false
	}
	a, ok := value.(orderdomain.Actor)
	return a, ok
}

func parse(tenant, user string) (orderdomain.Actor, error) {
	tenantID, err := uuid.Parse(strings.TrimSpace(tenant))
	if err != nil || tenantID == uuid.Nil {
		return orderdomain.Actor{}, ErrMissingActor
	}
	userID, err := uuid.Parse(strings.TrimSpace(user))
	if err != nil || userID == uuid.Nil {
		return orderdomain.Actor{}, ErrMissingActor
	}
	return orderdomain.Actor{TenantID: tenantID, UserID: userID}, nil
}
