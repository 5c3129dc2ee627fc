package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Apurer/repairshop-api/internal/domains/sideeffects/domain"
	"github.com/Apurer/repairshop-api/internal/domains/sideeffects/ports"
	"github.com/Apurer/repairshop-api/internal/shared/actor"
	apierrors "github.com/Apurer/repairshop-api/internal/shared/errors"
)

// Notification is the HTTP representation of an in-app notification.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Link      string    `json:"link,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

type NotificationAPI struct {
	service   ports.NotificationService
	responder *apierrors.ChainedResponder
}

func NewNotificationAPI(service ports.NotificationService, responder *apierrors.ChainedResponder) *NotificationAPI {
	if responder == nil {
		responder = apierrors.NewChainedResponder("", ProblemFor)
	}
	return &NotificationAPI{service: service, responder: responder}
}

func (api *NotificationAPI) Register(group gin.IRoutes) {
	group.GET("/notifications", api.List)
	group.POST("/notifications/:notificationId/read", api.MarkRead)
}

// Get /v1/notifications?unread=true
func (api *NotificationAPI) List(c *gin.Context) {
	a, ok := actor.From(c)
	if !ok {
		api.responder.Respond(c, apierrors.ErrUnauthorized)
		return
	}
	unreadOnly := c.Query("unread") == "true"
	list, err := api.service.ListForRecipient(c.Request.Context(), a, unreadOnly)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	out := make([]Notification, 0, len(list))
	for _, n := range list {
		out = append(out, Notification{
			ID:        n.ID,
			Title:     n.Title,
			Message:   n.Message,
			Link:      n.Link,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, out)
}

// Post /v1/notifications/:notificationId/read
func (api *NotificationAPI) MarkRead(c *gin.Context) {
	a, ok := actor.From(c)
	if !ok {
		api.responder.Respond(c, apierrors.ErrUnauthorized)
		return
	}
	id, err := uuid.Parse(c.Param("notificationId"))
	if err != nil {
		api.responder.BadRequest(c, "notificationId must be a UUID")
		return
	}
	if err := api.service.MarkRead(c.Request.Context(), a, id); err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ProblemFor maps notification errors to problem details.
func ProblemFor(err error) (apierrors.ProblemDetail, bool) {
	if errors.Is(err, domain.ErrNotificationNotFound) {
		return apierrors.NewNotFoundProblem("notification", err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}
