package api

import (
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	orderhandler "github.com/Apurer/repairshop-api/internal/domains/orders/adapters/http/handler"
	notificationhandler "github.com/Apurer/repairshop-api/internal/domains/sideeffects/adapters/http/handler"
	"github.com/Apurer/repairshop-api/internal/shared/actor"
	apierrors "github.com/Apurer/repairshop-api/internal/shared/errors"
)

// NewResponder maps every bounded context's errors to problem details.
func NewResponder() *apierrors.ChainedResponder {
	return apierrors.NewChainedResponder("", orderhandler.ProblemFor, notificationhandler.ProblemFor)
}

var jsonFieldNames sync.Once

// useJSONFieldNames makes binding errors name fields the way clients send them.
func useJSONFieldNames() {
	jsonFieldNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// NewRouter mounts the versioned API behind the actor middleware.
func NewRouter(serviceName string, orders *orderhandler.OrderAPI, notifications *notificationhandler.NotificationAPI) *gin.Engine {
	useJSONFieldNames()
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.NoRoute(func(c *gin.Context) {
		apierrors.Respond(c, apierrors.ErrNotFound.WithDetail("no route for "+c.Request.Method+" "+c.Request.URL.Path))
	})

	v1 := router.Group("/v1", actor.Middleware())
	orders.Register(v1)
	notifications.Register(v1)
	return router
}
