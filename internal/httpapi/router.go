// Package httpapi is the control-surface adapter, out of the core's scope
// per spec.md §1 ("HTTP routing... out of scope") but required as the
// external interface spec.md §6.1 describes. Grounded on the teacher's
// routes.SetupRoutes + handlers.*Handler shape: gin route groups, thin
// handlers that bind JSON and delegate to a service (here, a registry /
// room actor), uniform {error} bodies.
package httpapi

import (
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/openword/roundserver/internal/idempotency"
	"github.com/openword/roundserver/internal/registry"
)

var roomCodePattern = regexp.MustCompile(`^[A-Z0-9]{4,10}$`)

// Server wires the registry and idempotency cache into gin handlers.
type Server struct {
	registry *registry.Registry
	idemp    idempotency.Cache
	log      zerolog.Logger
}

func NewServer(reg *registry.Registry, idemp idempotency.Cache, log zerolog.Logger) *Server {
	return &Server{registry: reg, idemp: idemp, log: log}
}

// NewRouter builds the gin.Engine with every route from spec.md §6.1 plus
// the push-surface entry point's sibling /health endpoint, mirroring the
// teacher's main.go wiring (gin.Default() + CORS + route groups).
func (s *Server) NewRouter() *gin.Engine {
	router := gin.Default()
	router.Use(CORS())

	router.GET("/health", s.handleHealth)

	rooms := router.Group("/api/rooms")
	{
		rooms.POST("", s.handleCreateRoom)
		rooms.GET("/:code", s.handleGetRoom)
		rooms.POST("/:code/join", s.handleJoin)
		rooms.POST("/:code/admissions", s.handleAdmissions)
		rooms.POST("/:code/start", s.handleStart)
		rooms.POST("/:code/call", s.handleCall)
		rooms.POST("/:code/draft", s.handleDraft)
		rooms.POST("/:code/submit", s.handleSubmit)
		rooms.POST("/:code/end", s.handleEndRound)
		rooms.POST("/:code/score", s.handleScore)
		rooms.POST("/:code/publish", s.handlePublish)
		rooms.POST("/:code/discard", s.handleDiscard)
		rooms.POST("/:code/cancel", s.handleCancel)
		rooms.POST("/:code/finish", s.handleFinish)
	}

	return router
}
