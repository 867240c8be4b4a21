// Package gateway serves the read side of the board over plain HTTP for
// browsers and dashboards. Writes stay on gRPC.
package gateway

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	taskboardv1 "github.com/gurkanbulca/teamboard/api/taskboard/v1"
	"github.com/gurkanbulca/teamboard/pkg/auth"
)

const identityKey = "identity"

// Authenticator turns a bearer token into a context carrying the caller.
// *middleware.AuthInterceptor satisfies it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (context.Context, error)
}

// Server provides the HTTP handlers of the read gateway
type Server struct {
	engine   *gin.Engine
	auth     Authenticator
	projects taskboardv1.ProjectServiceServer
	tasks    taskboardv1.TaskServiceServer
}

// New constructs the gateway with routes and middleware configured
func New(authn Authenticator, projects taskboardv1.ProjectServiceServer, tasks taskboardv1.TaskServiceServer) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithWriter(gin.DefaultWriter, "/healthz"))

	srv := &Server{
		engine:   router,
		auth:     authn,
		projects: projects,
		tasks:    tasks,
	}
	srv.registerRoutes()
	return srv
}

// Handler exposes the gateway as an http.Handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.handleHealth)

	api := s.engine.Group("/api", s.requireSession)
	{
		api.GET("/overview", s.handleOverview)
		api.GET("/projects", s.handleListProjects)
		api.GET("/projects/:id/tasks", s.handleListTasks)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// requireSession authenticates the Authorization header and stores the
// resulting context for the handlers.
func (s *Server) requireSession(c *gin.Context) {
	token, err := auth.ExtractTokenFromHeader(c.GetHeader("Authorization"))
	if err != nil {
		respondError(c, status.Error(codes.Unauthenticated, err.Error()))
		c.Abort()
		return
	}

	ctx, err := s.auth.Authenticate(c.Request.Context(), token)
	if err != nil {
		respondError(c, err)
		c.Abort()
		return
	}
	c.Set(identityKey, ctx)
	c.Next()
}

func (s *Server) handleOverview(c *gin.Context) {
	resp, err := s.projects.GetOverview(callerContext(c), &taskboardv1.GetOverviewRequest{})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleListProjects(c *gin.Context) {
	resp, err := s.projects.ListProjects(callerContext(c), &taskboardv1.ListProjectsRequest{})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// handleListTasks returns a project board. Optional status and assignee
// query parameters narrow the result.
func (s *Server) handleListTasks(c *gin.Context) {
	resp, err := s.tasks.ListTasks(callerContext(c), &taskboardv1.ListTasksRequest{
		ProjectId:  c.Param("id"),
		Status:     c.Query("status"),
		AssigneeId: c.Query("assignee"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func callerContext(c *gin.Context) context.Context {
	if v, ok := c.Get(identityKey); ok {
		if ctx, ok := v.(context.Context); ok {
			return ctx
		}
	}
	return c.Request.Context()
}

// respondError writes a gRPC status as the matching HTTP error
func respondError(c *gin.Context, err error) {
	st := status.Convert(err)
	c.JSON(httpStatus(st.Code()), gin.H{
		"error":   strings.ToLower(st.Code().String()),
		"message": st.Message(),
	})
}

func httpStatus(code codes.Code) int {
	switch code {
	case codes.OK:
		return http.StatusOK
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists, codes.Aborted:
		return http.StatusConflict
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.Canceled:
		return 499
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
