// Package simulator runs a stand-in for the facility coordination
// service: the authority REST API over an in-memory store, plus the
// authority's own lifecycle policy of opening bidding on fresh tasks
// and assigning the idle robot with the highest battery. It exists so
// the coordinator and its demo can run without the real service.
package simulator

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"github.com/medifleet/medifleet/core/analytics"
	"github.com/medifleet/medifleet/core/fleet"
	"github.com/medifleet/medifleet/core/model"
	"github.com/medifleet/medifleet/infra/logger"
	"github.com/medifleet/medifleet/infra/memory"
)

// Server exposes the simulated authority over HTTP.
type Server struct {
	cfg    Config
	store  *memory.Store
	log    logger.Logger
	engine *gin.Engine

	wg       sync.WaitGroup
	quit     chan struct{}
	quitOnce sync.Once
}

// New builds a simulator over the given store. A nil store gets a
// fresh one seeded with the default roster.
func New(cfg Config, store *memory.Store, log logger.Logger) *Server {
	cfg.SetDefaults()
	if store == nil {
		store = memory.NewStore()
		store.SeedRobots(memory.DefaultRoster()...)
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	gin.SetMode(gin.ReleaseMode)
	s := &Server{cfg: cfg, store: store, log: log, quit: make(chan struct{})}
	s.engine = s.routes()
	return s
}

// Close stops the lifecycle drivers and waits for them to settle. Run
// calls it on shutdown; tests serving Handler directly call it too.
func (s *Server) Close() {
	s.quitOnce.Do(func() { close(s.quit) })
	s.wg.Wait()
}

// Store exposes the backing store, mainly for test seeding.
func (s *Server) Store() *memory.Store { return s.store }

// Handler returns the full HTTP handler including CORS.
func (s *Server) Handler() http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}).Handler(s.engine)
}

// Run serves the API until the context is cancelled, then drains the
// lifecycle drivers still in flight.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.cfg.Addr, Handler: s.Handler()}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Infof("simulator listening on %s", s.cfg.Addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		s.Close()
		return err
	case err := <-errc:
		return err
	}
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")
	{
		api.POST("/tasks", s.createTask)
		api.GET("/tasks", s.listTasks)
		api.GET("/tasks/:id", s.getTask)
		api.PATCH("/tasks/:id", s.patchTask)

		api.GET("/robots", s.listRobots)
		api.GET("/robots/:id", s.getRobot)
		api.PATCH("/robots/:id", s.patchRobot)
		api.POST("/robots/reset-all", s.resetRobots)

		api.GET("/analytics/stats", s.analyticsStats)
		api.GET("/analytics/tasks-over-time", s.analyticsTasksOverTime)
		api.GET("/analytics/destination-popularity", s.analyticsDestinations)
		api.GET("/analytics/priority-distribution", s.analyticsPriorities)
		api.GET("/analytics/robot-performance", s.analyticsPerformance)
	}
	return r
}

type createTaskRequest struct {
	Destination model.Location `json:"destination" binding:"required"`
	Priority    model.Priority `json:"priority" binding:"required"`
}

func (s *Server) createTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	task, err := s.store.CreateTask(c.Request.Context(), req.Destination, req.Priority)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.driveLifecycle(task.ID)
	}()
	c.JSON(http.StatusCreated, task)
}

func (s *Server) listTasks(c *gin.Context) {
	tasks, err := s.store.Tasks(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (s *Server) getTask(c *gin.Context) {
	task, err := s.store.Task(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

type taskPatchRequest struct {
	Status      *model.TaskStatus `json:"status"`
	RobotID     *string           `json:"robot_id"`
	RobotName   *string           `json:"robot_name"`
	AssignedAt  *time.Time        `json:"assigned_at"`
	CompletedAt *time.Time        `json:"completed_at"`
}

func (s *Server) patchTask(c *gin.Context) {
	var req taskPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	patch := fleet.TaskPatch{
		Status:      req.Status,
		RobotID:     req.RobotID,
		RobotName:   req.RobotName,
		AssignedAt:  req.AssignedAt,
		CompletedAt: req.CompletedAt,
	}

	ctx := c.Request.Context()
	id := c.Param("id")
	var err error
	if expect := c.Query("expected_status"); expect != "" {
		if req.Status == nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "conditional update requires a status"})
			return
		}
		err = s.store.TransitionTask(ctx, id, model.TaskStatus(expect), *req.Status, patch)
	} else {
		err = s.store.UpdateTask(ctx, id, patch)
	}
	if err != nil {
		s.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task updated successfully"})
}

func (s *Server) listRobots(c *gin.Context) {
	robots, err := s.store.Robots(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, robots)
}

func (s *Server) getRobot(c *gin.Context) {
	robot, err := s.store.Robot(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, robot)
}

type robotPatchRequest struct {
	Status              *model.RobotStatus `json:"status"`
	Location            *model.Location    `json:"location"`
	Battery             *int               `json:"battery"`
	TasksCompletedToday *int               `json:"tasks_completed_today"`
	TotalTasks          *int               `json:"total_tasks"`
}

func (s *Server) patchRobot(c *gin.Context) {
	var req robotPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	err := s.store.UpdateRobot(c.Request.Context(), c.Param("id"), fleet.RobotPatch{
		Status:              req.Status,
		Location:            req.Location,
		Battery:             req.Battery,
		TasksCompletedToday: req.TasksCompletedToday,
		TotalTasks:          req.TotalTasks,
	})
	if err != nil {
		s.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Robot updated successfully"})
}

func (s *Server) resetRobots(c *gin.Context) {
	ctx := c.Request.Context()
	robots, err := s.store.Robots(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	for _, r := range robots {
		err := s.store.UpdateRobot(ctx, r.ID, fleet.RobotPatch{
			Status:              fleet.Ptr(model.RobotIdle),
			Location:            fleet.Ptr(model.LocEntrance),
			TasksCompletedToday: fleet.Ptr(0),
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "All robots reset to ENTRANCE"})
}

func (s *Server) analyticsStats(c *gin.Context) {
	tasks, robots, ok := s.snapshots(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, analytics.Compute(tasks, robots))
}

// analyticsTasksOverTime serves a canned weekly series. The store has
// no retention beyond the current run, so history stays synthetic.
func (s *Server) analyticsTasksOverTime(c *gin.Context) {
	c.JSON(http.StatusOK, []gin.H{
		{"date": "Mon", "tasks": 45},
		{"date": "Tue", "tasks": 52},
		{"date": "Wed", "tasks": 38},
		{"date": "Thu", "tasks": 61},
		{"date": "Fri", "tasks": 48},
		{"date": "Sat", "tasks": 35},
		{"date": "Sun", "tasks": 42},
	})
}

func (s *Server) analyticsDestinations(c *gin.Context) {
	tasks, _, ok := s.snapshots(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, analytics.DestinationPopularity(tasks))
}

func (s *Server) analyticsPriorities(c *gin.Context) {
	tasks, _, ok := s.snapshots(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, analytics.PriorityDistribution(tasks))
}

func (s *Server) analyticsPerformance(c *gin.Context) {
	_, robots, ok := s.snapshots(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, analytics.Performance(robots))
}

func (s *Server) snapshots(c *gin.Context) ([]model.Task, []model.Robot, bool) {
	ctx := c.Request.Context()
	tasks, err := s.store.Tasks(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return nil, nil, false
	}
	robots, err := s.store.Robots(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return nil, nil, false
	}
	return tasks, robots, true
}

func (s *Server) writeStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, fleet.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": err.Error()})
	case errors.Is(err, fleet.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"detail": err.Error()})
	case errors.Is(err, fleet.ErrRemoteUnavailable):
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
	}
}
