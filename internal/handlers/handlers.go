package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"gocard/gateway/internal/clientstate"
	"gocard/gateway/internal/config"
	"gocard/gateway/internal/middleware"
	"gocard/gateway/internal/models"
	"gocard/gateway/internal/session"
	"gocard/gateway/internal/shiftclock"
	"gocard/gateway/internal/upstream"
	"gocard/gateway/internal/weather"
	"gocard/gateway/internal/ws"
)

type HandlerSet struct {
	log      zerolog.Logger
	cfg      *config.AppConfig
	resolver session.Resolver
	client   *upstream.Client
	state    clientstate.Store
	machine  *shiftclock.Machine
	weather  *weather.Client
	hub      *ws.Hub

	employees *upstream.Resource[models.Employee]
	bicycles  *upstream.Resource[models.Bicycle]
	routes    *upstream.Resource[models.Route]
	shifts    *upstream.Resource[models.Shift]
}

func NewHandlerSet(log zerolog.Logger, cfg *config.AppConfig, client *upstream.Client, state clientstate.Store) HandlerSet {
	staleTTL := cfg.Cache.StaleTTL

	shifts := upstream.NewResource[models.Shift](client, "/Shifts", staleTTL)
	machine := shiftclock.NewMachine(shifts, client, state, log)

	return HandlerSet{
		log:      log,
		cfg:      cfg,
		resolver: session.New(cfg, client, state, log),
		client:   client,
		state:    state,
		machine:  machine,
		weather:  weather.NewClient(cfg.Weather),
		hub:      ws.NewHub(machine, log),

		employees: upstream.NewResource[models.Employee](client, "/Employees", staleTTL),
		bicycles:  upstream.NewResource[models.Bicycle](client, "/Bicycles", staleTTL),
		routes:    upstream.NewResource[models.Route](client, "/Routes", staleTTL),
		shifts:    shifts,
	}
}

// Hub exposes the websocket hub so main can run and stop it.
func (h HandlerSet) Hub() *ws.Hub { return h.hub }

// Sweepers lists every in-process cache the jobs scheduler should sweep.
func (h HandlerSet) Sweepers() map[string]interface{ Sweep() int } {
	targets := map[string]interface{ Sweep() int }{
		"employees": h.employees,
		"bicycles":  h.bicycles,
		"routes":    h.routes,
		"shifts":    h.shifts,
	}
	if mem, ok := h.state.(*clientstate.MemoryStore); ok {
		targets["clientstate"] = mem
	}
	return targets
}

func (h HandlerSet) Register(engine *gin.Engine) {
	engine.GET("/", h.Entry)
	engine.NoRoute(func(c *gin.Context) {
		c.Redirect(http.StatusSeeOther, "/")
	})

	// Browser-facing dashboard views, gated the way the SPA router was.
	engine.GET("/dashboard-admin",
		middleware.Guard(h.resolver, models.RoleAdmin), h.AdminDashboard)
	engine.GET("/admin/management",
		middleware.Guard(h.resolver, models.RoleAdmin), h.AdminManagement)
	engine.GET("/dashboard-employee",
		middleware.Guard(h.resolver, models.RoleEmployee), h.EmployeeDashboard)

	api := engine.Group("/api")
	api.GET("/healthz", h.Health)

	v1 := api.Group("/v1")

	auth := v1.Group("/auth")
	auth.POST("/login", h.Login)
	auth.POST("/logout", middleware.RequireSession(h.resolver), h.Logout)

	admin := v1.Group("")
	admin.Use(middleware.RequireSession(h.resolver), middleware.RequireRoles(models.RoleAdmin))
	{
		admin.GET("/employees", h.ListEmployees)
		admin.POST("/employees", h.CreateEmployee)
		admin.PUT("/employees/:id", h.UpdateEmployee)
		admin.DELETE("/employees/:id", h.DeleteEmployee)

		admin.GET("/bicycles", h.ListBicycles)
		admin.POST("/bicycles", h.CreateBicycle)
		admin.PUT("/bicycles/:id", h.UpdateBicycle)
		admin.DELETE("/bicycles/:id", h.DeleteBicycle)

		admin.GET("/routes", h.ListRoutes)
		admin.POST("/routes", h.CreateRoute)
		admin.DELETE("/routes/:id", h.DeleteRoute)

		admin.GET("/shifts", h.ListShifts)
		admin.POST("/shifts", h.CreateShift)
		admin.PUT("/shifts/:id", h.UpdateShift)
		admin.DELETE("/shifts/:id", h.DeleteShift)
	}

	employee := v1.Group("")
	employee.Use(middleware.RequireSession(h.resolver), middleware.RequireRoles(models.RoleEmployee))
	{
		employee.GET("/shifts/clock", h.ClockSnapshot)
		employee.POST("/shifts/clock-in", h.ClockIn)
		employee.POST("/shifts/clock-out", h.ClockOut)
		employee.GET("/ws/clock", h.ClockSocket)
	}

	shared := v1.Group("")
	shared.Use(middleware.RequireSession(h.resolver))
	{
		shared.GET("/reports/monthly-hours", h.MonthlyHours)
		shared.GET("/weather", h.Weather)
	}
}

// Entry is the public landing route: the one place an unauthenticated or
// unauthorized caller is redirected to.
func (h HandlerSet) Entry(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "gocard-gateway",
		"signIn":  "/api/v1/auth/login",
	})
}

// respondError maps a data-operation failure to a response the view can
// render: a status derived from the tagged upstream kind plus the message.
func (h HandlerSet) respondError(c *gin.Context, err error) {
	kind := upstream.KindOf(err)

	status := http.StatusBadGateway
	switch kind {
	case upstream.KindUnauthorized:
		status = http.StatusUnauthorized
	case upstream.KindForbidden:
		status = http.StatusForbidden
	case upstream.KindNotFound:
		status = http.StatusNotFound
	case upstream.KindConflict:
		status = http.StatusConflict
	case upstream.KindValidation:
		status = http.StatusBadRequest
	}

	c.JSON(status, gin.H{"error": err.Error(), "kind": string(kind)})
}

func mustSession(c *gin.Context) models.Session {
	sess, _ := middleware.SessionFrom(c)
	return sess
}
