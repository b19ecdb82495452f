package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/escolaware/escola-api/internal/handler"
	"github.com/escolaware/escola-api/internal/middleware"
	"github.com/escolaware/escola-api/internal/models"
	"github.com/escolaware/escola-api/internal/repository"
	"github.com/escolaware/escola-api/internal/service"
	"github.com/escolaware/escola-api/pkg/config"
	"github.com/escolaware/escola-api/pkg/logger"
	corsmiddleware "github.com/escolaware/escola-api/pkg/middleware/cors"
	reqidmiddleware "github.com/escolaware/escola-api/pkg/middleware/requestid"
)

// Handlers groups every HTTP handler mounted by the router.
type Handlers struct {
	Auth       *handler.AuthHandler
	School     *handler.SchoolHandler
	SchoolYear *handler.SchoolYearHandler
	Class      *handler.ClassHandler
	Subject    *handler.SubjectHandler
	Teacher    *handler.TeacherHandler
	Student    *handler.StudentHandler
	Section    *handler.SectionHandler
	Assignment *handler.AssignmentHandler
	Period     *handler.PeriodHandler
	Pei        *handler.PeiHandler
	Calendar   *handler.CalendarHandler
	Canteen    *handler.CanteenHandler
	Request    *handler.RequestHandler
	User       *handler.UserHandler
	Export     *handler.ExportHandler
	Report     *handler.ReportHandler
	Contact    *handler.ContactHandler
	Metrics    *handler.MetricsHandler
}

// Dependencies carries everything the router needs besides handlers.
type Dependencies struct {
	Config   *config.Config
	Logger   *zap.Logger
	Auth     *service.AuthService
	Metrics  *service.MetricsService
	AuditLog *repository.UserRepository
	Handlers Handlers
}

// New assembles the gin engine with the full middleware chain and all
// API routes mounted under the configured prefix.
func New(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	h := deps.Handlers

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.ResponseMeta())
	r.Use(middleware.Metrics(deps.Metrics))

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	// Routes below need no session: the contact form is public and the
	// report download authorizes through its signed token.
	api.POST("/contact", h.Contact.Submit)
	if cfg.Reports.Enabled {
		api.GET("/reports/download/:token", h.Report.Download)
	}

	auth := api.Group("")
	auth.Use(middleware.Auth(deps.Auth))

	auth.GET("/auth/me", h.Auth.Me)

	staff := []models.UserRole{models.RoleAdmin, models.RoleDirector, models.RoleCoordinator}
	management := middleware.RequireRoles(staff...)

	schools := auth.Group("/schools", middleware.RequireRoles(models.RoleAdmin))
	{
		schools.GET("", h.School.List)
		schools.GET("/:id", h.School.Get)
		schools.POST("", h.School.Create)
		schools.PUT("/:id", h.School.Update)
		schools.DELETE("/:id", h.School.Delete)
	}

	users := auth.Group("/users")
	{
		admins := middleware.RequireRoles(models.RoleAdmin, models.RoleDirector)
		users.GET("", admins, h.User.List)
		// Any authenticated user may read their own profile.
		users.GET("/:id", middleware.RBAC(string(models.RoleAdmin), string(models.RoleDirector), "SELF"), h.User.Get)
		users.PUT("/:id", admins, h.User.Update)
		users.DELETE("/:id", admins, h.User.Deactivate)
	}

	years := auth.Group("/school-years", management)
	{
		years.GET("", h.SchoolYear.List)
		years.GET("/:id", h.SchoolYear.Get)
		years.POST("", h.SchoolYear.Create)
		years.PUT("/:id", h.SchoolYear.Update)
		years.DELETE("/:id", h.SchoolYear.Delete)
	}

	classes := auth.Group("/classes", management)
	{
		classes.GET("", h.Class.List)
		classes.GET("/:id", h.Class.Get)
		classes.POST("", h.Class.Create)
		classes.PUT("/:id", h.Class.Update)
		classes.DELETE("/:id", h.Class.Delete)
	}

	subjects := auth.Group("/subjects", management)
	{
		subjects.GET("", h.Subject.List)
		subjects.GET("/:id", h.Subject.Get)
		subjects.POST("", h.Subject.Create)
		subjects.PUT("/:id", h.Subject.Update)
		subjects.DELETE("/:id", h.Subject.Delete)
	}

	teachers := auth.Group("/teachers", management)
	{
		teachers.GET("", h.Teacher.List)
		teachers.GET("/:id", h.Teacher.Get)
		teachers.POST("", h.Teacher.Create)
		teachers.PUT("/:id", h.Teacher.Update)
		teachers.DELETE("/:id", h.Teacher.Delete)
	}

	students := auth.Group("/students", middleware.RequireRoles(append(staff, models.RoleTeacher)...))
	{
		students.GET("", h.Student.List)
		students.GET("/:id", h.Student.Get)
		students.POST("", management, h.Student.Create)
		students.PUT("/:id", management, h.Student.Update)
		students.DELETE("/:id", management, h.Student.Delete)
		students.PUT("/:id/canteen-limit", management, h.Canteen.SetStudentLimit)
	}

	sections := auth.Group("/sections", middleware.RequireRoles(append(staff, models.RoleTeacher)...))
	{
		sections.GET("", h.Section.List)
		sections.GET("/:id", h.Section.Get)
		sections.POST("", management, h.Section.Create)
		sections.PUT("/:id", management, h.Section.Update)
		sections.DELETE("/:id", management, h.Section.Delete)
	}

	assignments := auth.Group("/assignments", middleware.RequireRoles(append(staff, models.RoleTeacher)...))
	{
		assignments.GET("", h.Assignment.List)
		assignments.GET("/:id", h.Assignment.Get)
		assignments.POST("", h.Assignment.Create)
		assignments.PUT("/:id", h.Assignment.Update)
		assignments.DELETE("/:id", h.Assignment.Delete)
		assignments.GET("/:id/grades", h.Assignment.Grades)
		assignments.POST("/:id/grades", h.Assignment.Grade)
	}

	periods := auth.Group("/periods", middleware.RequireRoles(append(staff, models.RoleTeacher)...))
	{
		periods.GET("", h.Period.List)
		periods.GET("/current", h.Period.Current)
		periods.GET("/:id", h.Period.Get)
		periods.POST("", management, h.Period.Create)
		periods.PUT("/:id", management, h.Period.Update)
		periods.DELETE("/:id", management, h.Period.Delete)
	}

	peis := auth.Group("/peis", middleware.RequireRoles(append(staff, models.RoleTeacher)...))
	{
		peis.GET("", h.Pei.List)
		peis.GET("/:id", h.Pei.Get)
		peis.POST("", h.Pei.Create)
		peis.PUT("/:id", h.Pei.Update)
		peis.DELETE("/:id", management, h.Pei.Delete)
	}

	if cfg.Calendar.Enabled {
		calendars := auth.Group("/calendars", management)
		calendars.POST("/generate", h.Calendar.Generate)
		calendars.POST("", middleware.Audit(deps.AuditLog, "calendar.save", "calendar"), h.Calendar.Save)
		calendars.GET("", h.Calendar.List)
		calendars.GET("/:id/slots", h.Calendar.Slots)
		calendars.DELETE("/:id", h.Calendar.Delete)
	}

	canteen := auth.Group("/canteen", management)
	{
		canteen.GET("/items", h.Canteen.ListItems)
		canteen.GET("/items/:id", h.Canteen.GetItem)
		canteen.POST("/items", h.Canteen.CreateItem)
		canteen.PUT("/items/:id", h.Canteen.UpdateItem)
		canteen.DELETE("/items/:id", h.Canteen.DeleteItem)
		canteen.GET("/purchases", h.Canteen.ListPurchases)
		canteen.POST("/purchases", middleware.Audit(deps.AuditLog, "canteen.purchase", "canteen_purchase"), h.Canteen.RecordPurchase)
		canteen.GET("/standings", h.Canteen.Standings)
	}

	requests := auth.Group("/requests")
	{
		requests.GET("/purchases", h.Request.ListPurchaseRequests)
		requests.GET("/purchases/:id", h.Request.GetPurchaseRequest)
		requests.POST("/purchases", h.Request.CreatePurchaseRequest)
		requests.PATCH("/purchases/:id/status", management, middleware.Audit(deps.AuditLog, "request.transition", "purchase_request"), h.Request.TransitionPurchaseRequest)
		requests.DELETE("/purchases/:id", h.Request.DeletePurchaseRequest)

		requests.GET("/prints", h.Request.ListPrintRequests)
		requests.GET("/prints/:id", h.Request.GetPrintRequest)
		requests.POST("/prints", h.Request.CreatePrintRequest)
		requests.PATCH("/prints/:id/status", management, middleware.Audit(deps.AuditLog, "request.transition", "print_request"), h.Request.TransitionPrintRequest)
		requests.DELETE("/prints/:id", h.Request.DeletePrintRequest)
	}

	exports := auth.Group("/exports", management)
	{
		exports.GET("/students", h.Export.Students)
	}

	if cfg.Reports.Enabled {
		reports := auth.Group("/reports", management)
		reports.POST("", h.Report.Create)
		reports.GET("/:id", h.Report.Status)
	}

	return r
}
