package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	_ "github.com/escolaware/escola-api/api/swagger"
	"github.com/escolaware/escola-api/internal/handler"
	"github.com/escolaware/escola-api/internal/repository"
	"github.com/escolaware/escola-api/internal/router"
	"github.com/escolaware/escola-api/internal/service"
	"github.com/escolaware/escola-api/pkg/cache"
	"github.com/escolaware/escola-api/pkg/config"
	"github.com/escolaware/escola-api/pkg/database"
	"github.com/escolaware/escola-api/pkg/jobs"
	"github.com/escolaware/escola-api/pkg/logger"
	"github.com/escolaware/escola-api/pkg/mailer"
	"github.com/escolaware/escola-api/pkg/storage"
)

// @title Escola API
// @version 1.0.0
// @description Multi-tenant school administration API
// @BasePath /api/v1
// @schemes http https

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	// The API stays up without Redis: the canteen standings endpoint
	// just hits the database on every call.
	var cacheSvc *service.CacheService
	if redisClient, err := cache.NewRedis(cfg.Redis); err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		cacheSvc = service.NewCacheService(nil, metricsSvc, 0, logr, false)
	} else {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Canteen.LimitCacheTTL, logr, true)
	}

	schoolRepo := repository.NewSchoolRepository(db)
	yearRepo := repository.NewSchoolYearRepository(db)
	classRepo := repository.NewClassRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	periodRepo := repository.NewPeriodRepository(db)
	peiRepo := repository.NewPeiRepository(db)
	calendarRepo := repository.NewCalendarRepository(db)
	canteenRepo := repository.NewCanteenRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	reportRepo := repository.NewReportRepository(db)
	userRepo := repository.NewUserRepository(db)

	validate := validator.New()

	authSvc := service.NewAuthService(userRepo, logr, service.AuthConfig{
		TokenSecret: cfg.Auth.TokenSecret,
		Issuer:      cfg.Auth.Issuer,
		Audience:    cfg.Auth.Audience,
		Leeway:      cfg.Auth.Leeway,
	})
	schoolSvc := service.NewSchoolService(schoolRepo, validate, logr)
	yearSvc := service.NewSchoolYearService(yearRepo, validate, logr)
	classSvc := service.NewClassService(classRepo, yearRepo, validate, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, validate, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, userRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, userRepo, classRepo, validate, logr)
	sectionSvc := service.NewSectionService(sectionRepo, teacherRepo, classRepo, subjectRepo, validate, logr)
	assignmentSvc := service.NewAssignmentService(assignmentRepo, sectionRepo, periodRepo, studentRepo, validate, logr)
	periodSvc := service.NewPeriodService(periodRepo, validate, logr)
	peiSvc := service.NewPeiService(peiRepo, studentRepo, validate, logr)
	calendarSvc := service.NewCalendarService(calendarRepo, sectionRepo, classRepo, periodRepo, validate, logr, service.CalendarConfig{
		ProposalTTL: cfg.Calendar.ProposalTTL,
	})
	canteenSvc := service.NewCanteenService(canteenRepo, studentRepo, cacheSvc, cfg.Canteen.LimitCacheTTL, validate, logr)
	requestSvc := service.NewRequestService(requestRepo, validate, logr)
	userSvc := service.NewUserService(userRepo, validate, logr)

	store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init report storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
	exportSvc := service.NewExportService(studentRepo, teacherRepo, canteenRepo, store, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Reports.SignedURLTTL,
	}, logr)

	reportWorker := service.NewReportWorker(reportRepo, exportSvc, cfg.Reports.WorkerRetries, logr)
	reportQueue := jobs.NewQueue("reports", reportWorker.Handle, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		Logger:     logr,
	})
	reportSvc := service.NewReportService(reportRepo, reportQueue, exportSvc, validate, logr, service.ReportServiceConfig{
		ResultTTL:       cfg.Reports.SignedURLTTL,
		CleanupInterval: cfg.Reports.CleanupInterval,
		MaxRetries:      cfg.Reports.WorkerRetries,
	})

	from := mailer.Address{Name: cfg.Mail.FromName, Email: cfg.Mail.FromEmail}
	var outbound mailer.Mailer
	if cfg.Mail.Backend == "sendgrid" {
		outbound = mailer.NewSendgridMailer(cfg.Mail.SendgridAPIKey, from, logr)
	} else {
		outbound = mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.Mail.SMTPHost,
			Port:     cfg.Mail.SMTPPort,
			Username: cfg.Mail.SMTPUser,
			Password: cfg.Mail.SMTPPassword,
			From:     from,
		}, logr)
	}
	contactSvc := service.NewContactService(outbound, mailer.Address{Email: cfg.Mail.ContactRecipient}, validate, logr)

	handlers := router.Handlers{
		Auth:       handler.NewAuthHandler(),
		School:     handler.NewSchoolHandler(schoolSvc),
		SchoolYear: handler.NewSchoolYearHandler(yearSvc),
		Class:      handler.NewClassHandler(classSvc),
		Subject:    handler.NewSubjectHandler(subjectSvc),
		Teacher:    handler.NewTeacherHandler(teacherSvc),
		Student:    handler.NewStudentHandler(studentSvc),
		Section:    handler.NewSectionHandler(sectionSvc),
		Assignment: handler.NewAssignmentHandler(assignmentSvc),
		Period:     handler.NewPeriodHandler(periodSvc),
		Pei:        handler.NewPeiHandler(peiSvc),
		Calendar:   handler.NewCalendarHandler(calendarSvc),
		Canteen:    handler.NewCanteenHandler(canteenSvc),
		Request:    handler.NewRequestHandler(requestSvc),
		User:       handler.NewUserHandler(userSvc),
		Export:     handler.NewExportHandler(exportSvc),
		Report:     handler.NewReportHandler(reportSvc),
		Contact:    handler.NewContactHandler(contactSvc),
		Metrics:    handler.NewMetricsHandler(metricsSvc, db),
	}

	engine := router.New(router.Dependencies{
		Config:   cfg,
		Logger:   logr,
		Auth:     authSvc,
		Metrics:  metricsSvc,
		AuditLog: userRepo,
		Handlers: handlers,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Reports.Enabled {
		reportQueue.Start(ctx)
		reportSvc.RecoverPendingJobs(ctx)
		reportSvc.StartCleanup(ctx)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("graceful shutdown failed", "error", err)
	}
	reportQueue.Stop()
}
