package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/medcore/medcore/internal/config"
	"github.com/medcore/medcore/internal/domain/appointment"
	"github.com/medcore/medcore/internal/domain/attendance"
	"github.com/medcore/medcore/internal/domain/audit"
	"github.com/medcore/medcore/internal/domain/billing"
	"github.com/medcore/medcore/internal/domain/note"
	"github.com/medcore/medcore/internal/domain/patient"
	"github.com/medcore/medcore/internal/domain/pharmacy"
	"github.com/medcore/medcore/internal/domain/session"
	"github.com/medcore/medcore/internal/domain/task"
	"github.com/medcore/medcore/internal/domain/user"
	"github.com/medcore/medcore/internal/platform/auth"
	"github.com/medcore/medcore/internal/platform/db"
	"github.com/medcore/medcore/internal/platform/mailer"
	"github.com/medcore/medcore/internal/platform/middleware"
	"github.com/medcore/medcore/internal/platform/notify"
	"github.com/medcore/medcore/internal/platform/respond"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinic-server",
		Short: "Clinic management API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s).\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}
	if cfg.JWTSecret == "" {
		// Dev-only: tokens won't survive a restart.
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			logger.Fatal().Err(err).Msg("failed to generate dev JWT secret")
		}
		cfg.JWTSecret = hex.EncodeToString(buf)
		logger.Warn().Msg("JWT_SECRET not set; using an ephemeral secret")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Mail delivery
	var sender mailer.Sender
	if cfg.SMTPHost != "" {
		sender = mailer.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
	} else {
		sender = &mailer.MockSender{}
		logger.Warn().Msg("SMTP_HOST not set; email delivery is disabled")
	}
	notifier := notify.NewNotifier(sender, notify.NewTemplateEngine(), logger)

	// Auth
	refreshRepo := auth.NewRefreshTokenRepoPG(pool)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, refreshRepo)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = respond.ErrorHandler(logger)

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	e.Use(auth.Middleware(tokens, auth.PathSkipper(
		"/health",
		"/api/v1/auth/login",
		"/api/v1/auth/refresh",
		"/api/v1/patients/register",
	)))

	// Health check
	e.GET("/health", func(c echo.Context) error {
		health := db.CheckHealth(c.Request().Context(), pool)
		status := http.StatusOK
		if !health.Healthy {
			status = http.StatusServiceUnavailable
		}
		return c.JSON(status, health)
	})

	apiV1 := e.Group("/api/v1")

	// Audit trail
	auditRepo := audit.NewEntryRepoPG(pool)
	auditSvc := audit.NewService(auditRepo, logger)
	audit.NewHandler(auditSvc).RegisterRoutes(apiV1)

	// Users and sessions
	userRepo := user.NewUserRepoPG(pool)
	userSvc := user.NewService(userRepo)
	user.NewHandler(userSvc).RegisterRoutes(apiV1)

	sessionSvc := session.NewService(userSvc, tokens)
	session.NewHandler(sessionSvc).RegisterRoutes(apiV1)

	// Patients
	patientRepo := patient.NewPatientRepoPG(pool)
	patientSvc := patient.NewService(patientRepo, notifier, auditSvc, cfg.ClinicName)
	patient.NewHandler(patientSvc).RegisterRoutes(apiV1)

	// Appointments
	apptRepo := appointment.NewAppointmentRepoPG(pool)
	apptSvc := appointment.NewService(apptRepo, patientRepo, userRepo, notifier, auditSvc)
	appointment.NewHandler(apptSvc).RegisterRoutes(apiV1)

	// Billing
	invoiceRepo := billing.NewInvoiceRepoPG(pool)
	billingSvc := billing.NewService(invoiceRepo, patientRepo, notifier, auditSvc)
	billing.NewHandler(billingSvc).RegisterRoutes(apiV1)

	// Pharmacy
	pharmacyRepo := pharmacy.NewRepoPG(pool)
	pharmacySvc := pharmacy.NewService(pharmacyRepo, patientRepo, auditSvc)
	pharmacy.NewHandler(pharmacySvc).RegisterRoutes(apiV1)

	// Clinical notes
	noteRepo := note.NewNoteRepoPG(pool)
	noteSvc := note.NewService(noteRepo, patientRepo, auditSvc)
	note.NewHandler(noteSvc).RegisterRoutes(apiV1)

	// Staff tasks
	taskRepo := task.NewTaskRepoPG(pool)
	taskSvc := task.NewService(taskRepo, userRepo, notifier, auditSvc)
	task.NewHandler(taskSvc).RegisterRoutes(apiV1)

	// Attendance
	attendanceRepo := attendance.NewAttendanceRepoPG(pool)
	attendanceSvc := attendance.NewService(attendanceRepo)
	attendance.NewHandler(attendanceSvc).RegisterRoutes(apiV1)

	// Start server with graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
		return err
	}
	return nil
}
