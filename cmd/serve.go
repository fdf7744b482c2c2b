package cmd

import (
	"context"
	"database/sql"
	"net"
	"net/http"

	"github.com/vibast-solutions/ms-go-jobtracker/app/controller"
	"github.com/vibast-solutions/ms-go-jobtracker/app/database"
	jobgrpc "github.com/vibast-solutions/ms-go-jobtracker/app/grpc"
	"github.com/vibast-solutions/ms-go-jobtracker/app/mail"
	"github.com/vibast-solutions/ms-go-jobtracker/app/middleware"
	"github.com/vibast-solutions/ms-go-jobtracker/app/repository"
	"github.com/vibast-solutions/ms-go-jobtracker/app/service"
	"github.com/vibast-solutions/ms-go-jobtracker/config"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and gRPC servers",
	Long:  `Start both HTTP (Echo) and gRPC servers for the job tracker.`,
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

type services struct {
	auth         *service.AuthService
	applications *service.ApplicationService
	statistics   *service.StatisticsService
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	ctx := context.Background()
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := database.Migrate(ctx, db, cfg.Database.Driver); err != nil {
		logrus.WithError(err).Fatal("Failed to migrate database")
	}

	userRepo := repository.NewUserRepository(db)
	appRepo := repository.NewApplicationRepository(db)

	var authOpts []service.AuthServiceOption
	if cfg.Redis.URL != "" {
		rdb, err := newRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to connect to redis")
		}
		defer rdb.Close()
		authOpts = append(authOpts, service.WithSessionRevoker(repository.NewSessionRepository(rdb)))
		logrus.Info("Server-side session revocation enabled")
	}

	svc := &services{
		auth:         service.NewAuthService(db, userRepo, mail.NewSMTPMailer(cfg.Mail), cfg, authOpts...),
		applications: service.NewApplicationService(db, appRepo),
		statistics:   service.NewStatisticsService(appRepo),
	}

	go startGRPCServer(cfg, svc)

	startHTTPServer(cfg, db, svc)
}

func newRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opts)
	if err = rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

func newHTTPServer(cfg *config.Config, db *sql.DB, svc *services) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
			}
			if userID, ok := c.Get(middleware.ContextUserID).(uint64); ok {
				fields["user_id"] = userID
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	homeController := controller.NewHomeController(db)
	authController := controller.NewAuthController(svc.auth, cfg.Session)
	appController := controller.NewApplicationController(svc.applications)
	statsController := controller.NewStatisticsController(svc.statistics)
	authMiddleware := middleware.NewAuthMiddleware(svc.auth, cfg.Session.CookieName)

	e.GET("/", homeController.Index)
	e.GET("/health", homeController.Health)
	e.POST("/login", authController.Login)
	e.POST("/register", authController.Register)
	e.POST("/reset-password", authController.RequestPasswordReset)
	e.POST("/reset/:token", authController.ResetPassword)

	protected := e.Group("")
	protected.Use(authMiddleware.RequireAuth)
	protected.GET("/statistics", statsController.Statistics)
	protected.Match([]string{http.MethodGet, http.MethodPost}, "/applications", appController.List)
	protected.GET("/applications/:id", appController.Get)
	protected.POST("/add-application", appController.Create)
	protected.GET("/edit-application/:id", appController.Get)
	protected.POST("/edit-application/:id", appController.Update)
	protected.Match([]string{http.MethodPost, http.MethodDelete}, "/delete-application/:id", appController.Delete)
	protected.GET("/logout", authController.Logout)

	return e
}

func startHTTPServer(cfg *config.Config, db *sql.DB, svc *services) {
	e := newHTTPServer(cfg, db, svc)
	defer e.Close()

	httpAddr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
	logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
	if err := e.Start(httpAddr); err != nil {
		logrus.WithError(err).Fatal("Failed to start HTTP server")
	}
}

func startGRPCServer(cfg *config.Config, svc *services) {
	grpcAddr := net.JoinHostPort(cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to listen on gRPC port")
	}

	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(jobgrpc.SessionUnaryInterceptor(svc.auth)))
	defer grpcServer.GracefulStop()
	jobgrpc.RegisterStatisticsServiceServer(grpcServer, jobgrpc.NewStatisticsServer(svc.statistics))

	logrus.WithField("addr", grpcAddr).Info("Starting gRPC server")
	if err := grpcServer.Serve(lis); err != nil {
		logrus.WithError(err).Fatal("Failed to start gRPC server")
	}
}
