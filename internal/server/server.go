package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/dunning/internal/clock"
	"github.com/smallbiznis/dunning/internal/collection"
	"github.com/smallbiznis/dunning/internal/collection/domain"
	"github.com/smallbiznis/dunning/internal/config"
	"github.com/smallbiznis/dunning/internal/ingest"
	"github.com/smallbiznis/dunning/internal/observability"
	obsmiddleware "github.com/smallbiznis/dunning/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/dunning/internal/observability/metrics"
	obstracing "github.com/smallbiznis/dunning/internal/observability/tracing"
	"github.com/smallbiznis/dunning/internal/workspace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	ingest.Module,
	workspace.Module,
	collection.Module,
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics, maxUploadBytes int64) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware(obstracing.MiddlewareConfig{
		RecordWorkspaceID: obsCfg.SpanWorkspaceIDs,
		Attributes:        spanAttributes,
	}))
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())
	if maxUploadBytes > 0 {
		r.MaxMultipartMemory = maxUploadBytes
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, cfg config.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics, cfg.UploadMaxBytes)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	log        *zap.Logger
	svc        domain.Service
	parser     *ingest.Parser
	workspaces *workspace.Store
	cookies    *workspace.CookieManager
	clock      clock.Clock
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	Log        *zap.Logger
	Svc        domain.Service
	Parser     *ingest.Parser
	Workspaces *workspace.Store
	Cookies    *workspace.CookieManager
	Clock      clock.Clock
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		log:        p.Log.Named("http.server"),
		svc:        p.Svc,
		parser:     p.Parser,
		workspaces: p.Workspaces,
		cookies:    p.Cookies,
		clock:      p.Clock,
	}

	s.registerAPIRoutes()
	s.registerFallback()

	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Debt base --------
	debts := api.Group("/debts", s.WorkspaceContext())
	{
		debts.POST("", s.LimitUploadBody(1), s.LoadDebtBase)
		debts.GET("", s.GetDebtBase)
		debts.DELETE("", s.ReplaceDebtBase)
	}

	// -------- Cross-check --------
	api.POST("/crosscheck", s.WorkspaceContext(), s.LimitUploadBody(1), s.CrossCheck)
	api.GET("/report", s.WorkspaceContext(), s.GetReport)
	api.GET("/report.xlsx", s.WorkspaceContext(), s.DownloadReport(domain.ReportFormatXLSX))
	api.GET("/report.pdf", s.WorkspaceContext(), s.DownloadReport(domain.ReportFormatPDF))

	// -------- Contact lists --------
	api.POST("/contacts", s.LimitUploadBody(contactUploadFiles), s.ListContacts)
	api.POST("/contacts/export", s.LimitUploadBody(contactUploadFiles), s.ExportContacts)

	// -------- Workspace --------
	api.DELETE("/workspace", s.EndWorkspace)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
