package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	"github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"resume-match-go/internal/analysis"
	"resume-match-go/internal/api/handler"
	"resume-match-go/internal/api/router"
	"resume-match-go/internal/backend"
	"resume-match-go/internal/config"
	"resume-match-go/internal/fallback"
	appCoreLogger "resume-match-go/internal/logger"
	"resume-match-go/internal/outbox"
	"resume-match-go/internal/parser"
	"resume-match-go/internal/ratelimit"
	"resume-match-go/internal/storage"
	apptracing "resume-match-go/internal/tracing"
	"resume-match-go/internal/validation"
)

var (
	version     = "1.0.0"           //nolint:gochecknoglobals
	serviceName = "resume-match-go" //nolint:gochecknoglobals
)

// 分析锁的过期时间，需覆盖后端超时
const analyzeLockSlack = 30 * time.Second

func main() {
	// .env 不存在时忽略
	_ = godotenv.Load()

	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "Path to config file (默认依次查找 config.yaml, configs/config.yaml)")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		glog.Fatalf("加载配置失败: %v", err)
	}

	logCloser, err := appCoreLogger.Init(appCoreLogger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
		File:         cfg.Logger.File,
	})
	if err != nil {
		glog.Fatalf("初始化日志失败: %v", err)
	}
	if logCloser != nil {
		defer logCloser.Close()
	}
	glog.SetLogger(hertzadapter.From(appCoreLogger.Logger))
	glog.Info("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Tracing.Enabled {
		shutdownTracing, err := apptracing.InitProvider(ctx, apptracing.ProviderConfig{
			Endpoint:    cfg.Tracing.Endpoint,
			ServiceName: cfg.Tracing.ServiceName,
			Version:     version,
			SampleRatio: cfg.Tracing.SampleRatio,
		})
		if err != nil {
			glog.Warnf("初始化链路追踪失败，继续运行: %v", err)
		} else {
			defer func() {
				flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer flushCancel()
				_ = shutdownTracing(flushCtx)
			}()
			glog.Infof("链路追踪已启用，导出到 %s", cfg.Tracing.Endpoint)
		}
	}

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		glog.Fatalf("初始化存储失败: %v", err)
	}
	defer storageManager.Close()

	backendClient := backend.NewClient(cfg.Backend.URL,
		backend.WithTimeout(cfg.Backend.Timeout()),
		backend.WithUserAgent(cfg.Backend.UserAgent),
	)

	extractor, err := newExtractor(ctx, cfg)
	if err != nil {
		glog.Fatalf("初始化简历提取器失败: %v", err)
	}

	components := &analysis.Components{
		Validator: validation.NewValidator(validation.Config{
			MaxLocations:  cfg.Validation.MaxLocations,
			MaxPositions:  cfg.Validation.MaxPositions,
			MaxSkills:     cfg.Validation.MaxSkills,
			MaxJobTypes:   cfg.Validation.MaxJobTypes,
			Policy:        validation.Policy(cfg.Validation.OverflowPolicy),
			MaxFileSize:   cfg.Validation.MaxFileSize(),
			FilterUnknown: cfg.Validation.FilterUnknownEntries,
		}),
		Extractor: extractor,
		Backend:   backendClient,
	}
	if cfg.Backend.FallbackEnabled {
		components.Fallback = fallback.NewEngine()
		glog.Info("本地兜底分析已启用")
	}

	// 存储组件为nil时不能直接赋给接口字段
	if storageManager.Redis != nil {
		components.Sessions = storage.NewRedisSessionStore(storageManager.Redis)
		components.Locker = storage.NewAnalyzeLocker(storageManager.Redis, cfg.Backend.Timeout()+analyzeLockSlack)
		glog.Infof("会话保存在Redis，TTL %s", storageManager.Redis.SessionTTL())
	} else {
		glog.Info("会话保存在内存中，进程重启后丢失")
	}
	if storageManager.MinIO != nil {
		components.Uploader = storageManager.MinIO
	}
	if storageManager.MySQL != nil {
		components.DocumentDB = storageManager.MySQL
	}

	var relay *outbox.MessageRelay
	switch {
	case storageManager.MySQL != nil && storageManager.RabbitMQ != nil:
		components.Events = outbox.NewWriter(storageManager.MySQL.DB(),
			cfg.RabbitMQ.AnalysisEventsExchange, cfg.RabbitMQ.CompletedRoutingKey)
		relay = outbox.NewMessageRelay(storageManager.MySQL.DB(), storageManager.RabbitMQ)
		relay.Start()
		glog.Info("分析完成事件经由outbox投递")
	case storageManager.RabbitMQ != nil:
		components.Events = storageManager.RabbitMQ
		glog.Info("分析完成事件直接发布到RabbitMQ")
	}

	textRules := parser.TextRules{
		MinChars:       cfg.Extractor.MinResumeChars,
		MaxChars:       cfg.Extractor.MaxResumeChars,
		MinKeywordHits: cfg.Extractor.MinKeywordHits,
	}
	if cfg.Extractor.StrictText {
		textRules = parser.StrictTextRules()
	}
	service := analysis.NewService(components, &analysis.Settings{
		TextRules:        textRules,
		ResumeCollection: analysis.ResumeCollection,
	})

	analysisHandler := handler.NewAnalysisHandler(service, backendClient, storageManager)

	serverTracer, tracingCfg := tracing.NewServerTracer()
	h := server.Default(
		serverTracer,
		server.WithHostPorts(cfg.Server.Address),
		server.WithMaxRequestBodySize(cfg.Server.MaxRequestBodyMB*1024*1024),
		server.WithHandleMethodNotAllowed(true),
	)
	h.Use(tracing.ServerMiddleware(tracingCfg))

	var analyzeLimiter *ratelimit.TokenBucket
	if cfg.Server.AnalyzeRateQPM > 0 {
		analyzeLimiter = ratelimit.NewTokenBucket(cfg.Server.AnalyzeRateQPM, cfg.Server.AnalyzeBurst)
		glog.Infof("分析接口限流: %d 次/分钟", cfg.Server.AnalyzeRateQPM)
	}

	router.RegisterRoutes(h, analysisHandler, cfg.Server.APIKeys, analyzeLimiter)
	glog.Infof("HTTP 服务器启动中，监听地址: %s (%s %s)", cfg.Server.Address, serviceName, version)

	go func() {
		if err := h.Run(); err != nil {
			glog.Fatalf("启动HTTP服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("接收到终止信号，正在优雅退出...")

	if relay != nil {
		relay.Stop()
		glog.Info("消息中继服务已停止")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		glog.Errorf("服务器关闭失败: %v", err)
	}
	glog.Info("优雅退出完成")
}

// newExtractor 按配置选择PDF引擎
func newExtractor(ctx context.Context, cfg *config.Config) (*parser.Extractor, error) {
	opts := []parser.Option{
		parser.WithLinkExtraction(cfg.Extractor.ExtractPDFLinks),
		parser.WithLogger(appCoreLogger.Component("parser")),
	}
	if cfg.Extractor.PDFEngine == config.PDFEngineEino {
		einoExtractor, err := parser.NewEinoPDFExtractor(ctx)
		if err != nil {
			return nil, err
		}
		opts = append(opts, parser.WithPDFEngine(einoExtractor))
		glog.Info("使用Eino PDF解析器")
	} else {
		opts = append(opts, parser.WithPDFEngine(parser.NewLedongthucPDFExtractor()))
		glog.Info("使用ledongthuc PDF解析器")
	}
	return parser.NewExtractor(opts...), nil
}
