package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resume-parser-go/internal/api/handler"
	"resume-parser-go/internal/api/router"
	"resume-parser-go/internal/config"
	"resume-parser-go/internal/constants"
	"resume-parser-go/internal/logger"
	"resume-parser-go/internal/outbox"
	"resume-parser-go/internal/processor"
	"resume-parser-go/internal/storage"
	"resume-parser-go/internal/tracing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

var version = "1.0.0" //nolint:gochecknoglobals

func main() {
	var configPath string
	var apiOnly, workerOnly bool
	pflag.StringVarP(&configPath, "config", "c", "", "配置文件路径，为空时自动查找")
	pflag.BoolVar(&apiOnly, "api-only", false, "只启动HTTP服务")
	pflag.BoolVar(&workerOnly, "worker-only", false, "只启动消费者和outbox中继")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("加载配置失败")
	}
	if err := cfg.Validate(); err != nil {
		logger.Logger.Fatal().Err(err).Msg("配置无效")
	}

	logger.Init(cfg.Logger)
	logger.SetupHertz()
	log := logger.Component("main")
	log.Info().Str("version", version).Str("parser_version", constants.ParserVersion).Msg("启动简历解析服务")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.InitProvider(ctx, tracing.ProviderConfig{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		ServiceName: cfg.Tracing.ServiceName,
		Version:     version,
		SampleRatio: cfg.Tracing.SampleRatio,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("初始化追踪失败")
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn().Err(err).Msg("关闭追踪失败")
		}
	}()

	store, err := storage.NewStorage(ctx, cfg, logger.Component("storage"))
	if err != nil {
		log.Fatal().Err(err).Msg("初始化存储失败")
	}
	defer store.Close()
	if store.MinIO == nil || store.MySQL == nil || store.RabbitMQ == nil {
		log.Fatal().Msg("MinIO、MySQL 和 RabbitMQ 都必须可用")
	}

	proc, err := buildProcessor(ctx, cfg, store)
	if err != nil {
		log.Fatal().Err(err).Msg("初始化处理器失败")
	}

	g, gctx := errgroup.WithContext(ctx)

	if !workerOnly {
		h := newHTTPServer(cfg, proc, store)
		g.Go(func() error {
			log.Info().Str("address", cfg.Server.Address).Msg("HTTP 服务器启动")
			return h.Run()
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return h.Shutdown(shutdownCtx)
		})
	}

	if !apiOnly {
		workers := cfg.RabbitMQ.Workers("bg_consumer_workers", 5)
		g.Go(func() error {
			log.Info().Int("workers", workers).Str("queue", cfg.RabbitMQ.BGXMLReadyQueue).Msg("启动BG XML消费者")
			return store.RabbitMQ.StartConsumer(gctx, cfg.RabbitMQ.BGXMLReadyQueue, cfg.RabbitMQ.PrefetchCount, workers, proc.HandleMessage)
		})

		relay := outbox.NewMessageRelay(store.MySQL.DB(), store.RabbitMQ, logger.Component("outbox"))
		g.Go(func() error { return relay.Run(gctx) })
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("服务异常退出")
		return
	}
	log.Info().Msg("优雅退出完成")
}

func buildProcessor(ctx context.Context, cfg *config.Config, store *storage.Storage) (*processor.ResumeProcessor, error) {
	procLogger := logger.Component("processor")

	extractor, err := processor.BuildTextExtractor(ctx, cfg.Tika, logger.Component("extractor"))
	if err != nil {
		return nil, err
	}
	miner, err := processor.BuildSkillMiner(cfg.Parser)
	if err != nil {
		return nil, err
	}

	comp := processor.Components{
		Objects:       store.MinIO,
		Repo:          store.MySQL,
		Publisher:     store.RabbitMQ,
		TextExtractor: extractor,
		SkillMiner:    miner,
	}
	// Redis 不可用时不缓存也不去重
	if store.Redis != nil {
		comp.Cache = store.Redis
		comp.Locker = store.Redis
		comp.Deduper = store.Redis
	} else {
		procLogger.Warn().Msg("Redis 不可用，关闭解析缓存和去重")
	}

	return processor.NewResumeProcessor(comp, processor.SettingsFromConfig(cfg, procLogger)), nil
}

func newHTTPServer(cfg *config.Config, proc *processor.ResumeProcessor, store *storage.Storage) *server.Hertz {
	tracer, tracerCfg := hertztracing.NewServerTracer()
	maxBody := cfg.Server.MaxUploadMB
	if maxBody <= 0 {
		maxBody = 32
	}
	h := server.New(
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
		server.WithMaxRequestBodySize(maxBody<<20+1<<20),
		tracer,
	)
	h.Use(hertztracing.ServerMiddleware(tracerCfg))
	h.Use(func(c context.Context, ctx *app.RequestContext) {
		start := time.Now()
		ctx.Next(c)
		hlog.CtxInfof(c, "%s %s status=%d latency=%s", ctx.Method(), ctx.Path(), ctx.Response.StatusCode(), time.Since(start))
	})

	resumeHandler := handler.NewResumeHandler(proc, store, cfg.Server.MaxUploadMB)
	router.RegisterRoutes(h, resumeHandler, cfg.Server.APIKeys)
	return h
}
