package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	// Nossos pacotes de infraestrutura e utilitários
	"sweetshop/config"
	"sweetshop/internal/pkg/cache"
	"sweetshop/internal/pkg/database"
	"sweetshop/internal/pkg/logger"
	"sweetshop/internal/pkg/metrics"
	"sweetshop/internal/pkg/token"

	// Camadas para Injeção de Dependências
	"sweetshop/internal/api/auth"
	"sweetshop/internal/api/router"
	"sweetshop/internal/api/sweet"
	"sweetshop/internal/domain"
	"sweetshop/internal/repository/memstore"
	"sweetshop/internal/repository/sweetrepo"
	"sweetshop/internal/repository/userrepo"
	"sweetshop/internal/service/sweetservice"
	"sweetshop/internal/service/userservice"
)

func main() {
	log.Println("⚡ Inicializando serviço SweetShop...")
	// As variáveis essenciais podem estar só no ambiente do sistema (ex: Docker).
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ Aviso: Arquivo .env não encontrado. Carregando configs apenas do ambiente do sistema.")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	appLog := logger.NewLogger(cfg.LogLevel)
	appLog.Info("Configurações carregadas.", map[string]interface{}{"env": cfg.Environment, "storage": cfg.StorageDriver})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	healthChecks := map[string]router.HealthCheck{}

	// 1. Armazenamento
	var (
		sweetRepo domain.SweetRepository
		userRepo  domain.UserRepository
	)
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		db, err := openDatabase(ctx, cfg, appLog)
		if err != nil {
			appLog.Fatal("Falha ao preparar o banco de dados.", err)
		}
		defer db.Close()

		sweetRepo = sweetrepo.NewSweetRepository(db, cfg.DBTimeout, appLog)
		userRepo = userrepo.NewUserRepository(db, cfg.DBTimeout, appLog)
		healthChecks["database"] = db.PingContext
	default:
		appLog.Warn("Usando armazenamento em memória; os dados não sobrevivem a reinícios.", nil)
		sweetRepo = memstore.NewSweetStore()
		userRepo = memstore.NewUserStore()
	}

	// 2. Cache (Redis), opcional
	var cacheClient cache.Client
	if cfg.RedisAddr != "" {
		cacheClient, err = cache.NewRedisClient(cfg.RedisAddr)
		if err != nil {
			appLog.Fatal("Falha ao conectar ao Redis.", err)
		}
		defer cacheClient.Close()

		sweetRepo = sweetrepo.NewCachedRepository(sweetRepo, cacheClient, cfg.CacheTTL, appLog, m)
		healthChecks["cache"] = cacheClient.Ping
		appLog.Info("Conexão Redis estabelecida.", map[string]interface{}{"addr": cfg.RedisAddr})
	}

	// 3. Repository -> Service -> Handler
	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)
	userSvc := userservice.NewService(userRepo, tokenSvc, appLog,
		userservice.WithAdminEmails(cfg.AdminEmails),
		userservice.WithMetrics(m),
	)
	sweetSvc := sweetservice.NewService(sweetRepo, appLog, m)

	handler := router.NewRouter(router.Deps{
		AuthHandler:  auth.NewHandler(userSvc, appLog),
		SweetHandler: sweet.NewHandler(sweetSvc, appLog),
		Verifier:     userSvc,
		Logger:       appLog,
		Cache:        cacheClient,
		Metrics:      m,
		HealthChecks: healthChecks,
	}, router.Options{
		EnforceAdminRole:   cfg.EnforceAdminRole,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitMax:       cfg.RateLimitMaxRequests,
		RateLimitPeriod:    cfg.RateLimitPeriod,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 4. Execução e Graceful Shutdown
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		appLog.Info("Servidor SweetShop ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		appLog.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		appLog.Error("Servidor encerrado com erro.", err)
		os.Exit(1)
	}
	appLog.Info("Servidor encerrado com sucesso.", nil)
}

// openDatabase conecta ao PostgreSQL e aplica as migrações quando AUTO_MIGRATE está ligado.
func openDatabase(ctx context.Context, cfg *config.Config, appLog logger.Logger) (*sql.DB, error) {
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	appLog.Info("Conexão PostgreSQL estabelecida.", nil)

	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		appLog.Info("Migrações aplicadas.", nil)
	}
	return db, nil
}
