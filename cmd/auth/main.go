package main

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sebastos1/auth/internal/app"
	"github.com/sebastos1/auth/internal/config"
	"github.com/sebastos1/auth/internal/csrf"
	httpx "github.com/sebastos1/auth/internal/http"
	"github.com/sebastos1/auth/internal/http/router"
	jwtx "github.com/sebastos1/auth/internal/jwt"
	"github.com/sebastos1/auth/internal/observability/logger"
	"github.com/sebastos1/auth/internal/security/password"
	tokens "github.com/sebastos1/auth/internal/security/token"
	"github.com/sebastos1/auth/internal/store/core"
	"github.com/sebastos1/auth/internal/store/memory"
	"github.com/sebastos1/auth/internal/store/pg"
)

func main() {
	// .env es opcional, las vars reales pisan el archivo.
	_ = godotenv.Load()

	var cfgPath string

	root := &cobra.Command{
		Use:   "auth",
		Short: "Servidor de autorización OAuth2/OIDC",
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", envOr("AUTH_CONFIG", "config.yaml"), "ruta del config YAML")

	root.AddCommand(serveCmd(&cfgPath))
	root.AddCommand(migrateCmd(&cfgPath))
	root.AddCommand(seedCmd(&cfgPath))
	root.AddCommand(keygenCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); err != nil {
		// sin YAML: defaults + entorno
		return config.Load("")
	}
	return config.Load(path)
}

// ─────────────── serve ───────────────

func serveCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return err
			}

			logger.Init(logger.Config{
				Env:         cfg.App.Env,
				Level:       cfg.Log.Level,
				ServiceName: "auth",
			})
			defer func() { _ = logger.Sync() }()
			log := logger.Named("serve")

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// Store
			var (
				store   core.Repository
				pgStore *pg.Store
			)
			switch cfg.Storage.Driver {
			case "pg":
				pgStore, err = pg.New(ctx, cfg.Storage.DSN, pg.Options{
					MaxConns:        int32(cfg.Storage.Postgres.MaxConns),
					MinConns:        int32(cfg.Storage.Postgres.MinConns),
					ConnMaxLifetime: cfg.ConnMaxLifetime(),
				})
				if err != nil {
					return fmt.Errorf("pg connect: %w", err)
				}
				defer pgStore.Close()
				store = pgStore
			case "memory":
				store = memory.New()
				log.Warn("using in-memory store, data will not survive restarts")
			}

			// CSRF store
			var (
				csrfStore  csrf.Store
				checkRedis func(ctx context.Context) error
			)
			switch cfg.CSRF.Kind {
			case "redis":
				rdb := redis.NewClient(&redis.Options{
					Addr: cfg.CSRF.Redis.Addr,
					DB:   cfg.CSRF.Redis.DB,
				})
				defer func() { _ = rdb.Close() }()
				csrfStore = csrf.NewRedisStore(rdb, cfg.CSRFTTL(), cfg.CSRF.Redis.Prefix)
				checkRedis = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
			default:
				csrfStore = csrf.NewMemoryStore(cfg.CSRFTTL())
			}

			// Llaves RSA e issuer
			keys, err := jwtx.LoadKeys(cfg.JWT.PrivateKeyPath, cfg.JWT.PublicKeyPath)
			if err != nil {
				return fmt.Errorf("load keys: %w", err)
			}
			issuer := jwtx.NewIssuer(cfg.JWT.Issuer, keys)
			issuer.IDTokenTTL = cfg.IDTokenTTL()

			container := &app.Container{
				Store:     store,
				Issuer:    issuer,
				Passwords: password.NewHasher(cfg.Security.PasswordPepper),
				CSRF:      csrfStore,
			}

			metricsCfg := httpx.MetricsConfig{}
			if pgStore != nil {
				metricsCfg.Pool = pgStore.Pool
			}
			metricsHandler, err := httpx.RegisterMetrics(metricsCfg)
			if err != nil {
				return fmt.Errorf("register metrics: %w", err)
			}

			handler := router.New(router.Deps{
				Container:      container,
				MetricsHandler: metricsHandler,
				CheckRedis:     checkRedis,
			})

			srv := httpx.NewServer(cfg.Server.Addr, handler, httpx.Options{
				ReadTimeout:  cfg.ReadTimeout(),
				WriteTimeout: cfg.WriteTimeout(),
			})

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				log.Info("listening", logger.String("addr", cfg.Server.Addr), logger.String("env", cfg.App.Env))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				log.Info("shutting down")
				return httpx.Shutdown(srv, cfg.ShutdownTimeout())
			})

			return g.Wait()
		},
	}
}

// ─────────────── migrate ───────────────

func migrateCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica el esquema en Postgres (idempotente)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return err
			}
			if cfg.Storage.Driver != "pg" {
				return errors.New("migrate requires storage.driver=pg")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			store, err := pg.New(ctx, cfg.Storage.DSN, pg.Options{})
			if err != nil {
				return fmt.Errorf("pg connect: %w", err)
			}
			defer store.Close()

			if err := store.Migrate(ctx); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Println("schema up to date")
			return nil
		},
	}
}

// ─────────────── seed ───────────────

// seedClients son los clients de primera arrancada. El secret se
// genera por corrida y se imprime una sola vez.
func seedCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Crea los OAuth clients iniciales si no existen",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return err
			}
			if cfg.Storage.Driver != "pg" {
				return errors.New("seed requires storage.driver=pg")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			store, err := pg.New(ctx, cfg.Storage.DSN, pg.Options{})
			if err != nil {
				return fmt.Errorf("pg connect: %w", err)
			}
			defer store.Close()

			seeds := []core.Client{
				{
					ClientID:          "sjallabong-main",
					Name:              "Sjallabong",
					RedirectURIs:      []string{"https://sjallabong.eu/auth/callback"},
					AllowedScopes:     []string{"openid", "profile", "email"},
					AuthorizedOrigins: []string{"https://sjallabong.eu", "http://localhost:5173"},
				},
				{
					ClientID:          "sjallabong-pool",
					Name:              "Sjallabong Pool",
					RedirectURIs:      []string{"https://sjallabong.eu/auth/callback"},
					AllowedScopes:     []string{"openid", "profile"},
					AuthorizedOrigins: []string{"https://pool.sjallabong.eu", "http://localhost:8080"},
				},
				{
					ClientID:          "chattabong",
					Name:              "Chattabong",
					RedirectURIs:      []string{"https://sjallabong.eu/auth/callback", "http://localhost:5173/auth/callback"},
					AllowedScopes:     []string{"openid", "profile", "roles"},
					AuthorizedOrigins: []string{"https://sjallabong.eu", "http://localhost:5173"},
				},
			}

			for i := range seeds {
				cl := seeds[i]
				if _, err := store.GetClientByID(ctx, cl.ClientID); err == nil {
					fmt.Printf("client %s already exists, skipping\n", cl.ClientID)
					continue
				} else if !errors.Is(err, core.ErrNotFound) {
					return err
				}

				secret, err := tokens.GenerateOpaqueToken(32)
				if err != nil {
					return err
				}
				cl.ClientSecret = secret
				cl.CreatedAt = time.Now().UTC()

				if err := store.CreateClient(ctx, &cl); err != nil {
					return fmt.Errorf("create client %s: %w", cl.ClientID, err)
				}
				fmt.Printf("created client %s secret=%s\n", cl.ClientID, secret)
			}
			return nil
		},
	}
}

// ─────────────── keygen ───────────────

func keygenCmd() *cobra.Command {
	var (
		outDir string
		bits   int
	)
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Genera el par RSA para firmar id_tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.MkdirAll(outDir, 0o700); err != nil {
				return err
			}

			key, err := rsa.GenerateKey(rand.Reader, bits)
			if err != nil {
				return err
			}

			privPath := outDir + "/private.pem"
			pubPath := outDir + "/public.pem"

			privDER, err := x509.MarshalPKCS8PrivateKey(key)
			if err != nil {
				return err
			}
			privPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER})
			if err := os.WriteFile(privPath, privPEM, 0o600); err != nil {
				return err
			}

			pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
			if err != nil {
				return err
			}
			pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
			if err := os.WriteFile(pubPath, pubPEM, 0o644); err != nil {
				return err
			}

			fmt.Printf("wrote %s and %s\n", privPath, pubPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "keys", "directorio de salida")
	cmd.Flags().IntVar(&bits, "bits", 2048, "tamaño de la llave RSA")
	return cmd
}
