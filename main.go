package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"Sismik/internal/applog"
	"Sismik/internal/auth"
	"Sismik/internal/cache"
	"Sismik/internal/config"
	"Sismik/internal/export"
	"Sismik/internal/files"
	"Sismik/internal/importer"
	"Sismik/internal/perf"
	"Sismik/internal/project"
	"Sismik/internal/report"
	"Sismik/internal/repo"
	"Sismik/internal/store"
)

var (
	wg  sync.WaitGroup
	log = applog.New("main")
)

func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// HandleList mounts the API and the static frontend on router.
func HandleList(router *mux.Router, cfg *config.Config, r repo.Repository) {
	st := store.New(r, cache.New[interface{}](cfg.Cache.TTL()), cfg.Cache.TTL())

	authEnv := &auth.Env{JWTKey: []byte(cfg.Auth.TokenKey), TokenTTL: cfg.Auth.TokenTTL(), Users: r}
	limiter := auth.NewIPRateLimiter(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst)

	projectH := &project.Handler{Store: st}
	perfH := &perf.Handler{Source: st}
	importH := &importer.Handler{Store: st}
	exportH := &export.Handler{Source: st}
	reportH := &report.Handler{Store: st}
	filesH := &files.Handler{Store: st, Dir: cfg.Storage.UploadDir, MaxSize: int64(cfg.Storage.MaxUploadMB) << 20}

	api := router.PathPrefix("/api").Subrouter()
	api.Use(limiter.LimitMiddleware)

	api.HandleFunc("/register", authEnv.RegisterHandler).Methods("POST")
	api.HandleFunc("/login", authEnv.LoginHandler).Methods("POST")
	api.HandleFunc("/logout", authEnv.LogoutHandler).Methods("POST")

	secureApi := api.PathPrefix("/user").Subrouter()
	secureApi.Use(authEnv.Middleware)

	secureApi.HandleFunc("/projects", projectH.List).Methods("GET")
	secureApi.HandleFunc("/projects", projectH.Create).Methods("POST")
	secureApi.HandleFunc("/projects/{id:[0-9]+}", projectH.Get).Methods("GET")
	secureApi.HandleFunc("/projects/{id:[0-9]+}", projectH.Delete).Methods("DELETE")
	secureApi.HandleFunc("/projects/{id:[0-9]+}/versions", projectH.Versions).Methods("GET")
	secureApi.HandleFunc("/projects/{id:[0-9]+}/versions", projectH.CreateVersion).Methods("POST")

	version := secureApi.PathPrefix("/projects/{id:[0-9]+}/versions/{v:[0-9]+}").Subrouter()
	version.HandleFunc("/current", projectH.SetCurrent).Methods("PUT")
	version.HandleFunc("/results", importH.Upload).Methods("POST")
	version.HandleFunc("/results", importH.List).Methods("GET")
	version.HandleFunc("/performance", perfH.Evaluate).Methods("GET", "POST")
	version.HandleFunc("/export.csv", exportH.CSV).Methods("GET")
	version.HandleFunc("/export.xlsx", exportH.XLSX).Methods("GET")
	version.HandleFunc("/report.pdf", reportH.Generate).Methods("GET")
	version.HandleFunc("/files", filesH.Upload).Methods("POST")
	version.HandleFunc("/files", filesH.List).Methods("GET")

	secureApi.HandleFunc("/files/{fileID}", filesH.Download).Methods("GET")

	router.PathPrefix("/").Handler(http.FileServer(http.Dir(cfg.Server.StaticDir)))
}

// openRepository connects to Postgres, or keeps everything in memory when
// DATABASE_URL is "memory".
func openRepository(ctx context.Context, cfg config.DatabaseConfig) (repo.Repository, func(), error) {
	if cfg.URL == "memory" {
		log.Info("using in-memory repository")
		return repo.NewMemory(), func() {}, nil
	}
	db, err := repo.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	pg := repo.NewPostgres(db)
	if err := pg.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return pg, func() { db.Close() }, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	applog.Init(cfg.Debug)
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	r, closeRepo, err := openRepository(ctx, cfg.Database)
	if err != nil {
		log.Fatal(err)
	}
	defer closeRepo()

	router := mux.NewRouter()
	HandleList(router, cfg, r)

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handlers.LoggingHandler(os.Stdout, CORS(router)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("starting server", "addr", cfg.Server.Addr, "tls", cfg.Server.TLS())
		var err error
		if cfg.Server.TLS() {
			err = server.ListenAndServeTLS(cfg.Server.CertFile, cfg.Server.KeyFile)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			log.PrintErr("server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.PrintErr("shutdown", "err", err)
	}
	wg.Wait()
	log.Info("server stopped")
}
