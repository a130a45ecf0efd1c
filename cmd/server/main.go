package main

import (
	"context"
	"flag"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/gotoplanb/kzrk/internal/catalog"
	"github.com/gotoplanb/kzrk/internal/config"
	"github.com/gotoplanb/kzrk/internal/economy"
	"github.com/gotoplanb/kzrk/internal/room"
	"github.com/gotoplanb/kzrk/internal/server"
	"github.com/gotoplanb/kzrk/internal/store"
)

func main() {
	// Load environment variables from .env file if it exists
	_ = godotenv.Load()

	var (
		addr     = flag.String("addr", ":8080", "listen address")
		certFile = flag.String("cert", "", "Path to certificate file")
		keyFile  = flag.String("key", "", "Path to private key file")
	)
	flag.Parse()

	cfg := config.FromEnv()

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("load catalog: %v", err)
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer db.Close()

	econ := economy.NewPricer(cat, cfg, time.Now().UnixNano()^rand.Int63())
	mgr, err := room.NewManager(cfg, cat, econ, db)
	if err != nil {
		log.Fatalf("init manager: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go mgr.RunSweeper(ctx, cfg.GracePeriod/2)

	r := mux.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if req.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, req)
		})
	})
	server.New(mgr).Routes(r)

	srv := &http.Server{
		Addr:    *addr,
		Handler: r,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("kzrk server listening on %s (db=%s)", *addr, cfg.DBPath)
	if *certFile != "" && *keyFile != "" {
		err = srv.ListenAndServeTLS(*certFile, *keyFile)
	} else {
		err = srv.ListenAndServe()
	}
	if err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
