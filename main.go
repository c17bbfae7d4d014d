// Command asciistereo serves a small web UI and JSON API for generating ASCII
// stereograms and keeps a history of past renders.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/browser"

	"github.com/stevecastle/asciistereo/appconfig"
	"github.com/stevecastle/asciistereo/auth"
	"github.com/stevecastle/asciistereo/history"
	"github.com/stevecastle/asciistereo/stream"
)

func main() {
	var (
		addr       = flag.String("addr", "", "listen address (default from config)")
		dbPath     = flag.String("db", "", "history database path (default from config)")
		configPath = flag.String("config", "", "config file (default in the user data directory)")
		openUI     = flag.Bool("open", false, "open the web UI in the default browser")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags]\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() > 0 {
		flag.Usage()
		os.Exit(2)
	}

	var (
		cfg  appconfig.Config
		path string
		err  error
	)
	if *configPath != "" {
		cfg, path, err = appconfig.LoadFrom(*configPath)
	} else {
		cfg, path, err = appconfig.Load()
	}
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Printf("Using config %s", path)
	if *addr != "" {
		cfg.ListenAddr = *addr
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	ttl, err := cfg.TokenDuration()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	appconfig.Set(cfg)

	// ––– history and auth share one database –––
	store, err := history.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open history database: %v", err)
	}
	defer store.Close()
	if n, err := store.Count(context.Background()); err == nil {
		log.Printf("History database %s opened. Stored renders: %d", cfg.DBPath, n)
	}

	authSvc, err := auth.NewService(store.DB(), cfg.JWTSecret)
	if err != nil {
		log.Fatalf("Failed to initialize auth: %v", err)
	}
	authSvc.SetTokenTTL(ttl)
	if err := authSvc.EnsureUser(cfg.AdminUser, cfg.AdminPassword); err != nil {
		log.Fatalf("Failed to create admin user: %v", err)
	}

	hub := stream.NewHub(0)
	s := newServer(store, authSvc, hub)

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		log.Fatalf("Failed to listen on %s: %v", cfg.ListenAddr, err)
	}
	srv := &http.Server{
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("asciistereo: %v", err)
		}
	}()

	url := "http://" + ln.Addr().String() + "/"
	log.Printf("Listening on %s", url)
	if *openUI {
		if err := browser.OpenURL(url); err != nil {
			log.Printf("Could not open browser: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Println("Shutting down...")
	hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	} else {
		log.Println("HTTP server shutdown complete")
	}
}
