package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	InitLogger()

	cfg, err := LoadConfig(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		Log.WithError(err).Fatal("invalid configuration")
	}

	if cfg.DumpSchema {
		data, err := marshalProtocolSchema()
		if err != nil {
			Log.WithError(err).Fatal("schema generation failed")
		}
		os.Stdout.Write(data)
		return
	}

	db, err := OpenDB(cfg.DBPath)
	if err != nil {
		Log.WithError(err).WithField("path", cfg.DBPath).Fatal("open database")
	}
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	matches := NewMatchManager(cfg.Match, cfg.MaxMatches)
	go matches.Run(ctx)

	hub := NewHub(db, matches)
	go hub.Run()

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           SetupRoutes(hub, cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		Log.WithField("addr", cfg.Addr).Info("server starting")
		if cfg.ClientDir != "" {
			Log.WithField("dir", cfg.ClientDir).Info("serving client files")
		}
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			Log.WithError(err).Fatal("ListenAndServe")
		}
	}()

	<-ctx.Done()
	Log.Info("shutting down")
	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	server.Shutdown(shutdownCtx)
	matches.Shutdown()
	hub.Close()
}
