package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"fiodistbench/internal/server"
	"fiodistbench/internal/worker"
	"fiodistbench/internal/worker/runner"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()

	cfg, err := readWorkerConfig()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	runner := runner.New(cfg)
	go runner.Run(context.Background())

	router := chi.NewRouter()
	router.Use(middleware.CleanPath)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestLogger(
		&middleware.DefaultLogFormatter{
			Logger:  log.New(os.Stderr, "", log.LstdFlags),
			NoColor: true,
		},
	))
	router.Use(middleware.NoCache)
	router.Use(middleware.StripSlashes)
	router.Use(middleware.AllowContentType("application/json"))
	router.Use(middleware.Heartbeat("/ping"))

	metrics := prometheus.NewRegistry()
	h := server.NewHandler(runner)
	h.Metrics = metrics

	router.Get("/metrics", promhttp.HandlerFor(metrics, promhttp.HandlerOpts{}).ServeHTTP)
	h.RegisterRoutes(router)

	addr := getEnvOr("BENCHAGENT_ADDR", ":8080")
	fmt.Println("Listening on " + addr)
	defer fmt.Println("Goodbye!")
	return http.ListenAndServe(addr, router)
}

func getEnvOr(name, def string) string {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	return v
}

func parseEnv[T any](name string, or T, parser func(string) (T, error)) (T, error) {
	v := os.Getenv(name)
	if v == "" {
		return or, nil
	}
	parsed, err := parser(v)
	if err != nil {
		return or, fmt.Errorf("read env var %s: %w", name, err)
	}
	return parsed, nil
}

func readWorkerConfig() (worker.Config, error) {
	runtime, err := parseEnv("BENCHAGENT_RUNTIME", 3*time.Second, time.ParseDuration)
	if err != nil {
		return worker.Config{}, err
	}

	cfg := worker.Config{
		DataDir:  getEnvOr("BENCHAGENT_DATA_DIR", "/var/lib/benchagent"),
		Runtime:  runtime,
		FileSize: getEnvOr("BENCHAGENT_FILE_SIZE", "1G"),
	}
	return cfg, nil
}
