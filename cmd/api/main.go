// Package main provides the HTTP API server for looking up scored payments.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jnst/fraud-scoring-pipeline/internal/config"
	"github.com/jnst/fraud-scoring-pipeline/internal/logger"
	"github.com/jnst/fraud-scoring-pipeline/internal/model"
	"github.com/jnst/fraud-scoring-pipeline/internal/repository"
	"github.com/jnst/fraud-scoring-pipeline/internal/service"
)

const (
	contentTypeJSON        = "Content-Type"
	applicationJSON        = "application/json"
	failedToEncodeResponse = "failed to encode response"
	decimalBase            = 10
	int64BitSize           = 64
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 10 * time.Second
	exitCode               = 1
)

// APIServer handles HTTP requests for scored payment lookups.
type APIServer struct {
	paymentService service.PaymentService
}

// NewAPIServer creates a new API server instance.
func NewAPIServer(paymentService service.PaymentService) *APIServer {
	return &APIServer{
		paymentService: paymentService,
	}
}

// Routes registers the API endpoints on a new mux.
func (s *APIServer) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/payments/get", s.GetPayment)
	mux.HandleFunc("/health", s.HealthCheck)

	return mux
}

// GetPayment handles GET /payments/get endpoint for scored payment retrieval.
func (s *APIServer) GetPayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	idStr := r.URL.Query().Get("id")
	if idStr == "" {
		http.Error(w, "ID parameter is required", http.StatusBadRequest)
		return
	}

	id, err := strconv.ParseInt(idStr, decimalBase, int64BitSize)
	if err != nil {
		http.Error(w, "Invalid ID parameter", http.StatusBadRequest)
		return
	}

	payment, err := s.paymentService.GetPayment(r.Context(), id)
	if err != nil {
		if errors.Is(err, model.ErrPaymentNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		slog.Error("failed to get payment", slog.Int64("id", id), slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)

		return
	}

	w.Header().Set(contentTypeJSON, applicationJSON)
	if err := json.NewEncoder(w).Encode(payment); err != nil {
		http.Error(w, failedToEncodeResponse, http.StatusInternalServerError)
		return
	}
}

// HealthCheck handles GET /health endpoint for service health check.
func (*APIServer) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set(contentTypeJSON, applicationJSON)
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok"}); err != nil {
		http.Error(w, failedToEncodeResponse, http.StatusInternalServerError)
		return
	}
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(exitCode)
	}

	slog.SetDefault(logger.Setup(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := repository.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(exitCode)
	}
	defer closeRepo()

	server := NewAPIServer(service.NewPaymentServiceImpl(repo))

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Routes(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	slog.Info("starting API server", slog.String("service", "api"), slog.String("port", cfg.Port))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()

		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("API server stopped", slog.String("error", err.Error()))
		return
	}

	slog.Info("API server stopped")
}
