package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/eventhive-services/common/config"
	"github.com/eventhive-services/common/db"
	"github.com/eventhive-services/common/idempotency"
	"github.com/eventhive-services/common/jwt"
	"github.com/eventhive-services/common/logger"
	"github.com/eventhive-services/common/scheduler"
	bookingHandler "github.com/eventhive-services/services/booking-lambda/handler"
	eventHandler "github.com/eventhive-services/services/event-lambda/handler"
	eventRepository "github.com/eventhive-services/services/event-lambda/repository"
	eventUseCase "github.com/eventhive-services/services/event-lambda/usecase"
)

// lambdaRoute is the signature every service Route shares.
type lambdaRoute func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// Adapter converts http.Request to APIGatewayProxyRequest
func adaptRequest(r *http.Request) (events.APIGatewayProxyRequest, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return events.APIGatewayProxyRequest{}, err
	}
	defer r.Body.Close()

	headers := make(map[string]string)
	for key, values := range r.Header {
		if len(values) > 0 {
			headers[key] = values[0]
		}
	}

	queryParams := make(map[string]string)
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			queryParams[key] = values[0]
		}
	}

	return events.APIGatewayProxyRequest{
		HTTPMethod:            r.Method,
		Path:                  r.URL.Path,
		Headers:               headers,
		QueryStringParameters: queryParams,
		Body:                  string(body),
	}, nil
}

// writeResponse writes APIGatewayProxyResponse to http.ResponseWriter
func writeResponse(w http.ResponseWriter, resp events.APIGatewayProxyResponse) {
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}

	body := []byte(resp.Body)
	if resp.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(resp.Body)
		if err != nil {
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
			return
		}
		body = decoded
	}

	w.WriteHeader(resp.StatusCode)
	w.Write(body)
}

// corsMiddleware handles CORS preflight requests
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization,Idempotency-Key")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder keeps the status code for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int64
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	n, err := s.ResponseWriter.Write(b)
	s.size += int64(n)
	return n, err
}

// requestLogMiddleware tags every request with an X-Request-Id and logs it.
func requestLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(logger.ContextWithRequestID(r.Context(), requestID)))

		logger.Default().LogRequest(logger.RequestLog{
			Method:       r.Method,
			Path:         r.URL.Path,
			Status:       rec.status,
			Duration:     time.Since(start),
			ClientIP:     r.RemoteAddr,
			UserAgent:    r.UserAgent(),
			RequestID:    requestID,
			RequestSize:  r.ContentLength,
			ResponseSize: rec.size,
		})
	})
}

// lambdaHandler serves a Lambda Route behind net/http.
func lambdaHandler(route lambdaRoute) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := adaptRequest(r)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}

		resp, err := route(r.Context(), req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeResponse(w, resp)
	})
}

// healthHandler reports database and Redis reachability.
func healthHandler(redisStore *idempotency.RedisStore) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{"status": "healthy", "database": "up"}
		code := http.StatusOK
		if err := db.GetDB().PingContext(ctx); err != nil {
			status["status"], status["database"] = "unhealthy", "down"
			code = http.StatusServiceUnavailable
		}
		if redisStore != nil {
			status["redis"] = "up"
			if err := redisStore.Ping(ctx); err != nil {
				status["status"], status["redis"] = "unhealthy", "down"
				code = http.StatusServiceUnavailable
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(status)
	})
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}
	jwt.SetSecret(cfg.JWTSecret)

	logger.Info("Connecting to MySQL database...")
	if err := db.InitDB(cfg); err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}
	defer db.CloseDB()
	logger.Info("Database connected successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.DBAutoMigrate {
		if err := db.InitializeSchema(ctx, db.GetDB()); err != nil {
			logger.Fatal("Failed to initialize schema: %v", err)
		}
		logger.Info("Schema initialized")
	}

	var (
		idem       idempotency.Store
		redisStore *idempotency.RedisStore
	)
	if cfg.RedisURL != "" {
		client, err := idempotency.NewRedisClient(cfg.RedisURL)
		if err != nil {
			logger.Fatal("Failed to configure Redis: %v", err)
		}
		defer client.Close()
		redisStore = idempotency.NewRedisStore(client, cfg.IdempotencyTTL)
		idem = redisStore
		logger.Info("Idempotency-Key support enabled")
	} else {
		logger.Warn("REDIS_URL not set, Idempotency-Key headers are ignored")
	}

	bookingH, err := bookingHandler.NewBookingHandlerFromDB(cfg, db.GetDB(), idem)
	if err != nil {
		logger.Fatal("Failed to create booking handler: %v", err)
	}
	eventH := eventHandler.NewEventHandler(eventUseCase.NewEventUseCase(eventRepository.NewEventRepository(db.GetDB())))

	mux := http.NewServeMux()
	// ======================= BOOKING ROUTES =======================
	mux.Handle("/api/bookings", lambdaHandler(bookingH.Route))
	mux.Handle("/api/bookings/", lambdaHandler(bookingH.Route))
	// ======================= EVENT ROUTES =======================
	mux.Handle("/api/events", lambdaHandler(eventH.Route))
	mux.Handle("/api/events/", lambdaHandler(eventH.Route))
	mux.Handle("/api/category-tickets", lambdaHandler(eventH.Route))
	// ======================= OPS =======================
	mux.Handle("/health", healthHandler(redisStore))
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           requestLogMiddleware(corsMiddleware(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	fmt.Printf("\n========================================\n")
	fmt.Printf("EventHive backend running on http://localhost:%s\n", cfg.Port)
	fmt.Printf("========================================\n")
	fmt.Printf("Booking Service:\n")
	fmt.Printf("  POST /api/bookings                  - Create booking (Idempotency-Key optional)\n")
	fmt.Printf("  GET  /api/bookings/my-bookings      - My bookings\n")
	fmt.Printf("  GET  /api/bookings/{id}             - Booking detail\n")
	fmt.Printf("  GET  /api/bookings/{id}/ticket      - Ticket PDF\n")
	fmt.Printf("  POST /api/bookings/check-in         - Check in by scanned token\n")
	fmt.Printf("  POST /api/bookings/check-in/{id}    - Check in by booking id\n")
	fmt.Printf("Event Service:\n")
	fmt.Printf("  GET  /api/events                    - Published events\n")
	fmt.Printf("  GET  /api/events/featured           - Featured events\n")
	fmt.Printf("  GET  /api/events/categories         - Categories\n")
	fmt.Printf("  GET  /api/events/my-events          - Organizer's own events\n")
	fmt.Printf("  GET  /api/events/{id}               - Event detail\n")
	fmt.Printf("  GET  /api/category-tickets?eventId= - Ticket types\n")
	fmt.Printf("Ops:\n")
	fmt.Printf("  GET  /health\n")
	fmt.Printf("  GET  /metrics\n")
	fmt.Printf("========================================\n\n")

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// ======================= START SCHEDULER =======================
	g.Go(func() error {
		return scheduler.NewPromoExpiryScheduler(db.GetDB(), cfg.PromoSweepInterval).Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("Shutting down server...")
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped: %v", err)
	}
}
