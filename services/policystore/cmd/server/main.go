package main

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iotaledger/access-server/pkg/db"
	"github.com/iotaledger/access-server/pkg/httpx"
	"github.com/iotaledger/access-server/pkg/tangle"
	"github.com/iotaledger/access-server/services/policystore/internal/cache"
	"github.com/iotaledger/access-server/services/policystore/internal/policy"
	"github.com/iotaledger/access-server/services/policystore/internal/store"
)

func main() {
	// .env is a development convenience; production injects real env vars.
	_ = godotenv.Load()

	logger := zerolog.New(os.Stderr).With().Timestamp().Str("service", "policystore").Logger()

	pool := db.MustConnect(os.Getenv("DATABASE_URL"))
	st := store.New(pool)

	nodeURL := os.Getenv("NODE_URL")
	if nodeURL == "" {
		logger.Fatal().Msg("NODE_URL is required")
	}
	address := os.Getenv("LEDGER_ADDRESS")
	if address == "" {
		logger.Fatal().Msg("LEDGER_ADDRESS is required")
	}

	node := tangle.NewNodeClient(nodeURL, nil)
	engine := &tangle.Engine{
		Client:       node,
		PollInterval: envDuration("CONFIRM_POLL_INTERVAL", 10*time.Second),
		MaxAttempts:  envInt("CONFIRM_MAX_ATTEMPTS", 0),
		Logger:       logger,
	}

	var docs *cache.Documents
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		docs = cache.New(redis.NewClient(opt), envDuration("CACHE_TTL", 0))
	}

	ctrl := &policy.Controller{
		Index:       st,
		Ledger:      node,
		Confirmer:   engine,
		Docs:        docs,
		Address:     address,
		DebugErrors: os.Getenv("DEBUG_ERRORS") == "true",
		Logger:      logger,
	}

	tcpPort := envString("TCP_PORT", "9998")
	go serveTCP(tcpPort, ctrl, logger)

	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Handle("/metrics", promhttp.Handler())
	r.Put("/policy", handlePolicy(ctrl, logger))

	restPort := envString("REST_PORT", "8080")
	logger.Info().Str("restPort", restPort).Str("tcpPort", tcpPort).Msg("policy store listening")
	if err := http.ListenAndServe(":"+restPort, r); err != nil {
		logger.Fatal().Err(err).Msg("rest server failed")
	}
}

func handlePolicy(ctrl *policy.Controller, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqID := httpx.NewRequestID()
		body, err := io.ReadAll(r.Body)
		if err != nil {
			httpx.WriteJSON(w, 400, httpx.Envelope(true, "Malformed JSON.", nil))
			return
		}
		req, err := policy.Decode(body)
		if err != nil {
			msg := "Malformed JSON."
			if policy.IsValidation(err) {
				msg = err.Error()
			}
			httpx.WriteJSON(w, 400, httpx.Envelope(true, msg, nil))
			return
		}

		res, err := ctrl.Dispatch(r.Context(), req)
		if err != nil {
			// Validation and duplicate rejections carry fixed, safe messages.
			logger.Info().Str("requestId", reqID).Str("cmd", string(req.Cmd)).Str("rejected", err.Error()).Msg("request rejected")
			httpx.WriteJSON(w, 400, httpx.Envelope(true, err.Error(), nil))
			return
		}

		status := 200
		if res.Err {
			status = 400
		}
		logger.Info().Str("requestId", reqID).Str("cmd", string(req.Cmd)).Bool("error", res.Err).Msg("request handled")
		httpx.WriteJSON(w, status, res.RenderREST())
	}
}

func serveTCP(port string, ctrl *policy.Controller, logger zerolog.Logger) {
	ln, err := net.Listen("tcp", ":"+port)
	if err != nil {
		logger.Fatal().Err(err).Msg("tcp server failed")
	}
	for {
		conn, err := ln.Accept()
		if err != nil {
			logger.Error().Err(err).Msg("accept failed")
			continue
		}
		go handleConn(conn, ctrl, logger)
	}
}

// handleConn serves one JSON request per connection: decode, dispatch, write
// the TCP-shaped response, close.
func handleConn(conn net.Conn, ctrl *policy.Controller, logger zerolog.Logger) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(5 * time.Minute))

	write := func(v any) {
		_ = json.NewEncoder(conn).Encode(v)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(conn).Decode(&raw); err != nil {
		write(map[string]any{"error": "Malformed JSON."})
		return
	}
	req, err := policy.Decode(raw)
	if err != nil {
		msg := "Malformed JSON."
		if policy.IsValidation(err) {
			msg = err.Error()
		}
		write(map[string]any{"error": msg})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	res, err := ctrl.Dispatch(ctx, req)
	if err != nil {
		write(map[string]any{"error": err.Error()})
		return
	}
	logger.Info().Str("cmd", string(req.Cmd)).Bool("error", res.Err).Msg("tcp request handled")
	write(res.RenderTCP())
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
