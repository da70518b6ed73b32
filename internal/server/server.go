package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"auto_briefing/internal/aggregator"
	"auto_briefing/internal/briefing"
	"auto_briefing/internal/config"
	"auto_briefing/internal/logger"
	"auto_briefing/internal/metrics"
	"auto_briefing/internal/middleware"
	"auto_briefing/internal/models"
	"auto_briefing/internal/sources"
	"auto_briefing/internal/telegram"
)

const maxBodyBytes = 1 << 20

// ArticleSource выполняет один проход агрегации.
type ArticleSource interface {
	Aggregate(ctx context.Context, limit int) ([]models.Article, error)
}

// MessageSender доставляет готовую сводку в Telegram.
type MessageSender interface {
	Send(ctx context.Context, msg telegram.Message) error
}

// Server хранит зависимости HTTP-обработчиков.
type Server struct {
	cfg      *config.Config
	articles ArticleSource
	sender   MessageSender
	registry *sources.Registry
	metrics  *metrics.Metrics
}

// NewServer создаёт новый экземпляр Server. metrics может быть nil.
func NewServer(cfg *config.Config, articles ArticleSource, sender MessageSender, registry *sources.Registry, m *metrics.Metrics) *Server {
	return &Server{
		cfg:      cfg,
		articles: articles,
		sender:   sender,
		registry: registry,
		metrics:  m,
	}
}

// Routes регистрирует обработчики и оборачивает их в middleware.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/sources", s.GetArticles)
	mux.HandleFunc("GET /api/registry", s.GetRegistry)
	mux.HandleFunc("POST /api/briefing", s.ComposeBriefing)
	mux.HandleFunc("POST /api/telegram", s.SendTelegram)
	mux.HandleFunc("GET /health", s.HealthCheck)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	handler := middleware.LoggingMiddleware(mux)
	return middleware.RequestIDMiddleware(handler)
}

// HealthCheck всегда отвечает 200 OK: у сервиса нет обязательных внешних зависимостей.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("OK"))
}

// GetArticles возвращает {"articles": [...]} — не более limit свежих статей.
func (s *Server) GetArticles(w http.ResponseWriter, r *http.Request) {
	limit := aggregator.ClampLimit(r.URL.Query().Get("limit"), s.cfg.DefaultLimit, s.cfg.MaxLimit)

	articles, err := s.articles.Aggregate(r.Context(), limit)
	if err != nil {
		logger.Log.WithField("request_id", middleware.RequestID(r.Context())).Errorf("Aggregation failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load articles.")
		return
	}
	if articles == nil {
		articles = []models.Article{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"articles": articles})
}

// GetRegistry возвращает список настроенных источников.
func (s *Server) GetRegistry(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"sources": s.registry.All()})
}

type briefingRequest struct {
	Articles []models.Article `json:"articles"`
	Note     string           `json:"note"`
}

// ComposeBriefing собирает текст сводки из выбранных статей.
func (s *Server) ComposeBriefing(w http.ResponseWriter, r *http.Request) {
	var req briefingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid payload.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"text": briefing.Compose(req.Note, req.Articles)})
}

// SendTelegram пересылает сводку в Bot API и возвращает ошибку провайдера как есть.
func (s *Server) SendTelegram(w http.ResponseWriter, r *http.Request) {
	var msg telegram.Message
	if err := decodeJSON(w, r, &msg); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid payload.")
		return
	}

	err := s.sender.Send(r.Context(), msg)

	var validation *telegram.ValidationError
	var delivery *telegram.DeliveryError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, validation.Message)
	case errors.As(err, &delivery):
		writeError(w, http.StatusBadGateway, delivery.Description)
	default:
		writeError(w, http.StatusInternalServerError, "Failed to contact Telegram.")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Errorf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
