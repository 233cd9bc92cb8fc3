// Package http exposes the service surface as a JSON API.
package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Impersonality/daily-stock-analysis/internal/config"
	"github.com/Impersonality/daily-stock-analysis/pkg/models"
	"github.com/Impersonality/daily-stock-analysis/pkg/service"
)

type Server struct {
	analysis *service.AnalysisService
	market   *service.MarketService
	stocks   *config.EnvFile
	logger   service.Logger
}

func NewServer(
	analysis *service.AnalysisService,
	market *service.MarketService,
	stocks *config.EnvFile,
	logger service.Logger,
) *Server {
	return &Server{
		analysis: analysis,
		market:   market,
		stocks:   stocks,
		logger:   logger,
	}
}

// Router builds the chi router for the service surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/analysis", s.submitAnalysis)
		r.Get("/tasks", s.listTasks)
		r.Get("/tasks/{taskID}", s.getTask)
		r.Delete("/tasks/{taskID}", s.deleteTask)

		r.Get("/market/review", s.todayReview)
		r.Get("/market/reviews", s.listReviews)
		r.Get("/market/reviews/{date}", s.reviewByDate)

		r.Get("/config/stocks", s.getStockList)
		r.Put("/config/stocks", s.setStockList)
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type submitRequest struct {
	Code string `json:"code"`
}

func (s *Server) submitAnalysis(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		writeError(w, http.StatusBadRequest, "missing 'code'")
		return
	}
	receipt := s.analysis.SubmitAnalysis(req.Code)
	writeJSON(w, http.StatusAccepted, receipt)
}

type taskResponse struct {
	Found  bool               `json:"found"`
	Record *models.TaskRecord `json:"record,omitempty"`
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")
	rec, ok := s.analysis.GetTaskStatus(taskID)
	if !ok {
		writeJSON(w, http.StatusNotFound, taskResponse{Found: false})
		return
	}
	writeJSON(w, http.StatusOK, taskResponse{Found: true, Record: &rec})
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": s.analysis.DeleteTask(taskID)})
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	records := s.analysis.ListTasks(queryLimit(r))
	writeJSON(w, http.StatusOK, map[string]interface{}{"records": records})
}

func (s *Server) todayReview(w http.ResponseWriter, r *http.Request) {
	refresh := r.URL.Query().Get("refresh") == "true"
	rec := s.market.GetTodayReview(refresh)
	writeJSON(w, http.StatusOK, map[string]interface{}{"record": rec})
}

func (s *Server) listReviews(w http.ResponseWriter, r *http.Request) {
	records := s.market.ListReviews(queryLimit(r))
	writeJSON(w, http.StatusOK, map[string]interface{}{"records": records})
}

type reviewResponse struct {
	Found  bool                 `json:"found"`
	Record *models.ReportRecord `json:"record,omitempty"`
}

func (s *Server) reviewByDate(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	rec, ok := s.market.GetReviewByDate(date)
	if !ok {
		writeJSON(w, http.StatusNotFound, reviewResponse{Found: false})
		return
	}
	writeJSON(w, http.StatusOK, reviewResponse{Found: true, Record: &rec})
}

func (s *Server) getStockList(w http.ResponseWriter, r *http.Request) {
	list, err := s.stocks.StockList()
	if err != nil {
		s.logger.Errorf("read stock list: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to read stock list")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"stock_list": list})
}

type stockListRequest struct {
	StockList string `json:"stock_list"`
}

func (s *Server) setStockList(w http.ResponseWriter, r *http.Request) {
	var req stockListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	normalized, err := s.stocks.SetStockList(req.StockList)
	if err != nil {
		s.logger.Errorf("write stock list: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to write stock list")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"stock_list": normalized})
}

func queryLimit(r *http.Request) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
