package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/aeolive/competitor-cli/internal/catalog"
	"github.com/aeolive/competitor-cli/internal/model"
	"github.com/aeolive/competitor-cli/internal/store"
)

// DiscoverRequest is the POST /v1/discover body.
type DiscoverRequest struct {
	Domain string `json:"domain" validate:"required,max=253"`
}

// DiscoverResponse carries the plain suggestion list plus the tagged result.
type DiscoverResponse struct {
	Competitors []model.CompetitorRecord `json:"competitors"`
	Result      *model.DiscoveryResult   `json:"result"`
	RunID       string                   `json:"run_id,omitempty"`
}

// IndustryInfo summarises one catalog row.
type IndustryInfo struct {
	Name        string   `json:"name"`
	Weight      float64  `json:"weight"`
	Keywords    []string `json:"keywords"`
	Competitors int      `json:"competitors"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	var req DiscoverRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Domain = strings.TrimSpace(req.Domain)
	if err := s.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	res := s.discoverer.Discover(r.Context(), req.Domain)
	resp := DiscoverResponse{Competitors: res.Competitors, Result: res}

	if s.store != nil {
		run, err := s.store.RecordRun(r.Context(), res)
		if err != nil {
			zap.L().Warn("server: record run failed",
				zap.String("domain", res.Domain),
				zap.Error(err),
			)
		} else {
			resp.RunID = run.ID
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleIndustries(w http.ResponseWriter, _ *http.Request) {
	inds := s.cat.Industries()
	out := make([]IndustryInfo, 0, len(inds))
	for _, ind := range inds {
		n := s.cat.CompetitorCount(ind.Name)
		if ind.Name == catalog.HVACIndustry {
			n = len(s.cat.HVACNational())
		}
		out = append(out, IndustryInfo{
			Name:        ind.Name,
			Weight:      ind.Weight,
			Keywords:    ind.Keywords,
			Competitors: n,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"default_industry": s.cat.DefaultIndustry(),
		"industries":       out,
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, "run journal disabled")
		return
	}

	q := r.URL.Query()
	filter := store.RunFilter{
		Status:   model.DiscoveryStatus(q.Get("status")),
		Industry: q.Get("industry"),
	}
	var err error
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		writeError(w, http.StatusBadRequest, "offset must be a non-negative integer")
		return
	}

	runs, err := s.store.ListRuns(r.Context(), filter)
	if err != nil {
		zap.L().Error("server: list runs", zap.Error(err), zap.String("request_id", middleware.GetReqID(r.Context())))
		writeError(w, http.StatusInternalServerError, "list runs failed")
		return
	}
	if runs == nil {
		runs = []model.Run{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, "run journal disabled")
		return
	}

	id := chi.URLParam(r, "id")
	run, err := s.store.GetRun(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		zap.L().Error("server: get run", zap.String("run_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "get run failed")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New("invalid")
	}
	return n, nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "validation failed"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, strings.ToLower(fe.Field())+" failed "+fe.Tag())
	}
	return strings.Join(parts, "; ")
}
