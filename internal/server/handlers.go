package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/house-rocket/internal/geo"
	"github.com/sells-group/house-rocket/internal/insight"
	"github.com/sells-group/house-rocket/internal/model"
	"github.com/sells-group/house-rocket/internal/pipeline"
	"github.com/sells-group/house-rocket/internal/store"
)

// LatLong is a map position.
type LatLong struct {
	Lat  float64 `json:"lat"`
	Long float64 `json:"long"`
}

// RecommendationsResponse is the buy table with its sidebar summary.
type RecommendationsResponse struct {
	Summary insight.Summary  `json:"summary"`
	Rows    []insight.BuyRow `json:"rows"`
}

// ProfitResponse is the resale table with its sidebar summary.
type ProfitResponse struct {
	Summary insight.Summary     `json:"summary"`
	Rows    []insight.ProfitRow `json:"rows"`
}

// ListingsMapResponse is the clustered marker layer.
type ListingsMapResponse struct {
	Center   *LatLong                   `json:"center"`
	Bounds   []float64                  `json:"bounds,omitempty"`
	Zoom     int                        `json:"zoom"`
	Markers  *geojson.FeatureCollection `json:"markers"`
	Clusters []geo.MarkerCluster        `json:"clusters"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

// run parses the query and computes a result, answering the error itself
// when it returns false.
func (s *Server) run(w http.ResponseWriter, r *http.Request) (*pipeline.Result, query, bool) {
	q, err := s.parseQuery(r)
	if err != nil {
		badRequest(w, r, err)
		return nil, q, false
	}
	res, err := s.runner.Run(r.Context(), pipeline.Request{Filter: q.Filter})
	if err != nil {
		s.log.Error("pipeline run failed",
			zap.String("request_id", requestID(r)),
			zap.Error(err),
		)
		writeError(w, r, http.StatusInternalServerError, "failed to compute recommendations", nil)
		return nil, q, false
	}
	return res, q, true
}

func (s *Server) filters(w http.ResponseWriter, r *http.Request) {
	res, _, ok := s.run(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, res.Options)
}

func (s *Server) recommendations(w http.ResponseWriter, r *http.Request) {
	res, _, ok := s.run(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, RecommendationsResponse{
		Summary: insight.Summarize(res),
		Rows:    insight.BuyRows(res.Buy),
	})
}

func (s *Server) profit(w http.ResponseWriter, r *http.Request) {
	res, _, ok := s.run(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, ProfitResponse{
		Summary: insight.Summarize(res),
		Rows:    insight.ProfitRows(res.Profit),
	})
}

func (s *Server) listingsMap(w http.ResponseWriter, r *http.Request) {
	res, q, ok := s.run(w, r)
	if !ok {
		return
	}

	resp := ListingsMapResponse{
		Zoom:     q.Zoom,
		Markers:  geo.ListingMarkers(res.Profit),
		Clusters: geo.Cluster(res.Profit, q.Zoom),
	}
	if lat, long, ok := geo.Center(res.Profit); ok {
		resp.Center = &LatLong{Lat: lat, Long: long}
	}
	if b := geo.Bounds(res.Profit); b != nil {
		resp.Bounds = []float64{b.Min(0), b.Min(1), b.Max(0), b.Max(1)}
	}
	render.JSON(w, r, resp)
}

func (s *Server) gainMap(w http.ResponseWriter, r *http.Request) {
	res, _, ok := s.run(w, r)
	if !ok {
		return
	}
	b, err := s.boundaries.Boundaries(r.Context(), s.cfg.BoundarySource)
	if err != nil {
		s.log.Error("load boundaries failed",
			zap.String("request_id", requestID(r)),
			zap.String("source", s.cfg.BoundarySource),
			zap.Error(err),
		)
		writeError(w, r, http.StatusInternalServerError, "failed to load zipcode boundaries", nil)
		return
	}
	render.JSON(w, r, geo.GainChoropleth(b, res.Profit))
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	res, _, ok := s.run(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, insight.Describe(res.Listings))
}

func (s *Server) hypotheses(w http.ResponseWriter, r *http.Request) {
	res, _, ok := s.run(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, insight.Hypotheses(res.Listings))
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	vals := r.URL.Query()
	filter := store.RunFilter{Source: vals.Get("source")}

	var fields []FieldError
	for _, p := range []struct {
		key string
		dst *int
	}{{"limit", &filter.Limit}, {"offset", &filter.Offset}} {
		raw := vals.Get(p.key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			fields = append(fields, FieldError{Field: p.key, Message: p.key + " must be a non-negative integer"})
			continue
		}
		*p.dst = n
	}
	if len(fields) > 0 {
		writeError(w, r, http.StatusBadRequest, "invalid request", fields)
		return
	}

	runs, err := s.history.ListRuns(r.Context(), filter)
	if err != nil {
		s.log.Error("list runs failed", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "failed to list runs", nil)
		return
	}
	if runs == nil {
		runs = []model.RunSummary{}
	}
	render.JSON(w, r, runs)
}

// recordRun computes recommendations for the filter in the JSON body and
// stores them as a run.
func (s *Server) recordRun(w http.ResponseWriter, r *http.Request) {
	var f pipeline.Filter
	if err := render.DecodeJSON(r.Body, &f); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := s.check(f); err != nil {
		badRequest(w, r, err)
		return
	}

	res, err := s.runner.Run(r.Context(), pipeline.Request{Filter: f})
	if err != nil {
		s.log.Error("pipeline run failed", zap.String("request_id", requestID(r)), zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "failed to compute recommendations", nil)
		return
	}

	run, recs := pipeline.Record(s.runner.Path(), f, res)
	if err := s.history.RecordRun(r.Context(), run, recs); err != nil {
		s.log.Error("record run failed", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "failed to record run", nil)
		return
	}

	s.log.Info("run recorded",
		zap.String("run_id", run.ID),
		zap.Int("selected", run.Selected),
		zap.Float64("total_gain", run.TotalGain),
	)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, run)
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	detail, err := s.history.GetRun(r.Context(), runID)
	if err != nil {
		s.log.Error("get run failed", zap.String("run_id", runID), zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "failed to load run", nil)
		return
	}
	if detail == nil {
		writeError(w, r, http.StatusNotFound, "run not found", nil)
		return
	}
	render.JSON(w, r, detail)
}

func requestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}
