package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lumen-display/lumen/internal/domain"
	"github.com/lumen-display/lumen/internal/infra/metrics"
	"github.com/lumen-display/lumen/internal/infra/sqlite"
)

// ─── Modes ──────────────────────────────────────────────────────────────────

func (s *Server) handleModes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"modes":   s.catalog.All(),
		"current": s.engine.CurrentMode(),
		"min_fps": s.catalog.MinSupported(),
		"max_fps": s.catalog.MaxSupported(),
	})
}

// ─── Policy ─────────────────────────────────────────────────────────────────

type policyRequest struct {
	// Layer is "display_manager" or "override".
	Layer  string        `json:"layer"`
	Policy domain.Policy `json:"policy"`
}

func (s *Server) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"display_manager": s.policies.DisplayManagerPolicy(),
		"effective":       s.policies.Effective(),
	}
	if ov, ok := s.policies.OverridePolicy(); ok {
		resp["override"] = ov
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePutPolicy(w http.ResponseWriter, r *http.Request) {
	var req policyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	layer := req.Layer
	if layer == "" {
		layer = sqlite.LayerOverride
	}

	var changed bool
	var err error
	switch layer {
	case sqlite.LayerDisplayManager:
		changed, err = s.policies.SetDisplayManagerPolicy(req.Policy)
	case sqlite.LayerOverride:
		p := req.Policy
		changed, err = s.policies.SetOverridePolicy(&p)
	default:
		writeError(w, http.StatusBadRequest, "unknown policy layer "+layer)
		return
	}
	if err != nil {
		writeError(w, policyErrorStatus(err), err.Error())
		return
	}

	if err := s.db.SavePolicy(layer, req.Policy); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if changed {
		metrics.PolicyChanges.WithLabelValues(layer).Inc()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"changed":   changed,
		"effective": s.policies.Effective(),
	})
}

func (s *Server) handleClearOverridePolicy(w http.ResponseWriter, r *http.Request) {
	changed, err := s.policies.SetOverridePolicy(nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.db.ClearPolicy(sqlite.LayerOverride); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if changed {
		metrics.PolicyChanges.WithLabelValues(sqlite.LayerOverride).Inc()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"changed":   changed,
		"effective": s.policies.Effective(),
	})
}

func policyErrorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnknownMode):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrBadRange), errors.Is(err, domain.ErrInconsistentRanges):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// ─── Selection ──────────────────────────────────────────────────────────────

type layerRequest struct {
	Name         string  `json:"name"`
	OwnerUID     int     `json:"owner_uid"`
	DesiredFps   float64 `json:"desired_fps"`
	Vote         string  `json:"vote"`
	Seamlessness string  `json:"seamlessness"`
	Weight       float64 `json:"weight"`
	Focused      bool    `json:"focused"`
}

type selectRequest struct {
	Layers []layerRequest `json:"layers"`
	// Tracked selects from the live surface registry instead of the
	// posted layer list.
	Tracked bool                 `json:"tracked"`
	Signals domain.GlobalSignals `json:"signals"`
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.Tracked {
		sel := s.coord.DecideTracked(req.Signals)
		writeJSON(w, http.StatusOK, sel)
		return
	}

	reqs := make([]domain.LayerRequirement, 0, len(req.Layers))
	for _, l := range req.Layers {
		vote, err := domain.ParseLayerVote(l.Vote)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		seam, err := domain.ParseSeamlessness(l.Seamlessness)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		weight := l.Weight
		if weight == 0 {
			weight = 1
		}
		reqs = append(reqs, domain.LayerRequirement{
			Name:         l.Name,
			OwnerUID:     l.OwnerUID,
			Desired:      domain.Fps(l.DesiredFps),
			Vote:         vote,
			Seamlessness: seam,
			Weight:       weight,
			Focused:      l.Focused,
		})
	}

	sel := s.coord.Decide(reqs, req.Signals)
	writeJSON(w, http.StatusOK, sel)
}

// ─── Overrides, Idle Timer, Divider ─────────────────────────────────────────

func (s *Server) handleOverrides(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"display_fps": s.engine.CurrentMode().Fps,
		"overrides":   s.coord.Overrides(),
	})
}

func (s *Server) handleIdleTimer(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"action": s.engine.LastIdleAction().String(),
	})
}

func (s *Server) handleDivider(w http.ResponseWriter, r *http.Request) {
	fps, err := strconv.ParseFloat(r.URL.Query().Get("fps"), 64)
	if err != nil || fps <= 0 {
		writeError(w, http.StatusBadRequest, "fps query parameter must be a positive number")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"fps":     fps,
		"divider": s.engine.DividerForRate(domain.Fps(fps)),
	})
}

// ─── Journal ────────────────────────────────────────────────────────────────

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 1000 {
			writeError(w, http.StatusBadRequest, "limit must be in 1..1000")
			return
		}
		limit = n
	}

	entries, err := s.db.RecentDecisions(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"decisions": entries})
}

// ─── Surfaces ───────────────────────────────────────────────────────────────

type registerSurfaceRequest struct {
	Name     string `json:"name"`
	OwnerUID int    `json:"owner_uid"`
}

func (s *Server) handleRegisterSurface(w http.ResponseWriter, r *http.Request) {
	var req registerSurfaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	h := s.tracker.Register(req.Name, req.OwnerUID)
	writeJSON(w, http.StatusCreated, map[string]string{"handle": h.String()})
}

func (s *Server) handleUnregisterSurface(w http.ResponseWriter, r *http.Request) {
	h, ok := surfaceHandle(w, r)
	if !ok {
		return
	}
	if err := s.tracker.Unregister(h); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

type surfaceVoteRequest struct {
	Vote         string  `json:"vote"`
	DesiredFps   float64 `json:"desired_fps"`
	Seamlessness string  `json:"seamlessness"`
	Weight       float64 `json:"weight"`
}

func (s *Server) handleSurfaceVote(w http.ResponseWriter, r *http.Request) {
	h, ok := surfaceHandle(w, r)
	if !ok {
		return
	}
	var req surfaceVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	vote, err := domain.ParseLayerVote(req.Vote)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.tracker.SetVote(h, vote, domain.Fps(req.DesiredFps)); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if req.Seamlessness != "" {
		seam, err := domain.ParseSeamlessness(req.Seamlessness)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := s.tracker.SetSeamlessness(h, seam); err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
	}
	if req.Weight != 0 {
		if err := s.tracker.SetWeight(h, req.Weight); err != nil {
			status := http.StatusNotFound
			if errors.Is(err, domain.ErrInvalidWeight) {
				status = http.StatusUnprocessableEntity
			}
			writeError(w, status, err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSurfaceFocus(w http.ResponseWriter, r *http.Request) {
	h, ok := surfaceHandle(w, r)
	if !ok {
		return
	}
	if err := s.tracker.SetFocused(h); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func surfaceHandle(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	h, err := uuid.Parse(chi.URLParam(r, "handle"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid surface handle")
		return uuid.UUID{}, false
	}
	return h, true
}
