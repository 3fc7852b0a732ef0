package api

import (
	"context"
	"net/http"
)

func (h *Handler) Filter(w http.ResponseWriter, r *http.Request) {
	pref, reqErr := decodePreferences(w, r)
	if reqErr != nil {
		writeDetail(w, reqErr.status, reqErr.detail)
		return
	}

	resp, err := h.recommender.Filter(r.Context(), "/recommendations", pref)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Pipeline(w http.ResponseWriter, r *http.Request) {
	pref, reqErr := decodePreferences(w, r)
	if reqErr != nil {
		writeDetail(w, reqErr.status, reqErr.detail)
		return
	}

	result, err := h.recommender.Recommend(r.Context(), "/recommendations/pipeline", pref)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// LLM returns the raw model selection without the heuristic fallback.
func (h *Handler) LLM(w http.ResponseWriter, r *http.Request) {
	pref, reqErr := decodePreferences(w, r)
	if reqErr != nil {
		writeDetail(w, reqErr.status, reqErr.detail)
		return
	}

	out, err := h.recommender.RecommendLLM(r.Context(), "/recommendations/llm", pref)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) Locations(w http.ResponseWriter, r *http.Request) {
	h.listing(w, r, h.listings.FetchLocations)
}

func (h *Handler) Cuisines(w http.ResponseWriter, r *http.Request) {
	h.listing(w, r, h.listings.FetchCuisines)
}

func (h *Handler) listing(w http.ResponseWriter, r *http.Request, fetch func(context.Context) ([]string, error)) {
	values, err := fetch(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if values == nil {
		values = []string{}
	}
	writeJSON(w, http.StatusOK, values)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready runs every dependency check and reports 503 if any fails.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.opts.ReadinessTimeout)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			checks[name] = err.Error()
			continue
		}
		checks[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	writeJSON(w, status, map[string]interface{}{"status": state, "checks": checks})
}
