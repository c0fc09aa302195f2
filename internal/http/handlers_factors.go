package http

import (
	"net/http"

	applog "footprint/internal/log"
	"footprint/internal/store"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.deps.Factors.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	if cats == nil {
		cats = []string{}
	}
	writeJSON(w, http.StatusOK, cats)
}

// handleListFactors filters by ?category= (exact) and ?search= (substring).
func (s *Server) handleListFactors(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := s.deps.Factors.ListFactors(r.Context(), store.FactorFilter{
		Category: q.Get("category"),
		Search:   q.Get("search"),
	})
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	out := make([]factorResponse, 0, len(list))
	for _, f := range list {
		out = append(out, newFactorResponse(f))
	}
	writeJSON(w, http.StatusOK, out)
}
