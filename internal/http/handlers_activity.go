package http

import (
	"net/http"

	applog "footprint/internal/log"
)

func (s *Server) handleCreateActivity(w http.ResponseWriter, r *http.Request) {
	in, err := ParseActivityInput(r)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	a, err := s.deps.Activities.CreateActivity(r.Context(), r.PathValue("userID"), in)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	w.Header().Set("Location", "/users/"+a.UserID+"/activities/"+a.ID)
	writeJSON(w, http.StatusCreated, newActivityResponse(a))
}

func (s *Server) handleListActivities(w http.ResponseWriter, r *http.Request) {
	limit, err := ParseLimit(r)
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	acts, err := s.deps.Activities.ListActivities(r.Context(), r.PathValue("userID"), limit)
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, newActivityList(acts))
}

func (s *Server) handleUpdateActivity(w http.ResponseWriter, r *http.Request) {
	patch, err := ParseActivityPatch(r)
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	a, err := s.deps.Activities.UpdateActivity(r.Context(), r.PathValue("userID"), r.PathValue("activityID"), patch)
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, newActivityResponse(a))
}

func (s *Server) handleDeleteActivity(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Activities.DeleteActivity(r.Context(), r.PathValue("userID"), r.PathValue("activityID")); err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
