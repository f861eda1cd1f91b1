package http

import (
	"net/http"

	"carteira/internal/services"
)

type profilesResponse struct {
	Profiles []string `json:"profiles"`
	Active   string   `json:"active"`
}

type periodResponse struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

func (s *Server) profilesBody() profilesResponse {
	profiles := s.store.Profiles()
	if profiles == nil {
		profiles = []string{}
	}
	return profilesResponse{Profiles: profiles, Active: s.store.Active()}
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(s.profilesBody()).Write(w)
}

func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeError(w, r, err)
		return
	}
	ctx, saved := services.TrackPersist(r.Context())
	if err := s.store.CreateProfile(ctx, p.Get("name")); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		PersistWarning(saved.Err()).
		Body(s.profilesBody()).
		Write(w)
}

func (s *Server) handleActivateProfile(w http.ResponseWriter, r *http.Request) {
	if err := s.store.SwitchProfile(r.Context(), r.PathValue("name")); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(s.profilesBody()).Write(w)
}

func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	ctx, saved := services.TrackPersist(r.Context())
	if err := s.store.DeleteProfile(ctx, r.PathValue("name")); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusNoContent).
		PersistWarning(saved.Err()).
		Write(w)
}

func (s *Server) handleGetPeriod(w http.ResponseWriter, r *http.Request) {
	p := s.store.Period()
	NewJSONResponse().Body(periodResponse{Year: p.Year, Month: int(p.Month)}).Write(w)
}

func (s *Server) handleSetPeriod(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeError(w, r, err)
		return
	}
	period, err := p.ParsePeriod()
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.SelectPeriod(period); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(periodResponse{Year: period.Year, Month: int(period.Month)}).Write(w)
}
