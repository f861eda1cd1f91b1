package http

import (
	"net/http"

	"carteira/internal/core"
	applog "carteira/internal/log"
	"carteira/internal/services"
)

// totalRow is the synthetic last row of every list view. It is never stored.
type totalRow struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

type entriesResponse struct {
	Kind    core.Kind    `json:"kind"`
	Period  string       `json:"period,omitempty"`
	Entries []core.Entry `json:"entries"`
	Total   totalRow     `json:"total"`
}

type addedResponse struct {
	Entries []core.Entry `json:"entries"`
}

func pathKind(r *http.Request) (core.Kind, error) {
	return core.ParseKind(r.PathValue("kind"))
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	kind, err := pathKind(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	entries := s.store.Entries(kind)
	resp := entriesResponse{
		Kind:    kind,
		Entries: entries,
		Total:   totalRow{Description: "Total", Amount: core.ListTotal(entries)},
	}
	if kind.Dated() {
		resp.Period = s.store.Period().String()
	}
	NewJSONResponse().Body(resp).Write(w)
}

func (s *Server) handleAddEntry(w http.ResponseWriter, r *http.Request) {
	kind, err := pathKind(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := p.Amount("amount")
	if err != nil {
		writeError(w, r, err)
		return
	}
	description := p.Get("description")

	ctx, saved := services.TrackPersist(r.Context())
	var added []core.Entry
	if kind == core.Installment {
		months, err := p.Int("months", core.ErrInvalidMonths)
		if err != nil {
			writeError(w, r, err)
			return
		}
		added, err = s.store.AddInstallment(ctx, amount, description, months)
		if err != nil {
			writeError(w, r, err)
			return
		}
	} else {
		e, err := s.store.Add(ctx, kind, amount, description)
		if err != nil {
			writeError(w, r, err)
			return
		}
		added = []core.Entry{e}
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Entries added",
		applog.FieldKind, kind,
		applog.FieldProfile, s.store.Active(),
		"count", len(added))
	NewJSONResponse().
		Status(http.StatusCreated).
		PersistWarning(saved.Err()).
		Body(addedResponse{Entries: added}).
		Write(w)
}

func (s *Server) handleEditEntry(w http.ResponseWriter, r *http.Request) {
	kind, err := pathKind(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := parseEntryID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := p.Amount("amount")
	if err != nil {
		writeError(w, r, err)
		return
	}

	ctx, saved := services.TrackPersist(r.Context())
	e, err := s.store.Edit(ctx, kind, id, amount, p.Get("description"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().
		PersistWarning(saved.Err()).
		Body(e).
		Write(w)
}

func (s *Server) handleRemoveEntry(w http.ResponseWriter, r *http.Request) {
	kind, err := pathKind(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := parseEntryID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ctx, saved := services.TrackPersist(r.Context())
	if err := s.store.Remove(ctx, kind, id); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusNoContent).
		PersistWarning(saved.Err()).
		Write(w)
}
