package adapthttp

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"plantcare/internal/domain"
)

type plantBody struct {
	Name    string  `json:"name"`
	Species *string `json:"species"`
}

func (b plantBody) species() string {
	if b.Species == nil {
		return ""
	}
	return *b.Species
}

func (s *Server) handleListPlants(w http.ResponseWriter, r *http.Request) {
	plants, err := s.plants.List(r.Context())
	if err != nil {
		s.fail(w, r, err, "Failed to fetch plants")
		return
	}
	if plants == nil {
		plants = []domain.Plant{}
	}
	writeJSON(w, http.StatusOK, plants)
}

func (s *Server) handleCreatePlant(w http.ResponseWriter, r *http.Request) {
	var body plantBody
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	p, err := s.plants.Create(r.Context(), body.Name, body.species())
	if err != nil {
		s.fail(w, r, err, "Failed to add plant")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Plant added", "plant": p})
}

func (s *Server) handleUpdatePlant(w http.ResponseWriter, r *http.Request) {
	var body plantBody
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	p, err := s.plants.Update(r.Context(), r.PathValue("id"), body.Name, body.species())
	if err != nil {
		s.fail(w, r, err, "Failed to update plant")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Plant updated", "plant": p})
}

func (s *Server) handleWaterPlant(w http.ResponseWriter, r *http.Request) {
	p, err := s.plants.Water(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err, "Failed to water plant")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Plant watered", "plant": p})
}

func (s *Server) handleDeletePlant(w http.ResponseWriter, r *http.Request) {
	if err := s.plants.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, r, err, "Failed to delete plant")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Plant deleted"})
}

// fail maps a service error to a response. Unexpected failures are logged
// and answered with the static msg.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Msg)
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Plant not found")
	default:
		s.log.Error(msg,
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("plant_id", r.PathValue("id")),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, msg)
	}
}
