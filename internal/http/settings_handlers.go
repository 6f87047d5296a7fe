package http

import (
	"encoding/json"
	"net/http"

	"chathub/internal/auth"
	"chathub/internal/domain"
	"chathub/internal/validation"
)

// handleSettings reads or updates the caller's generation defaults.
// GET /api/v1/settings
// PUT /api/v1/settings with a partial body; absent fields keep their value.
func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user := auth.UserFromContext(ctx)
	if user == nil {
		s.writeErr(ctx, w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	switch r.Method {
	case http.MethodGet:
		current, err := s.currentSettings(r, user.ID)
		if err != nil {
			s.writeStoreErr(ctx, w, err)
			return
		}
		writeJSON(w, http.StatusOK, current)
	case http.MethodPut:
		s.updateSettings(w, r, user.ID)
	default:
		w.Header().Set("Allow", "GET, PUT")
		s.writeErr(ctx, w, http.StatusMethodNotAllowed, "method not allowed", "")
	}
}

// currentSettings returns the stored record, or the deployment defaults when
// the user has never saved one.
func (s *Server) currentSettings(r *http.Request, userID string) (domain.UserSettings, error) {
	stored, err := s.settings.GetUserSettings(r.Context(), userID)
	if err != nil {
		return domain.UserSettings{}, err
	}
	if stored != nil {
		return *stored, nil
	}
	return domain.DefaultUserSettings(
		userID,
		s.defaults.Service,
		s.defaults.Model,
		s.defaults.Temperature,
		s.defaults.MaxTokens,
	), nil
}

func (s *Server) updateSettings(w http.ResponseWriter, r *http.Request, userID string) {
	ctx := r.Context()

	var patch domain.UserSettingsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		s.writeErr(ctx, w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if patch.DefaultService != nil && *patch.DefaultService == "" {
		s.writeErr(ctx, w, http.StatusBadRequest, "default_service must not be empty", "")
		return
	}
	if patch.DefaultModel != nil {
		if err := validation.ValidateModelName(*patch.DefaultModel); err != nil {
			s.writeErr(ctx, w, http.StatusBadRequest, err.Error(), "")
			return
		}
	}
	if patch.Temperature != nil {
		if err := validation.ValidateTemperature(*patch.Temperature); err != nil {
			s.writeErr(ctx, w, http.StatusBadRequest, err.Error(), "")
			return
		}
	}
	if patch.MaxTokens != nil {
		if err := validation.ValidateMaxTokens(*patch.MaxTokens); err != nil {
			s.writeErr(ctx, w, http.StatusBadRequest, err.Error(), "")
			return
		}
	}

	current, err := s.currentSettings(r, userID)
	if err != nil {
		s.writeStoreErr(ctx, w, err)
		return
	}
	patch.Apply(&current)
	current.UserID = userID

	if err := s.settings.PutUserSettings(ctx, current); err != nil {
		s.writeStoreErr(ctx, w, err)
		return
	}

	s.logger.InfoContext(ctx, "user settings updated", "user_id", userID, "service", current.DefaultService)

	writeJSON(w, http.StatusOK, current)
}
