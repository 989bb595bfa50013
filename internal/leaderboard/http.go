package leaderboard

import (
	"encoding/json"
	"net/http"
	"strconv"

	httperrors "github.com/cberkay/imposterchat/pkg/http/errors"
)

type topResponse struct {
	Entries []Entry `json:"entries"`
}

// Handler serves the public ranking endpoint.
func (s *Service) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			httperrors.RespondMethodNotAllowed(w)
			return
		}

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidPayload, "limit must be a positive integer")
				return
			}
			limit = parsed
		}

		entries, err := s.Top(r.Context(), limit)
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to fetch leaderboard")
			httperrors.RespondInternalError(w, "Failed to fetch leaderboard")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(topResponse{Entries: entries})
	}
}
