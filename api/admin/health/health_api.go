// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/buck-labs/buck-v1-sub000/api/utils"
	"github.com/buck-labs/buck-v1-sub000/health"
)

type API struct {
	healthStatus *health.Health
}

func NewAPI(healthStatus *health.Health) *API {
	return &API{
		healthStatus: healthStatus,
	}
}

func (h *API) handleGetHealth(w http.ResponseWriter, r *http.Request) error {
	maxLag := health.DefaultMaxLag
	if queryMaxLag := r.URL.Query().Get("maxLag"); queryMaxLag != "" {
		if parsed, err := strconv.ParseUint(queryMaxLag, 10, 64); err == nil {
			maxLag = parsed
		}
	}

	status, err := h.healthStatus.Status(maxLag)
	if err != nil {
		return err
	}

	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	return utils.WriteJSON(w, status)
}

func (h *API) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("health").
		HandlerFunc(utils.WrapHandlerFunc(h.handleGetHealth))
}
