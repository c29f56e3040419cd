package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/bracket-manager/services"
)

type ViewsHandler struct {
	viewerService services.ViewerService
}

func NewViewsHandler(vs services.ViewerService) *ViewsHandler {
	return &ViewsHandler{viewerService: vs}
}

// Render godoc
// @Summary Данные представления с сетками турниров
// @Tags views
// @Produce json
// @Param viewID path string true "View ID" default(tournament_brackets)
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /views/{viewID} [get]
func (h *ViewsHandler) Render(w http.ResponseWriter, r *http.Request) {
	build, err := h.viewerService.RenderView(r.Context(), accountFrom(r), chi.URLParam(r, "viewID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	rows := make([]jsonResponse, 0, len(build.Rows))
	for _, row := range build.Rows {
		rows = append(rows, jsonResponse{
			"element_id": row.ElementID,
			"bracket_id": row.BracketID,
			"name":       row.Name,
		})
	}
	response := jsonResponse{
		"view":      build.View,
		"rows":      rows,
		"libraries": build.Libraries,
		"settings":  build.Settings,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
