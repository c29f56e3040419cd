package handlers

import (
	"net/http"

	"github.com/Dosada05/bracket-manager/services"
)

type TournamentHandler struct {
	tournamentService services.TournamentService
	viewerService     services.ViewerService
}

func NewTournamentHandler(ts services.TournamentService, vs services.ViewerService) *TournamentHandler {
	return &TournamentHandler{
		tournamentService: ts,
		viewerService:     vs,
	}
}

// CreateHandler godoc
// @Summary Создать турнир
// @Tags tournaments
// @Accept json
// @Produce json
// @Param input body services.TournamentInput true "Турнир"
// @Success 201 {object} map[string]interface{} "Турнир и сообщение"
// @Failure 403 {object} map[string]string
// @Failure 422 {object} map[string]interface{} "Ошибки валидации"
// @Security BearerAuth
// @Router /tournaments [post]
func (h *TournamentHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var input services.TournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.CreateTournament(r.Context(), accountFrom(r), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"tournament": tournament,
		"message":    services.TournamentSavedMessage(tournament, true),
	}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByIDHandler godoc
// @Summary Турнир с участниками в порядке посева
// @Tags tournaments
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /tournaments/{tournamentID} [get]
func (h *TournamentHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.GetTournament(r.Context(), accountFrom(r), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler обрабатывает GET /tournaments.
// Возвращает строки списка (как в админке) и сами турниры.
func (h *TournamentHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	var filter services.ListTournamentsFilter
	active, err := parseOptionalBoolQuery(r, "active")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	filter.Active = active
	filter.Limit, filter.Offset, err = parsePagination(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	list, err := h.viewerService.TournamentList(r.Context(), accountFrom(r), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"list": list}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateHandler godoc
// @Summary Обновить турнир
// @Description Поле active можно не передавать: тогда сохраняется текущее значение.
// @Tags tournaments
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param input body services.TournamentInput true "Турнир"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 422 {object} map[string]interface{}
// @Security BearerAuth
// @Router /tournaments/{tournamentID} [put]
func (h *TournamentHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.TournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.UpdateTournament(r.Context(), accountFrom(r), id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"tournament": tournament,
		"message":    services.TournamentSavedMessage(tournament, false),
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteHandler godoc
// @Summary Удалить турнир
// @Tags tournaments
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /tournaments/{tournamentID} [delete]
func (h *TournamentHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.DeleteTournament(r.Context(), accountFrom(r), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": services.TournamentDeletedMessage(tournament)}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ViewerHandler отдаёт настройки для tournament-viewer.js.
func (h *TournamentHandler) ViewerHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	page, err := h.viewerService.TournamentPage(r.Context(), accountFrom(r), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"tournament_id": page.TournamentID,
		"libraries":     page.Libraries,
		"settings":      page.Settings,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// PreviewHandler godoc
// @Summary Предпросмотр сетки в форме турнира
// @Tags tournaments
// @Accept json
// @Produce json
// @Param input body services.PreviewInput true "Состояние формы"
// @Success 200 {object} services.PreviewResult
// @Failure 403 {object} map[string]string
// @Security BearerAuth
// @Router /tournaments/preview [post]
func (h *TournamentHandler) PreviewHandler(w http.ResponseWriter, r *http.Request) {
	var input services.PreviewInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.viewerService.Preview(r.Context(), accountFrom(r), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
