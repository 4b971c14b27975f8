package web

import (
	"net/http"

	"github.com/BinaryAlley/Lyrida-sub002/internal/domain"
	"github.com/BinaryAlley/Lyrida-sub002/internal/dto"
	"github.com/BinaryAlley/Lyrida-sub002/internal/handler"
	"github.com/BinaryAlley/Lyrida-sub002/internal/mediator"
)

// Pages / Pages

func (h *Handler) ListPages(w http.ResponseWriter, r *http.Request) {
	res := mediator.Send[[]domain.Page](r.Context(), h.container.Dispatcher, handler.GetPagesQuery{UserID: callerID(r)})
	respond(w, r, res, http.StatusOK, dto.PagesToDTO)
}

func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	q := handler.GetPageQuery{UserID: callerID(r), PageID: r.PathValue("id")}
	respond(w, r, mediator.Send[domain.Page](r.Context(), h.container.Dispatcher, q), http.StatusOK, dto.PageToDTO)
}

func (h *Handler) CreatePage(w http.ResponseWriter, r *http.Request) {
	var cmd handler.CreatePageCommand
	if !decodeJSON(w, r, &cmd) {
		return
	}
	cmd.UserID = callerID(r)
	respond(w, r, mediator.Send[domain.Page](r.Context(), h.container.Dispatcher, cmd), http.StatusCreated, dto.PageToDTO)
}

func (h *Handler) UpdatePage(w http.ResponseWriter, r *http.Request) {
	var cmd handler.UpdatePageCommand
	if !decodeJSON(w, r, &cmd) {
		return
	}
	cmd.UserID, cmd.PageID = callerID(r), r.PathValue("id")
	respond(w, r, mediator.Send[domain.Page](r.Context(), h.container.Dispatcher, cmd), http.StatusOK, dto.PageToDTO)
}

func (h *Handler) DeletePage(w http.ResponseWriter, r *http.Request) {
	cmd := handler.DeletePageCommand{UserID: callerID(r), PageID: r.PathValue("id")}
	respondDone(w, r, mediator.Send[bool](r.Context(), h.container.Dispatcher, cmd), handler.ErrPageNotFound)
}

// Environments / Environnements

func (h *Handler) ListEnvironments(w http.ResponseWriter, r *http.Request) {
	q := handler.GetEnvironmentsQuery{UserID: callerID(r)}
	respond(w, r, mediator.Send[[]domain.Environment](r.Context(), h.container.Dispatcher, q), http.StatusOK, dto.EnvironmentsToDTO)
}

func (h *Handler) CreateEnvironment(w http.ResponseWriter, r *http.Request) {
	var cmd handler.CreateEnvironmentCommand
	if !decodeJSON(w, r, &cmd) {
		return
	}
	cmd.UserID = callerID(r)
	respond(w, r, mediator.Send[domain.Environment](r.Context(), h.container.Dispatcher, cmd), http.StatusCreated, dto.EnvironmentToDTO)
}

// UpdateEnvironment keeps the stored secret when the body leaves it empty.
func (h *Handler) UpdateEnvironment(w http.ResponseWriter, r *http.Request) {
	var cmd handler.UpdateEnvironmentCommand
	if !decodeJSON(w, r, &cmd) {
		return
	}
	cmd.UserID, cmd.EnvironmentID = callerID(r), r.PathValue("id")
	respond(w, r, mediator.Send[domain.Environment](r.Context(), h.container.Dispatcher, cmd), http.StatusOK, dto.EnvironmentToDTO)
}

func (h *Handler) DeleteEnvironment(w http.ResponseWriter, r *http.Request) {
	cmd := handler.DeleteEnvironmentCommand{UserID: callerID(r), EnvironmentID: r.PathValue("id")}
	respondDone(w, r, mediator.Send[bool](r.Context(), h.container.Dispatcher, cmd), handler.ErrEnvironmentNotFound)
}

// Preferences / Préférences

func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	q := handler.GetPreferencesQuery{UserID: callerID(r)}
	respond(w, r, mediator.Send[domain.Preferences](r.Context(), h.container.Dispatcher, q), http.StatusOK, dto.PreferencesToDTO)
}

func (h *Handler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var cmd handler.UpdatePreferencesCommand
	if !decodeJSON(w, r, &cmd) {
		return
	}
	cmd.UserID = callerID(r)
	respond(w, r, mediator.Send[domain.Preferences](r.Context(), h.container.Dispatcher, cmd), http.StatusOK, dto.PreferencesToDTO)
}
