package handler

import (
	"net/http"

	"github.com/forumcore/forum/internal/access"
	"github.com/forumcore/forum/internal/api"
	"github.com/forumcore/forum/internal/domain"
	mw "github.com/forumcore/forum/internal/middleware"
	"github.com/forumcore/forum/internal/utils"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) ListBoards(w http.ResponseWriter, r *http.Request) {
	boards, err := h.board.List(r.Context())
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, boards)
}

func (h *Handler) GetBoard(w http.ResponseWriter, r *http.Request) {
	board, err := h.board.Get(r.Context(), chi.URLParam(r, "board"))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, board)
}

func (h *Handler) CreateBoard(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, access.Create, access.Target{Kind: access.KindBoard}) {
		return
	}

	var body api.CreateBoardRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	board, err := h.board.Create(r.Context(), domain.BoardCreationData{
		Name:        body.Name,
		Description: body.Description,
		CreatorId:   mw.GetUserFromContext(r).Id,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, board)
}

func (h *Handler) UpdateBoard(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, access.Update, access.Target{Kind: access.KindBoard}) {
		return
	}

	var body api.UpdateBoardRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	board, err := h.board.Update(r.Context(), chi.URLParam(r, "board"), body.Description)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, board)
}

func (h *Handler) DeleteBoard(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, access.Delete, access.Target{Kind: access.KindBoard}) {
		return
	}

	if err := h.board.Delete(r.Context(), chi.URLParam(r, "board")); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
