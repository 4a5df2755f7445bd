package handler

import (
	"net/http"

	"github.com/forumcore/forum/internal/access"
	"github.com/forumcore/forum/internal/api"
	"github.com/forumcore/forum/internal/domain"
	mw "github.com/forumcore/forum/internal/middleware"
	"github.com/forumcore/forum/internal/utils"
	"github.com/forumcore/forum/internal/validation"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) CreateThread(w http.ResponseWriter, r *http.Request) {
	// banned users are turned away before the upload is read
	if !h.authorize(w, r, access.Create, access.Target{Kind: access.KindThread}) {
		return
	}
	actor := mw.GetUserFromContext(r)

	body, file, err := parseMultipartRequest[api.CreateThreadRequest](w, r, h, "file")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	defer validation.CloseFile(file)

	thread, post, err := h.thread.Create(r.Context(), domain.ThreadCreationData{
		Board:    chi.URLParam(r, "board"),
		AuthorId: actor.Id,
		Name:     body.Name,
		StartingPost: domain.PostCreationData{
			AuthorId: actor.Id,
			Content:  body.StartingPost.Content,
			RefersTo: body.StartingPost.RefersTo,
		},
	}, file)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, api.CreateThreadResponse{Thread: thread, StartingPost: h.renderPost(&post)})
}

func (h *Handler) GetThread(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "thread")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	thread, err := h.thread.Get(r.Context(), id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	tree, err := h.thread.Tree(r.Context(), id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, h.renderTree(thread, tree))
}

// ListThreads serves both a board's thread list and, without a board, the overboard.
func (h *Handler) ListThreads(w http.ResponseWriter, r *http.Request) {
	var board *domain.BoardName
	if name := chi.URLParam(r, "board"); name != "" {
		board = &name
	}
	page := parsePage(r)

	threads, err := h.thread.List(r.Context(), board, page)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.ThreadListResponse{Threads: threads, Page: page})
}

func (h *Handler) UpdateThread(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "thread")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	thread, err := h.thread.Get(r.Context(), id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if !h.authorize(w, r, access.Update, access.Target{Kind: access.KindThread, OwnerId: thread.AuthorId}) {
		return
	}

	var body api.UpdateThreadRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	updated, err := h.thread.Update(r.Context(), domain.ThreadUpdateData{
		Id:      id,
		Name:    body.Name,
		Closed:  body.Closed,
		Content: body.Content,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteThread(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "thread")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	thread, err := h.thread.Get(r.Context(), id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if !h.authorize(w, r, access.Delete, access.Target{Kind: access.KindThread, OwnerId: thread.AuthorId}) {
		return
	}

	if err := h.thread.Delete(r.Context(), id); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
