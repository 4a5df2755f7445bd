package handler

import (
	"net/http"

	"github.com/forumcore/forum/internal/access"
	"github.com/forumcore/forum/internal/api"
	"github.com/forumcore/forum/internal/domain"
	mw "github.com/forumcore/forum/internal/middleware"
	"github.com/forumcore/forum/internal/utils"
	"github.com/forumcore/forum/internal/validation"
)

func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	threadId, err := parseIntParam(r, "thread")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !h.authorize(w, r, access.Create, access.Target{Kind: access.KindPost}) {
		return
	}
	actor := mw.GetUserFromContext(r)

	body, file, err := parseMultipartRequest[api.CreatePostRequest](w, r, h, "file")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	defer validation.CloseFile(file)

	post, err := h.post.Create(r.Context(), domain.PostCreationData{
		ThreadId: threadId,
		AuthorId: actor.Id,
		Content:  body.Content,
		ParentId: body.ParentId,
		RefersTo: body.RefersTo,
	}, file)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, h.renderPost(&post))
}

func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "post")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	post, err := h.post.Get(r.Context(), id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, h.renderPost(&post))
}

func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "post")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	post, err := h.post.Get(r.Context(), id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if !h.authorize(w, r, access.Update, access.Target{Kind: access.KindPost, OwnerId: post.AuthorId}) {
		return
	}

	body, file, err := parseMultipartRequest[api.UpdatePostRequest](w, r, h, "file")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	defer validation.CloseFile(file)

	updated, err := h.post.Update(r.Context(), domain.PostUpdateData{
		Id:           id,
		Content:      body.Content,
		Hidden:       body.Hidden,
		StartingPost: body.StartingPost,
	}, file)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, h.renderPost(&updated))
}

func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "post")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	post, err := h.post.Get(r.Context(), id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if !h.authorize(w, r, access.Delete, access.Target{Kind: access.KindPost, OwnerId: post.AuthorId}) {
		return
	}

	if err := h.post.Delete(r.Context(), id); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
