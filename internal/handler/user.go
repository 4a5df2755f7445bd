package handler

import (
	"context"
	"net/http"

	"github.com/forumcore/forum/internal/access"
	"github.com/forumcore/forum/internal/api"
	"github.com/forumcore/forum/internal/domain"
	internal_errors "github.com/forumcore/forum/internal/errors"
	mw "github.com/forumcore/forum/internal/middleware"
	"github.com/forumcore/forum/internal/utils"
	"github.com/forumcore/forum/internal/validation"
)

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "user")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	profile, err := h.user.Profile(r.Context(), id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, profile)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	profile, err := h.user.Profile(r.Context(), mw.GetUserFromContext(r).Id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, profile)
}

// UpdateAvatar takes a multipart form with the image under "avatar".
func (h *Handler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	actor := mw.GetUserFromContext(r)
	if !h.authorize(w, r, access.Update, access.Target{Kind: access.KindProfile, OwnerId: actor.Id}) {
		return
	}

	maxSize := h.cfg.Public.MaxUploadSize
	if err := validation.ValidateAndParseMultipart(r, w, maxSize+formOverhead); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	file, err := h.uploadedImage(r.MultipartForm, "avatar")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if file == nil {
		http.Error(w, "missing avatar file", http.StatusBadRequest)
		return
	}
	defer validation.CloseFile(file)

	profile, err := h.user.UpdateAvatar(r.Context(), actor.Id, file)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, profile)
}

func (h *Handler) ListObserved(w http.ResponseWriter, r *http.Request) {
	threads, err := h.observed.List(r.Context(), mw.GetUserFromContext(r).Id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, threads)
}

func (h *Handler) AddObserved(w http.ResponseWriter, r *http.Request) {
	h.changeObserved(w, r, h.observed.Add, api.ObservedCreated)
}

func (h *Handler) RemoveObserved(w http.ResponseWriter, r *http.Request) {
	h.changeObserved(w, r, h.observed.Remove, api.ObservedDeleted)
}

type observedChange func(ctx context.Context, userId domain.UserId, threadId domain.ThreadId) error

func (h *Handler) changeObserved(w http.ResponseWriter, r *http.Request, change observedChange, success api.ObservedResponse) {
	var body api.ObservedRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	err := change(r.Context(), mw.GetUserFromContext(r).Id, body.Id)
	switch {
	case err == nil:
		utils.WriteJSON(w, http.StatusOK, success)
	case internal_errors.Is[*internal_errors.NotFoundError](err):
		utils.WriteJSON(w, http.StatusNotFound, api.ObservedNotFound)
	default:
		utils.WriteErrorAndStatusCode(w, err)
	}
}
