package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/forumcore/forum/internal/access"
	"github.com/forumcore/forum/internal/api"
	"github.com/forumcore/forum/internal/domain"
	mw "github.com/forumcore/forum/internal/middleware"
	"github.com/forumcore/forum/internal/utils"
)

func banResponse(b domain.Ban) *api.BanResponse {
	return &api.BanResponse{
		Id:        b.Id,
		UserId:    b.UserId,
		Reason:    b.Reason,
		CreatedAt: b.CreatedAt.UTC().Format(time.RFC3339),
		Duration:  int64(b.Duration / time.Second),
		Expires:   b.Expires().UTC().Format(time.RFC3339),
	}
}

// BanNotice tells a user why they are banned and for how long. Users may read
// their own notice, moderators anyone's.
func (h *Handler) BanNotice(w http.ResponseWriter, r *http.Request) {
	userId, err := parseIntParam(r, "user")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if actor := mw.GetUserFromContext(r); actor == nil || actor.Id != userId {
		if !h.authorize(w, r, access.View, access.Target{Kind: access.KindBan}) {
			return
		}
	}

	ban, err := h.ban.MostRecentActiveBan(r.Context(), userId)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if ban == nil {
		utils.WriteJSON(w, http.StatusOK, api.BanNoticeResponse{Banned: false})
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.BanNoticeResponse{
		Banned:   true,
		Ban:      banResponse(*ban),
		TimeLeft: h.ban.TimeLeft(ban),
	})
}

func (h *Handler) ListBans(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, access.View, access.Target{Kind: access.KindBan}) {
		return
	}

	var userId *domain.UserId
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			http.Error(w, "invalid user_id: must be a positive integer", http.StatusBadRequest)
			return
		}
		userId = &id
	}

	bans, err := h.ban.List(r.Context(), userId)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	resp := make([]*api.BanResponse, 0, len(bans))
	for _, b := range bans {
		resp = append(resp, banResponse(b))
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetBan(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, access.View, access.Target{Kind: access.KindBan}) {
		return
	}
	id, err := parseIntParam(r, "ban")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ban, err := h.ban.Get(r.Context(), id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, banResponse(ban))
}

func (h *Handler) CreateBan(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, access.Create, access.Target{Kind: access.KindBan}) {
		return
	}

	var body api.CreateBanRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	ban, err := h.ban.Create(r.Context(), domain.BanCreationData{
		UserId:   body.UserId,
		Reason:   body.Reason,
		Duration: time.Duration(body.Duration) * time.Second,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, banResponse(ban))
}

func (h *Handler) UpdateBan(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, access.Update, access.Target{Kind: access.KindBan}) {
		return
	}
	id, err := parseIntParam(r, "ban")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body api.UpdateBanRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	data := domain.BanUpdateData{Id: id, Reason: body.Reason}
	if body.Duration != nil {
		d := time.Duration(*body.Duration) * time.Second
		data.Duration = &d
	}
	ban, err := h.ban.Update(r.Context(), data)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, banResponse(ban))
}

func (h *Handler) DeleteBan(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, access.Delete, access.Target{Kind: access.KindBan}) {
		return
	}
	id, err := parseIntParam(r, "ban")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.ban.Delete(r.Context(), id); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
