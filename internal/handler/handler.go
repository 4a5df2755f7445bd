package handler

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/forumcore/forum/internal/access"
	"github.com/forumcore/forum/internal/api"
	"github.com/forumcore/forum/internal/config"
	"github.com/forumcore/forum/internal/domain"
	mw "github.com/forumcore/forum/internal/middleware"
	"github.com/forumcore/forum/internal/middleware/metrics"
	"github.com/forumcore/forum/internal/service"
	"github.com/forumcore/forum/internal/utils"
	"github.com/forumcore/forum/internal/validation"

	"github.com/go-chi/chi/v5"
)

// multipart overhead on top of the file itself: the json field and part headers
const formOverhead = 1 << 20

type Authorizer interface {
	Check(ctx context.Context, actor *domain.Actor, action access.Action, target access.Target) (access.Decision, error)
}

type Renderer interface {
	Render(content string) string
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Services struct {
	User     service.UserService
	Board    service.BoardService
	Thread   service.ThreadService
	Post     service.PostService
	Ban      service.BanService
	Observed service.ObservedService
}

type Handler struct {
	user     service.UserService
	board    service.BoardService
	thread   service.ThreadService
	post     service.PostService
	ban      service.BanService
	observed service.ObservedService

	media    service.MediaStorage
	access   Authorizer
	renderer Renderer
	health   Pinger
	cfg      *config.Config
}

func New(s Services, media service.MediaStorage, authorizer Authorizer, renderer Renderer, health Pinger, cfg *config.Config) *Handler {
	return &Handler{
		user:     s.User,
		board:    s.Board,
		thread:   s.Thread,
		post:     s.Post,
		ban:      s.Ban,
		observed: s.Observed,
		media:    media,
		access:   authorizer,
		renderer: renderer,
		health:   health,
		cfg:      cfg,
	}
}

// authorize asks the evaluator and, if the answer is not Allowed, writes the
// refusal. It reports whether the handler may go on.
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, action access.Action, target access.Target) bool {
	actor := mw.GetUserFromContext(r)
	decision, err := h.access.Check(r.Context(), actor, action, target)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return false
	}

	switch decision {
	case access.Allowed:
		return true
	case access.RequiresBanRedirect:
		metrics.RecordDenial(decision.String())
		http.Redirect(w, r, banNoticePath(actor.Id), http.StatusSeeOther)
	default:
		metrics.RecordDenial(decision.String())
		http.Error(w, "Forbidden", http.StatusForbidden)
	}
	return false
}

func banNoticePath(id domain.UserId) string {
	return fmt.Sprintf("/v1/users/%d/ban", id)
}

// parseIntParam parses an integer URL parameter and returns a meaningful error
func parseIntParam(r *http.Request, name string) (int64, error) {
	val, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || val <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", name)
	}
	return val, nil
}

func parsePage(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// parseMultipartRequest reads a request that is either plain JSON or a multipart
// form with a "json" field and an optional image under fileField. The caller must
// close the returned file with validation.CloseFile.
func parseMultipartRequest[T any](w http.ResponseWriter, r *http.Request, h *Handler, fileField string) (body T, file *domain.PendingFile, err error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, formOverhead)
		err = utils.DecodeValidate(r.Body, &body)
		return
	}

	maxSize := h.cfg.Public.MaxUploadSize
	if err = validation.ValidateAndParseMultipart(r, w, maxSize+formOverhead); err != nil {
		err = fmt.Errorf("%w: file exceeds the limit of %.0f MB", validation.ErrPayloadTooLarge, validation.FormatSizeMB(maxSize))
		return
	}

	jsonPayload := r.FormValue("json")
	if jsonPayload == "" {
		err = &errBadRequest{"missing JSON payload in multipart form"}
		return
	}
	if err = utils.DecodeValidate(strings.NewReader(jsonPayload), &body); err != nil {
		return
	}

	file, err = h.uploadedImage(r.MultipartForm, fileField)
	return
}

func (h *Handler) uploadedImage(form *multipart.Form, field string) (*domain.PendingFile, error) {
	files := form.File[field]
	if len(files) == 0 {
		return nil, nil
	}
	if len(files) > 1 {
		return nil, &errBadRequest{"only one file is allowed"}
	}
	if files[0].Size > h.cfg.Public.MaxUploadSize {
		return nil, fmt.Errorf("%w: file exceeds the limit of %.0f MB", validation.ErrPayloadTooLarge, validation.FormatSizeMB(h.cfg.Public.MaxUploadSize))
	}
	return validation.ValidateImage(files[0], h.cfg.Public.AllowedImageMimeTypes)
}

type errBadRequest struct{ msg string }

func (e *errBadRequest) Error() string { return e.msg }
func (e *errBadRequest) StatusCode() int { return http.StatusBadRequest }

func (h *Handler) renderPost(p *domain.Post) api.PostResponse {
	return api.PostResponse{Post: *p, ContentHTML: h.renderer.Render(p.Content)}
}

func (h *Handler) renderTree(thread domain.Thread, tree domain.ThreadTree) api.ThreadResponse {
	resp := api.ThreadResponse{
		Thread:               thread,
		StartingPostChildren: []api.PostResponse{},
		Forest:               make([]api.ForestEntryResponse, 0, len(tree.Forest)),
	}
	if tree.StartingPost != nil {
		sp := h.renderPost(tree.StartingPost)
		resp.StartingPost = &sp
		for _, c := range tree.Children(tree.StartingPost.Id) {
			resp.StartingPostChildren = append(resp.StartingPostChildren, h.renderPost(c))
		}
	}
	for _, entry := range tree.Forest {
		children := make([]api.PostResponse, 0, len(entry.Children))
		for _, c := range entry.Children {
			children = append(children, h.renderPost(c))
		}
		resp.Forest = append(resp.Forest, api.ForestEntryResponse{Post: h.renderPost(entry.Post), Children: children})
	}
	return resp
}
