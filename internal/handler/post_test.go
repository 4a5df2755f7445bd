package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/forumcore/forum/internal/api"
	"github.com/forumcore/forum/internal/domain"
	internal_errors "github.com/forumcore/forum/internal/errors"
	mw "github.com/forumcore/forum/internal/middleware"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

// multipartRequest builds a form with the JSON payload under "json" and,
// when data is not nil, a file under fileField.
func multipartRequest(t *testing.T, method, url, payload, fileField, filename string, data []byte, actor *domain.Actor) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if payload != "" {
		require.NoError(t, writer.WriteField("json", payload))
	}
	if data != nil {
		part, err := writer.CreateFormFile(fileField, filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(method, url, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if actor != nil {
		req = req.WithContext(mw.WithActor(req.Context(), actor))
	}
	return req
}

func TestCreatePostHandler(t *testing.T) {
	const route = "/threads/{thread}/posts"
	author := &domain.Actor{Id: 7}

	t.Run("json body", func(t *testing.T) {
		h, m := newTestHandler(t)
		var got domain.PostCreationData
		m.post.MockCreate = func(ctx context.Context, data domain.PostCreationData, file *domain.PendingFile) (domain.Post, error) {
			got = data
			return domain.Post{Id: 11, ThreadId: data.ThreadId, Content: data.Content}, nil
		}

		rr := serve(http.MethodPost, route, h.CreatePost, createRequest(t, http.MethodPost, "/threads/5/posts", `{"content": "reply", "parent": 3, "refers_to": [1, 2]}`, author))

		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		assert.Equal(t, int64(5), got.ThreadId)
		assert.Equal(t, author.Id, got.AuthorId)
		require.NotNil(t, got.ParentId)
		assert.Equal(t, int64(3), *got.ParentId)
		assert.Equal(t, []int64{1, 2}, got.RefersTo)

		var resp api.PostResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, "<p>reply</p>", resp.ContentHTML)
	})

	t.Run("multipart with image", func(t *testing.T) {
		h, m := newTestHandler(t)
		m.post.MockCreate = func(ctx context.Context, data domain.PostCreationData, file *domain.PendingFile) (domain.Post, error) {
			require.NotNil(t, file)
			assert.Equal(t, "image/png", file.MimeType)
			require.NotNil(t, file.ImageWidth)
			assert.Equal(t, 4, *file.ImageWidth)
			assert.Equal(t, 3, *file.ImageHeight)
			return domain.Post{Id: 12, ThreadId: data.ThreadId}, nil
		}

		req := multipartRequest(t, http.MethodPost, "/threads/5/posts", `{"content": "pic"}`, "file", "pic.png", pngBytes(t, 4, 3), author)
		rr := serve(http.MethodPost, route, h.CreatePost, req)
		assert.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	})

	t.Run("disallowed file type", func(t *testing.T) {
		h, _ := newTestHandler(t)
		req := multipartRequest(t, http.MethodPost, "/threads/5/posts", `{"content": "doc"}`, "file", "notes.txt", []byte("plain"), author)
		rr := serve(http.MethodPost, route, h.CreatePost, req)
		assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code)
	})

	t.Run("multipart without json payload", func(t *testing.T) {
		h, _ := newTestHandler(t)
		req := multipartRequest(t, http.MethodPost, "/threads/5/posts", "", "file", "pic.png", pngBytes(t, 1, 1), author)
		rr := serve(http.MethodPost, route, h.CreatePost, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("banned user", func(t *testing.T) {
		h, m := newTestHandler(t)
		m.ban.MockIsBanned = func(ctx context.Context, userId domain.UserId) (bool, error) { return true, nil }
		m.post.MockCreate = func(ctx context.Context, data domain.PostCreationData, file *domain.PendingFile) (domain.Post, error) {
			t.Fatal("post must not be created")
			return domain.Post{}, nil
		}
		rr := serve(http.MethodPost, route, h.CreatePost, createRequest(t, http.MethodPost, "/threads/5/posts", `{"content": "x"}`, author))
		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/v1/users/7/ban", rr.Header().Get("Location"))
	})

	t.Run("second starting post conflicts", func(t *testing.T) {
		h, m := newTestHandler(t)
		m.post.MockCreate = func(ctx context.Context, data domain.PostCreationData, file *domain.PendingFile) (domain.Post, error) {
			return domain.Post{}, &internal_errors.DuplicateStartingPostError{ThreadId: data.ThreadId}
		}
		rr := serve(http.MethodPost, route, h.CreatePost, createRequest(t, http.MethodPost, "/threads/5/posts", `{"content": "x"}`, author))
		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}

func TestUpdatePostHandler(t *testing.T) {
	const route = "/posts/{post}"
	author := &domain.Actor{Id: 7}

	newHandler := func(t *testing.T) (*Handler, *mocks) {
		h, m := newTestHandler(t)
		m.post.MockGet = func(ctx context.Context, id domain.PostId) (domain.Post, error) {
			return domain.Post{Id: id, AuthorId: author.Id, Content: "old"}, nil
		}
		return h, m
	}

	t.Run("author edits", func(t *testing.T) {
		h, m := newHandler(t)
		m.post.MockUpdate = func(ctx context.Context, data domain.PostUpdateData, file *domain.PendingFile) (domain.Post, error) {
			assert.Equal(t, "new", data.Content)
			assert.Nil(t, file)
			return domain.Post{Id: data.Id, Content: data.Content, Updated: true}, nil
		}
		rr := serve(http.MethodPut, route, h.UpdatePost, createRequest(t, http.MethodPut, "/posts/4", `{"content": "new"}`, author))
		require.Equal(t, http.StatusOK, rr.Code)

		var resp api.PostResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.True(t, resp.Updated)
	})

	t.Run("stranger is forbidden", func(t *testing.T) {
		h, m := newHandler(t)
		m.post.MockUpdate = func(ctx context.Context, data domain.PostUpdateData, file *domain.PendingFile) (domain.Post, error) {
			t.Fatal("post must not be updated")
			return domain.Post{}, nil
		}
		rr := serve(http.MethodPut, route, h.UpdatePost, createRequest(t, http.MethodPut, "/posts/4", `{"content": "new"}`, &domain.Actor{Id: 8}))
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("missing post", func(t *testing.T) {
		h, m := newTestHandler(t)
		m.post.MockGet = func(ctx context.Context, id domain.PostId) (domain.Post, error) {
			return domain.Post{}, internal_errors.NotFound("post", id)
		}
		rr := serve(http.MethodPut, route, h.UpdatePost, createRequest(t, http.MethodPut, "/posts/4", `{"content": "new"}`, author))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestDeletePostHandler(t *testing.T) {
	const route = "/posts/{post}"

	h, m := newTestHandler(t)
	m.post.MockGet = func(ctx context.Context, id domain.PostId) (domain.Post, error) {
		return domain.Post{Id: id, AuthorId: 7}, nil
	}
	var deleted domain.PostId
	m.post.MockDelete = func(ctx context.Context, id domain.PostId) error {
		deleted = id
		return nil
	}

	moderator := &domain.Actor{Id: 9, Permissions: []domain.Permission{domain.PermDeletePost}}
	rr := serve(http.MethodDelete, route, h.DeletePost, createRequest(t, http.MethodDelete, "/posts/4", "", moderator))
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, int64(4), deleted)
}
