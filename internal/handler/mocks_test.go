package handler

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/forumcore/forum/internal/access"
	"github.com/forumcore/forum/internal/config"
	"github.com/forumcore/forum/internal/domain"
	internal_errors "github.com/forumcore/forum/internal/errors"
	mw "github.com/forumcore/forum/internal/middleware"
)

type MockUserService struct {
	MockRegister     func(ctx context.Context, creds domain.Credentials) (domain.UserId, error)
	MockLogin        func(ctx context.Context, creds domain.Credentials) (string, error)
	MockProfile      func(ctx context.Context, id domain.UserId) (domain.UserProfile, error)
	MockUpdateAvatar func(ctx context.Context, id domain.UserId, file *domain.PendingFile) (domain.UserProfile, error)
	MockGrant        func(ctx context.Context, id domain.UserId, perm domain.Permission) error
}

func (m *MockUserService) Register(ctx context.Context, creds domain.Credentials) (domain.UserId, error) {
	if m.MockRegister != nil {
		return m.MockRegister(ctx, creds)
	}
	return 1, nil
}

func (m *MockUserService) Login(ctx context.Context, creds domain.Credentials) (string, error) {
	if m.MockLogin != nil {
		return m.MockLogin(ctx, creds)
	}
	return "token", nil
}

func (m *MockUserService) Profile(ctx context.Context, id domain.UserId) (domain.UserProfile, error) {
	if m.MockProfile != nil {
		return m.MockProfile(ctx, id)
	}
	return domain.UserProfile{UserId: id}, nil
}

func (m *MockUserService) UpdateAvatar(ctx context.Context, id domain.UserId, file *domain.PendingFile) (domain.UserProfile, error) {
	if m.MockUpdateAvatar != nil {
		return m.MockUpdateAvatar(ctx, id, file)
	}
	return domain.UserProfile{UserId: id}, nil
}

func (m *MockUserService) GrantPermission(ctx context.Context, id domain.UserId, perm domain.Permission) error {
	if m.MockGrant != nil {
		return m.MockGrant(ctx, id, perm)
	}
	return nil
}

type MockBoardService struct {
	MockCreate func(ctx context.Context, data domain.BoardCreationData) (domain.Board, error)
	MockGet    func(ctx context.Context, name domain.BoardName) (domain.Board, error)
	MockList   func(ctx context.Context) ([]domain.Board, error)
	MockUpdate func(ctx context.Context, name domain.BoardName, description string) (domain.Board, error)
	MockDelete func(ctx context.Context, name domain.BoardName) error
}

func (m *MockBoardService) Create(ctx context.Context, data domain.BoardCreationData) (domain.Board, error) {
	if m.MockCreate != nil {
		return m.MockCreate(ctx, data)
	}
	return domain.Board{Name: data.Name, Description: data.Description, CreatorId: data.CreatorId}, nil
}

func (m *MockBoardService) Get(ctx context.Context, name domain.BoardName) (domain.Board, error) {
	if m.MockGet != nil {
		return m.MockGet(ctx, name)
	}
	return domain.Board{Name: name}, nil
}

func (m *MockBoardService) List(ctx context.Context) ([]domain.Board, error) {
	if m.MockList != nil {
		return m.MockList(ctx)
	}
	return []domain.Board{}, nil
}

func (m *MockBoardService) Update(ctx context.Context, name domain.BoardName, description string) (domain.Board, error) {
	if m.MockUpdate != nil {
		return m.MockUpdate(ctx, name, description)
	}
	return domain.Board{Name: name, Description: description}, nil
}

func (m *MockBoardService) Delete(ctx context.Context, name domain.BoardName) error {
	if m.MockDelete != nil {
		return m.MockDelete(ctx, name)
	}
	return nil
}

type MockThreadService struct {
	MockCreate  func(ctx context.Context, data domain.ThreadCreationData, file *domain.PendingFile) (domain.Thread, domain.Post, error)
	MockGet     func(ctx context.Context, id domain.ThreadId) (domain.Thread, error)
	MockTree    func(ctx context.Context, id domain.ThreadId) (domain.ThreadTree, error)
	MockList    func(ctx context.Context, board *domain.BoardName, page int) ([]*domain.Thread, error)
	MockUpdate  func(ctx context.Context, data domain.ThreadUpdateData) (domain.Thread, error)
	MockDelete  func(ctx context.Context, id domain.ThreadId) error
	MockRefresh func(ctx context.Context, id domain.ThreadId) error
}

func (m *MockThreadService) Create(ctx context.Context, data domain.ThreadCreationData, file *domain.PendingFile) (domain.Thread, domain.Post, error) {
	if m.MockCreate != nil {
		return m.MockCreate(ctx, data, file)
	}
	return domain.Thread{Id: 1, Board: data.Board, Name: data.Name}, domain.Post{Id: 1, ThreadId: 1, StartingPost: true}, nil
}

func (m *MockThreadService) Get(ctx context.Context, id domain.ThreadId) (domain.Thread, error) {
	if m.MockGet != nil {
		return m.MockGet(ctx, id)
	}
	return domain.Thread{Id: id}, nil
}

func (m *MockThreadService) Tree(ctx context.Context, id domain.ThreadId) (domain.ThreadTree, error) {
	if m.MockTree != nil {
		return m.MockTree(ctx, id)
	}
	return domain.BuildTree(nil), nil
}

func (m *MockThreadService) List(ctx context.Context, board *domain.BoardName, page int) ([]*domain.Thread, error) {
	if m.MockList != nil {
		return m.MockList(ctx, board, page)
	}
	return []*domain.Thread{}, nil
}

func (m *MockThreadService) Update(ctx context.Context, data domain.ThreadUpdateData) (domain.Thread, error) {
	if m.MockUpdate != nil {
		return m.MockUpdate(ctx, data)
	}
	return domain.Thread{Id: data.Id}, nil
}

func (m *MockThreadService) Delete(ctx context.Context, id domain.ThreadId) error {
	if m.MockDelete != nil {
		return m.MockDelete(ctx, id)
	}
	return nil
}

func (m *MockThreadService) RefreshLastPostAdded(ctx context.Context, id domain.ThreadId) error {
	if m.MockRefresh != nil {
		return m.MockRefresh(ctx, id)
	}
	return nil
}

type MockPostService struct {
	MockCreate func(ctx context.Context, data domain.PostCreationData, file *domain.PendingFile) (domain.Post, error)
	MockGet    func(ctx context.Context, id domain.PostId) (domain.Post, error)
	MockUpdate func(ctx context.Context, data domain.PostUpdateData, file *domain.PendingFile) (domain.Post, error)
	MockDelete func(ctx context.Context, id domain.PostId) error
}

func (m *MockPostService) Create(ctx context.Context, data domain.PostCreationData, file *domain.PendingFile) (domain.Post, error) {
	if m.MockCreate != nil {
		return m.MockCreate(ctx, data, file)
	}
	return domain.Post{Id: 1, ThreadId: data.ThreadId, AuthorId: data.AuthorId, Content: data.Content}, nil
}

func (m *MockPostService) Get(ctx context.Context, id domain.PostId) (domain.Post, error) {
	if m.MockGet != nil {
		return m.MockGet(ctx, id)
	}
	return domain.Post{Id: id}, nil
}

func (m *MockPostService) Update(ctx context.Context, data domain.PostUpdateData, file *domain.PendingFile) (domain.Post, error) {
	if m.MockUpdate != nil {
		return m.MockUpdate(ctx, data, file)
	}
	return domain.Post{Id: data.Id, Content: data.Content}, nil
}

func (m *MockPostService) Delete(ctx context.Context, id domain.PostId) error {
	if m.MockDelete != nil {
		return m.MockDelete(ctx, id)
	}
	return nil
}

type MockBanService struct {
	MockIsBanned   func(ctx context.Context, userId domain.UserId) (bool, error)
	MockMostRecent func(ctx context.Context, userId domain.UserId) (*domain.Ban, error)
	MockCreate     func(ctx context.Context, data domain.BanCreationData) (domain.Ban, error)
	MockGet        func(ctx context.Context, id domain.BanId) (domain.Ban, error)
	MockList       func(ctx context.Context, userId *domain.UserId) ([]domain.Ban, error)
	MockUpdate     func(ctx context.Context, data domain.BanUpdateData) (domain.Ban, error)
	MockDelete     func(ctx context.Context, id domain.BanId) error
}

func (m *MockBanService) IsBanned(ctx context.Context, userId domain.UserId) (bool, error) {
	if m.MockIsBanned != nil {
		return m.MockIsBanned(ctx, userId)
	}
	return false, nil
}

func (m *MockBanService) MostRecentActiveBan(ctx context.Context, userId domain.UserId) (*domain.Ban, error) {
	if m.MockMostRecent != nil {
		return m.MockMostRecent(ctx, userId)
	}
	return nil, nil
}

func (m *MockBanService) TimeLeft(ban *domain.Ban) string {
	return ban.TimeLeft(ban.CreatedAt)
}

func (m *MockBanService) Create(ctx context.Context, data domain.BanCreationData) (domain.Ban, error) {
	if m.MockCreate != nil {
		return m.MockCreate(ctx, data)
	}
	return domain.Ban{Id: 1, UserId: data.UserId, Reason: data.Reason, Duration: data.Duration}, nil
}

func (m *MockBanService) Get(ctx context.Context, id domain.BanId) (domain.Ban, error) {
	if m.MockGet != nil {
		return m.MockGet(ctx, id)
	}
	return domain.Ban{Id: id}, nil
}

func (m *MockBanService) List(ctx context.Context, userId *domain.UserId) ([]domain.Ban, error) {
	if m.MockList != nil {
		return m.MockList(ctx, userId)
	}
	return []domain.Ban{}, nil
}

func (m *MockBanService) Update(ctx context.Context, data domain.BanUpdateData) (domain.Ban, error) {
	if m.MockUpdate != nil {
		return m.MockUpdate(ctx, data)
	}
	return domain.Ban{Id: data.Id}, nil
}

func (m *MockBanService) Delete(ctx context.Context, id domain.BanId) error {
	if m.MockDelete != nil {
		return m.MockDelete(ctx, id)
	}
	return nil
}

type MockObservedService struct {
	MockAdd    func(ctx context.Context, userId domain.UserId, threadId domain.ThreadId) error
	MockRemove func(ctx context.Context, userId domain.UserId, threadId domain.ThreadId) error
	MockList   func(ctx context.Context, userId domain.UserId) ([]*domain.Thread, error)
}

func (m *MockObservedService) Add(ctx context.Context, userId domain.UserId, threadId domain.ThreadId) error {
	if m.MockAdd != nil {
		return m.MockAdd(ctx, userId, threadId)
	}
	return nil
}

func (m *MockObservedService) Remove(ctx context.Context, userId domain.UserId, threadId domain.ThreadId) error {
	if m.MockRemove != nil {
		return m.MockRemove(ctx, userId, threadId)
	}
	return nil
}

func (m *MockObservedService) List(ctx context.Context, userId domain.UserId) ([]*domain.Thread, error) {
	if m.MockList != nil {
		return m.MockList(ctx, userId)
	}
	return []*domain.Thread{}, nil
}

// MockMedia keeps files in memory.
type MockMedia struct {
	files map[domain.FileRef][]byte
}

func (m *MockMedia) SaveFile(fileData io.Reader, dir, originalFilename string) (domain.FileRef, error) {
	data, err := io.ReadAll(fileData)
	if err != nil {
		return "", err
	}
	ref := dir + "/" + originalFilename
	m.files[ref] = data
	return ref, nil
}

func (m *MockMedia) Read(ref domain.FileRef) (io.ReadCloser, error) {
	data, ok := m.files[ref]
	if !ok {
		return nil, internal_errors.NotFound("file", ref)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MockMedia) DeleteFile(ref domain.FileRef) error {
	delete(m.files, ref)
	return nil
}

type plainRenderer struct{}

func (plainRenderer) Render(content string) string { return "<p>" + content + "</p>" }

type MockPinger struct {
	err error
}

func (m *MockPinger) Ping(ctx context.Context) error { return m.err }

type mocks struct {
	user     *MockUserService
	board    *MockBoardService
	thread   *MockThreadService
	post     *MockPostService
	ban      *MockBanService
	observed *MockObservedService
	media    *MockMedia
	pinger   *MockPinger
}

// newTestHandler builds a handler over fresh mocks and the real access evaluator,
// which consults the mocked ban service.
func newTestHandler(t *testing.T) (*Handler, *mocks) {
	t.Helper()
	m := &mocks{
		user:     &MockUserService{},
		board:    &MockBoardService{},
		thread:   &MockThreadService{},
		post:     &MockPostService{},
		ban:      &MockBanService{},
		observed: &MockObservedService{},
		media:    &MockMedia{files: map[domain.FileRef][]byte{}},
		pinger:   &MockPinger{},
	}
	cfg := &config.Config{Public: config.Public{
		ThreadsPerPage:        10,
		JwtTTL:                time.Hour,
		MaxUploadSize:         1 << 20,
		AllowedImageMimeTypes: []string{"image/png", "image/jpeg"},
	}}
	h := New(Services{
		User:     m.user,
		Board:    m.board,
		Thread:   m.thread,
		Post:     m.post,
		Ban:      m.ban,
		Observed: m.observed,
	}, m.media, access.New(m.ban), plainRenderer{}, m.pinger, cfg)
	return h, m
}

func createRequest(t *testing.T, method, url, body string, actor *domain.Actor) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, url, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if actor != nil {
		req = req.WithContext(mw.WithActor(req.Context(), actor))
	}
	return req
}
