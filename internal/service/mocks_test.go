package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/forumcore/forum/internal/domain"
)

// --- Mocks ---

type MockBanStorage struct {
	CreateBanFunc           func(ctx context.Context, data domain.BanCreationData) (domain.Ban, error)
	GetBanFunc              func(ctx context.Context, id domain.BanId) (domain.Ban, error)
	ListBansFunc            func(ctx context.Context, userId *domain.UserId) ([]domain.Ban, error)
	UpdateBanFunc           func(ctx context.Context, data domain.BanUpdateData) (domain.Ban, error)
	DeleteBanFunc           func(ctx context.Context, id domain.BanId) error
	HasActiveBanFunc        func(ctx context.Context, userId domain.UserId, now time.Time) (bool, error)
	MostRecentActiveBanFunc func(ctx context.Context, userId domain.UserId, now time.Time) (*domain.Ban, error)
}

func (m *MockBanStorage) CreateBan(ctx context.Context, data domain.BanCreationData) (domain.Ban, error) {
	if m.CreateBanFunc != nil {
		return m.CreateBanFunc(ctx, data)
	}
	return domain.Ban{Id: 1, UserId: data.UserId, Reason: data.Reason, Duration: data.Duration}, nil
}

func (m *MockBanStorage) GetBan(ctx context.Context, id domain.BanId) (domain.Ban, error) {
	if m.GetBanFunc != nil {
		return m.GetBanFunc(ctx, id)
	}
	return domain.Ban{Id: id}, nil
}

func (m *MockBanStorage) ListBans(ctx context.Context, userId *domain.UserId) ([]domain.Ban, error) {
	if m.ListBansFunc != nil {
		return m.ListBansFunc(ctx, userId)
	}
	return nil, nil
}

func (m *MockBanStorage) UpdateBan(ctx context.Context, data domain.BanUpdateData) (domain.Ban, error) {
	if m.UpdateBanFunc != nil {
		return m.UpdateBanFunc(ctx, data)
	}
	return domain.Ban{Id: data.Id}, nil
}

func (m *MockBanStorage) DeleteBan(ctx context.Context, id domain.BanId) error {
	if m.DeleteBanFunc != nil {
		return m.DeleteBanFunc(ctx, id)
	}
	return nil
}

func (m *MockBanStorage) HasActiveBan(ctx context.Context, userId domain.UserId, now time.Time) (bool, error) {
	if m.HasActiveBanFunc != nil {
		return m.HasActiveBanFunc(ctx, userId, now)
	}
	return false, nil
}

func (m *MockBanStorage) MostRecentActiveBan(ctx context.Context, userId domain.UserId, now time.Time) (*domain.Ban, error) {
	if m.MostRecentActiveBanFunc != nil {
		return m.MostRecentActiveBanFunc(ctx, userId, now)
	}
	return nil, nil
}

type MockThreadStorage struct {
	CreateThreadFunc         func(ctx context.Context, data domain.ThreadCreationData) (domain.Thread, domain.Post, error)
	GetThreadFunc            func(ctx context.Context, id domain.ThreadId) (domain.Thread, error)
	ThreadPostsFunc          func(ctx context.Context, id domain.ThreadId) ([]*domain.Post, error)
	ListThreadsFunc          func(ctx context.Context, board *domain.BoardName, page, perPage int) ([]*domain.Thread, error)
	UpdateThreadFunc         func(ctx context.Context, data domain.ThreadUpdateData) (domain.Thread, error)
	DeleteThreadFunc         func(ctx context.Context, id domain.ThreadId) ([]domain.FileRef, error)
	RefreshLastPostAddedFunc func(ctx context.Context, id domain.ThreadId) error
}

func (m *MockThreadStorage) CreateThread(ctx context.Context, data domain.ThreadCreationData) (domain.Thread, domain.Post, error) {
	if m.CreateThreadFunc != nil {
		return m.CreateThreadFunc(ctx, data)
	}
	return domain.Thread{Id: 1, Board: data.Board, Name: data.Name}, domain.Post{Id: 1, ThreadId: 1, StartingPost: true}, nil
}

func (m *MockThreadStorage) GetThread(ctx context.Context, id domain.ThreadId) (domain.Thread, error) {
	if m.GetThreadFunc != nil {
		return m.GetThreadFunc(ctx, id)
	}
	return domain.Thread{Id: id}, nil
}

func (m *MockThreadStorage) ThreadPosts(ctx context.Context, id domain.ThreadId) ([]*domain.Post, error) {
	if m.ThreadPostsFunc != nil {
		return m.ThreadPostsFunc(ctx, id)
	}
	return []*domain.Post{}, nil
}

func (m *MockThreadStorage) ListThreads(ctx context.Context, board *domain.BoardName, page, perPage int) ([]*domain.Thread, error) {
	if m.ListThreadsFunc != nil {
		return m.ListThreadsFunc(ctx, board, page, perPage)
	}
	return []*domain.Thread{}, nil
}

func (m *MockThreadStorage) UpdateThread(ctx context.Context, data domain.ThreadUpdateData) (domain.Thread, error) {
	if m.UpdateThreadFunc != nil {
		return m.UpdateThreadFunc(ctx, data)
	}
	return domain.Thread{Id: data.Id}, nil
}

func (m *MockThreadStorage) DeleteThread(ctx context.Context, id domain.ThreadId) ([]domain.FileRef, error) {
	if m.DeleteThreadFunc != nil {
		return m.DeleteThreadFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockThreadStorage) RefreshLastPostAdded(ctx context.Context, id domain.ThreadId) error {
	if m.RefreshLastPostAddedFunc != nil {
		return m.RefreshLastPostAddedFunc(ctx, id)
	}
	return nil
}

type MockPostStorage struct {
	CreatePostFunc func(ctx context.Context, data domain.PostCreationData) (domain.Post, error)
	GetPostFunc    func(ctx context.Context, id domain.PostId) (domain.Post, error)
	UpdatePostFunc func(ctx context.Context, data domain.PostUpdateData) (domain.Post, error)
	DeletePostFunc func(ctx context.Context, id domain.PostId) ([]domain.FileRef, error)
}

func (m *MockPostStorage) CreatePost(ctx context.Context, data domain.PostCreationData) (domain.Post, error) {
	if m.CreatePostFunc != nil {
		return m.CreatePostFunc(ctx, data)
	}
	return domain.Post{Id: 1, ThreadId: data.ThreadId, Content: data.Content, File: data.File}, nil
}

func (m *MockPostStorage) GetPost(ctx context.Context, id domain.PostId) (domain.Post, error) {
	if m.GetPostFunc != nil {
		return m.GetPostFunc(ctx, id)
	}
	return domain.Post{Id: id}, nil
}

func (m *MockPostStorage) UpdatePost(ctx context.Context, data domain.PostUpdateData) (domain.Post, error) {
	if m.UpdatePostFunc != nil {
		return m.UpdatePostFunc(ctx, data)
	}
	return domain.Post{Id: data.Id, Content: data.Content, File: data.File}, nil
}

func (m *MockPostStorage) DeletePost(ctx context.Context, id domain.PostId) ([]domain.FileRef, error) {
	if m.DeletePostFunc != nil {
		return m.DeletePostFunc(ctx, id)
	}
	return nil, nil
}

type MockBoardStorage struct {
	CreateBoardFunc func(ctx context.Context, data domain.BoardCreationData) (domain.Board, error)
	GetBoardFunc    func(ctx context.Context, name domain.BoardName) (domain.Board, error)
	ListBoardsFunc  func(ctx context.Context) ([]domain.Board, error)
	UpdateBoardFunc func(ctx context.Context, name domain.BoardName, description string) (domain.Board, error)
	DeleteBoardFunc func(ctx context.Context, name domain.BoardName) ([]domain.FileRef, error)
}

func (m *MockBoardStorage) CreateBoard(ctx context.Context, data domain.BoardCreationData) (domain.Board, error) {
	if m.CreateBoardFunc != nil {
		return m.CreateBoardFunc(ctx, data)
	}
	return domain.Board{Name: data.Name, Description: data.Description, CreatorId: data.CreatorId}, nil
}

func (m *MockBoardStorage) GetBoard(ctx context.Context, name domain.BoardName) (domain.Board, error) {
	if m.GetBoardFunc != nil {
		return m.GetBoardFunc(ctx, name)
	}
	return domain.Board{Name: name}, nil
}

func (m *MockBoardStorage) ListBoards(ctx context.Context) ([]domain.Board, error) {
	if m.ListBoardsFunc != nil {
		return m.ListBoardsFunc(ctx)
	}
	return []domain.Board{}, nil
}

func (m *MockBoardStorage) UpdateBoard(ctx context.Context, name domain.BoardName, description string) (domain.Board, error) {
	if m.UpdateBoardFunc != nil {
		return m.UpdateBoardFunc(ctx, name, description)
	}
	return domain.Board{Name: name, Description: description}, nil
}

func (m *MockBoardStorage) DeleteBoard(ctx context.Context, name domain.BoardName) ([]domain.FileRef, error) {
	if m.DeleteBoardFunc != nil {
		return m.DeleteBoardFunc(ctx, name)
	}
	return nil, nil
}

type MockObservedStorage struct {
	AddObservedFunc     func(ctx context.Context, userId domain.UserId, threadId domain.ThreadId) error
	RemoveObservedFunc  func(ctx context.Context, userId domain.UserId, threadId domain.ThreadId) error
	ObservedThreadsFunc func(ctx context.Context, userId domain.UserId) ([]*domain.Thread, error)
}

func (m *MockObservedStorage) AddObserved(ctx context.Context, userId domain.UserId, threadId domain.ThreadId) error {
	if m.AddObservedFunc != nil {
		return m.AddObservedFunc(ctx, userId, threadId)
	}
	return nil
}

func (m *MockObservedStorage) RemoveObserved(ctx context.Context, userId domain.UserId, threadId domain.ThreadId) error {
	if m.RemoveObservedFunc != nil {
		return m.RemoveObservedFunc(ctx, userId, threadId)
	}
	return nil
}

func (m *MockObservedStorage) ObservedThreads(ctx context.Context, userId domain.UserId) ([]*domain.Thread, error) {
	if m.ObservedThreadsFunc != nil {
		return m.ObservedThreadsFunc(ctx, userId)
	}
	return []*domain.Thread{}, nil
}

type MockUserStorage struct {
	CreateUserFunc      func(ctx context.Context, username domain.Username, passHash string) (domain.UserId, error)
	UserByUsernameFunc  func(ctx context.Context, username domain.Username) (domain.User, error)
	GrantPermissionFunc func(ctx context.Context, id domain.UserId, perm domain.Permission) error
	ProfileFunc         func(ctx context.Context, id domain.UserId) (domain.UserProfile, error)
	UpdateAvatarFunc    func(ctx context.Context, id domain.UserId, avatar *domain.FileRef) (*domain.FileRef, error)
}

func (m *MockUserStorage) CreateUser(ctx context.Context, username domain.Username, passHash string) (domain.UserId, error) {
	if m.CreateUserFunc != nil {
		return m.CreateUserFunc(ctx, username, passHash)
	}
	return 1, nil
}

func (m *MockUserStorage) UserByUsername(ctx context.Context, username domain.Username) (domain.User, error) {
	if m.UserByUsernameFunc != nil {
		return m.UserByUsernameFunc(ctx, username)
	}
	return domain.User{Id: 1, Username: username}, nil
}

func (m *MockUserStorage) GrantPermission(ctx context.Context, id domain.UserId, perm domain.Permission) error {
	if m.GrantPermissionFunc != nil {
		return m.GrantPermissionFunc(ctx, id, perm)
	}
	return nil
}

func (m *MockUserStorage) Profile(ctx context.Context, id domain.UserId) (domain.UserProfile, error) {
	if m.ProfileFunc != nil {
		return m.ProfileFunc(ctx, id)
	}
	return domain.UserProfile{UserId: id}, nil
}

func (m *MockUserStorage) UpdateAvatar(ctx context.Context, id domain.UserId, avatar *domain.FileRef) (*domain.FileRef, error) {
	if m.UpdateAvatarFunc != nil {
		return m.UpdateAvatarFunc(ctx, id, avatar)
	}
	return nil, nil
}

type MockJwt struct {
	NewTokenFunc func(user domain.User) (string, error)
}

func (m *MockJwt) NewToken(user domain.User) (string, error) {
	if m.NewTokenFunc != nil {
		return m.NewTokenFunc(user)
	}
	return "token", nil
}

// MockMediaStorage keeps files in memory and records deletions.
type MockMediaStorage struct {
	mu      sync.Mutex
	files   map[domain.FileRef][]byte
	deleted []domain.FileRef
	seq     int

	SaveFileErr   error
	DeleteFileErr error
}

func NewMockMediaStorage() *MockMediaStorage {
	return &MockMediaStorage{files: make(map[domain.FileRef][]byte)}
}

func (m *MockMediaStorage) SaveFile(fileData io.Reader, dir, originalFilename string) (domain.FileRef, error) {
	if m.SaveFileErr != nil {
		return "", m.SaveFileErr
	}
	data, err := io.ReadAll(fileData)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	ref := dir + "/" + strings.Repeat("f", m.seq) + "-" + originalFilename
	m.files[ref] = data
	return ref, nil
}

func (m *MockMediaStorage) Read(ref domain.FileRef) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[ref]
	if !ok {
		return nil, errors.New("file not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MockMediaStorage) DeleteFile(ref domain.FileRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, ref)
	if m.DeleteFileErr != nil {
		return m.DeleteFileErr
	}
	delete(m.files, ref)
	return nil
}

func (m *MockMediaStorage) Deleted() []domain.FileRef {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.FileRef(nil), m.deleted...)
}

func (m *MockMediaStorage) Stored() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

func pendingFile(name, content string) *domain.PendingFile {
	return &domain.PendingFile{
		Filename:  name,
		MimeType:  "image/png",
		SizeBytes: int64(len(content)),
		Data:      strings.NewReader(content),
	}
}
