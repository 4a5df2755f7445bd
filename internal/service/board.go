package service

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/forumcore/forum/internal/domain"
	internal_errors "github.com/forumcore/forum/internal/errors"
	"github.com/forumcore/forum/internal/logger"
)

const maxBoardDescriptionLen = 500

var boardNameRe = regexp.MustCompile(`^[a-z0-9]{1,16}$`)

// to mock service in tests
type BoardService interface {
	Create(ctx context.Context, data domain.BoardCreationData) (domain.Board, error)
	Get(ctx context.Context, name domain.BoardName) (domain.Board, error)
	List(ctx context.Context) ([]domain.Board, error)
	Update(ctx context.Context, name domain.BoardName, description string) (domain.Board, error)
	Delete(ctx context.Context, name domain.BoardName) error
}

type Board struct {
	storage BoardStorage
	media   MediaStorage
}

type BoardStorage interface {
	CreateBoard(ctx context.Context, data domain.BoardCreationData) (domain.Board, error)
	GetBoard(ctx context.Context, name domain.BoardName) (domain.Board, error)
	ListBoards(ctx context.Context) ([]domain.Board, error)
	UpdateBoard(ctx context.Context, name domain.BoardName, description string) (domain.Board, error)
	DeleteBoard(ctx context.Context, name domain.BoardName) ([]domain.FileRef, error)
}

func NewBoard(storage BoardStorage, media MediaStorage) BoardService {
	return &Board{storage: storage, media: media}
}

func (b *Board) Create(ctx context.Context, data domain.BoardCreationData) (domain.Board, error) {
	if err := validateBoardName(data.Name); err != nil {
		return domain.Board{}, err
	}
	data.Description = strings.TrimSpace(data.Description)
	if err := validateBoardDescription(data.Description); err != nil {
		return domain.Board{}, err
	}

	board, err := b.storage.CreateBoard(ctx, data)
	if err != nil {
		return domain.Board{}, err
	}
	logger.Log.Info("board created", "board", board.Name, "creator_id", board.CreatorId)
	return board, nil
}

func (b *Board) Get(ctx context.Context, name domain.BoardName) (domain.Board, error) {
	if err := validateBoardName(name); err != nil {
		return domain.Board{}, err
	}
	return b.storage.GetBoard(ctx, name)
}

func (b *Board) List(ctx context.Context) ([]domain.Board, error) {
	return b.storage.ListBoards(ctx)
}

func (b *Board) Update(ctx context.Context, name domain.BoardName, description string) (domain.Board, error) {
	if err := validateBoardName(name); err != nil {
		return domain.Board{}, err
	}
	description = strings.TrimSpace(description)
	if err := validateBoardDescription(description); err != nil {
		return domain.Board{}, err
	}
	return b.storage.UpdateBoard(ctx, name, description)
}

// Delete removes the board, its threads and their posts.
func (b *Board) Delete(ctx context.Context, name domain.BoardName) error {
	if err := validateBoardName(name); err != nil {
		return err
	}

	files, err := b.storage.DeleteBoard(ctx, name)
	if err != nil {
		return err
	}
	logger.Log.Info("board deleted", "board", name, "files", len(files))
	deleteFiles(b.media, files)
	return nil
}

func validateBoardName(name domain.BoardName) error {
	if !boardNameRe.MatchString(name) {
		return &internal_errors.ValidationError{Message: "board name must be 1-16 lowercase letters or digits"}
	}
	return nil
}

func validateBoardDescription(description string) error {
	if utf8.RuneCountInString(description) > maxBoardDescriptionLen {
		return &internal_errors.ValidationError{Message: "description is too long"}
	}
	return nil
}
