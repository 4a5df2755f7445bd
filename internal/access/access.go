// Package access decides whether an actor may perform an action on a forum object.
package access

import (
	"context"

	"github.com/forumcore/forum/internal/domain"
)

type Action string

const (
	View   Action = "view"
	Create Action = "add"
	Update Action = "change"
	Delete Action = "delete"
)

type Kind string

const (
	KindBoard   Kind = "board"
	KindThread  Kind = "thread"
	KindPost    Kind = "post"
	KindBan     Kind = "ban"
	KindProfile Kind = "profile"
)

type Decision int

const (
	Forbidden Decision = iota
	Allowed
	// RequiresBanRedirect means the actor would be allowed if not for an active ban.
	RequiresBanRedirect
)

func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allowed"
	case RequiresBanRedirect:
		return "ban_redirect"
	default:
		return "forbidden"
	}
}

// Target identifies the object of an action. OwnerId is the author of a thread
// or post, or the user a profile belongs to. It is unused for creation.
type Target struct {
	Kind    Kind
	OwnerId domain.UserId
}

// Permission is the named permission that grants action on objects of kind.
func Permission(action Action, kind Kind) domain.Permission {
	return string(action) + "_" + string(kind)
}

type BanChecker interface {
	IsBanned(ctx context.Context, userId domain.UserId) (bool, error)
}

type Evaluator struct {
	bans BanChecker
}

func New(bans BanChecker) *Evaluator {
	return &Evaluator{bans: bans}
}

// Check evaluates the rules in order:
//   - anyone may view, except ban records;
//   - anonymous actors may do nothing else;
//   - boards and bans need the named permission;
//   - a profile may be changed by its owner only;
//   - threads and posts may be created by anyone who is not banned;
//   - threads and posts may be changed or deleted by holders of the named
//     permission, or by their author if the author is not banned.
func (e *Evaluator) Check(ctx context.Context, actor *domain.Actor, action Action, target Target) (Decision, error) {
	if action == View && target.Kind != KindBan {
		return Allowed, nil
	}
	if actor == nil {
		return Forbidden, nil
	}

	switch target.Kind {
	case KindBoard, KindBan:
		return allowIf(actor.HasPerm(Permission(action, target.Kind))), nil

	case KindProfile:
		return allowIf(action == Update && actor.Id == target.OwnerId), nil

	case KindThread, KindPost:
		if action == Create {
			return e.unlessBanned(ctx, actor)
		}
		if actor.HasPerm(Permission(action, target.Kind)) {
			return Allowed, nil
		}
		if actor.Id == target.OwnerId {
			return e.unlessBanned(ctx, actor)
		}
		return Forbidden, nil
	}
	return Forbidden, nil
}

func (e *Evaluator) unlessBanned(ctx context.Context, actor *domain.Actor) (Decision, error) {
	banned, err := e.bans.IsBanned(ctx, actor.Id)
	if err != nil {
		return Forbidden, err
	}
	if banned {
		return RequiresBanRedirect, nil
	}
	return Allowed, nil
}

func allowIf(ok bool) Decision {
	if ok {
		return Allowed
	}
	return Forbidden
}
