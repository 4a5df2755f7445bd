package domain

type (
	UserId     = int64
	Username   = string
	Password   = string
	Permission = string

	BoardName = string

	ThreadId   = int64
	ThreadName = string

	PostId      = int64
	PostContent = string

	BanId = int64

	// FileRef is an opaque reference returned by the file-storage provider.
	FileRef = string
)

// Named permissions. The codenames follow the "<verb>_<object>" convention
// used by the access evaluator to derive the permission for an action.
const (
	PermAddBoard    Permission = "add_board"
	PermChangeBoard Permission = "change_board"
	PermDeleteBoard Permission = "delete_board"

	PermChangeThread Permission = "change_thread"
	PermDeleteThread Permission = "delete_thread"

	PermChangePost Permission = "change_post"
	PermDeletePost Permission = "delete_post"

	PermViewBan   Permission = "view_ban"
	PermAddBan    Permission = "add_ban"
	PermChangeBan Permission = "change_ban"
	PermDeleteBan Permission = "delete_ban"
)

// KnownPermissions lists every permission that can be granted.
var KnownPermissions = []Permission{
	PermAddBoard, PermChangeBoard, PermDeleteBoard,
	PermChangeThread, PermDeleteThread,
	PermChangePost, PermDeletePost,
	PermViewBan, PermAddBan, PermChangeBan, PermDeleteBan,
}
