// Package tp holds the types shared by the task and photo evidence client: tasks and
// their permissions, images, GPS points, generated files and the session.
package tp

type Task struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	CreatedAt   Time   `json:"created_at"`
	OwnerID     int    `json:"owner_id,omitempty"`
	Owner       *User  `json:"owner,omitempty"`
}

// TaskInput is the body of task creation and update.
type TaskInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type PermissionType string

const (
	PermissionRead  PermissionType = "read"
	PermissionEdit  PermissionType = "edit"
	PermissionAdmin PermissionType = "admin"
)

func (p PermissionType) Valid() bool {
	switch p {
	case PermissionRead, PermissionEdit, PermissionAdmin:
		return true
	}
	return false
}

// UserPermission is what the current user may do on one task.
type UserPermission struct {
	IsOwner        bool   `json:"is_owner"`
	CanView        bool   `json:"can_view"`
	CanEdit        bool   `json:"can_edit"`
	CanUpload      bool   `json:"can_upload"`
	CanManage      bool   `json:"can_manage"`
	CanShare       bool   `json:"can_share"`
	PermissionType string `json:"permission_type"`
}

type Sharer struct {
	Username  string `json:"username"`
	IsCreator bool   `json:"is_creator"`
}

// Permission is one entry of the share list of a task.
type Permission struct {
	UserID         int            `json:"user_id"`
	Username       string         `json:"username"`
	PermissionType PermissionType `json:"permission_type"`
	CanEdit        bool           `json:"can_edit"`
	CanUpload      bool           `json:"can_upload"`
	CanManage      bool           `json:"can_manage"`
	SharedBy       *Sharer        `json:"shared_by,omitempty"`
}

// TaskRepository is the local cache of the tasks visible to the user.
type TaskRepository interface {
	Get(...int) ([]*Task, error)
	List() ([]*Task, error)
	Upsert(*Task) error
	Delete(int) error
}

type TaskIndex interface {
	Index(*Task) error
	Search(q string) ([]int, error)
	Delete(int) error
}
