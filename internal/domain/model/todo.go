package domain

import "time"

// MaxIncomplete is the ceiling of incomplete todos a single user may hold.
const MaxIncomplete = 5

// MaxTitleLength bounds todo titles.
const MaxTitleLength = 200

type Todo struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"userId"`
	Title     string     `json:"title"`
	Completed bool       `json:"completed"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// Sort fields accepted by ListParams. Anything else falls back to SortID.
const (
	SortID        = "id"
	SortTitle     = "title"
	SortUserID    = "userid"
	SortCompleted = "completed"

	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// ListParams selects, orders and pages a todo listing. Title is a
// case-insensitive substring match. Nil UserID/Completed mean "no filter".
type ListParams struct {
	Page      int
	PageSize  int
	Title     string
	UserID    *int64
	Completed *bool
	Sort      string
	Order     string
}

// ListResult is one page of todos plus the size of the whole filtered set.
type ListResult struct {
	Page       int     `json:"page"`
	PageSize   int     `json:"pageSize"`
	TotalCount int     `json:"totalCount"`
	TotalPages int     `json:"totalPages"`
	Items      []*Todo `json:"items"`
}
