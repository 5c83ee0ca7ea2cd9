package database

// Stream is a registered feed source.
type Stream struct {
	ID          int64  `json:"id"`
	Link        string `json:"link"`
	Title       string `json:"title"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

// Item is one ingested feed entry keyed by its link.
type Item struct {
	ID          int64  `json:"id"`
	Link        string `json:"link"`
	Title       string `json:"title"`
	Description string `json:"description"`
	PubDate     string `json:"pubDate"`  // Source-provided, informational only
	DateTime    string `json:"dateTime"` // Ingestion timestamp, TimeLayout
	Image       string `json:"image"`
	Deleted     bool   `json:"deleted"`
}

// ItemUpdate lists the fields of an item that may be changed. Nil fields are left untouched.
type ItemUpdate struct {
	Title       *string
	Description *string
	Link        *string
	PubDate     *string
	Image       *string
	Deleted     *bool
}

func (u ItemUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Link == nil &&
		u.PubDate == nil && u.Image == nil && u.Deleted == nil
}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

type ItemQuery struct {
	Page     int
	PageSize int
	Order    SortOrder
}

// Page is one page of a listing.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	TotalPages int `json:"total_pages"`
	Total      int `json:"total"`
}

// FilterRule is a link rejection predicate: a literal substring or a "regex:" prefixed pattern.
type FilterRule struct {
	ID          int64  `json:"id"`
	Pattern     string `json:"filter"`
	Title       string `json:"title"`
	Description string `json:"description"`
	DateTime    string `json:"dateTime"`
}

// FilterRuleInput creates a rule, or updates rule ID when ID is non-zero.
type FilterRuleInput struct {
	ID          int64
	Pattern     string
	Title       *string
	Description *string
}

type UserLevel string

const (
	LevelPublic     UserLevel = "public"
	LevelUser       UserLevel = "user"
	LevelAdmin      UserLevel = "admin"
	LevelSuperadmin UserLevel = "superadmin"
)

var levelRank = map[UserLevel]int{
	LevelPublic:     0,
	LevelUser:       1,
	LevelAdmin:      2,
	LevelSuperadmin: 3,
}

func (l UserLevel) Valid() bool {
	_, ok := levelRank[l]
	return ok
}

// AtLeast reports whether l ranks equal to or above min.
func (l UserLevel) AtLeast(min UserLevel) bool {
	rank, ok := levelRank[l]
	if !ok {
		return false
	}
	return rank >= levelRank[min]
}

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Token        string    `json:"token,omitempty"`
	Level        UserLevel `json:"user_level"`
}

// UserUpdate lists the user fields to change. Nil fields are left untouched.
type UserUpdate struct {
	PasswordHash *string
	Token        *string
	Level        *UserLevel
}

func totalPages(total, pageSize int) int {
	if pageSize <= 0 || total == 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

func normalizePage(page, pageSize, defaultSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultSize
	}
	return page, pageSize
}
