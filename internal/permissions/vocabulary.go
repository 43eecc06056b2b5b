// Package permissions holds the static page/permission vocabulary and the pure
// resolution functions that turn a role's stored permission map plus a tenant's
// feature flags into an effective access decision.
package permissions

// PageKey identifies one controllable page or feature of the application.
// The set is closed and known at compile time.
type PageKey string

const (
	PageAttendance    PageKey = "attendance"
	PageShiftRequests PageKey = "shift_requests"
	PageTimecard      PageKey = "timecard"
	PageMyShifts      PageKey = "my_shifts"

	PageStaffList   PageKey = "staff_list"
	PageCastList    PageKey = "cast_list"
	PageRoles       PageKey = "roles"
	PageInvitations PageKey = "invitations"

	PageFloorMap     PageKey = "floor_map"
	PageTables       PageKey = "tables"
	PageReservations PageKey = "reservations"
	PageOrders       PageKey = "orders"

	PageMenus    PageKey = "menus"
	PageBilling  PageKey = "billing"
	PageReports  PageKey = "reports"
	PageSettings PageKey = "settings"

	PageBoard    PageKey = "board"
	PageRanking  PageKey = "ranking"
	PageMessages PageKey = "messages"
	PageEvents   PageKey = "events"
)

// Category groups pages for bulk quick-set operations in the role editor.
type Category string

const (
	CategoryShift     Category = "shift"
	CategoryUser      Category = "user"
	CategoryFloor     Category = "floor"
	CategoryStore     Category = "store"
	CategoryCommunity Category = "community"
)

// Level is the tri-state permission granularity, totally ordered none < view < edit.
type Level string

const (
	LevelNone Level = "none"
	LevelView Level = "view"
	LevelEdit Level = "edit"
)

// Valid reports whether l is one of the three known levels.
func (l Level) Valid() bool {
	return l == LevelNone || l == LevelView || l == LevelEdit
}

func (l Level) rank() int {
	switch l {
	case LevelView:
		return 1
	case LevelEdit:
		return 2
	default:
		return 0
	}
}

// AtLeast reports whether l grants at least the access of other.
func (l Level) AtLeast(other Level) bool {
	return l.rank() >= other.rank()
}

// Map is a sparse PageKey to Level mapping. An absent key means LevelNone.
type Map map[PageKey]Level

// Level returns the stored level for page, or LevelNone when absent.
func (m Map) Level(page PageKey) Level {
	if lvl, ok := m[page]; ok && lvl.Valid() {
		return lvl
	}
	return LevelNone
}

// Clone returns a copy of the map so callers can mutate without aliasing.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Flags is a tenant's feature-flag view over pages. An absent key means visible:
// newly added pages must appear by default, so absence never hides anything.
type Flags map[PageKey]bool

// Visible reports whether page is enabled, failing open when no flag is stored.
func (f Flags) Visible(page PageKey) bool {
	if v, ok := f[page]; ok {
		return v
	}
	return true
}

type pageDef struct {
	key           PageKey
	label         string
	category      Category
	castAvailable bool
}

// Declaration order below is user-visible: it drives category-then-page ordering in
// navigation menus and the role editor, so it must stay stable.
var pageDefs = []pageDef{
	{PageAttendance, "Attendance", CategoryShift, false},
	{PageShiftRequests, "Shift Requests", CategoryShift, false},
	{PageTimecard, "Timecard", CategoryShift, true},
	{PageMyShifts, "My Shifts", CategoryShift, true},

	{PageStaffList, "Staff", CategoryUser, false},
	{PageCastList, "Cast", CategoryUser, false},
	{PageRoles, "Roles", CategoryUser, false},
	{PageInvitations, "Invitations", CategoryUser, false},

	{PageFloorMap, "Floor Map", CategoryFloor, false},
	{PageTables, "Tables", CategoryFloor, false},
	{PageReservations, "Reservations", CategoryFloor, false},
	{PageOrders, "Orders", CategoryFloor, false},

	{PageMenus, "Menus", CategoryStore, false},
	{PageBilling, "Billing", CategoryStore, false},
	{PageReports, "Reports", CategoryStore, false},
	{PageSettings, "Settings", CategoryStore, false},

	{PageBoard, "Board", CategoryCommunity, true},
	{PageRanking, "Ranking", CategoryCommunity, true},
	{PageMessages, "Messages", CategoryCommunity, false},
	{PageEvents, "Events", CategoryCommunity, false},
}

var categoryOrder = []Category{
	CategoryShift,
	CategoryUser,
	CategoryFloor,
	CategoryStore,
	CategoryCommunity,
}

var defsByKey = func() map[PageKey]pageDef {
	m := make(map[PageKey]pageDef, len(pageDefs))
	for _, d := range pageDefs {
		m[d.key] = d
	}
	return m
}()

// Categories returns all categories in declaration order.
func Categories() []Category {
	out := make([]Category, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

// AllPages returns every page key in category-then-declaration order.
func AllPages() []PageKey {
	out := make([]PageKey, 0, len(pageDefs))
	for _, d := range pageDefs {
		out = append(out, d.key)
	}
	return out
}

// PagesIn returns the pages belonging to category, in declaration order.
func PagesIn(category Category) []PageKey {
	var out []PageKey
	for _, d := range pageDefs {
		if d.category == category {
			out = append(out, d.key)
		}
	}
	return out
}

// CastPages returns the strict subset of pages available to cast-class users.
func CastPages() []PageKey {
	var out []PageKey
	for _, d := range pageDefs {
		if d.castAvailable {
			out = append(out, d.key)
		}
	}
	return out
}

// IsCastAvailable reports whether page is part of the cast vocabulary. Cast access is
// binary: a cast-available page is either edit or none, never view-only.
func IsCastAvailable(page PageKey) bool {
	return defsByKey[page].castAvailable
}

// IsValidPage reports whether page belongs to the vocabulary.
func IsValidPage(page PageKey) bool {
	_, ok := defsByKey[page]
	return ok
}

// Label returns the human label for page, or the raw key for unknown pages.
func Label(page PageKey) string {
	if d, ok := defsByKey[page]; ok {
		return d.label
	}
	return string(page)
}

// CategoryOf returns the category page belongs to.
func CategoryOf(page PageKey) Category {
	return defsByKey[page].category
}
