package permissions

// EffectiveLevel combines a role's stored permission map with the tenant's feature
// flags for one page. A hidden page always resolves to none regardless of the stored
// level; a nil map (no role bound, or a dangling role reference) resolves to none.
func EffectiveLevel(perms Map, flags Flags, page PageKey) Level {
	if perms == nil {
		return LevelNone
	}
	if !flags.Visible(page) {
		return LevelNone
	}
	return perms.Level(page)
}

// HasAccess reports whether level grants any access at all.
func HasAccess(level Level) bool {
	return level != LevelNone
}

// CanEdit reports whether level grants write access.
func CanEdit(level Level) bool {
	return level == LevelEdit
}

// VisiblePages returns every page the permission map grants access to, honoring
// feature flags, in category-then-declaration order. The order is deterministic
// because navigation menus are rendered from it.
func VisiblePages(perms Map, flags Flags) []PageKey {
	var out []PageKey
	for _, page := range AllPages() {
		if HasAccess(EffectiveLevel(perms, flags, page)) {
			out = append(out, page)
		}
	}
	return out
}

// CategoryState summarizes one category for the editor's quick-set buttons. The three
// booleans are independent: with no visible pages in the category all three are
// vacuously true.
type CategoryState struct {
	AllNone bool
	AllView bool
	AllEdit bool
}

// CategoryStateOf inspects only the pages of the category that are currently visible
// per the tenant's feature flags and reports whether they all share one level.
func CategoryStateOf(perms Map, flags Flags, category Category) CategoryState {
	state := CategoryState{AllNone: true, AllView: true, AllEdit: true}
	for _, page := range PagesIn(category) {
		if !flags.Visible(page) {
			continue
		}
		switch perms.Level(page) {
		case LevelNone:
			state.AllView = false
			state.AllEdit = false
		case LevelView:
			state.AllNone = false
			state.AllEdit = false
		case LevelEdit:
			state.AllNone = false
			state.AllView = false
		}
	}
	return state
}
