package entities

import (
	"sort"
	"strings"
	"time"
)

// OrgLevel is the position of a unit in the university hierarchy
type OrgLevel string

const (
	LevelViceRectorate   OrgLevel = "vice_rectorate"
	LevelCollegeDeanship OrgLevel = "college_deanship"
	LevelDepartmentUnit  OrgLevel = "department_unit"
)

// Rank returns 1 for the top level down to 3, or 0 for an unknown level
func (l OrgLevel) Rank() int {
	switch l {
	case LevelViceRectorate:
		return 1
	case LevelCollegeDeanship:
		return 2
	case LevelDepartmentUnit:
		return 3
	default:
		return 0
	}
}

// OrgUnit is a vice-rectorate, college/deanship or department/unit
type OrgUnit struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code,omitempty"`
	Level       OrgLevel  `json:"level"`
	ParentID    string    `json:"parent_id,omitempty"`
	IsActive    bool      `json:"is_active"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewOrgUnit creates a validated OrgUnit under parent (nil for a vice-rectorate)
func NewOrgUnit(name, code string, level OrgLevel, parent *OrgUnit, now time.Time) (*OrgUnit, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidf("org unit name cannot be empty")
	}
	if err := ValidateParent(level, parent); err != nil {
		return nil, err
	}

	unit := &OrgUnit{
		ID:        NewID(),
		Name:      name,
		Code:      strings.TrimSpace(code),
		Level:     level,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if parent != nil {
		unit.ParentID = parent.ID
	}
	return unit, nil
}

// ValidateParent enforces the three-level hierarchy rules
func ValidateParent(level OrgLevel, parent *OrgUnit) error {
	switch level {
	case LevelViceRectorate:
		if parent != nil {
			return invalidf("a vice-rectorate cannot have a parent unit")
		}
	case LevelCollegeDeanship:
		if parent == nil {
			return invalidf("a college/deanship requires a parent unit")
		}
		if parent.Level != LevelViceRectorate {
			return invalidf("a college/deanship must belong to a vice-rectorate")
		}
	case LevelDepartmentUnit:
		if parent == nil {
			return invalidf("a department/unit requires a parent unit")
		}
		if parent.Level != LevelCollegeDeanship {
			return invalidf("a department/unit must belong to a college/deanship")
		}
	default:
		return invalidf("unknown org level %q", level)
	}
	return nil
}

// OrgTree indexes a set of units for hierarchy queries
type OrgTree struct {
	byID     map[string]*OrgUnit
	children map[string][]*OrgUnit
}

// NewOrgTree builds a tree from a flat list of units
func NewOrgTree(units []*OrgUnit) *OrgTree {
	t := &OrgTree{
		byID:     make(map[string]*OrgUnit, len(units)),
		children: make(map[string][]*OrgUnit),
	}
	for _, u := range units {
		t.byID[u.ID] = u
	}
	for _, u := range units {
		if u.ParentID != "" {
			t.children[u.ParentID] = append(t.children[u.ParentID], u)
		}
	}
	for id := range t.children {
		SortOrgUnits(t.children[id])
	}
	return t
}

// Get returns the unit with the given id
func (t *OrgTree) Get(id string) (*OrgUnit, bool) {
	u, ok := t.byID[id]
	return u, ok
}

// Roots returns the vice-rectorates, sorted by name
func (t *OrgTree) Roots() []*OrgUnit {
	var roots []*OrgUnit
	for _, u := range t.byID {
		if u.ParentID == "" && u.Level == LevelViceRectorate {
			roots = append(roots, u)
		}
	}
	SortOrgUnits(roots)
	return roots
}

// Children returns the direct children of a unit
func (t *OrgTree) Children(id string) []*OrgUnit {
	return t.children[id]
}

// Descendants returns every unit below id, depth first
func (t *OrgTree) Descendants(id string) []*OrgUnit {
	var out []*OrgUnit
	for _, child := range t.children[id] {
		out = append(out, child)
		out = append(out, t.Descendants(child.ID)...)
	}
	return out
}

// Ancestry returns the chain from the root down to id
func (t *OrgTree) Ancestry(id string) []*OrgUnit {
	var chain []*OrgUnit
	seen := make(map[string]bool)
	for cur, ok := t.byID[id]; ok && !seen[cur.ID]; cur, ok = t.byID[cur.ParentID] {
		seen[cur.ID] = true
		chain = append([]*OrgUnit{cur}, chain...)
	}
	return chain
}

// FullPath joins the ancestry names with " / "
func (t *OrgTree) FullPath(id string) string {
	chain := t.Ancestry(id)
	names := make([]string, len(chain))
	for i, u := range chain {
		names[i] = u.Name
	}
	return strings.Join(names, " / ")
}

// ViceRectorate returns the top-level unit above id
func (t *OrgTree) ViceRectorate(id string) *OrgUnit {
	chain := t.Ancestry(id)
	if len(chain) == 0 || chain[0].Level != LevelViceRectorate {
		return nil
	}
	return chain[0]
}

// CollegeDeanship returns the college a unit belongs to, if any
func (t *OrgTree) CollegeDeanship(id string) *OrgUnit {
	u, ok := t.byID[id]
	if !ok {
		return nil
	}
	switch u.Level {
	case LevelCollegeDeanship:
		return u
	case LevelDepartmentUnit:
		if parent, ok := t.byID[u.ParentID]; ok {
			return parent
		}
	}
	return nil
}

// SortOrgUnits orders units by level then name
func SortOrgUnits(units []*OrgUnit) {
	sort.Slice(units, func(i, j int) bool {
		if units[i].Level.Rank() != units[j].Level.Rank() {
			return units[i].Level.Rank() < units[j].Level.Rank()
		}
		return units[i].Name < units[j].Name
	})
}
