package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vsinha/printcenter/pkg/application/dto"
	"github.com/vsinha/printcenter/pkg/domain/entities"
	"github.com/vsinha/printcenter/pkg/domain/repositories"
)

// OrgUnits serves the university hierarchy
type OrgUnits struct {
	*core
}

func (s *OrgUnits) tree(ctx context.Context) (*entities.OrgTree, []*entities.OrgUnit, error) {
	var units []*entities.OrgUnit
	err := s.view(ctx, func(tx repositories.Tx) error {
		var err error
		units, err = tx.OrgUnits().List(nil)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return entities.NewOrgTree(units), units, nil
}

// List defaults to active units only
func (s *OrgUnits) List(ctx context.Context, f dto.OrgUnitFilter) ([]*entities.OrgUnit, error) {
	_, units, err := s.tree(ctx)
	if err != nil {
		return nil, err
	}
	active := true
	if f.Active != nil {
		active = *f.Active
	}
	var out []*entities.OrgUnit
	for _, u := range units {
		if u.IsActive != active {
			continue
		}
		if f.Level != "" && u.Level != f.Level {
			continue
		}
		if f.ParentID != "" && u.ParentID != f.ParentID {
			continue
		}
		if !matchesText(f.Search, u.Name, u.Code) {
			continue
		}
		out = append(out, u)
	}
	entities.SortOrgUnits(out)
	return out, nil
}

func (s *OrgUnits) Get(ctx context.Context, id string) (*entities.OrgUnit, error) {
	t, _, err := s.tree(ctx)
	if err != nil {
		return nil, err
	}
	u, ok := t.Get(id)
	if !ok {
		return nil, notFoundf("org unit %s", id)
	}
	return u, nil
}

// Tree returns active roots with their active descendants nested
func (s *OrgUnits) Tree(ctx context.Context) ([]*dto.OrgNode, error) {
	t, _, err := s.tree(ctx)
	if err != nil {
		return nil, err
	}
	var build func(u *entities.OrgUnit) *dto.OrgNode
	build = func(u *entities.OrgUnit) *dto.OrgNode {
		node := &dto.OrgNode{OrgUnit: u, FullPath: t.FullPath(u.ID)}
		for _, child := range t.Children(u.ID) {
			if child.IsActive {
				node.Children = append(node.Children, build(child))
			}
		}
		return node
	}
	var roots []*dto.OrgNode
	for _, r := range t.Roots() {
		if r.IsActive {
			roots = append(roots, build(r))
		}
	}
	return roots, nil
}

func (s *OrgUnits) Children(ctx context.Context, id string) ([]*entities.OrgUnit, error) {
	t, _, err := s.tree(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := t.Get(id); !ok {
		return nil, notFoundf("org unit %s", id)
	}
	var out []*entities.OrgUnit
	for _, c := range t.Children(id) {
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out, nil
}

// Hierarchy returns the chain from the root down to id
func (s *OrgUnits) Hierarchy(ctx context.Context, id string) ([]*entities.OrgUnit, error) {
	t, _, err := s.tree(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := t.Get(id); !ok {
		return nil, notFoundf("org unit %s", id)
	}
	return t.Ancestry(id), nil
}

func (s *OrgUnits) FullPath(ctx context.Context, id string) (string, error) {
	t, _, err := s.tree(ctx)
	if err != nil {
		return "", err
	}
	if _, ok := t.Get(id); !ok {
		return "", notFoundf("org unit %s", id)
	}
	return t.FullPath(id), nil
}

func (s *OrgUnits) ByLevel(ctx context.Context, actor *entities.User, level entities.OrgLevel) ([]*entities.OrgUnit, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if level.Rank() == 0 {
		return nil, fmt.Errorf("%w: unknown org level %q", entities.ErrValidation, level)
	}
	return s.List(ctx, dto.OrgUnitFilter{Level: level})
}

func codeTaken(tx repositories.Tx, code, exceptID string) error {
	if code == "" {
		return nil
	}
	taken, err := repositories.Exists(tx.OrgUnits(), func(u *entities.OrgUnit) bool {
		return u.ID != exceptID && strings.EqualFold(u.Code, code)
	})
	if err != nil {
		return err
	}
	if taken {
		return conflictf("org unit code %s is already in use", code)
	}
	return nil
}

func parentOf(tx repositories.Tx, parentID string) (*entities.OrgUnit, error) {
	if parentID == "" {
		return nil, nil
	}
	parent, err := tx.OrgUnits().Get(parentID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("%w: parent unit %s does not exist", entities.ErrValidation, parentID)
	}
	return parent, err
}

func (s *OrgUnits) Create(ctx context.Context, actor *entities.User, in dto.OrgUnitInput) (*entities.OrgUnit, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	var unit *entities.OrgUnit
	err := s.update(ctx, func(tx repositories.Tx, _ *outbox) error {
		parent, err := parentOf(tx, in.ParentID)
		if err != nil {
			return err
		}
		unit, err = entities.NewOrgUnit(in.Name, in.Code, in.Level, parent, s.now())
		if err != nil {
			return err
		}
		unit.Description = strings.TrimSpace(in.Description)
		if in.IsActive != nil {
			unit.IsActive = *in.IsActive
		}
		if err := codeTaken(tx, unit.Code, ""); err != nil {
			return err
		}
		return tx.OrgUnits().Put(unit)
	})
	return unit, err
}

func (s *OrgUnits) Update(ctx context.Context, actor *entities.User, id string, in dto.OrgUnitInput) (*entities.OrgUnit, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	var unit *entities.OrgUnit
	err := s.update(ctx, func(tx repositories.Tx, _ *outbox) error {
		var err error
		unit, err = tx.OrgUnits().Get(id)
		if err != nil {
			return err
		}
		if strings.TrimSpace(in.Name) != "" {
			unit.Name = strings.TrimSpace(in.Name)
		}
		if in.Level != "" && in.Level != unit.Level {
			hasChildren, err := repositories.Exists(tx.OrgUnits(), func(u *entities.OrgUnit) bool { return u.ParentID == id })
			if err != nil {
				return err
			}
			if hasChildren {
				return conflictf("org unit %s still has child units; move them before changing its level", id)
			}
		}
		parentID := unit.ParentID
		if in.ParentID != "" {
			parentID = in.ParentID
		}
		if in.Level != "" {
			unit.Level = in.Level
			if in.Level == entities.LevelViceRectorate {
				parentID = ""
			}
		}
		if in.Level != "" || parentID != unit.ParentID {
			if parentID == id {
				return fmt.Errorf("%w: a unit cannot be its own parent", entities.ErrValidation)
			}
			parent, err := parentOf(tx, parentID)
			if err != nil {
				return err
			}
			if err := entities.ValidateParent(unit.Level, parent); err != nil {
				return err
			}
			unit.ParentID = parentID
		}
		if in.Code != "" && in.Code != unit.Code {
			if err := codeTaken(tx, in.Code, id); err != nil {
				return err
			}
			unit.Code = strings.TrimSpace(in.Code)
		}
		if in.Description != "" {
			unit.Description = strings.TrimSpace(in.Description)
		}
		if in.IsActive != nil {
			unit.IsActive = *in.IsActive
		}
		unit.UpdatedAt = s.now()
		return tx.OrgUnits().Put(unit)
	})
	return unit, err
}

// Delete refuses while the unit still has children
func (s *OrgUnits) Delete(ctx context.Context, actor *entities.User, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	return s.update(ctx, func(tx repositories.Tx, _ *outbox) error {
		if _, err := tx.OrgUnits().Get(id); err != nil {
			return err
		}
		hasChildren, err := repositories.Exists(tx.OrgUnits(), func(u *entities.OrgUnit) bool { return u.ParentID == id })
		if err != nil {
			return err
		}
		if hasChildren {
			return conflictf("org unit %s still has child units", id)
		}
		return tx.OrgUnits().Delete(id)
	})
}
