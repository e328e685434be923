package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/printcenter/pkg/application/dto"
	"github.com/vsinha/printcenter/pkg/domain/entities"
	"github.com/vsinha/printcenter/pkg/domain/repositories"
)

func unitNames(units []*entities.OrgUnit) []string {
	names := make([]string, len(units))
	for i, u := range units {
		names[i] = u.Name
	}
	return names
}

func TestOrgUnits_CreateEnforcesHierarchy(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		actor   *entities.User
		in      dto.OrgUnitInput
		wantErr error
	}{
		{"department under college", h.f.PrintManager,
			dto.OrgUnitInput{Name: "Chemistry", Code: "DEP-CHE", Level: entities.LevelDepartmentUnit, ParentID: h.f.College.ID}, nil},
		{"vice-rectorate with parent", h.f.Admin,
			dto.OrgUnitInput{Name: "Research", Level: entities.LevelViceRectorate, ParentID: h.f.ViceRectorate.ID}, entities.ErrValidation},
		{"college without parent", h.f.Admin,
			dto.OrgUnitInput{Name: "College of Arts", Level: entities.LevelCollegeDeanship}, entities.ErrValidation},
		{"department under vice-rectorate", h.f.Admin,
			dto.OrgUnitInput{Name: "Biology", Level: entities.LevelDepartmentUnit, ParentID: h.f.ViceRectorate.ID}, entities.ErrValidation},
		{"unknown parent", h.f.Admin,
			dto.OrgUnitInput{Name: "Biology", Level: entities.LevelDepartmentUnit, ParentID: "missing"}, entities.ErrValidation},
		{"unknown level", h.f.Admin,
			dto.OrgUnitInput{Name: "Biology", Level: "faculty", ParentID: h.f.College.ID}, entities.ErrValidation},
		{"duplicate code", h.f.Admin,
			dto.OrgUnitInput{Name: "Science Two", Code: "col-sci", Level: entities.LevelCollegeDeanship, ParentID: h.f.ViceRectorate.ID}, repositories.ErrConflict},
		{"not an admin", h.f.Requester,
			dto.OrgUnitInput{Name: "Biology", Level: entities.LevelDepartmentUnit, ParentID: h.f.College.ID}, ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unit, err := h.OrgUnits.Create(ctx, tt.actor, tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.in.ParentID, unit.ParentID)
			assert.True(t, unit.IsActive)
		})
	}
}

func TestOrgUnits_ListDefaultsToActive(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	inactive := false
	_, err := h.OrgUnits.Update(ctx, h.f.Admin, h.f.Department.ID, dto.OrgUnitInput{IsActive: &inactive})
	require.NoError(t, err)

	units, err := h.OrgUnits.List(ctx, dto.OrgUnitFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Academic Affairs", "College of Science"}, unitNames(units))

	units, err = h.OrgUnits.List(ctx, dto.OrgUnitFilter{Active: &inactive})
	require.NoError(t, err)
	assert.Equal(t, []string{"Physics"}, unitNames(units))

	units, err = h.OrgUnits.List(ctx, dto.OrgUnitFilter{Level: entities.LevelCollegeDeanship})
	require.NoError(t, err)
	assert.Equal(t, []string{"College of Science"}, unitNames(units))

	units, err = h.OrgUnits.List(ctx, dto.OrgUnitFilter{Search: "vr-aca"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Academic Affairs"}, unitNames(units))

	children, err := h.OrgUnits.Children(ctx, h.f.College.ID)
	require.NoError(t, err)
	assert.Empty(t, children)
}

func TestOrgUnits_TreeAndPaths(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tree, err := h.OrgUnits.Tree(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, h.f.ViceRectorate.ID, tree[0].ID)
	require.Len(t, tree[0].Children, 1)
	college := tree[0].Children[0]
	assert.Equal(t, "Academic Affairs / College of Science", college.FullPath)
	require.Len(t, college.Children, 1)
	assert.Equal(t, "Academic Affairs / College of Science / Physics", college.Children[0].FullPath)

	path, err := h.OrgUnits.FullPath(ctx, h.f.Department.ID)
	require.NoError(t, err)
	assert.Equal(t, "Academic Affairs / College of Science / Physics", path)

	chain, err := h.OrgUnits.Hierarchy(ctx, h.f.Department.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Academic Affairs", "College of Science", "Physics"}, unitNames(chain))

	children, err := h.OrgUnits.Children(ctx, h.f.College.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Physics"}, unitNames(children))

	colleges, err := h.OrgUnits.ByLevel(ctx, h.f.PrintManager, entities.LevelCollegeDeanship)
	require.NoError(t, err)
	assert.Equal(t, []string{"College of Science"}, unitNames(colleges))

	_, err = h.OrgUnits.ByLevel(ctx, h.f.PrintManager, "faculty")
	assert.ErrorIs(t, err, entities.ErrValidation)
	_, err = h.OrgUnits.ByLevel(ctx, h.f.Requester, entities.LevelCollegeDeanship)
	assert.ErrorIs(t, err, ErrForbidden)

	for name, fn := range map[string]func() error{
		"children":  func() error { _, err := h.OrgUnits.Children(ctx, "missing"); return err },
		"hierarchy": func() error { _, err := h.OrgUnits.Hierarchy(ctx, "missing"); return err },
		"full path": func() error { _, err := h.OrgUnits.FullPath(ctx, "missing"); return err },
		"get":       func() error { _, err := h.OrgUnits.Get(ctx, "missing"); return err },
	} {
		assert.ErrorIs(t, fn(), repositories.ErrNotFound, name)
	}
}

func TestOrgUnits_UpdateKeepsHierarchyValid(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.OrgUnits.Update(ctx, h.f.Admin, h.f.College.ID, dto.OrgUnitInput{Level: entities.LevelViceRectorate})
	assert.ErrorIs(t, err, repositories.ErrConflict)
	college, err := h.OrgUnits.Get(ctx, h.f.College.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.LevelCollegeDeanship, college.Level)
	assert.Equal(t, h.f.ViceRectorate.ID, college.ParentID)

	_, err = h.OrgUnits.Update(ctx, h.f.Admin, h.f.College.ID, dto.OrgUnitInput{ParentID: h.f.College.ID})
	assert.ErrorIs(t, err, entities.ErrValidation)

	_, err = h.OrgUnits.Update(ctx, h.f.Admin, h.f.Department.ID, dto.OrgUnitInput{ParentID: h.f.ViceRectorate.ID})
	assert.ErrorIs(t, err, entities.ErrValidation)

	_, err = h.OrgUnits.Update(ctx, h.f.Admin, h.f.College.ID, dto.OrgUnitInput{Code: "VR-ACA"})
	assert.ErrorIs(t, err, repositories.ErrConflict)

	// A unit without children may change level once its parent fits the new level.
	arts, err := h.OrgUnits.Create(ctx, h.f.Admin, dto.OrgUnitInput{
		Name: "College of Arts", Level: entities.LevelCollegeDeanship, ParentID: h.f.ViceRectorate.ID,
	})
	require.NoError(t, err)
	promoted, err := h.OrgUnits.Update(ctx, h.f.Admin, arts.ID, dto.OrgUnitInput{Level: entities.LevelViceRectorate})
	require.NoError(t, err)
	assert.Equal(t, entities.LevelViceRectorate, promoted.Level)
	assert.Empty(t, promoted.ParentID)

	moved, err := h.OrgUnits.Update(ctx, h.f.Admin, h.f.Department.ID, dto.OrgUnitInput{
		Name: "Applied Physics", Level: entities.LevelCollegeDeanship, ParentID: h.f.ViceRectorate.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Applied Physics", moved.Name)
	path, err := h.OrgUnits.FullPath(ctx, moved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Academic Affairs / Applied Physics", path)

	_, err = h.OrgUnits.Update(ctx, h.f.Requester, h.f.College.ID, dto.OrgUnitInput{Name: "x"})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestOrgUnits_DeleteRefusesUnitsWithChildren(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	err := h.OrgUnits.Delete(ctx, h.f.Admin, h.f.College.ID)
	assert.ErrorIs(t, err, repositories.ErrConflict)

	assert.ErrorIs(t, h.OrgUnits.Delete(ctx, h.f.Requester, h.f.Department.ID), ErrForbidden)
	require.NoError(t, h.OrgUnits.Delete(ctx, h.f.Admin, h.f.Department.ID))
	require.NoError(t, h.OrgUnits.Delete(ctx, h.f.Admin, h.f.College.ID))

	_, err = h.OrgUnits.Get(ctx, h.f.College.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	assert.ErrorIs(t, h.OrgUnits.Delete(ctx, h.f.Admin, h.f.College.ID), repositories.ErrNotFound)
}
