package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/printcenter/pkg/domain/entities"
	"github.com/vsinha/printcenter/pkg/domain/repositories"
	"github.com/vsinha/printcenter/pkg/infrastructure/auth"
	"github.com/vsinha/printcenter/pkg/infrastructure/repositories/memory"
)

var seedNow = time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC)

func newSeeder(store repositories.Store) *Seeder {
	return NewSeeder(store, func() time.Time { return seedNow }, time.UTC, zerolog.Nop())
}

func TestDemo_Parses(t *testing.T) {
	f, err := Demo()
	require.NoError(t, err)
	assert.Equal(t, "PrintCenter@2025", f.Password)
	assert.Len(t, f.OrgUnits, 4)
	assert.NotEmpty(t, f.Users)
	require.NotNil(t, f.ApprovalPolicy)
	assert.Contains(t, f.ApprovalPolicy.SelectiveServices, "Business Cards")

	var banner *ServiceSeed
	for i := range f.Services {
		if f.Services[i].Name == "Banners" {
			banner = &f.Services[i]
		}
	}
	require.NotNil(t, banner)
	require.NotNil(t, banner.Pricing)
	assert.Equal(t, "45", banner.Pricing.Internal.String())
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("users:\n  - email: a@b.c\n    colour: red\n"))
	assert.Error(t, err)
}

func TestApply_DemoIsIdempotent(t *testing.T) {
	store := memory.NewStore()
	f, err := Demo()
	require.NoError(t, err)
	s := newSeeder(store)

	first, err := s.Apply(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, Counts{Created: 4}, first.OrgUnits)
	assert.Equal(t, Counts{Created: len(f.Users)}, first.Users)
	assert.Equal(t, Counts{Created: len(f.Services)}, first.Services)
	assert.Equal(t, Counts{Created: 4}, first.Inventory)
	assert.Equal(t, Counts{Created: 7}, first.Schedules)
	assert.Equal(t, Counts{Created: 1}, first.Settings)

	second, err := s.Apply(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, Counts{Updated: 4}, second.OrgUnits)
	assert.Equal(t, Counts{Updated: len(f.Users)}, second.Users)
	assert.Equal(t, Counts{Updated: len(f.Services)}, second.Services)
	assert.Equal(t, Counts{}, second.Schedules)

	require.NoError(t, store.View(context.Background(), func(tx repositories.Tx) error {
		users, err := tx.Users().List(nil)
		require.NoError(t, err)
		assert.Len(t, users, len(f.Users))

		admin, err := repositories.First(tx.Users(), func(u *entities.User) bool { return u.Email == "admin@printcenter.demo" })
		require.NoError(t, err)
		assert.True(t, admin.IsSuperuser)
		assert.NoError(t, auth.CheckPassword(admin.PasswordHash, "PrintCenter@2025"))

		doctor, err := repositories.First(tx.Users(), func(u *entities.User) bool { return u.Email == "doctor@printcenter.demo" })
		require.NoError(t, err)
		dept, err := tx.OrgUnits().Get(doctor.OrgUnitID)
		require.NoError(t, err)
		assert.Equal(t, "CS-DEPT", dept.Code)

		_, err = tx.Preferences().Get(doctor.ID)
		assert.NoError(t, err)

		pricing, err := tx.Pricing().List(nil)
		require.NoError(t, err)
		assert.Len(t, pricing, len(f.Services), "pricing rows are replaced, not duplicated")

		policy, err := tx.Policies().Get(entities.PolicyID)
		require.NoError(t, err)
		assert.True(t, policy.IsGlobalEnabled)
		assert.Len(t, policy.SelectiveServices, 3)

		blocked, err := repositories.First(tx.VisitSchedules(), func(s *entities.VisitSchedule) bool {
			return s.Date == entities.Date("2025-03-16")
		})
		require.NoError(t, err)
		assert.True(t, blocked.IsBlocked)

		setting, err := tx.Settings().Get("branding")
		require.NoError(t, err)
		assert.JSONEq(t, `{"name":"University Print Center","primary_color":"#0A8E6E","secondary_color":"#4056E3"}`, string(setting.Value))

		logs, err := tx.AuditLogs().List(nil)
		require.NoError(t, err)
		assert.Len(t, logs, 2)
		return nil
	}))
}

func TestApply_KeepsStockAndPasswords(t *testing.T) {
	store := memory.NewStore()
	s := newSeeder(store)
	f, err := Parse([]byte(`
password: first-password
users:
  - {email: Keeper@Example.edu, full_name: Keeper, role: inventory}
inventory:
  - {name: Toner, sku: INK-1, category: ink, unit: box, current_quantity: 10, min_quantity: 2}
services:
  - name: Posters
    fields:
      - {key: size, label: Size, type: radio, options: [{value: a3, label: A3}, {value: a2, label: A2}]}
      - {key: notes, label: Notes, type: textarea}
`))
	require.NoError(t, err)
	_, err = s.Apply(context.Background(), f)
	require.NoError(t, err)

	require.NoError(t, store.Update(context.Background(), func(tx repositories.Tx) error {
		item, err := repositories.First(tx.InventoryItems(), func(it *entities.InventoryItem) bool { return it.SKU == "INK-1" })
		require.NoError(t, err)
		item.CurrentQuantity = 3
		return tx.InventoryItems().Put(item)
	}))

	f.Password = "second-password"
	f.Inventory[0].MinQuantity = 5
	f.Services[0].Fields = f.Services[0].Fields[:1]
	_, err = s.Apply(context.Background(), f)
	require.NoError(t, err)

	require.NoError(t, store.View(context.Background(), func(tx repositories.Tx) error {
		user, err := repositories.First(tx.Users(), func(u *entities.User) bool { return u.Email == "keeper@example.edu" })
		require.NoError(t, err)
		assert.NoError(t, auth.CheckPassword(user.PasswordHash, "first-password"))

		item, err := repositories.First(tx.InventoryItems(), func(it *entities.InventoryItem) bool { return it.SKU == "INK-1" })
		require.NoError(t, err)
		assert.Equal(t, 3, item.CurrentQuantity)
		assert.Equal(t, 5, item.MinQuantity)

		svc, err := repositories.First(tx.Services(), func(s *entities.Service) bool { return s.Name == "Posters" })
		require.NoError(t, err)
		require.Len(t, svc.Fields, 1)
		assert.Equal(t, "size", svc.Fields[0].Key)
		assert.Len(t, svc.Fields[0].Options, 2)
		return nil
	}))
}

func TestApply_RollsBackOnBadReference(t *testing.T) {
	store := memory.NewStore()
	f, err := Parse([]byte(`
password: pw
org_units:
  - {code: VR, name: Vice Rectorate, level: vice_rectorate}
users:
  - {email: a@example.edu, full_name: A, org_unit: NOPE}
`))
	require.NoError(t, err)
	_, err = newSeeder(store).Apply(context.Background(), f)
	assert.ErrorIs(t, err, entities.ErrValidation)

	require.NoError(t, store.View(context.Background(), func(tx repositories.Tx) error {
		units, err := tx.OrgUnits().List(nil)
		require.NoError(t, err)
		assert.Empty(t, units)
		return nil
	}))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("password: pw\n"), 0o600))
	f, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "pw", f.Password)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	demo, err := LoadFile("")
	require.NoError(t, err)
	assert.NotEmpty(t, demo.Services)
}
