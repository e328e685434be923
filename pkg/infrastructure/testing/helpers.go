// Package testing builds print center fixtures for tests
package testing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/printcenter/pkg/domain/entities"
	"github.com/vsinha/printcenter/pkg/domain/repositories"
	"github.com/vsinha/printcenter/pkg/infrastructure/auth"
	"github.com/vsinha/printcenter/pkg/infrastructure/repositories/memory"
)

// FixturePassword is the password of every fixture user
const FixturePassword = "fixture-password"

// FixedNow is the reference time of the fixtures: a Wednesday morning in UTC
var FixedNow = time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC)

// Fixture is a small university: one vice-rectorate, one college with one
// department, a user per role, a business-card service and two paper stocks
type Fixture struct {
	Store repositories.Store

	ViceRectorate *entities.OrgUnit
	College       *entities.OrgUnit
	Department    *entities.OrgUnit

	PrintManager *entities.User
	DeptManager  *entities.User
	DeptEmployee *entities.User
	Supervisor   *entities.User
	StockKeeper  *entities.User
	Admin        *entities.User
	Approver     *entities.User
	Requester    *entities.User
	Outsider     *entities.User

	Service *entities.Service
	Pricing *entities.ServicePricing

	CoatedPaper *entities.InventoryItem
	NormalPaper *entities.InventoryItem
}

// Users lists every fixture user
func (f *Fixture) Users() []*entities.User {
	return []*entities.User{
		f.PrintManager, f.DeptManager, f.DeptEmployee, f.Supervisor, f.StockKeeper,
		f.Admin, f.Approver, f.Requester, f.Outsider,
	}
}

// NewFixture builds the fixture on a fresh in-memory store
func NewFixture() (*Fixture, error) {
	return BuildPrintCenterTestData(memory.NewStore(), FixedNow)
}

// MustFixture panics when the fixture cannot be built
func MustFixture() *Fixture {
	f, err := NewFixture()
	if err != nil {
		panic(err)
	}
	return f
}

// BuildPrintCenterTestData writes the fixture into store
func BuildPrintCenterTestData(store repositories.Store, now time.Time) (*Fixture, error) {
	f := &Fixture{Store: store}
	hash, err := auth.HashPassword(FixturePassword)
	if err != nil {
		return nil, err
	}

	if f.ViceRectorate, err = entities.NewOrgUnit("Academic Affairs", "VR-ACA", entities.LevelViceRectorate, nil, now); err != nil {
		return nil, err
	}
	if f.College, err = entities.NewOrgUnit("College of Science", "COL-SCI", entities.LevelCollegeDeanship, f.ViceRectorate, now); err != nil {
		return nil, err
	}
	if f.Department, err = entities.NewOrgUnit("Physics", "DEP-PHY", entities.LevelDepartmentUnit, f.College, now); err != nil {
		return nil, err
	}

	users := []struct {
		dst   **entities.User
		email string
		role  entities.Role
	}{
		{&f.PrintManager, "manager@example.edu", entities.RolePrintManager},
		{&f.DeptManager, "dept.manager@example.edu", entities.RoleDeptManager},
		{&f.DeptEmployee, "employee@example.edu", entities.RoleDeptEmployee},
		{&f.Supervisor, "supervisor@example.edu", entities.RoleTrainingSupervisor},
		{&f.StockKeeper, "stock@example.edu", entities.RoleInventory},
		{&f.Admin, "admin@example.edu", entities.RoleAdmin},
		{&f.Approver, "approver@example.edu", entities.RoleApprover},
		{&f.Requester, "requester@example.edu", entities.RoleConsumer},
		{&f.Outsider, "outsider@example.edu", entities.RoleConsumer},
	}
	for _, u := range users {
		user, err := entities.NewUser(u.email, u.email, u.role, now)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
		user.OrgUnitID = f.Department.ID
		*u.dst = user
	}

	if f.Service, err = entities.NewService("Business Cards", entities.CategoryDocuments, true, now); err != nil {
		return nil, err
	}
	if _, err := f.Service.AddField("name_on_card", "Name on card", entities.FieldText, true, 1); err != nil {
		return nil, err
	}
	finish, err := f.Service.AddField("finish", "Finish", entities.FieldRadio, false, 2)
	if err != nil {
		return nil, err
	}
	if _, err := finish.AddOption("Matte", "matte", 1); err != nil {
		return nil, err
	}
	if _, err := finish.AddOption("Glossy", "glossy", 2); err != nil {
		return nil, err
	}
	if f.Pricing, err = entities.NewServicePricing(f.Service.ID, decimal.NewFromInt(40), decimal.NewFromInt(100), now); err != nil {
		return nil, err
	}

	if f.CoatedPaper, err = entities.NewInventoryItem("A4 Coated 150g", "PAP-C150", entities.ItemPaper, "sheet", 5000, now); err != nil {
		return nil, err
	}
	f.CoatedPaper.MinQuantity = 500
	if f.NormalPaper, err = entities.NewInventoryItem("A4 Normal 80g", "PAP-N80", entities.ItemPaper, "sheet", 10000, now); err != nil {
		return nil, err
	}
	f.NormalPaper.MinQuantity = 1000

	err = store.Update(context.Background(), func(tx repositories.Tx) error {
		for _, u := range []*entities.OrgUnit{f.ViceRectorate, f.College, f.Department} {
			if err := tx.OrgUnits().Put(u); err != nil {
				return err
			}
		}
		for _, u := range f.Users() {
			if err := tx.Users().Put(u); err != nil {
				return err
			}
			if err := tx.Preferences().Put(entities.DefaultPreferences(u.ID)); err != nil {
				return err
			}
		}
		if err := tx.Services().Put(f.Service); err != nil {
			return err
		}
		if err := tx.Pricing().Put(f.Pricing); err != nil {
			return err
		}
		for _, it := range []*entities.InventoryItem{f.CoatedPaper, f.NormalPaper} {
			if err := tx.InventoryItems().Put(it); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

// FieldID returns the id of the fixture service field with key
func (f *Fixture) FieldID(key string) string {
	for _, fld := range f.Service.Fields {
		if fld.Key == key {
			return fld.ID
		}
	}
	return ""
}
