// Package seed loads demo and bootstrap data from YAML fixtures. Applying a
// fixture is an idempotent upsert keyed by unit code, email, service name,
// SKU, schedule date and setting key.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vsinha/printcenter/pkg/application/dto"
	"github.com/vsinha/printcenter/pkg/domain/entities"
	"github.com/vsinha/printcenter/pkg/domain/repositories"
	"github.com/vsinha/printcenter/pkg/infrastructure/auth"
)

//go:embed demo.yaml
var demoFixture []byte

// pricingNote marks pricing rows owned by the seed; they are replaced on
// every run
const pricingNote = "seed data"

// Fixture is the YAML document
type Fixture struct {
	Password       string          `yaml:"password"`
	OrgUnits       []OrgUnitSeed   `yaml:"org_units"`
	Users          []UserSeed      `yaml:"users"`
	Services       []ServiceSeed   `yaml:"services"`
	Inventory      []dto.ItemInput `yaml:"inventory"`
	VisitSchedules []ScheduleSeed  `yaml:"visit_schedules"`
	Settings       []SettingSeed   `yaml:"settings"`
	ApprovalPolicy *PolicySeed     `yaml:"approval_policy"`
}

type OrgUnitSeed struct {
	Code   string            `yaml:"code"`
	Name   string            `yaml:"name"`
	Level  entities.OrgLevel `yaml:"level"`
	Parent string            `yaml:"parent"`
}

type UserSeed struct {
	Email      string        `yaml:"email"`
	FullName   string        `yaml:"full_name"`
	Role       entities.Role `yaml:"role"`
	Department string        `yaml:"department"`
	OrgUnit    string        `yaml:"org_unit"`
	Phone      string        `yaml:"phone"`
	Superuser  bool          `yaml:"superuser"`
	// Password overrides the fixture-wide password
	Password string `yaml:"password"`
}

type ServiceSeed struct {
	Name             string                   `yaml:"name"`
	Description      string                   `yaml:"description"`
	Icon             string                   `yaml:"icon"`
	Category         entities.ServiceCategory `yaml:"category"`
	RequiresApproval bool                     `yaml:"requires_approval"`
	Fields           []dto.FieldInput         `yaml:"fields"`
	Pricing          *PricingSeed             `yaml:"pricing"`
}

type PricingSeed struct {
	Internal decimal.Decimal `yaml:"internal"`
	External decimal.Decimal `yaml:"external"`
}

// ScheduleSeed places a schedule InDays after the day the fixture is applied
type ScheduleSeed struct {
	InDays      int                `yaml:"in_days"`
	Slots       []string           `yaml:"slots"`
	Blocked     bool               `yaml:"blocked"`
	Reason      string             `yaml:"reason"`
	Restriction entities.VisitType `yaml:"restriction"`
}

type SettingSeed struct {
	Key         string      `yaml:"key"`
	Description string      `yaml:"description"`
	Value       interface{} `yaml:"value"`
}

type PolicySeed struct {
	GlobalEnabled     bool     `yaml:"global_enabled"`
	SelectiveServices []string `yaml:"selective_services"`
}

// Counts is how many records of one kind were created and updated
type Counts struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

func (c Counts) String() string {
	return fmt.Sprintf("%d created, %d updated", c.Created, c.Updated)
}

// Result summarises one Apply
type Result struct {
	OrgUnits  Counts `json:"org_units"`
	Users     Counts `json:"users"`
	Services  Counts `json:"services"`
	Inventory Counts `json:"inventory"`
	Schedules Counts `json:"visit_schedules"`
	Settings  Counts `json:"settings"`
}

// Parse decodes a fixture, rejecting unknown keys
func Parse(data []byte) (*Fixture, error) {
	var f Fixture
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse seed fixture: %w", err)
	}
	return &f, nil
}

// Demo returns the embedded demo fixture
func Demo() (*Fixture, error) {
	return Parse(demoFixture)
}

// LoadFile reads the fixture at path, or the demo fixture when path is empty
func LoadFile(path string) (*Fixture, error) {
	if path == "" {
		return Demo()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return Parse(data)
}

// Seeder applies fixtures to a store
type Seeder struct {
	store  repositories.Store
	clock  func() time.Time
	loc    *time.Location
	logger zerolog.Logger
}

func NewSeeder(store repositories.Store, clock func() time.Time, loc *time.Location, logger zerolog.Logger) *Seeder {
	if clock == nil {
		clock = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Seeder{store: store, clock: clock, loc: loc, logger: logger.With().Str("component", "seed").Logger()}
}

// Apply writes the fixture in a single transaction. Existing users keep
// their password and existing items keep their stock level.
func (s *Seeder) Apply(ctx context.Context, f *Fixture) (*Result, error) {
	now := s.clock()
	hashes, err := s.hashPasswords(f)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	err = s.store.Update(ctx, func(tx repositories.Tx) error {
		*res = Result{}
		units, err := applyOrgUnits(tx, f.OrgUnits, &res.OrgUnits, now)
		if err != nil {
			return err
		}
		if err := applyUsers(tx, f.Users, units, hashes, &res.Users, now); err != nil {
			return err
		}
		services, err := applyServices(tx, f.Services, &res.Services, now)
		if err != nil {
			return err
		}
		if err := applyInventory(tx, f.Inventory, &res.Inventory, now); err != nil {
			return err
		}
		if err := applySchedules(tx, f.VisitSchedules, &res.Schedules, entities.DateOf(now.In(s.loc)), now); err != nil {
			return err
		}
		if err := applySettings(tx, f.Settings, &res.Settings, now); err != nil {
			return err
		}
		if err := applyPolicy(tx, f.ApprovalPolicy, services, now); err != nil {
			return err
		}
		return tx.AuditLogs().Put(entities.NewAuditLog("", "seed applied", map[string]interface{}{
			"users":    len(f.Users),
			"services": len(f.Services),
			"items":    len(f.Inventory),
		}, now))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("org_units", res.OrgUnits.String()).
		Str("users", res.Users.String()).
		Str("services", res.Services.String()).
		Str("inventory", res.Inventory.String()).
		Str("visit_schedules", res.Schedules.String()).
		Str("settings", res.Settings.String()).
		Msg("seed applied")
	return res, nil
}

// hashPasswords runs bcrypt outside the transaction, once per distinct password
func (s *Seeder) hashPasswords(f *Fixture) (map[string]string, error) {
	hashes := make(map[string]string)
	for _, u := range f.Users {
		pw := u.Password
		if pw == "" {
			pw = f.Password
		}
		if pw == "" {
			return nil, fmt.Errorf("%w: user %s has no password", entities.ErrValidation, u.Email)
		}
		if _, ok := hashes[pw]; ok {
			continue
		}
		hash, err := auth.HashPassword(pw)
		if err != nil {
			return nil, err
		}
		hashes[pw] = hash
	}
	byEmail := make(map[string]string, len(f.Users))
	for _, u := range f.Users {
		pw := u.Password
		if pw == "" {
			pw = f.Password
		}
		byEmail[entities.NormalizeEmail(u.Email)] = hashes[pw]
	}
	return byEmail, nil
}

func applyOrgUnits(tx repositories.Tx, seeds []OrgUnitSeed, c *Counts, now time.Time) (map[string]*entities.OrgUnit, error) {
	existing, err := tx.OrgUnits().List(nil)
	if err != nil {
		return nil, err
	}
	byCode := make(map[string]*entities.OrgUnit, len(existing))
	for _, u := range existing {
		if u.Code != "" {
			byCode[u.Code] = u
		}
	}

	for _, in := range seeds {
		var parent *entities.OrgUnit
		if in.Parent != "" {
			if parent = byCode[in.Parent]; parent == nil {
				return nil, fmt.Errorf("%w: org unit %s: unknown parent %s", entities.ErrValidation, in.Code, in.Parent)
			}
		}
		unit, ok := byCode[in.Code]
		if ok {
			if err := entities.ValidateParent(in.Level, parent); err != nil {
				return nil, fmt.Errorf("org unit %s: %w", in.Code, err)
			}
			unit.Name = strings.TrimSpace(in.Name)
			unit.Level = in.Level
			unit.ParentID = ""
			if parent != nil {
				unit.ParentID = parent.ID
			}
			unit.IsActive = true
			unit.UpdatedAt = now
			c.Updated++
		} else {
			if unit, err = entities.NewOrgUnit(in.Name, in.Code, in.Level, parent, now); err != nil {
				return nil, fmt.Errorf("org unit %s: %w", in.Code, err)
			}
			byCode[unit.Code] = unit
			c.Created++
		}
		if err := tx.OrgUnits().Put(unit); err != nil {
			return nil, err
		}
	}
	return byCode, nil
}

func applyUsers(tx repositories.Tx, seeds []UserSeed, units map[string]*entities.OrgUnit, hashes map[string]string, c *Counts, now time.Time) error {
	for _, in := range seeds {
		email := entities.NormalizeEmail(in.Email)
		user, err := repositories.First(tx.Users(), func(u *entities.User) bool { return u.Email == email })
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			if user, err = entities.NewUser(email, in.FullName, in.Role, now); err != nil {
				return fmt.Errorf("user %s: %w", email, err)
			}
			user.PasswordHash = hashes[email]
			if err := tx.Preferences().Put(entities.DefaultPreferences(user.ID)); err != nil {
				return err
			}
			c.Created++
		case err != nil:
			return err
		default:
			if in.Role != "" && !in.Role.Valid() {
				return fmt.Errorf("%w: user %s: unknown role %q", entities.ErrValidation, email, in.Role)
			}
			if in.Role != "" {
				user.Role = in.Role
			}
			user.FullName = strings.TrimSpace(in.FullName)
			user.IsActive = true
			if user.PasswordHash == "" {
				user.PasswordHash = hashes[email]
			}
			user.UpdatedAt = now
			c.Updated++
		}

		user.Department = strings.TrimSpace(in.Department)
		user.PhoneNumber = strings.TrimSpace(in.Phone)
		user.IsSuperuser = in.Superuser
		user.OrgUnitID = ""
		if in.OrgUnit != "" {
			unit, ok := units[in.OrgUnit]
			if !ok {
				return fmt.Errorf("%w: user %s: unknown org unit %s", entities.ErrValidation, email, in.OrgUnit)
			}
			user.OrgUnitID = unit.ID
		}
		if err := tx.Users().Put(user); err != nil {
			return err
		}
	}
	return nil
}

func applyServices(tx repositories.Tx, seeds []ServiceSeed, c *Counts, now time.Time) (map[string]*entities.Service, error) {
	byName := make(map[string]*entities.Service, len(seeds))
	for _, in := range seeds {
		name := strings.TrimSpace(in.Name)
		svc, err := repositories.First(tx.Services(), func(s *entities.Service) bool { return strings.EqualFold(s.Name, name) })
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			if svc, err = entities.NewService(name, in.Category, in.RequiresApproval, now); err != nil {
				return nil, fmt.Errorf("service %q: %w", name, err)
			}
			c.Created++
		case err != nil:
			return nil, err
		default:
			if in.Category != "" {
				if !in.Category.Valid() {
					return nil, fmt.Errorf("%w: service %q: unknown category %q", entities.ErrValidation, name, in.Category)
				}
				svc.Category = in.Category
			}
			svc.RequiresApproval = in.RequiresApproval
			svc.IsActive = true
			svc.UpdatedAt = now
			c.Updated++
		}
		svc.Description = strings.TrimSpace(in.Description)
		svc.Icon = strings.TrimSpace(in.Icon)
		if err := syncFields(svc, in.Fields); err != nil {
			return nil, fmt.Errorf("service %q: %w", name, err)
		}
		if err := tx.Services().Put(svc); err != nil {
			return nil, err
		}
		if in.Pricing != nil {
			if err := replacePricing(tx, svc, in.Pricing, now); err != nil {
				return nil, fmt.Errorf("service %q: %w", name, err)
			}
		}
		byName[strings.ToLower(name)] = svc
	}
	return byName, nil
}

// syncFields makes the service's fields match the seed: listed fields are
// added or updated by key, unlisted ones are removed
func syncFields(svc *entities.Service, seeds []dto.FieldInput) error {
	keep := make(map[string]bool, len(seeds))
	for _, in := range seeds {
		keep[in.Key] = true
	}
	fields := svc.Fields[:0]
	for _, f := range svc.Fields {
		if keep[f.Key] {
			fields = append(fields, f)
		}
	}
	svc.Fields = fields

	for _, in := range seeds {
		var field *entities.ServiceField
		for i := range svc.Fields {
			if svc.Fields[i].Key == in.Key {
				field = &svc.Fields[i]
			}
		}
		if field == nil {
			f, err := svc.AddField(in.Key, in.Label, in.Type, in.Required, in.Order)
			if err != nil {
				return err
			}
			field = f
		} else {
			if !in.Type.Valid() {
				return fmt.Errorf("%w: unknown field type %q", entities.ErrValidation, in.Type)
			}
			field.Label = in.Label
			field.Type = in.Type
			field.IsRequired = in.Required
			field.IsVisible = true
			if in.Order > 0 {
				field.Order = in.Order
			}
		}
		field.Placeholder = in.Placeholder
		field.HelpText = in.HelpText
		for i, o := range in.Options {
			order := o.Order
			if order == 0 {
				order = i + 1
			}
			if err := field.UpsertOption(o.Label, o.Value, order, o.IsActive); err != nil {
				return err
			}
		}
	}
	svc.SortFields()
	return nil
}

func replacePricing(tx repositories.Tx, svc *entities.Service, in *PricingSeed, now time.Time) error {
	old, err := tx.Pricing().List(func(p *entities.ServicePricing) bool {
		return p.ServiceID == svc.ID && p.Notes == pricingNote
	})
	if err != nil {
		return err
	}
	for _, p := range old {
		if err := tx.Pricing().Delete(p.ID); err != nil {
			return err
		}
	}
	p, err := entities.NewServicePricing(svc.ID, in.Internal, in.External, now)
	if err != nil {
		return err
	}
	p.Notes = pricingNote
	return tx.Pricing().Put(p)
}

func applyInventory(tx repositories.Tx, seeds []dto.ItemInput, c *Counts, now time.Time) error {
	for _, in := range seeds {
		sku := strings.TrimSpace(in.SKU)
		item, err := repositories.First(tx.InventoryItems(), func(it *entities.InventoryItem) bool {
			return strings.EqualFold(it.SKU, sku)
		})
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			if item, err = entities.NewInventoryItem(in.Name, sku, in.Category, in.Unit, in.CurrentQuantity, now); err != nil {
				return fmt.Errorf("item %s: %w", sku, err)
			}
			c.Created++
		case err != nil:
			return err
		default:
			if name := strings.TrimSpace(in.Name); name != "" {
				item.Name = name
			}
			if in.Unit != "" {
				item.Unit = in.Unit
			}
			item.UpdatedAt = now
			c.Updated++
		}
		item.MinimumThreshold = in.MinimumThreshold
		item.MinQuantity = in.MinQuantity
		if in.MaximumThreshold > 0 {
			item.MaximumThreshold = in.MaximumThreshold
		}
		item.ReorderPoint = in.ReorderPoint
		item.Notes = strings.TrimSpace(in.Notes)
		if err := item.Validate(); err != nil {
			return fmt.Errorf("item %s: %w", sku, err)
		}
		if err := tx.InventoryItems().Put(item); err != nil {
			return err
		}
	}
	return nil
}

func applySchedules(tx repositories.Tx, seeds []ScheduleSeed, c *Counts, today entities.Date, now time.Time) error {
	for _, in := range seeds {
		date := today.AddDays(in.InDays)
		sched, err := repositories.First(tx.VisitSchedules(), func(s *entities.VisitSchedule) bool { return s.Date == date })
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			if sched, err = entities.NewVisitSchedule(string(date), in.Slots, in.Restriction, "", now); err != nil {
				return fmt.Errorf("schedule %s: %w", date, err)
			}
			c.Created++
		case err != nil:
			return err
		default:
			// a schedule that already exists may carry bookings; leave it alone
			continue
		}
		sched.IsBlocked = in.Blocked
		sched.BlockedReason = strings.TrimSpace(in.Reason)
		if err := tx.VisitSchedules().Put(sched); err != nil {
			return err
		}
	}
	return nil
}

func applySettings(tx repositories.Tx, seeds []SettingSeed, c *Counts, now time.Time) error {
	for _, in := range seeds {
		raw, err := json.Marshal(in.Value)
		if err != nil {
			return fmt.Errorf("%w: setting %s: %v", entities.ErrValidation, in.Key, err)
		}
		setting, err := entities.NewSystemSetting(in.Key, raw, in.Description, "", now)
		if err != nil {
			return err
		}
		if _, err := tx.Settings().Get(setting.Key); err == nil {
			c.Updated++
		} else if errors.Is(err, repositories.ErrNotFound) {
			c.Created++
		} else {
			return err
		}
		if err := tx.Settings().Put(setting); err != nil {
			return err
		}
	}
	return nil
}

func applyPolicy(tx repositories.Tx, in *PolicySeed, services map[string]*entities.Service, now time.Time) error {
	if in == nil {
		return nil
	}
	policy := entities.DefaultApprovalPolicy()
	policy.IsGlobalEnabled = in.GlobalEnabled
	for _, name := range in.SelectiveServices {
		svc, ok := services[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			existing, err := repositories.First(tx.Services(), func(s *entities.Service) bool { return strings.EqualFold(s.Name, name) })
			if err != nil {
				return fmt.Errorf("approval policy: service %q: %w", name, err)
			}
			svc = existing
		}
		policy.SelectiveServices = append(policy.SelectiveServices, svc.ID)
	}
	policy.UpdatedAt = now
	return tx.Policies().Put(policy)
}
