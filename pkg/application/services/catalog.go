package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/vsinha/printcenter/pkg/application/dto"
	"github.com/vsinha/printcenter/pkg/domain/entities"
	"github.com/vsinha/printcenter/pkg/domain/repositories"
)

// Catalog manages services, their dynamic fields and pricing
type Catalog struct {
	*core
}

// ListServices shows inactive services to admins only
func (s *Catalog) ListServices(ctx context.Context, actor *entities.User) ([]*entities.Service, error) {
	var services []*entities.Service
	err := s.view(ctx, func(tx repositories.Tx) error {
		var err error
		services, err = tx.Services().List(func(svc *entities.Service) bool {
			return svc.IsActive || actor.IsAdmin()
		})
		return err
	})
	sort.Slice(services, func(i, j int) bool { return services[i].Name < services[j].Name })
	return services, err
}

func (s *Catalog) GetService(ctx context.Context, actor *entities.User, id string) (*entities.Service, error) {
	var svc *entities.Service
	err := s.view(ctx, func(tx repositories.Tx) error {
		var err error
		svc, err = tx.Services().Get(id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !svc.IsActive && !actor.IsAdmin() {
		return nil, notFoundf("service %s", id)
	}
	return svc, nil
}

func nameTaken(tx repositories.Tx, name, exceptID string) error {
	taken, err := repositories.Exists(tx.Services(), func(svc *entities.Service) bool {
		return svc.ID != exceptID && strings.EqualFold(svc.Name, name)
	})
	if err != nil {
		return err
	}
	if taken {
		return conflictf("a service named %q already exists", name)
	}
	return nil
}

func (s *Catalog) CreateService(ctx context.Context, actor *entities.User, in dto.ServiceInput) (*entities.Service, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	svc, err := entities.NewService(in.Name, in.Category, in.RequiresApproval, s.now())
	if err != nil {
		return nil, err
	}
	svc.Description = strings.TrimSpace(in.Description)
	svc.Icon = strings.TrimSpace(in.Icon)

	err = s.update(ctx, func(tx repositories.Tx, _ *outbox) error {
		if err := nameTaken(tx, svc.Name, ""); err != nil {
			return err
		}
		return tx.Services().Put(svc)
	})
	return svc, err
}

// mutateService loads a service, applies fn and saves it
func (s *Catalog) mutateService(ctx context.Context, actor *entities.User, id string, fn func(repositories.Tx, *entities.Service) error) (*entities.Service, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	var svc *entities.Service
	err := s.update(ctx, func(tx repositories.Tx, _ *outbox) error {
		var err error
		svc, err = tx.Services().Get(id)
		if err != nil {
			return err
		}
		if err := fn(tx, svc); err != nil {
			return err
		}
		svc.UpdatedAt = s.now()
		return tx.Services().Put(svc)
	})
	return svc, err
}

func (s *Catalog) UpdateService(ctx context.Context, actor *entities.User, id string, in dto.ServiceInput) (*entities.Service, error) {
	return s.mutateService(ctx, actor, id, func(tx repositories.Tx, svc *entities.Service) error {
		if name := strings.TrimSpace(in.Name); name != "" && name != svc.Name {
			if err := nameTaken(tx, name, svc.ID); err != nil {
				return err
			}
			svc.Name = name
			svc.Slug = entities.Slugify(name)
		}
		if in.Category != "" {
			if !in.Category.Valid() {
				return fmt.Errorf("%w: unknown service category %q", entities.ErrValidation, in.Category)
			}
			svc.Category = in.Category
		}
		svc.Description = strings.TrimSpace(in.Description)
		svc.Icon = strings.TrimSpace(in.Icon)
		svc.RequiresApproval = in.RequiresApproval
		return nil
	})
}

func (s *Catalog) UpdateApproval(ctx context.Context, actor *entities.User, id string, requiresApproval bool) (*entities.Service, error) {
	return s.mutateService(ctx, actor, id, func(_ repositories.Tx, svc *entities.Service) error {
		svc.RequiresApproval = requiresApproval
		return nil
	})
}

func (s *Catalog) UpdateServiceSettings(ctx context.Context, actor *entities.User, id string, in dto.ServiceSettings) (*entities.Service, error) {
	return s.mutateService(ctx, actor, id, func(tx repositories.Tx, svc *entities.Service) error {
		if in.IsActive != nil {
			svc.IsActive = *in.IsActive
		}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return fmt.Errorf("%w: service name cannot be empty", entities.ErrValidation)
			}
			if err := nameTaken(tx, name, svc.ID); err != nil {
				return err
			}
			svc.Name = name
			svc.Slug = entities.Slugify(name)
		}
		if in.Description != nil {
			svc.Description = strings.TrimSpace(*in.Description)
		}
		return nil
	})
}

func (s *Catalog) DeleteService(ctx context.Context, actor *entities.User, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	return s.update(ctx, func(tx repositories.Tx, _ *outbox) error {
		inUse, err := repositories.Exists(tx.Orders(), func(o *entities.Order) bool { return o.ServiceID == id })
		if err != nil {
			return err
		}
		if inUse {
			return conflictf("service %s has orders; deactivate it instead", id)
		}
		return tx.Services().Delete(id)
	})
}

func (s *Catalog) AddField(ctx context.Context, actor *entities.User, serviceID string, in dto.FieldInput) (*entities.ServiceField, error) {
	var field entities.ServiceField
	_, err := s.mutateService(ctx, actor, serviceID, func(_ repositories.Tx, svc *entities.Service) error {
		f, err := svc.AddField(in.Key, in.Label, in.Type, in.Required, in.Order)
		if err != nil {
			return err
		}
		f.Placeholder = in.Placeholder
		f.HelpText = in.HelpText
		for _, o := range in.Options {
			if err := f.UpsertOption(o.Label, o.Value, o.Order, o.IsActive); err != nil {
				return err
			}
		}
		field = *f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &field, nil
}

func (s *Catalog) UpdateFieldSettings(ctx context.Context, actor *entities.User, serviceID, fieldID string, in dto.FieldSettings) (*entities.ServiceField, error) {
	var field entities.ServiceField
	_, err := s.mutateService(ctx, actor, serviceID, func(_ repositories.Tx, svc *entities.Service) error {
		f := svc.Field(fieldID)
		if f == nil {
			return notFoundf("field %s on service %s", fieldID, serviceID)
		}
		if in.IsVisible != nil {
			f.IsVisible = *in.IsVisible
		}
		if in.IsRequired != nil {
			f.IsRequired = *in.IsRequired
		}
		if in.Label != nil {
			f.Label = strings.TrimSpace(*in.Label)
		}
		for _, o := range in.Options {
			if err := f.UpsertOption(o.Label, o.Value, o.Order, o.IsActive); err != nil {
				return err
			}
		}
		if in.Order != nil {
			f.Order = *in.Order
			svc.SortFields()
		}
		field = *svc.Field(fieldID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &field, nil
}

func parseOptionalDate(s string, loc *time.Location) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := entities.ParseDate(s)
	if err != nil {
		return nil, err
	}
	t := d.Time(loc)
	return &t, nil
}

func (s *Catalog) ListPricing(ctx context.Context, actor *entities.User, serviceID string) ([]*entities.ServicePricing, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	var rows []*entities.ServicePricing
	err := s.view(ctx, func(tx repositories.Tx) error {
		var err error
		rows, err = tx.Pricing().List(func(p *entities.ServicePricing) bool {
			return serviceID == "" || p.ServiceID == serviceID
		})
		return err
	})
	sortNewestFirst(rows, func(p *entities.ServicePricing) time.Time { return p.CreatedAt })
	return rows, err
}

func (s *Catalog) applyPricing(p *entities.ServicePricing, in dto.PricingInput) error {
	from, err := parseOptionalDate(in.EffectiveFrom, s.loc)
	if err != nil {
		return err
	}
	to, err := parseOptionalDate(in.EffectiveTo, s.loc)
	if err != nil {
		return err
	}
	if from != nil && to != nil && to.Before(*from) {
		return fmt.Errorf("%w: effective_to is before effective_from", entities.ErrValidation)
	}
	if to != nil {
		end := to.Add(24*time.Hour - time.Second)
		to = &end
	}
	p.EffectiveFrom = from
	p.EffectiveTo = to
	p.Notes = strings.TrimSpace(in.Notes)
	return nil
}

func (s *Catalog) CreatePricing(ctx context.Context, actor *entities.User, in dto.PricingInput) (*entities.ServicePricing, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	p, err := entities.NewServicePricing(in.ServiceID, in.InternalCost, in.ExternalCost, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.applyPricing(p, in); err != nil {
		return nil, err
	}
	err = s.update(ctx, func(tx repositories.Tx, _ *outbox) error {
		if _, err := tx.Services().Get(in.ServiceID); err != nil {
			return fmt.Errorf("service %s: %w", in.ServiceID, err)
		}
		return tx.Pricing().Put(p)
	})
	return p, err
}

func (s *Catalog) UpdatePricing(ctx context.Context, actor *entities.User, id string, in dto.PricingInput) (*entities.ServicePricing, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	var p *entities.ServicePricing
	err := s.update(ctx, func(tx repositories.Tx, _ *outbox) error {
		var err error
		p, err = tx.Pricing().Get(id)
		if err != nil {
			return err
		}
		check, err := entities.NewServicePricing(p.ServiceID, in.InternalCost, in.ExternalCost, p.CreatedAt)
		if err != nil {
			return err
		}
		p.InternalCost = check.InternalCost
		p.ExternalCost = check.ExternalCost
		if err := s.applyPricing(p, in); err != nil {
			return err
		}
		return tx.Pricing().Put(p)
	})
	return p, err
}

func (s *Catalog) DeletePricing(ctx context.Context, actor *entities.User, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	return s.update(ctx, func(tx repositories.Tx, _ *outbox) error {
		return tx.Pricing().Delete(id)
	})
}

// currentPricing picks the newest row effective at t for each service
func currentPricing(rows []*entities.ServicePricing, t time.Time) map[string]*entities.ServicePricing {
	current := make(map[string]*entities.ServicePricing)
	for _, p := range rows {
		if !p.EffectiveAt(t) {
			continue
		}
		if prev, ok := current[p.ServiceID]; !ok || p.CreatedAt.After(prev.CreatedAt) {
			current[p.ServiceID] = p
		}
	}
	return current
}
