package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/vsinha/printcenter/pkg/application/dto"
	"github.com/vsinha/printcenter/pkg/domain/entities"
	"github.com/vsinha/printcenter/pkg/domain/repositories"
	"github.com/vsinha/printcenter/pkg/infrastructure/auth"
)

// Accounts handles login, tokens and user administration
type Accounts struct {
	*core
	tokens *auth.Issuer
}

// public returns a copy safe to hand out of the service
func public(u *entities.User) *entities.User {
	if u == nil {
		return nil
	}
	c := *u
	c.PasswordHash = ""
	return &c
}

func findByEmail(tx repositories.Tx, email string) (*entities.User, error) {
	email = entities.NormalizeEmail(email)
	return repositories.First(tx.Users(), func(u *entities.User) bool { return u.Email == email })
}

func (s *Accounts) requireTokens() error {
	if s.tokens == nil {
		return errors.New("accounts: token issuer is not configured")
	}
	return nil
}

// Login checks credentials and issues a token pair
func (s *Accounts) Login(ctx context.Context, email, password string) (*dto.LoginResult, error) {
	if err := s.requireTokens(); err != nil {
		return nil, err
	}
	var user *entities.User
	err := s.view(ctx, func(tx repositories.Tx) error {
		var err error
		user, err = findByEmail(tx, email)
		return err
	})
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthenticated)
	}
	if err != nil {
		return nil, err
	}
	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthenticated)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: account is inactive", ErrUnauthenticated)
	}

	pair, err := s.tokens.Issue(user.ID, string(user.Role))
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user", user.Email).Msg("user logged in")
	return &dto.LoginResult{Tokens: pair, User: public(user)}, nil
}

// Refresh rotates a refresh token; the presented token cannot be used again
func (s *Accounts) Refresh(ctx context.Context, refresh string) (*dto.LoginResult, error) {
	if err := s.requireTokens(); err != nil {
		return nil, err
	}
	claims, pair, err := s.tokens.Rotate(refresh)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	user, err := s.activeUser(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResult{Tokens: pair, User: public(user)}, nil
}

// Authenticate resolves the active user of an access token
func (s *Accounts) Authenticate(ctx context.Context, access string) (*entities.User, error) {
	if err := s.requireTokens(); err != nil {
		return nil, err
	}
	claims, err := s.tokens.Parse(access, auth.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	return s.activeUser(ctx, claims.Subject)
}

func (s *Accounts) activeUser(ctx context.Context, id string) (*entities.User, error) {
	var user *entities.User
	err := s.view(ctx, func(tx repositories.Tx) error {
		var err error
		user, err = tx.Users().Get(id)
		return err
	})
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("%w: user no longer exists", ErrUnauthenticated)
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: account is inactive", ErrUnauthenticated)
	}
	return public(user), nil
}

// Me returns the caller's own profile
func (s *Accounts) Me(ctx context.Context, actor *entities.User) (*entities.User, error) {
	return s.activeUser(ctx, actor.ID)
}

func (s *Accounts) ChangePassword(ctx context.Context, actor *entities.User, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return fmt.Errorf("%w: old and new password are required", entities.ErrValidation)
	}
	if len(newPassword) < auth.MinPasswordLength {
		return fmt.Errorf("%w: new password must be at least %d characters", entities.ErrValidation, auth.MinPasswordLength)
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.update(ctx, func(tx repositories.Tx, _ *outbox) error {
		user, err := loadUser(tx, actor.ID)
		if err != nil {
			return err
		}
		if err := auth.CheckPassword(user.PasswordHash, oldPassword); err != nil {
			return fmt.Errorf("%w: old password is incorrect", entities.ErrValidation)
		}
		user.PasswordHash = hash
		user.UpdatedAt = s.now()
		return tx.Users().Put(user)
	})
}

func requireAdmin(actor *entities.User) error {
	if !actor.IsAdmin() {
		return forbiddenf("administrator access required")
	}
	return nil
}

// CreateUser is the admin endpoint
func (s *Accounts) CreateUser(ctx context.Context, actor *entities.User, in dto.UserInput) (*entities.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if in.IsSuperuser && !actor.IsSuperuser {
		return nil, forbiddenf("only a superuser can grant superuser access")
	}
	return s.Bootstrap(ctx, in)
}

// Bootstrap creates an account without a caller, for the CLI and seeding
func (s *Accounts) Bootstrap(ctx context.Context, in dto.UserInput) (*entities.User, error) {
	user, err := entities.NewUser(in.Email, in.FullName, in.Role, s.now())
	if err != nil {
		return nil, err
	}
	if len(in.Password) < auth.MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", entities.ErrValidation, auth.MinPasswordLength)
	}
	user.PasswordHash, err = auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user.Department = strings.TrimSpace(in.Department)
	user.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	user.OrgUnitID = in.OrgUnitID
	user.IsSuperuser = in.IsSuperuser

	err = s.update(ctx, func(tx repositories.Tx, _ *outbox) error {
		if _, err := findByEmail(tx, user.Email); err == nil {
			return conflictf("a user with email %s already exists", user.Email)
		} else if !errors.Is(err, repositories.ErrNotFound) {
			return err
		}
		if user.OrgUnitID != "" {
			if _, err := tx.OrgUnits().Get(user.OrgUnitID); err != nil {
				return fmt.Errorf("org unit %s: %w", user.OrgUnitID, err)
			}
		}
		if err := tx.Users().Put(user); err != nil {
			return err
		}
		return tx.Preferences().Put(entities.DefaultPreferences(user.ID))
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user", user.Email).Str("role", string(user.Role)).Msg("user created")
	return public(user), nil
}

func (s *Accounts) GetUser(ctx context.Context, actor *entities.User, id string) (*entities.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	var user *entities.User
	err := s.view(ctx, func(tx repositories.Tx) error {
		var err error
		user, err = loadUser(tx, id)
		return err
	})
	return public(user), err
}

func (s *Accounts) ListUsers(ctx context.Context, actor *entities.User, f dto.UserFilter) ([]*entities.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	var users []*entities.User
	err := s.view(ctx, func(tx repositories.Tx) error {
		var err error
		users, err = tx.Users().List(func(u *entities.User) bool {
			if f.Role != "" && u.Role != f.Role {
				return false
			}
			if f.Active != nil && u.IsActive != *f.Active {
				return false
			}
			return matchesText(f.Search, u.Email, u.FullName, u.Department)
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	for i, u := range users {
		users[i] = public(u)
	}
	return users, nil
}

func (s *Accounts) UpdateUser(ctx context.Context, actor *entities.User, id string, in dto.UserUpdate) (*entities.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	var user *entities.User
	err := s.update(ctx, func(tx repositories.Tx, _ *outbox) error {
		var err error
		user, err = loadUser(tx, id)
		if err != nil {
			return err
		}
		if in.FullName != nil {
			user.FullName = strings.TrimSpace(*in.FullName)
		}
		if in.Role != nil {
			if !in.Role.Valid() {
				return fmt.Errorf("%w: unknown role %q", entities.ErrValidation, *in.Role)
			}
			user.Role = *in.Role
		}
		if in.Department != nil {
			user.Department = strings.TrimSpace(*in.Department)
		}
		if in.OrgUnitID != nil {
			if *in.OrgUnitID != "" {
				if _, err := tx.OrgUnits().Get(*in.OrgUnitID); err != nil {
					return fmt.Errorf("org unit %s: %w", *in.OrgUnitID, err)
				}
			}
			user.OrgUnitID = *in.OrgUnitID
		}
		if in.PhoneNumber != nil {
			user.PhoneNumber = strings.TrimSpace(*in.PhoneNumber)
		}
		if in.IsActive != nil {
			user.IsActive = *in.IsActive
		}
		user.UpdatedAt = s.now()
		return tx.Users().Put(user)
	})
	return public(user), err
}

// Deactivate keeps the account for history but blocks login
func (s *Accounts) Deactivate(ctx context.Context, actor *entities.User, id string) error {
	inactive := false
	_, err := s.UpdateUser(ctx, actor, id, dto.UserUpdate{IsActive: &inactive})
	return err
}
