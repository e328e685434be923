// Package documenttest holds the behaviour every document backend must share.
package documenttest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/printcenter/pkg/domain/entities"
	"github.com/vsinha/printcenter/pkg/domain/repositories"
	"github.com/vsinha/printcenter/pkg/infrastructure/repositories/document"
)

var errAbort = errors.New("abort")

// Run exercises a backend through the document store
func Run(t *testing.T, newBackend func(t *testing.T) document.Backend) {
	t.Run("put get roundtrip", func(t *testing.T) {
		store := document.NewStore(newBackend(t))
		ctx := context.Background()
		now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

		item, err := entities.NewInventoryItem("A4 Paper", "PAP-A4", entities.ItemPaper, "sheet", 100, now)
		require.NoError(t, err)

		require.NoError(t, store.Update(ctx, func(tx repositories.Tx) error {
			return tx.InventoryItems().Put(item)
		}))

		var got *entities.InventoryItem
		require.NoError(t, store.View(ctx, func(tx repositories.Tx) error {
			var err error
			got, err = tx.InventoryItems().Get(item.ID)
			return err
		}))
		if diff := cmp.Diff(item, got); diff != "" {
			t.Errorf("item mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("missing record", func(t *testing.T) {
		store := document.NewStore(newBackend(t))
		err := store.View(context.Background(), func(tx repositories.Tx) error {
			_, err := tx.Users().Get("nope")
			return err
		})
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("failed update leaves nothing behind", func(t *testing.T) {
		store := document.NewStore(newBackend(t))
		ctx := context.Background()
		user, err := entities.NewUser("a@b.c", "A", entities.RoleConsumer, time.Now())
		require.NoError(t, err)

		err = store.Update(ctx, func(tx repositories.Tx) error {
			if err := tx.Users().Put(user); err != nil {
				return err
			}
			return errAbort
		})
		require.ErrorIs(t, err, errAbort)

		err = store.View(ctx, func(tx repositories.Tx) error {
			_, err := tx.Users().Get(user.ID)
			return err
		})
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("reads see own writes", func(t *testing.T) {
		store := document.NewStore(newBackend(t))
		user, err := entities.NewUser("x@y.z", "X", entities.RoleConsumer, time.Now())
		require.NoError(t, err)

		require.NoError(t, store.Update(context.Background(), func(tx repositories.Tx) error {
			if err := tx.Users().Put(user); err != nil {
				return err
			}
			users, err := tx.Users().List(nil)
			if err != nil {
				return err
			}
			assert.Len(t, users, 1)
			return nil
		}))
	})

	t.Run("list filter and delete", func(t *testing.T) {
		store := document.NewStore(newBackend(t))
		ctx := context.Background()
		now := time.Now()

		require.NoError(t, store.Update(ctx, func(tx repositories.Tx) error {
			for _, email := range []string{"a@x.io", "b@x.io", "c@y.io"} {
				u, err := entities.NewUser(email, "", entities.RoleConsumer, now)
				if err != nil {
					return err
				}
				if err := tx.Users().Put(u); err != nil {
					return err
				}
			}
			return nil
		}))

		var xs []*entities.User
		require.NoError(t, store.View(ctx, func(tx repositories.Tx) error {
			var err error
			xs, err = tx.Users().List(func(u *entities.User) bool { return u.Email != "c@y.io" })
			return err
		}))
		require.Len(t, xs, 2)

		require.NoError(t, store.Update(ctx, func(tx repositories.Tx) error {
			return tx.Users().Delete(xs[0].ID)
		}))
		err := store.Update(ctx, func(tx repositories.Tx) error {
			return tx.Users().Delete(xs[0].ID)
		})
		assert.ErrorIs(t, err, repositories.ErrNotFound)

		require.NoError(t, store.View(ctx, func(tx repositories.Tx) error {
			all, err := tx.Users().List(nil)
			assert.Len(t, all, 2)
			return err
		}))
	})

	t.Run("keyed by natural key", func(t *testing.T) {
		store := document.NewStore(newBackend(t))
		ctx := context.Background()
		pref := entities.DefaultPreferences("user-1")
		setting, err := entities.NewSystemSetting("site.name", []byte(`"Print Center"`), "", "", time.Now())
		require.NoError(t, err)

		require.NoError(t, store.Update(ctx, func(tx repositories.Tx) error {
			if err := tx.Preferences().Put(pref); err != nil {
				return err
			}
			return tx.Settings().Put(setting)
		}))
		require.NoError(t, store.View(ctx, func(tx repositories.Tx) error {
			got, err := tx.Preferences().Get("user-1")
			if err != nil {
				return err
			}
			assert.True(t, got.OrderUpdates)
			s, err := tx.Settings().Get("site.name")
			if err != nil {
				return err
			}
			assert.JSONEq(t, `"Print Center"`, string(s.Value))
			return nil
		}))
	})
}
