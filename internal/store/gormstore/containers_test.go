package gormstore_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/localnerve/landlord-propsdb/internal/config"
	"github.com/localnerve/landlord-propsdb/internal/database"
	"github.com/localnerve/landlord-propsdb/internal/store"
	"github.com/localnerve/landlord-propsdb/internal/store/gormstore"
	"github.com/localnerve/landlord-propsdb/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestWithMariaDB runs the store against a real MariaDB container
func TestWithMariaDB(t *testing.T) {
	testutil.RequireDocker(t)
	testServerDatabase(t, testutil.StartMariaDB(t))
}

// TestWithPostgreSQL runs the store against a real PostgreSQL container
func TestWithPostgreSQL(t *testing.T) {
	testutil.RequireDocker(t)
	testServerDatabase(t, testutil.StartPostgres(t))
}

func testServerDatabase(t *testing.T, cfg *config.Config) {
	db, err := database.Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, database.AutoMigrate(db))

	ctx := context.Background()
	alice := gormstore.New(db).WithOwner(landlordA)
	bob := gormstore.New(db).WithOwner(landlordB)

	data, err := alice.Insert(ctx, store.TableProperties, map[string]any{
		"name":                "Oak",
		"address":             "1 Oak",
		"authorized_services": []string{"UPS", "FedEx"},
	})
	require.NoError(t, err)
	rows := decodeRows(t, data)
	require.Len(t, rows, 1)
	id := rows[0].ID

	_, err = alice.Insert(ctx, store.TablePropertyInstructions, map[string]any{
		"property_id":      id,
		"package_location": "Lobby",
	})
	require.NoError(t, err)

	t.Run("ScopedSelect", func(t *testing.T) {
		data, err := alice.Select(ctx, store.TableProperties, store.Query{
			Embed: []string{store.TablePropertyInstructions},
		})
		require.NoError(t, err)
		rows := decodeRows(t, data)
		require.Len(t, rows, 1)
		assert.Equal(t, []string{"UPS", "FedEx"}, rows[0].AuthorizedServices)
		require.Len(t, rows[0].Instructions, 1)

		data, err = bob.Select(ctx, store.TableProperties, store.Query{})
		require.NoError(t, err)
		assert.Equal(t, "[]", string(data))
	})

	t.Run("ForeignParent", func(t *testing.T) {
		_, err := bob.Insert(ctx, store.TablePropertyInstructions, map[string]any{"property_id": id})
		assert.Equal(t, http.StatusForbidden, store.StatusOf(err))
	})

	t.Run("RestrictedDelete", func(t *testing.T) {
		err := alice.Delete(ctx, store.TableProperties, store.Eq("id", id))
		assert.Equal(t, http.StatusConflict, store.StatusOf(err))
	})

	t.Run("DuplicateKey", func(t *testing.T) {
		_, err := alice.Insert(ctx, store.TableProperties, map[string]any{"id": id, "name": "Dup", "address": "x"})
		assert.Equal(t, http.StatusConflict, store.StatusOf(err))
	})

	t.Run("DeleteInOrder", func(t *testing.T) {
		require.NoError(t, alice.Delete(ctx, store.TablePropertyInstructions, store.Eq("property_id", id)))
		require.NoError(t, alice.Delete(ctx, store.TableProperties, store.Eq("id", id)))
	})
}
