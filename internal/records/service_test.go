package records_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/localnerve/landlord-propsdb/internal/records"
	"github.com/localnerve/landlord-propsdb/internal/store"
	"github.com/localnerve/landlord-propsdb/internal/store/gormstore"
	"github.com/localnerve/landlord-propsdb/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const landlordID = "55555555-5555-5555-5555-555555555555"

func TestPackagesCRUD(t *testing.T) {
	db := testutil.NewDB(t)
	client := gormstore.New(db).WithOwner(landlordID)
	svc := records.Packages(client)
	ctx := context.Background()

	created, err := svc.Create(ctx, map[string]any{
		"recipient":       "Unit 4",
		"carrier":         "USPS",
		"tracking_number": "9400111",
		"metadata":        map[string]any{"weight": "2lb"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, landlordID, created.LandlordID)
	assert.Equal(t, "received", created.Status)
	assert.JSONEq(t, `{"weight":"2lb"}`, string(created.Metadata))

	updated, err := svc.Update(ctx, created.ID, map[string]any{"status": "picked_up"})
	require.NoError(t, err)
	assert.Equal(t, "picked_up", updated.Status)
	assert.Equal(t, "9400111", updated.TrackingNumber)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "picked_up", got.Status)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	assert.Equal(t, http.StatusNotFound, store.StatusOf(err))
}

func TestListNewestFirstAndScoped(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreatePackage(t, db, "someone-else", "OTHER")
	ctx := context.Background()
	svc := records.Packages(gormstore.New(db).WithOwner(landlordID))

	first, err := svc.Create(ctx, map[string]any{"tracking_number": "A"})
	require.NoError(t, err)
	second, err := svc.Create(ctx, map[string]any{"tracking_number": "B"})
	require.NoError(t, err)
	require.NoError(t, db.Exec("UPDATE packages SET created_at = ? WHERE id = ?", first.CreatedAt.Add(-time.Second), first.ID).Error)

	rows, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, second.ID, rows[0].ID)
	assert.Equal(t, first.ID, rows[1].ID)

	rows, err = svc.List(ctx, store.Eq("tracking_number", "A"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestClaimsAndUpdates(t *testing.T) {
	db := testutil.NewDB(t)
	client := gormstore.New(db).WithOwner(landlordID)
	ctx := context.Background()

	claim, err := records.Claims(client).Create(ctx, map[string]any{"tracking_number": "1Z999"})
	require.NoError(t, err)
	assert.Equal(t, "pending", claim.Status)

	update, err := records.Updates(client).Create(ctx, map[string]any{
		"content": "Lobby closed Friday",
		"author":  "Management",
	})
	require.NoError(t, err)
	assert.Equal(t, "note", update.Type)

	_, err = records.Claims(client).Create(ctx, map[string]any{"bogus": true})
	assert.Equal(t, http.StatusBadRequest, store.StatusOf(err))
	assert.Equal(t, store.TablePropertyUpdates, records.Updates(client).Table())
}
