package properties_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/localnerve/landlord-propsdb/internal/mapper"
	"github.com/localnerve/landlord-propsdb/internal/models"
	"github.com/localnerve/landlord-propsdb/internal/properties"
	"github.com/localnerve/landlord-propsdb/internal/store"
	"github.com/localnerve/landlord-propsdb/internal/store/gormstore"
	"github.com/localnerve/landlord-propsdb/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const landlordID = "33333333-3333-3333-3333-333333333333"

var fixedNow = time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

func signedIn() store.PrincipalSource {
	return store.StaticPrincipal{Principal: &store.Principal{ID: landlordID, Email: "landlord@example.com"}}
}

// failingClient fails the named operation on the named table
type failingClient struct {
	store.Client
	op    string
	table string
	err   error
	calls int
}

func (f *failingClient) fails(op, table string) bool {
	return f.op == op && (f.table == "" || f.table == table)
}

func (f *failingClient) Select(ctx context.Context, table string, q store.Query) ([]byte, error) {
	f.calls++
	if f.fails("select", table) {
		return nil, f.err
	}
	return f.Client.Select(ctx, table, q)
}

func (f *failingClient) Insert(ctx context.Context, table string, rows any) ([]byte, error) {
	f.calls++
	if f.fails("insert", table) {
		return nil, f.err
	}
	return f.Client.Insert(ctx, table, rows)
}

func (f *failingClient) Update(ctx context.Context, table string, patch any, filters ...store.Filter) error {
	f.calls++
	if f.fails("update", table) {
		return f.err
	}
	return f.Client.Update(ctx, table, patch, filters...)
}

func (f *failingClient) Delete(ctx context.Context, table string, filters ...store.Filter) error {
	f.calls++
	if f.fails("delete", table) {
		return f.err
	}
	return f.Client.Delete(ctx, table, filters...)
}

// silentClient returns no representation for inserts into table
type silentClient struct {
	store.Client
	table string
}

func (s *silentClient) Insert(ctx context.Context, table string, rows any) ([]byte, error) {
	data, err := s.Client.Insert(ctx, table, rows)
	if err != nil || table != s.table {
		return data, err
	}
	return []byte("[]"), nil
}

// blockingClient holds updates until released
type blockingClient struct {
	store.Client
	entered chan struct{}
	release chan struct{}
}

func (b *blockingClient) Update(ctx context.Context, table string, patch any, filters ...store.Filter) error {
	b.entered <- struct{}{}
	<-b.release
	return b.Client.Update(ctx, table, patch, filters...)
}

func seed(t *testing.T, db *gorm.DB) (older, newer *models.Property) {
	t.Helper()
	older = testutil.CreateProperty(t, db, landlordID, "Older", nil)
	newer = testutil.CreateProperty(t, db, landlordID, "Newer", &models.PropertyInstructions{
		PackageLocation: testutil.Ptr("Lobby"),
		AccessCode:      testutil.Ptr("2580"),
	})
	require.NoError(t, db.Model(older).UpdateColumn("created_at", fixedNow.Add(-48*time.Hour)).Error)
	require.NoError(t, db.Model(newer).UpdateColumn("created_at", fixedNow.Add(-24*time.Hour)).Error)
	testutil.CreateProperty(t, db, "44444444-4444-4444-4444-444444444444", "Someone else's", nil)
	return older, newer
}

func newLoadedList(t *testing.T, client store.Client) *properties.List {
	t.Helper()
	list := properties.NewList(client, signedIn(), properties.WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, list.Load(context.Background()))
	return list
}

func snapshot(t *testing.T, list *properties.List) []byte {
	t.Helper()
	data, err := json.Marshal(list.Items())
	require.NoError(t, err)
	return data
}

func TestLoadOrdersNewestFirst(t *testing.T) {
	db := testutil.NewDB(t)
	older, newer := seed(t, db)

	list := properties.NewList(gormstore.New(db).WithOwner(landlordID), signedIn())
	assert.Equal(t, properties.StateIdle, list.State())

	require.NoError(t, list.Load(context.Background()))
	assert.Equal(t, properties.StateReady, list.State())

	items := list.Items()
	require.Len(t, items, 2)
	assert.Equal(t, newer.ID, items[0].ID)
	assert.Equal(t, older.ID, items[1].ID)

	require.NotNil(t, items[0].Instructions)
	assert.Equal(t, "Lobby", items[0].Instructions.PackageLocation)
	assert.Equal(t, "2580", items[0].Instructions.AccessCode)
	assert.Nil(t, items[1].Instructions)
	assert.Equal(t, []string{"UPS"}, items[1].AuthorizedServices)
}

func TestLoadRequiresPrincipal(t *testing.T) {
	db := testutil.NewDB(t)
	client := &failingClient{Client: gormstore.New(db)}

	list := properties.NewList(client, store.StaticPrincipal{})
	err := list.Load(context.Background())
	assert.ErrorIs(t, err, properties.ErrUnauthenticated)
	assert.Equal(t, properties.StateIdle, list.State())
	assert.Zero(t, client.calls)
}

func TestLoadFailureRetainsPreviousItems(t *testing.T) {
	db := testutil.NewDB(t)
	seed(t, db)
	client := &failingClient{Client: gormstore.New(db).WithOwner(landlordID)}
	list := newLoadedList(t, client)
	before := snapshot(t, list)

	client.op, client.err = "select", errors.New("connection reset by peer")
	err := list.Load(context.Background())
	assert.EqualError(t, err, "connection reset by peer")
	assert.Equal(t, properties.StateFailed, list.State())
	assert.Equal(t, err, list.Err())
	assert.Equal(t, before, snapshot(t, list))
}

func TestAddPrependsStoredRecord(t *testing.T) {
	db := testutil.NewDB(t)
	seed(t, db)
	list := newLoadedList(t, gormstore.New(db).WithOwner(landlordID))

	created, err := list.Add(context.Background(), mapper.Property{
		Name:               "Oak St",
		Address:            "1 Oak St",
		AuthorizedServices: []string{"UPS"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	items := list.Items()
	require.Len(t, items, 3)
	assert.Equal(t, created.ID, items[0].ID)
	assert.Equal(t, landlordID, items[0].LandlordID)
	assert.Equal(t, []string{"UPS"}, items[0].AuthorizedServices)
	assert.False(t, items[0].CreatedAt.IsZero())
	assert.Nil(t, items[0].Instructions)
}

func TestAddLinksInstructions(t *testing.T) {
	db := testutil.NewDB(t)
	list := newLoadedList(t, gormstore.New(db).WithOwner(landlordID))

	created, err := list.Add(context.Background(), mapper.Property{
		Name:               "Elm",
		Address:            "2 Elm",
		AuthorizedServices: []string{"FedEx"},
		Instructions:       &mapper.Instructions{AccessNotes: "Call ahead"},
	})
	require.NoError(t, err)
	require.NotNil(t, created.Instructions)
	assert.NotEmpty(t, created.Instructions.ID)
	assert.Equal(t, created.ID, created.Instructions.PropertyID)
	assert.Equal(t, "Call ahead", created.Instructions.AccessNotes)

	var stored models.PropertyInstructions
	require.NoError(t, db.First(&stored, "property_id = ?", created.ID).Error)
	assert.Equal(t, "Call ahead", *stored.AccessNotes)
	assert.Nil(t, stored.AccessCode)
}

func TestAddWithoutRepresentationReloadsRecord(t *testing.T) {
	db := testutil.NewDB(t)
	client := &silentClient{Client: gormstore.New(db).WithOwner(landlordID), table: store.TablePropertyInstructions}
	list := newLoadedList(t, client)

	created, err := list.Add(context.Background(), mapper.Property{
		Name:               "Birch",
		Address:            "4 Birch",
		AuthorizedServices: []string{},
		Instructions:       &mapper.Instructions{PackageLocation: "Porch"},
	})
	require.NoError(t, err)
	require.NotNil(t, created.Instructions)
	assert.NotEmpty(t, created.Instructions.ID)
	assert.Equal(t, "Porch", created.Instructions.PackageLocation)
	assert.Equal(t, created.ID, list.Items()[0].ID)
}

func TestAddInstructionsFailureLeavesNoProperty(t *testing.T) {
	db := testutil.NewDB(t)
	client := &failingClient{
		Client: gormstore.New(db).WithOwner(landlordID),
		op:     "insert",
		table:  store.TablePropertyInstructions,
		err:    store.BadRequest("value too long for access_code"),
	}
	list := newLoadedList(t, client)

	_, err := list.Add(context.Background(), mapper.Property{
		Name:         "Cedar",
		Address:      "5 Cedar",
		Instructions: &mapper.Instructions{AccessCode: "x"},
	})
	assert.EqualError(t, err, "value too long for access_code")
	assert.Equal(t, 0, list.Len())

	var count int64
	require.NoError(t, db.Model(&models.Property{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUpdateReplacesInPlace(t *testing.T) {
	db := testutil.NewDB(t)
	older, _ := seed(t, db)
	list := newLoadedList(t, gormstore.New(db).WithOwner(landlordID))

	current, ok := list.Get(older.ID)
	require.True(t, ok)
	input := current.Clone()
	input.Name = "Oak St Renamed"

	updated, err := list.Update(context.Background(), older.ID, input)
	require.NoError(t, err)
	assert.Equal(t, fixedNow, updated.UpdatedAt)

	items := list.Items()
	require.Len(t, items, 2)
	assert.Equal(t, older.ID, items[1].ID)
	assert.Equal(t, "Oak St Renamed", items[1].Name)
	assert.Equal(t, fixedNow, items[1].UpdatedAt)
	assert.Equal(t, current.CreatedAt, items[1].CreatedAt)

	var stored models.Property
	require.NoError(t, db.First(&stored, "id = ?", older.ID).Error)
	assert.Equal(t, "Oak St Renamed", stored.Name)
}

func TestUpdateIsFullOverwrite(t *testing.T) {
	db := testutil.NewDB(t)
	older, _ := seed(t, db)
	list := newLoadedList(t, gormstore.New(db).WithOwner(landlordID))

	_, err := list.Update(context.Background(), older.ID, mapper.Property{
		Name:    "Bare",
		Address: "0 Bare St",
	})
	require.NoError(t, err)

	var stored models.Property
	require.NoError(t, db.First(&stored, "id = ?", older.ID).Error)
	assert.Equal(t, "Bare", stored.Name)
	assert.Empty(t, stored.AuthorizedServices)
	assert.Nil(t, stored.UnitCount)
	assert.Nil(t, stored.PropertyType)
}

func TestUpdateSyncsInstructions(t *testing.T) {
	db := testutil.NewDB(t)
	older, newer := seed(t, db)
	list := newLoadedList(t, gormstore.New(db).WithOwner(landlordID))
	ctx := context.Background()

	// edit existing instructions in place
	current, _ := list.Get(newer.ID)
	input := current.Clone()
	input.Instructions.PackageLocation = "Mailroom"
	updated, err := list.Update(ctx, newer.ID, input)
	require.NoError(t, err)
	assert.Equal(t, newer.Instructions[0].ID, updated.Instructions.ID)

	var rows []models.PropertyInstructions
	require.NoError(t, db.Where("property_id = ?", newer.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "Mailroom", *rows[0].PackageLocation)

	// clear them
	input = updated.Clone()
	input.Instructions = nil
	updated, err = list.Update(ctx, newer.ID, input)
	require.NoError(t, err)
	assert.Nil(t, updated.Instructions)
	require.NoError(t, db.Where("property_id = ?", newer.ID).Find(&rows).Error)
	assert.Empty(t, rows)

	// add to a property without any
	current, _ = list.Get(older.ID)
	input = current.Clone()
	input.Instructions = &mapper.Instructions{SpecialInstructions: "Fragile"}
	updated, err = list.Update(ctx, older.ID, input)
	require.NoError(t, err)
	require.NotNil(t, updated.Instructions)
	assert.NotEmpty(t, updated.Instructions.ID)

	got, _ := list.Get(older.ID)
	assert.Equal(t, "Fragile", got.Instructions.SpecialInstructions)
}

func TestFailingUpdateLeavesListUnchanged(t *testing.T) {
	db := testutil.NewDB(t)
	older, _ := seed(t, db)
	client := &failingClient{
		Client: gormstore.New(db).WithOwner(landlordID),
		op:     "update",
		table:  store.TableProperties,
		err:    store.Forbidden("permission denied for table properties"),
	}
	list := newLoadedList(t, client)
	before := snapshot(t, list)

	_, err := list.Update(context.Background(), older.ID, mapper.Property{Name: "Changed", Address: "x"})
	assert.EqualError(t, err, "permission denied for table properties")
	assert.Equal(t, properties.StateFailed, list.State())
	assert.Equal(t, before, snapshot(t, list))

	// the list still accepts mutations after a failure
	client.op = ""
	_, err = list.Update(context.Background(), older.ID, mapper.Property{Name: "Changed", Address: "x"})
	require.NoError(t, err)
	assert.Equal(t, properties.StateReady, list.State())
	assert.NoError(t, list.Err())
}

func TestFailingInstructionsUpdateReloadsRecord(t *testing.T) {
	db := testutil.NewDB(t)
	_, newer := seed(t, db)
	client := &failingClient{
		Client: gormstore.New(db).WithOwner(landlordID),
		op:     "update",
		table:  store.TablePropertyInstructions,
		err:    store.Forbidden("denied"),
	}
	list := newLoadedList(t, client)

	current, _ := list.Get(newer.ID)
	input := current.Clone()
	input.Name = "Renamed"
	input.Instructions.PackageLocation = "Mailroom"

	_, err := list.Update(context.Background(), newer.ID, input)
	assert.EqualError(t, err, "denied")
	assert.Equal(t, 403, store.StatusOf(err))
	var perr *properties.PartialWriteError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, properties.StateFailed, list.State())

	var stored models.Property
	require.NoError(t, db.First(&stored, "id = ?", newer.ID).Error)
	assert.Equal(t, "Renamed", stored.Name)

	got, ok := list.Get(newer.ID)
	require.True(t, ok)
	assert.Equal(t, "Renamed", got.Name)
	require.NotNil(t, got.Instructions)
	assert.Equal(t, "Lobby", got.Instructions.PackageLocation)
	assert.Equal(t, newer.ID, list.Items()[0].ID)
}

func TestUpdateUnknownProperty(t *testing.T) {
	db := testutil.NewDB(t)
	client := &failingClient{Client: gormstore.New(db).WithOwner(landlordID)}
	list := newLoadedList(t, client)
	calls := client.calls

	_, err := list.Update(context.Background(), "missing", mapper.Property{Name: "x", Address: "y"})
	assert.ErrorIs(t, err, properties.ErrNotFound)
	assert.Equal(t, calls, client.calls)
}

func TestRemoveRequiresConfirmation(t *testing.T) {
	db := testutil.NewDB(t)
	_, newer := seed(t, db)
	list := newLoadedList(t, gormstore.New(db).WithOwner(landlordID))
	ctx := context.Background()
	before := snapshot(t, list)

	token, err := list.RequestDelete(newer.ID)
	require.NoError(t, err)
	assert.Equal(t, before, snapshot(t, list))

	require.NoError(t, list.CancelDelete(token))
	assert.Equal(t, before, snapshot(t, list))
	assert.ErrorIs(t, list.ConfirmDelete(ctx, token), properties.ErrInvalidToken)

	token, err = list.RequestDelete(newer.ID)
	require.NoError(t, err)
	require.NoError(t, list.ConfirmDelete(ctx, token))

	assert.Equal(t, 1, list.Len())
	_, found := list.Get(newer.ID)
	assert.False(t, found)

	var count int64
	require.NoError(t, db.Model(&models.PropertyInstructions{}).Where("property_id = ?", newer.ID).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&models.Property{}).Where("id = ?", newer.ID).Count(&count).Error)
	assert.Zero(t, count)

	assert.ErrorIs(t, list.ConfirmDelete(ctx, token), properties.ErrInvalidToken)
}

func TestFailingDeleteLeavesListUnchanged(t *testing.T) {
	db := testutil.NewDB(t)
	older, _ := seed(t, db)
	client := &failingClient{
		Client: gormstore.New(db).WithOwner(landlordID),
		op:     "delete",
		table:  store.TableProperties,
		err:    store.Conflict("update or delete on table \"properties\" violates foreign key constraint"),
	}
	list := newLoadedList(t, client)
	before := snapshot(t, list)

	token, err := list.RequestDelete(older.ID)
	require.NoError(t, err)
	err = list.ConfirmDelete(context.Background(), token)
	assert.Equal(t, 409, store.StatusOf(err))
	assert.Equal(t, before, snapshot(t, list))
}

func TestFailingDeleteAfterInstructionsRemoved(t *testing.T) {
	db := testutil.NewDB(t)
	_, newer := seed(t, db)
	client := &failingClient{
		Client: gormstore.New(db).WithOwner(landlordID),
		op:     "delete",
		table:  store.TableProperties,
		err:    store.Forbidden("permission denied for table properties"),
	}
	list := newLoadedList(t, client)
	ctx := context.Background()

	token, err := list.RequestDelete(newer.ID)
	require.NoError(t, err)
	err = list.ConfirmDelete(ctx, token)
	assert.Equal(t, 403, store.StatusOf(err))
	assert.Equal(t, properties.StateFailed, list.State())

	var count int64
	require.NoError(t, db.Model(&models.PropertyInstructions{}).Where("property_id = ?", newer.ID).Count(&count).Error)
	assert.Zero(t, count)

	got, ok := list.Get(newer.ID)
	require.True(t, ok)
	assert.Nil(t, got.Instructions)
	assert.Equal(t, 2, list.Len())

	// a later edit inserts fresh instructions
	client.op = ""
	input := got.Clone()
	input.Instructions = &mapper.Instructions{PackageLocation: "Porch"}
	updated, err := list.Update(ctx, newer.ID, input)
	require.NoError(t, err)
	require.NotNil(t, updated.Instructions)
	assert.Equal(t, "Porch", updated.Instructions.PackageLocation)

	var rows []models.PropertyInstructions
	require.NoError(t, db.Where("property_id = ?", newer.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "Porch", *rows[0].PackageLocation)
}

func TestRequestDeleteUnknownProperty(t *testing.T) {
	db := testutil.NewDB(t)
	list := newLoadedList(t, gormstore.New(db).WithOwner(landlordID))

	_, err := list.RequestDelete("missing")
	assert.ErrorIs(t, err, properties.ErrNotFound)
	assert.ErrorIs(t, list.CancelDelete("bogus"), properties.ErrInvalidToken)
}

func TestMutationsRequireLoad(t *testing.T) {
	db := testutil.NewDB(t)
	older, _ := seed(t, db)
	list := properties.NewList(gormstore.New(db).WithOwner(landlordID), signedIn())
	ctx := context.Background()

	_, err := list.Add(ctx, mapper.Property{Name: "x", Address: "y"})
	assert.ErrorIs(t, err, properties.ErrNotReady)

	_, err = list.Update(ctx, older.ID, mapper.Property{Name: "x", Address: "y"})
	assert.ErrorIs(t, err, properties.ErrNotReady)

	_, err = list.RequestDelete(older.ID)
	assert.ErrorIs(t, err, properties.ErrNotReady)
}

func TestMutationsRequirePrincipal(t *testing.T) {
	db := testutil.NewDB(t)
	seed(t, db)
	source := &store.StaticPrincipal{Principal: &store.Principal{ID: landlordID}}
	list := properties.NewList(gormstore.New(db).WithOwner(landlordID), source)
	require.NoError(t, list.Load(context.Background()))

	source.Principal = nil
	_, err := list.Add(context.Background(), mapper.Property{Name: "x", Address: "y"})
	assert.ErrorIs(t, err, properties.ErrUnauthenticated)
	assert.Equal(t, 2, list.Len())
}

func TestOverlappingMutationsAreRejected(t *testing.T) {
	db := testutil.NewDB(t)
	older, _ := seed(t, db)
	client := &blockingClient{
		Client:  gormstore.New(db).WithOwner(landlordID),
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	list := newLoadedList(t, client)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := list.Update(ctx, older.ID, mapper.Property{Name: "Slow", Address: "1 Slow"})
		done <- err
	}()
	<-client.entered

	_, err := list.Add(ctx, mapper.Property{Name: "Fast", Address: "2 Fast"})
	assert.ErrorIs(t, err, properties.ErrBusy)
	assert.ErrorIs(t, list.Load(ctx), properties.ErrBusy)

	close(client.release)
	require.NoError(t, <-done)
	assert.Equal(t, 2, list.Len())
}

func TestItemsAreCopies(t *testing.T) {
	db := testutil.NewDB(t)
	seed(t, db)
	list := newLoadedList(t, gormstore.New(db).WithOwner(landlordID))

	items := list.Items()
	items[0].Name = "mutated"
	items[0].Instructions.AccessCode = "mutated"

	again := list.Items()
	assert.Equal(t, "Newer", again[0].Name)
	assert.Equal(t, "2580", again[0].Instructions.AccessCode)
}
