// tables_test.go
//
// A row-level secured property, delivery instruction and package store for landlords
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of landlord-propsdb.
// landlord-propsdb is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// landlord-propsdb is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with landlord-propsdb.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package handlers_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/localnerve/landlord-propsdb/internal/models"
	"github.com/localnerve/landlord-propsdb/internal/store"
	"github.com/localnerve/landlord-propsdb/internal/testutil"
	"github.com/localnerve/landlord-propsdb/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row map[string]any

func request(method, target, session, body string) *http.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if session != "" {
		req.AddCookie(&http.Cookie{Name: "cookie_session", Value: session})
	}
	return req
}

func TestSelectRequiresSession(t *testing.T) {
	app := testutil.NewApp(testutil.NewDB(t))

	resp, err := app.Test(request("GET", "/rest/v1/properties", "", ""))
	require.NoError(t, err)
	testutil.AssertStatus(t, resp, http.StatusForbidden)

	var env utils.ErrorResponseStruct
	testutil.ParseJSON(t, resp, &env)
	assert.Equal(t, store.TypeForbidden, env.Type)
	assert.False(t, env.Ok)

	resp, err = app.Test(request("GET", "/rest/v1/properties", "forged", ""))
	require.NoError(t, err)
	testutil.AssertStatus(t, resp, http.StatusForbidden)
}

func TestSelectScopedWithEmbed(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateProperty(t, db, testutil.Alice.ID, "Oak", &models.PropertyInstructions{
		AccessCode: testutil.Ptr("1234"),
	})
	testutil.CreateProperty(t, db, testutil.Bob.ID, "Elm", nil)
	app := testutil.NewApp(db)

	target := "/rest/v1/properties?select=*,property_instructions(*)&order=created_at.desc"
	resp, err := app.Test(request("GET", target, testutil.AliceSession, ""))
	require.NoError(t, err)
	testutil.AssertStatus(t, resp, http.StatusOK)

	var rows []row
	testutil.ParseJSON(t, resp, &rows)
	require.Len(t, rows, 1)
	assert.Equal(t, "Oak", rows[0]["name"])
	instructions, ok := rows[0]["property_instructions"].([]any)
	require.True(t, ok)
	require.Len(t, instructions, 1)
	assert.Equal(t, "1234", instructions[0].(map[string]any)["access_code"])
}

func TestSelectFiltersAndEmptyArray(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateProperty(t, db, testutil.Alice.ID, "Oak", nil)
	app := testutil.NewApp(db)

	resp, err := app.Test(request("GET", "/rest/v1/properties?name=eq.Pine", testutil.AliceSession, ""))
	require.NoError(t, err)
	testutil.AssertStatus(t, resp, http.StatusOK)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "[]", string(body))

	resp, err = app.Test(request("GET", "/rest/v1/properties?name=like.Oak", testutil.AliceSession, ""))
	require.NoError(t, err)
	testutil.AssertStatus(t, resp, http.StatusBadRequest)

	resp, err = app.Test(request("GET", "/rest/v1/properties?limit=many", testutil.AliceSession, ""))
	require.NoError(t, err)
	testutil.AssertStatus(t, resp, http.StatusBadRequest)
}

func TestSelectUnknownTable(t *testing.T) {
	app := testutil.NewApp(testutil.NewDB(t))

	resp, err := app.Test(request("GET", "/rest/v1/tenants", testutil.AliceSession, ""))
	require.NoError(t, err)
	testutil.AssertStatus(t, resp, http.StatusNotFound)

	var env utils.ErrorResponseStruct
	testutil.ParseJSON(t, resp, &env)
	assert.Equal(t, store.TypeNotFound, env.Type)
}

func TestInsertRepresentation(t *testing.T) {
	db := testutil.NewDB(t)
	app := testutil.NewApp(db)

	req := request("POST", "/rest/v1/properties", testutil.AliceSession,
		`{"name":"Oak","address":"1 Oak","landlord_id":"someone-else","authorized_services":["UPS"]}`)
	req.Header.Set("Prefer", "return=representation")
	resp, err := app.Test(req)
	require.NoError(t, err)
	testutil.AssertStatus(t, resp, http.StatusCreated)

	var rows []row
	testutil.ParseJSON(t, resp, &rows)
	require.Len(t, rows, 1)
	assert.Equal(t, testutil.Alice.ID, rows[0]["landlord_id"])
	assert.NotEmpty(t, rows[0]["id"])

	resp, err = app.Test(request("POST", "/rest/v1/packages", testutil.AliceSession, `{"tracking_number":"X1"}`))
	require.NoError(t, err)
	testutil.AssertStatus(t, resp, http.StatusCreated)
	testutil.AssertNoContent(t, resp)

	var count int64
	require.NoError(t, db.Model(&models.Package{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestInsertRejectsInvalidBody(t *testing.T) {
	app := testutil.NewApp(testutil.NewDB(t))

	resp, err := app.Test(request("POST", "/rest/v1/properties", testutil.AliceSession, `{"name":`))
	require.NoError(t, err)
	testutil.AssertStatus(t, resp, http.StatusBadRequest)

	resp, err = app.Test(request("POST", "/rest/v1/properties", testutil.AliceSession, `{"nickname":"x"}`))
	require.NoError(t, err)
	testutil.AssertStatus(t, resp, http.StatusBadRequest)
}

func TestInsertInstructionsForeignParent(t *testing.T) {
	db := testutil.NewDB(t)
	bobs := testutil.CreateProperty(t, db, testutil.Bob.ID, "Elm", nil)
	app := testutil.NewApp(db)

	resp, err := app.Test(request("POST", "/rest/v1/property_instructions", testutil.AliceSession,
		`{"property_id":"`+bobs.ID+`","access_code":"0000"}`))
	require.NoError(t, err)
	testutil.AssertStatus(t, resp, http.StatusForbidden)
}

func TestUpdateAndDelete(t *testing.T) {
	db := testutil.NewDB(t)
	p := testutil.CreateProperty(t, db, testutil.Alice.ID, "Oak", nil)
	app := testutil.NewApp(db)

	resp, err := app.Test(request("PATCH", "/rest/v1/properties?id=eq."+p.ID, testutil.AliceSession, `{"name":"Oak Renamed"}`))
	require.NoError(t, err)
	testutil.AssertStatus(t, resp, http.StatusNoContent)

	var got models.Property
	require.NoError(t, db.First(&got, "id = ?", p.ID).Error)
	assert.Equal(t, "Oak Renamed", got.Name)

	// another landlord cannot see the row
	resp, err = app.Test(request("PATCH", "/rest/v1/properties?id=eq."+p.ID, testutil.BobSession, `{"name":"Mine"}`))
	require.NoError(t, err)
	testutil.AssertStatus(t, resp, http.StatusNotFound)

	resp, err = app.Test(request("PATCH", "/rest/v1/properties", testutil.AliceSession, `{"name":"All"}`))
	require.NoError(t, err)
	testutil.AssertStatus(t, resp, http.StatusBadRequest)

	resp, err = app.Test(request("DELETE", "/rest/v1/properties?id=eq."+p.ID, testutil.BobSession, ""))
	require.NoError(t, err)
	testutil.AssertStatus(t, resp, http.StatusNoContent)
	require.NoError(t, db.First(&got, "id = ?", p.ID).Error)

	resp, err = app.Test(request("DELETE", "/rest/v1/properties?id=eq."+p.ID, testutil.AliceSession, ""))
	require.NoError(t, err)
	testutil.AssertStatus(t, resp, http.StatusNoContent)
	assert.Error(t, db.First(&got, "id = ?", p.ID).Error)
}

func TestDeleteRestrictedByInstructions(t *testing.T) {
	db := testutil.NewDB(t)
	p := testutil.CreateProperty(t, db, testutil.Alice.ID, "Oak", &models.PropertyInstructions{
		AccessNotes: testutil.Ptr("side door"),
	})
	app := testutil.NewApp(db)

	resp, err := app.Test(request("DELETE", "/rest/v1/properties?id=eq."+p.ID, testutil.AliceSession, ""))
	require.NoError(t, err)
	testutil.AssertStatus(t, resp, http.StatusConflict)
}

func TestCurrentUser(t *testing.T) {
	app := testutil.NewApp(testutil.NewDB(t))

	resp, err := app.Test(request("GET", "/auth/v1/user", testutil.BobSession, ""))
	require.NoError(t, err)
	testutil.AssertStatus(t, resp, http.StatusOK)

	var p store.Principal
	testutil.ParseJSON(t, resp, &p)
	assert.Equal(t, testutil.Bob, p)

	resp, err = app.Test(request("GET", "/auth/v1/user", "", ""))
	require.NoError(t, err)
	testutil.AssertStatus(t, resp, http.StatusForbidden)
}

func TestNotFoundRoute(t *testing.T) {
	app := testutil.NewApp(testutil.NewDB(t))

	resp, err := app.Test(request("GET", "/nowhere", "", ""))
	require.NoError(t, err)
	testutil.AssertStatus(t, resp, http.StatusNotFound)

	var env utils.ErrorResponseStruct
	testutil.ParseJSON(t, resp, &env)
	assert.Equal(t, "/nowhere", env.URL)
}
