package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplicationData_ScanToleratesStringNumbers(t *testing.T) {
	var a ApplicationData
	err := a.Scan([]byte(`{"first_name":"Ana","age":"25","birth_year":2000,"height_cm":"170","weight_kg":"55,5","has_children":"no","phone":639170000000}`))
	require.NoError(t, err)

	require.NotNil(t, a.Age)
	assert.Equal(t, 25, *a.Age)
	require.NotNil(t, a.BirthYear)
	assert.Equal(t, 2000, *a.BirthYear)
	require.NotNil(t, a.HeightCM)
	assert.Equal(t, 170.0, *a.HeightCM)
	require.NotNil(t, a.WeightKG)
	assert.Equal(t, 55.5, *a.WeightKG)
	require.NotNil(t, a.HasChildren)
	assert.False(t, *a.HasChildren)
	assert.Equal(t, "639170000000", a.Phone)
	assert.Empty(t, a.Extra)
}

func TestApplicationData_UnparsableValuesKeptInExtra(t *testing.T) {
	var a ApplicationData
	err := a.Scan([]byte(`{"age":"twenty","height_cm":{"ft":5},"has_children":"maybe","city":"Cebu","favourite_color":"red"}`))
	require.NoError(t, err)

	assert.Nil(t, a.Age)
	assert.Nil(t, a.HeightCM)
	assert.Nil(t, a.HasChildren)
	assert.Equal(t, "Cebu", a.City)
	assert.JSONEq(t, `"twenty"`, string(a.Extra["age"]))
	assert.JSONEq(t, `{"ft":5}`, string(a.Extra["height_cm"]))
	assert.JSONEq(t, `"maybe"`, string(a.Extra["has_children"]))
	assert.JSONEq(t, `"red"`, string(a.Extra["favourite_color"]))

	out, err := json.Marshal(a)
	require.NoError(t, err)
	assert.JSONEq(t, `{"age":"twenty","height_cm":{"ft":5},"has_children":"maybe","city":"Cebu","favourite_color":"red"}`, string(out))
}

func TestApplicationData_NullsAndLegacyPhotoKeys(t *testing.T) {
	var a ApplicationData
	err := a.Scan(`{"age":null,"photo_url":"https://cdn.test/1.jpg","photo_2_url":"https://cdn.test/2.jpg"}`)
	require.NoError(t, err)

	assert.Nil(t, a.Age)
	assert.Empty(t, a.Extra)
	assert.Equal(t, []string{"https://cdn.test/1.jpg", "https://cdn.test/2.jpg"}, a.Photos())
}

func TestApplicationData_ScanRejectsNonObject(t *testing.T) {
	var a ApplicationData
	assert.Error(t, a.Scan([]byte(`[1,2]`)))
	assert.Error(t, a.Scan(42))
}
