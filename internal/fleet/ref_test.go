package fleet

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeID(t *testing.T) {
	id := "65f1c2a9b3e4d5f6a7b8c9d0"
	var nilRef *Ref
	var nilString *string

	tests := []struct {
		name string
		ref  any
		want string
	}{
		{"nil", nil, ""},
		{"empty string", "", ""},
		{"bare string", id, id},
		{"string pointer", &id, id},
		{"nil string pointer", nilString, ""},
		{"object with id", map[string]any{"id": id}, id},
		{"object with _id", map[string]any{"_id": id, "marque": "Toyota"}, id},
		{"_id wins over id", map[string]any{"_id": id, "id": "other"}, id},
		{"empty _id falls back to id", map[string]any{"_id": "", "id": id}, id},
		{"object without id", map[string]any{"marque": "Toyota"}, ""},
		{"string map", map[string]string{"id": id}, id},
		{"typed ref", NewRef(id), id},
		{"nil ref pointer", nilRef, ""},
		{"populated vehicle", Vehicle{ID: id}, id},
		{"numeric id", float64(42), "42"},
		{"unsupported type", []int{1}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.Equal(t, tt.want, NormalizeID(tt.ref))
			})
		})
	}
}

func TestNormalizeID_ShapeIndependent(t *testing.T) {
	for _, x := range []string{"a", "65f1c2a9b3e4d5f6a7b8c9d0", "with space"} {
		assert.Equal(t, NormalizeID(x), NormalizeID(map[string]any{"id": x}))
		assert.Equal(t, NormalizeID(x), NormalizeID(map[string]any{"_id": x}))
	}
}

func TestRef_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantID    string
		populated bool
	}{
		{"bare id", `{"vehicule":"v1"}`, "v1", false},
		{"populated with _id", `{"vehicule":{"_id":"v1","marque":"Toyota","modele":"Hilux"}}`, "v1", true},
		{"populated with id", `{"vehicule":{"id":"v1"}}`, "v1", true},
		{"null", `{"vehicule":null}`, "", false},
		{"missing", `{}`, "", false},
		{"numeric", `{"vehicule":7}`, "7", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var trip Trip
			require.NoError(t, json.Unmarshal([]byte(tt.payload), &trip))
			assert.Equal(t, tt.wantID, trip.Vehicle.ID)
			assert.Equal(t, tt.populated, trip.Vehicle.Populated())
		})
	}
}

func TestRef_FieldAndMarshal(t *testing.T) {
	var trip Trip
	require.NoError(t, json.Unmarshal([]byte(`{"vehicule":{"_id":"v1","marque":" Toyota ","kilometreCompteur":1200}}`), &trip))

	assert.Equal(t, "Toyota", trip.Vehicle.Field("marque"))
	assert.Equal(t, "1200", trip.Vehicle.Field("kilometreCompteur"))
	assert.Equal(t, "", trip.Vehicle.Field("absent"))

	out, err := json.Marshal(trip.Vehicle)
	require.NoError(t, err)
	assert.JSONEq(t, `"v1"`, string(out))

	out, err = json.Marshal(Ref{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestRef_MixedShapesGroupTogether(t *testing.T) {
	payload := `[
		{"_id":"t1","vehicule":"v1","kmDepart":0,"distanceParcourue":10},
		{"_id":"t2","vehicule":{"_id":"v1","marque":"Toyota"},"kmDepart":0,"distanceParcourue":5}
	]`

	var trips []Trip
	require.NoError(t, json.Unmarshal([]byte(payload), &trips))
	require.Len(t, trips, 2)
	assert.Equal(t, NormalizeID(trips[0].Vehicle), NormalizeID(trips[1].Vehicle))
}
