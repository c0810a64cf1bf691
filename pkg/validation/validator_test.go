package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// ParseDate
// ---------------------------------------------------------------------------

func TestParseDate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		ok     bool
		expect time.Time
	}{
		{"date only", "2024-04-15", true, time.Date(2024, 4, 15, 0, 0, 0, 0, time.Local)},
		{"rfc3339", "2024-04-15T10:30:00Z", true, time.Date(2024, 4, 15, 10, 30, 0, 0, time.UTC)},
		{"rfc3339 millis", "2024-04-15T10:30:00.123Z", true, time.Date(2024, 4, 15, 10, 30, 0, 123000000, time.UTC)},
		{"local datetime", "2024-04-15T08:00:00", true, time.Date(2024, 4, 15, 8, 0, 0, 0, time.Local)},
		{"empty", "", false, time.Time{}},
		{"garbage", "not-a-date", false, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.expect.Equal(got), "got %v", got)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// ValidateStruct with custom tags
// ---------------------------------------------------------------------------

type tripInput struct {
	Date    string `validate:"required,iso_date"`
	Status  string `validate:"required,trip_status"`
	Vehicle string `validate:"required,object_id"`
}

type maintenanceInput struct {
	Category string `validate:"required,maintenance_category"`
	Trigger  string `validate:"required,trigger_type"`
}

func TestValidateStruct(t *testing.T) {
	t.Run("valid trip", func(t *testing.T) {
		err := ValidateStruct(&tripInput{Date: "2024-04-01", Status: "terminé", Vehicle: "65f1c2a9b3e4d5f6a7b8c9d0"})
		assert.NoError(t, err)
	})

	t.Run("invalid trip fields", func(t *testing.T) {
		err := ValidateStruct(&tripInput{Date: "01/04/2024", Status: "paused", Vehicle: "abc"})
		require.Error(t, err)

		vErr, ok := err.(*ValidationError)
		require.True(t, ok)
		assert.Contains(t, vErr.Errors, "date")
		assert.Contains(t, vErr.Errors, "status")
		assert.Contains(t, vErr.Errors, "vehicle")
	})

	t.Run("maintenance enums", func(t *testing.T) {
		assert.NoError(t, ValidateStruct(&maintenanceInput{Category: "Vidange", Trigger: "kilometrage"}))
		assert.Error(t, ValidateStruct(&maintenanceInput{Category: "Carrosserie", Trigger: "date"}))
	})
}

// ---------------------------------------------------------------------------
// Rules
// ---------------------------------------------------------------------------

func TestValidateOdometer(t *testing.T) {
	end := 1200.0
	below := 900.0

	assert.NoError(t, ValidateOdometer(1000, nil))
	assert.NoError(t, ValidateOdometer(1000, &end))

	err := ValidateOdometer(1000, &below)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "km_arriver")
}

func TestValidateDateRange(t *testing.T) {
	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	assert.NoError(t, ValidateDateRange(start, start))
	assert.Error(t, ValidateDateRange(start, start.AddDate(0, 0, -1)))
}

func TestValidationError_Error(t *testing.T) {
	ve := &ValidationError{}
	ve.AddError("b", "second")
	ve.AddError("a", "first")

	assert.True(t, ve.HasErrors())
	assert.Equal(t, "validation failed: a: first; b: second", ve.Error())
}
