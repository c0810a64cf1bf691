package validation

import "time"

// ValidateDateRange validates that end date is not before start date
func ValidateDateRange(start, end time.Time) error {
	if end.Before(start) {
		return &ValidationError{
			Errors: map[string]string{
				"date_range": "end date must not be before start date",
			},
		}
	}
	return nil
}

// ValidateOdometer checks that an arrival reading, when present, does not go below the departure reading
func ValidateOdometer(startKm float64, endKm *float64) error {
	validationErr := &ValidationError{Errors: make(map[string]string)}

	if startKm < 0 {
		validationErr.AddError("km_depart", "must not be negative")
	}
	if endKm != nil && *endKm < startKm {
		validationErr.AddError("km_arriver", "must be greater than or equal to km_depart")
	}

	if validationErr.HasErrors() {
		return validationErr
	}
	return nil
}
