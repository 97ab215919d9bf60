package service

import (
	"math"
)

// Column limits: money is DECIMAL(10,2), years are INT UNSIGNED but capped
// at a plausible career length.
const (
	MaxMoney           = 99999999.99
	MaxExperienceYears = 100
)

const (
	msgNotNumber = "A valid number is required."
	msgNegative  = "Ensure this value is greater than or equal to 0."
)

func checkMoney(fields FieldErrors, name string, v *float64) {
	switch {
	case v == nil:
	case math.IsNaN(*v) || math.IsInf(*v, 0):
		fields.Add(name, msgNotNumber)
	case *v < 0:
		fields.Add(name, msgNegative)
	case *v > MaxMoney:
		fields.Add(name, "Ensure this value is less than or equal to 99999999.99.")
	}
}

func checkYears(fields FieldErrors, name string, v int) {
	switch {
	case v < 0:
		fields.Add(name, msgNegative)
	case v > MaxExperienceYears:
		fields.Add(name, "Ensure this value is less than or equal to 100.")
	}
}
