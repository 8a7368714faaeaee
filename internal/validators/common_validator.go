package validators

import (
	"fmt"
	"math"
	"strconv"

	"gotogether/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("coordinates", validateCoordinates)
}

type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	for field, msg := range v {
		return fmt.Sprintf("%s: %s", field, msg)
	}
	return "validation failed"
}

// ValidateStruct runs the registered tag validators over a request struct.
func ValidateStruct(s interface{}) ValidationErrors {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	errors := make(ValidationErrors)
	if fieldErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range fieldErrors {
			errors[fe.Field()] = fmt.Sprintf("failed on '%s' validation", fe.Tag())
		}
	} else {
		errors["_"] = err.Error()
	}
	return errors
}

func validateCoordinates(fl validator.FieldLevel) bool {
	v := fl.Field().Float()
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ParseGeoPoint normalizes an inbound location payload into a canonical
// GeoPoint. Clients spell the coordinate keys several ways (lat/latitude,
// lng/lon/longitude, nested coords), so all raw-shape handling lives here and
// nothing downstream ever sees the ambiguous form.
func ParseGeoPoint(obj map[string]interface{}) (models.GeoPoint, error) {
	var point models.GeoPoint
	if obj == nil {
		return point, fmt.Errorf("location payload required")
	}

	address, _ := obj["address"].(string)
	if address == "" {
		return point, fmt.Errorf("address required")
	}

	lat, okLat := extractNumber(obj, "lat", "latitude", "Lat", "Latitude")
	lng, okLng := extractNumber(obj, "lng", "lon", "longitude", "Lng", "Longitude")

	if !okLat || !okLng {
		if coords, ok := nestedMap(obj, "coords", "coordinate"); ok {
			if !okLat {
				lat, okLat = extractNumber(coords, "lat", "latitude")
			}
			if !okLng {
				lng, okLng = extractNumber(coords, "lng", "lon", "longitude")
			}
		}
	}

	if !okLat || !okLng {
		return point, fmt.Errorf("lat/lng required")
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return point, fmt.Errorf("lat/lng out of range")
	}

	point.Address = address
	point.Lat = lat
	point.Lng = lng
	return point, nil
}

func extractNumber(obj map[string]interface{}, keys ...string) (float64, bool) {
	for _, key := range keys {
		raw, ok := obj[key]
		if !ok || raw == nil {
			continue
		}
		switch v := raw.(type) {
		case float64:
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				return v, true
			}
		case int:
			return float64(v), true
		case string:
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func nestedMap(obj map[string]interface{}, keys ...string) (map[string]interface{}, bool) {
	for _, key := range keys {
		if m, ok := obj[key].(map[string]interface{}); ok {
			return m, true
		}
	}
	return nil, false
}
