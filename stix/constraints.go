package stix

import (
	"strings"
	"time"
)

func present(obj Object, property string) bool {
	v, ok := obj[property]
	return ok && !IsNull(v)
}

func atLeastOne(properties ...string) Constraint {
	return func(obj Object) error {
		for _, p := range properties {
			if present(obj, p) {
				return nil
			}
		}
		return formatErr(obj.Type(), "", ErrConstraint, "at least one of %s must be present", strings.Join(properties, ", "))
	}
}

// dependsOn requires dependency whenever property is present.
func dependsOn(property, dependency string) Constraint {
	return func(obj Object) error {
		if present(obj, property) && !present(obj, dependency) {
			return formatErr(obj.Type(), property, ErrConstraint, "%s requires %s", property, dependency)
		}
		return nil
	}
}

func parseTimestamp(obj Object, property string) (time.Time, bool, error) {
	s := obj.String(property)
	if s == "" {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false, formatErr(obj.Type(), property, ErrInvalidValue, "not a timestamp: %q", s)
	}
	return t, true, nil
}

// timeOrder requires later to come after earlier, or not before it when strict is false.
func timeOrder(earlier, later string, strict bool) Constraint {
	return func(obj Object) error {
		from, okFrom, err := parseTimestamp(obj, earlier)
		if err != nil {
			return err
		}
		to, okTo, err := parseTimestamp(obj, later)
		if err != nil {
			return err
		}
		if !okFrom || !okTo {
			return nil
		}
		if strict && !to.After(from) {
			return formatErr(obj.Type(), later, ErrConstraint, "%s must be later than %s", later, earlier)
		}
		if to.Before(from) {
			return formatErr(obj.Type(), later, ErrConstraint, "%s must not be earlier than %s", later, earlier)
		}
		return nil
	}
}

func portRange(property string) Constraint {
	return func(obj Object) error {
		v, ok := obj[property].(int64)
		if !ok {
			return nil
		}
		if v < 0 || v > 65535 {
			return formatErr(obj.Type(), property, ErrInvalidValue, "port %d out of range 0..65535", v)
		}
		return nil
	}
}

func activeTraffic(obj Object) error {
	active, _ := obj["is_active"].(bool)
	if active && present(obj, "end") {
		return formatErr(obj.Type(), "is_active", ErrConstraint, "traffic with an end time cannot be active")
	}
	return nil
}

func multipartBody(obj Object) error {
	multipart, _ := obj["is_multipart"].(bool)
	if multipart && present(obj, "body") {
		return formatErr(obj.Type(), "body", ErrConstraint, "body must be empty for multipart messages")
	}
	return nil
}

func coordinate(obj Object, property string, limit float64) (bool, error) {
	v, ok := obj[property].(float64)
	if !ok {
		return false, nil
	}
	if v < -limit || v > limit {
		return true, formatErr(obj.Type(), property, ErrInvalidValue, "%v out of range -%v..%v", v, limit, limit)
	}
	return true, nil
}

// locationConstraint relaxes the standard rule for the administrative area,
// city and position location types, which may carry only a name.
func locationConstraint(obj Object) error {
	hasLat, err := coordinate(obj, "latitude", 90)
	if err != nil {
		return err
	}
	hasLon, err := coordinate(obj, "longitude", 180)
	if err != nil {
		return err
	}
	if hasLat != hasLon {
		return formatErr(obj.Type(), "latitude", ErrConstraint, "latitude and longitude must be set together")
	}
	if present(obj, "precision") && !hasLat {
		return formatErr(obj.Type(), "precision", ErrConstraint, "precision requires latitude and longitude")
	}

	switch strings.ToLower(obj.String("x_opencti_location_type")) {
	case "administrative-area", "city", "position":
		return nil
	}
	if present(obj, "region") || present(obj, "country") || hasLat {
		return nil
	}
	return formatErr(obj.Type(), "", ErrConstraint, "one of region, country or latitude/longitude must be present")
}
