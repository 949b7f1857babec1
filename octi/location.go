package octi

import (
	"errors"

	"github.com/zero-day-ai/cti-sdk/identity"
	"github.com/zero-day-ai/cti-sdk/stix"
)

const kindLocation = "location"

// LocationOptions are the optional fields shared by every location kind.
type LocationOptions struct {
	DomainOptions
	Description string
}

// CoordinateOptions add optional coordinates, which must be set together.
type CoordinateOptions struct {
	LocationOptions
	Latitude  *float64
	Longitude *float64
}

// PositionOptions add a postal address to coordinates.
type PositionOptions struct {
	CoordinateOptions
	StreetAddress string
	PostalCode    string
}

// Location is a geographic location. Its LocationType tells which
// constructor built it.
type Location struct {
	base
	name         string
	locationType LocationType
	latitude     *float64
	longitude    *float64
}

// NewAdministrativeArea builds an administrative area such as a state or province.
func NewAdministrativeArea(name string, opts CoordinateOptions) (*Location, error) {
	return newLocation(LocationTypeAdministrativeArea, name, "administrative_area", PositionOptions{CoordinateOptions: opts})
}

// NewCity builds a city.
func NewCity(name string, opts CoordinateOptions) (*Location, error) {
	return newLocation(LocationTypeCity, name, "city", PositionOptions{CoordinateOptions: opts})
}

// NewCountry builds a country. The name is also carried as the country field.
func NewCountry(name string, opts LocationOptions) (*Location, error) {
	return newLocation(LocationTypeCountry, name, "country", PositionOptions{CoordinateOptions: CoordinateOptions{LocationOptions: opts}})
}

// NewRegion builds a region from the standard region vocabulary.
func NewRegion(region Region, opts LocationOptions) (*Location, error) {
	return newLocation(LocationTypeRegion, string(region), "region", PositionOptions{CoordinateOptions: CoordinateOptions{LocationOptions: opts}})
}

// NewPosition builds a precise position, optionally with a postal address.
func NewPosition(name string, opts PositionOptions) (*Location, error) {
	return newLocation(LocationTypePosition, name, "", opts)
}

func newLocation(locationType LocationType, name, nameField string, opts PositionOptions) (*Location, error) {
	opts.DomainOptions = opts.DomainOptions.clone()
	opts.Latitude = ptr(opts.Latitude)
	opts.Longitude = ptr(opts.Longitude)

	v := newValidator(kindLocation)
	v.field("name", notEmpty(name))
	if locationType == LocationTypeRegion && name != "" {
		v.field("name", oneOf(Region(name)))
	}
	v.field("latitude", floatRange(opts.Latitude, -90, 90))
	v.field("longitude", floatRange(opts.Longitude, -180, 180))
	opts.DomainOptions.validate(v)
	if (opts.Latitude == nil) != (opts.Longitude == nil) {
		v.cross(errors.New("latitude and longitude must be set together"), "latitude", "longitude")
	}

	b, err := build(kindLocation, v, func() (stix.Properties, error) {
		id, err := generateID(identity.KindLocation, map[string]any{
			"name":                    name,
			"x_opencti_location_type": string(locationType),
			"latitude":                opts.Latitude,
			"longitude":               opts.Longitude,
		})
		if err != nil {
			return nil, err
		}
		props := opts.DomainOptions.apply(stix.Properties{
			"id":             id,
			"name":           name,
			"description":    opts.Description,
			"latitude":       opts.Latitude,
			"longitude":      opts.Longitude,
			"street_address": opts.StreetAddress,
			"postal_code":    opts.PostalCode,
		})
		if nameField != "" {
			props[nameField] = name
		}
		return project(props).set(extLocationType, locationType).done()
	})
	if err != nil {
		return nil, err
	}
	return &Location{
		base:         b,
		name:         name,
		locationType: locationType,
		latitude:     opts.Latitude,
		longitude:    opts.Longitude,
	}, nil
}

// Name returns the location name.
func (l *Location) Name() string { return l.name }

// LocationType returns the location kind.
func (l *Location) LocationType() LocationType { return l.locationType }

// Coordinates returns the latitude and longitude, ok is false when unset.
func (l *Location) Coordinates() (lat, lon float64, ok bool) {
	if l.latitude == nil || l.longitude == nil {
		return 0, 0, false
	}
	return *l.latitude, *l.longitude, true
}

func (*Location) isDomainObject() {}
