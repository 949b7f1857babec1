package octi

import (
	"github.com/zero-day-ai/cti-sdk/identity"
	"github.com/zero-day-ai/cti-sdk/stix"
)

const kindIdentity = "identity"

// OrganizationOptions are the optional fields of an Organization.
type OrganizationOptions struct {
	DomainOptions
	Description        string
	ContactInformation string
	OrganizationType   OrganizationType
	Reliability        Reliability
	Aliases            []string
}

// Organization is a company, agency or group. Organizations can author other entities.
type Organization struct {
	base
	name string
	opts OrganizationOptions
}

// NewOrganization builds an organization identified by its name.
func NewOrganization(name string, opts OrganizationOptions) (*Organization, error) {
	opts.DomainOptions = opts.DomainOptions.clone()
	opts.Aliases = cloneStrings(opts.Aliases)

	v := newValidator(kindIdentity)
	v.field("name", notEmpty(name))
	v.field("organization_type", optionalOneOf(opts.OrganizationType))
	v.field("reliability", optionalOneOf(opts.Reliability))
	v.field("aliases", nonEmptyItems(opts.Aliases))
	opts.DomainOptions.validate(v)

	b, err := build(kindIdentity, v, func() (stix.Properties, error) {
		id, err := generateID(identity.KindIdentity, map[string]any{
			"name":           name,
			"identity_class": "organization",
		})
		if err != nil {
			return nil, err
		}
		props := opts.DomainOptions.apply(stix.Properties{
			"id":                  id,
			"name":                name,
			"identity_class":      "organization",
			"description":         opts.Description,
			"contact_information": opts.ContactInformation,
		})
		return project(props).
			set(extOrganizationType, opts.OrganizationType).
			set(extReliability, opts.Reliability).
			set(extAliases, opts.Aliases).
			done()
	})
	if err != nil {
		return nil, err
	}
	return &Organization{base: b, name: name, opts: opts}, nil
}

// Name returns the organization name.
func (o *Organization) Name() string { return o.name }

// Reliability returns the organization reliability, "" when unset.
func (o *Organization) Reliability() Reliability { return o.opts.Reliability }

// Aliases returns a copy of the organization aliases.
func (o *Organization) Aliases() []string { return cloneStrings(o.opts.Aliases) }

func (*Organization) isAuthor() {}

func (*Organization) isDomainObject() {}

// SectorOptions are the optional fields of a Sector.
type SectorOptions struct {
	DomainOptions
	Description string
	Sectors     []IndustrySector
	Reliability Reliability
	Aliases     []string
}

// Sector is an industry sector, carried as an identity of class "class".
type Sector struct {
	base
	name string
	opts SectorOptions
}

// NewSector builds a sector identified by its name.
func NewSector(name string, opts SectorOptions) (*Sector, error) {
	opts.DomainOptions = opts.DomainOptions.clone()
	opts.Aliases = cloneStrings(opts.Aliases)
	opts.Sectors = append([]IndustrySector(nil), opts.Sectors...)

	v := newValidator(kindIdentity)
	v.field("name", notEmpty(name))
	v.field("sectors", oneOf(opts.Sectors...))
	v.field("reliability", optionalOneOf(opts.Reliability))
	v.field("aliases", nonEmptyItems(opts.Aliases))
	opts.DomainOptions.validate(v)

	b, err := build(kindIdentity, v, func() (stix.Properties, error) {
		id, err := generateID(identity.KindIdentity, map[string]any{
			"name":           name,
			"identity_class": "class",
		})
		if err != nil {
			return nil, err
		}
		props := opts.DomainOptions.apply(stix.Properties{
			"id":             id,
			"name":           name,
			"identity_class": "class",
			"description":    opts.Description,
			"sectors":        opts.Sectors,
		})
		return project(props).
			set(extReliability, opts.Reliability).
			set(extAliases, opts.Aliases).
			done()
	})
	if err != nil {
		return nil, err
	}
	return &Sector{base: b, name: name, opts: opts}, nil
}

// Name returns the sector name.
func (s *Sector) Name() string { return s.name }

func (*Sector) isDomainObject() {}
