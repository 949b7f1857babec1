package template

import (
	"fmt"

	"github.com/zero-day-ai/cti-sdk/octi"
)

// Converter turns feed reports into entities.
type Converter struct {
	author  *octi.Organization
	marking *octi.TLPMarking
}

// NewConverter builds the connector's author and the marking for level.
func NewConverter(level octi.TLPLevel) (*Converter, error) {
	author, err := octi.NewOrganization("Template Connector name", octi.OrganizationOptions{
		Description:        "A useful description of the template connector",
		ContactInformation: "https://www.example.com/contact",
		OrganizationType:   octi.OrganizationTypeVendor,
	})
	if err != nil {
		return nil, fmt.Errorf("build author: %w", err)
	}
	marking, err := octi.NewTLPMarking(level)
	if err != nil {
		return nil, fmt.Errorf("build marking: %w", err)
	}
	return &Converter{author: author, marking: marking}, nil
}

// Author implements connector.Converter.
func (c *Converter) Author() octi.Author { return c.author }

// Marking implements connector.Converter.
func (c *Converter) Marking() *octi.TLPMarking { return c.marking }

// Convert implements connector.Converter. Every IOC yields an observable,
// the indicator derived from it and the based-on relationship between
// them. The report contains the indicators and observables.
func (c *Converter) Convert(r Report) ([]octi.Entity, error) {
	var (
		entities []octi.Entity
		objects  []octi.Entity
	)
	for i, ioc := range r.IOCs {
		observable, err := c.observable(ioc)
		if err != nil {
			return nil, fmt.Errorf("ioc %d: %w", i, err)
		}
		indicator, err := observable.ToIndicator(octi.DerivedIndicatorOptions{
			IndicatorTypes: []octi.IndicatorType{octi.IndicatorTypeMaliciousActivity},
		})
		if err != nil {
			return nil, fmt.Errorf("ioc %d: %w", i, err)
		}
		basedOn, err := octi.NewBasedOn(indicator, observable, octi.RelationshipOptions{
			DomainOptions: c.provenance(),
		})
		if err != nil {
			return nil, fmt.Errorf("ioc %d: %w", i, err)
		}
		entities = append(entities, observable, indicator, basedOn)
		objects = append(objects, indicator, observable)
	}

	report, err := octi.NewReport(r.Title, r.PublishedAt, objects, octi.ReportOptions{
		DomainOptions: c.provenance(),
		Description:   r.Description,
		ReportTypes:   []octi.ReportType{octi.ReportTypeThreatReport},
	})
	if err != nil {
		return nil, err
	}
	return append(entities, report), nil
}

func (c *Converter) provenance() octi.DomainOptions {
	return octi.DomainOptions{Author: c.author, Markings: []*octi.TLPMarking{c.marking}}
}

func (c *Converter) observable(ioc IOC) (octi.Indicatable, error) {
	opts := octi.ObservableOptions{
		Score:    octi.Ptr(ioc.Score),
		Author:   c.author,
		Markings: []*octi.TLPMarking{c.marking},
	}
	switch ioc.Type {
	case "url":
		return octi.NewURL(ioc.Value, opts)
	case "domain-name":
		return octi.NewDomainName(ioc.Value, opts)
	case "ipv4-addr":
		return octi.NewIPv4Address(ioc.Value, opts)
	default:
		return nil, fmt.Errorf("unsupported ioc type %q", ioc.Type)
	}
}
