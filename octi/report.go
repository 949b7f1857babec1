package octi

import (
	"errors"
	"time"

	"github.com/zero-day-ai/cti-sdk/identity"
	"github.com/zero-day-ai/cti-sdk/stix"
)

const kindReport = "report"

// ReportOptions are the optional fields of a Report.
type ReportOptions struct {
	DomainOptions
	Description string
	ReportTypes []ReportType
	Reliability Reliability
	Files       []UploadedFile
}

// Report is a published collection of intelligence.
type Report struct {
	base
	name      string
	published time.Time
	objects   []Entity
	opts      ReportOptions
}

// NewReport builds a report over objects, which must not be empty. The
// wire object lists the object identifiers in the order given.
func NewReport(name string, published time.Time, objects []Entity, opts ReportOptions) (*Report, error) {
	objects = append([]Entity(nil), objects...)
	opts.DomainOptions = opts.DomainOptions.clone()
	opts.ReportTypes = append([]ReportType(nil), opts.ReportTypes...)
	opts.Files = append([]UploadedFile(nil), opts.Files...)

	v := newValidator(kindReport)
	v.field("name", notEmpty(name))
	if published.IsZero() {
		v.field("published", errors.New("is required"))
	}
	if len(objects) == 0 {
		v.field("objects", errors.New("must contain at least one entity"))
	}
	checkRefs(v, "objects", objects)
	for i, e := range objects {
		if _, ok := e.(*TLPMarking); ok {
			v.field(indexed("objects", i), errors.New("markings cannot be report objects"))
		}
	}
	v.field("report_types", oneOf(opts.ReportTypes...))
	v.field("reliability", optionalOneOf(opts.Reliability))
	for i, f := range opts.Files {
		f.validate(v, indexed("files", i))
	}
	opts.DomainOptions.validate(v)

	b, err := build(kindReport, v, func() (stix.Properties, error) {
		id, err := generateID(identity.KindReport, map[string]any{
			"name":      name,
			"published": published,
		})
		if err != nil {
			return nil, err
		}
		props := opts.DomainOptions.apply(stix.Properties{
			"id":           id,
			"name":         name,
			"description":  opts.Description,
			"report_types": opts.ReportTypes,
			"published":    published,
			"object_refs":  ids(objects),
		})
		return project(props).
			set(extReliability, opts.Reliability).
			set(extFiles, uploadedFiles(opts.Files)).
			null(extWorkflowID).
			done()
	})
	if err != nil {
		return nil, err
	}
	return &Report{base: b, name: name, published: published, objects: objects, opts: opts}, nil
}

// Name returns the report name.
func (r *Report) Name() string { return r.name }

// Published returns the publication date.
func (r *Report) Published() time.Time { return r.published }

// Objects returns a copy of the referenced entities in order.
func (r *Report) Objects() []Entity { return append([]Entity(nil), r.objects...) }

// Prune rebuilds the report over the objects drop rejects. The identifier
// does not change since it derives from the name and publication date only.
func (r *Report) Prune(drop func(id string) bool) (Entity, bool, error) {
	remaining := make([]Entity, 0, len(r.objects))
	for _, e := range r.objects {
		if !drop(e.ID()) {
			remaining = append(remaining, e)
		}
	}
	switch len(remaining) {
	case len(r.objects):
		return r, true, nil
	case 0:
		return nil, false, nil
	}
	pruned, err := NewReport(r.name, r.published, remaining, r.opts)
	if err != nil {
		return nil, false, err
	}
	return pruned, true, nil
}

func (*Report) isDomainObject() {}
