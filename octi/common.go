package octi

import (
	"errors"
	"fmt"

	"github.com/zero-day-ai/cti-sdk/stix"
)

// ExternalReference points to information outside the platform. It is a
// value object: it has no identifier and is embedded into its owner.
type ExternalReference struct {
	SourceName  string
	Description string
	URL         string
	ExternalID  string
}

func (r ExternalReference) validate(v *validator, name string) {
	v.field(name+".source_name", notEmpty(r.SourceName))
	v.field(name+".url", absoluteURL(r.URL))
	if r.Description == "" && r.URL == "" && r.ExternalID == "" {
		v.cross(errors.New("one of description, url or external_id is required"),
			name+".description", name+".url", name+".external_id")
	}
}

func (r ExternalReference) wire() stix.Properties {
	return stix.Properties{
		"source_name": r.SourceName,
		"description": r.Description,
		"url":         r.URL,
		"external_id": r.ExternalID,
	}
}

func externalReferences(refs []ExternalReference) []stix.Properties {
	if len(refs) == 0 {
		return nil
	}
	out := make([]stix.Properties, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.wire())
	}
	return out
}

// KillChainPhase positions a fact in a kill chain.
type KillChainPhase struct {
	ChainName string
	PhaseName string
}

func (k KillChainPhase) validate(v *validator, name string) {
	v.field(name+".chain_name", notEmpty(k.ChainName))
	v.field(name+".phase_name", notEmpty(k.PhaseName))
}

func killChainPhases(phases []KillChainPhase) []stix.Properties {
	if len(phases) == 0 {
		return nil
	}
	out := make([]stix.Properties, 0, len(phases))
	for _, k := range phases {
		out = append(out, stix.Properties{
			"kill_chain_name": k.ChainName,
			"phase_name":      k.PhaseName,
		})
	}
	return out
}

// UploadedFile is a document attached to a report, such as its PDF rendition.
type UploadedFile struct {
	Name     string
	MimeType string
	Content  []byte
	// NoTriggerImport stops the platform from running import connectors on the file.
	NoTriggerImport bool
}

func (f UploadedFile) validate(v *validator, name string) {
	v.field(name+".name", notEmpty(f.Name))
	if len(f.Content) == 0 {
		v.field(name+".content", errors.New("must not be empty"))
	}
}

func uploadedFiles(files []UploadedFile) []stix.Properties {
	if len(files) == 0 {
		return nil
	}
	out := make([]stix.Properties, 0, len(files))
	for _, f := range files {
		out = append(out, stix.Properties{
			"name":              f.Name,
			"mime_type":         f.MimeType,
			"data":              f.Content,
			"no_trigger_import": f.NoTriggerImport,
		})
	}
	return out
}

// DomainOptions holds the provenance shared by domain objects and relationships.
type DomainOptions struct {
	Author             Author
	Markings           []*TLPMarking
	ExternalReferences []ExternalReference
}

func (o DomainOptions) validate(v *validator) {
	v.ref("author", o.Author)
	checkRefs(v, "markings", o.Markings)
	for i, r := range o.ExternalReferences {
		r.validate(v, indexed("external_references", i))
	}
}

func (o DomainOptions) apply(props stix.Properties) stix.Properties {
	props["created_by_ref"] = refID(o.Author)
	props["object_marking_refs"] = ids(o.Markings)
	props["external_references"] = externalReferences(o.ExternalReferences)
	return props
}

func (o DomainOptions) clone() DomainOptions {
	c := o
	c.Markings = append([]*TLPMarking(nil), o.Markings...)
	c.ExternalReferences = append([]ExternalReference(nil), o.ExternalReferences...)
	return c
}

// ObservableOptions holds the fields shared by every observable. Observables
// carry provenance and scoring as platform extension fields.
type ObservableOptions struct {
	// Score is a 0..100 confidence the observable is malicious.
	Score              *int
	Description        string
	Labels             []string
	Author             Author
	Markings           []*TLPMarking
	ExternalReferences []ExternalReference
}

func (o ObservableOptions) validate(v *validator) {
	v.field("score", score(o.Score))
	v.field("labels", nonEmptyItems(o.Labels))
	v.ref("author", o.Author)
	checkRefs(v, "markings", o.Markings)
	for i, r := range o.ExternalReferences {
		r.validate(v, indexed("external_references", i))
	}
}

func (o ObservableOptions) apply(props stix.Properties) *projection {
	props["object_marking_refs"] = ids(o.Markings)
	return project(props).
		set(extScore, o.Score).
		set(extDescription, o.Description).
		set(extLabels, o.Labels).
		set(extExternalReferences, externalReferences(o.ExternalReferences)).
		set(extCreatedByRef, refID(o.Author))
}

func (o ObservableOptions) clone() ObservableOptions {
	c := o
	c.Score = ptr(o.Score)
	c.Labels = cloneStrings(o.Labels)
	c.Markings = append([]*TLPMarking(nil), o.Markings...)
	c.ExternalReferences = append([]ExternalReference(nil), o.ExternalReferences...)
	return c
}

func indexed(name string, i int) string {
	return fmt.Sprintf("%s[%d]", name, i)
}
