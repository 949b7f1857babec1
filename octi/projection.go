package octi

import (
	"fmt"
	"reflect"

	"github.com/zero-day-ai/cti-sdk/stix"
)

// Platform extension keys an entity may project.
const (
	extScore              = "x_opencti_score"
	extDescription        = "x_opencti_description"
	extLabels             = "x_opencti_labels"
	extExternalReferences = "x_opencti_external_references"
	extCreatedByRef       = "x_opencti_created_by_ref"
	extAdditionalNames    = "x_opencti_additional_names"
	extOrganizationType   = "x_opencti_organization_type"
	extReliability        = "x_opencti_reliability"
	extAliases            = "x_opencti_aliases"
	extPlatforms          = "x_mitre_platforms"
	extMainObservableType = "x_opencti_main_observable_type"
	extWorkflowID         = "x_opencti_workflow_id"
	extFiles              = "x_opencti_files"
	extLocationType       = "x_opencti_location_type"
	extDefinitionType     = "x_opencti_definition_type"
	extDefinition         = "x_opencti_definition"
	extCVSSBaseScore      = "x_opencti_cvss_base_score"
	extCVSSBaseSeverity   = "x_opencti_cvss_base_severity"
	extEPSSScore          = "x_opencti_epss_score"
)

var extensionKeys = map[string]bool{
	extScore: true, extDescription: true, extLabels: true, extExternalReferences: true,
	extCreatedByRef: true, extAdditionalNames: true, extOrganizationType: true,
	extReliability: true, extAliases: true, extPlatforms: true, extMainObservableType: true,
	extWorkflowID: true, extFiles: true, extLocationType: true, extDefinitionType: true,
	extDefinition: true, extCVSSBaseScore: true, extCVSSBaseSeverity: true, extEPSSScore: true,
}

// projection writes platform extension fields into a property set. Absent
// values are skipped; only keys declared above may be written.
type projection struct {
	props stix.Properties
	err   error
}

func project(props stix.Properties) *projection {
	return &projection{props: props}
}

func (p *projection) set(key string, value any) *projection {
	if p.err != nil {
		return p
	}
	if !extensionKeys[key] {
		p.err = fmt.Errorf("extension field %q is not declared", key)
		return p
	}
	if absent(value) {
		return p
	}
	p.props[key] = value
	return p
}

// null writes an explicit null, for fields only the platform assigns.
func (p *projection) null(key string) *projection {
	if p.err != nil {
		return p
	}
	if !extensionKeys[key] {
		p.err = fmt.Errorf("extension field %q is not declared", key)
		return p
	}
	p.props[key] = stix.Null
	return p
}

func (p *projection) done() (stix.Properties, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.props, nil
}

func absent(value any) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		return v.IsNil()
	case reflect.String, reflect.Slice, reflect.Map:
		return v.Len() == 0
	}
	return false
}
