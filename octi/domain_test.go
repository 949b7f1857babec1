package octi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zero-day-ai/cti-sdk/stix"
)

func TestTLPMarkings(t *testing.T) {
	tests := []struct {
		level    TLPLevel
		wantID   string
		wantName string
	}{
		{TLPWhite, TLPWhiteID, "TLP:WHITE"},
		{TLPClear, TLPWhiteID, "TLP:WHITE"},
		{TLPGreen, TLPGreenID, "TLP:GREEN"},
		{TLPAmber, TLPAmberID, "TLP:AMBER"},
		{TLPRed, TLPRedID, "TLP:RED"},
		{TLPAmberStrict, "marking-definition--25ae2fc0-b1ad-5d01-8200-3149d19a95a0", "TLP:AMBER+STRICT"},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			m := mustMarking(t, tt.level)
			assert.Equal(t, tt.wantID, m.ID())
			assert.Equal(t, tt.level, m.Level())

			wire := m.WireObject()
			assert.Equal(t, tt.wantName, wire["name"])
			assert.Equal(t, "2017-01-20T00:00:00.000Z", wire["created"])
		})
	}

	_, err := NewTLPMarking("purple")
	require.Error(t, err)
	assert.Equal(t, CodeFieldValidation, ErrorCode(err))

	_, err = NewTLPMarking("")
	require.Error(t, err)
	assert.Equal(t, CodeFieldValidation, ErrorCode(err))
}

func TestAmberStrictProjection(t *testing.T) {
	wire := mustMarking(t, TLPAmberStrict).WireObject()
	assert.Equal(t, "statement", wire["definition_type"])
	assert.Equal(t, map[string]any{"statement": "custom"}, wire["definition"])
	assert.Equal(t, "TLP", wire["x_opencti_definition_type"])
	assert.Equal(t, "TLP:AMBER+STRICT", wire["x_opencti_definition"])

	green := mustMarking(t, TLPGreen).WireObject()
	assert.Equal(t, map[string]any{"tlp": "green"}, green["definition"])
	assert.NotContains(t, green, "x_opencti_definition_type")
}

func TestOrganization(t *testing.T) {
	acme, err := NewOrganization("Acme", OrganizationOptions{
		OrganizationType: OrganizationTypeVendor,
		Reliability:      ReliabilityB,
		Aliases:          []string{"ACME Corp"},
	})
	require.NoError(t, err)

	assert.Equal(t, acmeID, acme.ID(), "natural key ignores optional fields")
	wire := acme.WireObject()
	assert.Equal(t, "organization", wire["identity_class"])
	assert.Equal(t, "vendor", wire["x_opencti_organization_type"])
	assert.Equal(t, "B - Usually reliable", wire["x_opencti_reliability"])
	assert.Equal(t, []string{"ACME Corp"}, wire.Strings("x_opencti_aliases"))

	folded := mustOrganization(t, "  ACME ")
	assert.Equal(t, acmeID, folded.ID())

	_, err = NewOrganization("Acme", OrganizationOptions{Reliability: "Z - Made up"})
	require.Error(t, err)
	assert.Equal(t, CodeFieldValidation, ErrorCode(err))

	_, err = NewOrganization(" ", OrganizationOptions{})
	require.Error(t, err)
	assert.Equal(t, CodeFieldValidation, ErrorCode(err))
}

func TestSectorIsNotAnOrganization(t *testing.T) {
	sector, err := NewSector("Acme", SectorOptions{})
	require.NoError(t, err)
	assert.NotEqual(t, acmeID, sector.ID())
	assert.Equal(t, "class", sector.WireObject()["identity_class"])
}

func TestReport(t *testing.T) {
	acme := mustOrganization(t, "Acme")
	published := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("workflow is an explicit null", func(t *testing.T) {
		r, err := NewReport("Weekly Feed", published, []Entity{acme}, ReportOptions{})
		require.NoError(t, err)

		wire := r.WireObject()
		require.Contains(t, wire, "x_opencti_workflow_id")
		assert.True(t, stix.IsNull(wire["x_opencti_workflow_id"]))
		assert.NotContains(t, wire, "x_opencti_reliability")
		assert.NotContains(t, wire, "x_opencti_files")
		assert.NotContains(t, wire, "description")
	})

	t.Run("identity depends on name and date only", func(t *testing.T) {
		a, err := NewReport("Weekly Feed", published, []Entity{acme}, ReportOptions{Description: "a"})
		require.NoError(t, err)
		b, err := NewReport("weekly feed", published, []Entity{acme}, ReportOptions{Description: "b"})
		require.NoError(t, err)
		assert.Equal(t, weeklyFeedID, a.ID())
		assert.Equal(t, a.ID(), b.ID())
		assert.False(t, Equal(a, b))
	})

	t.Run("files", func(t *testing.T) {
		r, err := NewReport("Weekly Feed", published, []Entity{acme}, ReportOptions{
			Files: []UploadedFile{{Name: "feed.pdf", MimeType: "application/pdf", Content: []byte("%PDF")}},
		})
		require.NoError(t, err)
		files, ok := r.WireObject()["x_opencti_files"].([]any)
		require.True(t, ok)
		assert.Equal(t, map[string]any{
			"name":              "feed.pdf",
			"mime_type":         "application/pdf",
			"data":              "JVBERg==",
			"no_trigger_import": false,
		}, files[0])
	})

	rejections := []struct {
		name      string
		title     string
		published time.Time
		objects   []Entity
		opts      ReportOptions
	}{
		{name: "no objects", title: "r", published: published},
		{name: "no date", title: "r", objects: []Entity{acme}},
		{name: "no name", published: published, objects: []Entity{acme}},
		{name: "nil object", title: "r", published: published, objects: []Entity{nil}},
		{name: "marking object", title: "r", published: published, objects: []Entity{mustMarking(t, TLPGreen)}},
		{name: "unknown report type", title: "r", published: published, objects: []Entity{acme}, opts: ReportOptions{ReportTypes: []ReportType{"gossip"}}},
	}
	for _, tt := range rejections {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReport(tt.title, tt.published, tt.objects, tt.opts)
			require.Error(t, err)
			assert.Equal(t, CodeFieldValidation, ErrorCode(err))
		})
	}
}

func TestLocations(t *testing.T) {
	tests := []struct {
		name      string
		build     func() (*Location, error)
		wantType  LocationType
		wantField string
	}{
		{
			name:      "country",
			build:     func() (*Location, error) { return NewCountry("France", LocationOptions{}) },
			wantType:  LocationTypeCountry,
			wantField: "country",
		},
		{
			name:      "region",
			build:     func() (*Location, error) { return NewRegion("western-europe", LocationOptions{}) },
			wantType:  LocationTypeRegion,
			wantField: "region",
		},
		{
			name:      "city",
			build:     func() (*Location, error) { return NewCity("Lyon", CoordinateOptions{}) },
			wantType:  LocationTypeCity,
			wantField: "city",
		},
		{
			name: "administrative area with coordinates",
			build: func() (*Location, error) {
				return NewAdministrativeArea("Bavaria", CoordinateOptions{Latitude: Ptr(48.7), Longitude: Ptr(11.4)})
			},
			wantType:  LocationTypeAdministrativeArea,
			wantField: "administrative_area",
		},
		{
			name: "position",
			build: func() (*Location, error) {
				return NewPosition("HQ", PositionOptions{StreetAddress: "1 Main St"})
			},
			wantType:  LocationTypePosition,
			wantField: "street_address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := tt.build()
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, loc.LocationType())

			wire := loc.WireObject()
			assert.Equal(t, string(tt.wantType), wire["x_opencti_location_type"])
			assert.Contains(t, wire, tt.wantField)
		})
	}
}

func TestLocationRejections(t *testing.T) {
	_, err := NewCity("Lyon", CoordinateOptions{Latitude: Ptr(45.7)})
	require.Error(t, err)
	assert.Equal(t, CodeCrossFieldValidation, ErrorCode(err))

	_, err = NewCity("Lyon", CoordinateOptions{Latitude: Ptr(95.0), Longitude: Ptr(4.8)})
	require.Error(t, err)
	assert.Equal(t, CodeFieldValidation, ErrorCode(err))

	_, err = NewRegion("atlantis", LocationOptions{})
	require.Error(t, err)
	assert.Equal(t, CodeFieldValidation, ErrorCode(err))
}

func TestLocationIdentityIncludesKind(t *testing.T) {
	country, err := NewCountry("Georgia", LocationOptions{})
	require.NoError(t, err)
	area, err := NewAdministrativeArea("Georgia", CoordinateOptions{})
	require.NoError(t, err)
	assert.NotEqual(t, country.ID(), area.ID())

	lat, lon, ok := country.Coordinates()
	assert.False(t, ok)
	assert.Zero(t, lat)
	assert.Zero(t, lon)
}

func TestVulnerabilityScores(t *testing.T) {
	v, err := NewVulnerability("CVE-2024-3094", VulnerabilityOptions{
		CVSSBaseScore:    Ptr(10.0),
		CVSSBaseSeverity: CVSSSeverityCritical,
		EPSSScore:        Ptr(0.85),
	})
	require.NoError(t, err)
	wire := v.WireObject()
	assert.Equal(t, 10.0, wire["x_opencti_cvss_base_score"])
	assert.Equal(t, "CRITICAL", wire["x_opencti_cvss_base_severity"])
	assert.Equal(t, 0.85, wire["x_opencti_epss_score"])

	_, err = NewVulnerability("CVE-2024-3094", VulnerabilityOptions{CVSSBaseScore: Ptr(10.1)})
	require.Error(t, err)
	assert.Equal(t, CodeFieldValidation, ErrorCode(err))

	_, err = NewVulnerability("CVE-2024-3094", VulnerabilityOptions{EPSSScore: Ptr(1.5)})
	require.Error(t, err)
	assert.Equal(t, CodeFieldValidation, ErrorCode(err))
}

func TestThreatObjects(t *testing.T) {
	first := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	set, err := NewIntrusionSet("APT-EXAMPLE", IntrusionSetOptions{
		Aliases:           []string{"Example Panda"},
		PrimaryMotivation: "ideology",
		ResourceLevel:     "government",
		FirstSeen:         first,
		LastSeen:          first,
	})
	require.NoError(t, err)
	assert.Equal(t, "ideology", set.WireObject()["primary_motivation"])

	_, err = NewIntrusionSet("APT-EXAMPLE", IntrusionSetOptions{FirstSeen: first, LastSeen: first.Add(-time.Hour)})
	require.Error(t, err)
	assert.Equal(t, CodeTranslation, ErrorCode(err))

	mw, err := NewMalware("Emotet", true, MalwareOptions{
		MalwareTypes:    []MalwareType{"trojan"},
		KillChainPhases: []KillChainPhase{{ChainName: "mitre-attack", PhaseName: "execution"}},
	})
	require.NoError(t, err)
	assert.Equal(t, true, mw.WireObject()["is_family"])
	assert.Equal(t, []any{map[string]any{"kill_chain_name": "mitre-attack", "phase_name": "execution"}}, mw.WireObject()["kill_chain_phases"])

	_, err = NewMalware("Emotet", false, MalwareOptions{KillChainPhases: []KillChainPhase{{ChainName: "mitre-attack"}}})
	require.Error(t, err)
	assert.Equal(t, CodeFieldValidation, ErrorCode(err))
}

func TestRelationships(t *testing.T) {
	acme := mustOrganization(t, "Acme")
	domain, err := NewDomainName("evil.example", ObservableOptions{})
	require.NoError(t, err)
	indicator, err := domain.ToIndicator(DerivedIndicatorOptions{})
	require.NoError(t, err)

	basedOn, err := NewBasedOn(indicator, domain, RelationshipOptions{DomainOptions: DomainOptions{Author: acme}})
	require.NoError(t, err)
	assert.Equal(t, RelationshipBasedOn, basedOn.Type())
	wire := basedOn.WireObject()
	assert.Equal(t, "based-on", wire["relationship_type"])
	assert.Equal(t, indicator.ID(), wire["source_ref"])
	assert.Equal(t, domain.ID(), wire["target_ref"])

	again, err := NewBasedOn(indicator, domain, RelationshipOptions{Description: "same edge"})
	require.NoError(t, err)
	assert.Equal(t, basedOn.ID(), again.ID())

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bounded, err := NewRelationship(RelationshipIndicates, indicator, acme, RelationshipOptions{StartTime: start, StopTime: start.Add(time.Hour)})
	require.NoError(t, err)
	assert.NotEqual(t, basedOn.ID(), bounded.ID())

	_, err = NewRelationship(RelationshipIndicates, indicator, acme, RelationshipOptions{StartTime: start, StopTime: start})
	require.Error(t, err)
	assert.Equal(t, CodeTranslation, ErrorCode(err))

	_, err = NewRelationship("loves", indicator, acme, RelationshipOptions{})
	require.Error(t, err)
	assert.Equal(t, CodeFieldValidation, ErrorCode(err))

	_, err = NewBasedOn(nil, domain, RelationshipOptions{})
	require.Error(t, err)
	assert.Equal(t, CodeFieldValidation, ErrorCode(err))

	_, err = NewRelationship(RelationshipRelatedTo, acme, mustMarking(t, TLPRed), RelationshipOptions{})
	require.Error(t, err)
	assert.Equal(t, CodeFieldValidation, ErrorCode(err))
}
