package bundle

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zero-day-ai/cti-sdk/octi"
	"github.com/zero-day-ai/cti-sdk/stix"
)

type feed struct {
	acme      *octi.Organization
	green     *octi.TLPMarking
	domain    *octi.DomainName
	indicator *octi.Indicator
	report    *octi.Report
}

func weeklyFeed(t *testing.T) feed {
	t.Helper()
	acme, err := octi.NewOrganization("Acme", octi.OrganizationOptions{})
	require.NoError(t, err)
	green, err := octi.NewTLPMarking(octi.TLPGreen)
	require.NoError(t, err)
	provenance := octi.DomainOptions{Author: acme, Markings: []*octi.TLPMarking{green}}

	domain, err := octi.NewDomainName("evil.example", octi.ObservableOptions{
		Author:   acme,
		Markings: []*octi.TLPMarking{green},
	})
	require.NoError(t, err)
	indicator, err := domain.ToIndicator(octi.DerivedIndicatorOptions{})
	require.NoError(t, err)
	report, err := octi.NewReport("Weekly Feed", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		[]octi.Entity{indicator, acme}, octi.ReportOptions{DomainOptions: provenance})
	require.NoError(t, err)

	return feed{acme: acme, green: green, domain: domain, indicator: indicator, report: report}
}

func TestAssembleWeeklyFeed(t *testing.T) {
	f := weeklyFeed(t)

	b, err := Assemble([]octi.Entity{f.acme, f.green, f.domain, f.indicator, f.report})
	require.NoError(t, err)
	require.Equal(t, 5, b.Len())

	assert.Equal(t, "bundle", b.Type)
	assert.True(t, stix.ValidIdentifier(b.ID))

	wantOrder := []string{f.acme.ID(), f.green.ID(), f.domain.ID(), f.indicator.ID(), f.report.ID()}
	for i, obj := range b.Objects {
		assert.Equal(t, wantOrder[i], obj.ID())
	}

	report, ok := b.Find(f.report.ID())
	require.True(t, ok)
	assert.Equal(t, []string{f.indicator.ID(), f.acme.ID()}, report.Strings("object_refs"))

	indicator, ok := b.Find(f.indicator.ID())
	require.True(t, ok)
	assert.Equal(t, "[domain-name:value='evil.example']", indicator.String("pattern"))
	assert.Equal(t, f.acme.ID(), indicator.String("created_by_ref"))

	data, err := b.Marshal()
	require.NoError(t, err)
	decoded, err := stix.DecodeBundle(data)
	require.NoError(t, err)
	for _, obj := range decoded.Objects {
		for key, value := range obj {
			_, nested := value.(map[string]any)
			if nested && key != "definition" {
				t.Errorf("%s.%s embeds an object instead of referencing it", obj.ID(), key)
			}
		}
	}

	again, err := Assemble([]octi.Entity{f.acme, f.green, f.domain, f.indicator, f.report})
	require.NoError(t, err)
	assert.Equal(t, b.ID, again.ID)
}

func TestAssemblerDeduplicatesFirstSeen(t *testing.T) {
	low, err := octi.NewIPv4Address("198.51.100.7", octi.ObservableOptions{Score: octi.Ptr(10)})
	require.NoError(t, err)
	same, err := octi.NewIPv4Address("198.51.100.7", octi.ObservableOptions{Score: octi.Ptr(10)})
	require.NoError(t, err)
	high, err := octi.NewIPv4Address("198.51.100.7", octi.ObservableOptions{Score: octi.Ptr(90)})
	require.NoError(t, err)

	asm := NewAssembler()
	require.NoError(t, asm.Add(low, same, high))
	assert.Equal(t, 1, asm.Len())
	assert.Equal(t, Stats{Added: 1, Duplicates: 2, Conflicts: 1}, asm.Stats())

	b, err := asm.Build()
	require.NoError(t, err)
	require.Equal(t, 1, b.Len())
	assert.Equal(t, int64(10), b.Objects[0]["x_opencti_score"])
}

func TestAssemblerReferenceIntegrity(t *testing.T) {
	f := weeklyFeed(t)
	basedOn, err := octi.NewBasedOn(f.indicator, f.domain, octi.RelationshipOptions{})
	require.NoError(t, err)

	asm := NewAssembler()
	require.NoError(t, asm.Add(f.indicator, basedOn))

	_, err = asm.Build()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReferenceIntegrity)

	var integrity *IntegrityError
	require.True(t, errors.As(err, &integrity))
	assert.Equal(t, []MissingReference{
		{From: basedOn.ID(), Property: "target_ref", ID: f.domain.ID()},
	}, integrity.Missing)

	require.NoError(t, asm.Add(f.domain))
	b, err := asm.Build()
	require.NoError(t, err)
	assert.Equal(t, 3, b.Len())
}

func TestAssemblerStrictReferences(t *testing.T) {
	f := weeklyFeed(t)

	_, err := Assemble([]octi.Entity{f.domain}, WithStrictReferences())
	var integrity *IntegrityError
	require.True(t, errors.As(err, &integrity))
	assert.ElementsMatch(t, []MissingReference{
		{From: f.domain.ID(), Property: "object_marking_refs", ID: f.green.ID()},
		{From: f.domain.ID(), Property: "x_opencti_created_by_ref", ID: f.acme.ID()},
	}, integrity.Missing)

	_, err = Assemble([]octi.Entity{f.domain})
	require.NoError(t, err)

	_, err = Assemble([]octi.Entity{f.acme, f.green, f.domain}, WithStrictReferences())
	require.NoError(t, err)
}

func TestAssemblerRejectsUnbuiltEntities(t *testing.T) {
	f := weeklyFeed(t)
	asm := NewAssembler()

	err := asm.Add(f.acme, nil)
	assert.ErrorIs(t, err, ErrUnbuiltEntity)
	err = asm.Add(&octi.Organization{})
	assert.ErrorIs(t, err, ErrUnbuiltEntity)
	assert.Zero(t, asm.Len(), "a rejected call adds nothing")
}

func TestAssemblerMinScore(t *testing.T) {
	low, err := octi.NewIPv4Address("198.51.100.7", octi.ObservableOptions{Score: octi.Ptr(10)})
	require.NoError(t, err)
	high, err := octi.NewIPv4Address("198.51.100.8", octi.ObservableOptions{Score: octi.Ptr(60)})
	require.NoError(t, err)
	unscored, err := octi.NewDomainName("evil.example", octi.ObservableOptions{})
	require.NoError(t, err)

	asm := NewAssembler(WithMinScore(50))
	require.NoError(t, asm.Add(low, high, unscored))
	b, err := asm.Build()
	require.NoError(t, err)

	require.Equal(t, 2, b.Len())
	assert.Equal(t, high.ID(), b.Objects[0].ID())
	assert.Equal(t, unscored.ID(), b.Objects[1].ID())
	assert.Equal(t, 1, asm.Stats().Filtered)
}

func TestAssemblerFilters(t *testing.T) {
	f := weeklyFeed(t)

	noIndicators := MustFilter(`object.type != "indicator"`)
	asm := NewAssembler(WithFilters(noIndicators))
	require.NoError(t, asm.Add(f.acme, f.green, f.domain, f.indicator, f.report))
	b, err := asm.Build()
	require.NoError(t, err)
	assert.Equal(t, 4, b.Len())
	_, found := b.Find(f.indicator.ID())
	assert.False(t, found)
	report, found := b.Find(f.report.ID())
	require.True(t, found, "the report keeps its identifier when pruned")
	assert.Equal(t, []string{f.acme.ID()}, report.Strings("object_refs"))
	assert.Equal(t, 1, asm.Stats().Filtered)
	assert.Equal(t, 1, asm.Stats().Pruned)

	basedOn, err := octi.NewBasedOn(f.indicator, f.domain, octi.RelationshipOptions{})
	require.NoError(t, err)
	b, err = Assemble([]octi.Entity{f.domain, f.indicator, basedOn}, WithFilters(noIndicators))
	require.NoError(t, err)
	require.Equal(t, 1, b.Len())
	assert.Equal(t, f.domain.ID(), b.Objects[0].ID())
}

func TestAssemblerDropCascades(t *testing.T) {
	published := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	low, err := octi.NewDomainName("low.example", octi.ObservableOptions{Score: octi.Ptr(10)})
	require.NoError(t, err)
	lowIndicator, err := low.ToIndicator(octi.DerivedIndicatorOptions{})
	require.NoError(t, err)
	basedOn, err := octi.NewBasedOn(lowIndicator, low, octi.RelationshipOptions{})
	require.NoError(t, err)
	high, err := octi.NewDomainName("high.example", octi.ObservableOptions{Score: octi.Ptr(90)})
	require.NoError(t, err)
	mixed, err := octi.NewReport("Mixed", published, []octi.Entity{lowIndicator, low, high}, octi.ReportOptions{})
	require.NoError(t, err)
	lowOnly, err := octi.NewReport("Low Only", published, []octi.Entity{lowIndicator, low}, octi.ReportOptions{})
	require.NoError(t, err)
	chained, err := octi.NewReport("Chained", published, []octi.Entity{basedOn, high}, octi.ReportOptions{})
	require.NoError(t, err)

	tests := []struct {
		name     string
		entities []octi.Entity
		want     []string
		wantRefs map[string][]string
		stats    Stats
	}{
		{
			name:     "relationship with a dropped end",
			entities: []octi.Entity{low, lowIndicator, basedOn, high},
			want:     []string{high.ID()},
			stats:    Stats{Added: 4, Filtered: 3},
		},
		{
			name:     "report pruned to the kept objects",
			entities: []octi.Entity{low, lowIndicator, high, mixed},
			want:     []string{high.ID(), mixed.ID()},
			wantRefs: map[string][]string{mixed.ID(): {high.ID()}},
			stats:    Stats{Added: 4, Filtered: 2, Pruned: 1},
		},
		{
			name:     "report left empty is dropped",
			entities: []octi.Entity{low, lowIndicator, lowOnly, high},
			want:     []string{high.ID()},
			stats:    Stats{Added: 4, Filtered: 3},
		},
		{
			name:     "drops propagate through references",
			entities: []octi.Entity{low, lowIndicator, high, chained, basedOn},
			want:     []string{high.ID(), chained.ID()},
			wantRefs: map[string][]string{chained.ID(): {high.ID()}},
			stats:    Stats{Added: 5, Filtered: 3, Pruned: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			asm := NewAssembler(WithMinScore(40))
			require.NoError(t, asm.Add(tt.entities...))
			b, err := asm.Build()
			require.NoError(t, err)

			got := make([]string, 0, b.Len())
			for _, obj := range b.Objects {
				got = append(got, obj.ID())
			}
			assert.Equal(t, tt.want, got)
			for id, refs := range tt.wantRefs {
				obj, ok := b.Find(id)
				require.True(t, ok)
				assert.Equal(t, refs, obj.Strings("object_refs"))
			}
			assert.Equal(t, tt.stats, asm.Stats())
		})
	}
}

func TestAssemblerDropsEntitiesCitingDroppedAuthor(t *testing.T) {
	f := weeklyFeed(t)

	noOrganizations := MustFilter(`object.type != "identity"`)
	b, err := Assemble([]octi.Entity{f.acme, f.green, f.domain, f.indicator, f.report}, WithFilters(noOrganizations))
	require.NoError(t, err)
	require.Equal(t, 1, b.Len(), "everything created by the dropped author goes with it")
	assert.Equal(t, f.green.ID(), b.Objects[0].ID())
}

func TestAssemblerUnguardedScoreFilter(t *testing.T) {
	acme, err := octi.NewOrganization("Acme", octi.OrganizationOptions{})
	require.NoError(t, err)
	green, err := octi.NewTLPMarking(octi.TLPGreen)
	require.NoError(t, err)
	provenance := octi.ObservableOptions{Author: acme, Markings: []*octi.TLPMarking{green}}

	provenance.Score = octi.Ptr(80)
	kept, err := octi.NewDomainName("kept.example", provenance)
	require.NoError(t, err)
	provenance.Score = octi.Ptr(20)
	dropped, err := octi.NewDomainName("dropped.example", provenance)
	require.NoError(t, err)
	report, err := octi.NewReport("Scored", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		[]octi.Entity{kept, dropped}, octi.ReportOptions{DomainOptions: octi.DomainOptions{Author: acme}})
	require.NoError(t, err)

	b, err := Assemble([]octi.Entity{acme, green, kept, dropped, report},
		WithFilters(MustFilter(`object.x_opencti_score >= 50`)), WithStrictReferences())
	require.NoError(t, err, "objects without a score must not abort the bundle")

	want := []string{acme.ID(), green.ID(), kept.ID(), report.ID()}
	got := make([]string, 0, b.Len())
	for _, obj := range b.Objects {
		got = append(got, obj.ID())
	}
	assert.Equal(t, want, got)
	pruned, ok := b.Find(report.ID())
	require.True(t, ok)
	assert.Equal(t, []string{kept.ID()}, pruned.Strings("object_refs"))
}

func TestAssemblerReset(t *testing.T) {
	f := weeklyFeed(t)
	asm := NewAssembler(WithStrictReferences())
	require.NoError(t, asm.Add(f.domain))
	asm.Reset()

	assert.Zero(t, asm.Len())
	assert.Equal(t, Stats{}, asm.Stats())
	require.NoError(t, asm.Add(f.acme))
	_, err := asm.Build()
	require.NoError(t, err)
}

func TestIntegrityErrorMessage(t *testing.T) {
	err := &IntegrityError{Missing: []MissingReference{{From: "relationship--1", Property: "target_ref", ID: "file--2"}}}
	assert.Equal(t, "bundle reference integrity violated: 1 missing: relationship--1.target_ref -> file--2", err.Error())
}

func TestBundleWireShape(t *testing.T) {
	f := weeklyFeed(t)
	b, err := Assemble([]octi.Entity{f.acme})
	require.NoError(t, err)

	data, err := b.Marshal()
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "bundle", raw["type"])
	assert.Len(t, raw["objects"], 1)
}
