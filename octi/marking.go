package octi

import (
	"errors"
	"time"

	"github.com/zero-day-ai/cti-sdk/identity"
	"github.com/zero-day-ai/cti-sdk/stix"
)

const kindMarking = "marking-definition"

// tlpCreated is the creation date of the standard TLP marking definitions.
var tlpCreated = time.Date(2017, 1, 20, 0, 0, 0, 0, time.UTC)

// Identifiers of the standard TLP marking definitions.
const (
	TLPWhiteID = "marking-definition--613f2e26-407d-48c7-9eca-b8e91df99dc9"
	TLPGreenID = "marking-definition--34098fce-860f-48ae-8e50-ebd3cc5e41da"
	TLPAmberID = "marking-definition--f88d31f6-486f-44da-b317-01333bde0b82"
	TLPRedID   = "marking-definition--5e57c739-391a-4eb3-b6be-7d15ca92d5ed"
)

var standardTLP = map[TLPLevel]struct {
	id   string
	name string
	tlp  string
}{
	TLPWhite: {TLPWhiteID, "TLP:WHITE", "white"},
	TLPClear: {TLPWhiteID, "TLP:WHITE", "white"},
	TLPGreen: {TLPGreenID, "TLP:GREEN", "green"},
	TLPAmber: {TLPAmberID, "TLP:AMBER", "amber"},
	TLPRed:   {TLPRedID, "TLP:RED", "red"},
}

// TLPMarking is a Traffic Light Protocol data marking.
//
// White, green, amber and red map to the standard marking definitions.
// Clear is carried as white, the level it supersedes. Amber+strict has no
// standard definition and is derived as a platform statement marking.
type TLPMarking struct {
	base
	level TLPLevel
}

// NewTLPMarking builds the marking for level.
func NewTLPMarking(level TLPLevel) (*TLPMarking, error) {
	v := newValidator(kindMarking)
	if level == "" {
		v.field("level", errors.New("is required"))
	}
	v.field("level", oneOf(level))

	b, err := build(kindMarking, v, func() (stix.Properties, error) {
		if std, ok := standardTLP[level]; ok {
			return stix.Properties{
				"id":              std.id,
				"created":         tlpCreated,
				"name":            std.name,
				"definition_type": "tlp",
				"definition":      stix.Properties{"tlp": std.tlp},
			}, nil
		}

		id, err := generateID(identity.KindMarkingDefinition, map[string]any{
			"definition_type": "TLP",
			"definition":      "TLP:AMBER+STRICT",
		})
		if err != nil {
			return nil, err
		}
		return project(stix.Properties{
			"id":              id,
			"created":         tlpCreated,
			"name":            "TLP:AMBER+STRICT",
			"definition_type": "statement",
			"definition":      stix.Properties{"statement": "custom"},
		}).
			set(extDefinitionType, "TLP").
			set(extDefinition, "TLP:AMBER+STRICT").
			done()
	})
	if err != nil {
		return nil, err
	}
	return &TLPMarking{base: b, level: level}, nil
}

// Level returns the level the marking was built with.
func (m *TLPMarking) Level() TLPLevel {
	return m.level
}
