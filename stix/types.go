package stix

// Category groups object types by their role in the wire format.
type Category string

const (
	CategorySDO     Category = "sdo"
	CategorySCO     Category = "sco"
	CategorySRO     Category = "sro"
	CategoryMarking Category = "marking"
)

// Constraint is an object-level rule checked after all properties are set.
type Constraint func(obj Object) error

// TypeSpec describes the property grammar of one object type.
type TypeSpec struct {
	Type     string
	Category Category
	// Required properties must be present after encoding.
	Required []string
	// Optional properties may be present.
	Optional []string
	// Unsupported properties belong to the standard but are not implemented
	// by the platform; the encoder rejects them.
	Unsupported []string
	// IDContributing lists the properties a cyber observable identifier is
	// derived from. When none of them is present every standard property is used.
	IDContributing []string
	Constraints    []Constraint
}

func (s TypeSpec) allows(property string) bool {
	for _, p := range s.Required {
		if p == property {
			return true
		}
	}
	for _, p := range s.Optional {
		if p == property {
			return true
		}
	}
	for _, p := range commonProperties(s.Category) {
		if p == property {
			return true
		}
	}
	return false
}

func (s TypeSpec) unsupported(property string) bool {
	for _, p := range s.Unsupported {
		if p == property {
			return true
		}
	}
	return false
}

func commonProperties(c Category) []string {
	switch c {
	case CategorySDO, CategorySRO:
		return []string{
			"id", "created_by_ref", "created", "modified", "revoked", "labels",
			"confidence", "lang", "external_references", "object_marking_refs",
		}
	case CategorySCO:
		return []string{"id", "object_marking_refs"}
	case CategoryMarking:
		return []string{"id", "created_by_ref", "created", "external_references", "object_marking_refs"}
	}
	return nil
}

var sdoUnsupported = []string{"granular_markings", "extensions"}

var scoUnsupported = []string{"granular_markings", "defanged", "extensions"}

func builtinSpecs() []TypeSpec {
	return []TypeSpec{
		// Domain objects.
		{
			Type:        "identity",
			Category:    CategorySDO,
			Required:    []string{"name"},
			Optional:    []string{"description", "roles", "identity_class", "sectors", "contact_information"},
			Unsupported: sdoUnsupported,
		},
		{
			Type:     "indicator",
			Category: CategorySDO,
			Required: []string{"pattern", "pattern_type"},
			Optional: []string{
				"name", "description", "indicator_types", "pattern_version",
				"valid_from", "valid_until", "kill_chain_phases",
			},
			Unsupported: sdoUnsupported,
			Constraints: []Constraint{timeOrder("valid_from", "valid_until", true)},
		},
		{
			Type:     "intrusion-set",
			Category: CategorySDO,
			Required: []string{"name"},
			Optional: []string{
				"description", "aliases", "first_seen", "last_seen", "goals",
				"resource_level", "primary_motivation", "secondary_motivations",
			},
			Unsupported: sdoUnsupported,
			Constraints: []Constraint{timeOrder("first_seen", "last_seen", false)},
		},
		{
			Type:     "malware",
			Category: CategorySDO,
			Required: []string{"name", "is_family"},
			Optional: []string{
				"description", "malware_types", "aliases", "first_seen", "last_seen",
				"architecture_execution_envs", "implementation_languages",
				"capabilities", "kill_chain_phases",
			},
			Unsupported: append([]string{"operating_system_refs", "sample_refs"}, sdoUnsupported...),
			Constraints: []Constraint{timeOrder("first_seen", "last_seen", false)},
		},
		{
			Type:        "vulnerability",
			Category:    CategorySDO,
			Required:    []string{"name"},
			Optional:    []string{"description"},
			Unsupported: sdoUnsupported,
		},
		{
			Type:        "report",
			Category:    CategorySDO,
			Required:    []string{"name", "published"},
			Optional:    []string{"description", "report_types", "object_refs"},
			Unsupported: sdoUnsupported,
		},
		{
			Type:     "location",
			Category: CategorySDO,
			Optional: []string{
				"name", "description", "latitude", "longitude", "precision", "region",
				"country", "administrative_area", "city", "street_address", "postal_code",
			},
			Unsupported: sdoUnsupported,
			Constraints: []Constraint{locationConstraint},
		},
		// Relationships.
		{
			Type:        "relationship",
			Category:    CategorySRO,
			Required:    []string{"relationship_type", "source_ref", "target_ref"},
			Optional:    []string{"description", "start_time", "stop_time"},
			Unsupported: sdoUnsupported,
			Constraints: []Constraint{timeOrder("start_time", "stop_time", true)},
		},
		// Markings.
		{
			Type:        "marking-definition",
			Category:    CategoryMarking,
			Optional:    []string{"name", "definition_type", "definition"},
			Unsupported: []string{"granular_markings", "extensions"},
			Constraints: []Constraint{dependsOn("definition", "definition_type"), dependsOn("definition_type", "definition")},
		},
		// Cyber observables.
		{
			Type:     "artifact",
			Category: CategorySCO,
			Optional: []string{
				"mime_type", "payload_bin", "url", "hashes",
				"encryption_algorithm", "decryption_key",
			},
			Unsupported:    scoUnsupported,
			IDContributing: []string{"hashes", "payload_bin"},
		},
		{
			Type:           "autonomous-system",
			Category:       CategorySCO,
			Required:       []string{"number"},
			Optional:       []string{"name", "rir"},
			Unsupported:    scoUnsupported,
			IDContributing: []string{"number"},
		},
		{
			Type:           "directory",
			Category:       CategorySCO,
			Required:       []string{"path"},
			Optional:       []string{"path_enc", "ctime", "mtime", "atime"},
			Unsupported:    append([]string{"contains_refs"}, scoUnsupported...),
			IDContributing: []string{"path"},
		},
		{
			Type:           "domain-name",
			Category:       CategorySCO,
			Required:       []string{"value"},
			Unsupported:    append([]string{"resolves_to_refs"}, scoUnsupported...),
			IDContributing: []string{"value"},
		},
		{
			Type:           "email-addr",
			Category:       CategorySCO,
			Required:       []string{"value"},
			Optional:       []string{"display_name"},
			Unsupported:    append([]string{"belongs_to_ref"}, scoUnsupported...),
			IDContributing: []string{"value"},
		},
		{
			Type:     "email-message",
			Category: CategorySCO,
			Required: []string{"is_multipart"},
			Optional: []string{
				"date", "content_type", "from_ref", "sender_ref", "to_refs", "cc_refs",
				"bcc_refs", "message_id", "subject", "received_lines", "body",
			},
			Unsupported:    append([]string{"body_multipart", "raw_email_ref", "additional_header_fields"}, scoUnsupported...),
			IDContributing: []string{"from_ref", "subject", "body"},
			Constraints:    []Constraint{multipartBody},
		},
		{
			Type:     "file",
			Category: CategorySCO,
			Optional: []string{
				"hashes", "size", "name", "name_enc", "magic_number_hex",
				"mime_type", "ctime", "mtime", "atime",
			},
			Unsupported:    append([]string{"parent_directory_ref", "contains_refs", "content_ref"}, scoUnsupported...),
			IDContributing: []string{"hashes", "name", "parent_directory_ref"},
			Constraints:    []Constraint{atLeastOne("hashes", "name")},
		},
		{
			Type:           "ipv4-addr",
			Category:       CategorySCO,
			Required:       []string{"value"},
			Unsupported:    append([]string{"resolves_to_refs", "belongs_to_refs"}, scoUnsupported...),
			IDContributing: []string{"value"},
		},
		{
			Type:           "ipv6-addr",
			Category:       CategorySCO,
			Required:       []string{"value"},
			Unsupported:    append([]string{"resolves_to_refs", "belongs_to_refs"}, scoUnsupported...),
			IDContributing: []string{"value"},
		},
		{
			Type:           "mac-addr",
			Category:       CategorySCO,
			Required:       []string{"value"},
			Unsupported:    scoUnsupported,
			IDContributing: []string{"value"},
		},
		{
			Type:           "mutex",
			Category:       CategorySCO,
			Required:       []string{"name"},
			Unsupported:    scoUnsupported,
			IDContributing: []string{"name"},
		},
		{
			Type:     "network-traffic",
			Category: CategorySCO,
			Required: []string{"protocols"},
			Optional: []string{
				"start", "end", "is_active", "src_ref", "dst_ref", "src_port", "dst_port",
				"src_byte_count", "dst_byte_count", "src_packets", "dst_packets", "ipfix",
				"src_payload_ref", "dst_payload_ref",
			},
			Unsupported:    append([]string{"encapsulates_refs", "encapsulated_by_ref"}, scoUnsupported...),
			IDContributing: []string{"start", "end", "src_ref", "dst_ref", "src_port", "dst_port", "protocols"},
			Constraints: []Constraint{
				atLeastOne("src_ref", "dst_ref"),
				timeOrder("start", "end", false),
				activeTraffic,
				portRange("src_port"),
				portRange("dst_port"),
			},
		},
		{
			Type:     "process",
			Category: CategorySCO,
			Optional: []string{
				"is_hidden", "pid", "created_time", "cwd", "command_line",
				"environment_variables", "extensions",
			},
			Unsupported: []string{
				"opened_connection_refs", "creator_user_ref", "image_ref", "parent_ref",
				"child_refs", "granular_markings", "defanged",
			},
		},
		{
			Type:           "software",
			Category:       CategorySCO,
			Required:       []string{"name"},
			Optional:       []string{"cpe", "swid", "languages", "vendor", "version"},
			Unsupported:    scoUnsupported,
			IDContributing: []string{"name", "cpe", "swid", "vendor", "version"},
		},
		{
			Type:           "url",
			Category:       CategorySCO,
			Required:       []string{"value"},
			Unsupported:    scoUnsupported,
			IDContributing: []string{"value"},
		},
		{
			Type:     "user-account",
			Category: CategorySCO,
			Optional: []string{
				"user_id", "credential", "account_login", "account_type", "display_name",
				"is_service_account", "is_privileged", "can_escalate_privs", "is_disabled",
				"account_created", "account_expires", "credential_last_changed",
				"account_first_login", "account_last_login",
			},
			Unsupported:    scoUnsupported,
			IDContributing: []string{"account_type", "user_id", "account_login"},
		},
		{
			Type:           "windows-registry-key",
			Category:       CategorySCO,
			Optional:       []string{"key", "values", "modified_time", "creator_user_ref", "number_of_subkeys"},
			Unsupported:    scoUnsupported,
			IDContributing: []string{"key", "values"},
		},
	}
}
