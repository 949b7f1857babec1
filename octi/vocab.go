package octi

import "slices"

// TLPLevel is a Traffic Light Protocol sharing level.
type TLPLevel string

const (
	TLPWhite       TLPLevel = "white"
	TLPClear       TLPLevel = "clear"
	TLPGreen       TLPLevel = "green"
	TLPAmber       TLPLevel = "amber"
	TLPAmberStrict TLPLevel = "amber+strict"
	TLPRed         TLPLevel = "red"
)

// IsValid returns true if the level is known.
func (l TLPLevel) IsValid() bool {
	switch l {
	case TLPWhite, TLPClear, TLPGreen, TLPAmber, TLPAmberStrict, TLPRed:
		return true
	default:
		return false
	}
}

func (l TLPLevel) String() string {
	return string(l)
}

// HashAlgorithm names a hash in an observable's hash map.
type HashAlgorithm string

const (
	HashMD5     HashAlgorithm = "MD5"
	HashSHA1    HashAlgorithm = "SHA-1"
	HashSHA256  HashAlgorithm = "SHA-256"
	HashSHA512  HashAlgorithm = "SHA-512"
	HashSHA3256 HashAlgorithm = "SHA3-256"
	HashSHA3512 HashAlgorithm = "SHA3-512"
	HashSSDEEP  HashAlgorithm = "SSDEEP"
	HashTLSH    HashAlgorithm = "TLSH"
)

// IsValid returns true if the algorithm is known.
func (h HashAlgorithm) IsValid() bool {
	switch h {
	case HashMD5, HashSHA1, HashSHA256, HashSHA512, HashSHA3256, HashSHA3512, HashSSDEEP, HashTLSH:
		return true
	default:
		return false
	}
}

// OrganizationType classifies an organization.
type OrganizationType string

const (
	OrganizationTypeVendor      OrganizationType = "vendor"
	OrganizationTypePartner     OrganizationType = "partner"
	OrganizationTypeConstituent OrganizationType = "constituent"
	OrganizationTypeCSIRT       OrganizationType = "csirt"
	OrganizationTypeOther       OrganizationType = "other"
)

// IsValid returns true if the organization type is known.
func (t OrganizationType) IsValid() bool {
	switch t {
	case OrganizationTypeVendor, OrganizationTypePartner, OrganizationTypeConstituent,
		OrganizationTypeCSIRT, OrganizationTypeOther:
		return true
	default:
		return false
	}
}

// Reliability rates a source on the Admiralty scale.
type Reliability string

const (
	ReliabilityA Reliability = "A - Completely reliable"
	ReliabilityB Reliability = "B - Usually reliable"
	ReliabilityC Reliability = "C - Fairly reliable"
	ReliabilityD Reliability = "D - Not usually reliable"
	ReliabilityE Reliability = "E - Unreliable"
	ReliabilityF Reliability = "F - Reliability cannot be judged"
)

// IsValid returns true if the reliability is known.
func (r Reliability) IsValid() bool {
	switch r {
	case ReliabilityA, ReliabilityB, ReliabilityC, ReliabilityD, ReliabilityE, ReliabilityF:
		return true
	default:
		return false
	}
}

// ReportType classifies a report.
type ReportType string

const (
	ReportTypeThreatReport   ReportType = "threat-report"
	ReportTypeInternalReport ReportType = "internal-report"
	ReportTypeAttackPattern  ReportType = "attack-pattern"
	ReportTypeCampaign       ReportType = "campaign"
	ReportTypeIdentity       ReportType = "identity"
	ReportTypeIndicator      ReportType = "indicator"
	ReportTypeIntrusionSet   ReportType = "intrusion-set"
	ReportTypeMalware        ReportType = "malware"
	ReportTypeObservedData   ReportType = "observed-data"
	ReportTypeThreatActor    ReportType = "threat-actor"
	ReportTypeTool           ReportType = "tool"
	ReportTypeVulnerability  ReportType = "vulnerability"
)

var reportTypes = []ReportType{
	ReportTypeThreatReport, ReportTypeInternalReport, ReportTypeAttackPattern, ReportTypeCampaign,
	ReportTypeIdentity, ReportTypeIndicator, ReportTypeIntrusionSet, ReportTypeMalware,
	ReportTypeObservedData, ReportTypeThreatActor, ReportTypeTool, ReportTypeVulnerability,
}

// IsValid returns true if the report type is known.
func (t ReportType) IsValid() bool {
	return slices.Contains(reportTypes, t)
}

// IndicatorType classifies an indicator.
type IndicatorType string

const (
	IndicatorTypeAnomalousActivity IndicatorType = "anomalous-activity"
	IndicatorTypeAnonymization     IndicatorType = "anonymization"
	IndicatorTypeBenign            IndicatorType = "benign"
	IndicatorTypeCompromised       IndicatorType = "compromised"
	IndicatorTypeMaliciousActivity IndicatorType = "malicious-activity"
	IndicatorTypeAttribution       IndicatorType = "attribution"
	IndicatorTypeUnknown           IndicatorType = "unknown"
)

// IsValid returns true if the indicator type is known.
func (t IndicatorType) IsValid() bool {
	switch t {
	case IndicatorTypeAnomalousActivity, IndicatorTypeAnonymization, IndicatorTypeBenign,
		IndicatorTypeCompromised, IndicatorTypeMaliciousActivity, IndicatorTypeAttribution,
		IndicatorTypeUnknown:
		return true
	default:
		return false
	}
}

// PatternType is the language an indicator pattern is written in.
type PatternType string

const (
	PatternTypeSTIX         PatternType = "stix"
	PatternTypePCRE         PatternType = "pcre"
	PatternTypeSigma        PatternType = "sigma"
	PatternTypeSnort        PatternType = "snort"
	PatternTypeSuricata     PatternType = "suricata"
	PatternTypeYARA         PatternType = "yara"
	PatternTypeTaniumSignal PatternType = "tanium-signal"
	PatternTypeSPL          PatternType = "spl"
	PatternTypeEQL          PatternType = "eql"
	PatternTypeShodan       PatternType = "shodan"
)

var patternTypes = []PatternType{
	PatternTypeSTIX, PatternTypePCRE, PatternTypeSigma, PatternTypeSnort, PatternTypeSuricata,
	PatternTypeYARA, PatternTypeTaniumSignal, PatternTypeSPL, PatternTypeEQL, PatternTypeShodan,
}

// IsValid returns true if the pattern type is known.
func (t PatternType) IsValid() bool {
	return slices.Contains(patternTypes, t)
}

// ObservableType is the platform's name for the main observable an
// indicator detects.
type ObservableType string

const (
	ObservableTypeArtifact           ObservableType = "Artifact"
	ObservableTypeAutonomousSystem   ObservableType = "Autonomous-System"
	ObservableTypeDirectory          ObservableType = "Directory"
	ObservableTypeDomainName         ObservableType = "Domain-Name"
	ObservableTypeEmailAddress       ObservableType = "Email-Addr"
	ObservableTypeEmailMessage       ObservableType = "Email-Message"
	ObservableTypeFile               ObservableType = "StixFile"
	ObservableTypeHostname           ObservableType = "Hostname"
	ObservableTypeIPv4Address        ObservableType = "IPv4-Addr"
	ObservableTypeIPv6Address        ObservableType = "IPv6-Addr"
	ObservableTypeMACAddress         ObservableType = "Mac-Addr"
	ObservableTypeMutex              ObservableType = "Mutex"
	ObservableTypeNetworkTraffic     ObservableType = "Network-Traffic"
	ObservableTypeProcess            ObservableType = "Process"
	ObservableTypeSoftware           ObservableType = "Software"
	ObservableTypeURL                ObservableType = "Url"
	ObservableTypeUserAccount        ObservableType = "User-Account"
	ObservableTypeWindowsRegistryKey ObservableType = "Windows-Registry-Key"
)

var observableTypes = []ObservableType{
	ObservableTypeArtifact, ObservableTypeAutonomousSystem, ObservableTypeDirectory,
	ObservableTypeDomainName, ObservableTypeEmailAddress, ObservableTypeEmailMessage,
	ObservableTypeFile, ObservableTypeHostname, ObservableTypeIPv4Address, ObservableTypeIPv6Address,
	ObservableTypeMACAddress, ObservableTypeMutex, ObservableTypeNetworkTraffic, ObservableTypeProcess,
	ObservableTypeSoftware, ObservableTypeURL, ObservableTypeUserAccount, ObservableTypeWindowsRegistryKey,
}

// IsValid returns true if the observable type is known.
func (t ObservableType) IsValid() bool {
	return slices.Contains(observableTypes, t)
}

// Platform is an operating environment an indicator applies to.
type Platform string

const (
	PlatformWindows    Platform = "windows"
	PlatformMacOS      Platform = "macos"
	PlatformLinux      Platform = "linux"
	PlatformAndroid    Platform = "android"
	PlatformIOS        Platform = "ios"
	PlatformNetwork    Platform = "network"
	PlatformContainers Platform = "containers"
	PlatformIaaS       Platform = "iaas"
	PlatformSaaS       Platform = "saas"
)

var platforms = []Platform{
	PlatformWindows, PlatformMacOS, PlatformLinux, PlatformAndroid, PlatformIOS,
	PlatformNetwork, PlatformContainers, PlatformIaaS, PlatformSaaS,
}

// IsValid returns true if the platform is known.
func (p Platform) IsValid() bool {
	return slices.Contains(platforms, p)
}

// IndustrySector is a STIX industry sector.
type IndustrySector string

var industrySectors = []IndustrySector{
	"agriculture", "aerospace", "automotive", "chemical", "commercial", "communications",
	"construction", "defense", "education", "energy", "entertainment", "financial-services",
	"government", "government-emergency-services", "government-local", "government-national",
	"government-public-services", "government-regional", "healthcare", "hospitality-leisure",
	"infrastructure", "infrastructure-dams", "infrastructure-nuclear", "infrastructure-water",
	"insurance", "manufacturing", "mining", "non-profit", "pharmaceuticals", "retail",
	"technology", "telecommunications", "transportation", "utilities",
}

// IsValid returns true if the sector is known.
func (s IndustrySector) IsValid() bool {
	return slices.Contains(industrySectors, s)
}

// Region is a STIX geographic region.
type Region string

var regions = []Region{
	"africa", "eastern-africa", "middle-africa", "northern-africa", "southern-africa", "western-africa",
	"americas", "caribbean", "central-america", "latin-america-caribbean", "northern-america", "south-america",
	"asia", "central-asia", "eastern-asia", "southern-asia", "south-eastern-asia", "western-asia",
	"europe", "eastern-europe", "northern-europe", "southern-europe", "western-europe",
	"oceania", "antarctica", "australia-new-zealand", "melanesia", "micronesia", "polynesia",
}

// IsValid returns true if the region is known.
func (r Region) IsValid() bool {
	return slices.Contains(regions, r)
}

// LocationType is the platform's location subtype.
type LocationType string

const (
	LocationTypeAdministrativeArea LocationType = "Administrative-Area"
	LocationTypeCity               LocationType = "City"
	LocationTypeCountry            LocationType = "Country"
	LocationTypePosition           LocationType = "Position"
	LocationTypeRegion             LocationType = "Region"
)

// AccountType is a user account vocabulary value.
type AccountType string

const (
	AccountTypeFacebook      AccountType = "facebook"
	AccountTypeLDAP          AccountType = "ldap"
	AccountTypeNIS           AccountType = "nis"
	AccountTypeOpenID        AccountType = "openid"
	AccountTypeRadius        AccountType = "radius"
	AccountTypeSkype         AccountType = "skype"
	AccountTypeTACACS        AccountType = "tacacs"
	AccountTypeTwitter       AccountType = "twitter"
	AccountTypeUnix          AccountType = "unix"
	AccountTypeWindowsLocal  AccountType = "windows-local"
	AccountTypeWindowsDomain AccountType = "windows-domain"
)

var accountTypes = []AccountType{
	AccountTypeFacebook, AccountTypeLDAP, AccountTypeNIS, AccountTypeOpenID, AccountTypeRadius,
	AccountTypeSkype, AccountTypeTACACS, AccountTypeTwitter, AccountTypeUnix,
	AccountTypeWindowsLocal, AccountTypeWindowsDomain,
}

// IsValid returns true if the account type is known.
func (t AccountType) IsValid() bool {
	return slices.Contains(accountTypes, t)
}

// EncryptionAlgorithm names the cipher protecting an artifact payload.
type EncryptionAlgorithm string

const (
	EncryptionAES256GCM         EncryptionAlgorithm = "AES-256-GCM"
	EncryptionChaCha20Poly1305  EncryptionAlgorithm = "ChaCha20-Poly1305"
	EncryptionMimeTypeIndicated EncryptionAlgorithm = "mime-type-indicated"
)

// IsValid returns true if the algorithm is known.
func (a EncryptionAlgorithm) IsValid() bool {
	switch a {
	case EncryptionAES256GCM, EncryptionChaCha20Poly1305, EncryptionMimeTypeIndicated:
		return true
	default:
		return false
	}
}

// AttackMotivation explains why an adversary acts.
type AttackMotivation string

var attackMotivations = []AttackMotivation{
	"accidental", "coercion", "dominance", "ideology", "notoriety", "organizational-gain",
	"personal-gain", "personal-satisfaction", "revenge", "unpredictable",
}

// IsValid returns true if the motivation is known.
func (m AttackMotivation) IsValid() bool {
	return slices.Contains(attackMotivations, m)
}

// AttackResourceLevel is the organizational level an adversary operates at.
type AttackResourceLevel string

var attackResourceLevels = []AttackResourceLevel{
	"individual", "club", "contest", "team", "organization", "government",
}

// IsValid returns true if the resource level is known.
func (l AttackResourceLevel) IsValid() bool {
	return slices.Contains(attackResourceLevels, l)
}

// MalwareType classifies malware.
type MalwareType string

var malwareTypes = []MalwareType{
	"adware", "backdoor", "bot", "bootkit", "ddos", "downloader", "dropper", "exploit-kit",
	"keylogger", "ransomware", "remote-access-trojan", "resource-exploitation",
	"rogue-security-software", "rootkit", "screen-capture", "spyware", "trojan", "unknown",
	"virus", "webshell", "wiper", "worm",
}

// IsValid returns true if the malware type is known.
func (t MalwareType) IsValid() bool {
	return slices.Contains(malwareTypes, t)
}

// ImplementationLanguage is a programming language malware is written in.
type ImplementationLanguage string

var implementationLanguages = []ImplementationLanguage{
	"applescript", "bash", "c", "c++", "c#", "go", "java", "javascript", "lua", "objective-c",
	"perl", "php", "powershell", "python", "ruby", "scala", "swift", "typescript",
	"visual-basic", "x86-32", "x86-64",
}

// IsValid returns true if the language is known.
func (l ImplementationLanguage) IsValid() bool {
	return slices.Contains(implementationLanguages, l)
}

// CVSSSeverity is the qualitative rating of a CVSS base score.
type CVSSSeverity string

const (
	CVSSSeverityNone     CVSSSeverity = "NONE"
	CVSSSeverityLow      CVSSSeverity = "LOW"
	CVSSSeverityMedium   CVSSSeverity = "MEDIUM"
	CVSSSeverityHigh     CVSSSeverity = "HIGH"
	CVSSSeverityCritical CVSSSeverity = "CRITICAL"
)

// IsValid returns true if the severity is known.
func (s CVSSSeverity) IsValid() bool {
	switch s {
	case CVSSSeverityNone, CVSSSeverityLow, CVSSSeverityMedium, CVSSSeverityHigh, CVSSSeverityCritical:
		return true
	default:
		return false
	}
}

// WindowsIntegrityLevel is the Windows integrity level of a process.
type WindowsIntegrityLevel string

const (
	IntegrityLow    WindowsIntegrityLevel = "low"
	IntegrityMedium WindowsIntegrityLevel = "medium"
	IntegrityHigh   WindowsIntegrityLevel = "high"
	IntegritySystem WindowsIntegrityLevel = "system"
)

// IsValid returns true if the integrity level is known.
func (l WindowsIntegrityLevel) IsValid() bool {
	switch l {
	case IntegrityLow, IntegrityMedium, IntegrityHigh, IntegritySystem:
		return true
	default:
		return false
	}
}

// WindowsServiceStartType is how a Windows service starts.
type WindowsServiceStartType string

var serviceStartTypes = []WindowsServiceStartType{
	"SERVICE_AUTO_START", "SERVICE_BOOT_START", "SERVICE_DEMAND_START",
	"SERVICE_DISABLED", "SERVICE_SYSTEM_ALERT",
}

// IsValid returns true if the start type is known.
func (t WindowsServiceStartType) IsValid() bool {
	return slices.Contains(serviceStartTypes, t)
}

// WindowsServiceType is the kind of a Windows service.
type WindowsServiceType string

var serviceTypes = []WindowsServiceType{
	"SERVICE_KERNEL_DRIVER", "SERVICE_FILE_SYSTEM_DRIVER",
	"SERVICE_WIN32_OWN_PROCESS", "SERVICE_WIN32_SHARE_PROCESS",
}

// IsValid returns true if the service type is known.
func (t WindowsServiceType) IsValid() bool {
	return slices.Contains(serviceTypes, t)
}

// WindowsServiceStatus is the current state of a Windows service.
type WindowsServiceStatus string

var serviceStatuses = []WindowsServiceStatus{
	"SERVICE_CONTINUE_PENDING", "SERVICE_PAUSE_PENDING", "SERVICE_PAUSED", "SERVICE_RUNNING",
	"SERVICE_START_PENDING", "SERVICE_STOP_PENDING", "SERVICE_STOPPED",
}

// IsValid returns true if the status is known.
func (s WindowsServiceStatus) IsValid() bool {
	return slices.Contains(serviceStatuses, s)
}

// WindowsRegistryDatatype is the type of a registry value.
type WindowsRegistryDatatype string

var registryDatatypes = []WindowsRegistryDatatype{
	"REG_NONE", "REG_SZ", "REG_EXPAND_SZ", "REG_BINARY", "REG_DWORD", "REG_DWORD_BIG_ENDIAN",
	"REG_DWORD_LITTLE_ENDIAN", "REG_LINK", "REG_MULTI_SZ", "REG_RESOURCE_LIST",
	"REG_FULL_RESOURCE_DESCRIPTION", "REG_RESOURCE_REQUIREMENTS_LIST", "REG_QWORD", "REG_INVALID_TYPE",
}

// IsValid returns true if the datatype is known.
func (t WindowsRegistryDatatype) IsValid() bool {
	return slices.Contains(registryDatatypes, t)
}

// RelationshipType names the semantics of a relationship.
type RelationshipType string

const (
	RelationshipBasedOn          RelationshipType = "based-on"
	RelationshipRelatedTo        RelationshipType = "related-to"
	RelationshipIndicates        RelationshipType = "indicates"
	RelationshipUses             RelationshipType = "uses"
	RelationshipTargets          RelationshipType = "targets"
	RelationshipAttributedTo     RelationshipType = "attributed-to"
	RelationshipLocatedAt        RelationshipType = "located-at"
	RelationshipDerivedFrom      RelationshipType = "derived-from"
	RelationshipBelongsTo        RelationshipType = "belongs-to"
	RelationshipResolvesTo       RelationshipType = "resolves-to"
	RelationshipCommunicatesWith RelationshipType = "communicates-with"
	RelationshipVariantOf        RelationshipType = "variant-of"
	RelationshipExploits         RelationshipType = "exploits"
	RelationshipOriginatesFrom   RelationshipType = "originates-from"
)

var relationshipTypes = []RelationshipType{
	RelationshipBasedOn, RelationshipRelatedTo, RelationshipIndicates, RelationshipUses,
	RelationshipTargets, RelationshipAttributedTo, RelationshipLocatedAt, RelationshipDerivedFrom,
	RelationshipBelongsTo, RelationshipResolvesTo, RelationshipCommunicatesWith,
	RelationshipVariantOf, RelationshipExploits, RelationshipOriginatesFrom,
}

// IsValid returns true if the relationship type is known.
func (t RelationshipType) IsValid() bool {
	return slices.Contains(relationshipTypes, t)
}
