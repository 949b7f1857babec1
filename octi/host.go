package octi

import (
	"errors"
	"time"

	"github.com/zero-day-ai/cti-sdk/stix"
)

const (
	kindMutex              = "mutex"
	kindProcess            = "process"
	kindSoftware           = "software"
	kindUserAccount        = "user-account"
	kindWindowsRegistryKey = "windows-registry-key"
)

// Mutex is a named mutual exclusion object.
type Mutex struct {
	observable
	name string
}

// NewMutex builds a mutex observable.
func NewMutex(name string, opts ObservableOptions) (*Mutex, error) {
	opts = opts.clone()

	v := newValidator(kindMutex)
	v.field("name", notEmpty(name))
	opts.validate(v)

	b, err := build(kindMutex, v, func() (stix.Properties, error) {
		return opts.apply(stix.Properties{"name": name}).done()
	})
	if err != nil {
		return nil, err
	}
	return &Mutex{observable: observable{base: b, opts: opts}, name: name}, nil
}

// Name returns the mutex name.
func (m *Mutex) Name() string { return m.name }

// ToIndicator derives an indicator matching the mutex name.
func (m *Mutex) ToIndicator(opts DerivedIndicatorOptions) (*Indicator, error) {
	return m.deriveIndicator(m.name, observationPattern(comparison("mutex:name", m.name)), ObservableTypeMutex, opts)
}

// WindowsProcessExtension holds the Windows-specific fields of a process.
type WindowsProcessExtension struct {
	ASLREnabled    *bool
	DEPEnabled     *bool
	Priority       string
	OwnerSID       string
	WindowTitle    string
	StartupInfo    map[string]string
	IntegrityLevel WindowsIntegrityLevel
}

func (w WindowsProcessExtension) wire() stix.Properties {
	return stix.Properties{
		"aslr_enabled":    w.ASLREnabled,
		"dep_enabled":     w.DEPEnabled,
		"priority":        w.Priority,
		"owner_sid":       w.OwnerSID,
		"window_title":    w.WindowTitle,
		"startup_info":    w.StartupInfo,
		"integrity_level": w.IntegrityLevel,
	}
}

// WindowsServiceExtension holds the fields of a process running as a Windows service.
type WindowsServiceExtension struct {
	ServiceName   string
	Descriptions  []string
	DisplayName   string
	GroupName     string
	StartType     WindowsServiceStartType
	ServiceType   WindowsServiceType
	ServiceStatus WindowsServiceStatus
}

func (w WindowsServiceExtension) wire() stix.Properties {
	return stix.Properties{
		"service_name":   w.ServiceName,
		"descriptions":   w.Descriptions,
		"display_name":   w.DisplayName,
		"group_name":     w.GroupName,
		"start_type":     w.StartType,
		"service_type":   w.ServiceType,
		"service_status": w.ServiceStatus,
	}
}

// ProcessOptions are the optional fields of a Process.
type ProcessOptions struct {
	ObservableOptions
	PID                  *int64
	IsHidden             *bool
	CreatedTime          time.Time
	CWD                  string
	EnvironmentVariables map[string]string
	Windows              *WindowsProcessExtension
	Service              *WindowsServiceExtension
}

// Process is an instance of a running program.
type Process struct {
	observable
	commandLine string
	opts        ProcessOptions
}

// NewProcess builds a process observable identified by its full content.
func NewProcess(commandLine string, opts ProcessOptions) (*Process, error) {
	opts.ObservableOptions = opts.ObservableOptions.clone()
	opts.PID = ptr(opts.PID)
	opts.IsHidden = ptr(opts.IsHidden)
	opts.EnvironmentVariables = cloneStringMap(opts.EnvironmentVariables)
	if opts.Windows != nil {
		w := *opts.Windows
		w.StartupInfo = cloneStringMap(w.StartupInfo)
		opts.Windows = &w
	}
	if opts.Service != nil {
		s := *opts.Service
		s.Descriptions = cloneStrings(s.Descriptions)
		opts.Service = &s
	}

	v := newValidator(kindProcess)
	v.field("command_line", notEmpty(commandLine))
	v.field("pid", intRange(opts.PID, 0, 1<<62))
	if w := opts.Windows; w != nil {
		v.field("extensions.windows-process-ext.integrity_level", optionalOneOf(w.IntegrityLevel))
	}
	if s := opts.Service; s != nil {
		v.field("extensions.windows-service-ext.service_name", notEmpty(s.ServiceName))
		v.field("extensions.windows-service-ext.start_type", optionalOneOf(s.StartType))
		v.field("extensions.windows-service-ext.service_type", optionalOneOf(s.ServiceType))
		v.field("extensions.windows-service-ext.service_status", optionalOneOf(s.ServiceStatus))
	}
	opts.ObservableOptions.validate(v)

	b, err := build(kindProcess, v, func() (stix.Properties, error) {
		extensions := stix.Properties{}
		if opts.Windows != nil {
			extensions["windows-process-ext"] = opts.Windows.wire()
		}
		if opts.Service != nil {
			extensions["windows-service-ext"] = opts.Service.wire()
		}
		return opts.ObservableOptions.apply(stix.Properties{
			"command_line":          commandLine,
			"pid":                   opts.PID,
			"is_hidden":             opts.IsHidden,
			"created_time":          opts.CreatedTime,
			"cwd":                   opts.CWD,
			"environment_variables": opts.EnvironmentVariables,
			"extensions":            extensions,
		}).done()
	})
	if err != nil {
		return nil, err
	}
	return &Process{
		observable:  observable{base: b, opts: opts.ObservableOptions},
		commandLine: commandLine,
		opts:        opts,
	}, nil
}

// CommandLine returns the full command line.
func (p *Process) CommandLine() string { return p.commandLine }

// PID returns a copy of the process id, nil when unset.
func (p *Process) PID() *int64 { return ptr(p.opts.PID) }

func cloneStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// SoftwareOptions are the optional fields of a Software.
type SoftwareOptions struct {
	ObservableOptions
	CPE       string
	SWID      string
	Languages []string
	Vendor    string
	Version   string
}

// Software is a high-level description of a software product.
type Software struct {
	observable
	name string
	opts SoftwareOptions
}

// NewSoftware builds a software observable.
func NewSoftware(name string, opts SoftwareOptions) (*Software, error) {
	opts.ObservableOptions = opts.ObservableOptions.clone()
	opts.Languages = cloneStrings(opts.Languages)

	v := newValidator(kindSoftware)
	v.field("name", notEmpty(name))
	v.field("languages", nonEmptyItems(opts.Languages))
	opts.ObservableOptions.validate(v)

	b, err := build(kindSoftware, v, func() (stix.Properties, error) {
		return opts.ObservableOptions.apply(stix.Properties{
			"name":      name,
			"cpe":       opts.CPE,
			"swid":      opts.SWID,
			"languages": opts.Languages,
			"vendor":    opts.Vendor,
			"version":   opts.Version,
		}).done()
	})
	if err != nil {
		return nil, err
	}
	return &Software{observable: observable{base: b, opts: opts.ObservableOptions}, name: name, opts: opts}, nil
}

// Name returns the product name.
func (s *Software) Name() string { return s.name }

// Version returns the product version, "" when unset.
func (s *Software) Version() string { return s.opts.Version }

// UserAccountOptions are the fields of a UserAccount. Login or AccountType must be set.
type UserAccountOptions struct {
	ObservableOptions
	UserID                string
	Credential            string
	Login                 string
	AccountType           AccountType
	DisplayName           string
	IsServiceAccount      *bool
	IsPrivileged          *bool
	CanEscalatePrivileges *bool
	IsDisabled            *bool
	Created               time.Time
	Expires               time.Time
	CredentialLastChanged time.Time
	FirstLogin            time.Time
	LastLogin             time.Time
}

// UserAccount is an account on a system or service.
type UserAccount struct {
	observable
	opts UserAccountOptions
}

// NewUserAccount builds a user account observable.
func NewUserAccount(opts UserAccountOptions) (*UserAccount, error) {
	opts.ObservableOptions = opts.ObservableOptions.clone()
	opts.IsServiceAccount = ptr(opts.IsServiceAccount)
	opts.IsPrivileged = ptr(opts.IsPrivileged)
	opts.CanEscalatePrivileges = ptr(opts.CanEscalatePrivileges)
	opts.IsDisabled = ptr(opts.IsDisabled)

	v := newValidator(kindUserAccount)
	v.field("account_type", optionalOneOf(opts.AccountType))
	opts.ObservableOptions.validate(v)
	if opts.Login == "" && opts.AccountType == "" {
		v.cross(errors.New("one of account_login or account_type is required"), "account_login", "account_type")
	}

	b, err := build(kindUserAccount, v, func() (stix.Properties, error) {
		return opts.ObservableOptions.apply(stix.Properties{
			"user_id":                 opts.UserID,
			"credential":              opts.Credential,
			"account_login":           opts.Login,
			"account_type":            opts.AccountType,
			"display_name":            opts.DisplayName,
			"is_service_account":      opts.IsServiceAccount,
			"is_privileged":           opts.IsPrivileged,
			"can_escalate_privs":      opts.CanEscalatePrivileges,
			"is_disabled":             opts.IsDisabled,
			"account_created":         opts.Created,
			"account_expires":         opts.Expires,
			"credential_last_changed": opts.CredentialLastChanged,
			"account_first_login":     opts.FirstLogin,
			"account_last_login":      opts.LastLogin,
		}).done()
	})
	if err != nil {
		return nil, err
	}
	return &UserAccount{observable: observable{base: b, opts: opts.ObservableOptions}, opts: opts}, nil
}

// Login returns the account login, "" when unset.
func (u *UserAccount) Login() string { return u.opts.Login }

// AccountType returns the account type, "" when unset.
func (u *UserAccount) AccountType() AccountType { return u.opts.AccountType }

// IsPrivileged returns a copy of the privileged flag, nil when unset.
func (u *UserAccount) IsPrivileged() *bool { return ptr(u.opts.IsPrivileged) }

// IsDisabled returns a copy of the disabled flag, nil when unset.
func (u *UserAccount) IsDisabled() *bool { return ptr(u.opts.IsDisabled) }

// WindowsRegistryValue is one value stored under a registry key. It is a
// value object embedded into its key.
type WindowsRegistryValue struct {
	Name     string
	Data     string
	DataType WindowsRegistryDatatype
}

func (r WindowsRegistryValue) validate(v *validator, name string) {
	v.field(name+".data_type", optionalOneOf(r.DataType))
	if r.Name == "" && r.Data == "" && r.DataType == "" {
		v.cross(errors.New("one of name, data or data_type is required"),
			name+".name", name+".data", name+".data_type")
	}
}

// WindowsRegistryKeyOptions are the optional fields of a WindowsRegistryKey.
type WindowsRegistryKeyOptions struct {
	ObservableOptions
	Values          []WindowsRegistryValue
	ModifiedTime    time.Time
	CreatorUser     *UserAccount
	NumberOfSubkeys *int64
}

// WindowsRegistryKey is a key of the Windows registry.
type WindowsRegistryKey struct {
	observable
	key  string
	opts WindowsRegistryKeyOptions
}

// NewWindowsRegistryKey builds a registry key observable.
func NewWindowsRegistryKey(key string, opts WindowsRegistryKeyOptions) (*WindowsRegistryKey, error) {
	opts.ObservableOptions = opts.ObservableOptions.clone()
	opts.Values = append([]WindowsRegistryValue(nil), opts.Values...)
	opts.NumberOfSubkeys = ptr(opts.NumberOfSubkeys)

	v := newValidator(kindWindowsRegistryKey)
	v.field("key", notEmpty(key))
	v.field("number_of_subkeys", intRange(opts.NumberOfSubkeys, 0, 1<<62))
	if opts.CreatorUser != nil {
		v.ref("creator_user_ref", opts.CreatorUser)
	}
	opts.ObservableOptions.validate(v)
	for i, val := range opts.Values {
		val.validate(v, indexed("values", i))
	}

	b, err := build(kindWindowsRegistryKey, v, func() (stix.Properties, error) {
		values := make([]stix.Properties, 0, len(opts.Values))
		for _, val := range opts.Values {
			values = append(values, stix.Properties{
				"name":      val.Name,
				"data":      val.Data,
				"data_type": val.DataType,
			})
		}
		props := stix.Properties{
			"key":               key,
			"values":            values,
			"modified_time":     opts.ModifiedTime,
			"number_of_subkeys": opts.NumberOfSubkeys,
		}
		if opts.CreatorUser != nil {
			props["creator_user_ref"] = opts.CreatorUser.ID()
		}
		return opts.ObservableOptions.apply(props).done()
	})
	if err != nil {
		return nil, err
	}
	return &WindowsRegistryKey{observable: observable{base: b, opts: opts.ObservableOptions}, key: key, opts: opts}, nil
}

// Key returns the full registry key path.
func (k *WindowsRegistryKey) Key() string { return k.key }

// Values returns a copy of the registry values.
func (k *WindowsRegistryKey) Values() []WindowsRegistryValue {
	return append([]WindowsRegistryValue(nil), k.opts.Values...)
}

// ToIndicator derives an indicator matching the registry key.
func (k *WindowsRegistryKey) ToIndicator(opts DerivedIndicatorOptions) (*Indicator, error) {
	return k.deriveIndicator(k.key, observationPattern(comparison("windows-registry-key:key", k.key)), ObservableTypeWindowsRegistryKey, opts)
}
