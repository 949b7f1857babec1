package octi

import (
	"errors"
	"fmt"
	"time"

	"github.com/zero-day-ai/cti-sdk/stix"
)

const (
	kindDomainName       = "domain-name"
	kindIPv4Address      = "ipv4-addr"
	kindIPv6Address      = "ipv6-addr"
	kindMACAddress       = "mac-addr"
	kindURL              = "url"
	kindAutonomousSystem = "autonomous-system"
	kindNetworkTraffic   = "network-traffic"
)

// newValueObservable builds the observables identified by a single "value" property.
func newValueObservable(kind, value string, opts ObservableOptions, check func(string) error) (observable, error) {
	opts = opts.clone()

	v := newValidator(kind)
	v.field("value", notEmpty(value))
	if check != nil && value != "" {
		v.field("value", check(value))
	}
	opts.validate(v)

	b, err := build(kind, v, func() (stix.Properties, error) {
		return opts.apply(stix.Properties{"value": value}).done()
	})
	if err != nil {
		return observable{}, err
	}
	return observable{base: b, opts: opts}, nil
}

// DomainName is a network domain name.
type DomainName struct {
	observable
	value string
}

// NewDomainName builds a domain name observable.
func NewDomainName(value string, opts ObservableOptions) (*DomainName, error) {
	o, err := newValueObservable(kindDomainName, value, opts, nil)
	if err != nil {
		return nil, err
	}
	return &DomainName{observable: o, value: value}, nil
}

// Value returns the domain name.
func (d *DomainName) Value() string { return d.value }

// ToIndicator derives an indicator matching the domain name.
func (d *DomainName) ToIndicator(opts DerivedIndicatorOptions) (*Indicator, error) {
	return d.deriveIndicator(d.value, observationPattern(comparison("domain-name:value", d.value)), ObservableTypeDomainName, opts)
}

// IPv4Address is an IPv4 address or CIDR block.
type IPv4Address struct {
	observable
	value string
}

// NewIPv4Address builds an IPv4 address observable.
func NewIPv4Address(value string, opts ObservableOptions) (*IPv4Address, error) {
	o, err := newValueObservable(kindIPv4Address, value, opts, ipv4)
	if err != nil {
		return nil, err
	}
	return &IPv4Address{observable: o, value: value}, nil
}

// Value returns the address.
func (a *IPv4Address) Value() string { return a.value }

// ToIndicator derives an indicator matching the address.
func (a *IPv4Address) ToIndicator(opts DerivedIndicatorOptions) (*Indicator, error) {
	return a.deriveIndicator(a.value, observationPattern(comparison("ipv4-addr:value", a.value)), ObservableTypeIPv4Address, opts)
}

// IPv6Address is an IPv6 address or CIDR block.
type IPv6Address struct {
	observable
	value string
}

// NewIPv6Address builds an IPv6 address observable.
func NewIPv6Address(value string, opts ObservableOptions) (*IPv6Address, error) {
	o, err := newValueObservable(kindIPv6Address, value, opts, ipv6)
	if err != nil {
		return nil, err
	}
	return &IPv6Address{observable: o, value: value}, nil
}

// Value returns the address.
func (a *IPv6Address) Value() string { return a.value }

// ToIndicator derives an indicator matching the address.
func (a *IPv6Address) ToIndicator(opts DerivedIndicatorOptions) (*Indicator, error) {
	return a.deriveIndicator(a.value, observationPattern(comparison("ipv6-addr:value", a.value)), ObservableTypeIPv6Address, opts)
}

// MACAddress is a lowercase, colon-delimited MAC-48 address.
type MACAddress struct {
	observable
	value string
}

// NewMACAddress builds a MAC address observable.
func NewMACAddress(value string, opts ObservableOptions) (*MACAddress, error) {
	o, err := newValueObservable(kindMACAddress, value, opts, mac)
	if err != nil {
		return nil, err
	}
	return &MACAddress{observable: o, value: value}, nil
}

// Value returns the address.
func (a *MACAddress) Value() string { return a.value }

// ToIndicator derives an indicator matching the address.
func (a *MACAddress) ToIndicator(opts DerivedIndicatorOptions) (*Indicator, error) {
	return a.deriveIndicator(a.value, observationPattern(comparison("mac-addr:value", a.value)), ObservableTypeMACAddress, opts)
}

// URL is a uniform resource locator. Values are kept verbatim, defanged
// or malformed URLs included.
type URL struct {
	observable
	value string
}

// NewURL builds a URL observable.
func NewURL(value string, opts ObservableOptions) (*URL, error) {
	o, err := newValueObservable(kindURL, value, opts, nil)
	if err != nil {
		return nil, err
	}
	return &URL{observable: o, value: value}, nil
}

// Value returns the URL.
func (u *URL) Value() string { return u.value }

// ToIndicator derives an indicator matching the URL.
func (u *URL) ToIndicator(opts DerivedIndicatorOptions) (*Indicator, error) {
	return u.deriveIndicator(u.value, observationPattern(comparison("url:value", u.value)), ObservableTypeURL, opts)
}

// AutonomousSystemOptions are the optional fields of an AutonomousSystem.
type AutonomousSystemOptions struct {
	ObservableOptions
	Name string
	// RIR is the regional internet registry that assigned the number.
	RIR string
}

// AutonomousSystem is a network under a single routing policy.
type AutonomousSystem struct {
	observable
	number int64
	name   string
	rir    string
}

// NewAutonomousSystem builds an autonomous system identified by its number.
func NewAutonomousSystem(number int64, opts AutonomousSystemOptions) (*AutonomousSystem, error) {
	opts.ObservableOptions = opts.ObservableOptions.clone()

	v := newValidator(kindAutonomousSystem)
	v.field("number", intRange(&number, 0, 4294967295))
	opts.ObservableOptions.validate(v)

	b, err := build(kindAutonomousSystem, v, func() (stix.Properties, error) {
		return opts.ObservableOptions.apply(stix.Properties{
			"number": number,
			"name":   opts.Name,
			"rir":    opts.RIR,
		}).done()
	})
	if err != nil {
		return nil, err
	}
	return &AutonomousSystem{
		observable: observable{base: b, opts: opts.ObservableOptions},
		number:     number,
		name:       opts.Name,
		rir:        opts.RIR,
	}, nil
}

// Number returns the AS number.
func (a *AutonomousSystem) Number() int64 { return a.number }

// ToIndicator derives an indicator matching the AS number.
func (a *AutonomousSystem) ToIndicator(opts DerivedIndicatorOptions) (*Indicator, error) {
	name := fmt.Sprintf("AS%d", a.number)
	pattern := observationPattern(fmt.Sprintf("autonomous-system:number=%d", a.number))
	return a.deriveIndicator(name, pattern, ObservableTypeAutonomousSystem, opts)
}

// NetworkTrafficOptions are the optional fields of a NetworkTraffic.
type NetworkTrafficOptions struct {
	ObservableOptions
	Start    time.Time
	End      time.Time
	IsActive *bool
	// Source and Destination must be an IPv4Address, IPv6Address,
	// MACAddress or DomainName.
	Source               Observable
	Destination          Observable
	SourcePort           *int
	DestinationPort      *int
	SourceByteCount      *int64
	DestinationByteCount *int64
	SourcePackets        *int64
	DestinationPackets   *int64
	// IPFIX values must be integers or strings.
	IPFIX              map[string]any
	SourcePayload      *Artifact
	DestinationPayload *Artifact
}

// NetworkTraffic is a flow between two endpoints.
type NetworkTraffic struct {
	observable
	protocols []string
	opts      NetworkTrafficOptions
}

var trafficEndpointKinds = map[string]bool{
	kindIPv4Address: true,
	kindIPv6Address: true,
	kindMACAddress:  true,
	kindDomainName:  true,
}

func trafficEndpoint(v *validator, name string, endpoint Observable) {
	if isNil(endpoint) {
		return
	}
	v.ref(name, endpoint)
	if endpoint.ID() != "" && !trafficEndpointKinds[endpoint.Kind()] {
		v.field(name, fmt.Errorf("%s cannot be a traffic endpoint", endpoint.Kind()))
	}
}

// NewNetworkTraffic builds a flow over protocols, listed from the outermost
// to the innermost layer. At least one endpoint is required.
func NewNetworkTraffic(protocols []string, opts NetworkTrafficOptions) (*NetworkTraffic, error) {
	protocols = cloneStrings(protocols)
	opts.ObservableOptions = opts.ObservableOptions.clone()
	opts.IsActive = ptr(opts.IsActive)
	opts.SourcePort = ptr(opts.SourcePort)
	opts.DestinationPort = ptr(opts.DestinationPort)
	opts.SourceByteCount = ptr(opts.SourceByteCount)
	opts.DestinationByteCount = ptr(opts.DestinationByteCount)
	opts.SourcePackets = ptr(opts.SourcePackets)
	opts.DestinationPackets = ptr(opts.DestinationPackets)
	ipfix := make(map[string]any, len(opts.IPFIX))
	for k, val := range opts.IPFIX {
		ipfix[k] = val
	}
	opts.IPFIX = ipfix

	v := newValidator(kindNetworkTraffic)
	if len(protocols) == 0 {
		v.field("protocols", errors.New("must contain at least one protocol"))
	}
	v.field("protocols", nonEmptyItems(protocols))
	v.field("src_port", intRange(opts.SourcePort, 0, 65535))
	v.field("dst_port", intRange(opts.DestinationPort, 0, 65535))
	v.field("src_byte_count", intRange(opts.SourceByteCount, 0, 1<<62))
	v.field("dst_byte_count", intRange(opts.DestinationByteCount, 0, 1<<62))
	v.field("src_packets", intRange(opts.SourcePackets, 0, 1<<62))
	v.field("dst_packets", intRange(opts.DestinationPackets, 0, 1<<62))
	for _, k := range sortedKeys(opts.IPFIX) {
		switch opts.IPFIX[k].(type) {
		case int, int64, string:
		default:
			v.field("ipfix."+k, fmt.Errorf("%T is neither an integer nor a string", opts.IPFIX[k]))
		}
	}
	trafficEndpoint(v, "src_ref", opts.Source)
	trafficEndpoint(v, "dst_ref", opts.Destination)
	if opts.SourcePayload != nil {
		v.ref("src_payload_ref", opts.SourcePayload)
	}
	if opts.DestinationPayload != nil {
		v.ref("dst_payload_ref", opts.DestinationPayload)
	}
	opts.ObservableOptions.validate(v)
	if isNil(opts.Source) && isNil(opts.Destination) {
		v.cross(errors.New("one of source or destination is required"), "src_ref", "dst_ref")
	}

	b, err := build(kindNetworkTraffic, v, func() (stix.Properties, error) {
		props := stix.Properties{
			"protocols":      protocols,
			"start":          opts.Start,
			"end":            opts.End,
			"is_active":      opts.IsActive,
			"src_ref":        refID(opts.Source),
			"dst_ref":        refID(opts.Destination),
			"src_port":       opts.SourcePort,
			"dst_port":       opts.DestinationPort,
			"src_byte_count": opts.SourceByteCount,
			"dst_byte_count": opts.DestinationByteCount,
			"src_packets":    opts.SourcePackets,
			"dst_packets":    opts.DestinationPackets,
			"ipfix":          opts.IPFIX,
		}
		if opts.SourcePayload != nil {
			props["src_payload_ref"] = opts.SourcePayload.ID()
		}
		if opts.DestinationPayload != nil {
			props["dst_payload_ref"] = opts.DestinationPayload.ID()
		}
		return opts.ObservableOptions.apply(props).done()
	})
	if err != nil {
		return nil, err
	}
	return &NetworkTraffic{
		observable: observable{base: b, opts: opts.ObservableOptions},
		protocols:  protocols,
		opts:       opts,
	}, nil
}

// Protocols returns a copy of the protocol stack.
func (n *NetworkTraffic) Protocols() []string { return cloneStrings(n.protocols) }

// Source returns the source endpoint, nil when unset.
func (n *NetworkTraffic) Source() Observable { return n.opts.Source }

// Destination returns the destination endpoint, nil when unset.
func (n *NetworkTraffic) Destination() Observable { return n.opts.Destination }

// ByteCounts returns copies of the source and destination byte counts, nil
// when unset.
func (n *NetworkTraffic) ByteCounts() (src, dst *int64) {
	return ptr(n.opts.SourceByteCount), ptr(n.opts.DestinationByteCount)
}

// Packets returns copies of the source and destination packet counts, nil
// when unset.
func (n *NetworkTraffic) Packets() (src, dst *int64) {
	return ptr(n.opts.SourcePackets), ptr(n.opts.DestinationPackets)
}
