package octi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueObservableValidation(t *testing.T) {
	tests := []struct {
		name    string
		build   func(string) error
		value   string
		wantErr bool
	}{
		{name: "ipv4", build: ipv4Builder, value: "198.51.100.7"},
		{name: "ipv4 cidr", build: ipv4Builder, value: "198.51.100.0/24"},
		{name: "ipv4 rejects ipv6", build: ipv4Builder, value: "2001:db8::1", wantErr: true},
		{name: "ipv4 rejects garbage", build: ipv4Builder, value: "999.1.1.1", wantErr: true},
		{name: "ipv4 rejects empty", build: ipv4Builder, value: "", wantErr: true},
		{name: "ipv6", build: ipv6Builder, value: "2001:db8::1"},
		{name: "ipv6 cidr", build: ipv6Builder, value: "2001:db8::/32"},
		{name: "ipv6 rejects ipv4", build: ipv6Builder, value: "198.51.100.7", wantErr: true},
		{name: "mac", build: macBuilder, value: "00:1a:2b:3c:4d:5e"},
		{name: "mac rejects uppercase", build: macBuilder, value: "00:1A:2B:3C:4D:5E", wantErr: true},
		{name: "mac rejects dashes", build: macBuilder, value: "00-1a-2b-3c-4d-5e", wantErr: true},
		{name: "email", build: emailBuilder, value: "ops@evil.example"},
		{name: "email rejects display form", build: emailBuilder, value: "Ops <ops@evil.example>", wantErr: true},
		{name: "url keeps defanged values", build: urlBuilder, value: "hxxp://evil[.]example/a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.build(tt.value)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, CodeFieldValidation, ErrorCode(err))
				return
			}
			require.NoError(t, err)
		})
	}
}

func ipv4Builder(v string) error {
	_, err := NewIPv4Address(v, ObservableOptions{})
	return err
}

func ipv6Builder(v string) error {
	_, err := NewIPv6Address(v, ObservableOptions{})
	return err
}

func macBuilder(v string) error {
	_, err := NewMACAddress(v, ObservableOptions{})
	return err
}

func emailBuilder(v string) error {
	_, err := NewEmailAddress(v, EmailAddressOptions{})
	return err
}

func urlBuilder(v string) error {
	_, err := NewURL(v, ObservableOptions{})
	return err
}

func TestObservableScore(t *testing.T) {
	tests := []struct {
		name    string
		score   *int
		wantErr bool
	}{
		{name: "unset"},
		{name: "zero", score: Ptr(0)},
		{name: "hundred", score: Ptr(100)},
		{name: "negative", score: Ptr(-1), wantErr: true},
		{name: "above hundred", score: Ptr(101), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewDomainName("evil.example", ObservableOptions{Score: tt.score})
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, CodeFieldValidation, ErrorCode(err))
				return
			}
			require.NoError(t, err)
			if tt.score == nil {
				assert.NotContains(t, d.WireObject(), "x_opencti_score")
				assert.Nil(t, d.Score())
				return
			}
			assert.Equal(t, int64(*tt.score), d.WireObject()["x_opencti_score"])
			assert.Equal(t, *tt.score, *d.Score())
		})
	}
}

func TestObservableProjectionOmitsAbsentFields(t *testing.T) {
	d, err := NewDomainName("evil.example", ObservableOptions{})
	require.NoError(t, err)

	wire := d.WireObject()
	assert.Equal(t, []string{"id", "spec_version", "type", "value"}, sortedKeys(wire))
}

func TestObservableProjection(t *testing.T) {
	acme := mustOrganization(t, "Acme")
	d, err := NewDomainName("evil.example", ObservableOptions{
		Score:       Ptr(75),
		Description: "phishing landing page",
		Labels:      []string{"phishing"},
		Author:      acme,
		ExternalReferences: []ExternalReference{
			{SourceName: "feed", URL: "https://feed.example/1"},
		},
	})
	require.NoError(t, err)

	wire := d.WireObject()
	assert.Equal(t, int64(75), wire["x_opencti_score"])
	assert.Equal(t, "phishing landing page", wire["x_opencti_description"])
	assert.Equal(t, []string{"phishing"}, wire.Strings("x_opencti_labels"))
	assert.Equal(t, acmeID, wire["x_opencti_created_by_ref"])
	assert.Equal(t, []any{map[string]any{"source_name": "feed", "url": "https://feed.example/1"}}, wire["x_opencti_external_references"])
	assert.NotContains(t, wire, "created_by_ref")
	assert.Equal(t, evilDomainID, d.ID())
}

func TestExternalReferenceValidation(t *testing.T) {
	tests := []struct {
		name     string
		ref      ExternalReference
		wantCode string
	}{
		{name: "url", ref: ExternalReference{SourceName: "feed", URL: "https://feed.example"}},
		{name: "external id", ref: ExternalReference{SourceName: "cve", ExternalID: "CVE-2024-0001"}},
		{name: "missing source", ref: ExternalReference{URL: "https://feed.example"}, wantCode: CodeFieldValidation},
		{name: "relative url", ref: ExternalReference{SourceName: "feed", URL: "/a"}, wantCode: CodeFieldValidation},
		{name: "nothing to point at", ref: ExternalReference{SourceName: "feed"}, wantCode: CodeCrossFieldValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDomainName("evil.example", ObservableOptions{ExternalReferences: []ExternalReference{tt.ref}})
			if tt.wantCode == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, ErrorCode(err))
		})
	}
}

func TestToIndicatorPatterns(t *testing.T) {
	md5 := "d41d8cd98f00b204e9800998ecf8427e"
	sha256 := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

	tests := []struct {
		name     string
		build    func() (Indicatable, error)
		wantName string
		want     string
		wantType ObservableType
	}{
		{
			name:     "quotes are escaped",
			build:    func() (Indicatable, error) { return NewURL(`http://evil.example/it's\x`, ObservableOptions{}) },
			wantName: `http://evil.example/it's\x`,
			want:     `[url:value='http://evil.example/it\'s\\x']`,
			wantType: ObservableTypeURL,
		},
		{
			name:     "ipv6",
			build:    func() (Indicatable, error) { return NewIPv6Address("2001:db8::1", ObservableOptions{}) },
			wantName: "2001:db8::1",
			want:     "[ipv6-addr:value='2001:db8::1']",
			wantType: ObservableTypeIPv6Address,
		},
		{
			name: "file with name and hashes",
			build: func() (Indicatable, error) {
				return NewFile(FileOptions{Name: "a.exe", Hashes: map[HashAlgorithm]string{HashSHA256: sha256, HashMD5: md5}})
			},
			wantName: "a.exe",
			want:     "[file:name='a.exe' AND file:hashes.'MD5'='" + md5 + "' AND file:hashes.'SHA-256'='" + sha256 + "']",
			wantType: ObservableTypeFile,
		},
		{
			name: "file named after its first hash",
			build: func() (Indicatable, error) {
				return NewFile(FileOptions{Hashes: map[HashAlgorithm]string{HashSHA256: sha256}})
			},
			wantName: sha256,
			want:     "[file:hashes.'SHA-256'='" + sha256 + "']",
			wantType: ObservableTypeFile,
		},
		{
			name: "artifact url and hash",
			build: func() (Indicatable, error) {
				return NewArtifact(ArtifactOptions{URL: "https://evil.example/p.bin", Hashes: map[HashAlgorithm]string{HashMD5: md5}})
			},
			wantName: "https://evil.example/p.bin",
			want:     "[artifact:url='https://evil.example/p.bin' AND artifact:hashes.'MD5'='" + md5 + "']",
			wantType: ObservableTypeArtifact,
		},
		{
			name:     "autonomous system",
			build:    func() (Indicatable, error) { return NewAutonomousSystem(64496, AutonomousSystemOptions{}) },
			wantName: "AS64496",
			want:     "[autonomous-system:number=64496]",
			wantType: ObservableTypeAutonomousSystem,
		},
		{
			name:     "mutex",
			build:    func() (Indicatable, error) { return NewMutex("Global\\evil", ObservableOptions{}) },
			wantName: "Global\\evil",
			want:     "[mutex:name='Global\\\\evil']",
			wantType: ObservableTypeMutex,
		},
		{
			name: "registry key",
			build: func() (Indicatable, error) {
				return NewWindowsRegistryKey(`HKEY_LOCAL_MACHINE\Software\Run`, WindowsRegistryKeyOptions{})
			},
			wantName: `HKEY_LOCAL_MACHINE\Software\Run`,
			want:     `[windows-registry-key:key='HKEY_LOCAL_MACHINE\\Software\\Run']`,
			wantType: ObservableTypeWindowsRegistryKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs, err := tt.build()
			require.NoError(t, err)

			ind, err := obs.ToIndicator(DerivedIndicatorOptions{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ind.Pattern())
			assert.Equal(t, tt.wantName, ind.Name())
			assert.Equal(t, PatternTypeSTIX, ind.PatternType())
			assert.Equal(t, tt.wantType, ind.ObservableType())
		})
	}
}

func TestToIndicatorInheritsProvenance(t *testing.T) {
	acme := mustOrganization(t, "Acme")
	red := mustMarking(t, TLPRed)

	ip, err := NewIPv4Address("198.51.100.7", ObservableOptions{
		Score:       Ptr(90),
		Description: "scanner",
		Author:      acme,
		Markings:    []*TLPMarking{red},
	})
	require.NoError(t, err)

	ind, err := ip.ToIndicator(DerivedIndicatorOptions{
		IndicatorTypes: []IndicatorType{IndicatorTypeMaliciousActivity},
		Platforms:      []Platform{PlatformLinux},
	})
	require.NoError(t, err)

	wire := ind.WireObject()
	assert.Equal(t, 90, *ind.Score())
	assert.Equal(t, int64(90), wire["x_opencti_score"])
	assert.Equal(t, "scanner", wire["description"])
	assert.Equal(t, acmeID, wire["created_by_ref"])
	assert.Equal(t, []string{TLPRedID}, wire.Strings("object_marking_refs"))
	assert.Equal(t, []string{"malicious-activity"}, wire.Strings("indicator_types"))
	assert.Equal(t, []string{"linux"}, wire.Strings("x_mitre_platforms"))
	assert.Equal(t, "IPv4-Addr", wire["x_opencti_main_observable_type"])
}

func TestNetworkTraffic(t *testing.T) {
	src, err := NewIPv4Address("198.51.100.7", ObservableOptions{})
	require.NoError(t, err)
	mutex, err := NewMutex("m", ObservableOptions{})
	require.NoError(t, err)

	tests := []struct {
		name     string
		protos   []string
		opts     NetworkTrafficOptions
		wantCode string
	}{
		{
			name:   "source only",
			protos: []string{"ipv4", "tcp"},
			opts:   NetworkTrafficOptions{Source: src, SourcePort: Ptr(443)},
		},
		{
			name:     "no endpoint",
			protos:   []string{"tcp"},
			wantCode: CodeCrossFieldValidation,
		},
		{
			name:     "no protocol",
			opts:     NetworkTrafficOptions{Source: src},
			wantCode: CodeFieldValidation,
		},
		{
			name:     "port out of range",
			protos:   []string{"tcp"},
			opts:     NetworkTrafficOptions{Destination: src, DestinationPort: Ptr(70000)},
			wantCode: CodeFieldValidation,
		},
		{
			name:     "mutex cannot be an endpoint",
			protos:   []string{"tcp"},
			opts:     NetworkTrafficOptions{Source: mutex},
			wantCode: CodeFieldValidation,
		},
		{
			name:     "unbuilt endpoint",
			protos:   []string{"tcp"},
			opts:     NetworkTrafficOptions{Source: &IPv4Address{}},
			wantCode: CodeUnbuiltReference,
		},
		{
			name:     "ipfix values must be integers or strings",
			protos:   []string{"tcp"},
			opts:     NetworkTrafficOptions{Source: src, IPFIX: map[string]any{"minimumIpTotalLength": 3.5}},
			wantCode: CodeFieldValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nt, err := NewNetworkTraffic(tt.protos, tt.opts)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, ErrorCode(err))
				return
			}
			require.NoError(t, err)
			wire := nt.WireObject()
			assert.Equal(t, src.ID(), wire["src_ref"])
			assert.Equal(t, int64(443), wire["src_port"])
			assert.Equal(t, []string{"ipv4", "tcp"}, nt.Protocols())
		})
	}
}

func TestEmailMessage(t *testing.T) {
	from, err := NewEmailAddress("ceo@evil.example", EmailAddressOptions{DisplayName: "CEO"})
	require.NoError(t, err)

	msg, err := NewEmailMessage("Invoice", false, EmailMessageOptions{Body: "pay now", From: from})
	require.NoError(t, err)
	wire := msg.WireObject()
	assert.Equal(t, from.ID(), wire["from_ref"])
	assert.Equal(t, from.ID(), wire["sender_ref"])
	assert.Equal(t, false, wire["is_multipart"])

	_, err = NewEmailMessage("Invoice", true, EmailMessageOptions{Body: "pay now"})
	require.Error(t, err)
	assert.Equal(t, CodeCrossFieldValidation, ErrorCode(err))

	_, err = NewEmailMessage("", false, EmailMessageOptions{})
	require.Error(t, err)
	assert.Equal(t, CodeFieldValidation, ErrorCode(err))
}

func TestUserAccountRequiresLoginOrType(t *testing.T) {
	_, err := NewUserAccount(UserAccountOptions{DisplayName: "Bob"})
	require.Error(t, err)
	assert.Equal(t, CodeCrossFieldValidation, ErrorCode(err))

	byLogin, err := NewUserAccount(UserAccountOptions{Login: "bob"})
	require.NoError(t, err)
	assert.Equal(t, "bob", byLogin.Login())

	byType, err := NewUserAccount(UserAccountOptions{AccountType: AccountTypeUnix})
	require.NoError(t, err)
	assert.Equal(t, AccountTypeUnix, byType.AccountType())

	_, err = NewUserAccount(UserAccountOptions{AccountType: "mainframe"})
	require.Error(t, err)
	assert.Equal(t, CodeFieldValidation, ErrorCode(err))
}

func TestConstructorsCopyPointerOptions(t *testing.T) {
	src, err := NewIPv4Address("198.51.100.7", ObservableOptions{})
	require.NoError(t, err)

	srcBytes, dstBytes, srcPackets, dstPackets := Ptr(int64(100)), Ptr(int64(200)), Ptr(int64(3)), Ptr(int64(4))
	nt, err := NewNetworkTraffic([]string{"tcp"}, NetworkTrafficOptions{
		Source:               src,
		SourceByteCount:      srcBytes,
		DestinationByteCount: dstBytes,
		SourcePackets:        srcPackets,
		DestinationPackets:   dstPackets,
	})
	require.NoError(t, err)
	*srcBytes, *dstBytes, *srcPackets, *dstPackets = 0, 0, 0, 0

	gotSrc, gotDst := nt.ByteCounts()
	assert.Equal(t, Ptr(int64(100)), gotSrc)
	assert.Equal(t, Ptr(int64(200)), gotDst)
	gotSrc, gotDst = nt.Packets()
	assert.Equal(t, Ptr(int64(3)), gotSrc)
	assert.Equal(t, Ptr(int64(4)), gotDst)
	*gotSrc = 99
	again, _ := nt.Packets()
	assert.Equal(t, Ptr(int64(3)), again)
	assert.Equal(t, int64(100), nt.WireObject()["src_byte_count"])

	privileged, disabled := Ptr(true), Ptr(false)
	account, err := NewUserAccount(UserAccountOptions{Login: "bob", IsPrivileged: privileged, IsDisabled: disabled})
	require.NoError(t, err)
	*privileged, *disabled = false, true

	assert.Equal(t, Ptr(true), account.IsPrivileged())
	assert.Equal(t, Ptr(false), account.IsDisabled())
	assert.Equal(t, true, account.WireObject()["is_privileged"])
}

func TestProcessExtensions(t *testing.T) {
	p, err := NewProcess("svchost.exe -k netsvcs", ProcessOptions{
		PID:     Ptr(int64(4242)),
		Windows: &WindowsProcessExtension{IntegrityLevel: IntegritySystem, ASLREnabled: Ptr(true)},
		Service: &WindowsServiceExtension{ServiceName: "evilsvc", StartType: "SERVICE_AUTO_START"},
	})
	require.NoError(t, err)

	ext, ok := p.WireObject()["extensions"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"integrity_level": "system", "aslr_enabled": true}, ext["windows-process-ext"])
	assert.Equal(t, map[string]any{"service_name": "evilsvc", "start_type": "SERVICE_AUTO_START"}, ext["windows-service-ext"])
	assert.Equal(t, int64(4242), *p.PID())

	again, err := NewProcess("svchost.exe -k netsvcs", ProcessOptions{PID: Ptr(int64(4242))})
	require.NoError(t, err)
	assert.NotEqual(t, p.ID(), again.ID())

	_, err = NewProcess("", ProcessOptions{})
	require.Error(t, err)
	assert.Equal(t, CodeFieldValidation, ErrorCode(err))
}

func TestWindowsRegistryKey(t *testing.T) {
	creator, err := NewUserAccount(UserAccountOptions{Login: "admin"})
	require.NoError(t, err)

	key, err := NewWindowsRegistryKey(`HKEY_LOCAL_MACHINE\Software\Run`, WindowsRegistryKeyOptions{
		Values:      []WindowsRegistryValue{{Name: "updater", Data: "c:\\evil.exe", DataType: "REG_SZ"}},
		CreatorUser: creator,
	})
	require.NoError(t, err)
	wire := key.WireObject()
	assert.Equal(t, creator.ID(), wire["creator_user_ref"])
	assert.Len(t, key.Values(), 1)

	_, err = NewWindowsRegistryKey(`HKLM\x`, WindowsRegistryKeyOptions{Values: []WindowsRegistryValue{{}}})
	require.Error(t, err)
	assert.Equal(t, CodeCrossFieldValidation, ErrorCode(err))

	_, err = NewWindowsRegistryKey(`HKLM\x`, WindowsRegistryKeyOptions{Values: []WindowsRegistryValue{{Name: "a", DataType: "REG_TEXT"}}})
	require.Error(t, err)
	assert.Equal(t, CodeFieldValidation, ErrorCode(err))
}

func TestArtifactRequiresContent(t *testing.T) {
	_, err := NewArtifact(ArtifactOptions{MimeType: "application/octet-stream"})
	require.Error(t, err)
	assert.Equal(t, CodeCrossFieldValidation, ErrorCode(err))

	a, err := NewArtifact(ArtifactOptions{PayloadBin: []byte("MZ")})
	require.NoError(t, err)
	assert.Equal(t, "TVo=", a.WireObject()["payload_bin"])

	_, err = NewArtifact(ArtifactOptions{PayloadBin: []byte("MZ"), DecryptionKey: "infected"})
	require.Error(t, err)
	assert.Equal(t, CodeCrossFieldValidation, ErrorCode(err))
}

func TestAutonomousSystemRange(t *testing.T) {
	as, err := NewAutonomousSystem(64496, AutonomousSystemOptions{Name: "EXAMPLE-AS"})
	require.NoError(t, err)
	assert.Equal(t, "autonomous-system--9ad79ee3-2fde-5015-b0cc-7a96404effca", as.ID())

	_, err = NewAutonomousSystem(-1, AutonomousSystemOptions{})
	require.Error(t, err)
	assert.Equal(t, CodeFieldValidation, ErrorCode(err))
}

func TestIdenticalObservablesShareIdentifier(t *testing.T) {
	a, err := NewFile(FileOptions{Name: "a.exe", Hashes: map[HashAlgorithm]string{HashMD5: "d41d8cd98f00b204e9800998ecf8427e"}})
	require.NoError(t, err)
	b, err := NewFile(FileOptions{Name: "a.exe", Hashes: map[HashAlgorithm]string{HashMD5: "d41d8cd98f00b204e9800998ecf8427e"}})
	require.NoError(t, err)

	assert.Equal(t, "file--7e567502-8994-53ff-9c69-79240cae362d", a.ID())
	assert.Equal(t, a.ID(), b.ID())
	assert.True(t, Equal(a, b))
}
