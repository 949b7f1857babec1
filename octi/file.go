package octi

import (
	"encoding/base64"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/zero-day-ai/cti-sdk/stix"
)

const (
	kindFile      = "file"
	kindArtifact  = "artifact"
	kindDirectory = "directory"
)

var hexString = regexp.MustCompile(`^([0-9a-fA-F]{2})+$`)

// FileOptions are the fields of a File. Name or Hashes must be set.
type FileOptions struct {
	ObservableOptions
	Name            string
	Hashes          map[HashAlgorithm]string
	Size            *int64
	MimeType        string
	MagicNumberHex  string
	Created         time.Time
	Modified        time.Time
	Accessed        time.Time
	AdditionalNames []string
}

// File is a file on a file system.
type File struct {
	observable
	opts FileOptions
}

// cloneHashes copies h. An empty map is returned as nil, meaning unset.
func cloneHashes(h map[HashAlgorithm]string) map[HashAlgorithm]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[HashAlgorithm]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

// NewFile builds a file observable.
func NewFile(opts FileOptions) (*File, error) {
	opts.ObservableOptions = opts.ObservableOptions.clone()
	opts.Hashes = cloneHashes(opts.Hashes)
	opts.Size = ptr(opts.Size)
	opts.AdditionalNames = cloneStrings(opts.AdditionalNames)

	v := newValidator(kindFile)
	v.field("hashes", hashes(opts.Hashes))
	v.field("size", intRange(opts.Size, 1, 1<<62))
	if opts.MagicNumberHex != "" && !hexString.MatchString(opts.MagicNumberHex) {
		v.field("magic_number_hex", errors.New("must be a hexadecimal string"))
	}
	v.field("additional_names", nonEmptyItems(opts.AdditionalNames))
	opts.ObservableOptions.validate(v)
	if strings.TrimSpace(opts.Name) == "" && len(opts.Hashes) == 0 {
		v.cross(errors.New("one of name or hashes is required"), "name", "hashes")
	}

	b, err := build(kindFile, v, func() (stix.Properties, error) {
		return opts.ObservableOptions.apply(stix.Properties{
			"name":             opts.Name,
			"hashes":           hashMap(opts.Hashes),
			"size":             opts.Size,
			"mime_type":        opts.MimeType,
			"magic_number_hex": opts.MagicNumberHex,
			"ctime":            opts.Created,
			"mtime":            opts.Modified,
			"atime":            opts.Accessed,
		}).set(extAdditionalNames, opts.AdditionalNames).done()
	})
	if err != nil {
		return nil, err
	}
	return &File{observable: observable{base: b, opts: opts.ObservableOptions}, opts: opts}, nil
}

// Name returns the file name, "" when unset.
func (f *File) Name() string { return f.opts.Name }

// Hashes returns a copy of the hashes.
func (f *File) Hashes() map[HashAlgorithm]string { return cloneHashes(f.opts.Hashes) }

// ToIndicator derives an indicator matching the file name and every hash.
func (f *File) ToIndicator(opts DerivedIndicatorOptions) (*Indicator, error) {
	var comparisons []string
	if f.opts.Name != "" {
		comparisons = append(comparisons, comparison("file:name", f.opts.Name))
	}
	comparisons = append(comparisons, hashComparisons("file", f.opts.Hashes)...)
	return f.deriveIndicator(indicatorName(f.opts.Name, f.opts.Hashes), observationPattern(comparisons...), ObservableTypeFile, opts)
}

// indicatorName prefers name, then the first hash in algorithm order.
func indicatorName(name string, h map[HashAlgorithm]string) string {
	if name != "" {
		return name
	}
	algos := sortedHashAlgorithms(h)
	if len(algos) == 0 {
		return ""
	}
	return h[algos[0]]
}

// ArtifactOptions are the fields of an Artifact. One of PayloadBin, URL or
// Hashes must be set.
type ArtifactOptions struct {
	ObservableOptions
	PayloadBin          []byte
	URL                 string
	Hashes              map[HashAlgorithm]string
	MimeType            string
	EncryptionAlgorithm EncryptionAlgorithm
	DecryptionKey       string
	AdditionalNames     []string
}

// Artifact is an array of bytes, held inline or behind a URL.
type Artifact struct {
	observable
	opts ArtifactOptions
}

// NewArtifact builds an artifact observable.
func NewArtifact(opts ArtifactOptions) (*Artifact, error) {
	opts.ObservableOptions = opts.ObservableOptions.clone()
	opts.PayloadBin = append([]byte(nil), opts.PayloadBin...)
	opts.Hashes = cloneHashes(opts.Hashes)
	opts.AdditionalNames = cloneStrings(opts.AdditionalNames)

	v := newValidator(kindArtifact)
	v.field("url", absoluteURL(opts.URL))
	v.field("hashes", hashes(opts.Hashes))
	v.field("encryption_algorithm", optionalOneOf(opts.EncryptionAlgorithm))
	v.field("additional_names", nonEmptyItems(opts.AdditionalNames))
	opts.ObservableOptions.validate(v)
	if len(opts.PayloadBin) == 0 && opts.URL == "" && len(opts.Hashes) == 0 {
		v.cross(errors.New("one of payload_bin, url or hashes is required"), "payload_bin", "url", "hashes")
	}
	if opts.DecryptionKey != "" && opts.EncryptionAlgorithm == "" {
		v.cross(errors.New("decryption_key requires encryption_algorithm"), "decryption_key", "encryption_algorithm")
	}

	b, err := build(kindArtifact, v, func() (stix.Properties, error) {
		return opts.ObservableOptions.apply(stix.Properties{
			"payload_bin":          opts.PayloadBin,
			"url":                  opts.URL,
			"hashes":               hashMap(opts.Hashes),
			"mime_type":            opts.MimeType,
			"encryption_algorithm": opts.EncryptionAlgorithm,
			"decryption_key":       opts.DecryptionKey,
		}).set(extAdditionalNames, opts.AdditionalNames).done()
	})
	if err != nil {
		return nil, err
	}
	return &Artifact{observable: observable{base: b, opts: opts.ObservableOptions}, opts: opts}, nil
}

// URL returns the artifact location, "" when the payload is inline.
func (a *Artifact) URL() string { return a.opts.URL }

// ToIndicator derives an indicator matching the artifact location, payload and hashes.
func (a *Artifact) ToIndicator(opts DerivedIndicatorOptions) (*Indicator, error) {
	var comparisons []string
	name := a.opts.URL
	if a.opts.URL != "" {
		comparisons = append(comparisons, comparison("artifact:url", a.opts.URL))
	}
	if len(a.opts.PayloadBin) > 0 {
		payload := base64.StdEncoding.EncodeToString(a.opts.PayloadBin)
		comparisons = append(comparisons, comparison("artifact:payload_bin", payload))
		if name == "" {
			name = payload
		}
	}
	comparisons = append(comparisons, hashComparisons("artifact", a.opts.Hashes)...)
	if name == "" {
		name = indicatorName("", a.opts.Hashes)
	}
	return a.deriveIndicator(name, observationPattern(comparisons...), ObservableTypeArtifact, opts)
}

// DirectoryOptions are the optional fields of a Directory.
type DirectoryOptions struct {
	ObservableOptions
	PathEncoding string
	Created      time.Time
	Modified     time.Time
	Accessed     time.Time
}

// Directory is a file system directory.
type Directory struct {
	observable
	path string
}

// NewDirectory builds a directory observable identified by its path.
func NewDirectory(path string, opts DirectoryOptions) (*Directory, error) {
	opts.ObservableOptions = opts.ObservableOptions.clone()

	v := newValidator(kindDirectory)
	v.field("path", notEmpty(path))
	opts.ObservableOptions.validate(v)

	b, err := build(kindDirectory, v, func() (stix.Properties, error) {
		return opts.ObservableOptions.apply(stix.Properties{
			"path":     path,
			"path_enc": opts.PathEncoding,
			"ctime":    opts.Created,
			"mtime":    opts.Modified,
			"atime":    opts.Accessed,
		}).done()
	})
	if err != nil {
		return nil, err
	}
	return &Directory{observable: observable{base: b, opts: opts.ObservableOptions}, path: path}, nil
}

// Path returns the directory path.
func (d *Directory) Path() string { return d.path }
