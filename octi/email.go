package octi

import (
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/zero-day-ai/cti-sdk/stix"
)

const (
	kindEmailAddress = "email-addr"
	kindEmailMessage = "email-message"
)

// EmailAddressOptions are the optional fields of an EmailAddress.
type EmailAddressOptions struct {
	ObservableOptions
	DisplayName string
}

// EmailAddress is a single email address.
type EmailAddress struct {
	observable
	value       string
	displayName string
}

// NewEmailAddress builds an email address observable.
func NewEmailAddress(value string, opts EmailAddressOptions) (*EmailAddress, error) {
	opts.ObservableOptions = opts.ObservableOptions.clone()

	v := newValidator(kindEmailAddress)
	v.field("value", notEmpty(value))
	if value != "" {
		if addr, err := mail.ParseAddress(value); err != nil || addr.Address != value {
			v.field("value", fmt.Errorf("%q is not a bare email address", value))
		}
	}
	opts.ObservableOptions.validate(v)

	b, err := build(kindEmailAddress, v, func() (stix.Properties, error) {
		return opts.ObservableOptions.apply(stix.Properties{
			"value":        value,
			"display_name": opts.DisplayName,
		}).done()
	})
	if err != nil {
		return nil, err
	}
	return &EmailAddress{
		observable:  observable{base: b, opts: opts.ObservableOptions},
		value:       value,
		displayName: opts.DisplayName,
	}, nil
}

// Value returns the address.
func (e *EmailAddress) Value() string { return e.value }

// DisplayName returns the display name, "" when unset.
func (e *EmailAddress) DisplayName() string { return e.displayName }

// ToIndicator derives an indicator matching the address.
func (e *EmailAddress) ToIndicator(opts DerivedIndicatorOptions) (*Indicator, error) {
	return e.deriveIndicator(e.value, observationPattern(comparison("email-addr:value", e.value)), ObservableTypeEmailAddress, opts)
}

// EmailMessageOptions are the optional fields of an EmailMessage.
type EmailMessageOptions struct {
	ObservableOptions
	// Body is only allowed on single-part messages.
	Body          string
	Date          time.Time
	ContentType   string
	MessageID     string
	ReceivedLines []string
	// From is written as both the from and the sender reference.
	From *EmailAddress
	To   []*EmailAddress
	CC   []*EmailAddress
	BCC  []*EmailAddress
}

// EmailMessage is an email message.
type EmailMessage struct {
	observable
	subject     string
	isMultipart bool
	opts        EmailMessageOptions
}

// NewEmailMessage builds an email message observable.
func NewEmailMessage(subject string, isMultipart bool, opts EmailMessageOptions) (*EmailMessage, error) {
	opts.ObservableOptions = opts.ObservableOptions.clone()
	opts.ReceivedLines = cloneStrings(opts.ReceivedLines)
	opts.To = append([]*EmailAddress(nil), opts.To...)
	opts.CC = append([]*EmailAddress(nil), opts.CC...)
	opts.BCC = append([]*EmailAddress(nil), opts.BCC...)

	v := newValidator(kindEmailMessage)
	v.field("subject", notEmpty(subject))
	v.field("received_lines", nonEmptyItems(opts.ReceivedLines))
	if opts.From != nil {
		v.ref("from_ref", opts.From)
	}
	checkRefs(v, "to_refs", opts.To)
	checkRefs(v, "cc_refs", opts.CC)
	checkRefs(v, "bcc_refs", opts.BCC)
	opts.ObservableOptions.validate(v)
	if isMultipart && opts.Body != "" {
		v.cross(errors.New("body must not be set on a multipart message"), "is_multipart", "body")
	}

	b, err := build(kindEmailMessage, v, func() (stix.Properties, error) {
		props := stix.Properties{
			"subject":        subject,
			"is_multipart":   isMultipart,
			"body":           opts.Body,
			"date":           opts.Date,
			"content_type":   opts.ContentType,
			"message_id":     opts.MessageID,
			"received_lines": opts.ReceivedLines,
			"to_refs":        ids(opts.To),
			"cc_refs":        ids(opts.CC),
			"bcc_refs":       ids(opts.BCC),
		}
		if opts.From != nil {
			props["from_ref"] = opts.From.ID()
			props["sender_ref"] = opts.From.ID()
		}
		return opts.ObservableOptions.apply(props).done()
	})
	if err != nil {
		return nil, err
	}
	return &EmailMessage{
		observable:  observable{base: b, opts: opts.ObservableOptions},
		subject:     subject,
		isMultipart: isMultipart,
		opts:        opts,
	}, nil
}

// Subject returns the message subject.
func (m *EmailMessage) Subject() string { return m.subject }

// IsMultipart reports whether the message is a multipart MIME message.
func (m *EmailMessage) IsMultipart() bool { return m.isMultipart }

// From returns the sender, nil when unset.
func (m *EmailMessage) From() *EmailAddress { return m.opts.From }
