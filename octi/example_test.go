package octi_test

import (
	"errors"
	"fmt"

	"github.com/zero-day-ai/cti-sdk/octi"
)

func ExampleNewDomainName() {
	acme, err := octi.NewOrganization("Acme", octi.OrganizationOptions{})
	if err != nil {
		panic(err)
	}
	green, err := octi.NewTLPMarking(octi.TLPGreen)
	if err != nil {
		panic(err)
	}

	domain, err := octi.NewDomainName("evil.example", octi.ObservableOptions{
		Author:   acme,
		Markings: []*octi.TLPMarking{green},
	})
	if err != nil {
		panic(err)
	}
	indicator, err := domain.ToIndicator(octi.DerivedIndicatorOptions{})
	if err != nil {
		panic(err)
	}

	fmt.Println(domain.ID())
	fmt.Println(indicator.Pattern())
	// Output:
	// domain-name--69228563-c8d2-54ae-aeca-5f4134cb59aa
	// [domain-name:value='evil.example']
}

func ExampleNewFile() {
	_, err := octi.NewFile(octi.FileOptions{MimeType: "application/x-dosexec"})

	var ce *octi.ConstructionError
	if errors.As(err, &ce) {
		fmt.Println(ce.Code, ce.Fields)
	}
	// Output:
	// CROSS_FIELD_VALIDATION [name hashes]
}
