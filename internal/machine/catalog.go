package machine

import (
	"context"
	"fmt"
)

// Catalog maps instance types to their RAM in GiB.
type Catalog map[string]float64

// DefaultCatalog returns the sizes of common instance types.
func DefaultCatalog() Catalog {
	return Catalog{
		// AWS
		"t2.micro":   1,
		"t2.small":   2,
		"t2.medium":  4,
		"t2.large":   8,
		"m3.medium":  3.75,
		"m3.large":   7.5,
		"m3.xlarge":  15,
		"m3.2xlarge": 30,
		"m4.large":   8,
		"m4.xlarge":  16,
		"m4.2xlarge": 32,
		"m5.large":   8,
		"m5.xlarge":  16,
		"c4.large":   3.75,
		"c4.xlarge":  7.5,
		"r4.large":   15.25,
		"r4.xlarge":  30.5,
		// Google
		"n1-standard-1": 3.75,
		"n1-standard-2": 7.5,
		"n1-standard-4": 15,
		"n1-standard-8": 30,
		// DigitalOcean
		"s-1vcpu-2gb": 2,
		"s-2vcpu-4gb": 4,
		"s-4vcpu-8gb": 8,
	}
}

// RAMGiB implements Resolver. The provider is ignored; instance type names do
// not collide across the providers listed.
func (c Catalog) RAMGiB(_ context.Context, _ string, instanceType string) (float64, error) {
	gib, ok := c[instanceType]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownInstance, instanceType)
	}
	return gib, nil
}
