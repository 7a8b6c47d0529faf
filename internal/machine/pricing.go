package machine

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
	"github.com/aws/aws-sdk-go-v2/service/pricing/types"
)

// pricingRegion is the region that serves the AWS Price List API.
const pricingRegion = "us-east-1"

// ProductsAPI is the part of the pricing client the lookup needs.
type ProductsAPI interface {
	GetProducts(ctx context.Context, in *pricing.GetProductsInput, optFns ...func(*pricing.Options)) (*pricing.GetProductsOutput, error)
}

// PricingLookup reads instance sizes from the AWS Price List API.
type PricingLookup struct {
	client ProductsAPI
}

// NewPricingLookup creates a lookup using the default AWS credential chain.
func NewPricingLookup(ctx context.Context) (*PricingLookup, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(pricingRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewPricingLookupWithClient(pricing.NewFromConfig(cfg)), nil
}

// NewPricingLookupWithClient creates a lookup on an existing client.
func NewPricingLookupWithClient(client ProductsAPI) *PricingLookup {
	return &PricingLookup{client: client}
}

type priceListProduct struct {
	Product struct {
		Attributes struct {
			Memory string `json:"memory"`
		} `json:"attributes"`
	} `json:"product"`
}

// RAMGiB implements Resolver. Only the aws provider is answered.
func (p *PricingLookup) RAMGiB(ctx context.Context, provider, instanceType string) (float64, error) {
	if provider != "" && provider != "aws" {
		return 0, fmt.Errorf("%w: pricing lookup only covers aws, got %q", ErrUnknownInstance, provider)
	}
	out, err := p.client.GetProducts(ctx, &pricing.GetProductsInput{
		ServiceCode: aws.String("AmazonEC2"),
		Filters: []types.Filter{{
			Field: aws.String("instanceType"),
			Type:  types.FilterTypeTermMatch,
			Value: aws.String(instanceType),
		}},
		MaxResults: aws.Int32(1),
	})
	if err != nil {
		return 0, fmt.Errorf("pricing lookup for %s failed: %w", instanceType, err)
	}
	if len(out.PriceList) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrUnknownInstance, instanceType)
	}

	var product priceListProduct
	if err := json.Unmarshal([]byte(out.PriceList[0]), &product); err != nil {
		return 0, fmt.Errorf("failed to decode price list entry for %s: %w", instanceType, err)
	}
	return parseMemory(product.Product.Attributes.Memory)
}

// parseMemory parses the price list memory attribute, e.g. "8 GiB" or
// "3.75 GiB".
func parseMemory(s string) (float64, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 || fields[1] != "GiB" {
		return 0, fmt.Errorf("unexpected memory attribute %q", s)
	}
	gib, err := strconv.ParseFloat(strings.ReplaceAll(fields[0], ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected memory attribute %q: %w", s, err)
	}
	return gib, nil
}
