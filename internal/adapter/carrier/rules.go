package carrier

import (
	"strings"

	domainErrors "github.com/polkiloo/warehouse/internal/domain/errors"
)

const (
	defaultReferenceLength = 35
	ellipsis               = "..."
)

var referenceLimits = map[string]int{
	"ups":         35,
	"fedex":       40,
	"usps":        50,
	"stamps_com":  50,
	"endicia":     50,
	"dhl_express": 35,
}

// servicePrefixes maps a service code prefix to the carriers allowed to sell it.
var servicePrefixes = map[string][]string{
	"usps_":  {"usps", "stamps_com", "endicia"},
	"ups_":   {"ups"},
	"fedex_": {"fedex"},
	"dhl_":   {"dhl_express"},
}

var perPackageCarriers = map[string]bool{
	"usps":       true,
	"stamps_com": true,
	"endicia":    true,
}

func normalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// MaxReferenceLength returns the label reference limit for a carrier.
func MaxReferenceLength(carrierCode string) int {
	if n, ok := referenceLimits[normalizeCode(carrierCode)]; ok {
		return n
	}
	return defaultReferenceLength
}

// TruncateReference shortens ref to the carrier limit, ending with "...".
func TruncateReference(carrierCode, ref string) string {
	limit := MaxReferenceLength(carrierCode)
	runes := []rune(ref)
	if len(runes) <= limit {
		return ref
	}
	return string(runes[:limit-len(ellipsis)]) + ellipsis
}

// ValidateService rejects service codes sold by a different carrier.
func ValidateService(carrierCode, serviceCode string) error {
	carrier := normalizeCode(carrierCode)
	service := normalizeCode(serviceCode)
	if carrier == "" {
		return domainErrors.Invalid("carrierCode", "is required")
	}
	if service == "" {
		return domainErrors.Invalid("serviceCode", "is required")
	}
	for prefix, carriers := range servicePrefixes {
		if !strings.HasPrefix(service, prefix) {
			continue
		}
		for _, allowed := range carriers {
			if carrier == allowed {
				return nil
			}
		}
		return domainErrors.Invalid("serviceCode", "%s is not offered by carrier %s", serviceCode, carrierCode)
	}
	return nil
}

// RequiresPerPackageLabels reports whether the carrier issues one label per parcel.
func RequiresPerPackageLabels(carrierCode string) bool {
	return perPackageCarriers[normalizeCode(carrierCode)]
}
