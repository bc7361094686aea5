package validation

import (
	"regexp"
	"strings"
)

// Region identifies which numbering plan a phone number matched.
type Region string

const (
	RegionDubai Region = "dubai"
	RegionIndia Region = "india"
)

const (
	msgPhoneRequired = "Phone number is required"
	msgPhoneInvalid  = "Please enter a valid phone number from Dubai or India (e.g., +971501234567 or +919876543210)"
)

var (
	phoneSeparators = regexp.MustCompile(`[\s\-()]`)
	dubaiTrunk      = regexp.MustCompile(`^0[5-9]`)
	indiaTrunk      = regexp.MustCompile(`^0[6-9]`)
	dubaiLocal      = regexp.MustCompile(`^[5-9]\d{8}$`)
	indiaLocal      = regexp.MustCompile(`^[6-9]\d{9}$`)
)

// Each region accepts the same subscriber number in four forms: +CC, CC, trunk 0, bare.
var regionPatterns = []struct {
	region   Region
	patterns []*regexp.Regexp
}{
	{
		region: RegionDubai,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`^\+971[5-9]\d{8}$`),
			regexp.MustCompile(`^971[5-9]\d{8}$`),
			regexp.MustCompile(`^0[5-9]\d{8}$`),
			regexp.MustCompile(`^[5-9]\d{8}$`),
		},
	},
	{
		region: RegionIndia,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`^\+91[6-9]\d{9}$`),
			regexp.MustCompile(`^91[6-9]\d{9}$`),
			regexp.MustCompile(`^0[6-9]\d{9}$`),
			regexp.MustCompile(`^[6-9]\d{9}$`),
		},
	},
}

// PhoneResult is the outcome of ValidatePhone.
type PhoneResult struct {
	Valid  bool
	Error  string
	Region Region
}

// CleanPhone strips spaces, dashes and parentheses.
func CleanPhone(raw string) string {
	return phoneSeparators.ReplaceAllString(raw, "")
}

// ValidatePhone accepts Dubai and India numbers and reports the matched region.
func ValidatePhone(raw string) PhoneResult {
	if strings.TrimSpace(raw) == "" {
		return PhoneResult{Error: msgPhoneRequired}
	}

	cleaned := CleanPhone(raw)
	for _, rp := range regionPatterns {
		for _, p := range rp.patterns {
			if p.MatchString(cleaned) {
				return PhoneResult{Valid: true, Region: rp.region}
			}
		}
	}

	return PhoneResult{Error: msgPhoneInvalid}
}

// FormatPhone renders an international display form, e.g. "+971 50 123 4567"
// or "+91 98765 43210". Inputs that match no known shape are returned unchanged.
func FormatPhone(raw string) string {
	c := CleanPhone(raw)

	switch {
	case strings.HasPrefix(c, "+971") && len(c) == 13:
		return "+971 " + c[4:6] + " " + c[6:9] + " " + c[9:]
	case strings.HasPrefix(c, "971") && len(c) == 12:
		return "+971 " + c[3:5] + " " + c[5:8] + " " + c[8:]
	case len(c) == 10 && dubaiTrunk.MatchString(c):
		return "+971 " + c[1:3] + " " + c[3:6] + " " + c[6:]
	case dubaiLocal.MatchString(c):
		return "+971 " + c[0:2] + " " + c[2:5] + " " + c[5:]
	case strings.HasPrefix(c, "+91") && len(c) == 13:
		return "+91 " + c[3:8] + " " + c[8:]
	case strings.HasPrefix(c, "91") && len(c) == 12:
		return "+91 " + c[2:7] + " " + c[7:]
	case len(c) == 11 && indiaTrunk.MatchString(c):
		return "+91 " + c[1:6] + " " + c[6:]
	case indiaLocal.MatchString(c):
		return "+91 " + c[0:5] + " " + c[5:]
	}

	return raw
}
