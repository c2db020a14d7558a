package tracking

import "fmt"

// Platform identifies an advertising/analytics vendor
type Platform string

// Supported vendor platforms
const (
	PlatformMeta      Platform = "meta"
	PlatformGoogleAds Platform = "google_ads"
	PlatformGA4       Platform = "ga4"
	PlatformTikTok    Platform = "tiktok"
	PlatformSnapchat  Platform = "snapchat"
	PlatformPinterest Platform = "pinterest"
	PlatformTwitter   Platform = "twitter"
	PlatformMicrosoft Platform = "microsoft"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformCriteo    Platform = "criteo"
)

// AllPlatforms returns every supported platform in stable order
func AllPlatforms() []Platform {
	return []Platform{
		PlatformMeta,
		PlatformGoogleAds,
		PlatformGA4,
		PlatformTikTok,
		PlatformSnapchat,
		PlatformPinterest,
		PlatformTwitter,
		PlatformMicrosoft,
		PlatformLinkedIn,
		PlatformCriteo,
	}
}

// ParsePlatform converts a string to a Platform, rejecting unknown vendors
func ParsePlatform(s string) (Platform, error) {
	p := Platform(s)
	for _, known := range AllPlatforms() {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown platform %q: %w", s, ErrUnknownPlatform)
}

// String implements fmt.Stringer
func (p Platform) String() string {
	return string(p)
}

// SupportsAdvancedMatching reports whether the vendor accepts hashed
// user-identity fields for conversion attribution. Only Meta does.
func (p Platform) SupportsAdvancedMatching() bool {
	return p == PlatformMeta
}
