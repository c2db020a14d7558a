package pixel

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/storefront/backend/internal/domain/tracking"
)

// maxScriptResponseSize caps the vendor script body read to prevent
// memory exhaustion from a misbehaving CDN
const maxScriptResponseSize = 10 * 1024 * 1024 // 10MB

// VendorClient is the initialized vendor tracking entry point: the
// gtag/fbq/queue-push global behind one uniform interface. It only exists
// for platforms that reached Loaded.
type VendorClient interface {
	// Call invokes the vendor's tracking function with a vendor-shaped
	// event name and payload
	Call(ctx context.Context, event string, payload map[string]any) error
}

// Bootstrapper performs one platform's load procedure and hands back the
// initialized vendor client. Implementations differ per transport; the
// loader treats them uniformly.
type Bootstrapper interface {
	Bootstrap(ctx context.Context, platform tracking.Platform, externalID string) (VendorClient, error)
}

// scriptURLs holds each vendor's tag bootstrap location. A %s placeholder
// receives the external pixel id where the vendor requires it up front.
var scriptURLs = map[tracking.Platform]string{
	tracking.PlatformMeta:      "https://connect.facebook.net/en_US/fbevents.js",
	tracking.PlatformGoogleAds: "https://www.googletagmanager.com/gtag/js?id=%s",
	tracking.PlatformGA4:       "https://www.googletagmanager.com/gtag/js?id=%s",
	tracking.PlatformTikTok:    "https://analytics.tiktok.com/i18n/pixel/events.js?sdkid=%s",
	tracking.PlatformSnapchat:  "https://sc-static.net/scevent.min.js",
	tracking.PlatformPinterest: "https://s.pinimg.com/ct/core.js",
	tracking.PlatformTwitter:   "https://static.ads-twitter.com/uwt.js",
	tracking.PlatformMicrosoft: "https://bat.bing.com/bat.js",
	tracking.PlatformLinkedIn:  "https://snap.licdn.com/li.lms-analytics/insight.min.js",
	tracking.PlatformCriteo:    "https://dynamic.criteo.com/js/ld/ld.js?a=%s",
}

// collectURLs holds each vendor's event collection endpoint used by the
// beacon client after a successful bootstrap
var collectURLs = map[tracking.Platform]string{
	tracking.PlatformMeta:      "https://www.facebook.com/tr",
	tracking.PlatformGoogleAds: "https://www.googleadservices.com/pagead/conversion",
	tracking.PlatformGA4:       "https://www.google-analytics.com/g/collect",
	tracking.PlatformTikTok:    "https://analytics.tiktok.com/api/v2/pixel",
	tracking.PlatformSnapchat:  "https://tr.snapchat.com/p",
	tracking.PlatformPinterest: "https://ct.pinterest.com/v3",
	tracking.PlatformTwitter:   "https://analytics.twitter.com/i/adsct",
	tracking.PlatformMicrosoft: "https://bat.bing.com/action",
	tracking.PlatformLinkedIn:  "https://px.ads.linkedin.com/collect",
	tracking.PlatformCriteo:    "https://sslwidget.criteo.com/event",
}

// HTTPBootstrapper loads vendor tag scripts over HTTP. Fetching and
// parsing the vendor script is the subsystem's sole I/O boundary.
type HTTPBootstrapper struct {
	client *http.Client
}

// NewHTTPBootstrapper creates a bootstrapper with the given per-fetch timeout
func NewHTTPBootstrapper(timeout time.Duration) *HTTPBootstrapper {
	return &HTTPBootstrapper{
		client: &http.Client{Timeout: timeout},
	}
}

// Bootstrap fetches the platform's tag script and, on success, returns a
// beacon client bound to the vendor's collection endpoint
func (b *HTTPBootstrapper) Bootstrap(ctx context.Context, platform tracking.Platform, externalID string) (VendorClient, error) {
	scriptURL, ok := scriptURLs[platform]
	if !ok {
		return nil, tracking.ErrUnknownPlatform
	}
	if strings.Contains(scriptURL, "%s") {
		scriptURL = fmt.Sprintf(scriptURL, url.QueryEscape(externalID))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, scriptURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s script request: %w", platform, err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s script: %w", platform, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s script fetch returned status %d", platform, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxScriptResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s script: %w", platform, err)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%s script fetch returned an empty body", platform)
	}

	return &beaconClient{
		platform:   platform,
		externalID: externalID,
		collectURL: collectURLs[platform],
		client:     b.client,
	}, nil
}

// beaconClient fires vendor events as collection-endpoint beacons, the
// way the vendor tag itself reports events once initialized
type beaconClient struct {
	platform   tracking.Platform
	externalID string
	collectURL string
	client     *http.Client
}

// Call encodes the payload as collection parameters and fires the beacon
func (c *beaconClient) Call(ctx context.Context, event string, payload map[string]any) error {
	params := url.Values{}
	params.Set("id", c.externalID)
	params.Set("ev", event)
	for key, value := range payload {
		params.Set(key, fmt.Sprintf("%v", value))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.collectURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build %s beacon: %w", c.platform, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send %s beacon: %w", c.platform, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxScriptResponseSize))

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%s beacon returned status %d", c.platform, resp.StatusCode)
	}
	return nil
}
