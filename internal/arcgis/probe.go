package arcgis

import (
	"context"
	"net/url"
	"strings"
	"time"
)

// PortalProbe checks that an ArcGIS portal answers its info endpoint.
type PortalProbe struct {
	client    SpatialQueryClient
	portalURL string
	timeout   time.Duration
}

// NewPortalProbe creates a PortalProbe for portalURL.
func NewPortalProbe(client SpatialQueryClient, portalURL string, timeout time.Duration) *PortalProbe {
	return &PortalProbe{
		client:    client,
		portalURL: strings.TrimRight(portalURL, "/"),
		timeout:   timeout,
	}
}

// Check returns an error when the portal is unreachable or answers with an
// ArcGIS error payload.
func (p *PortalProbe) Check(ctx context.Context) error {
	var info struct {
		OwningSystemURL string `json:"owningSystemUrl"`
	}
	return p.client.FetchJSON(ctx, p.portalURL+"/sharing/rest/info", url.Values{"f": {"json"}}, p.timeout, &info)
}
