package hosting

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/jpgoodman17/SPN-Site-Search/internal/arcgis"
	"github.com/jpgoodman17/SPN-Site-Search/internal/logger"
)

type webMapData struct {
	OperationalLayers []map[string]interface{} `json:"operationalLayers"`
}

type serviceRoot struct {
	Layers []struct {
		ID int `json:"id"`
	} `json:"layers"`
}

// LayerResolver turns a published web map into queryable layer URLs.
type LayerResolver struct {
	client          arcgis.SpatialQueryClient
	portalURL       string
	webmapTimeout   time.Duration
	metadataTimeout time.Duration
	log             *logger.Logger
}

// NewLayerResolver creates a LayerResolver against an ArcGIS portal.
func NewLayerResolver(client arcgis.SpatialQueryClient, portalURL string, webmapTimeout, metadataTimeout time.Duration, log *logger.Logger) *LayerResolver {
	return &LayerResolver{
		client:          client,
		portalURL:       strings.TrimRight(portalURL, "/"),
		webmapTimeout:   webmapTimeout,
		metadataTimeout: metadataTimeout,
		log:             log,
	}
}

// ResolveLayers returns the distinct layer URLs of a web map in first-seen
// order. Service roots are expanded into their sublayers. Any failure fetching
// the web map yields an empty list.
func (r *LayerResolver) ResolveLayers(ctx context.Context, itemID string) []string {
	var data webMapData
	dataURL := r.portalURL + "/sharing/rest/content/items/" + url.PathEscape(itemID) + "/data"
	if err := r.client.FetchJSON(ctx, dataURL, url.Values{"f": {"json"}}, r.webmapTimeout, &data); err != nil {
		r.log.Warn("Failed to load web map", map[string]interface{}{
			"item_id": itemID,
			"error":   err.Error(),
		})
		return []string{}
	}

	var raw []string
	for _, lyr := range data.OperationalLayers {
		if u, ok := lyr["url"].(string); ok && u != "" {
			raw = append(raw, u)
		}
		subs, _ := lyr["layers"].([]interface{})
		for _, s := range subs {
			sub, ok := s.(map[string]interface{})
			if !ok {
				continue
			}
			if u, ok := sub["url"].(string); ok && u != "" {
				raw = append(raw, u)
			}
		}
	}

	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	add := func(u string) {
		if _, dup := seen[u]; dup {
			return
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}

	for _, u := range raw {
		u = strings.TrimRight(u, "/")
		if !isServiceRoot(u) {
			add(u)
			continue
		}
		subs, err := r.expand(ctx, u)
		if err != nil {
			r.log.Warn("Failed to expand map service", map[string]interface{}{
				"url":   u,
				"error": err.Error(),
			})
			continue
		}
		for _, s := range subs {
			add(s)
		}
	}

	r.log.Debug("Resolved web map layers", map[string]interface{}{
		"item_id": itemID,
		"layers":  len(out),
	})
	return out
}

func (r *LayerResolver) expand(ctx context.Context, root string) ([]string, error) {
	var svc serviceRoot
	if err := r.client.FetchJSON(ctx, root, url.Values{"f": {"json"}}, r.metadataTimeout, &svc); err != nil {
		return nil, eris.Wrap(err, "failed to fetch service root")
	}
	out := make([]string, 0, len(svc.Layers))
	for _, l := range svc.Layers {
		out = append(out, root+"/"+strconv.Itoa(l.ID))
	}
	return out, nil
}

func isServiceRoot(u string) bool {
	lower := strings.ToLower(u)
	return strings.HasSuffix(lower, "/mapserver") || strings.HasSuffix(lower, "/featureserver")
}
