package hosting

import (
	"github.com/jpgoodman17/SPN-Site-Search/internal/arcgis"
)

// CapacityFields are the attribute names utilities use for available PV
// hosting capacity, in lookup order.
var CapacityFields = []string{"PVHC_MW", "HC_MW", "Avail_MW", "AvailHC_MW", "PVHostingCapacityMW"}

// BestCapacity returns the largest capacity value among features. For each
// feature the first field in fields holding a number is used. Distance is
// always zero since features are not ranked by distance. ok is false when no
// feature carries a numeric capacity.
func BestCapacity(features []arcgis.Feature, fields []string) (bestMW, distanceM float64, ok bool) {
	for _, f := range features {
		for _, name := range fields {
			v, isNum := f.Attributes[name].(float64)
			if !isNum {
				continue
			}
			if !ok || v > bestMW {
				bestMW = v
			}
			ok = true
			break
		}
	}
	return bestMW, 0, ok
}
