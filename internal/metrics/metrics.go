// Package metrics defines the service's OpenCensus measures and the
// Prometheus export surface on the debug listener.
package metrics

import (
	"fmt"
	"net/http"

	"contrib.go.opencensus.io/exporter/prometheus"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
)

var (
	MFramesIngested      = stats.Int64("signd/frames_ingested", "Keypoint vectors accepted into session windows", stats.UnitDimensionless)
	MFramesQueued        = stats.Int64("signd/frames_queued", "Raw frames queued for keypoint extraction", stats.UnitDimensionless)
	MPredictions         = stats.Int64("signd/predictions", "Inference ticks served", stats.UnitDimensionless)
	MStableEmissions     = stats.Int64("signd/stable_emissions", "Debounced stable labels emitted", stats.UnitDimensionless)
	MDimensionMismatches = stats.Int64("signd/dimension_mismatches", "Vectors rejected for wrong dimensionality", stats.UnitDimensionless)
	MExtractionErrors    = stats.Int64("signd/extraction_errors", "Keypoint extraction failures", stats.UnitDimensionless)
)

func views() []*view.View {
	counters := []stats.Measure{
		MFramesIngested,
		MFramesQueued,
		MPredictions,
		MStableEmissions,
		MDimensionMismatches,
		MExtractionErrors,
	}
	out := make([]*view.View, 0, len(counters))
	for _, m := range counters {
		out = append(out, &view.View{
			Name:        m.Name(),
			Description: m.Description(),
			Measure:     m,
			Aggregation: view.Count(),
		})
	}
	return out
}

// NewExporter registers the service views and returns an http.Handler that
// serves them in Prometheus exposition format.
func NewExporter() (http.Handler, error) {
	if err := view.Register(views()...); err != nil {
		return nil, fmt.Errorf("unable register metric views: %w", err)
	}
	exporter, err := prometheus.NewExporter(prometheus.Options{Namespace: "signd"})
	if err != nil {
		return nil, fmt.Errorf("unable create prometheus exporter: %w", err)
	}
	view.RegisterExporter(exporter)
	return exporter, nil
}
