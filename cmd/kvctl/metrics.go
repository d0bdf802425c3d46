package main

import (
	"io"

	"github.com/distributeddata/kvstore/infrastructure/metrics"
	"github.com/pkg/errors"
	"github.com/prometheus/common/expfmt"
)

// printMetrics writes every metric of collector in the Prometheus text
// exposition format.
func printMetrics(w io.Writer, collector *metrics.Collector) error {
	metricFamilies, err := collector.Registry().Gather()
	if err != nil {
		return errors.Wrap(err, "failed gathering metrics")
	}
	for _, metricFamily := range metricFamilies {
		_, err := expfmt.MetricFamilyToText(w, metricFamily)
		if err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}
