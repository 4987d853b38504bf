package search

import "github.com/prometheus/client_golang/prometheus"

// Metrics is the Prometheus instrumentation a Driver updates while
// descending the (Ka,Kb) lattice: a small struct of collectors,
// registered once against a caller-supplied Registerer.
type Metrics struct {
	PointsVisited    prometheus.Counter
	MergesAccepted   prometheus.Counter
	MergesRolledBack prometheus.Counter
	DescLen          prometheus.Gauge
}

// NewMetrics builds and registers a Metrics set against reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		PointsVisited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dkbisbm_search_points_visited_total",
			Help: "Number of (Ka,Kb) point evaluations the search driver has committed.",
		}),
		MergesAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dkbisbm_search_merges_accepted_total",
			Help: "Number of proposed block merges accepted by the descent.",
		}),
		MergesRolledBack: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dkbisbm_search_merges_rolled_back_total",
			Help: "Number of committed block merges rolled back because they did not give the lowest description length so far.",
		}),
		DescLen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dkbisbm_search_description_length",
			Help: "Description length of the most recently evaluated confident point.",
		}),
	}

	collectors := []prometheus.Collector{m.PointsVisited, m.MergesAccepted, m.MergesRolledBack, m.DescLen}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}
