package pipeline

// Metric describes one survey measurement column and how it is presented.
// The catalog below is the closed set of supported metrics; handlers resolve
// request keys through MetricByKey instead of threading raw strings around.
type Metric struct {
	Key         string `json:"key"`
	Column      string `json:"-"`
	DisplayName string `json:"display_name"`
	Unit        string `json:"unit"`
}

var metricCatalog = []Metric{
	{Key: "hard_coral", Column: "hard_coral_cover", DisplayName: "Hard Coral Cover", Unit: "Cover (%)"},
	{Key: "fleshy_algae", Column: "fleshy_macro_algae_cover", DisplayName: "Fleshy Algae Cover", Unit: "Cover (%)"},
	{Key: "rubble", Column: "rubble", DisplayName: "Rubble Cover", Unit: "Rubble Cover (%)"},
	{Key: "bleaching", Column: "bleaching", DisplayName: "Bleaching", Unit: "Bleaching (%)"},
	{Key: "total_density", Column: "total_density", DisplayName: "Total Fish Density", Unit: "Density (ind/ha)"},
	{Key: "commercial_density", Column: "commercial_density", DisplayName: "Commercial Fish Density", Unit: "Density (ind/ha)"},
	{Key: "herbivore", Column: "herbivore_density", DisplayName: "Herbivore Density", Unit: "Density (ind/ha)"},
	{Key: "carnivore", Column: "carnivore_density", DisplayName: "Carnivore Density", Unit: "Density (ind/ha)"},
	{Key: "omnivore", Column: "omnivore_density", DisplayName: "Omnivore Density", Unit: "Density (ind/ha)"},
	{Key: "corallivore", Column: "corallivore_density", DisplayName: "Corallivore Density", Unit: "Density (ind/ha)"},
	{Key: "biomass", Column: "commercial_biomass", DisplayName: "Commercial Biomass", Unit: "Biomass (kg/ha)"},
}

// Metrics returns the full metric catalog in presentation order.
func Metrics() []Metric {
	out := make([]Metric, len(metricCatalog))
	copy(out, metricCatalog)
	return out
}

// MetricByKey resolves an API metric key.
func MetricByKey(key string) (Metric, bool) {
	for _, m := range metricCatalog {
		if m.Key == key {
			return m, true
		}
	}
	return Metric{}, false
}

// MetricByColumn resolves a raw survey column name.
func MetricByColumn(column string) (Metric, bool) {
	for _, m := range metricCatalog {
		if m.Column == column {
			return m, true
		}
	}
	return Metric{}, false
}

// MetricByDisplayName resolves a presentation name back to its metric.
func MetricByDisplayName(name string) (Metric, bool) {
	for _, m := range metricCatalog {
		if m.DisplayName == name {
			return m, true
		}
	}
	return Metric{}, false
}
