package analytics

import (
	"encoding/json"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lirany1/bench-report/pkg/models"
)

func statsRow(name string, values [6]float64, success string) models.StatsRow {
	return models.StatsRow{
		Name:    name,
		Min:     models.Num(values[0]),
		Median:  models.Num(values[1]),
		P90:     models.Num(values[2]),
		P95:     models.Num(values[3]),
		Max:     models.Num(values[4]),
		Avg:     models.Num(values[5]),
		Success: success,
		Count:   10,
	}
}

func naRow(name string) models.StatsRow {
	na := models.NA()
	return models.StatsRow{
		Name: name, Min: na, Median: na, P90: na, P95: na, Max: na, Avg: na,
		Success: models.NotAvailable,
	}
}

func trendWorkload(start float64, passed bool, stats *models.DurationStats) *models.Workload {
	return &models.Workload{
		Name:        "Foo.bar",
		Description: "Foo workload",
		Args:        map[string]interface{}{"size": 1},
		Runner:      map[string]interface{}{"type": "constant", "times": 10},
		Context:     map[string]interface{}{"users": map[string]interface{}{}},
		SLA:         map[string]interface{}{"failure_rate": map[string]interface{}{"max": 0}},
		PassSLA:     passed,
		StartTime:   start,
		Statistics:  models.Statistics{Durations: stats},
	}
}

func sortedNames(series []PercentileSeries) []string {
	names := make([]string, 0, len(series))
	for _, s := range series {
		names = append(names, s.Name)
	}
	sort.Strings(names)
	return names
}

func TestNewTrends(t *testing.T) {
	_, err := NewTrends(42)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	trends, err := NewTrends()
	require.NoError(t, err)
	assert.Empty(t, trends.Data())

	data, err := json.Marshal(trends.Data())
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestTrends_SingleRun(t *testing.T) {
	trends, err := NewTrends()
	require.NoError(t, err)

	stats := &models.DurationStats{
		Atomics: []models.StatsRow{statsRow("a", [6]float64{0.7, 0.8, 0.9, 1.0, 1.1, 0.85}, "100.0%")},
		Total:   statsRow("total", [6]float64{0.8, 1.2, 1.5, 1.7, 1.8, 1.55}, "100.0%"),
	}
	require.NoError(t, trends.AddResult(trendWorkload(123456.789, true, stats)))

	data := trends.Data()
	require.Len(t, data, 1)
	series := data[0]

	assert.Equal(t, "Foo.bar", series.Name)
	assert.Equal(t, "Foo", series.Class)
	assert.Equal(t, "bar", series.Method)
	assert.Equal(t, 1, series.Length)
	assert.Equal(t, 0, series.SLAFailures)

	require.NotNil(t, series.Stat.Avg)
	assert.InDelta(t, 1.425, *series.Stat.Avg, 1e-9)
	assert.Equal(t, 1.8, *series.Stat.Max)
	assert.Equal(t, 0.8, *series.Stat.Min)

	assert.Equal(t, sortedNames(series.Durations), []string{"90%ile", "95%ile", "avg", "max", "median", "min"})
	for _, s := range series.Durations {
		require.Len(t, s.Samples, 1)
		assert.Equal(t, int64(123456789), s.Samples[0].Timestamp)
	}
	assert.Equal(t, []PercentileSeries{{
		Name:    "success",
		Samples: []Sample{{Timestamp: 123456789, Value: models.Num(100)}},
	}}, series.Success)

	require.Len(t, series.Actions, 1)
	assert.Equal(t, "a", series.Actions[0].Name)
	assert.Len(t, series.Actions[0].Durations, len(models.PercentileNames))

	var config map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(series.Config), &config))
	assert.Contains(t, config, "scenario")
	assert.Contains(t, series.Config, "\n  ")
}

func TestTrends_MergesRunsOfSameConfig(t *testing.T) {
	trends, err := NewTrends()
	require.NoError(t, err)

	stats := func() *models.DurationStats {
		return &models.DurationStats{
			Atomics: []models.StatsRow{statsRow("a", [6]float64{1, 1, 1, 1, 1, 1}, "100.0%")},
			Total:   statsRow("total", [6]float64{1, 2, 3, 4, 5, 3}, "50.0%"),
		}
	}
	require.NoError(t, trends.AddResult(trendWorkload(10, true, stats())))
	require.NoError(t, trends.AddResult(trendWorkload(11, false, stats())))

	other := trendWorkload(12, true, stats())
	other.Args = map[string]interface{}{"size": 2}
	require.NoError(t, trends.AddResult(other))

	data := trends.Data()
	require.Len(t, data, 2)

	merged := data[0]
	assert.Equal(t, 2, merged.Length)
	assert.Equal(t, 1, merged.SLAFailures)
	for _, s := range merged.Durations {
		require.Len(t, s.Samples, 2)
		assert.Equal(t, int64(10000), s.Samples[0].Timestamp)
		assert.Equal(t, int64(11000), s.Samples[1].Timestamp)
	}
	assert.Equal(t, []Sample{
		{Timestamp: 10000, Value: models.Num(50)},
		{Timestamp: 11000, Value: models.Num(50)},
	}, merged.Success[0].Samples)

	assert.Equal(t, 1, data[1].Length)
	assert.Equal(t, 0, data[1].SLAFailures)
}

func TestTrends_IntAndFloatArgsAreDistinct(t *testing.T) {
	trends, err := NewTrends()
	require.NoError(t, err)

	stats := func() *models.DurationStats {
		return &models.DurationStats{Total: statsRow("total", [6]float64{1, 2, 3, 4, 5, 3}, "100.0%")}
	}
	intArgs := trendWorkload(10, true, stats())
	intArgs.Args = map[string]interface{}{"size": 42}
	floatArgs := trendWorkload(11, true, stats())
	floatArgs.Args = map[string]interface{}{"size": 42.0}
	decoded := trendWorkload(12, true, stats())
	decoded.Args = map[string]interface{}{"size": json.Number("42.0")}

	require.NoError(t, trends.AddResult(intArgs))
	require.NoError(t, trends.AddResult(floatArgs))
	require.NoError(t, trends.AddResult(decoded))

	data := trends.Data()
	require.Len(t, data, 2)
	assert.Equal(t, 1, data[0].Length)
	assert.Equal(t, 2, data[1].Length)
}

func TestTrends_NotAvailableRun(t *testing.T) {
	trends, err := NewTrends()
	require.NoError(t, err)

	stats := &models.DurationStats{
		Atomics: []models.StatsRow{naRow("a")},
		Total:   naRow("total"),
	}
	require.NoError(t, trends.AddResult(trendWorkload(1, false, stats)))

	series := trends.Data()[0]
	assert.Equal(t, Stat{}, series.Stat)
	assert.Equal(t, 1, series.SLAFailures)
	for _, s := range series.Durations {
		assert.Equal(t, models.NA(), s.Samples[0].Value)
	}
	assert.Equal(t, models.Num(0), series.Success[0].Samples[0].Value)
	assert.Equal(t, models.Num(0), series.Actions[0].Success[0].Samples[0].Value)

	data, err := json.Marshal(series.Stat)
	require.NoError(t, err)
	assert.JSONEq(t, `{"avg": null, "max": null, "min": null}`, string(data))
}

func TestTrends_ComputesMissingStatistics(t *testing.T) {
	trends, err := NewTrends()
	require.NoError(t, err)

	w := trendWorkload(5, true, nil)
	w.Data = []models.Iteration{
		{Timestamp: 5, Duration: 2, AtomicActions: models.AtomicActions{{Name: "a", FinishedAt: 1}}},
		{Timestamp: 6, Duration: 4, AtomicActions: models.AtomicActions{{Name: "a", FinishedAt: 3}}},
	}
	require.NoError(t, trends.AddResult(w))

	series := trends.Data()[0]
	require.NotNil(t, series.Stat.Max)
	assert.Equal(t, 4.0, *series.Stat.Max)
	assert.Equal(t, 2.0, *series.Stat.Min)
	assert.Equal(t, models.Num(100), series.Success[0].Samples[0].Value)
}

func TestTrendSeriesJSONRoundTrip(t *testing.T) {
	trends, err := NewTrends()
	require.NoError(t, err)
	stats := &models.DurationStats{
		Atomics: []models.StatsRow{naRow("a")},
		Total:   statsRow("total", [6]float64{1, 2, 3, 4, 5, 3}, "100.0%"),
	}
	require.NoError(t, trends.AddResult(trendWorkload(2.5, true, stats)))

	in := trends.Data()
	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out []TrendSeries
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}
