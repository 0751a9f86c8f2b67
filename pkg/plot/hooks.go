package plot

import (
	"fmt"

	"github.com/lirany1/bench-report/pkg/charts"
	"github.com/lirany1/bench-report/pkg/models"
)

// Hook is the report-ready form of one hook and its firings
type Hook struct {
	Name     string          `json:"name"`
	Desc     string          `json:"desc"`
	Additive []charts.View   `json:"additive"`
	Complete []HookExecution `json:"complete"`
}

// HookExecution is one hook firing that reported complete output
type HookExecution struct {
	TriggeredBy string                `json:"triggered_by"`
	StartedAt   string                `json:"started_at"`
	FinishedAt  string                `json:"finished_at"`
	Status      string                `json:"status"`
	Charts      []charts.CompleteView `json:"charts"`
}

// ProcessHooks reshapes hook results for display. Additive charts are
// aggregated over every firing by their position in the output, complete
// charts are kept per firing. Hooks without output are left out.
func (f *Formatter) ProcessHooks(hooks []models.HookResult) ([]Hook, error) {
	formatTime := f.formatTime()
	out := make([]Hook, 0, len(hooks))

	for _, h := range hooks {
		hook := Hook{
			Name:     h.Config.Name,
			Desc:     h.Config.Description,
			Additive: []charts.View{},
			Complete: []HookExecution{},
		}

		var additive [][]models.OutputChart
		for _, res := range h.Results {
			for i, c := range res.Output.Additive {
				if i >= len(additive) {
					additive = append(additive, nil)
				}
				additive[i] = append(additive[i], c)
			}

			views := make([]charts.CompleteView, 0, len(res.Output.Complete))
			for _, c := range res.Output.Complete {
				view, err := charts.RenderComplete(c)
				if err != nil {
					return nil, fmt.Errorf("hook %s: %w", h.Config.Name, err)
				}
				views = append(views, view)
			}
			if len(views) > 0 {
				hook.Complete = append(hook.Complete, HookExecution{
					TriggeredBy: fmt.Sprintf("%s: %v", res.TriggeredBy.EventType, res.TriggeredBy.Value),
					StartedAt:   formatTime(res.StartedAt),
					FinishedAt:  formatTime(res.FinishedAt),
					Status:      res.Status,
					Charts:      views,
				})
			}
		}

		for _, group := range additive {
			first := group[0]
			chart, err := charts.NewOutputChart(first, len(group), f.zippedSize())
			if err != nil {
				return nil, fmt.Errorf("hook %s: %w", h.Config.Name, err)
			}
			for _, c := range group {
				if err := chart.AddIteration(c.Data); err != nil {
					return nil, fmt.Errorf("hook %s: chart %q: %w", h.Config.Name, first.Title, err)
				}
			}
			hook.Additive = append(hook.Additive, chart.Render())
		}

		if len(hook.Additive) > 0 || len(hook.Complete) > 0 {
			out = append(out, hook)
		}
	}
	return out, nil
}
