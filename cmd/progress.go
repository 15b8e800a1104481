package cmd

import (
	"sync"

	"github.com/spiffcs/ghreport/internal/constants"
	"github.com/spiffcs/ghreport/internal/log"
	"github.com/spiffcs/ghreport/internal/pipeline"
)

var stageLabels = map[pipeline.Stage]string{
	pipeline.StageFetch:     "Fetching activity",
	pipeline.StageScore:     "Scoring items",
	pipeline.StageTrack:     "Updating tracked repositories",
	pipeline.StageSummarize: "Summarizing",
}

// logProgress reports pipeline progress on the log's progress line when
// the TUI is off. Output is throttled to LogThrottlePercent steps per stage.
func logProgress() pipeline.ProgressFunc {
	var (
		mu      sync.Mutex
		current pipeline.Stage = -1
		last    = -1
	)

	return func(stage pipeline.Stage, completed, total int) {
		if total <= 0 {
			return
		}
		percent := completed * 100 / total

		mu.Lock()
		defer mu.Unlock()

		if stage != current {
			if current >= 0 {
				log.ProgressDone()
			}
			current = stage
			last = -1
		}
		if completed < total && last >= 0 && percent-last < constants.LogThrottlePercent {
			return
		}
		last = percent
		log.Progress("%s: %d/%d (%d%%)...", stageLabels[stage], completed, total, percent)
	}
}
