package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/oasara/enrich-cli/internal/model"
)

const checkpointPattern = "enrichment-results-*.json"

// Checkpointer persists batch progress to timestamped JSON files so an
// interrupted run can resume without redoing finished facilities.
type Checkpointer struct {
	dir string
}

// NewCheckpointer ensures the output directory exists. A directory
// that cannot be created is fatal to the batch.
func NewCheckpointer(dir string) (*Checkpointer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "checkpoint: create dir %s", dir)
	}
	return &Checkpointer{dir: dir}, nil
}

// Save writes the report to a new timestamped file. Write failures are
// logged, not fatal: losing one checkpoint is cheaper than killing the
// batch producing it.
func (c *Checkpointer) Save(report *model.BatchReport) string {
	path := filepath.Join(c.dir, fmt.Sprintf("enrichment-results-%d.json", time.Now().UnixMilli()))

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		zap.L().Warn("checkpoint: marshal failed", zap.Error(err))
		return ""
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		zap.L().Warn("checkpoint: write failed", zap.String("path", path), zap.Error(err))
		return ""
	}
	zap.L().Debug("checkpoint: saved", zap.String("path", path), zap.Int("processed", report.Processed()))
	return path
}

// LoadLatest reads the newest checkpoint in the directory, or returns
// (nil, nil) when none exists.
func (c *Checkpointer) LoadLatest() (*model.BatchReport, error) {
	matches, err := filepath.Glob(filepath.Join(c.dir, checkpointPattern))
	if err != nil {
		return nil, eris.Wrap(err, "checkpoint: glob")
	}
	if len(matches) == 0 {
		return nil, nil
	}
	// Millisecond-timestamped names of equal width sort
	// lexically in time order.
	sort.Strings(matches)
	latest := matches[len(matches)-1]

	data, err := os.ReadFile(latest)
	if err != nil {
		return nil, eris.Wrapf(err, "checkpoint: read %s", latest)
	}
	var report model.BatchReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, eris.Wrapf(err, "checkpoint: parse %s", latest)
	}
	zap.L().Info("checkpoint: resuming",
		zap.String("path", latest),
		zap.Int("already_processed", report.Processed()),
	)
	return &report, nil
}
