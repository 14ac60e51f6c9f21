package batch

import (
	"context"
	"time"

	"github.com/airbusgeo/sentinelhub-batch-go/common"
	"github.com/airbusgeo/sentinelhub-batch-go/service/log"
)

// TilesPerStatus fetches all tiles of the request and groups them by status
func TilesPerStatus(ctx context.Context, job *Job) (map[string][]common.TileInfo, error) {
	tilesPerStatus := map[string][]common.TileInfo{}
	it := job.IterTiles("")
	for it.Next(ctx) {
		var tile common.TileInfo
		if err := it.Decode(&tile); err != nil {
			return nil, err
		}
		tilesPerStatus[tile.Status] = append(tilesPerStatus[tile.Status], tile)
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return tilesPerStatus, nil
}

// MonitorOptions configures the polling loop of MonitorJob
type MonitorOptions struct {
	// SleepTime is the pause between two tile status samples. Large jobs
	// do not need frequent samples.
	SleepTime time.Duration
	// AnalysisSleepTime is the pause between two status refreshes while
	// the request is still being analysed.
	AnalysisSleepTime time.Duration
	// Sleep replaces the wait function, so tests can simulate time
	Sleep func(ctx context.Context, d time.Duration) error
}

func (o MonitorOptions) withDefaults() MonitorOptions {
	if o.SleepTime == 0 {
		o.SleepTime = 2 * time.Minute
	}
	if o.AnalysisSleepTime == 0 {
		o.AnalysisSleepTime = 5 * time.Second
	}
	if o.Sleep == nil {
		o.Sleep = sleepContext
	}
	return o
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// MonitorJob blocks until the given batch request has processed all its
// tiles, reporting progress at Info level. It waits for the analysis to
// end, fails on a FAILED or CANCELED request, then samples the tile
// statuses until every tile ended PROCESSED or FAILED. Remote-call
// failures are never retried here and abort the wait immediately. The
// returned mapping groups the final tile payloads by status.
//
// Make sure to start the request with Job.Start before monitoring it. Not
// meant for latency-sensitive code paths.
func MonitorJob(ctx context.Context, job *Job, opts MonitorOptions) (map[string][]common.TileInfo, error) {
	o := opts.withDefaults()

	if err := job.Refresh(ctx); err != nil {
		return nil, err
	}
	desc, err := job.Description(ctx)
	if err != nil {
		return nil, err
	}
	for desc.Status.PreProcessing() {
		log.Logger(ctx).Sugar().Infof("batch request has status %s, sleeping for %s", desc.Status, o.AnalysisSleepTime)
		if err := o.Sleep(ctx, o.AnalysisSleepTime); err != nil {
			return nil, err
		}
		if err := job.Refresh(ctx); err != nil {
			return nil, err
		}
		if desc, err = job.Description(ctx); err != nil {
			return nil, err
		}
	}

	if err := job.CheckStatus(ctx, common.StatusFailed, common.StatusCanceled); err != nil {
		return nil, err
	}
	if desc.Status == common.StatusProcessing {
		log.Logger(ctx).Info("batch request is running")
	}

	totalTileCount := desc.TileCount
	finishedCount, successCount := 0, 0
	tilesPerStatus := map[string][]common.TileInfo{}
	for finishedCount < totalTileCount {
		sample, err := TilesPerStatus(ctx, job)
		if err != nil {
			return nil, err
		}
		tilesPerStatus = sample

		processedTiles := len(tilesPerStatus[common.TileProcessed])
		failedTiles := len(tilesPerStatus[common.TileFailed])
		newFinishedCount := processedTiles + failedTiles
		newSuccessCount := processedTiles

		if newFinishedCount != finishedCount || newSuccessCount != successCount {
			log.Logger(ctx).Sugar().Infof("progress: %d/%d tiles finished, %d succeeded", newFinishedCount, totalTileCount, newSuccessCount)
		}
		finishedCount = newFinishedCount
		successCount = newSuccessCount

		if finishedCount < totalTileCount {
			if err := o.Sleep(ctx, o.SleepTime); err != nil {
				return nil, err
			}
		}
	}

	if failedTiles := len(tilesPerStatus[common.TileFailed]); failedTiles > 0 {
		log.Logger(ctx).Sugar().Infof("batch request failed for %d tiles", failedTiles)
	}
	return tilesPerStatus, nil
}
