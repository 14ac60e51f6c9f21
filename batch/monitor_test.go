package batch_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/airbusgeo/sentinelhub-batch-go/batch"
	"github.com/airbusgeo/sentinelhub-batch-go/common"
	"github.com/airbusgeo/sentinelhub-batch-go/interface/transport"
	"github.com/gorilla/mux"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

// fakeBatchService serves one batch request whose status advances on each
// description fetch and whose tile feed advances on each tile listing
type fakeBatchService struct {
	mu sync.Mutex

	statuses  []common.Status
	statusIdx int

	tileCount    int
	tileFeeds    [][]common.TileInfo
	tileFeedIdx  int
	tileRequests int
}

func (f *fakeBatchService) currentStatus() common.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	status := f.statuses[f.statusIdx]
	if f.statusIdx < len(f.statuses)-1 {
		f.statusIdx++
	}
	return status
}

func (f *fakeBatchService) currentTiles() []common.TileInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tileRequests++
	tiles := f.tileFeeds[f.tileFeedIdx]
	if f.tileFeedIdx < len(f.tileFeeds)-1 {
		f.tileFeedIdx++
	}
	return tiles
}

func (f *fakeBatchService) router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/api/v1/batch/process/job-1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(common.JobDescription{
			ID:        "job-1",
			Status:    f.currentStatus(),
			TileCount: f.tileCount,
		})
	}).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/batch/process/job-1/tiles", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(common.Map{"data": f.currentTiles()})
	}).Methods(http.MethodGet)
	return router
}

// allTiles returns n tiles with the given statuses, PENDING past the list
func allTiles(n int, statuses ...string) []common.TileInfo {
	tiles := make([]common.TileInfo, n)
	for i := range tiles {
		status := common.TilePending
		if i < len(statuses) {
			status = statuses[i]
		}
		tiles[i] = common.TileInfo{ID: int64(i + 1), Status: status}
	}
	return tiles
}

var _ = Describe("MonitorJob", func() {
	var (
		fake    *fakeBatchService
		server  *httptest.Server
		job     *batch.Job
		sleeps  []time.Duration
		options batch.MonitorOptions
		ctx     context.Context
	)

	JustBeforeEach(func() {
		server = httptest.NewServer(fake.router())
		tr := transport.New(context.Background(), transport.Config{BaseURL: server.URL},
			transport.WithHTTPClient(server.Client()),
			transport.WithRetries(0),
		)
		var err error
		job, err = batch.NewJob(batch.NewClient(tr), "job-1", nil)
		Expect(err).NotTo(HaveOccurred())

		ctx = context.Background()
		sleeps = nil
		options = batch.MonitorOptions{
			SleepTime:         time.Minute,
			AnalysisSleepTime: time.Second,
			Sleep: func(ctx context.Context, d time.Duration) error {
				sleeps = append(sleeps, d)
				return ctx.Err()
			},
		}
	})

	AfterEach(func() {
		server.Close()
	})

	Context("with a request that analyses and then succeeds", func() {
		BeforeEach(func() {
			fake = &fakeBatchService{
				statuses:  []common.Status{common.StatusCreated, common.StatusAnalysing, common.StatusProcessing},
				tileCount: 3,
				tileFeeds: [][]common.TileInfo{
					allTiles(3, common.TileProcessed),
					allTiles(3, common.TileProcessed, common.TileProcessed, common.TileProcessed),
				},
			}
		})

		It("waits out the analysis and returns the processed tiles", func() {
			tilesPerStatus, err := batch.MonitorJob(ctx, job, options)
			Expect(err).NotTo(HaveOccurred())
			Expect(tilesPerStatus).To(HaveLen(1))
			Expect(tilesPerStatus[common.TileProcessed]).To(HaveLen(3))
			Expect(fake.tileRequests).To(Equal(2))
			// two analysis waits, one wait between the tile samples
			Expect(sleeps).To(Equal([]time.Duration{time.Second, time.Second, time.Minute}))
		})
	})

	Context("with a request that fails during analysis", func() {
		BeforeEach(func() {
			fake = &fakeBatchService{
				statuses:  []common.Status{common.StatusCreated, common.StatusAnalysing, common.StatusFailed},
				tileCount: 3,
			}
		})

		It("raises the failure without listing tiles", func() {
			_, err := batch.MonitorJob(ctx, job, options)
			var statusErr *batch.StatusError
			Expect(err).To(BeAssignableToTypeOf(statusErr))
			Expect(err.(*batch.StatusError).Status).To(Equal(common.StatusFailed))
			Expect(fake.tileRequests).To(Equal(0))
		})
	})

	Context("with a canceled request", func() {
		BeforeEach(func() {
			fake = &fakeBatchService{
				statuses:  []common.Status{common.StatusCanceled},
				tileCount: 3,
			}
		})

		It("raises the cancellation", func() {
			_, err := batch.MonitorJob(ctx, job, options)
			Expect(err).To(HaveOccurred())
			Expect(err.(*batch.StatusError).Status).To(Equal(common.StatusCanceled))
		})
	})

	Context("with a request that is already done", func() {
		BeforeEach(func() {
			fake = &fakeBatchService{
				statuses:  []common.Status{common.StatusDone},
				tileCount: 2,
				tileFeeds: [][]common.TileInfo{
					allTiles(2, common.TileProcessed, common.TileProcessed),
				},
			}
		})

		It("returns after a single tile listing without sleeping", func() {
			tilesPerStatus, err := batch.MonitorJob(ctx, job, options)
			Expect(err).NotTo(HaveOccurred())
			Expect(tilesPerStatus[common.TileProcessed]).To(HaveLen(2))
			Expect(sleeps).To(BeEmpty())
		})
	})

	Context("with tiles that end in failure", func() {
		BeforeEach(func() {
			fake = &fakeBatchService{
				statuses:  []common.Status{common.StatusProcessing},
				tileCount: 3,
				tileFeeds: [][]common.TileInfo{
					allTiles(3, common.TileProcessed, common.TileFailed, common.TileProcessed),
				},
			}
		})

		It("returns the failed tiles instead of raising", func() {
			tilesPerStatus, err := batch.MonitorJob(ctx, job, options)
			Expect(err).NotTo(HaveOccurred())
			Expect(tilesPerStatus[common.TileProcessed]).To(HaveLen(2))
			Expect(tilesPerStatus[common.TileFailed]).To(HaveLen(1))
		})
	})

	Context("with a canceled context", func() {
		BeforeEach(func() {
			fake = &fakeBatchService{
				statuses:  []common.Status{common.StatusCreated, common.StatusProcessing},
				tileCount: 1,
				tileFeeds: [][]common.TileInfo{allTiles(1)},
			}
		})

		It("stops waiting", func() {
			canceled, cancel := context.WithCancel(ctx)
			cancel()
			_, err := batch.MonitorJob(canceled, job, options)
			Expect(err).To(MatchError(context.Canceled))
		})
	})
})

var _ = Describe("TilesPerStatus", func() {
	It("groups the tile feed by status", func() {
		fake := &fakeBatchService{
			statuses:  []common.Status{common.StatusProcessing},
			tileCount: 4,
			tileFeeds: [][]common.TileInfo{
				allTiles(4, common.TileProcessed, common.TileFailed, common.TilePending, common.TileScheduled),
			},
		}
		server := httptest.NewServer(fake.router())
		defer server.Close()
		tr := transport.New(context.Background(), transport.Config{BaseURL: server.URL},
			transport.WithHTTPClient(server.Client()),
			transport.WithRetries(0),
		)
		job, err := batch.NewJob(batch.NewClient(tr), "job-1", nil)
		Expect(err).NotTo(HaveOccurred())

		tilesPerStatus, err := batch.TilesPerStatus(context.Background(), job)
		Expect(err).NotTo(HaveOccurred())
		for _, status := range []string{common.TileProcessed, common.TileFailed, common.TilePending, common.TileScheduled} {
			Expect(tilesPerStatus[status]).To(HaveLen(1), fmt.Sprintf("status %s", status))
		}
	})
})
