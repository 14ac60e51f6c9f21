package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/airbusgeo/sentinelhub-batch-go/batch"
	"github.com/airbusgeo/sentinelhub-batch-go/common"
	"github.com/airbusgeo/sentinelhub-batch-go/interface/storage"
	"github.com/airbusgeo/sentinelhub-batch-go/interface/transport"
	"github.com/airbusgeo/sentinelhub-batch-go/service"
	"github.com/airbusgeo/sentinelhub-batch-go/service/log"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type awsConfig struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
}

type config struct {
	Command      string
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	JobIDs       []string
	UserID       string
	Search       string
	SleepTime    time.Duration
	LocalDir     string
	AwsConfig    awsConfig
}

func newAppConfig() (*config, error) {
	command := flag.String("cmd", "jobs", "command to run (jobs, grids, collections, monitor, download)")
	baseURL := flag.String("url", "https://services.sentinel-hub.com", "batch service base url")
	tokenURL := flag.String("token-url", "https://services.sentinel-hub.com/oauth/token", "oauth2 token endpoint")
	clientID := flag.String("client-id", os.Getenv("SH_CLIENT_ID"), "oauth2 client id (defaults to SH_CLIENT_ID)")
	clientSecret := flag.String("client-secret", os.Getenv("SH_CLIENT_SECRET"), "oauth2 client secret (defaults to SH_CLIENT_SECRET)")
	jobIDs := flag.String("jobs", "", "comma-separated batch request ids (monitor, download)")
	userID := flag.String("user", "", "only list the batch requests of this user (jobs)")
	search := flag.String("search", "", "only list the batch requests matching this text (jobs)")
	sleepTime := flag.Duration("sleep", 2*time.Minute, "pause between two progress samples (monitor)")
	localDir := flag.String("dir", ".", "local directory where results are downloaded (download)")
	awsAccessKeyID := flag.String("aws-access-key-id", os.Getenv("AWS_ACCESS_KEY_ID"), "aws access key id (download)")
	awsSecretAccessKey := flag.String("aws-secret-access-key", os.Getenv("AWS_SECRET_ACCESS_KEY"), "aws secret access key (download)")
	awsRegion := flag.String("aws-region", "eu-central-1", "aws region of the results bucket (download)")
	flag.Parse()

	if *baseURL == "" {
		return nil, fmt.Errorf("missing url config flag")
	}
	if *clientID == "" || *clientSecret == "" {
		return nil, fmt.Errorf("missing oauth2 client credentials")
	}
	var jobs []string
	if *jobIDs != "" {
		jobs = strings.Split(*jobIDs, ",")
	}
	return &config{
		Command:      *command,
		BaseURL:      *baseURL,
		TokenURL:     *tokenURL,
		ClientID:     *clientID,
		ClientSecret: *clientSecret,
		JobIDs:       jobs,
		UserID:       *userID,
		Search:       *search,
		SleepTime:    *sleepTime,
		LocalDir:     *localDir,
		AwsConfig: awsConfig{
			AccessKeyID:     *awsAccessKeyID,
			SecretAccessKey: *awsSecretAccessKey,
			Region:          *awsRegion,
		},
	}, nil
}

func main() {
	ctx := context.Background()
	err := run(ctx)
	if err != nil {
		log.Fatal("error", zap.Error(err))
	}
}

func run(ctx context.Context) error {
	cfg, err := newAppConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	client := batch.NewClient(transport.New(ctx, transport.Config{
		BaseURL:      cfg.BaseURL,
		TokenURL:     cfg.TokenURL,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
	}, transport.WithSession()))

	switch cfg.Command {
	case "jobs":
		return listJobs(ctx, client, cfg)
	case "grids":
		return listGrids(ctx, client)
	case "collections":
		return listCollections(ctx, client)
	case "monitor":
		return monitorJobs(ctx, client, cfg)
	case "download":
		return downloadResults(ctx, client, cfg)
	}
	return fmt.Errorf("unknown command %q", cfg.Command)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func listJobs(ctx context.Context, client *batch.Client, cfg *config) error {
	var opts []batch.QueryOption
	if cfg.UserID != "" {
		opts = append(opts, batch.UserID(cfg.UserID))
	}
	if cfg.Search != "" {
		opts = append(opts, batch.Search(cfg.Search))
	}
	ji := client.IterRequests(opts...)
	for ji.Next(ctx) {
		desc, err := ji.Job().Description(ctx)
		if err != nil {
			return fmt.Errorf("listJobs.%w", err)
		}
		if err := printJSON(desc); err != nil {
			return fmt.Errorf("listJobs.%w", err)
		}
	}
	if err := ji.Err(); err != nil {
		return fmt.Errorf("listJobs.%w", err)
	}
	return nil
}

func listGrids(ctx context.Context, client *batch.Client) error {
	it := client.IterTilingGrids()
	for it.Next(ctx) {
		var grid common.TilingGridInfo
		if err := it.Decode(&grid); err != nil {
			return fmt.Errorf("listGrids.%w", err)
		}
		if err := printJSON(grid); err != nil {
			return fmt.Errorf("listGrids.%w", err)
		}
	}
	if err := it.Err(); err != nil {
		return fmt.Errorf("listGrids.%w", err)
	}
	return nil
}

func listCollections(ctx context.Context, client *batch.Client) error {
	it := client.IterCollections()
	for it.Next(ctx) {
		var collection common.Collection
		if err := it.Decode(&collection); err != nil {
			return fmt.Errorf("listCollections.%w", err)
		}
		if err := printJSON(collection); err != nil {
			return fmt.Errorf("listCollections.%w", err)
		}
	}
	if err := it.Err(); err != nil {
		return fmt.Errorf("listCollections.%w", err)
	}
	return nil
}

func selectedJobs(ctx context.Context, client *batch.Client, cfg *config) ([]*batch.Job, error) {
	if len(cfg.JobIDs) == 0 {
		job, err := client.GetLatestRequest(ctx)
		if err != nil {
			return nil, err
		}
		return []*batch.Job{job}, nil
	}
	jobs := make([]*batch.Job, 0, len(cfg.JobIDs))
	for _, id := range cfg.JobIDs {
		job, err := batch.NewJob(client, id, nil)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func monitorJobs(ctx context.Context, client *batch.Client, cfg *config) error {
	jobs, err := selectedJobs(ctx, client, cfg)
	if err != nil {
		return fmt.Errorf("monitorJobs.%w", err)
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			jctx := log.With(gctx, zap.String("job", job.ID))
			tilesPerStatus, err := batch.MonitorJob(jctx, job, batch.MonitorOptions{SleepTime: cfg.SleepTime})
			if err != nil {
				return fmt.Errorf("monitor %s: %w", job.ID, err)
			}
			if failed := tilesPerStatus[common.TileFailed]; len(failed) > 0 {
				log.Logger(jctx).Sugar().Warnf("%d tiles failed", len(failed))
			}
			return nil
		})
	}
	return g.Wait()
}

func downloadResults(ctx context.Context, client *batch.Client, cfg *config) error {
	jobs, err := selectedJobs(ctx, client, cfg)
	if err != nil {
		return fmt.Errorf("downloadResults.%w", err)
	}
	downloader := storage.NewS3Downloader(cfg.AwsConfig.AccessKeyID, cfg.AwsConfig.SecretAccessKey, cfg.AwsConfig.Region)
	for _, job := range jobs {
		desc, err := job.Description(ctx)
		if err != nil {
			return fmt.Errorf("downloadResults.%w", err)
		}
		if desc.BucketName == "" {
			return fmt.Errorf("downloadResults: batch request %s has no results bucket", job.ID)
		}
		var n int
		if err := service.Retriable(ctx, func() error {
			var err error
			n, err = downloader.DownloadResults(ctx, desc.BucketName, job.ID, cfg.LocalDir)
			return err
		}, 5*time.Second, 3); err != nil {
			return fmt.Errorf("downloadResults.%w (after 3 retries)", err)
		}
		log.Logger(ctx).Sugar().Infof("downloaded %d files from s3://%s/%s", n, desc.BucketName, job.ID)
	}
	return nil
}
