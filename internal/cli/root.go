package cli

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kode4food/bpmspec/internal/config"
	"github.com/kode4food/bpmspec/pkg/log"
)

const Name = "bpmspec"

// Version is stamped at build time with -ldflags
var Version = "dev"

var ErrScenariosFailed = errors.New("scenarios failed")

// NewRootCommand creates the root command. Flags default to the values
// already in cfg, so environment settings loaded beforehand are overridden
// only by flags given explicitly
func NewRootCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   Name,
		Short: "Behaviour-driven acceptance tests for BPM processes",
		Long: `bpmspec runs GIVEN/WHEN/THEN scenarios written in YAML against a
process engine. Scenarios that declare their own models run on an in-memory
engine. All others run against the Flowable REST API at --engine-url.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return setupLogging(cmd, cfg)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&cfg.EngineURL, "engine-url", cfg.EngineURL,
		"Flowable REST base URL (empty runs in memory)")
	pf.StringVar(&cfg.User, "user", cfg.User, "engine user")
	pf.StringVar(&cfg.Password, "password", cfg.Password, "engine password")
	pf.StringVar(&cfg.Tenant, "tenant", cfg.Tenant, "default tenant id")
	pf.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout,
		"engine request timeout")
	pf.DurationVar(&cfg.JobTimeout, "job-timeout", cfg.JobTimeout,
		"default limit for draining jobs")
	pf.DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval,
		"job polling interval")
	pf.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr,
		"also publish trace phrases to this Redis server")
	pf.StringVar(&cfg.RedisKey, "redis-key", cfg.RedisKey,
		"Redis list receiving trace phrases")
	pf.StringVar(&cfg.ArchiveBucket, "archive-bucket", cfg.ArchiveBucket,
		"bucket URL for archived audit trails (s3://, gs://, azblob://, "+
			"file://)")
	pf.StringVar(&cfg.ArchivePrefix, "archive-prefix", cfg.ArchivePrefix,
		"default key prefix for archived audit trails")
	pf.BoolVar(&cfg.Styled, "styled", cfg.Styled, "colour trace output")
	pf.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel,
		"debug, info, warn or error")

	cmd.AddCommand(
		newRunCommand(cfg),
		newValidateCommand(),
	)
	return cmd
}

func setupLogging(cmd *cobra.Command, cfg *config.Config) error {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := log.NewTo(
		cmd.ErrOrStderr(), Name, os.Getenv("ENV"), Version, level,
	)
	slog.SetDefault(logger)
	slog.Debug("Configuration loaded",
		slog.String("engine_url", cfg.EngineURL),
		slog.String("tenant", cfg.Tenant),
		slog.String("redis_addr", cfg.RedisAddr),
		slog.String("archive_bucket", cfg.ArchiveBucket),
		slog.String("log_level", cfg.LogLevel))
	return nil
}
