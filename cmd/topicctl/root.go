package main

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"estate-discovery/internal/app"
	"estate-discovery/internal/domain"
	"estate-discovery/internal/infra/config"
	applog "estate-discovery/internal/infra/log"
	"estate-discovery/internal/usecase/discovery"
)

const commandTimeout = 30 * time.Second

type topicReader interface {
	ListActiveTopics(ctx context.Context) ([]domain.Topic, error)
	ContentCountBySlug(ctx context.Context, slug string) (discovery.ContentCountResult, error)
	RelatedBySlug(ctx context.Context, slug string, limit int) ([]domain.Topic, error)
}

type topicTagger interface {
	SuggestTopics(ctx context.Context, attrs domain.ContentAttributes) ([]domain.ScoredTopic, error)
	HandleJob(ctx context.Context, job domain.TagJob) ([]domain.ContentTopicEdge, error)
}

// cli хранит зависимости команд. Пустые поля заполняются из окружения перед запуском.
type cli struct {
	discovery topicReader
	tagging   topicTagger
	queue     domain.TagQueue
	migrate   func(ctx context.Context) error
	close     func()
}

var errQueueNotConfigured = errors.New("queue is not configured: set QUEUE_DRIVER")

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "topicctl",
		Short:         "Управление темами и тегированием контента",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.close != nil {
				c.close()
			}
		},
	}
	root.AddCommand(
		newTopicsCmd(c),
		newCountCmd(c),
		newRelatedCmd(c),
		newSuggestCmd(c),
		newTagCmd(c),
		newEnqueueCmd(c),
		newMigrateCmd(c),
	)
	return root
}

func (c *cli) init(ctx context.Context) error {
	if c.discovery != nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Parse()
	if err != nil {
		return err
	}
	logger := applog.NewLogger(cfg.AppEnv)
	deps, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	c.discovery = deps.Discovery
	c.tagging = deps.Tagging
	c.queue = deps.Queue
	c.migrate = deps.Migrate
	c.close = deps.Close
	return nil
}

func withTimeout(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, commandTimeout)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
