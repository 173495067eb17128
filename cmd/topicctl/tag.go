package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"estate-discovery/internal/domain"
)

type attrFlags struct {
	tags     []string
	features []string
	category string
}

func (f *attrFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.tags, "tag", nil, "тег контента (можно повторять)")
	cmd.Flags().StringSliceVar(&f.features, "feature", nil, "особенность объекта (можно повторять)")
	cmd.Flags().StringVar(&f.category, "category", "", "категория партнёра")
}

func (f *attrFlags) attributes() domain.ContentAttributes {
	return domain.ContentAttributes{Tags: f.tags, PropertyFeatures: f.features, PartnerCategory: f.category}
}

func (f *attrFlags) set() bool {
	return len(f.tags) > 0 || len(f.features) > 0 || f.category != ""
}

func newSuggestCmd(c *cli) *cobra.Command {
	var attrs attrFlags
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Предложить темы по атрибутам контента",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			scored, err := c.tagging.SuggestTopics(ctx, attrs.attributes())
			if err != nil {
				return err
			}
			return printJSON(cmd, scored)
		},
	}
	attrs.bind(cmd)
	return cmd
}

type jobFlags struct {
	kind   string
	topics []string
	attrs  attrFlags
}

func (f *jobFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.kind, "kind", "", "тип контента: card или short")
	cmd.Flags().StringSliceVar(&f.topics, "topic", nil, "ID темы (можно повторять)")
	f.attrs.bind(cmd)
}

func (f *jobFlags) job(contentID string) (domain.TagJob, error) {
	kind := domain.ContentKind(f.kind)
	switch kind {
	case "", domain.ContentKindCard, domain.ContentKindShort:
	default:
		return domain.TagJob{}, fmt.Errorf("unknown --kind %q: want card or short", f.kind)
	}
	job := domain.TagJob{ContentID: contentID, Kind: kind, TopicIDs: f.topics, Cause: domain.TagCauseAdmin}
	if f.attrs.set() {
		attrs := f.attrs.attributes()
		job.Attributes = &attrs
	}
	return job, nil
}

func newTagCmd(c *cli) *cobra.Command {
	var flags jobFlags
	cmd := &cobra.Command{
		Use:   "tag <contentID>",
		Short: "Синхронно заменить темы контента",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := flags.job(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			edges, err := c.tagging.HandleJob(ctx, job)
			if err != nil {
				return err
			}
			return printJSON(cmd, edges)
		},
	}
	flags.bind(cmd)
	return cmd
}

func newEnqueueCmd(c *cli) *cobra.Command {
	var flags jobFlags
	cmd := &cobra.Command{
		Use:   "enqueue <contentID>",
		Short: "Поставить задачу тегирования в очередь",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.queue == nil {
				return errQueueNotConfigured
			}
			job, err := flags.job(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			if err := c.queue.Enqueue(ctx, job); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queued %s\n", args[0])
			return nil
		},
	}
	flags.bind(cmd)
	return cmd
}

func newMigrateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Применить схему Postgres",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.migrate == nil {
				return nil
			}
			ctx, cancel := context.WithTimeout(context.Background(), 2*commandTimeout)
			defer cancel()
			if err := c.migrate(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return nil
		},
	}
}
