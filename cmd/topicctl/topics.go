package main

import (
	"github.com/spf13/cobra"
)

func newTopicsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "topics",
		Short: "Список активных тем",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			topics, err := c.discovery.ListActiveTopics(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd, topics)
		},
	}
}

func newCountCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "count <slug>",
		Short: "Количество явно привязанного контента темы",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			res, err := c.discovery.ContentCountBySlug(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{
				"topicId":              res.TopicID,
				"count":                res.Count,
				"hasSufficientContent": res.HasSufficientContent,
				"minimumRequired":      res.MinimumRequired,
			})
		},
	}
}

func newRelatedCmd(c *cli) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "related <slug>",
		Short: "Похожие темы по пересечению словарей",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			topics, err := c.discovery.RelatedBySlug(ctx, args[0], limit)
			if err != nil {
				return err
			}
			return printJSON(cmd, topics)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "сколько тем вернуть (по умолчанию из конфига)")
	return cmd
}
