// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jeranaias/nmessenger-tui/internal/history"
)

// seedLines is the demo conversation cycled through by seed.
var seedLines = []history.Record{
	{Kind: "text", Body: "hey, are you around?"},
	{Kind: "text", Body: "yep, what's up"},
	{Kind: "markdown", Body: "the deploy is **green** now, see `release-42`"},
	{Kind: "text", Body: "nice"},
	{Kind: "code", Language: "go", Body: "if err != nil {\n\treturn err\n}"},
	{Kind: "text", Body: "that's the whole fix?"},
	{Kind: "markdown", Body: "- bump the timeout\n- retry once\n- log the failure"},
	{Kind: "text", Body: "ship it"},
}

func newSeedCmd(flags *globalFlags) *cobra.Command {
	var (
		count   int
		senders string
		spacing time.Duration
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the history with a demo conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count <= 0 {
				return fmt.Errorf("--count must be positive")
			}
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			store, err := openHistory(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			names := splitNames(senders)
			if len(names) == 0 {
				names = []string{"ada"}
			}
			start := time.Now().Add(-time.Duration(count) * spacing)
			n, err := seed(cmd.Context(), store, cfg.UI.Sender, names, count, start, spacing)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %s messages into %s\n", humanize.Comma(int64(n)), store.Path())
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 60, "number of messages")
	cmd.Flags().StringVar(&senders, "senders", "ada,grace", "comma separated names of the other side")
	cmd.Flags().DurationVar(&spacing, "spacing", 2*time.Minute, "time between messages")
	return cmd
}

// seed appends count records alternating between me and the other senders.
// Every other exchange the same side posts twice so groups form.
func seed(ctx context.Context, store *history.Store, me string, others []string, count int, start time.Time, spacing time.Duration) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	for i := 0; i < count; i++ {
		r := seedLines[i%len(seedLines)]
		turn := i / 2
		r.Incoming = turn%2 == 0
		if r.Incoming {
			r.Sender = others[(turn/2)%len(others)]
		} else {
			r.Sender = me
		}
		r.SentAt = start.Add(time.Duration(i) * spacing)
		if _, err := store.Append(ctx, r); err != nil {
			return i, err
		}
	}
	return count, nil
}

func splitNames(s string) []string {
	var out []string
	for _, name := range strings.Split(s, ",") {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}
