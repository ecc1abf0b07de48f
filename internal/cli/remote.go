package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"assetwatch/internal/assetbus"
	"assetwatch/internal/waiter"
)

func newStartCmd(opts *Options) *cobra.Command {
	return &cobra.Command{Use: "start", Short: "Open a tracking window (clears the table)", Args: cobra.NoArgs, RunE: func(cmd *cobra.Command, args []string) error {
		return opts.client().StartTracking(cmd.Context())
	}}
}

func newStopCmd(opts *Options) *cobra.Command {
	return &cobra.Command{Use: "stop", Short: "Close the tracking window", Args: cobra.NoArgs, RunE: func(cmd *cobra.Command, args []string) error {
		return opts.client().StopTracking(cmd.Context())
	}}
}

func newExpectCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:     "expect <path> [count]",
		Short:   "Declare that an asset must finish compiling count more times (default 1)",
		Example: "  assetwatch expect Materials/Brick.material\n  assetwatch expect Models/Foo.fbx 2",
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			count := uint64(1)
			if len(args) == 2 {
				var err error
				if count, err = strconv.ParseUint(args[1], 10, 32); err != nil {
					return fmt.Errorf("invalid count %q", args[1])
				}
			}
			return opts.client().ExpectAsset(cmd.Context(), args[0], uint32(count))
		},
	}
}

func newPublishCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:     "publish <started|succeeded|failed> <path>",
		Short:   "Publish a compilation event on the server's bus",
		Example: "  assetwatch publish succeeded Models/Foo.fbx",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := assetbus.ParseKind(args[0])
			if err != nil {
				return err
			}
			return opts.client().Publish(cmd.Context(), assetbus.Event{Kind: kind, Path: args[1]})
		},
	}
}

func newStatusCmd(opts *Options) *cobra.Command {
	return &cobra.Command{Use: "status", Short: "Print the asset status table as JSON", Args: cobra.NoArgs, RunE: func(cmd *cobra.Command, args []string) error {
		st, err := opts.client().Status(cmd.Context())
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}}
}

func newWaitCmd(opts *Options) *cobra.Command {
	var timeout, interval time.Duration
	cmd := &cobra.Command{
		Use:     "wait",
		Short:   "Block until every expected asset finished compiling",
		Example: "  assetwatch wait --timeout 10m",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := opts.client()
			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			var last []string
			err := waiter.Until(ctx, interval, func(ctx context.Context) (bool, error) {
				fin, err := c.Finished(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return false, nil
					}
					return false, err
				}
				last = fin.Outstanding
				return fin.Finished, nil
			})
			if errors.Is(err, waiter.ErrTimeout) {
				return fmt.Errorf("%w; outstanding: %s", err, strings.Join(last, ", "))
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "all expected assets finished")
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "Give up after this long (0 waits forever)")
	cmd.Flags().DurationVar(&interval, "interval", waiter.DefaultInterval, "Poll interval")
	return cmd
}
