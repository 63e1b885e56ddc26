// movies-api/cmd/moviectl/commands.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"movies-api/internal/clients"
)

const defaultAddr = "localhost:9092"

type dialFunc func(addr string, logger *slog.Logger) (clients.MovieServiceClient, error)

func defaultDial(addr string, logger *slog.Logger) (clients.MovieServiceClient, error) {
	return clients.NewMovieServiceGRPCClient(addr, logger)
}

// newRootCmd собирает дерево команд. dial подменяется в тестах.
func newRootCmd(out, errOut io.Writer, dial ...dialFunc) *cobra.Command {
	connect := defaultDial
	if len(dial) > 0 {
		connect = dial[0]
	}

	var (
		addr    string
		verbose bool
	)
	root := &cobra.Command{
		Use:           "moviectl",
		Short:         "Query the movies MovieLookup gRPC service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.PersistentFlags().StringVar(&addr, "addr", defaultAddr, "MovieLookup gRPC address")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log client activity to stderr")

	open := func() (clients.MovieServiceClient, error) {
		level := slog.LevelError
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level}))
		return connect(addr, logger)
	}

	root.AddCommand(&cobra.Command{
		Use:   "info <movieId>",
		Short: "Print a movie as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseMovieID(args[0])
			if err != nil {
				return err
			}
			client, err := open()
			if err != nil {
				return err
			}
			defer client.Close()

			movie, err := client.GetMovieInfo(cmd.Context(), id)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(movie)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "exists <movieId>",
		Short: "Report whether a movie exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseMovieID(args[0])
			if err != nil {
				return err
			}
			client, err := open()
			if err != nil {
				return err
			}
			defer client.Close()

			exists, err := client.CheckMovieExists(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), exists)
			return nil
		},
	})

	return root
}

func parseMovieID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("movieId must be an integer, got %q", raw)
	}
	return id, nil
}
