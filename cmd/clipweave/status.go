package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipweave/internal/ipc"
	"go.klb.dev/clipweave/internal/message"
	"go.klb.dev/clipweave/internal/status"
)

func newStatusCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show what a running clipweave is synchronising",
		Long: `Asks the running sync process, over its Unix socket, for the clipboards
it is synchronising, the last change it adopted and its failure state.

The socket is $XDG_RUNTIME_DIR/clipweave.sock unless CLIPWEAVE_SOCKET is set.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runStatus(v) },
	}

	cmd.Flags().Bool("json", false, "output raw JSON")
	addConfigFlag(cmd)

	return cmd
}

func runStatus(v *viper.Viper) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	s, err := status.Query(ctx)
	if err != nil {
		return err
	}

	if v.GetBool("json") {
		enc, _ := json.MarshalIndent(s, "", "  ")
		fmt.Println(string(enc))
		return nil
	}

	printStatus(s)
	return nil
}

func printStatus(s *message.Status) {
	w := tabwriter.NewWriter(os.Stdout, 1, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Socket:\t%s\n", ipc.SocketPath())
	fmt.Fprintf(w, "PID:\t%d\n", s.PID)
	fmt.Fprintf(w, "Started:\t%s (%s)\n", s.Started.UTC().Format(time.RFC3339), fmtAge(s.Started))
	fmt.Fprintf(w, "Runs:\t%d\n", s.Runs)
	if s.LastChange != nil {
		fmt.Fprintf(w, "Last change:\t%s (%s)\n", s.LastChange.Display, fmtAge(s.LastChange.At))
	} else {
		fmt.Fprintf(w, "Last change:\t-\n")
	}
	fmt.Fprintf(w, "Failures:\t%d (pain %.1f)\n", s.Failures, s.Pain)
	if s.LastError != "" {
		fmt.Fprintf(w, "Last error:\t%s\n", s.LastError)
	}
	fmt.Fprintln(w)
	_ = w.Flush()

	if len(s.Endpoints) == 0 {
		fmt.Println("No clipboards are being synchronised.")
		return
	}

	tw := tabwriter.NewWriter(os.Stdout, 1, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "\tKIND\tDISPLAY\n")
	_, _ = fmt.Fprintf(tw, "\t----\t-------\n")
	for _, ep := range s.Endpoints {
		marker := ""
		if s.LastChange != nil && s.LastChange.Display == ep.Display {
			marker = "*"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", marker, ep.Kind, ep.Display)
	}
	_ = tw.Flush()
}

func fmtAge(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	age := time.Since(t).Round(time.Second)
	if age < time.Minute {
		return fmt.Sprintf("%ds ago", int(age.Seconds()))
	}
	if age < time.Hour {
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	}
	return t.Format("15:04:05")
}
