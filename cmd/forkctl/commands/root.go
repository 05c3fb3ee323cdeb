package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"connectrpc.com/connect"
	"github.com/spf13/cobra"

	"github.com/mmynk/forkthebill/pkg/api"
	"github.com/mmynk/forkthebill/pkg/api/apiconnect"
)

const defaultServer = "http://localhost:8080"

type options struct {
	server  string
	jsonOut bool
	timeout time.Duration
	client  apiconnect.ExpenseServiceClient
}

// Execute runs the forkctl command tree.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the command tree. The server URL defaults to $FORKTHEBILL_SERVER.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "forkctl",
		Short:        "Split restaurant bills from the command line",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.server == "" {
				opts.server = defaultServer
			}
			opts.client = apiconnect.NewExpenseServiceClient(
				&http.Client{Timeout: opts.timeout},
				opts.server,
			)
			return nil
		},
	}

	server := os.Getenv("FORKTHEBILL_SERVER")
	root.PersistentFlags().StringVar(&opts.server, "server", server, "server base URL (default "+defaultServer+")")
	root.PersistentFlags().BoolVar(&opts.jsonOut, "json", false, "print the expense as JSON")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 2*time.Minute, "request timeout")

	root.AddCommand(
		parseCmd(opts),
		getCmd(opts),
		claimCmd(opts),
		unclaimCmd(opts),
		addPersonCmd(opts),
		finishCmd(opts),
		pendingCmd(opts),
	)
	return root
}

func printExpense(w io.Writer, opts *options, resp *connect.Response[api.ExpenseResponse]) error {
	e := resp.Msg.Expense
	if e == nil {
		return fmt.Errorf("server returned no expense")
	}
	if opts.jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(e)
	}

	fmt.Fprintf(w, "Slug:    %s\n", e.Slug)
	fmt.Fprintf(w, "Payer:   %s\n", e.PayerName)
	if e.RestaurantName != "" {
		fmt.Fprintf(w, "Place:   %s\n", e.RestaurantName)
	}
	fmt.Fprintf(w, "Total:   %s (subtotal %s)\n\n", e.TotalAmount, e.Subtotal)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ITEM\tNAME\tPRICE\tCLAIMED BY")
	for _, item := range e.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", item.ID, item.Name, item.Price, len(item.ClaimedBy))
	}
	if len(e.People) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "PERSON\tNAME\tOWES\tSTATUS")
		for _, p := range e.People {
			status := "pending"
			if p.Finished {
				status = "finished"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.TotalOwed, status)
		}
	}
	return tw.Flush()
}
