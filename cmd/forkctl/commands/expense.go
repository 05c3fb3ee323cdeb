package commands

import (
	"fmt"
	"net/http"
	"os"

	"connectrpc.com/connect"
	"github.com/spf13/cobra"

	"github.com/mmynk/forkthebill/pkg/api"
)

func parseCmd(opts *options) *cobra.Command {
	var payer, mimeType string
	cmd := &cobra.Command{
		Use:   "parse <image>",
		Short: "Create an expense from a photo of a bill",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			image, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if mimeType == "" {
				mimeType = http.DetectContentType(image)
			}
			resp, err := opts.client.CreateExpenseFromImage(cmd.Context(), connect.NewRequest(&api.CreateExpenseFromImageRequest{
				PayerName: payer,
				Image:     image,
				MimeType:  mimeType,
			}))
			if err != nil {
				return err
			}
			return printExpense(cmd.OutOrStdout(), opts, resp)
		},
	}
	cmd.Flags().StringVar(&payer, "payer", "", "name of the person who paid")
	cmd.Flags().StringVar(&mimeType, "mime-type", "", "image type (detected when empty)")
	_ = cmd.MarkFlagRequired("payer")
	return cmd
}

func getCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "get <slug>",
		Short: "Show an expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := opts.client.GetExpense(cmd.Context(), connect.NewRequest(&api.GetExpenseRequest{Slug: args[0]}))
			if err != nil {
				return err
			}
			return printExpense(cmd.OutOrStdout(), opts, resp)
		},
	}
}

func claimCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "claim <slug> <item-id> <person-id>",
		Short: "Claim an item for a person",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := opts.client.ClaimItem(cmd.Context(), connect.NewRequest(&api.ClaimRequest{
				Slug: args[0], ItemID: args[1], PersonID: args[2],
			}))
			if err != nil {
				return err
			}
			return printExpense(cmd.OutOrStdout(), opts, resp)
		},
	}
}

func unclaimCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "unclaim <slug> <item-id> <person-id>",
		Short: "Release a person's claim on an item",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := opts.client.UnclaimItem(cmd.Context(), connect.NewRequest(&api.ClaimRequest{
				Slug: args[0], ItemID: args[1], PersonID: args[2],
			}))
			if err != nil {
				return err
			}
			return printExpense(cmd.OutOrStdout(), opts, resp)
		},
	}
}

func addPersonCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "add-person <slug> <name>",
		Short: "Add a participant to an expense",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := opts.client.AddPerson(cmd.Context(), connect.NewRequest(&api.AddPersonRequest{
				Slug: args[0], Name: args[1],
			}))
			if err != nil {
				return err
			}
			return printExpense(cmd.OutOrStdout(), opts, resp)
		},
	}
}

func finishCmd(opts *options) *cobra.Command {
	return statusCmd(opts, "finish", "Mark a person as done claiming", true)
}

func pendingCmd(opts *options) *cobra.Command {
	return statusCmd(opts, "pending", "Mark a person as still claiming", false)
}

func statusCmd(opts *options, use, short string, finished bool) *cobra.Command {
	return &cobra.Command{
		Use:   fmt.Sprintf("%s <slug> <person-id>", use),
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := connect.NewRequest(&api.PersonStatusRequest{Slug: args[0], PersonID: args[1]})
			var (
				resp *connect.Response[api.ExpenseResponse]
				err  error
			)
			if finished {
				resp, err = opts.client.MarkPersonFinished(cmd.Context(), req)
			} else {
				resp, err = opts.client.MarkPersonPending(cmd.Context(), req)
			}
			if err != nil {
				return err
			}
			return printExpense(cmd.OutOrStdout(), opts, resp)
		},
	}
}
