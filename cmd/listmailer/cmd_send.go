package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nhle/listmailer/internal/merge"
	"github.com/nhle/listmailer/internal/model"
)

func (c *cli) sendCmd() *cobra.Command {
	var (
		listName string
		tplKey   string
		mapping  model.FieldMapping
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a template to every record of a list",
		Long: `Fill a catalog template for every record of a list and deliver it
through the configured transport. Column names are mapped to the
firstName, lastName and email placeholders with flags.

Example:
  listmailer send --list customers --template 1 --first-name "First Name" --email Email`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			idx, err := c.svc.Lists.Find(listName)
			if err != nil {
				return err
			}
			list := c.svc.Lists.All()[idx]

			tpl, ok := merge.FindTemplate(tplKey)
			if !ok {
				return fmt.Errorf("unknown template %q, see 'listmailer templates'", tplKey)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			rep, err := c.svc.Engine.Send(ctx, tpl, mapping, list.Data, func(p merge.Progress) {
				fmt.Fprintf(out, "Sending email %d/%d (%d%%)\n", p.Current, p.Total, p.Percent)
			})
			if err != nil {
				if rep.Sent > 0 {
					fmt.Fprintf(out, "%d of %d emails sent before stopping\n", rep.Sent, rep.Total)
				}
				return err
			}

			fmt.Fprintf(out, "%d emails processed successfully\n", rep.Sent)
			return nil
		},
	}

	cmd.Flags().StringVarP(&listName, "list", "l", "", "Name of the list to send to")
	cmd.Flags().StringVarP(&tplKey, "template", "t", "1", "Template ID or title")
	cmd.Flags().StringVar(&mapping.FirstName, "first-name", "", "Column holding the first name")
	cmd.Flags().StringVar(&mapping.LastName, "last-name", "", "Column holding the last name")
	cmd.Flags().StringVar(&mapping.Email, "email", "", "Column holding the email address")
	_ = cmd.MarkFlagRequired("list")

	return cmd
}

func (c *cli) templatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "Print the template catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var rows [][]string
			for _, t := range merge.Catalog() {
				vars := merge.Placeholders(t.Subject + "\n" + t.Body)
				rows = append(rows, []string{strconv.Itoa(t.ID), t.Title, strings.Join(vars, ", ")})
			}
			return printTable(cmd.OutOrStdout(), []string{"ID", "Title", "Placeholders"}, rows)
		},
	}
}
