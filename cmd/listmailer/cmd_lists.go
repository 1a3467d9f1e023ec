package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/listmailer/internal/listimport"
)

// errNotConfirmed is returned by destructive commands run without --yes.
var errNotConfirmed = errors.New("refusing to delete without --yes")

func (c *cli) importCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import a CSV file as a new list",
		Long: `Parse a CSV file, drop blocked and duplicate addresses and save the
remaining records as a list. The file needs an Email column.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			p, err := listimport.File(path, c.svc.Blocked)
			if err != nil {
				return err
			}

			if name == "" {
				name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			}
			if err := c.svc.Lists.Create(cmd.Context(), name, p.Records, p.Duplicates, p.Blocked); err != nil {
				return err
			}
			c.logger.Info("list imported",
				zap.String("name", name),
				zap.Int("records", len(p.Records)),
				zap.Int("duplicates", len(p.Duplicates)),
				zap.Int("blocked", len(p.Blocked)),
			)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Saved list %q with %d records\n", name, len(p.Records))
			if len(p.Duplicates) > 0 {
				fmt.Fprintf(out, "Skipped %d duplicate(s): %s\n", len(p.Duplicates), strings.Join(p.Duplicates, ", "))
			}
			if len(p.Blocked) > 0 {
				fmt.Fprintf(out, "Skipped %d blocked: %s\n", len(p.Blocked), strings.Join(p.Blocked, ", "))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "List name (default: file name)")
	return cmd
}

func (c *cli) listsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lists",
		Short: "Show saved lists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			all := c.svc.Lists.All()
			out := cmd.OutOrStdout()
			if len(all) == 0 {
				fmt.Fprintln(out, "No lists saved yet.")
				return nil
			}

			rows := make([][]string, len(all))
			for i, l := range all {
				rows[i] = []string{
					l.Name,
					strconv.Itoa(len(l.Data)),
					strconv.Itoa(len(l.Duplicates)),
					strconv.Itoa(len(l.Blocked)),
				}
			}
			return printTable(out, []string{"Name", "Records", "Duplicates", "Blocked"}, rows)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show <name>",
		Short: "Print the records of a list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := c.svc.Lists.Find(args[0])
			if err != nil {
				return err
			}
			p, err := c.svc.Lists.Preview(idx)
			if err != nil {
				return err
			}

			rows := make([][]string, len(p.Records))
			for i, r := range p.Records {
				row := []string{strconv.Itoa(i + 1)}
				for _, h := range p.Headers {
					row = append(row, r.Value(h))
				}
				rows[i] = row
			}
			return printTable(cmd.OutOrStdout(), append([]string{"S. No"}, p.Headers...), rows)
		},
	})

	var yes bool
	del := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errNotConfirmed
			}
			idx, err := c.svc.Lists.Find(args[0])
			if err != nil {
				return err
			}
			if err := c.svc.Lists.Delete(cmd.Context(), idx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted list %q\n", args[0])
			return nil
		},
	}
	del.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm the deletion")
	cmd.AddCommand(del)

	return cmd
}
