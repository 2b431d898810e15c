package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dualikorea/reception/internal/advisor"
	"github.com/dualikorea/reception/internal/ledger"
	"github.com/dualikorea/reception/internal/models"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List requests, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		category, _ := cmd.Flags().GetString("category")
		search, _ := cmd.Flags().GetString("search")
		asJSON, _ := cmd.Flags().GetBool("json")

		if strings.EqualFold(category, ledger.AllCategories) {
			category = ledger.AllCategories
		} else {
			c, err := models.ParseCategory(category)
			if err != nil {
				return err
			}
			category = string(c)
		}

		items := store.Filter(category, search)
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), items)
		}
		if len(items) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No matching requests.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCATEGORY\tCUSTOMER\tPRODUCT\tQTY\tSTATUS\tRECEIVED\tISSUE")
		for _, item := range items {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
				item.ID, item.Category, item.Customer, item.Product, item.Qty, item.Status, item.ReceiveDate, item.Issue)
		}
		return w.Flush()
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show request counts by status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st := store.Stats()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(cmd.OutOrStdout(), st)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Total:       %d\n", st.Total)
		fmt.Fprintf(out, "Pending:     %d\n", st.Pending)
		fmt.Fprintf(out, "In progress: %d\n", st.InProgress)
		fmt.Fprintf(out, "Completed:   %d\n", st.Completed)
		return nil
	},
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a new request",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		categoryArg, _ := flags.GetString("category")
		category, err := models.ParseCategory(categoryArg)
		if err != nil {
			return err
		}

		draft := models.Draft{Category: category}
		draft.Customer, _ = flags.GetString("customer")
		draft.Product, _ = flags.GetString("product")
		draft.Qty, _ = flags.GetInt("qty")
		draft.Issue, _ = flags.GetString("issue")
		draft.ReceiveDate, _ = flags.GetString("received")
		draft.BuyDate, _ = flags.GetString("bought")
		if draft.ReceiveDate == "" {
			draft.ReceiveDate = models.Today(time.Now())
		}

		item, err := store.Add(draft)
		if err != nil {
			return err
		}
		if err := store.LastSaveError(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Recorded request %s\n", item.ID)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <id> <pending|in_progress|completed>",
	Short: "Change a request's status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := models.ParseStatus(args[1])
		if err != nil {
			return err
		}
		return updateAndPrint(cmd, args[0], models.Changes{Status: &status})
	},
}

var processCmd = &cobra.Command{
	Use:   "process <id> <repair|replacement|impossible|other>",
	Short: "Record how a request was processed",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		processType, err := models.ParseProcessType(args[1])
		if err != nil {
			return err
		}
		changes := models.Changes{ProcessType: &processType}
		if cmd.Flags().Changed("note") {
			note, _ := cmd.Flags().GetString("note")
			changes.ProcessNote = &note
		}
		return updateAndPrint(cmd, args[0], changes)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a request permanently",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := store.Resolve(args[0])
		if err != nil {
			return err
		}
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return errors.New("deleting is irreversible; re-run with --yes to confirm")
		}
		if err := store.Remove(id); err != nil {
			return err
		}
		if err := store.LastSaveError(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted request %s\n", id)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write the ledger as a JSON array",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 || args[0] == "-" {
			return writeJSON(cmd.OutOrStdout(), store.List())
		}
		f, err := os.Create(args[0])
		if err != nil {
			return err
		}
		if err := writeJSON(f, store.List()); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the ledger with a JSON array export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		var items []models.RequestItem
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("failed to parse %s: %w", args[0], err)
		}
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return fmt.Errorf("import replaces all %d requests; re-run with --yes to confirm", len(store.List()))
		}
		if err := store.Replace(items); err != nil {
			return err
		}
		if err := store.LastSaveError(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d requests\n", len(items))
		return nil
	},
}

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose <id>",
	Short: "Ask the AI advisor about a request's issue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := store.Resolve(args[0])
		if err != nil {
			return err
		}
		item, err := store.Get(id)
		if err != nil {
			return err
		}
		client := advisor.New(advisor.Config{
			APIKey:   cfg.Advisor.APIKey,
			Model:    cfg.Advisor.Model,
			Endpoint: cfg.Advisor.Endpoint,
			Timeout:  cfg.Advisor.Timeout,
		})
		text := client.Diagnose(context.Background(), item.Issue, item.Product)
		fmt.Fprintln(cmd.OutOrStdout(), advisor.FormatAdvice(item, text))
		return nil
	},
}

var backupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "List preserved copies of corrupt ledger data",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		keys, err := database.Keys(ledger.SlotKey + ".corrupt-")
		if err != nil {
			return err
		}
		if len(keys) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No backups.")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.Join(keys, "\n"))
		return nil
	},
}

func init() {
	listCmd.Flags().String("category", ledger.AllCategories, "repair, development or all")
	listCmd.Flags().String("search", "", "match customer, product or issue")
	listCmd.Flags().Bool("json", false, "output JSON")

	statsCmd.Flags().Bool("json", false, "output JSON")

	addCmd.Flags().String("category", string(models.CategoryRepair), "repair or development")
	addCmd.Flags().String("customer", "", "customer name (required)")
	addCmd.Flags().String("product", "", "product (required)")
	addCmd.Flags().Int("qty", 1, "quantity")
	addCmd.Flags().String("issue", "", "issue description (required)")
	addCmd.Flags().String("received", "", "receive date YYYY-MM-DD (default today)")
	addCmd.Flags().String("bought", "", "buy date YYYY-MM-DD")

	processCmd.Flags().String("note", "", "processing note")

	deleteCmd.Flags().Bool("yes", false, "confirm deletion")
	importCmd.Flags().Bool("yes", false, "confirm replacing the ledger")

	rootCmd.AddCommand(listCmd, statsCmd, addCmd, statusCmd, processCmd, deleteCmd,
		exportCmd, importCmd, diagnoseCmd, backupsCmd)
}

func updateAndPrint(cmd *cobra.Command, ref string, changes models.Changes) error {
	id, err := store.Resolve(ref)
	if err != nil {
		return err
	}
	item, err := store.Update(id, changes)
	if err != nil {
		return err
	}
	if err := store.LastSaveError(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s", item.ID, item.Status)
	if item.ProcessType != "" {
		fmt.Fprintf(cmd.OutOrStdout(), ", %s", item.ProcessType)
	}
	if item.ProcessDate != "" {
		fmt.Fprintf(cmd.OutOrStdout(), ", processed %s", item.ProcessDate)
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
