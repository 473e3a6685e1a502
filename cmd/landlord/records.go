package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/localnerve/landlord-propsdb/internal/models"
	"github.com/localnerve/landlord-propsdb/internal/properties"
	"github.com/localnerve/landlord-propsdb/internal/records"
	"github.com/localnerve/landlord-propsdb/internal/store"
	"github.com/spf13/cobra"
)

// recordFilters builds the list filters shared by the record commands
func recordFilters(propertyID, status string) []store.Filter {
	var filters []store.Filter
	if propertyID != "" {
		filters = append(filters, store.Eq("property_id", propertyID))
	}
	if status != "" {
		filters = append(filters, store.Eq("status", status))
	}
	return filters
}

// whoamiCheck fails early with a clear message when no session is configured
func (app *cli) whoamiCheck(ctx context.Context) error {
	_, err := app.client.CurrentPrincipal(ctx)
	if err != nil {
		return describe(translateSession(err))
	}
	return nil
}

// translateSession reports a missing session the way the property list does
func translateSession(err error) error {
	if errors.Is(err, store.ErrNoSession) {
		return properties.ErrUnauthenticated
	}
	return err
}

func (app *cli) packagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "packages",
		Aliases: []string{"package", "pkgs"},
		Short:   "Manage received packages",
	}

	var propertyID, status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List packages, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.whoamiCheck(cmd.Context()); err != nil {
				return err
			}
			rows, err := records.Packages(app.client).List(cmd.Context(), recordFilters(propertyID, status)...)
			if err != nil {
				return err
			}
			if app.jsonOutput {
				return printJSON(cmd.OutOrStdout(), rows)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tRECIPIENT\tCARRIER\tTRACKING\tSTATUS\tRECEIVED")
			for _, p := range rows {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", p.ID, dash(p.Recipient), dash(p.Carrier),
					dash(p.TrackingNumber), p.Status, p.CreatedAt.Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		},
	}
	list.Flags().StringVar(&propertyID, "property", "", "only packages for this property id")
	list.Flags().StringVar(&status, "status", "", "only packages with this status")

	var pkg struct {
		propertyID, recipient, carrier, tracking, status, metadata string
	}
	add := &cobra.Command{
		Use:   "add",
		Short: "Record a received package",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fields := map[string]any{
				"recipient":       pkg.recipient,
				"carrier":         pkg.carrier,
				"tracking_number": pkg.tracking,
			}
			if pkg.propertyID != "" {
				fields["property_id"] = pkg.propertyID
			}
			if pkg.status != "" {
				fields["status"] = pkg.status
			}
			if pkg.metadata != "" {
				if !json.Valid([]byte(pkg.metadata)) {
					return fmt.Errorf("--metadata must be JSON")
				}
				fields["metadata"] = json.RawMessage(pkg.metadata)
			}

			if err := app.whoamiCheck(cmd.Context()); err != nil {
				return err
			}
			created, err := records.Packages(app.client).Create(cmd.Context(), fields)
			if err != nil {
				return err
			}
			if app.jsonOutput {
				return printJSON(cmd.OutOrStdout(), created)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded package: %s\n", created.ID)
			return nil
		},
	}
	add.Flags().StringVar(&pkg.propertyID, "property", "", "property id the package was delivered to")
	add.Flags().StringVar(&pkg.recipient, "recipient", "", "recipient name or unit")
	add.Flags().StringVar(&pkg.carrier, "carrier", "", "delivery service")
	add.Flags().StringVar(&pkg.tracking, "tracking", "", "tracking number")
	add.Flags().StringVar(&pkg.status, "status", "", "status (default "+models.PackageReceived+")")
	add.Flags().StringVar(&pkg.metadata, "metadata", "", "extra JSON metadata")
	_ = add.MarkFlagRequired("tracking")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a package record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.whoamiCheck(cmd.Context()); err != nil {
				return err
			}
			if err := records.Packages(app.client).Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted package: %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, add, del)
	return cmd
}

func (app *cli) claimsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claims",
		Short: "Package claims",
	}

	var propertyID, status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List package claims, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.whoamiCheck(cmd.Context()); err != nil {
				return err
			}
			rows, err := records.Claims(app.client).List(cmd.Context(), recordFilters(propertyID, status)...)
			if err != nil {
				return err
			}
			if app.jsonOutput {
				return printJSON(cmd.OutOrStdout(), rows)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTRACKING\tSTATUS\tCLAIMED")
			for _, c := range rows {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.ID, c.TrackingNumber, c.Status, c.CreatedAt.Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		},
	}
	list.Flags().StringVar(&propertyID, "property", "", "only claims for this property id")
	list.Flags().StringVar(&status, "status", "", "only claims with this status")

	cmd.AddCommand(list)
	return cmd
}

func (app *cli) updatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "updates",
		Short: "Property updates and notes",
	}

	var propertyID string
	list := &cobra.Command{
		Use:   "list",
		Short: "List property updates, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.whoamiCheck(cmd.Context()); err != nil {
				return err
			}
			rows, err := records.Updates(app.client).List(cmd.Context(), recordFilters(propertyID, "")...)
			if err != nil {
				return err
			}
			if app.jsonOutput {
				return printJSON(cmd.OutOrStdout(), rows)
			}
			for _, u := range rows {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  [%s] %s: %s\n",
					u.CreatedAt.Format("2006-01-02 15:04"), u.Type, dash(u.Author), u.Content)
			}
			return nil
		},
	}
	list.Flags().StringVar(&propertyID, "property", "", "only updates for this property id")

	cmd.AddCommand(list)
	return cmd
}

func (app *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed in landlord",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := app.client.CurrentPrincipal(cmd.Context())
			if err != nil {
				return describe(translateSession(err))
			}
			if app.jsonOutput {
				return printJSON(cmd.OutOrStdout(), p)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", p.Email, p.ID)
			return nil
		},
	}
}
