package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/localnerve/landlord-propsdb/internal/logging"
	"github.com/localnerve/landlord-propsdb/internal/mapper"
	"github.com/localnerve/landlord-propsdb/internal/properties"
	"github.com/spf13/cobra"
)

// propertyFlags are the editable property fields as command line flags
type propertyFlags struct {
	name                string
	address             string
	units               string
	propertyType        string
	services            []string
	toggle              []string
	packageLocation     string
	accessCode          string
	accessNotes         string
	specialInstructions string
}

func (f *propertyFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.name, "name", "", "property name")
	flags.StringVar(&f.address, "address", "", "street address")
	flags.StringVar(&f.units, "units", "", "number of units")
	flags.StringVar(&f.propertyType, "type", "", "property type: "+strings.Join(mapper.PropertyTypes, ", "))
	flags.StringSliceVar(&f.services, "service", nil, "authorized delivery service, repeatable: "+strings.Join(mapper.Services, ", "))
	flags.StringSliceVar(&f.toggle, "toggle-service", nil, "add or remove an authorized delivery service, repeatable")
	flags.StringVar(&f.packageLocation, "package-location", "", "where packages are left")
	flags.StringVar(&f.accessCode, "access-code", "", "building access code")
	flags.StringVar(&f.accessNotes, "access-notes", "", "access notes")
	flags.StringVar(&f.specialInstructions, "special-instructions", "", "special delivery instructions")
}

// apply copies the flags that were set onto form
func (f *propertyFlags) apply(cmd *cobra.Command, form *properties.Form) {
	changed := cmd.Flags().Changed
	set := func(flag string, dst *string, value string) {
		if changed(flag) {
			*dst = value
		}
	}
	set("name", &form.Name, f.name)
	set("address", &form.Address, f.address)
	set("units", &form.UnitCount, f.units)
	set("type", &form.PropertyType, f.propertyType)
	set("package-location", &form.PackageLocation, f.packageLocation)
	set("access-code", &form.AccessCode, f.accessCode)
	set("access-notes", &form.AccessNotes, f.accessNotes)
	set("special-instructions", &form.SpecialInstructions, f.specialInstructions)

	if changed("service") {
		form.Services = []string{}
		for _, s := range f.services {
			form.ToggleService(s)
		}
	}
	for _, s := range f.toggle {
		form.ToggleService(s)
	}
}

func (app *cli) newList() *properties.List {
	return properties.NewList(app.client, app.client, properties.WithLogger(logging.Logger))
}

// loadedList returns a list loaded with the landlord's properties
func (app *cli) loadedList(ctx context.Context) (*properties.List, error) {
	list := app.newList()
	if err := list.Load(ctx); err != nil {
		return nil, describe(err)
	}
	return list, nil
}

func (app *cli) propertiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "properties",
		Aliases: []string{"property", "props"},
		Short:   "Manage properties and their delivery instructions",
	}
	cmd.AddCommand(
		app.propertiesListCmd(),
		app.propertiesAddCmd(),
		app.propertiesUpdateCmd(),
		app.propertiesDeleteCmd(),
		app.propertiesImportCmd(),
	)
	return cmd
}

func (app *cli) propertiesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your properties, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := app.loadedList(cmd.Context())
			if err != nil {
				return err
			}
			return app.printProperties(cmd, list.Items())
		},
	}
}

func (app *cli) propertiesAddCmd() *cobra.Command {
	flags := &propertyFlags{}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a property",
		Long: `Add creates a property and, when any instruction flag is set, its
delivery instructions.

Example:
  landlord properties add --name "Oak St" --address "1 Oak St" --units 4 \
    --type apartment --service UPS --service FedEx --access-code 1234`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			form := properties.NewForm()
			flags.apply(cmd, form)
			input, err := form.Submit()
			if err != nil {
				return err
			}

			list, err := app.loadedList(cmd.Context())
			if err != nil {
				return err
			}
			created, err := list.Add(cmd.Context(), input)
			if err != nil {
				return describe(err)
			}
			return app.printProperty(cmd, "Created", created)
		},
	}
	flags.register(cmd)
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("address")
	return cmd
}

func (app *cli) propertiesUpdateCmd() *cobra.Command {
	flags := &propertyFlags{}
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a property",
		Long: `Update changes the flags that are given and keeps every other field.
Clearing all instruction fields removes the delivery instructions.

Example:
  landlord properties update 0b6c... --units 6 --toggle-service DHL
  landlord properties update 0b6c... --access-code "" --access-notes ""`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			list, err := app.loadedList(cmd.Context())
			if err != nil {
				return err
			}
			current, ok := list.Get(id)
			if !ok {
				return fmt.Errorf("property %q not found", id)
			}

			form := properties.FormFor(current)
			flags.apply(cmd, form)
			input, err := form.Submit()
			if err != nil {
				return err
			}

			updated, err := list.Update(cmd.Context(), id, input)
			if err != nil {
				return describe(err)
			}
			return app.printProperty(cmd, "Updated", updated)
		},
	}
	flags.register(cmd)
	return cmd
}

func (app *cli) propertiesDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a property and its delivery instructions",
		Long: `Delete asks for confirmation, then removes the delivery instructions
and the property.

Example:
  landlord properties delete 0b6c...
  landlord properties delete 0b6c... --yes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			list, err := app.loadedList(cmd.Context())
			if err != nil {
				return err
			}
			p, ok := list.Get(id)
			if !ok {
				return fmt.Errorf("property %q not found", id)
			}

			token, err := list.RequestDelete(id)
			if err != nil {
				return describe(err)
			}

			if !yes {
				confirmed, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(),
					fmt.Sprintf("Delete property %q at %s?", p.Name, p.Address))
				if err != nil || !confirmed {
					_ = list.CancelDelete(token)
					fmt.Fprintln(cmd.OutOrStdout(), "Canceled")
					return err
				}
			}

			if err := list.ConfirmDelete(cmd.Context(), token); err != nil {
				return describe(err)
			}

			if app.jsonOutput {
				return printJSON(cmd.OutOrStdout(), map[string]string{"deleted": id, "status": "success"})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted property: %s\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "delete without asking")
	return cmd
}

func (app *cli) propertiesImportCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Import properties from a legacy flat export",
		Long: `Import reads a JSON export of the legacy flat properties table and adds
each row as a property with delivery instructions:

  accessInformation.code            -> access code
  accessInformation.additionalInfo  -> access notes
  deliveryInstructions              -> special instructions

propertyUpdates is not imported. Use - to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			rows, err := mapper.DecodeFlatRows(data)
			if err != nil {
				return err
			}

			flat := mapper.Flat{}
			imported := make([]mapper.Property, 0, len(rows))
			for i, row := range rows {
				form := properties.FormFor(flat.ToInternal(row))
				input, err := form.Submit()
				if err != nil {
					return fmt.Errorf("row %d (%q): %w", i, row.Name, err)
				}
				imported = append(imported, input)
			}

			if dryRun {
				return app.printProperties(cmd, imported)
			}

			list, err := app.loadedList(cmd.Context())
			if err != nil {
				return err
			}
			for i, input := range imported {
				created, err := list.Add(cmd.Context(), input)
				if err != nil {
					return fmt.Errorf("import row %d (%q): %w", i, input.Name, describe(err))
				}
				imported[i] = created
			}

			if app.jsonOutput {
				return app.printProperties(cmd, imported)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d properties\n", len(imported))
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate and print the rows without importing")
	return cmd
}

func readInput(stdin io.Reader, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// confirm asks a y/N question; anything but y or yes is no
func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprintf(out, "%s [y/N] ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// describe turns list errors into messages for the terminal
func describe(err error) error {
	switch {
	case errors.Is(err, properties.ErrUnauthenticated):
		return errors.New("not signed in: set STORE_SESSION to a valid session cookie")
	case errors.Is(err, properties.ErrBusy):
		return errors.New("another change is in progress, try again")
	}
	return err
}
