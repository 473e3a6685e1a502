package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/localnerve/landlord-propsdb/internal/mapper"
	"github.com/spf13/cobra"
)

// propertyView is the printed shape of a property
type propertyView struct {
	ID                 string            `json:"id"`
	Name               string            `json:"name"`
	Address            string            `json:"address"`
	UnitCount          *int              `json:"unit_count,omitempty"`
	PropertyType       string            `json:"property_type,omitempty"`
	AuthorizedServices []string          `json:"authorized_services"`
	Instructions       *instructionsView `json:"instructions,omitempty"`
	CreatedAt          string            `json:"created_at,omitempty"`
	UpdatedAt          string            `json:"updated_at,omitempty"`
}

type instructionsView struct {
	PackageLocation     string `json:"package_location,omitempty"`
	AccessCode          string `json:"access_code,omitempty"`
	AccessNotes         string `json:"access_notes,omitempty"`
	SpecialInstructions string `json:"special_instructions,omitempty"`
}

func viewOf(p mapper.Property) propertyView {
	v := propertyView{
		ID:                 p.ID,
		Name:               p.Name,
		Address:            p.Address,
		UnitCount:          p.UnitCount,
		PropertyType:       p.PropertyType,
		AuthorizedServices: p.AuthorizedServices,
	}
	if !p.CreatedAt.IsZero() {
		v.CreatedAt = p.CreatedAt.Format("2006-01-02 15:04")
	}
	if !p.UpdatedAt.IsZero() {
		v.UpdatedAt = p.UpdatedAt.Format("2006-01-02 15:04")
	}
	if in := p.Instructions; in != nil {
		v.Instructions = &instructionsView{
			PackageLocation:     in.PackageLocation,
			AccessCode:          in.AccessCode,
			AccessNotes:         in.AccessNotes,
			SpecialInstructions: in.SpecialInstructions,
		}
	}
	return v
}

func printJSON(w io.Writer, v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(output))
	return err
}

// printProperties prints properties as JSON or as a table
func (app *cli) printProperties(cmd *cobra.Command, props []mapper.Property) error {
	views := make([]propertyView, len(props))
	for i, p := range props {
		views[i] = viewOf(p)
	}
	if app.jsonOutput {
		return printJSON(cmd.OutOrStdout(), views)
	}

	if len(views) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No properties")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tADDRESS\tUNITS\tTYPE\tSERVICES\tINSTRUCTIONS")
	for _, v := range views {
		units := "-"
		if v.UnitCount != nil {
			units = strconv.Itoa(*v.UnitCount)
		}
		instructions := "no"
		if v.Instructions != nil {
			instructions = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			v.ID, v.Name, v.Address, units, dash(v.PropertyType),
			dash(strings.Join(v.AuthorizedServices, ",")), instructions)
	}
	return tw.Flush()
}

// printProperty prints one property in full
func (app *cli) printProperty(cmd *cobra.Command, verb string, p mapper.Property) error {
	v := viewOf(p)
	if app.jsonOutput {
		return printJSON(cmd.OutOrStdout(), v)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s property: %s\n", verb, v.ID)
	fmt.Fprintf(w, "  name:      %s\n", v.Name)
	fmt.Fprintf(w, "  address:   %s\n", v.Address)
	if v.UnitCount != nil {
		fmt.Fprintf(w, "  units:     %d\n", *v.UnitCount)
	}
	if v.PropertyType != "" {
		fmt.Fprintf(w, "  type:      %s\n", v.PropertyType)
	}
	fmt.Fprintf(w, "  services:  %s\n", dash(strings.Join(v.AuthorizedServices, ", ")))
	if in := v.Instructions; in != nil {
		fmt.Fprintln(w, "  instructions:")
		printField(w, "package location", in.PackageLocation)
		printField(w, "access code", in.AccessCode)
		printField(w, "access notes", in.AccessNotes)
		printField(w, "special", in.SpecialInstructions)
	}
	return nil
}

func printField(w io.Writer, label, value string) {
	if value != "" {
		fmt.Fprintf(w, "    %-17s %s\n", label+":", value)
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
