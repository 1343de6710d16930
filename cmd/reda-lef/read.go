package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/MoleSir/reda-lef/tech"
)

var readCmd = &cobra.Command{
	Use:   "read <tech.lef>",
	Short: "Parse a technology file and print a summary",
	Args:  cobra.ExactArgs(1),
	RunE:  runRead,
}

func init() {
	readCmd.Flags().String("format", "text", "Output format (text, yaml)")
	rootCmd.AddCommand(readCmd)
}

func runRead(cmd *cobra.Command, args []string) error {
	path := args[0]

	res, err := tech.ReadFile(cmd.Context(), path, readOptions()...)
	reportFindings(res)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	s := buildSummary(path, res)
	format, _ := cmd.Flags().GetString("format")
	if format == "yaml" {
		out, err := yaml.Marshal(s)
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	}
	printSummary(s)
	return nil
}

// reportFindings writes the collected errors and warnings of a read to
// stderr. Under --lenient these findings do not fail the command; by
// default the first error already failed the read itself.
func reportFindings(res *tech.Result) {
	if res == nil {
		return
	}
	for _, w := range res.Warnings {
		fmt.Fprintln(os.Stderr, w.String())
	}
	for _, e := range res.Errors {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", e)
	}
}

type layerSummary struct {
	Name         string   `yaml:"name"`
	Kind         string   `yaml:"kind"`
	Width        *float64 `yaml:"width,omitempty"`
	Pitch        *float64 `yaml:"pitch,omitempty"`
	SpacingTable bool     `yaml:"spacing_table,omitempty"`
}

type summary struct {
	File     string         `yaml:"file"`
	Version  float64        `yaml:"version"`
	Database *float64       `yaml:"database_microns,omitempty"`
	Layers   []layerSummary `yaml:"layers"`
	Vias     []string       `yaml:"vias,omitempty"`
	ViaRules []string       `yaml:"via_rules,omitempty"`
	Sites    []string       `yaml:"sites,omitempty"`
	Errors   int            `yaml:"errors"`
	Warnings int            `yaml:"warnings"`
}

func buildSummary(path string, res *tech.Result) summary {
	t := res.Tech
	s := summary{
		File:     path,
		Version:  t.Version(),
		Errors:   len(res.Errors),
		Warnings: len(res.Warnings),
	}
	if u := t.Units(); u != nil {
		s.Database = u.Database
	}
	for _, l := range t.Layers() {
		ls := layerSummary{Name: l.Name(), Kind: l.Kind().String()}
		switch l := l.(type) {
		case *tech.RoutingLayer:
			ls.Width = l.Width
			if l.Pitch != nil {
				x := l.Pitch.X
				ls.Pitch = &x
			}
			ls.SpacingTable = l.SpacingTable != nil
		case *tech.CutLayer:
			ls.Width = l.Width
		}
		s.Layers = append(s.Layers, ls)
	}
	for _, v := range t.Vias() {
		s.Vias = append(s.Vias, v.Name)
	}
	for _, r := range t.ViaRules() {
		s.ViaRules = append(s.ViaRules, r.Name)
	}
	for _, site := range t.Sites() {
		s.Sites = append(s.Sites, site.Name)
	}
	return s
}

func printSummary(s summary) {
	fmt.Printf("%-12s %s\n", "file:", s.File)
	fmt.Printf("%-12s %g\n", "version:", s.Version)
	if s.Database != nil {
		fmt.Printf("%-12s %g\n", "database:", *s.Database)
	}
	fmt.Printf("%-12s %d\n", "layers:", len(s.Layers))
	for _, l := range s.Layers {
		line := fmt.Sprintf("  %-10s %s", l.Name, l.Kind)
		if l.Width != nil {
			line += fmt.Sprintf(" width=%g", *l.Width)
		}
		if l.Pitch != nil {
			line += fmt.Sprintf(" pitch=%g", *l.Pitch)
		}
		if l.SpacingTable {
			line += " spacingtable"
		}
		fmt.Println(line)
	}
	if len(s.Vias) > 0 {
		fmt.Printf("%-12s %s\n", "vias:", strings.Join(s.Vias, " "))
	}
	if len(s.ViaRules) > 0 {
		fmt.Printf("%-12s %s\n", "via rules:", strings.Join(s.ViaRules, " "))
	}
	if len(s.Sites) > 0 {
		fmt.Printf("%-12s %s\n", "sites:", strings.Join(s.Sites, " "))
	}
	fmt.Printf("%-12s %d errors, %d warnings\n", "findings:", s.Errors, s.Warnings)
}
