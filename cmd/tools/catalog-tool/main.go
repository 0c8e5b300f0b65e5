// Command catalog-tool inspects and maintains entity registry documents.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"rag-brand-guard/internal/brand"
	"rag-brand-guard/internal/brand/catalog"
	"rag-brand-guard/internal/brand/enhancer"
	"rag-brand-guard/pkg/registry"
)

func main() {
	if len(os.Args) < 2 {
		help(os.Stderr)
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "validate":
		err = runValidate(os.Args[2:], os.Stdout)
	case "list":
		err = runList(os.Args[2:], os.Stdout)
	case "rules":
		err = runRules(os.Args[2:], os.Stdout)
	case "export":
		err = runExport(os.Args[2:], os.Stdout)
	case "variations":
		err = runVariations(os.Args[2:], os.Stdout)
	case "enhance":
		err = runEnhance(os.Args[2:], os.Stdout)
	case "help", "-h", "--help":
		help(os.Stdout)
		return
	default:
		help(os.Stderr)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func help(w io.Writer) {
	fmt.Fprintln(w, `Usage: catalog-tool <command> [flags]

Commands:
  validate    check a registry document (-path, empty for the embedded one)
  list        print known and low-coverage entities
  rules       print the normalization table, or the rules matching -text
  export      write the document with a fresh lastUpdated stamp (-out, -embedded)
  variations  print search variations for -query
  enhance     print the enhanced query and retrieval config for -query`)
}

func pathFlag(fs *flag.FlagSet) *string {
	return fs.String("path", "", "Path to the registry document (default: embedded)")
}

func load(path string) (*brand.Core, error) {
	return brand.Load(path, enhancer.Options{})
}

func runValidate(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	path := pathFlag(fs)
	fs.Parse(args)

	core, err := load(*path)
	if err != nil {
		return fmt.Errorf("registry validation failed: %w", err)
	}
	fmt.Fprintf(out, "Registry %s is valid: %d entities, %d low-coverage profiles.\n",
		core.Catalog.Version(), len(core.Registry.Entities), core.Catalog.Len())
	return nil
}

func runList(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	path := pathFlag(fs)
	fs.Parse(args)

	core, err := load(*path)
	if err != nil {
		return err
	}

	lowCoverage := make(map[string]string)
	for _, p := range core.Catalog.Profiles() {
		lowCoverage[p.Key] = string(p.Strategy)
	}

	tw := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tNAME\tCATEGORY\tALIASES\tSTRATEGY")
	for _, e := range core.Registry.Entities {
		strategy := lowCoverage[e.Key]
		if strategy == "" {
			strategy = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.Key, e.Canonical, e.Category, strings.Join(e.Aliases, ", "), strategy)
	}
	return tw.Flush()
}

func runRules(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("rules", flag.ExitOnError)
	path := pathFlag(fs)
	text := fs.String("text", "", "Only print rules referenced in this text")
	fs.Parse(args)

	core, err := load(*path)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tCANONICAL\tCATEGORY\tSEARCH CONTEXT")
	for _, r := range core.Normalizer.Rules() {
		if *text != "" && !r.Matches(*text) {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Key, r.Canonical, r.Category, strings.Join(r.SearchContext, ", "))
	}
	return tw.Flush()
}

func runExport(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	path := pathFlag(fs)
	dest := fs.String("out", "", "Destination file (default: stdout)")
	embedded := fs.Bool("embedded", false, "Write the embedded document byte for byte, ignoring -path")
	fs.Parse(args)

	if *embedded {
		return write(catalog.DefaultDocument(), *dest, out, "embedded")
	}
	core, err := load(*path)
	if err != nil {
		return err
	}
	return export(core.Registry, *dest, out, time.Now().UTC())
}

func export(reg *registry.EntityRegistry, dest string, out io.Writer, now time.Time) error {
	doc := *reg
	doc.LastUpdated = now.Format(time.RFC3339)

	data, err := doc.Marshal()
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}
	return write(append(data, '\n'), dest, out, doc.Version)
}

func write(data []byte, dest string, out io.Writer, version string) error {
	if dest == "" {
		_, err := out.Write(data)
		return err
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	fmt.Fprintf(out, "Exported registry %s to %s\n", version, dest)
	return nil
}

func runVariations(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("variations", flag.ExitOnError)
	path := pathFlag(fs)
	query := fs.String("query", "", "Query to expand")
	fs.Parse(args)

	if *query == "" {
		return fmt.Errorf("-query is required")
	}
	core, err := load(*path)
	if err != nil {
		return err
	}
	for _, v := range core.Normalizer.GenerateSearchVariations(*query) {
		fmt.Fprintln(out, v)
	}
	return nil
}

func runEnhance(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("enhance", flag.ExitOnError)
	path := pathFlag(fs)
	query := fs.String("query", "", "Query to enhance")
	attempt := fs.Int("attempt", 1, "Retrieval attempt (1 or 2)")
	fs.Parse(args)

	if *query == "" {
		return fmt.Errorf("-query is required")
	}
	core, err := load(*path)
	if err != nil {
		return err
	}

	e := core.Enhancer
	normalized := core.Normalizer.NormalizeQuery(*query)
	profile := e.DetectEntity(normalized)
	result := e.Enhance(normalized, profile)

	entity := "none"
	if profile != nil {
		entity = profile.Key
	}
	fmt.Fprintf(out, "entity:       %s\n", entity)
	fmt.Fprintf(out, "intent:       %s\n", result.Intent)
	fmt.Fprintf(out, "strategy:     %s\n", result.Strategy)
	fmt.Fprintf(out, "query:        %s\n", result.Query)
	fmt.Fprintf(out, "search terms: %s\n", e.BuildSearchTerms(normalized, profile, *attempt))
	fmt.Fprintf(out, "max_chunks:   %d\n", result.Config.MaxChunks)
	fmt.Fprintf(out, "threshold:    %.2f\n", result.Config.SimilarityThreshold)
	fmt.Fprintf(out, "rationale:    %s\n", result.Rationale)
	opts := e.Options()
	fmt.Fprintf(out, "defaults:     max_chunks=%d threshold=%.2f boosted=%d lowered=%.2f\n",
		opts.DefaultMaxChunks, opts.DefaultSimilarityThreshold, opts.BoostedMaxChunks, opts.LoweredSimilarityThreshold)
	return nil
}
