package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"github.com/runnerr0/stacks/internal/collection"
)

// Execute implements the go-flags Commander interface for ShowCommand.
func (c *ShowCommand) Execute(args []string) error {
	switch c.Format {
	case "full", "md", "raw", "json":
	default:
		return fmt.Errorf("invalid format %q (use full, md, raw, or json)", c.Format)
	}

	env, done, err := useEnvironment(c.globals, c.env)
	if err != nil {
		return err
	}
	defer done()

	return c.executeWithEnv(env)
}

func (c *ShowCommand) executeWithEnv(env *environment) error {
	name := strings.TrimSpace(c.Args.Collection)
	recs, ok := env.collections.Get(env.ctx, name)
	if !ok {
		return fmt.Errorf("collection not found: %s", name)
	}

	if c.ID != "" {
		var match []collection.Record
		for _, r := range recs {
			if r.ID == c.ID {
				match = append(match, r)
			}
		}
		if len(match) == 0 {
			return fmt.Errorf("record %s not found in %s", c.ID, name)
		}
		recs = match
	}
	if c.Limit > 0 && len(recs) > c.Limit {
		recs = recs[:c.Limit]
	}

	if (c.globals != nil && c.globals.JSON) || c.Format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(recs)
	}

	if len(recs) == 0 {
		fmt.Printf("%s is empty.\n", name)
		return nil
	}

	var conv *converter.Converter
	if c.Format == "md" {
		conv = newMarkdownConverter()
	}

	for i, rec := range recs {
		if i > 0 {
			fmt.Println()
		}
		switch c.Format {
		case "raw":
			fmt.Println(rec.HTML)
		case "md":
			outputMarkdown(conv, rec)
		default: // "full"
			outputFull(rec)
		}
	}
	return nil
}

func outputFull(rec collection.Record) {
	fmt.Println(rec.ID)
	fmt.Printf("Query:     %s\n", rec.Query)
	fmt.Println()
	fmt.Println("--- Result ---")
	if rec.HTML == "" {
		fmt.Println("No result stored")
	} else {
		fmt.Println(rec.HTML)
	}
	if rec.SourcesHTML != "" {
		fmt.Println()
		fmt.Println("--- Sources ---")
		fmt.Println(rec.SourcesHTML)
	}
}

func outputMarkdown(conv *converter.Converter, rec collection.Record) {
	fmt.Printf("# %s\n\n", rec.Query)
	fmt.Println(toMarkdown(conv, rec.HTML))
	if rec.SourcesHTML != "" {
		fmt.Println()
		fmt.Println("## Sources")
		fmt.Println()
		fmt.Println(toMarkdown(conv, rec.SourcesHTML))
	}
}

func newMarkdownConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
}

// toMarkdown converts stored markup; markup the converter rejects is
// printed as-is.
func toMarkdown(conv *converter.Converter, html string) string {
	md, err := conv.ConvertString(html)
	if err != nil {
		return html
	}
	return strings.TrimSpace(md)
}
