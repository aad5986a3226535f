package main

import (
	"bytes"
	"embed"
	"flag"
	"log"
	"sync"
	"text/template"
)

//go:embed templates/*.txt
var helpFS embed.FS

var (
	helpOnce sync.Once
	helpTmpl *template.Template
)

func parseHelpTemplates() {
	helpTmpl = template.Must(template.New("").Funcs(map[string]any{
		"flags": func(fs *flag.FlagSet) []flagInfo {
			result := []flagInfo{}
			if fs == nil {
				return result
			}
			fs.VisitAll(func(f *flag.Flag) {
				result = append(result, flagInfo{f.Name, f.DefValue, f.Usage})
			})
			return result
		},
		"version": func() string { return version },
	}).ParseFS(helpFS, "templates/*.txt"))
}

type flagInfo struct {
	Name     string
	DefValue string
	Usage    string
}

// HelpData is what a help template renders.
type HelpData interface {
	Program() string
	Template() string
	FlagSet() *flag.FlagSet
}

// UsageError reports bad command line usage and renders the command's help.
type UsageError struct {
	of   HelpData
	err  error
	help bool
}

func (e *UsageError) Error() string {
	help, err := e.renderHelp()
	if err != nil {
		return err.Error()
	}
	if e.err != nil {
		return e.err.Error() + "\n\n" + help
	}
	return help
}

func (e *UsageError) Unwrap() error { return e.err }

func (e *UsageError) renderHelp() (string, error) {
	helpOnce.Do(parseHelpTemplates)
	var buf bytes.Buffer
	if err := helpTmpl.ExecuteTemplate(&buf, e.of.Template(), e.of); err != nil {
		log.Printf("error rendering help template: %v", err)
		return "", err
	}
	return buf.String(), nil
}

func (r *root) Template() string { return "root.txt" }

func (c *captureCmd) Template() string { return "capture.txt" }

func (d *drawCmd) Template() string { return "draw.txt" }

func (c *windowsCmd) Template() string { return "windows.txt" }

func (c *monitorsCmd) Template() string { return "monitors.txt" }

func (c *colorsCmd) Template() string { return "colors.txt" }

func (c *widthsCmd) Template() string { return "widths.txt" }

func (c *themesCmd) Template() string { return "themes.txt" }

func (c *configCmd) Template() string { return "config.txt" }
