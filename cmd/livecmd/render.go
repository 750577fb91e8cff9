// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/invowk/livecmd/internal/discovery"
	"github.com/invowk/livecmd/internal/pipeline"
	"github.com/invowk/livecmd/internal/registry"
)

// renderDiagnostics prints one line per diagnostic, errors in red and
// warnings in amber.
func renderDiagnostics(w io.Writer, diags []discovery.Diagnostic) {
	for _, d := range diags {
		label := WarningStyle.Render("warning")
		if d.IsError() {
			label = ErrorStyle.Render("error")
		}
		loc := d.Path
		if loc != "" && d.Line > 0 {
			loc = fmt.Sprintf("%s:%d:%d", loc, d.Line, d.Column)
		}
		if loc != "" {
			fmt.Fprintf(w, "%s %s %s [%s]\n", CmdStyle.Render(loc), label, d.Message, d.Code)
		} else {
			fmt.Fprintf(w, "%s %s [%s]\n", label, d.Message, d.Code)
		}
	}
}

// renderSummary prints the one-line outcome of a generation.
func renderSummary(w io.Writer, snap pipeline.Snapshot) {
	if snap.LoadSuccess {
		fmt.Fprintf(w, "%s generation %d: %d command(s) from %d file(s)\n",
			SuccessStyle.Render("✓"), snap.Version, len(snap.CommandNames), len(snap.SourceFiles))
		return
	}
	fmt.Fprintf(w, "%s generation %d: no commands available\n",
		ErrorStyle.Render("✗"), snap.Version)
}

// renderCommandList prints command names with their descriptions.
func renderCommandList(w io.Writer, descs []registry.Descriptor) {
	width := 0
	for _, d := range descs {
		width = max(width, len(d.Name))
	}
	for _, d := range descs {
		name := CmdStyle.Render(d.Name + strings.Repeat(" ", width-len(d.Name)))
		if d.Description == "" {
			fmt.Fprintln(w, "  "+name)
			continue
		}
		fmt.Fprintf(w, "  %s  %s\n", name, SubtitleStyle.Render(firstLine(d.Description)))
	}
}

// commandsMarkdown renders the long listing as Markdown.
func commandsMarkdown(descs []registry.Descriptor) string {
	var sb strings.Builder
	sb.WriteString("# Commands\n")
	for _, d := range descs {
		fmt.Fprintf(&sb, "\n## %s\n\n", d.Name)
		if d.Description != "" {
			sb.WriteString(d.Description)
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "*Defined in* `%s`\n", d.Origin)
	}
	return sb.String()
}

// renderMarkdown renders md for the terminal.
func renderMarkdown(md string, width int) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	renderer, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	return renderer.Render(md)
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}
