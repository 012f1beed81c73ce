package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/omnikernel/internal/model"
)

// ReportFilename is the default name of the downloadable forensic report
const ReportFilename = "tcds_forensic_report.json"

// Renderer renders analyses to JSON, Markdown and terminal summaries
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a new renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// MarshalReport encodes a forensic report as indented UTF-8 JSON.
// Non-ASCII text is kept literal.
func MarshalReport(report model.ForensicReport) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, report); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteJSON writes v as indented JSON without HTML escaping
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}

// RenderJSON writes the forensic report to path
func (r *Renderer) RenderJSON(report model.ForensicReport, path string) error {
	data, err := MarshalReport(report)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// RenderMarkdown writes the Markdown rendering of an analysis to path
func (r *Renderer) RenderMarkdown(analysis *model.Analysis, path string) error {
	return os.WriteFile(path, []byte(r.Markdown(analysis)), 0644)
}

// Markdown renders an analysis as a Markdown document
func (r *Renderer) Markdown(analysis *model.Analysis) string {
	report := analysis.Report
	var b strings.Builder

	b.WriteString("# Dictamen Semántico TCDS\n\n")
	fmt.Fprintf(&b, "**Veredicto final:** %s\n\n", report.FinalVerdict)
	fmt.Fprintf(&b, "**Fecha:** %s\n\n", report.Timestamp.UTC().Format(time.RFC3339))

	b.WriteString("## Entrada\n\n")
	for _, line := range strings.Split(strings.TrimSpace(report.Input), "\n") {
		fmt.Fprintf(&b, "> %s\n", line)
	}
	b.WriteString("\n")

	b.WriteString("## Dictamen\n\n")
	b.WriteString(analysis.SemanticResponse)
	b.WriteString("\n\n")

	b.WriteString("## Parámetros decodificados\n\n")
	b.WriteString("| Parámetro | Valor |\n")
	b.WriteString("|-----------|-------|\n")
	p := report.DecodedParameters
	for _, row := range []struct {
		name  string
		value float64
	}{
		{"Q", p.Q},
		{"Sigma", p.Sigma},
		{"Phi", p.Phi},
		{"Force", p.Force},
		{"K_Rate", p.KRate},
	} {
		fmt.Fprintf(&b, "| %s | %s |\n", row.name, formatFloat(row.value))
	}
	b.WriteString("\n")

	if len(analysis.Matches) > 0 {
		fmt.Fprintf(&b, "Palabras clave detectadas: %s\n\n", strings.Join(analysis.Matches, ", "))
	} else {
		b.WriteString("Sin palabras clave reconocidas: se aplicaron los valores por defecto.\n\n")
	}

	b.WriteString("## Axiomas\n\n")
	for _, a := range report.Axioms {
		fmt.Fprintf(&b, "### %s\n\n", a.Axiom)
		fmt.Fprintf(&b, "- **Veredicto:** %s\n", a.Verdict)
		for _, m := range a.Measures {
			fmt.Fprintf(&b, "- %s: %s\n", m.Name, formatFloat(m.Value))
		}
		fmt.Fprintf(&b, "\n%s\n\n", a.Explanation)
	}

	if n := analysis.Narration; n != nil {
		b.WriteString("## Narración\n\n")
		fmt.Fprintf(&b, "- Proveedor: %s\n", n.Provider)
		if n.Path != "" {
			fmt.Fprintf(&b, "- Audio: %s (%d bytes)\n", n.Path, n.Bytes)
		}
		for _, w := range n.Warnings {
			fmt.Fprintf(&b, "- Aviso: %s\n", w)
		}
		b.WriteString("\n")
	}

	if r.includeFooter {
		b.WriteString("---\n\n")
		b.WriteString("_Diagnóstico generado por reglas deterministas sobre una tabla de palabras clave. " +
			"No constituye inferencia causal ni semántica._\n")
	}

	return b.String()
}

// RenderSummary prints a short verdict table, marking the axioms that hold
func (r *Renderer) RenderSummary(w io.Writer, analysis *model.Analysis) {
	report := analysis.Report

	fmt.Fprintf(w, "\nVeredicto final: %s\n", report.FinalVerdict)
	for _, a := range report.Axioms {
		mark := "✗"
		if a.Verdict.Holds() {
			mark = "✓"
		}
		fmt.Fprintf(w, "  %s %-20s %s\n", mark, a.Axiom, a.Verdict)
	}
	if len(analysis.Matches) > 0 {
		fmt.Fprintf(w, "  Palabras clave: %s\n", strings.Join(analysis.Matches, ", "))
	}
	if n := analysis.Narration; n != nil {
		for _, warning := range n.Warnings {
			fmt.Fprintf(w, "  ⚠ Narración: %s\n", warning)
		}
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
