package app

import (
    "fmt"

    "github.com/jung-kurt/gofpdf"
)

// writeSimplePDF renders the run summary as a one-section A4 document: the
// headline facts followed by subject, skip and timing tables.
func writeSimplePDF(res Result, outPath string) error {
    pdf := gofpdf.New("P", "mm", "A4", "")
    pdf.SetTitle("arXiv subject classification", true)
    pdf.AddPage()
    // Core fonts only cover cp1252.
    tr := pdf.UnicodeTranslatorFromDescriptor("")

    heading := func(text string, size float64) {
        pdf.Ln(3)
        pdf.SetFont("Helvetica", "B", size)
        pdf.CellFormat(0, 8, tr(text), "", 1, "L", false, 0, "")
        pdf.SetFont("Helvetica", "", 10)
    }
    table := func(left, right string, rows [][2]string) {
        pdf.SetFont("Helvetica", "B", 10)
        pdf.CellFormat(120, 6, tr(left), "1", 0, "L", false, 0, "")
        pdf.CellFormat(40, 6, tr(right), "1", 1, "R", false, 0, "")
        pdf.SetFont("Helvetica", "", 10)
        for _, r := range rows {
            pdf.CellFormat(120, 6, tr(r[0]), "1", 0, "L", false, 0, "")
            pdf.CellFormat(40, 6, tr(r[1]), "1", 1, "R", false, 0, "")
        }
    }

    heading("arXiv subject classification", 16)
    for _, f := range summaryFacts(res) {
        pdf.SetFont("Helvetica", "B", 10)
        pdf.CellFormat(40, 6, tr(f[0]), "", 0, "L", false, 0, "")
        pdf.SetFont("Helvetica", "", 10)
        if f[0] == "Listing" {
            pdf.CellFormat(0, 6, f[1], "", 1, "L", false, 0, f[1])
            continue
        }
        pdf.MultiCell(0, 6, tr(f[1]), "", "L", false)
    }

    heading("Subjects", 12)
    var rows [][2]string
    for _, lc := range subjectDistribution(res.Corpus) {
        rows = append(rows, [2]string{lc.Label, fmt.Sprintf("%d", lc.Count)})
    }
    table("Subject", "Abstracts", rows)

    if kinds := res.Corpus.Skips.Kinds(); len(kinds) > 0 {
        heading("Skipped pages", 12)
        rows = rows[:0]
        for _, k := range kinds {
            rows = append(rows, [2]string{k.Describe(), fmt.Sprintf("%d", res.Corpus.Skips[k])})
        }
        table("Reason", "Pages", rows)
    }

    if len(res.Timings) > 0 {
        heading("Timings", 12)
        rows = rows[:0]
        for _, t := range res.Timings {
            rows = append(rows, [2]string{t.Stage, t.Elapsed.Round(1e6).String()})
        }
        table("Stage", "Elapsed", rows)
    }

    return pdf.OutputFileAndClose(outPath)
}
