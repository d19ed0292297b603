package services

import (
	"fmt"
	"io"
	"time"

	"tronik-dashboard/internal/models"

	"github.com/go-pdf/fpdf"
)

// RenderReportPDF writes report as an A4 document: title, period, summary,
// per-partner table and the detail table.
func RenderReportPDF(report *models.Report, w io.Writer) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Relatório de Coletas", true)
	pdf.SetAuthor("Dashboard-TRONIK", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr("Relatório de Coletas"), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, tr("Período: "+periodLabel(report.Periodo)), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, tr("Gerado em "+time.Now().Format("02/01/2006 15:04")), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	sectionTitle(pdf, tr("Resumo"))
	r := report.Resumo
	summary := [][2]string{
		{"Total de coletas", fmt.Sprintf("%d", r.TotalColetas)},
		{"Volume total (kg)", formatDecimal(r.VolumeTotal)},
		{"Km total", formatDecimal(r.KmTotal)},
		{"Custo de combustível", formatMoney(r.CustoCombustivelTotal)},
		{"Lucro total", formatMoney(r.LucroTotal)},
		{"Lucro médio por coleta", formatMoney(r.LucroMedioPorColeta)},
	}
	pdf.SetFont("Helvetica", "", 10)
	for _, row := range summary {
		pdf.CellFormat(70, 7, tr(row[0]), "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 7, tr(row[1]), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	sectionTitle(pdf, tr("Coletas por parceiro"))
	partnerWidths := []float64{80, 30, 35, 45}
	tableHeader(pdf, tr, partnerWidths, []string{"Parceiro", "Coletas", "Volume (kg)", "Lucro"})
	for _, p := range r.ColetasPorParceiro {
		tableRow(pdf, tr, partnerWidths, []string{
			p.Parceiro,
			fmt.Sprintf("%d", p.TotalColetas),
			formatDecimal(p.VolumeTotal),
			formatMoney(p.LucroTotal),
		})
	}
	pdf.Ln(4)

	sectionTitle(pdf, tr("Detalhes"))
	detailWidths := []float64{28, 62, 25, 20, 55}
	tableHeader(pdf, tr, detailWidths, []string{"Data", "Lixeira", "Volume (kg)", "Km", "Parceiro"})
	for _, d := range report.Detalhes {
		tableRow(pdf, tr, detailWidths, []string{
			detailDate(d.DataHoraIso),
			truncate(strOrDash(d.LixeiraLocalizacao), 34),
			floatOrDash(d.VolumeEstimado),
			floatOrDash(d.KmPercorrido),
			truncate(strOrDash(d.Parceiro), 30),
		})
	}

	return pdf.Output(w)
}

func sectionTitle(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
}

func tableHeader(pdf *fpdf.Fpdf, tr func(string) string, widths []float64, cols []string) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, col := range cols {
		pdf.CellFormat(widths[i], 7, tr(col), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 9)
}

func tableRow(pdf *fpdf.Fpdf, tr func(string) string, widths []float64, cols []string) {
	for i, col := range cols {
		align := "L"
		if i > 0 && i < len(cols)-1 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 6, tr(col), "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func periodLabel(p models.ReportPeriod) string {
	start, end := "início", "hoje"
	if p.DataInicio != nil {
		start = *p.DataInicio
	}
	if p.DataFim != nil {
		end = *p.DataFim
	}
	return start + " a " + end
}

func detailDate(iso string) string {
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return iso
	}
	return t.Format("02/01/2006")
}

func strOrDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func floatOrDash(v *float64) string {
	if v == nil {
		return "-"
	}
	return formatDecimal(*v)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
