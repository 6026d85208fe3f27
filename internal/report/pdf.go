package report

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"digitalmaturity/internal/model"

	"github.com/phpdave11/gofpdf"
)

type pdfColor struct {
	R int
	G int
	B int
}

func (c pdfColor) setFill(pdf *gofpdf.Fpdf) { pdf.SetFillColor(c.R, c.G, c.B) }
func (c pdfColor) setDraw(pdf *gofpdf.Fpdf) { pdf.SetDrawColor(c.R, c.G, c.B) }
func (c pdfColor) setText(pdf *gofpdf.Fpdf) { pdf.SetTextColor(c.R, c.G, c.B) }

var (
	pdfCardBg     = pdfColor{R: 255, G: 255, B: 255}
	pdfBorder     = pdfColor{R: 226, G: 232, B: 240} // slate-200
	pdfTextMain   = pdfColor{R: 15, G: 23, B: 42}    // slate-900
	pdfTextMute   = pdfColor{R: 71, G: 85, B: 105}   // slate-600
	pdfHeader     = pdfColor{R: 30, G: 64, B: 175}   // blue-800
	pdfHeaderText = pdfColor{R: 255, G: 255, B: 255}
	pdfBarTrack   = pdfColor{R: 226, G: 232, B: 240}
	pdfRowAlt     = pdfColor{R: 241, G: 245, B: 249} // slate-100
)

func priorityColor(p model.Priority) pdfColor {
	switch p {
	case model.PriorityHigh:
		return pdfColor{R: 239, G: 68, B: 68} // red-500
	case model.PriorityMedium:
		return pdfColor{R: 245, G: 158, B: 11} // amber-500
	default:
		return pdfColor{R: 34, G: 197, B: 94} // green-500
	}
}

// fontFamily picks a UTF-8 system font, falling back to core Helvetica with
// a cp1252 translator for accented letters.
func fontFamily(pdf *gofpdf.Fpdf) (string, func(string) string) {
	candidates := []struct {
		family, regular, bold string
	}{
		{"DejaVuSansUTF8", "/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf", "/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf"},
		{"LiberationSansUTF8", "/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf", "/usr/share/fonts/truetype/liberation/LiberationSans-Bold.ttf"},
		{"ArialUTF8", "/System/Library/Fonts/Supplemental/Arial.ttf", "/System/Library/Fonts/Supplemental/Arial Bold.ttf"},
	}
	for _, c := range candidates {
		regular, err := os.ReadFile(c.regular)
		if err != nil || len(regular) == 0 {
			continue
		}
		bold := regular
		if b, err := os.ReadFile(c.bold); err == nil && len(b) > 0 {
			bold = b
		}
		pdf.SetError(nil)
		pdf.AddUTF8FontFromBytes(c.family, "", regular)
		pdf.AddUTF8FontFromBytes(c.family, "B", bold)
		if pdf.Error() == nil {
			return c.family, func(s string) string { return s }
		}
	}
	pdf.SetError(nil)
	return "Helvetica", pdf.UnicodeTranslatorFromDescriptor("")
}

func drawBadge(pdf *gofpdf.Fpdf, family string, x, y, w, h float64, text string) {
	pdf.SetLineWidth(0.35)
	pdfHeaderText.setDraw(pdf)
	pdfCardBg.setFill(pdf)
	pdf.RoundedRect(x, y, w, h, h/2, "1234", "FD")
	pdfTextMain.setText(pdf)
	pdf.SetFont(family, "B", 10)
	pdf.SetXY(x, y+(h-6.5)/2)
	pdf.CellFormat(w, 6.5, text, "", 0, "CM", false, 0, "")
}

func drawProgressBar(pdf *gofpdf.Fpdf, x, y, w, h, frac float64, c pdfColor) {
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	pdfBarTrack.setFill(pdf)
	pdfBarTrack.setDraw(pdf)
	pdf.SetLineWidth(0.15)
	pdf.RoundedRect(x, y, w, h, h/2, "1234", "FD")
	if frac <= 0 {
		return
	}
	c.setFill(pdf)
	c.setDraw(pdf)
	pdf.RoundedRect(x, y, w*frac, h, h/2, "1234", "FD")
}

func ensurePageSpace(pdf *gofpdf.Fpdf, minBottom float64) {
	_, pageH := pdf.GetPageSize()
	if pdf.GetY() > pageH-minBottom {
		pdf.AddPage()
	}
}

// PDF renders the report as an A4 document
func PDF(in Input) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(14, 14, 14)
	pdf.SetAutoPageBreak(false, 14)

	family, tr := fontFamily(pdf)
	const headerH = 22.0
	const margin = 14.0

	name := strings.TrimSpace(in.Organization.Name)
	if name == "" {
		name = "Organizzazione"
	}

	pdf.SetHeaderFunc(func() {
		w, _ := pdf.GetPageSize()
		pdfHeader.setFill(pdf)
		pdf.Rect(0, 0, w, headerH, "F")

		pdfHeaderText.setText(pdf)
		pdf.SetFont(family, "B", 14)
		pdf.SetXY(margin, 6)
		pdf.CellFormat(w-2*margin-34, 7, tr("Report di Maturità Digitale"), "", 0, "L", false, 0, "")
		drawBadge(pdf, family, w-margin-30, 6, 30, 9, fmt.Sprintf("%s/5", num(in.MaturityLevel)))

		pdfHeaderText.setText(pdf)
		pdf.SetFont(family, "", 9.5)
		pdf.SetXY(margin, 14)
		sub := fmt.Sprintf("%s - %s - %s", name, in.Organization.Type.Label(), in.GeneratedAt.Format("02/01/2006"))
		pdf.CellFormat(w-2*margin, 5, tr(sub), "", 0, "L", false, 0, "")

		pdf.SetY(headerH + 8)
	})

	pdf.SetFooterFunc(func() {
		w, h := pdf.GetPageSize()
		pdfTextMute.setText(pdf)
		pdf.SetFont(family, "", 8.5)
		pdf.SetXY(margin, h-10)
		pdf.CellFormat(w-2*margin, 6, "Digital Maturity Assessment", "", 0, "L", false, 0, "")
		pdf.SetXY(margin, h-10)
		pdf.CellFormat(w-2*margin, 6, fmt.Sprintf("Pagina %d", pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	pdf.AddPage()
	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 2*margin

	// Summary
	pdfTextMain.setText(pdf)
	pdf.SetFont(family, "B", 12)
	pdf.CellFormat(0, 7, "Executive summary", "", 1, "L", false, 0, "")
	pdfTextMute.setText(pdf)
	pdf.SetFont(family, "", 10)
	summary := fmt.Sprintf("Livello complessivo: %s (%s/5).", in.MaturityLabel, num(in.MaturityLevel))
	pdf.MultiCell(contentW, 5.5, tr(summary), "", "L", false)
	pdf.Ln(4)

	// Category bars
	pdfTextMain.setText(pdf)
	pdf.SetFont(family, "B", 12)
	pdf.CellFormat(0, 7, "Punteggi per area", "", 1, "L", false, 0, "")
	for _, a := range in.Areas {
		ensurePageSpace(pdf, 30)
		y := pdf.GetY()
		pdfTextMain.setText(pdf)
		pdf.SetFont(family, "", 10)
		pdf.CellFormat(70, 6.5, tr(a.Name), "", 0, "L", false, 0, "")
		drawProgressBar(pdf, margin+72, y+1.8, 80, 3.4, a.Gap.CurrentScore/5.0, priorityColor(a.Gap.Priority))
		pdfTextMute.setText(pdf)
		pdf.SetXY(margin+154, y)
		pdf.CellFormat(contentW-154, 6.5, fmt.Sprintf("%s/5", num(a.Gap.CurrentScore)), "", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	// Gap table
	ensurePageSpace(pdf, 40)
	pdfTextMain.setText(pdf)
	pdf.SetFont(family, "B", 12)
	pdf.CellFormat(0, 7, "Gap analysis", "", 1, "L", false, 0, "")

	cols := []float64{contentW - 90, 30, 30, 30}
	pdf.SetFont(family, "B", 9.5)
	pdfRowAlt.setFill(pdf)
	pdfBorder.setDraw(pdf)
	for i, h := range []string{"Area", "Punteggio", "Gap", tr("Priorità")} {
		pdf.CellFormat(cols[i], 7, h, "B", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(family, "", 9.5)
	for i, a := range in.Areas {
		ensurePageSpace(pdf, 24)
		fill := i%2 == 1
		pdfTextMain.setText(pdf)
		pdf.CellFormat(cols[0], 6.5, tr(a.Name), "", 0, "L", fill, 0, "")
		pdf.CellFormat(cols[1], 6.5, num(a.Gap.CurrentScore), "", 0, "L", fill, 0, "")
		pdf.CellFormat(cols[2], 6.5, num(a.Gap.Gap), "", 0, "L", fill, 0, "")
		priorityColor(a.Gap.Priority).setText(pdf)
		pdf.CellFormat(cols[3], 6.5, string(a.Gap.Priority), "", 1, "L", fill, 0, "")
	}
	pdf.Ln(4)

	// Recommendations
	high := in.byPriority(model.PriorityHigh)
	medium := in.byPriority(model.PriorityMedium)
	if len(high)+len(medium) > 0 {
		ensurePageSpace(pdf, 40)
		pdfTextMain.setText(pdf)
		pdf.SetFont(family, "B", 12)
		pdf.CellFormat(0, 7, "Raccomandazioni prioritarie", "", 1, "L", false, 0, "")
		pdf.SetFont(family, "", 10)
		for _, a := range high {
			ensurePageSpace(pdf, 24)
			line := fmt.Sprintf("- %s: piano di azione immediato per colmare il gap di %s punti.", a.Name, num(a.Gap.Gap))
			pdf.MultiCell(contentW, 5.5, tr(line), "", "L", false)
		}
		for _, a := range medium {
			ensurePageSpace(pdf, 24)
			line := fmt.Sprintf("- %s: pianificare interventi di miglioramento nel prossimo anno.", a.Name)
			pdf.MultiCell(contentW, 5.5, tr(line), "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
