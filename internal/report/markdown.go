package report

import (
	"fmt"
	"strconv"
	"strings"

	"digitalmaturity/internal/model"

	"github.com/russross/blackfriday/v2"
)

// Markdown renders the Italian narrative report
func Markdown(in Input) string {
	name := in.Organization.Name
	if strings.TrimSpace(name) == "" {
		name = "Organizzazione"
	}

	var b strings.Builder
	b.WriteString("# REPORT DI MATURITÀ DIGITALE\n\n")
	fmt.Fprintf(&b, "## Organizzazione: %s\n", name)
	fmt.Fprintf(&b, "### Tipologia: %s\n", in.Organization.Type.Label())
	if in.Level == model.Level2 {
		b.WriteString("### Livello: Audit approfondito (Livello 2)\n")
	}
	b.WriteString("\n---\n\n## EXECUTIVE SUMMARY\n\n")
	fmt.Fprintf(&b, "L'assessment di maturità digitale ha evidenziato un livello complessivo di **%s** ", in.MaturityLabel)
	fmt.Fprintf(&b, "con un punteggio medio di **%s/5**.\n\n", num(in.MaturityLevel))

	b.WriteString("---\n\n## ANALISI PER AREA\n\n")
	for _, a := range in.Areas {
		fmt.Fprintf(&b, "### %s\n", a.Name)
		fmt.Fprintf(&b, "- **Punteggio attuale:** %s/5 %s\n", num(a.Gap.CurrentScore), Stars(a.Gap.CurrentScore))
		fmt.Fprintf(&b, "- **Gap rispetto al target:** %s\n", num(a.Gap.Gap))
		fmt.Fprintf(&b, "- **Priorità di intervento:** %s\n\n", a.Gap.Priority)
	}

	b.WriteString("---\n\n## RACCOMANDAZIONI PRIORITARIE\n\n")
	high := in.byPriority(model.PriorityHigh)
	medium := in.byPriority(model.PriorityMedium)
	if len(high) > 0 {
		b.WriteString("### Interventi Urgenti (Priorità Alta)\n\n")
		for _, a := range high {
			fmt.Fprintf(&b, "1. **%s**: Necessario un piano di azione immediato per colmare il gap di %s punti.\n", a.Name, num(a.Gap.Gap))
		}
		b.WriteString("\n")
	}
	if len(medium) > 0 {
		b.WriteString("### Interventi a Medio Termine (Priorità Media)\n\n")
		for _, a := range medium {
			fmt.Fprintf(&b, "1. **%s**: Pianificare interventi di miglioramento nel prossimo anno.\n", a.Name)
		}
		b.WriteString("\n")
	}
	if len(high) == 0 && len(medium) == 0 {
		b.WriteString("Nessuna area richiede interventi prioritari: consolidare il livello raggiunto.\n\n")
	}

	b.WriteString(roadmap)

	b.WriteString("---\n\n## CONCLUSIONI\n\n")
	fmt.Fprintf(&b, "%s si trova in una fase di **%s** nel proprio percorso di trasformazione digitale.\n", name, in.MaturityLabel)
	b.WriteString("Con un approccio strutturato e investimenti mirati, è possibile raggiungere livelli superiori di maturità ")
	b.WriteString("e ottenere significativi benefici in termini di efficienza, qualità del servizio e competitività.\n\n")
	b.WriteString("---\n\n*Report generato automaticamente dal sistema di Digital Maturity Assessment*\n")
	return b.String()
}

const roadmap = `---

## ROADMAP SUGGERITA

### Fase 1 - Quick Wins (0-3 mesi)
- Identificare e implementare miglioramenti rapidi nelle aree critiche
- Avviare programmi di formazione digitale base
- Definire KPI di monitoraggio

### Fase 2 - Consolidamento (3-12 mesi)
- Implementare soluzioni tecnologiche per le aree prioritarie
- Sviluppare competenze digitali avanzate
- Ottimizzare i processi chiave

### Fase 3 - Trasformazione (12-24 mesi)
- Completare la trasformazione digitale delle aree core
- Implementare tecnologie emergenti
- Raggiungere l'eccellenza operativa

`

// HTML renders the Markdown report as a standalone HTML page
func HTML(in Input) []byte {
	body := blackfriday.Run([]byte(Markdown(in)))

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"it\">\n<head>\n<meta charset=\"utf-8\">\n")
	b.WriteString("<title>Report di maturità digitale</title>\n</head>\n<body>\n")
	b.Write(body)
	b.WriteString("</body>\n</html>\n")
	return []byte(b.String())
}

// Stars draws a five-star gauge, one filled star per whole point
func Stars(score float64) string {
	n := int(score)
	if n < 0 {
		n = 0
	}
	if n > 5 {
		n = 5
	}
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
