package insights

import (
	"strconv"
	"strings"

	"arvaiapulse/pkg/contracts/domain"
)

const promptHeader = "Analizza questi dati di distribuzione agricola e fornisci un breve riassunto " +
	"(massimo 3 punti) sui trend principali, anomalie o suggerimenti.\n" +
	"Rispondi in italiano.\n" +
	"Dati:\n"

// BuildPrompt renders the first maxRecords records as prompt lines.
func BuildPrompt(records []domain.HarvestRecord, maxRecords int) string {
	if maxRecords > 0 && len(records) > maxRecords {
		records = records[:maxRecords]
	}

	var b strings.Builder
	b.WriteString(promptHeader)
	for i, r := range records {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(recordLine(r))
	}
	return b.String()
}

func recordLine(r domain.HarvestRecord) string {
	return r.Date + ": " + r.Product +
		" - Peso: " + formatNumber(r.WeightKg) + "kg" +
		" (Settimana: " + strconv.Itoa(r.Week) +
		", Temp Media: " + formatNumber(r.TempAvg) + "°C)"
}

// formatNumber prints the shortest representation, so 12.5 stays "12.5" and 30 stays "30".
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
