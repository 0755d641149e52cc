// Package exporter writes the dashboard tables to CSV and Excel.
//
// A Report carries the annual weekly aggregates and the product breakdown of
// the selected week. Both writers emit the same two tables:
//
//	Annuale:   Settimana, Lunedi, Peso_kg, T_media, T_max, T_min, Precipitazioni
//	Settimana: Prodotto, Kg_settimana, Kg_annuo, Percentuale
//
// CSVWriter writes them as two sections of one UTF-8 file with a BOM, so
// Excel opens accented product names correctly. ExcelWriter writes one
// sheet per table. Missing averages are left as empty cells.
//
// Example usage:
//
//	report := exporter.NewReport(view, calendar)
//	w, err := exporter.ForFormat(exporter.FormatXLSX)
//	if err != nil {
//	    return err
//	}
//	err = w.WriteReport(out, report)
package exporter
