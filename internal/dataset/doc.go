// Package dataset loads the harvest distribution sheet from its configured
// source.
//
// Every Source returns the parsed records together with a DatasetInfo that
// carries a content checksum, the list of header tokens that matched no
// column, and the load time. Parsing itself is delegated to
// internal/dataprocessing, so all sources share the same tolerant rules.
//
// Supported sources:
//
//   - FileSource: tab-separated text on disk
//   - XLSXSource: an Excel workbook
//   - SheetsSource: a Google Sheets range read with an API key
//   - TextSource: TSV already in memory, such as an upload
package dataset
