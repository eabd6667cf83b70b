// CLAUDE:SUMMARY Record type and the fixed output column order for extracted CFE rows.
// Package dataset persists extracted CFE records: an append-only CSV written
// row by row during a run, an XLSX produced at the end, and a canonical-URL
// index that guarantees at-most-once processing across runs.
package dataset

import "errors"

// ErrInvalidURL is returned when a URL cannot be canonicalized.
var ErrInvalidURL = errors.New("dataset: invalid URL")

// SourceURLColumn is the provenance column appended after the labeled fields.
const SourceURLColumn = "_source_url"

// Columns is the fixed output column order: 21 labeled fields plus the
// provenance URL. The CSV header and the XLSX sheet both follow this order.
var Columns = []string{
	"razon_social",
	"rut_emisor",
	"tipo_cfe",
	"serie",
	"numero",
	"fecha_emision",
	"moneda",
	"tipo_cambio",
	"monto_no_gravado",
	"monto_exportacion",
	"monto_impuesto_percibido",
	"monto_iva_suspenso",
	"monto_neto_tasa_minima",
	"monto_neto_tasa_basica",
	"monto_neto_otra_tasa",
	"monto_iva_tasa_minima",
	"monto_iva_tasa_basica",
	"monto_iva_otra_tasa",
	"monto_total",
	"monto_retenido",
	"monto_credito_fiscal",
	SourceURLColumn,
}

// Record is one extracted invoice. Fields is keyed by column name; missing
// fields are empty strings. Identity is the canonical form of SourceURL.
type Record struct {
	Fields    map[string]string
	SourceURL string
}

// Row returns the record's values in Columns order.
func (r Record) Row() []string {
	row := make([]string, 0, len(Columns))
	for _, col := range Columns {
		if col == SourceURLColumn {
			row = append(row, r.SourceURL)
			continue
		}
		row = append(row, r.Fields[col])
	}
	return row
}
