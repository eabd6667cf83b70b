package extract

import "testing"

func TestCleanText_StripsMarkup(t *testing.T) {
	// WHAT: The last-resort readout path strips tags and entities, leaving
	// the bare value.
	cases := []struct{ in, want string }{
		{`<span class="ReadonlyAttribute">1.250,00</span>`, "1.250,00"},
		{"  ACME   S.A. \n", "ACME S.A."},
		{`<td><b>RUT:</b>&nbsp;211234560012</td>`, "RUT: 211234560012"},
		{`<script>alert(1)</script>111`, "111"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := CleanText(tc.in); got != tc.want {
			t.Errorf("CleanText(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFields_MatchDatasetColumns(t *testing.T) {
	// WHAT: Every field maps to a dataset column and every labeled column has
	// a field; the detail page readout fills the whole row.
	if len(Fields) != 21 {
		t.Fatalf("have %d fields, want 21", len(Fields))
	}
	seen := make(map[string]bool)
	for _, f := range Fields {
		if len(f.Selectors) == 0 {
			t.Errorf("field %s has no selector candidates", f.Column)
		}
		seen[f.Column] = true
	}
	for i, col := range [21]string{
		"razon_social", "rut_emisor", "tipo_cfe", "serie", "numero",
		"fecha_emision", "moneda", "tipo_cambio", "monto_no_gravado",
		"monto_exportacion", "monto_impuesto_percibido", "monto_iva_suspenso",
		"monto_neto_tasa_minima", "monto_neto_tasa_basica", "monto_neto_otra_tasa",
		"monto_iva_tasa_minima", "monto_iva_tasa_basica", "monto_iva_otra_tasa",
		"monto_total", "monto_retenido", "monto_credito_fiscal",
	} {
		if !seen[col] {
			t.Errorf("column %d (%s) has no extraction field", i, col)
		}
	}
}
