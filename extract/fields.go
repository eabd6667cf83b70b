// CLAUDE:SUMMARY Field definitions for the CFE detail page: output column, ordered selector candidates, GeneXus control naming.
// Package extract visits each candidate record URL in a fresh tab, pulls the
// fixed field set off the detail page, and appends one row per record through
// the dataset store — immediately, so a partial run leaves usable output.
package extract

// Field maps an output column to the ordered selector candidates tried on
// the detail page. The first candidate present wins; a field with no match
// resolves to the empty string, never an error.
type Field struct {
	Column    string
	Selectors []string
}

// The portal's detail page is GeneXus-generated: label/value cells carry
// TEXTBLOCK*/span control IDs that drifted across portal revisions, hence
// several candidates per field.
var Fields = []Field{
	{"razon_social", []string{`span#span_vRAZONSOCIAL`, `span[id*="RAZONSOCIAL"]`, `td[id*="RAZONSOCIAL"]`}},
	{"rut_emisor", []string{`span#span_vRUTEMISOR`, `span[id*="RUTEMISOR"]`, `span[id*="RUCEMISOR"]`, `td[id*="RUTEMISOR"]`}},
	{"tipo_cfe", []string{`span#span_vTIPOCFE`, `span[id*="TIPOCFE"]`, `td[id*="TIPOCFE"]`}},
	{"serie", []string{`span#span_vSERIECFE`, `span[id*="SERIE"]`, `td[id*="SERIE"]`}},
	{"numero", []string{`span#span_vNROCFE`, `span[id*="NROCFE"]`, `span[id*="NUMERO"]`}},
	{"fecha_emision", []string{`span#span_vFECHAEMISION`, `span[id*="FECHAEMISION"]`, `input[id*="FECHAEMISION"]`}},
	{"moneda", []string{`span#span_vMONEDA`, `span[id*="MONEDA"]`, `td[id*="MONEDA"]`}},
	{"tipo_cambio", []string{`span#span_vTIPOCAMBIO`, `span[id*="TIPOCAMBIO"]`, `td[id*="TIPOCAMBIO"]`}},
	{"monto_no_gravado", []string{`span[id*="MONTONOGRAVADO"]`, `span[id*="MNTNOGRAVADO"]`}},
	{"monto_exportacion", []string{`span[id*="MONTOEXPORTACION"]`, `span[id*="MNTEXPOASIM"]`}},
	{"monto_impuesto_percibido", []string{`span[id*="IMPUESTOPERCIBIDO"]`, `span[id*="MNTIMPPERCIBIDO"]`}},
	{"monto_iva_suspenso", []string{`span[id*="IVASUSPENSO"]`, `span[id*="MNTIVAENSUSP"]`}},
	{"monto_neto_tasa_minima", []string{`span[id*="NETOTASAMINIMA"]`, `span[id*="MNTNETOIVATASAMIN"]`}},
	{"monto_neto_tasa_basica", []string{`span[id*="NETOTASABASICA"]`, `span[id*="MNTNETOIVATASABAS"]`}},
	{"monto_neto_otra_tasa", []string{`span[id*="NETOOTRATASA"]`, `span[id*="MNTNETOIVAOTRA"]`}},
	{"monto_iva_tasa_minima", []string{`span[id*="IVATASAMINIMA"]`, `span[id*="MNTIVATASAMIN"]`}},
	{"monto_iva_tasa_basica", []string{`span[id*="IVATASABASICA"]`, `span[id*="MNTIVATASABAS"]`}},
	{"monto_iva_otra_tasa", []string{`span[id*="IVAOTRATASA"]`, `span[id*="MNTIVAOTRA"]`}},
	{"monto_total", []string{`span[id*="MONTOTOTAL"]`, `span[id*="MNTTOTAL"]`}},
	{"monto_retenido", []string{`span[id*="MONTORETENIDO"]`, `span[id*="MNTRETPERC"]`}},
	{"monto_credito_fiscal", []string{`span[id*="CREDITOFISCAL"]`, `span[id*="MNTCREDFISC"]`}},
}

// anchorSelectors identify a context as the one holding the detail fields.
// When a nested frame contains any of these, extraction targets that frame;
// otherwise the top document is used.
var anchorSelectors = []string{
	`span[id*="RUTEMISOR"]`,
	`span[id*="RAZONSOCIAL"]`,
	`span[id*="TIPOCFE"]`,
}
