// CLAUDE:SUMMARY Portal control selectors: login fields, confirmation button, filter controls, query and export buttons.
package session

// Login page controls. The field IDs are GeneXus-generated and have been
// stable across portal revisions; the iframe fallback covers deployments
// that embed the login form instead.
const (
	usernameInput = `input#logFld_885_73_2_1`
	passwordInput = `input#logFld_885_73_2_2`
	loginIframe   = `iframe[src*="loginProd"]`
)

// submitSelectors is the priority order for the login submit control.
var submitSelectors = []string{
	`img.logBtnLogin`,
	`input[type="submit"]`,
	`button[type="submit"]`,
}

// submitButtonText is the last-resort text-labeled submit button.
const submitButtonText = "Ingresar"

// Post-login entity confirmation.
const (
	continueButton = `input[name="CONFIRMAR"][value="Continuar"]`
	entityURLMark  = "selecciona-entidad"
)

// resultsMenuLinkText is the menu entry leading to the received-CFE query
// page, matched by partial text across page and frames.
const resultsMenuLinkText = "Consulta de CFE recibidos"

// Query page filter controls.
const (
	selectTipoCFE   = `select#vFILTIPOCFE`
	dateFromInput   = `input#CTLFECHADESDE`
	dateToInput     = `input#CTLFECHAHASTA`
	consultarButton = `input[name="BOTONCONSULTAR"]`
)

// exportSelectors locate the grid's XLS export control across portal
// revisions.
var exportSelectors = []string{
	`input[name="EXPORTXLS"]`,
	`input#EXPORTXLS`,
	`img[id^="EXPORTXLS"]`,
	`a[id*="EXPORTXLS"]`,
}
