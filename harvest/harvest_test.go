package harvest

import (
	"testing"
)

const gridHTML = `
<html><head><base href="https://portal.example/app/"></head><body>
<table id="GridContainerTbl">
  <tr>
    <td><a href="ver.aspx?doc=1">CFE 1</a></td>
    <td><img src="https://portal.example/app/ver.aspx?doc=2"></td>
    <td><a onclick="window.open('ver.aspx?doc=3','_blank');return false;">CFE 3</a></td>
    <td><a href="ver.aspx?doc=1#detalle">CFE 1 again</a></td>
    <td><a href="javascript:void(0)" onclick="gx.popup.open('https://portal.example/app/ver.aspx?doc=4')">CFE 4</a></td>
  </tr>
</table>
</body></html>`

func TestFromHTML_CollectsAnchorsImagesAndHandlers(t *testing.T) {
	// WHAT: href, img src, and both onclick URL shapes all become candidates,
	// resolved against the document base.
	got := FromHTML(gridHTML, "https://portal.example/app/consulta.aspx")

	want := []string{
		"https://portal.example/app/ver.aspx?doc=1",
		"https://portal.example/app/ver.aspx?doc=2",
		"https://portal.example/app/ver.aspx?doc=3",
		"https://portal.example/app/ver.aspx?doc=4",
	}
	if len(got) != len(want) {
		t.Fatalf("got %d candidates: %+v", len(got), got)
	}
	for i, c := range got {
		if c.Canonical != want[i] {
			t.Errorf("candidate %d = %q, want %q", i, c.Canonical, want[i])
		}
	}
}

func TestFromHTML_DedupFirstOccurrenceWins(t *testing.T) {
	// WHAT: URL variants of the same record collapse to one candidate, keeping
	// the first occurrence's position.
	html := `<body>
		<a href="https://Host/a/b/">one</a>
		<a href="https://host/other">two</a>
		<a href="https://host/a/b#frag">dup of one</a>
	</body>`
	got := FromHTML(html, "")
	if len(got) != 2 {
		t.Fatalf("got %d candidates: %+v", len(got), got)
	}
	if got[0].Canonical != "https://host/a/b" || got[1].Canonical != "https://host/other" {
		t.Errorf("order or dedup wrong: %+v", got)
	}
}

func TestFromHTML_RelativeAgainstFrameURL(t *testing.T) {
	// WHAT: Without a <base> tag, relative URLs resolve against the frame's
	// own URL — not the top page's.
	// WHY: The results grid lives in a nested iframe served from a different
	// path than the outer document.
	html := `<body><a href="detalle.aspx?id=9">row</a></body>`
	got := FromHTML(html, "https://portal.example/consultas/frame/grid.aspx")
	if len(got) != 1 {
		t.Fatalf("got %+v", got)
	}
	if got[0].URL != "https://portal.example/consultas/frame/detalle.aspx?id=9" {
		t.Errorf("resolved to %q", got[0].URL)
	}
}

func TestFromHTML_ImageInputSrc(t *testing.T) {
	// WHAT: An <input type="image"> grid button's src is harvested like an
	// <img> src, while other inputs carrying a src-like attribute are not.
	html := `<body>
		<input type="image" src="ver.aspx?doc=8">
		<input type="IMAGE" src="ver.aspx?doc=9" onclick="toggleRow(this)">
		<input type="text" src="ver.aspx?doc=10" onclick="toggleRow(this)">
	</body>`
	got := FromHTML(html, "https://portal.example/app/grid.aspx")
	want := []string{
		"https://portal.example/app/ver.aspx?doc=8",
		"https://portal.example/app/ver.aspx?doc=9",
	}
	if len(got) != len(want) {
		t.Fatalf("got %d candidates: %+v", len(got), got)
	}
	for i, c := range got {
		if c.Canonical != want[i] {
			t.Errorf("candidate %d = %q, want %q", i, c.Canonical, want[i])
		}
	}
}

func TestFromHTML_SkipsNonNavigable(t *testing.T) {
	// WHAT: javascript:, mailto:, fragments, and empty hrefs never become candidates.
	html := `<body>
		<a href="javascript:void(0)">x</a>
		<a href="#">y</a>
		<a href="mailto:soporte@example.com">z</a>
		<a href="">w</a>
	</body>`
	if got := FromHTML(html, "https://host/"); len(got) != 0 {
		t.Fatalf("got %+v", got)
	}
}

func TestURLsFromHandler_Patterns(t *testing.T) {
	// WHAT: Both handler shapes are recognized: a quoted absolute URL, and a
	// relative argument of a window-open-style call.
	cases := []struct {
		name    string
		handler string
		want    []string
	}{
		{
			"quoted absolute",
			`doStuff('https://host/ver?id=1'); return false;`,
			[]string{"https://host/ver?id=1"},
		},
		{
			"window.open relative",
			`window.open('ver.aspx?id=2', 'popup');`,
			[]string{"ver.aspx?id=2"},
		},
		{
			"both in one handler",
			`window.open('rel.aspx'); track('https://host/abs');`,
			[]string{"https://host/abs", "rel.aspx"},
		},
		{
			"no URLs",
			`toggleRow(this); return false;`,
			nil,
		},
		{
			"empty",
			"",
			nil,
		},
	}
	for _, tc := range cases {
		got := URLsFromHandler(tc.handler)
		if len(got) != len(tc.want) {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
			}
		}
	}
}
