package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/a-h/templ"

	"github.com/conneroisu/sizekit/internal/preset"
	"github.com/conneroisu/sizekit/internal/style"
	"github.com/conneroisu/sizekit/internal/tokens"
)

// previewData is everything the preview page renders.
type previewData struct {
	StyleID string
	CSS     string
	Current string
	Presets []preset.Preset
	Tokens  []tokens.Token
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	styleID := s.opts.StyleID
	if styleID == "" {
		styleID = style.DefaultID
	}

	data := previewData{
		StyleID: styleID,
		CSS:     s.mgr.CSS(),
		Current: s.mgr.CurrentPreset(),
		Presets: s.mgr.Presets(),
		Tokens:  s.mgr.Generator().Tokens(s.mgr.Config()),
	}

	templ.Handler(previewPage(data)).ServeHTTP(w, r)
}

func previewPage(d previewData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder

		b.WriteString("<!DOCTYPE html>\n<html lang=\"en\"><head><meta charset=\"utf-8\">")
		b.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">")
		b.WriteString("<title>sizekit preview</title>")
		fmt.Fprintf(&b, "<style id=\"%s\">%s</style>", templ.EscapeString(d.StyleID), safeStyleText(d.CSS))
		b.WriteString("<style>" + previewCSS + "</style></head><body>")

		b.WriteString("<header><h1>sizekit</h1><nav>")
		for _, p := range d.Presets {
			class := "preset"
			if p.Name == d.Current {
				class += " active"
			}
			fmt.Fprintf(&b, "<button class=\"%s\" data-preset=\"%s\">%s <small>%spx</small></button>",
				class, templ.EscapeString(p.Name), templ.EscapeString(p.Label), formatPx(p.BaseSize))
		}
		b.WriteString("</nav><p>viewport: <strong id=\"viewport-bp\">-</strong></p></header><main>")

		b.WriteString("<section class=\"card\" data-container=\"card\"><h2>Container</h2>")
		b.WriteString("<p>breakpoint: <strong data-container-bp=\"card\">-</strong></p></section>")

		b.WriteString("<table><thead><tr><th>Token</th><th>Value</th><th>Sample</th></tr></thead><tbody>")
		for _, t := range d.Tokens {
			fmt.Fprintf(&b,
				"<tr><td><code>%s</code></td><td>%s</td><td><span class=\"sample\" style=\"width: var(%s)\"></span></td></tr>",
				templ.EscapeString(t.Var()), templ.EscapeString(t.Value), templ.EscapeString(t.Var()))
		}
		b.WriteString("</tbody></table></main>")
		fmt.Fprintf(&b, "<script data-style-id=\"%s\">%s</script>", templ.EscapeString(d.StyleID), previewScript)
		b.WriteString("</body></html>\n")

		_, err := io.WriteString(w, b.String())
		return err
	})
}

// safeStyleText keeps css from closing its style element.
func safeStyleText(css string) string {
	return strings.ReplaceAll(css, "</", "<\\/")
}

func formatPx(f float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", f), "0"), ".")
}

const previewCSS = `body{font-family:system-ui,sans-serif;margin:0;padding:var(--size-spacing-md,1rem)}
header{display:flex;flex-wrap:wrap;gap:var(--size-spacing-sm,.5rem);align-items:center}
button.preset{padding:var(--size-spacing-xs,.25rem) var(--size-spacing-sm,.5rem);border-radius:var(--size-radius-md,4px);border:1px solid #999;background:#fff}
button.preset.active{background:#222;color:#fff}
.card{resize:horizontal;overflow:auto;border:1px solid #ccc;border-radius:var(--size-radius-lg,8px);padding:var(--size-spacing-md,1rem);margin:var(--size-spacing-md,1rem) 0;max-width:100%}
table{border-collapse:collapse;width:100%}td,th{text-align:left;padding:4px 8px;border-bottom:1px solid #eee}
.sample{display:inline-block;height:8px;background:#4a7}`

const previewScript = `(function(){
var styleId=document.currentScript.dataset.styleId;
var proto=location.protocol==="https:"?"wss:":"ws:";
var ws;
function send(m){if(ws&&ws.readyState===1){ws.send(JSON.stringify(m));}}
function reportViewport(){send({type:"viewport",width:window.innerWidth});}
var ro=new ResizeObserver(function(entries){entries.forEach(function(e){
send({type:"container",id:e.target.dataset.container,width:e.contentRect.width});});});
function connect(){
ws=new WebSocket(proto+"//"+location.host+"/ws");
ws.onopen=function(){reportViewport();document.querySelectorAll("[data-container]").forEach(function(el){ro.observe(el);});};
ws.onmessage=function(ev){var m=JSON.parse(ev.data);
if(m.type==="css"){var el=document.getElementById(styleId);if(!el){el=document.createElement("style");el.id=styleId;document.head.appendChild(el);}el.textContent=m.css||"";}
if(m.type==="breakpoint"){if(m.id){var t=document.querySelector('[data-container-bp="'+m.id+'"]');if(t){t.textContent=m.name||"none";}}
else{document.getElementById("viewport-bp").textContent=(m.name||"none")+" ("+m.width+"px)";}}};
ws.onclose=function(){ro.disconnect();setTimeout(connect,1000);};}
var timer;window.addEventListener("resize",function(){clearTimeout(timer);timer=setTimeout(reportViewport,100);});
document.querySelectorAll("[data-preset]").forEach(function(b){b.addEventListener("click",function(){
fetch("/api/presets/"+encodeURIComponent(b.dataset.preset)+"/apply",{method:"POST"}).then(function(){
document.querySelectorAll("[data-preset]").forEach(function(o){o.classList.toggle("active",o===b);});});});});
connect();})();`
