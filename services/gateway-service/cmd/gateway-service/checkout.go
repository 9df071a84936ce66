package main

import (
	"html/template"
	"net/http"
)

// Placeholder return pages for Stripe checkout until a real frontend
// exists. The success page polls the session status so the owner sees the
// webhook land; both pages ack the outcome to the billing service.
var checkoutReturnTmpl = template.Must(template.New("checkout-return").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body{font-family:system-ui,-apple-system,Segoe UI,Roboto,Ubuntu,Arial,sans-serif;margin:40px;max-width:880px;line-height:1.4}
code{background:#f4f4f4;padding:2px 4px;border-radius:4px}
pre{background:#0b1020;color:#e6edf3;padding:12px;border-radius:8px;overflow:auto}
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{if not .SessionID}}
<p>Missing <code>session_id</code> query parameter.</p>
{{else}}
<p>Session: <code>{{.SessionID}}</code></p>
<p>Status: <span id="status">checking...</span></p>
<pre id="raw"></pre>
<script>
const sessionId = {{.SessionID}};
const mode = {{.Mode}};
async function ack() {
  try {
    await fetch('/api/v1/billing/checkout/session/ack', {
      method: 'POST',
      headers: {'Content-Type':'application/json'},
      body: JSON.stringify({session_id: sessionId, result: mode}),
    });
  } catch (e) {}
}
async function poll() {
  try {
    const resp = await fetch('/api/v1/billing/checkout/session?session_id=' + encodeURIComponent(sessionId), {cache:'no-store'});
    const txt = await resp.text();
    let obj = null;
    try { obj = JSON.parse(txt); } catch (e) {}
    document.getElementById('raw').textContent = txt;
    if (!resp.ok) {
      document.getElementById('status').textContent = 'error (' + resp.status + ')';
      return;
    }
    const s = obj && obj.status ? obj.status : 'unknown';
    document.getElementById('status').textContent = s;
    if (mode === 'success' && s !== 'completed') setTimeout(poll, 1500);
  } catch (e) {
    document.getElementById('status').textContent = 'error';
  }
}
ack();
poll();
</script>
{{end}}
</body>
</html>
`))

func checkoutReturnPage(title, mode string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = checkoutReturnTmpl.Execute(w, map[string]string{
			"Title":     title,
			"Mode":      mode,
			"SessionID": r.URL.Query().Get("session_id"),
		})
	}
}
