package network

import (
	"html/template"
	"net/http"

	"github.com/MRamiBalles/sinewave/internal/platform/logger"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Animation</title>
</head>
<body>
<div id="app">{{.}}</div>
<script>
(function () {
  const root = document.getElementById("app");

  function apply(frame) {
    const groups = root.querySelectorAll("svg g");
    if (groups.length !== frame.points.length) {
      root.innerHTML = frame.html;
      return;
    }
    root.querySelector("h3").textContent = frame.count;
    root.querySelector("h3").parentElement.style.color = frame.color;
    frame.points.forEach(function (p, i) {
      const circle = groups[i].querySelector("circle");
      const label = groups[i].querySelector("text");
      circle.setAttribute("cx", p.x);
      circle.setAttribute("cy", p.y);
      label.setAttribute("x", p.x);
      label.setAttribute("y", p.y);
      label.textContent = p.key;
    });
  }

  const scheme = location.protocol === "https:" ? "wss://" : "ws://";
  const ws = new WebSocket(scheme + location.host + "/ws");
  ws.onmessage = function (ev) {
    ev.data.split("\n").forEach(function (line) {
      if (line) {
        apply(JSON.parse(line));
      }
    });
  };
  ws.onclose = function () {
    console.log("sinewave: connection closed");
  };
})();
</script>
</body>
</html>
`))

// PageHandler serves the host document with the current frame rendered in
// place. Frames arriving over /ws patch the SVG attributes so the circle
// transitions animate instead of the tree being replaced.
func PageHandler(snap Snapshotter, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		// The markup comes from view.Node.HTML, which escapes all text and attributes.
		if err := pageTemplate.Execute(w, template.HTML(snap.Snapshot().HTML)); err != nil {
			log.Error("Failed to render page: " + err.Error())
		}
	}
}
