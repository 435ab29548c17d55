package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/traffic-light/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Traffic Light</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.lamp { display: inline-block; width: 14px; height: 14px; border-radius: 50%; border: 1px solid #444; vertical-align: middle; }
.lamp-Red { background: red; }
.lamp-Yellow { background: gold; }
.lamp-Green { background: green; }
.lamp-Blinking { background: orange; }
.lamp-OFF { background: #ccc; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>Traffic Light{{if .Config.WSBroker}}<span id="live-dot" class="live-dot pending" title="connecting"></span>{{end}}</h1>

<h2>State</h2>
<table>
<tr><th>Mode</th><td id="mode">{{.Mode}}</td></tr>
<tr><th>LED</th><td><span id="led-lamp" class="lamp lamp-{{.LED}}"></span> <span id="led">{{.LED}}</span></td></tr>
<tr><th>Phase</th><td>{{.Phase}}</td></tr>
<tr><th>Brightness</th><td id="brightness">{{.Brightness}}</td></tr>
<tr><th>Running</th><td>{{if .Running}}yes{{else}}no{{end}}</td></tr>
</table>

<h2>Lamps</h2>
<table>
<tr><th></th><th>Duty</th><th>Duration</th></tr>
<tr><td>Red</td><td>{{.Lamps.Red}}</td><td>{{.Durations.Red}}ms</td></tr>
<tr><td>Yellow</td><td>{{.Lamps.Yellow}}</td><td>{{.Durations.Yellow}}ms</td></tr>
<tr><td>Green</td><td>{{.Lamps.Green}}</td><td>{{.Durations.Green}}ms</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTT.Connected}}connected{{else}}disconnected{{end}}">{{if .MQTT.Connected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>Serial</th><td>{{.Config.SerialPort}} @ {{.Config.Baud}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Counts</h2>
<table>
<tr><th>Cycles</th><td>{{.Counts.Cycles}}</td></tr>
<tr><th>Mode changes</th><td>{{.Counts.ModeChanges}}</td></tr>
<tr><th>Commands applied</th><td>{{.Counts.CommandsApplied}}</td></tr>
<tr><th>Commands rejected</th><td>{{.Counts.CommandsRejected}}</td></tr>
<tr><th>Buttons dropped</th><td>{{.Counts.ButtonsDropped}}</td></tr>
<tr><th>Sample errors</th><td>{{.Counts.SampleErrors}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime}}</td></tr>
<tr><th>Lights</th><td>{{.Config.Lights}}</td></tr>
<tr><th>Buttons</th><td>{{.Config.Buttons}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
{{if .Config.ConfigFile}}<tr><th>Config</th><td>{{.Config.ConfigFile}}</td></tr>{{end}}
</table>

<p><a href="/index.json">JSON</a> | <a href="/docs">API</a> | <a href="/metrics">Metrics</a></p>
{{if .Config.WSBroker}}
<script src="https://unpkg.com/mqtt@5/dist/mqtt.min.js"></script>
<script>
(function() {
  var broker = "{{.Config.WSBroker}}";
  var topic = "{{.Config.Prefix}}/status";
  var dot = document.getElementById("live-dot");
  var modeEl = document.getElementById("mode");
  var ledEl = document.getElementById("led");
  var lampEl = document.getElementById("led-lamp");
  var brightEl = document.getElementById("brightness");

  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }

  var client = mqtt.connect(broker, { reconnectPeriod: 5000 });

  client.on("connect", function() {
    setDot("ok", "live");
    client.subscribe(topic);
  });

  client.on("reconnect", function() {
    setDot("pending", "reconnecting");
  });

  client.on("offline", function() {
    setDot("err", "offline");
  });

  client.on("error", function() {
    setDot("err", "error");
  });

  client.on("message", function(t, payload) {
    try {
      var msg = JSON.parse(payload.toString());
      if (msg.traffic_light) {
        modeEl.textContent = msg.traffic_light.mode;
        ledEl.textContent = msg.traffic_light.led;
        lampEl.className = "lamp lamp-" + msg.traffic_light.led;
        brightEl.textContent = msg.traffic_light.brightness;
      }
    } catch (e) {}
  });
})();
</script>
{{end}}
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	data := struct {
		status.StatusInner
		Uptime time.Duration
	}{
		StatusInner: status.Build(snap),
		Uptime:      snap.Uptime(),
	}
	return indexTmpl.Execute(w, data)
}
