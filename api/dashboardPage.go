package api

import (
	"html/template"
	"net/http"
)

// The dashboard is a single page: Plotly renders the trend chart and the
// activity map from the JSON routes, and a chart click posts the clickData
// payload back to /v1/selection to refresh the table.
const dashboardTmpl = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<title>Charity Quest Administrator Dashboard</title>
<script src="https://cdn.plot.ly/plotly-2.20.0.min.js"></script>
<style>
*{box-sizing:border-box;margin:0;padding:0}
body{font-family:'Helvetica Neue',Helvetica,Arial,sans-serif;color:#333;padding:16px}
h1{font-size:24px;margin-bottom:12px}
h3{font-size:16px;margin:12px 0 6px}
h5{font-size:12px;font-weight:400;color:#666;margin:2px 0}
.row{display:flex;gap:16px;flex-wrap:wrap;margin-bottom:16px}
.trend{flex:7;min-width:420px}
.detail{flex:5;min-width:320px}
table{width:100%;border-collapse:collapse;font-size:12px}
th{text-align:left;padding:6px 8px;border-bottom:2px solid #333}
td{padding:5px 8px;border-bottom:1px solid #ddd}
#map{width:100%;height:460px}
#trend{width:100%;height:380px}
</style>
</head>
<body>
<h1>Charity Quest Administrator Dashboard</h1>
<div class="row">
  <div class="trend">
    <h3>Daily trend in quest signups</h3>
    <div id="trend"></div>
  </div>
  <div class="detail">
    <h3>Users signed up by day</h3>
    <table id="table">
      <thead><tr><th>username</th><th>entityid</th><th>time</th><th>date</th></tr></thead>
      <tbody></tbody>
    </table>
  </div>
</div>
<div>
  <h3>Active users scatter map</h3>
  <h5>Active users = signed up for at least one quest (regardless if they ultimately bailed)</h5>
  <h5>Frequency = number of active users that have logged-in at given location</h5>
  <div id="map"></div>
</div>
<script>
async function getJSON(url, opts) {
  const resp = await fetch(url, opts);
  if (!resp.ok) throw new Error(url + ' -> ' + resp.status);
  return resp.json();
}

function renderTable(selection) {
  const body = document.querySelector('#table tbody');
  body.innerHTML = '';
  for (const row of selection.rows) {
    const tr = document.createElement('tr');
    for (const field of ['username', 'entityid', 'time', 'date']) {
      const td = document.createElement('td');
      td.textContent = row[field];
      tr.appendChild(td);
    }
    body.appendChild(tr);
  }
}

async function select(clickData) {
  const selection = await getJSON('/v1/selection', {
    method: 'POST',
    headers: {'Content-Type': 'application/json'},
    body: JSON.stringify(clickData)
  });
  renderTable(selection);
}

async function main() {
  const trend = await getJSON('/v1/trend');
  const dates = trend.map(p => p.date);
  Plotly.newPlot('trend', [
    {x: dates, y: trend.map(p => p.count), name: 'sign-up count', mode: 'lines'},
    {x: dates, y: trend.map(p => p.rollingAvg), name: '7 day avg', mode: 'lines'}
  ], {margin: {t: 24}});
  document.getElementById('trend').on('plotly_click', data => select(data));

  const map = await getJSON('/v1/map');
  Plotly.newPlot('map', [{
    type: 'scattergeo',
    lat: map.map(p => p.latitude),
    lon: map.map(p => p.longitude),
    text: map.map(p => p.city + ' (' + p.frequency + ')'),
    marker: {size: map.map(p => 6 + 4 * p.frequency), color: map.map(p => p.frequency), colorscale: 'Burg'}
  }], {geo: {center: {lon: -74, lat: 40.7}, projection: {scale: 4}}, margin: {t: 12}});

  await select(null);
}
main().catch(err => console.error(err));
</script>
</body>
</html>
`

var dashboardPage = template.Must(template.New("dashboard").Parse(dashboardTmpl))

// GetPage serves the dashboard page itself.
func (c *DashboardController) GetPage(res http.ResponseWriter, req *http.Request) {
	res.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboardPage.Execute(res, nil); err != nil {
		c.logger.Printf("rendering dashboard page: %v", err)
	}
}
