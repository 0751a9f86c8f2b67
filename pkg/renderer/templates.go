package renderer

// baseTemplate is the page skeleton shared by the report and trends pages
const baseTemplate = `{{define "page"}}<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <meta name="generator" content="bench-report {{.Version}}">
    <title>{{template "title" .}}</title>
{{- range .Libraries}}
{{- if .CSS}}
{{- if .URL}}
    <link rel="stylesheet" href="{{.URL}}">
{{- else}}
    <style>{{.Style}}</style>
{{- end}}
{{- else}}
{{- if .URL}}
    <script src="{{.URL}}"></script>
{{- else}}
    <script>{{.Script}}</script>
{{- end}}
{{- end}}
{{- end}}
    <style>
        body { font-family: Helvetica, Arial, sans-serif; margin: 0; color: #333; }
        header { background: #1c2530; color: #fff; padding: 12px 24px; }
        header .version { color: #9aa4af; font-size: 12px; }
        nav { float: left; width: 280px; padding: 12px; border-right: 1px solid #ddd; min-height: 100vh; }
        nav .group { font-weight: bold; margin-top: 12px; }
        nav a { display: block; padding: 2px 8px; color: #2b6cb0; cursor: pointer; }
        nav a.active { background: #e2e8f0; }
        main { margin-left: 320px; padding: 12px 24px; }
        table { border-collapse: collapse; margin: 12px 0; }
        th, td { border: 1px solid #ddd; padding: 4px 8px; text-align: right; }
        th:first-child, td:first-child { text-align: left; }
        .failed { color: #c53030; }
        .passed { color: #2f855a; }
        .chart svg { height: 300px; width: 100%; }
        pre { background: #f7fafc; padding: 8px; overflow: auto; }
    </style>
</head>
<body>
<header>
    <span>{{template "title" .}}</span>
    <span class="version">bench-report {{.Version}}</span>
</header>
<nav id="menu"></nav>
<main id="content"></main>
<script>
    var VERSION = {{.Version}};
{{template "script" .}}
</script>
</body>
</html>
{{end}}`

const reportTemplate = `{{define "title"}}Benchmark Task Report{{end}}
{{define "script"}}
    var workloads = {{json .Data}};
    var source = {{json .Source}};

    function el(tag, attrs, text) {
        var node = document.createElement(tag);
        Object.keys(attrs || {}).forEach(function (k) { node.setAttribute(k, attrs[k]); });
        if (text !== undefined) { node.textContent = text; }
        return node;
    }

    function table(t) {
        var tbl = el("table");
        var head = el("tr");
        t.cols.forEach(function (c) { head.appendChild(el("th", {}, c)); });
        tbl.appendChild(head);
        t.rows.forEach(function (row) {
            var tr = el("tr");
            row.forEach(function (cell) { tr.appendChild(el("td", {}, cell === null ? "n/a" : cell)); });
            tbl.appendChild(tr);
        });
        return tbl;
    }

    function chart(container, widget, data) {
        var box = el("div", {"class": "chart"});
        var svg = document.createElementNS("http://www.w3.org/2000/svg", "svg");
        box.appendChild(svg);
        container.appendChild(box);
        if (typeof nv === "undefined" || !data || !data.length) { return; }
        nv.addGraph(function () {
            var c;
            switch (widget) {
            case "Pie": c = nv.models.pieChart().x(function (d) { return d[0]; }).y(function (d) { return d[1]; }); break;
            case "StackedArea": c = nv.models.stackedAreaChart().useInteractiveGuideline(true); break;
            case "Lines": c = nv.models.lineChart().useInteractiveGuideline(true); break;
            default: c = nv.models.multiBarChart();
            }
            if (widget !== "Pie") {
                c.x(function (d) { return d[0]; }).y(function (d) { return d[1]; });
                data = data.map(function (s) { return {key: s[0], values: s[1]}; });
            }
            d3.select(svg).datum(data).call(c);
            return c;
        });
    }

    function histogram(container, groups) {
        if (!groups || !groups.length || !groups[0].length) { return; }
        var select = el("select");
        groups[0].forEach(function (h, i) { select.appendChild(el("option", {"value": i}, h.view)); });
        var box = el("div");
        container.appendChild(select);
        container.appendChild(box);
        var draw = function () {
            box.innerHTML = "";
            var idx = +select.value;
            var box2 = el("div", {"class": "chart"});
            var svg = document.createElementNS("http://www.w3.org/2000/svg", "svg");
            box2.appendChild(svg);
            box.appendChild(box2);
            if (typeof nv === "undefined") { return; }
            nv.addGraph(function () {
                var c = nv.models.multiBarChart().showControls(false);
                d3.select(svg).datum(groups.map(function (g) { return g[idx]; })).call(c);
                return c;
            });
        };
        select.onchange = draw;
        draw();
    }

    function outputs(container, list) {
        (list || []).forEach(function (o) {
            container.appendChild(el("h4", {}, o.title));
            if (o.description) { container.appendChild(el("p", {}, o.description)); }
            if (o.widget === "Table") { container.appendChild(table(o.data)); }
            else if (o.widget === "TextArea") { container.appendChild(el("pre", {}, o.data.join("\n"))); }
            else { chart(container, o.widget, o.data); }
        });
    }

    function show(w) {
        var main = document.getElementById("content");
        main.innerHTML = "";
        main.appendChild(el("h2", {}, w.cls + "." + w.met));
        main.appendChild(el("p", {"class": w.sla_success ? "passed" : "failed"},
            w.sla_success ? "SLA passed" : "SLA failed"));
        if (w.description) { main.appendChild(el("p", {}, w.description)); }
        main.appendChild(el("h3", {}, "Overview"));
        main.appendChild(table(w.table));
        main.appendChild(el("p", {}, "Runner: " + w.runner + ", iterations: " + w.iterations_count +
            ", load duration: " + w.load_duration + "s, full duration: " + w.full_duration + "s"));
        if (w.sla.length) {
            main.appendChild(el("h3", {}, "Service-level agreement"));
            main.appendChild(table({
                cols: ["Criterion", "Detail", "Success"],
                rows: w.sla.map(function (s) { return [s.criterion, s.detail, s.success ? "Yes" : "No"]; })
            }));
        }
        main.appendChild(el("h3", {}, "Total durations"));
        chart(main, "StackedArea", w.iterations.iter);
        chart(main, "Pie", w.iterations.pie);
        histogram(main, w.iterations.histogram);
        main.appendChild(el("h3", {}, "Load profile"));
        chart(main, "StackedArea", w.load_profile);
        if (w.atomic.iter.length) {
            main.appendChild(el("h3", {}, "Atomic actions"));
            chart(main, "StackedArea", w.atomic.iter);
            chart(main, "Pie", w.atomic.pie);
            histogram(main, w.atomic.histogram);
        }
        if (w.additive_output.length) {
            main.appendChild(el("h3", {}, "Scenario data"));
            outputs(main, w.additive_output);
        }
        if (w.has_output) {
            w.complete_output.forEach(function (c, i) {
                if (!c.length) { return; }
                main.appendChild(el("h3", {}, "Iteration " + (i + 1) + " data"));
                outputs(main, c);
            });
        }
        (w.hooks || []).forEach(function (h) {
            main.appendChild(el("h3", {}, "Hook: " + h.name));
            outputs(main, h.additive);
            h.complete.forEach(function (c) {
                main.appendChild(el("p", {}, c.triggered_by + " [" + c.status + "] " + c.started_at + " - " + c.finished_at));
                outputs(main, c.charts);
            });
        });
        if (w.errors.length) {
            main.appendChild(el("h3", {"class": "failed"}, "Failures"));
            w.errors.forEach(function (e) {
                main.appendChild(el("p", {}, "#" + e.iteration + " " + e.timestamp + " " + e.type + ": " + e.message));
                main.appendChild(el("pre", {}, e.traceback));
            });
        }
        main.appendChild(el("h3", {}, "Input task"));
        main.appendChild(el("pre", {}, w.config));
    }

    (function () {
        var menu = document.getElementById("menu");
        var src = el("a", {}, "Task source");
        src.onclick = function () {
            var main = document.getElementById("content");
            main.innerHTML = "";
            main.appendChild(el("pre", {}, source));
        };
        menu.appendChild(src);
        var cls = null;
        (workloads || []).forEach(function (w) {
            if (w.cls !== cls) {
                cls = w.cls;
                menu.appendChild(el("div", {"class": "group"}, cls));
            }
            var a = el("a", {"class": w.sla_success ? "passed" : "failed"}, w.name);
            a.onclick = function () { show(w); };
            menu.appendChild(a);
        });
        if (workloads && workloads.length) { show(workloads[0]); }
    })();
{{end}}`

const trendsTemplate = `{{define "title"}}Benchmark Trends Report{{end}}
{{define "script"}}
    var trends = {{json .Data}};

    function el(tag, text) {
        var node = document.createElement(tag);
        if (text !== undefined) { node.textContent = text; }
        return node;
    }

    function lines(container, series) {
        var svg = document.createElementNS("http://www.w3.org/2000/svg", "svg");
        var box = el("div");
        box.className = "chart";
        box.appendChild(svg);
        container.appendChild(box);
        if (typeof nv === "undefined") { return; }
        nv.addGraph(function () {
            var c = nv.models.lineChart().useInteractiveGuideline(true)
                .x(function (d) { return d[0]; }).y(function (d) { return d[1]; });
            c.xAxis.tickFormat(function (ts) { return d3.time.format("%Y-%m-%d %H:%M")(new Date(ts)); });
            d3.select(svg).datum(series.map(function (s) { return {key: s[0], values: s[1]}; })).call(c);
            return c;
        });
    }

    function show(t) {
        var main = document.getElementById("content");
        main.innerHTML = "";
        main.appendChild(el("h2", t.cls + "." + t.met));
        main.appendChild(el("p", t.length + " runs, " + t.sla_failures + " SLA failures"));
        if (t.stat.avg !== null) {
            main.appendChild(el("p", "avg " + t.stat.avg.toFixed(3) + "s, min " +
                t.stat.min.toFixed(3) + "s, max " + t.stat.max.toFixed(3) + "s"));
        }
        main.appendChild(el("h3", "Total durations"));
        lines(main, t.durations);
        main.appendChild(el("h3", "Success rate"));
        lines(main, t.success);
        (t.actions || []).forEach(function (a) {
            main.appendChild(el("h3", a.name));
            lines(main, a.durations);
            lines(main, a.success);
        });
        main.appendChild(el("h3", "Configuration"));
        main.appendChild(el("pre", t.config));
    }

    (function () {
        var menu = document.getElementById("menu");
        (trends || []).forEach(function (t) {
            var a = el("a", t.name + " (" + t.length + ")");
            a.className = t.sla_failures ? "failed" : "passed";
            a.onclick = function () { show(t); };
            menu.appendChild(a);
        });
        if (trends && trends.length) { show(trends[0]); }
    })();
{{end}}`
