/*
 * GraphMap
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package server

/*
TermSRC is the terminal HTML as a text blob. The terminal runs command texts
and shows the change feed.
*/
const TermSRC = `
<!doctype html>
<html>
  <head>
    <meta charset="utf-8">
    <title>GraphMap Terminal</title>
    <style>
        body {
            background: #fff;
            font-family: 'verdana';
            font-size: 11px;
            margin: 0;
            min-width: 320px;
        }

        .t-header {
            background: linear-gradient(#000, #444);
            color: #fff;
            font-weight: bold;
            padding: 0 1em;
            margin: 0 0 1em 0;
            box-shadow: 3px 3px 3px rgba(50, 50, 50, 0.25);
        }

        .t-header h1 {
            display: inline-block;
            font-size: 18px;
            margin: 3px 0;
        }

        .t-body {
            padding: 0 10%;
        }

        .t-body textarea {
            width: 100%;
            height: 8em;
            font-family: monospace;
        }

        .t-body pre {
            background: #EEEEEE;
            padding: 10px;
            border: #000000 2px solid;
            border-radius: 10px;
            min-height: 4em;
            white-space: pre-wrap;
        }

        .t-error {
            color: #a00;
        }
    </style>
  </head>
  <body>
    <div class="t-header"><h1>GraphMap Terminal</h1></div>
    <div class="t-body">
      <textarea id="command" placeholder="add node key=a set name=Alice; select () return key, name"></textarea>
      <button id="run">Run</button>
      <h3>Result</h3>
      <pre id="result"></pre>
      <h3>Changes</h3>
      <pre id="changes"></pre>
    </div>
    <script>
    (function () {
        var apiRoot = "/db/v1";
        var result = document.getElementById("result");
        var changes = document.getElementById("changes");

        function show(text, isError) {
            result.textContent = text;
            result.className = isError ? "t-error" : "";
        }

        function format(res) {
            var out = [];
            if (res.columns) {
                out.push(res.columns.join(" | "));
                (res.rows || []).forEach(function (row) {
                    out.push(row.join(" | "));
                });
            }
            var s = res.stats;
            out.push("Nodes: +" + s.nodes_created + " ~" + s.nodes_updated + " -" + s.nodes_deleted +
                " Edges: +" + s.edges_created + " ~" + s.edges_updated + " -" + s.edges_deleted +
                " (LSN: " + res.lsn + ")");
            return out.join("\n");
        }

        document.getElementById("run").onclick = function () {
            var req = new XMLHttpRequest();
            req.open("POST", apiRoot + "/command/");
            req.setRequestHeader("Content-Type", "application/json");
            req.onload = function () {
                if (req.status === 200) {
                    show(format(JSON.parse(req.responseText)), false);
                } else {
                    show(req.status + ": " + req.responseText, true);
                }
            };
            req.send(JSON.stringify({"command": document.getElementById("command").value}));
        };

        var proto = window.location.protocol === "https:" ? "wss://" : "ws://";
        var sock = new WebSocket(proto + window.location.host + apiRoot + "/changes/");

        sock.onmessage = function (msg) {
            var data = JSON.parse(msg.data);
            if (data.type === "change") {
                var p = data.payload;
                changes.textContent = "[" + p.lsn + "] " + p.action + " " + p.source + " " +
                    p.key + "\n" + changes.textContent;
            } else if (data.type === "error") {
                changes.textContent = "Error: " + data.payload.error + "\n" + changes.textContent;
            }
        };

        sock.onclose = function () {
            changes.textContent = "Change feed closed\n" + changes.textContent;
        };
    })();
    </script>
  </body>
</html>
`
