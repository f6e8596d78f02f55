// Copyright (c) 2026 Karan Bisht
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	_ "embed"
	"net/http"
	"sync"

	"github.com/yuin/goldmark"
)

//go:embed docs/api.md
var docsMarkdown []byte

var (
	docsOnce sync.Once
	docsHTML []byte
	docsErr  error
)

const docsPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>KatchinCMS API Reference</title>
<style>
body{font-family:system-ui,sans-serif;max-width:56rem;margin:2rem auto;padding:0 1rem;line-height:1.6;color:#1a1a1a}
code,pre{font-family:ui-monospace,monospace;background:#f4f4f5;border-radius:4px}
code{padding:.1rem .3rem}
pre{padding:1rem;overflow-x:auto}
pre code{padding:0}
table{border-collapse:collapse;width:100%}
th,td{border:1px solid #d4d4d8;padding:.4rem .6rem;text-align:left}
th{background:#fafafa}
</style>
</head>
<body>
`

// Docs handles GET /docs. The reference is embedded markdown rendered
// once per process.
func (h *Handler) Docs(w http.ResponseWriter, r *http.Request) {
	docsOnce.Do(func() {
		var buf bytes.Buffer
		buf.WriteString(docsPage)
		docsErr = goldmark.Convert(docsMarkdown, &buf)
		buf.WriteString("</body>\n</html>\n")
		docsHTML = buf.Bytes()
	})
	if docsErr != nil {
		http.Error(w, "Failed to render documentation", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(docsHTML)
}
