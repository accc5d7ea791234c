package web

import (
	"embed"
	"net/http"
)

//go:embed index.html
var embedded embed.FS

// Handler serves the embedded single-page client.
func Handler() http.Handler {
	return http.FileServer(http.FS(embedded))
}
