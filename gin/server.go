// Package gin serves a local web view of the application: the task table, the task
// pages, the map and the upload preview.
package gin

import (
	"net"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jeja2023/tp"
	"github.com/jeja2023/tp/log"
)

type Dependencies struct {
	Sessions tp.SessionStore
	Tasks    TaskController
	Files    FileLister
	Map      MapController
	Uploader Uploader
	Logger   log.Logger

	// Hosts lists the accepted Host headers, see LocalHosts. When empty only the
	// Origin of the request is checked.
	Hosts []string
}

// LocalHosts returns the Host headers a browser sends to addr. An address with no
// host, or a wildcard one, is reached through the loopback names.
func LocalHosts(addr string) []string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return []string{addr}
	}

	switch host {
	case "", "0.0.0.0", "::", "localhost", "127.0.0.1", "::1":
		return []string{
			net.JoinHostPort("localhost", port),
			net.JoinHostPort("127.0.0.1", port),
			net.JoinHostPort("::1", port),
		}
	}
	return []string{net.JoinHostPort(host, port)}
}

func New(deps Dependencies) http.Handler {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(deps.Logger))

	// Same origin only
	router.Use(sameOrigin(deps.Hosts))

	// Unknown route
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Page not found"})
	})

	// Ping
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, map[string]string{"data": "ok"})
	})

	auth := Authenticator{Sessions: deps.Sessions}
	authed := router.Group("/", auth.Authenticate)

	taskHandler := TaskHandler{Tasks: deps.Tasks, Files: deps.Files}
	taskHandler.RegisterRoutes(authed)

	mapHandler := MapHandler{Map: deps.Map}
	mapHandler.RegisterRoutes(authed)

	uploadHandler := UploadHandler{Tasks: deps.Tasks, Uploader: deps.Uploader}
	uploadHandler.RegisterRoutes(authed)

	return router
}
