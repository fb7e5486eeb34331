package ui

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pinbus/pinbus/bridge"
	"github.com/pinbus/pinbus/logs"
)

// Read-only diagnostic view of the bridge. Nothing here feeds back into the
// loop, so it's safe to leave exposed on a LAN.

var (
	log    *logs.Loggers
	status *bridge.Status
)

func statusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, status.Snapshot())
}

func healthzHandler(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func newRouter() *gin.Engine {
	r := gin.New()
	r.SetTrustedProxies(nil)
	r.GET("/status", statusHandler)
	r.GET("/healthz", healthzHandler)
	return r
}

func Init(l *logs.Loggers, st *bridge.Status, addr string) {
	log = l
	status = st
	gin.SetMode(gin.ReleaseMode)
	r := newRouter()
	go func() {
		err := r.Run(addr)
		log.Critical.Fatalf("gin Run() returned, error %v", err)
	}()
}
