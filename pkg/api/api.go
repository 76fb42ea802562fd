// Package api exposes the pipelines over HTTP: uploads land in the upload
// dir, streams and renders run against them by name.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"github.com/tauraamui/noicevoid/pkg/job"
	"github.com/tauraamui/noicevoid/pkg/log"
)

var fs = afero.NewOsFs()
var now = time.Now

type Streamer interface {
	Stream(context.Context, job.Job, func([]byte) error) error
}

type Renderer interface {
	Run(context.Context, job.Job) job.Result
}

// History is optional; without one renders are not recorded and job
// lookups always miss.
type History interface {
	Record(job.Job, job.Result) error
	Lookup(string) (job.Result, error)
	Recent(int) ([]job.Result, error)
}

type Options struct {
	UploadDir          string
	OutputDir          string
	DefaultScale       float64
	DefaultRenderScale float64
}

type Server struct {
	opts    Options
	live    Streamer
	render  Renderer
	history History
}

func New(opts Options, live Streamer, render Renderer, history History) *Server {
	return &Server{opts: opts, live: live, render: render, history: history}
}

func (s *Server) Handler() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())
	s.RegisterRoutes(router)
	return router
}

func (s *Server) RegisterRoutes(router *gin.Engine) {
	router.POST("/upload", s.upload)
	router.GET("/stream/:temp/:out", s.stream)
	router.GET("/process_download/:temp/:out", s.processDownload)
	router.GET("/download/:file", s.download)
	router.GET("/jobs", s.recentJobs)
	router.GET("/jobs/:id", s.lookupJob)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := now()
		c.Next()
		log.Debug("%s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), now().Sub(started))
	}
}
