package api

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"github.com/tauraamui/noicevoid/pkg/audio"
	"github.com/tauraamui/noicevoid/pkg/job"
	"github.com/tauraamui/noicevoid/pkg/log"
	"github.com/tauraamui/noicevoid/pkg/pipeline"
	"github.com/tauraamui/xerror"
)

func (s *Server) upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Missing upload: %v", err)})
		return
	}

	ts := now().Unix()
	name := strings.ReplaceAll(filepath.Base(header.Filename), " ", "_")
	tempName := fmt.Sprintf("void_%d_%s", ts, name)
	if err := s.save(header, filepath.Join(s.opts.UploadDir, tempName)); err != nil {
		log.Error("Unable to store upload %s: %v", tempName, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to store upload"})
		return
	}

	log.Info("Stored upload %s", tempName)
	c.JSON(http.StatusOK, gin.H{
		"temp_name":   tempName,
		"output_name": fmt.Sprintf("noice_void_%d.mp4", ts),
	})
}

func (s *Server) save(header *multipart.FileHeader, path string) error {
	src, err := header.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	if err := fs.MkdirAll(filepath.Dir(path), os.ModeDir|os.ModePerm); err != nil {
		return err
	}
	dst, err := fs.Create(path)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}

func (s *Server) stream(c *gin.Context) {
	j, err := s.jobFromRequest(c, s.opts.DefaultScale)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": job.Failed, "message": err.Error()})
		return
	}
	if j.Speed, err = floatQuery(c, "speed", 1); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": job.Failed, "message": err.Error()})
		return
	}

	frames := 0
	mjpeg := pipeline.NewMJPEGWriter(c.Writer)
	err = s.live.Stream(c.Request.Context(), j, func(jpeg []byte) error {
		if frames == 0 {
			c.Header("Content-Type", pipeline.StreamContentType)
			c.Status(http.StatusOK)
		}
		frames++
		return mjpeg.WriteFrame(jpeg)
	})

	if frames == 0 {
		message := "stream produced no frames"
		if err != nil {
			message = err.Error()
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"status": job.Failed, "message": message})
		return
	}
	if err != nil {
		log.Error("Stream for %s ended early: %v", j.SourcePath, err)
	}
	mjpeg.Close() //nolint
}

func (s *Server) processDownload(c *gin.Context) {
	j, err := s.jobFromRequest(c, s.opts.DefaultRenderScale)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"status": job.Failed, "message": err.Error()})
		return
	}

	mode, err := audio.ParseMode(c.DefaultQuery("audio_mode", string(audio.Mute)))
	if err != nil {
		j.Log().Warn("%v, rendering without audio", err)
	}
	j.AudioMode = mode

	res := s.render.Run(c.Request.Context(), j)
	if s.history != nil {
		if err := s.history.Record(j, res); err != nil {
			j.Log().Error(err.Error())
		}
	}

	if res.Status != job.Completed {
		c.JSON(http.StatusOK, gin.H{"status": job.Failed, "message": res.Message, "job_id": res.JobID})
		return
	}

	body := gin.H{
		"status": job.Completed,
		"url":    "/download/" + filepath.Base(res.Path),
		"job_id": res.JobID,
	}
	if len(res.Warning) > 0 {
		body["warning"] = res.Warning
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) download(c *gin.Context) {
	name := c.Param("file")
	if !isPlainName(name) {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found."})
		return
	}

	path := filepath.Join(s.opts.OutputDir, name)
	file, err := fs.Open(path)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found."})
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil || info.IsDir() {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found."})
		return
	}

	c.DataFromReader(http.StatusOK, info.Size(), "video/mp4", file, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, name),
	})
}

func (s *Server) lookupJob(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job history is disabled"})
		return
	}

	res, err := s.history.Lookup(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

const (
	defaultJobsLimit = 20
	maxJobsLimit     = 100
)

func (s *Server) recentJobs(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job history is disabled"})
		return
	}

	limit := defaultJobsLimit
	if raw, ok := c.GetQuery("limit"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid limit %q", raw)})
			return
		}
		limit = n
	}
	if limit > maxJobsLimit {
		limit = maxJobsLimit
	}

	results, err := s.history.Recent(limit)
	if err != nil {
		log.Error("Unable to list jobs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to list jobs."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": results})
}

// jobFromRequest builds a job from the temp/out path params and the
// scale and is_color query params shared by streams and renders.
func (s *Server) jobFromRequest(c *gin.Context, defaultScale float64) (job.Job, error) {
	temp, out := c.Param("temp"), c.Param("out")
	if !isPlainName(temp) || !isPlainName(out) {
		return job.Job{}, xerror.Errorf("invalid file names %q and %q", temp, out)
	}

	j := job.New(filepath.Join(s.opts.UploadDir, temp), filepath.Join(s.opts.OutputDir, out))
	if ok, _ := afero.Exists(fs, j.SourcePath); !ok {
		return j, xerror.Errorf("upload %s not found", temp)
	}

	var err error
	if j.Scale, err = floatQuery(c, "scale", defaultScale); err != nil {
		return j, err
	}
	if j.Color, err = boolQuery(c, "is_color", true); err != nil {
		return j, err
	}
	return j, nil
}

func isPlainName(name string) bool {
	return len(name) > 0 && name != "." && name != ".." && filepath.Base(name) == name
}

func floatQuery(c *gin.Context, key string, def float64) (float64, error) {
	raw, ok := c.GetQuery(key)
	if !ok {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, xerror.Errorf("invalid %s %q", key, raw)
	}
	return v, nil
}

func boolQuery(c *gin.Context, key string, def bool) (bool, error) {
	raw, ok := c.GetQuery(key)
	if !ok {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, xerror.Errorf("invalid %s %q", key, raw)
	}
	return v, nil
}
