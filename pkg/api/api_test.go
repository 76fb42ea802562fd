package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/tacusci/logging/v2"
	"github.com/tauraamui/noicevoid/pkg/api"
	"github.com/tauraamui/noicevoid/pkg/audio"
	"github.com/tauraamui/noicevoid/pkg/job"
	"github.com/tauraamui/noicevoid/pkg/pipeline"
)

type fakeStreamer struct {
	jobs   []job.Job
	frames [][]byte
	err    error
}

func (f *fakeStreamer) Stream(_ context.Context, j job.Job, emit func([]byte) error) error {
	f.jobs = append(f.jobs, j)
	if err := j.RunValidate(); err != nil {
		return err
	}
	for _, frame := range f.frames {
		if err := emit(frame); err != nil {
			return nil
		}
	}
	return f.err
}

type fakeRenderer struct {
	jobs   []job.Job
	result func(job.Job) job.Result
}

func (f *fakeRenderer) Run(_ context.Context, j job.Job) job.Result {
	f.jobs = append(f.jobs, j)
	return f.result(j)
}

type fakeHistory struct {
	results   map[string]job.Result
	recent    []job.Result
	recentErr error
	limits    []int
}

func (f *fakeHistory) Record(j job.Job, res job.Result) error {
	f.results[j.ID] = res
	return nil
}

func (f *fakeHistory) Lookup(id string) (job.Result, error) {
	res, ok := f.results[id]
	if !ok {
		return job.Result{}, errors.New("render of uuid " + id + " not found")
	}
	return res, nil
}

func (f *fakeHistory) Recent(limit int) ([]job.Result, error) {
	f.limits = append(f.limits, limit)
	return f.recent, f.recentErr
}

type APITestSuite struct {
	suite.Suite
	fs       afero.Fs
	resets   []func()
	streamer *fakeStreamer
	renderer *fakeRenderer
	history  *fakeHistory
	handler  http.Handler
}

func (suite *APITestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	logging.CurrentLoggingLevel = logging.SilentLevel
}

func (suite *APITestSuite) TearDownSuite() {
	logging.CurrentLoggingLevel = logging.WarnLevel
}

func (suite *APITestSuite) SetupTest() {
	suite.fs = afero.NewMemMapFs()
	suite.resets = []func(){
		api.OverloadFS(suite.fs),
		api.OverloadNow(func() time.Time { return time.Unix(1700000000, 0) }),
	}
	require.NoError(suite.T(), afero.WriteFile(suite.fs, "uploads/void_1_clip.mp4", []byte("video"), 0644))

	suite.streamer = &fakeStreamer{}
	suite.renderer = &fakeRenderer{result: func(j job.Job) job.Result {
		return job.Result{JobID: j.ID, Status: job.Completed, Path: j.OutputPath}
	}}
	suite.history = &fakeHistory{results: map[string]job.Result{}}
	suite.handler = api.New(api.Options{
		UploadDir:          "uploads",
		OutputDir:          "processed_videos",
		DefaultScale:       0.5,
		DefaultRenderScale: 1,
	}, suite.streamer, suite.renderer, suite.history).Handler()
}

func (suite *APITestSuite) TearDownTest() {
	for _, reset := range suite.resets {
		reset()
	}
}

func (suite *APITestSuite) get(url string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	suite.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	body := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func (suite *APITestSuite) TestUploadStoresFileUnderTimestampedName() {
	t := suite.T()
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", "my holiday.mp4")
	require.NoError(t, err)
	_, err = part.Write([]byte("mp4 bytes"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()
	suite.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, "void_1700000000_my_holiday.mp4", resp["temp_name"])
	assert.Equal(t, "noice_void_1700000000.mp4", resp["output_name"])

	stored, err := afero.ReadFile(suite.fs, "uploads/void_1700000000_my_holiday.mp4")
	require.NoError(t, err)
	assert.Equal(t, "mp4 bytes", string(stored))
}

func (suite *APITestSuite) TestUploadWithoutFileIsRejected() {
	t := suite.T()
	rec := httptest.NewRecorder()
	suite.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/upload", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func (suite *APITestSuite) TestStreamWritesMultipartFrames() {
	t := suite.T()
	suite.streamer.frames = [][]byte{[]byte("jpeg-1"), []byte("jpeg-2")}

	rec := suite.get("/stream/void_1_clip.mp4/noice_void_1.mp4")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pipeline.StreamContentType, rec.Header().Get("Content-Type"))

	_, params, err := mime.ParseMediaType(rec.Header().Get("Content-Type"))
	require.NoError(t, err)
	r := multipart.NewReader(rec.Body, params["boundary"])
	var frames []string
	for {
		p, err := r.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		b, _ := io.ReadAll(p)
		frames = append(frames, string(b))
	}
	assert.Equal(t, []string{"jpeg-1", "jpeg-2"}, frames)
}

func (suite *APITestSuite) TestStreamDefaults() {
	t := suite.T()
	suite.streamer.frames = [][]byte{[]byte("jpeg")}

	suite.get("/stream/void_1_clip.mp4/noice_void_1.mp4")

	require.Len(t, suite.streamer.jobs, 1)
	j := suite.streamer.jobs[0]
	assert.Equal(t, "uploads/void_1_clip.mp4", j.SourcePath)
	assert.Equal(t, "processed_videos/noice_void_1.mp4", j.OutputPath)
	assert.Equal(t, 0.5, j.Scale)
	assert.True(t, j.Color)
	assert.Equal(t, 1.0, j.Speed)
}

func (suite *APITestSuite) TestStreamQueryParams() {
	t := suite.T()
	suite.streamer.frames = [][]byte{[]byte("jpeg")}

	suite.get("/stream/void_1_clip.mp4/noice_void_1.mp4?scale=0.25&is_color=false&speed=2")

	require.Len(t, suite.streamer.jobs, 1)
	j := suite.streamer.jobs[0]
	assert.Equal(t, 0.25, j.Scale)
	assert.False(t, j.Color)
	assert.Equal(t, 2.0, j.Speed)
}

func (suite *APITestSuite) TestStreamRejectsBadQuery() {
	t := suite.T()
	rec := suite.get("/stream/void_1_clip.mp4/noice_void_1.mp4?scale=big")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, suite.streamer.jobs)
}

func (suite *APITestSuite) TestStreamOfMissingUploadIsRejected() {
	t := suite.T()
	rec := suite.get("/stream/void_2_gone.mp4/noice_void_2.mp4")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "upload void_2_gone.mp4 not found", decode(t, rec)["message"])
}

func (suite *APITestSuite) TestStreamFailureBeforeFirstFrame() {
	t := suite.T()
	suite.streamer.err = errors.New("source unreadable: uploads/void_1_clip.mp4")

	rec := suite.get("/stream/void_1_clip.mp4/noice_void_1.mp4")

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "source unreadable: uploads/void_1_clip.mp4", body["message"])
}

func (suite *APITestSuite) TestProcessDownloadCompletes() {
	t := suite.T()

	rec := suite.get("/process_download/void_1_clip.mp4/noice_void_1.mp4?audio_mode=brown")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "completed", body["status"])
	assert.Equal(t, "/download/noice_void_1.mp4", body["url"])

	require.Len(t, suite.renderer.jobs, 1)
	j := suite.renderer.jobs[0]
	assert.Equal(t, 1.0, j.Scale)
	assert.True(t, j.Color)
	assert.Equal(t, audio.BrownNoise, j.AudioMode)

	recorded, ok := suite.history.results[j.ID]
	require.True(t, ok)
	assert.Equal(t, job.Completed, recorded.Status)
}

func (suite *APITestSuite) TestProcessDownloadDefaultsToMute() {
	t := suite.T()

	suite.get("/process_download/void_1_clip.mp4/noice_void_1.mp4?audio_mode=karaoke")

	require.Len(t, suite.renderer.jobs, 1)
	assert.Equal(t, audio.Mute, suite.renderer.jobs[0].AudioMode)
}

func (suite *APITestSuite) TestProcessDownloadCarriesWarning() {
	t := suite.T()
	suite.renderer.result = func(j job.Job) job.Result {
		return job.Result{JobID: j.ID, Status: job.Completed, Path: j.OutputPath, Warning: "source has no audio track"}
	}

	body := decode(t, suite.get("/process_download/void_1_clip.mp4/noice_void_1.mp4?audio_mode=original"))

	assert.Equal(t, "completed", body["status"])
	assert.Equal(t, "source has no audio track", body["warning"])
}

func (suite *APITestSuite) TestProcessDownloadReportsFailure() {
	t := suite.T()
	suite.renderer.result = func(j job.Job) job.Result {
		return job.Result{JobID: j.ID, Status: job.Failed, Message: "source unreadable"}
	}

	rec := suite.get("/process_download/void_1_clip.mp4/noice_void_1.mp4")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "source unreadable", body["message"])
}

func (suite *APITestSuite) TestDownloadServesFile() {
	t := suite.T()
	require.NoError(t, afero.WriteFile(suite.fs, "processed_videos/noice_void_1.mp4", []byte("rendered"), 0644))

	rec := suite.get("/download/noice_void_1.mp4")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "video/mp4", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="noice_void_1.mp4"`)
	assert.Equal(t, "rendered", rec.Body.String())
}

func (suite *APITestSuite) TestDownloadMissingFile() {
	t := suite.T()
	rec := suite.get("/download/noice_void_9.mp4")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "File not found.", decode(t, rec)["error"])
}

func (suite *APITestSuite) TestLookupJob() {
	t := suite.T()
	suite.history.results["job-1"] = job.Result{JobID: "job-1", Status: job.Completed, Path: "processed_videos/a.mp4"}

	rec := suite.get("/jobs/job-1")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "job-1", body["job_id"])
	assert.Equal(t, "completed", body["status"])

	assert.Equal(t, http.StatusNotFound, suite.get("/jobs/job-2").Code)
}

func (suite *APITestSuite) TestRecentJobs() {
	t := suite.T()
	suite.history.recent = []job.Result{
		{JobID: "job-2", Status: job.Failed, Message: "source unreadable"},
		{JobID: "job-1", Status: job.Completed, Path: "processed_videos/a.mp4"},
	}

	rec := suite.get("/jobs")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	jobs, ok := body["jobs"].([]interface{})
	require.True(t, ok)
	require.Len(t, jobs, 2)
	assert.Equal(t, "job-2", jobs[0].(map[string]interface{})["job_id"])
	assert.Equal(t, []int{20}, suite.history.limits)
}

func (suite *APITestSuite) TestRecentJobsLimit() {
	t := suite.T()
	assert.Equal(t, http.StatusOK, suite.get("/jobs?limit=5").Code)
	assert.Equal(t, http.StatusOK, suite.get("/jobs?limit=5000").Code)
	assert.Equal(t, []int{5, 100}, suite.history.limits)

	assert.Equal(t, http.StatusBadRequest, suite.get("/jobs?limit=0").Code)
	assert.Equal(t, http.StatusBadRequest, suite.get("/jobs?limit=many").Code)
	assert.Len(t, suite.history.limits, 2)
}

func (suite *APITestSuite) TestRecentJobsFailure() {
	suite.history.recentErr = errors.New("no such table")
	assert.Equal(suite.T(), http.StatusInternalServerError, suite.get("/jobs").Code)
}

func TestAPITestSuite(t *testing.T) {
	suite.Run(t, &APITestSuite{})
}

func TestLookupWithoutHistory(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := api.New(api.Options{UploadDir: "uploads", OutputDir: "out"}, &fakeStreamer{}, &fakeRenderer{}, nil).Handler()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/x", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
