// Package httpapi exposes chart analysis over HTTP with gin.
//
// Routes:
//
//	GET  /healthz      liveness and version
//	GET  /v1/presets   colour presets
//	POST /v1/analyze   multipart upload, returns the analysis as JSON
//
// /v1/analyze takes the chart in the "image" file field and optional form
// fields center_x, center_y, ref_x, ref_y (all four or none), preset, eye
// (full, left, right), overlay, mask and include_points (booleans).
package httpapi

import (
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/getsentry/raven-go"
	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/ironsheep/visual-field-mcp/internal/calibration"
	"github.com/ironsheep/visual-field-mcp/internal/chart"
	"github.com/ironsheep/visual-field-mcp/internal/imaging"
	"github.com/ironsheep/visual-field-mcp/internal/ocr"
	"github.com/ironsheep/visual-field-mcp/internal/pipeline"
)

// Version is reported by /healthz. Set by the binary.
var Version = "0.1.0"

const requestIDKey = "request_id"

// Options configures the HTTP front-end.
type Options struct {
	// MaxUploadBytes caps the request body. 0 means 20 MiB.
	MaxUploadBytes int64

	// SentryDSN enables reporting of 5xx errors.
	SentryDSN string

	// Mode is the gin mode: debug, release or test. Empty leaves the
	// current mode unchanged.
	Mode string
}

// Server serves the analysis API.
type Server struct {
	cfg      pipeline.Config
	analyzer *pipeline.Analyzer
	opts     Options
	log      log.FieldLogger
	sentry   *raven.Client
}

// errBadRequest marks errors caused by the request itself.
var errBadRequest = errors.New("bad request")

// New builds the server around cfg.
func New(cfg pipeline.Config, opts Options, logger log.FieldLogger) (*Server, error) {
	if logger == nil {
		logger = log.StandardLogger()
	}
	if opts.MaxUploadBytes == 0 {
		opts.MaxUploadBytes = 20 << 20
	}
	switch opts.Mode {
	case "":
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		gin.SetMode(opts.Mode)
	default:
		return nil, fmt.Errorf("unknown gin mode %q (want debug, release or test)", opts.Mode)
	}
	analyzer, err := pipeline.New(cfg, pipeline.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		analyzer: analyzer,
		opts:     opts,
		log:      logger.WithField("component", "http"),
	}
	if opts.SentryDSN != "" {
		client, err := raven.New(opts.SentryDSN)
		if err != nil {
			return nil, fmt.Errorf("invalid sentry dsn: %w", err)
		}
		client.SetRelease(Version)
		s.sentry = client
	}
	return s, nil
}

// Router returns the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestID(), s.accessLog())

	router.GET("/healthz", func(c *gin.Context) {
		body := gin.H{"status": "ok", "version": Version}
		if v := ocr.Version(); v != "" {
			body["tesseract"] = v
		}
		c.JSON(http.StatusOK, body)
	})
	router.GET("/v1/presets", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"presets": chart.Presets()})
	})
	router.POST("/v1/analyze", s.handleAnalyze)

	return router
}

// ListenAndServe serves on addr until the server fails.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.WithField("addr", addr).Info("listening")
	return srv.ListenAndServe()
}

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			u, err := uuid.NewV4()
			if err == nil {
				id = u.String()
			}
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.WithFields(log.Fields{
			requestIDKey: c.GetString(requestIDKey),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start).String(),
		}).Info("request")
	}
}

// AnalyzeResponse is the body returned by /v1/analyze.
type AnalyzeResponse struct {
	ID string `json:"id"`
	*chart.Report
}

func (s *Server) handleAnalyze(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxUploadBytes)

	header, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Picture is missing"})
		return
	}
	file, err := header.Open()
	if err != nil {
		s.fail(c, err)
		return
	}
	data, err := io.ReadAll(file)
	file.Close()
	if err != nil {
		s.fail(c, err)
		return
	}

	req, analyzer, err := s.parseRequest(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	dec, err := imaging.DecodeBytes(data)
	if err != nil {
		s.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	req.Image = dec.Image

	rep, err := chart.Run(analyzer, req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, AnalyzeResponse{ID: c.GetString(requestIDKey), Report: rep})
}

// parseRequest reads the optional form fields.
func (s *Server) parseRequest(c *gin.Context) (chart.Request, *pipeline.Analyzer, error) {
	var req chart.Request

	eye, err := imaging.ParseEye(c.PostForm("eye"))
	if err != nil {
		return req, nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	req.Eye = eye

	for name, dst := range map[string]*bool{
		"overlay":        &req.Overlay,
		"mask":           &req.Mask,
		"include_points": &req.IncludePoints,
	} {
		if v := c.PostForm(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return req, nil, fmt.Errorf("%w: %s must be a boolean", errBadRequest, name)
			}
			*dst = b
		}
	}

	cal, err := parseCalibration(c)
	if err != nil {
		return req, nil, err
	}
	req.Calibration = cal

	analyzer := s.analyzer
	if preset := c.PostForm("preset"); preset != "" {
		cfg := s.cfg
		if cfg.Segment.Rule, err = chart.WithPreset(cfg.Segment.Rule, preset); err != nil {
			return req, nil, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		if analyzer, err = pipeline.New(cfg, pipeline.WithLogger(s.log)); err != nil {
			return req, nil, err
		}
	}
	return req, analyzer, nil
}

func parseCalibration(c *gin.Context) (*calibration.Points, error) {
	names := []string{"center_x", "center_y", "ref_x", "ref_y"}
	values := make([]int, len(names))
	given := 0
	for i, name := range names {
		v := c.PostForm(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be an integer", errBadRequest, name)
		}
		values[i] = n
		given++
	}
	switch given {
	case 0:
		return nil, nil
	case len(names):
		return &calibration.Points{
			Center:    image.Pt(values[0], values[1]),
			Reference: image.Pt(values[2], values[3]),
		}, nil
	}
	return nil, fmt.Errorf("%w: center_x, center_y, ref_x and ref_y must be given together", errBadRequest)
}

// fail writes the error response. Input errors are 400; anything else is
// 500 and reported to Sentry when configured.
func (s *Server) fail(c *gin.Context, err error) {
	entry := s.log.WithField(requestIDKey, c.GetString(requestIDKey)).WithError(err)

	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, pipeline.ErrMalformedImage):
		entry.Debug("rejected request")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &tooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "upload too large"})
	default:
		entry.Error("analysis failed")
		if s.sentry != nil {
			s.sentry.CaptureError(err, map[string]string{requestIDKey: c.GetString(requestIDKey)})
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Couldn't analyze chart - please try again later"})
	}
}
