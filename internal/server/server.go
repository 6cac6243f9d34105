package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/posthog/posthog-go"

	"panotiler/internal/cache"
	"panotiler/internal/config"
	"panotiler/internal/conversion"
	"panotiler/internal/imaging"
	"panotiler/internal/jobs"
	"panotiler/internal/utils/naming"
)

// Server exposes the converter over HTTP. It is the server-side collaborator
// of the conversion core: it supplies decoded panoramas in and delivers
// archives out; the core itself stays transport-free.
type Server struct {
	echo         *echo.Echo
	settings     *config.Settings
	archiveCache *cache.ArchiveCache
	jobManager   *jobs.Manager
	fetcher      *imaging.Fetcher
	phClient     posthog.Client
}

// New creates a server from settings
func New(settings *config.Settings) (*Server, error) {
	archiveCache, err := cache.NewArchiveCache(settings.CacheEntries)
	if err != nil {
		return nil, err
	}

	var phClient posthog.Client
	if settings.AnalyticsKey != "" {
		client, err := posthog.NewWithConfig(settings.AnalyticsKey, posthog.Config{
			Endpoint: settings.AnalyticsHost,
		})
		if err != nil {
			log.Printf("Failed to initialize PostHog: %v", err)
		} else {
			phClient = client
		}
	}

	s := &Server{
		settings:     settings,
		archiveCache: archiveCache,
		fetcher:      imaging.NewFetcher(time.Duration(settings.FetchTimeoutSec) * time.Second),
		phClient:     phClient,
	}

	s.jobManager = jobs.NewManager(s.converterOptions()...)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", settings.MaxUploadMB)))
	e.Use(middleware.CORS())
	// Conversions are CPU-heavy; shed request floods before they queue up
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(10)))

	api := e.Group("/api")
	api.GET("/health", s.handleHealth)
	api.POST("/convert", s.handleConvert)
	api.POST("/convert/url", s.handleConvertURL)
	api.POST("/jobs", s.handleCreateJob)
	api.GET("/jobs", s.handleListJobs)
	api.GET("/jobs/:id", s.handleGetJob)
	api.GET("/jobs/:id/download", s.handleDownloadJob)
	api.DELETE("/jobs/:id", s.handleCancelJob)

	s.echo = e
	return s, nil
}

// converterOptions builds the converter configuration shared by the
// synchronous endpoints and the job manager
func (s *Server) converterOptions() []conversion.Option {
	return []conversion.Option{
		conversion.WithWorkers(s.settings.Workers),
		conversion.WithQuality(s.settings.JPEGQuality, s.settings.FallbackJPEGQuality),
		conversion.WithTrackEventCallback(s.trackEvent),
	}
}

// trackEvent sends an event to PostHog if analytics is configured
func (s *Server) trackEvent(event string, props map[string]interface{}) {
	if s.phClient != nil {
		s.phClient.Enqueue(posthog.Capture{
			DistinctId: "panotiler_server",
			Event:      event,
			Properties: props,
		})
	}
}

// Handler exposes the HTTP handler, used by tests and embedding callers
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start runs the HTTP server until the context is cancelled
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		errChan <- s.echo.Start(s.settings.ListenAddr)
	}()
	log.Printf("[Server] Listening on %s", s.settings.ListenAddr)

	select {
	case <-ctx.Done():
		return s.Shutdown()
	case err := <-errChan:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	}
}

// Shutdown stops the server and releases resources
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.jobManager.Close()
	if s.phClient != nil {
		s.phClient.Close()
	}
	return s.echo.Shutdown(ctx)
}

// handleHealth reports server liveness
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":            "ok",
		"cachedConversions": s.archiveCache.Len(),
	})
}

// readUpload extracts the uploaded panorama bytes from a multipart request
func (s *Server) readUpload(c echo.Context) (data []byte, filename string, err error) {
	fileHeader, err := c.FormFile("panorama")
	if err != nil {
		return nil, "", echo.NewHTTPError(http.StatusBadRequest, "missing 'panorama' file field")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return nil, "", echo.NewHTTPError(http.StatusBadRequest, "failed to open upload")
	}
	defer f.Close()

	data, err = io.ReadAll(f)
	if err != nil {
		return nil, "", echo.NewHTTPError(http.StatusBadRequest, "failed to read upload")
	}
	return data, fileHeader.Filename, nil
}

// convert runs a full synchronous conversion, consulting the archive cache first
func (s *Server) convert(ctx context.Context, sourceData []byte) (*conversion.Result, error) {
	key := cache.Key(sourceData)
	if result, ok := s.archiveCache.Get(key); ok {
		return result, nil
	}

	src, err := imaging.Decode(sourceData)
	if err != nil {
		return nil, err
	}

	result, err := conversion.NewConverter(s.converterOptions()...).Convert(ctx, src)
	if err != nil {
		return nil, err
	}

	s.archiveCache.Set(key, result)
	return result, nil
}

// respondArchive delivers a finished archive as a ZIP download with the
// conversion counts in response headers
func respondArchive(c echo.Context, result *conversion.Result, filename string) error {
	c.Response().Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Response().Header().Set("X-Total-Tiles", fmt.Sprintf("%d", result.TotalTiles))
	c.Response().Header().Set("X-Zoom-Levels", fmt.Sprintf("%d", result.ZoomLevels))
	c.Response().Header().Set("X-Max-Zoom", fmt.Sprintf("%d", result.MaxZoom))
	return c.Blob(http.StatusOK, "application/zip", result.Archive)
}

// handleConvert converts an uploaded panorama and returns the archive
func (s *Server) handleConvert(c echo.Context) error {
	data, filename, err := s.readUpload(c)
	if err != nil {
		return err
	}

	result, err := s.convert(c.Request().Context(), data)
	if err != nil {
		return conversionHTTPError(err)
	}

	return respondArchive(c, result, naming.GenerateArchiveFilename(filename))
}

// urlRequest is the JSON body of the URL conversion endpoints
type urlRequest struct {
	URL string `json:"url"`
}

// handleConvertURL fetches a panorama from a URL, converts it and returns the archive
func (s *Server) handleConvertURL(c echo.Context) error {
	var req urlRequest
	if err := c.Bind(&req); err != nil || req.URL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing 'url' field")
	}

	data, err := s.fetcher.FetchURL(c.Request().Context(), req.URL)
	if err != nil {
		return conversionHTTPError(err)
	}

	result, err := s.convert(c.Request().Context(), data)
	if err != nil {
		return conversionHTTPError(err)
	}

	return respondArchive(c, result, naming.GenerateArchiveFilename(req.URL))
}

// handleCreateJob submits an asynchronous conversion from an upload or a URL
func (s *Server) handleCreateJob(c echo.Context) error {
	var data []byte
	var name string

	if fileHeader, err := c.FormFile("panorama"); err == nil && fileHeader != nil {
		upload, filename, err := s.readUpload(c)
		if err != nil {
			return err
		}
		data, name = upload, filename
	} else {
		var req urlRequest
		if err := c.Bind(&req); err != nil || req.URL == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "provide a 'panorama' file or a 'url' field")
		}
		fetched, err := s.fetcher.FetchURL(c.Request().Context(), req.URL)
		if err != nil {
			return conversionHTTPError(err)
		}
		data, name = fetched, req.URL
	}

	job := s.jobManager.Submit(name, data)
	return c.JSON(http.StatusAccepted, job)
}

// handleListJobs returns all jobs in submission order
func (s *Server) handleListJobs(c echo.Context) error {
	return c.JSON(http.StatusOK, s.jobManager.List())
}

// handleGetJob returns one job's status
func (s *Server) handleGetJob(c echo.Context) error {
	job, err := s.jobManager.Get(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, job)
}

// handleDownloadJob streams a completed job's archive
func (s *Server) handleDownloadJob(c echo.Context) error {
	id := c.Param("id")
	data, err := s.jobManager.Archive(id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}

	job, err := s.jobManager.Get(id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}

	c.Response().Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", naming.GenerateArchiveFilename(job.Name)))
	return c.Blob(http.StatusOK, "application/zip", data)
}

// handleCancelJob aborts a pending or running job
func (s *Server) handleCancelJob(c echo.Context) error {
	if err := s.jobManager.Cancel(c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// conversionHTTPError maps conversion errors onto HTTP status codes: bad
// sources are the client's fault, everything else is internal
func conversionHTTPError(err error) error {
	var loadErr *imaging.SourceLoadError
	if errors.As(err, &loadErr) {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, loadErr.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
