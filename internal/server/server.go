package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/tartampluch/drem/internal/config"
)

// document is one rendered representation of the latest report.
type document struct {
	data        []byte
	contentType string
	etag        string
}

// snapshot holds every document of one pass, swapped as a whole.
type snapshot struct {
	html         document
	calendar     document
	lastModified string // RFC1123, as HTTP headers require
}

// ReportServer serves the latest report on localhost: HTML at "/" and the
// iCalendar feed at "/calendar.ics".
type ReportServer struct {
	// cache is read on every request and written once per pass.
	cache atomic.Pointer[snapshot]
	Port  string
}

// NewReportServer creates a server listening on 127.0.0.1:port once started.
func NewReportServer(port string) *ReportServer {
	return &ReportServer{Port: port}
}

// Handler returns the request router.
func (s *ReportServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(config.RouteRoot, s.serve(func(sn *snapshot) document { return sn.html }))
	mux.HandleFunc(config.RouteCalendar, s.serve(func(sn *snapshot) document { return sn.calendar }))
	return mux
}

// Start listens until ctx is cancelled, then shuts down gracefully.
func (s *ReportServer) Start(ctx context.Context) error {
	if s.Port == "" {
		return errors.New(config.ErrPortRequired)
	}

	srv := &http.Server{
		Addr:         config.LocalhostBindAddr + config.AddrSeparator + s.Port,
		Handler:      s.Handler(),
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	serverError := make(chan error, config.ChannelBufferSize)

	go func() {
		slog.Info(config.MsgServerListen,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyPort, s.Port,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverError <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info(config.MsgServerStop, config.LogKeyComponent, config.CompServer)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: %w", config.ErrServerShutdown, err)
		}
		return nil

	case err := <-serverError:
		return fmt.Errorf("%s: %w", config.ErrServerStartup, err)
	}
}

// Update replaces the served report. Readers see either the old or the new pair.
func (s *ReportServer) Update(html, calendar []byte) {
	sn := &snapshot{
		html:         newDocument(html, config.MimeTextHTML),
		calendar:     newDocument(calendar, config.MimeTextCalendar),
		lastModified: time.Now().UTC().Format(http.TimeFormat),
	}
	s.cache.Store(sn)

	slog.Debug(config.MsgCacheUpdated,
		config.LogKeyComponent, config.CompServer,
		config.LogKeySizeBytes, len(html)+len(calendar),
		config.LogKeyETag, sn.html.etag,
	)
}

func newDocument(data []byte, contentType string) document {
	hash := sha256.Sum256(data)
	return document{
		data:        data,
		contentType: contentType,
		etag:        fmt.Sprintf(config.FormatETag, hex.EncodeToString(hash[:])),
	}
}

// serve answers GET/HEAD with the document picked from the current snapshot,
// honouring If-None-Match and If-Modified-Since.
func (s *ReportServer) serve(pick func(*snapshot) document) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != config.RouteRoot && r.URL.Path != config.RouteCalendar {
			http.NotFound(w, r)
			return
		}

		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set(config.HeaderAllow, config.AllowedMethods)
			http.Error(w, config.HTTPMsgMethodNotAll, http.StatusMethodNotAllowed)
			return
		}

		sn := s.cache.Load()
		if sn == nil {
			w.Header().Set(config.HeaderRetryAfter, config.RetryAfterSeconds)
			http.Error(w, config.HTTPMsgInitializing, http.StatusServiceUnavailable)
			return
		}
		doc := pick(sn)

		w.Header().Set(config.HeaderContentType, doc.contentType)
		w.Header().Set(config.HeaderXContentType, config.MimeNoSniff)
		w.Header().Set(config.HeaderCacheControl, config.CacheControlPrivate)
		w.Header().Set(config.HeaderETag, doc.etag)
		w.Header().Set(config.HeaderLastModified, sn.lastModified)

		if match := r.Header.Get(config.HeaderIfNoneMatch); match == doc.etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		if since := r.Header.Get(config.HeaderIfModifiedSince); since != "" {
			clientTime, err1 := time.Parse(http.TimeFormat, since)
			serverTime, err2 := time.Parse(http.TimeFormat, sn.lastModified)
			if err1 == nil && err2 == nil && !serverTime.After(clientTime) {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}

		if r.Method == http.MethodHead {
			return
		}
		if _, err := w.Write(doc.data); err != nil {
			slog.Error(config.ErrWriteResp,
				config.LogKeyComponent, config.CompServer,
				config.LogKeyError, err,
			)
		}
	}
}
