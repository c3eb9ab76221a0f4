package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

// CompressionConfig holds configuration for the compression middleware
type CompressionConfig struct {
	// MinSize is the minimum response size in bytes before compression is applied
	MinSize int
	// Level is the gzip compression level
	Level int
	// CompressibleTypes is the list of content types that should be compressed
	CompressibleTypes []string
}

// DefaultCompressionConfig returns sensible defaults for a JSON API
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize: 1024,
		Level:   gzip.DefaultCompression,
		CompressibleTypes: []string{
			"application/json",
			"text/plain",
			"text/html",
		},
	}
}

// gzipWriterPool reduces allocations by reusing gzip writers
var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		w, _ := gzip.NewWriterLevel(io.Discard, gzip.DefaultCompression)
		return w
	},
}

// gzipResponseWriter buffers the response until it knows whether the payload
// is large enough and of a compressible type.
type gzipResponseWriter struct {
	http.ResponseWriter
	config      CompressionConfig
	buffer      []byte
	statusCode  int
	decided     bool
	gzipWriter  *gzip.Writer
	compressing bool
}

func newGzipResponseWriter(w http.ResponseWriter, config CompressionConfig) *gzipResponseWriter {
	return &gzipResponseWriter{
		ResponseWriter: w,
		config:         config,
		statusCode:     http.StatusOK,
		buffer:         make([]byte, 0, config.MinSize+1),
	}
}

func (g *gzipResponseWriter) WriteHeader(statusCode int) {
	g.statusCode = statusCode
}

func (g *gzipResponseWriter) Write(b []byte) (int, error) {
	if g.decided {
		if g.compressing {
			return g.gzipWriter.Write(b)
		}
		return g.ResponseWriter.Write(b)
	}

	g.buffer = append(g.buffer, b...)
	if len(g.buffer) > g.config.MinSize {
		if err := g.decide(); err != nil {
			return 0, err
		}
	}
	return len(b), nil
}

// decide flushes the buffer, compressed or not, once the threshold is crossed
func (g *gzipResponseWriter) decide() error {
	g.decided = true

	contentType := g.Header().Get("Content-Type")
	if g.compressible(contentType) {
		gz := gzipWriterPool.Get().(*gzip.Writer)
		gz.Reset(g.ResponseWriter)
		g.gzipWriter = gz
		g.compressing = true

		g.Header().Set("Content-Encoding", "gzip")
		g.Header().Del("Content-Length")
		g.ResponseWriter.WriteHeader(g.statusCode)
		_, err := g.gzipWriter.Write(g.buffer)
		g.buffer = nil
		return err
	}

	g.ResponseWriter.WriteHeader(g.statusCode)
	_, err := g.ResponseWriter.Write(g.buffer)
	g.buffer = nil
	return err
}

func (g *gzipResponseWriter) compressible(contentType string) bool {
	for _, t := range g.config.CompressibleTypes {
		if strings.HasPrefix(contentType, t) {
			return true
		}
	}
	return false
}

// close flushes any pending buffered response and releases the gzip writer
func (g *gzipResponseWriter) close() error {
	if !g.decided {
		// Small response, send uncompressed
		g.decided = true
		g.ResponseWriter.WriteHeader(g.statusCode)
		if len(g.buffer) > 0 {
			if _, err := g.ResponseWriter.Write(g.buffer); err != nil {
				return err
			}
		}
		g.buffer = nil
		return nil
	}

	if g.compressing {
		err := g.gzipWriter.Close()
		gzipWriterPool.Put(g.gzipWriter)
		g.gzipWriter = nil
		return err
	}
	return nil
}

// Compression returns middleware that gzip-compresses qualifying responses
func Compression(config CompressionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
				next.ServeHTTP(w, r)
				return
			}

			gw := newGzipResponseWriter(w, config)
			next.ServeHTTP(gw, r)
			// Headers are already out by now, so the error is unactionable
			_ = gw.close()
		})
	}
}
