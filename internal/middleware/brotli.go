package middleware

import (
	"net/http"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

// Compression threshold. Exam papers and result reviews are the only
// payloads that regularly cross it; envelope-only responses stay plain.
const compressMinBytes = 1024

type compressWriter struct {
	gin.ResponseWriter
	br      *brotli.Writer
	pending []byte
	started sync.Once
	active  bool
}

func (w *compressWriter) Write(data []byte) (int, error) {
	w.pending = append(w.pending, data...)
	if len(w.pending) < compressMinBytes {
		return len(data), nil
	}
	w.started.Do(func() {
		w.active = true
		w.ResponseWriter.Header().Set("Content-Encoding", "br")
		w.ResponseWriter.Header().Del("Content-Length")
	})
	n, err := w.br.Write(w.pending)
	w.pending = w.pending[:0]
	return n, err
}

func (w *compressWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// Flush drains anything below the threshold as plain text and forwards
// the flush so streaming responses are not held back.
func (w *compressWriter) Flush() {
	if len(w.pending) > 0 {
		_, _ = w.ResponseWriter.Write(w.pending)
		w.pending = w.pending[:0]
	}
	w.ResponseWriter.Flush()
}

func (w *compressWriter) drain() error {
	if len(w.pending) == 0 {
		return nil
	}
	_, err := w.ResponseWriter.Write(w.pending)
	w.pending = w.pending[:0]
	return err
}

// Brotli compresses response bodies for clients that advertise support.
// Session stream upgrades and evidence image downloads pass through
// untouched: wrapping the writer breaks the WebSocket handshake, and
// JPEG/PNG uploads do not recompress.
func Brotli() gin.HandlerFunc {
	return func(c *gin.Context) {
		if passthrough(c) || !clientAcceptsBrotli(c.Request) {
			c.Next()
			return
		}

		c.Header("Vary", "Accept-Encoding")

		cw := &compressWriter{
			ResponseWriter: c.Writer,
			br:             brotli.NewWriterLevel(c.Writer, brotli.DefaultCompression),
		}
		defer func() {
			if err := cw.drain(); err != nil {
				_ = c.Error(err)
			}
			if cw.active {
				cw.br.Close()
			}
		}()

		c.Writer = cw
		c.Next()
	}
}

func passthrough(c *gin.Context) bool {
	if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
		return true
	}
	return strings.HasPrefix(c.Request.URL.Path, "/uploads/")
}

func clientAcceptsBrotli(r *http.Request) bool {
	for _, enc := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		if strings.TrimSpace(strings.ToLower(enc)) == "br" {
			return true
		}
	}
	return false
}
