package server

import (
	"net/http"
	"strings"
)

// reloadScriptTag is what gets spliced into served HTML. The script is never
// written into the output tree; injection happens at response time only.
const reloadScriptTag = `<script defer src="/livereload.js"></script>`

// injectReloadScript wraps a handler so HTML responses carry the live-reload
// script before their closing </body> tag. Non-HTML responses pass through
// untouched, as do oversized documents (buffering is capped).
func injectReloadScript(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		isHTMLPage := path == "/" || path == "" || strings.HasSuffix(path, "/") || strings.HasSuffix(path, ".html")
		if !isHTMLPage {
			next.ServeHTTP(w, r)
			return
		}

		injector := &scriptInjector{ResponseWriter: w, statusCode: http.StatusOK, maxSize: 512 * 1024}
		next.ServeHTTP(injector, r)
		injector.finalize()
	})
}

// scriptInjector buffers an HTML response so the script tag can be inserted
// before </body>. It switches to passthrough for non-HTML content types and
// for bodies exceeding maxSize.
type scriptInjector struct {
	http.ResponseWriter
	statusCode    int
	buffer        []byte
	headerWritten bool
	passthrough   bool
	maxSize       int
}

func (s *scriptInjector) WriteHeader(code int) {
	s.statusCode = code
	if s.passthrough {
		s.ResponseWriter.WriteHeader(code)
		s.headerWritten = true
	}
}

func (s *scriptInjector) Write(data []byte) (int, error) {
	if !s.headerWritten && !s.passthrough && s.buffer == nil {
		contentType := s.ResponseWriter.Header().Get("Content-Type")
		if contentType != "" && !strings.Contains(contentType, "text/html") {
			s.passthrough = true
			s.ResponseWriter.WriteHeader(s.statusCode)
			s.headerWritten = true
			return s.ResponseWriter.Write(data)
		}
		s.buffer = make([]byte, 0, 64*1024)
	}

	if s.passthrough {
		return s.ResponseWriter.Write(data)
	}

	if len(s.buffer)+len(data) > s.maxSize {
		s.passthrough = true
		s.ResponseWriter.Header().Del("Content-Length")
		s.ResponseWriter.WriteHeader(s.statusCode)
		s.headerWritten = true
		if len(s.buffer) > 0 {
			if _, err := s.ResponseWriter.Write(s.buffer); err != nil {
				return 0, err
			}
			s.buffer = nil
		}
		return s.ResponseWriter.Write(data)
	}

	s.buffer = append(s.buffer, data...)
	return len(data), nil
}

// finalize flushes the buffered document with the script tag spliced in. Must
// run after the wrapped handler returns.
func (s *scriptInjector) finalize() {
	if s.passthrough {
		return
	}
	if len(s.buffer) == 0 {
		if !s.headerWritten {
			s.ResponseWriter.WriteHeader(s.statusCode)
		}
		return
	}

	doc := string(s.buffer)
	if idx := strings.LastIndex(doc, "</body>"); idx >= 0 {
		doc = doc[:idx] + reloadScriptTag + doc[idx:]
	}

	s.ResponseWriter.Header().Del("Content-Length")
	s.ResponseWriter.WriteHeader(s.statusCode)
	_, _ = s.ResponseWriter.Write([]byte(doc))
}
