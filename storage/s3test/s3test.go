// Package s3test provides a minimal in-memory object storage fake
// sufficient for the path-style PutObject, GetObject and ListObjectsV2
// calls the client library issues.
package s3test

import (
	"encoding/xml"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
)

// Server is a fake object storage server backed by a map.
type Server struct {
	srv *httptest.Server

	mu      sync.Mutex
	objects map[string][]byte
}

// New starts a fake server. Callers must Close it.
func New() *Server {
	s := &Server{
		objects: make(map[string][]byte),
	}
	s.srv = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// URL returns the server address to be used as endpoint override.
func (s *Server) URL() string { return s.srv.URL }

// Close shuts the server down.
func (s *Server) Close() { s.srv.Close() }

// Put seeds an object directly.
func (s *Server) Put(bucket, key string, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[bucket+"/"+key] = body
}

// Get returns a stored object and whether it exists.
func (s *Server) Get(bucket, key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.objects[bucket+"/"+key]
	return b, ok
}

func (s *Server) handle(rw http.ResponseWriter, req *http.Request) {
	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	bucket := parts[0]
	var key string
	if len(parts) > 1 {
		key = parts[1]
	}

	switch {
	case req.Method == http.MethodPut && key != "":
		body, err := ioutil.ReadAll(req.Body)
		if err != nil {
			rw.WriteHeader(http.StatusInternalServerError)
			return
		}
		s.Put(bucket, key, body)
		rw.WriteHeader(http.StatusOK)
	case req.Method == http.MethodGet && key != "":
		b, ok := s.Get(bucket, key)
		if !ok {
			rw.WriteHeader(http.StatusNotFound)
			rw.Write([]byte(`<Error><Code>NoSuchKey</Code><Message>not found</Message></Error>`))
			return
		}
		rw.WriteHeader(http.StatusOK)
		rw.Write(b)
	case req.Method == http.MethodGet:
		s.list(rw, bucket, req.URL.Query().Get("prefix"))
	default:
		rw.WriteHeader(http.StatusMethodNotAllowed)
	}
}

type listEntry struct {
	Key  string `xml:"Key"`
	Size int    `xml:"Size"`
}

type listResult struct {
	XMLName     xml.Name    `xml:"ListBucketResult"`
	Name        string      `xml:"Name"`
	IsTruncated bool        `xml:"IsTruncated"`
	KeyCount    int         `xml:"KeyCount"`
	Contents    []listEntry `xml:"Contents"`
}

func (s *Server) list(rw http.ResponseWriter, bucket, prefix string) {
	s.mu.Lock()
	var keys []string
	for name := range s.objects {
		if !strings.HasPrefix(name, bucket+"/") {
			continue
		}
		key := strings.TrimPrefix(name, bucket+"/")
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	s.mu.Unlock()
	sort.Strings(keys)

	result := listResult{
		Name:     bucket,
		KeyCount: len(keys),
	}
	for _, key := range keys {
		b, _ := s.Get(bucket, key)
		result.Contents = append(result.Contents, listEntry{Key: key, Size: len(b)})
	}
	payload, err := xml.Marshal(result)
	if err != nil {
		rw.WriteHeader(http.StatusInternalServerError)
		return
	}
	rw.Header().Set("Content-Type", "application/xml")
	rw.WriteHeader(http.StatusOK)
	rw.Write(payload)
}
