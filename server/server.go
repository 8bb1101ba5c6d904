// Package server adapts the livezip core encoder into the HTTP surface the
// teacher repo (philips-labs/s3zipstreamer) exposed: a small JSON API that
// streams a ZIP64 archive assembled from S3 objects and/or URLs.
package server

import (
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/philips-software/gautocloud-connectors/hsdp"

	"github.com/cloudfoundry-community/gautocloud"
	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/philips-forks/livezip/livezip"
)

// Config carries the HTTP Basic Auth credentials guarding the /download and
// /create_download_link routes; /download_link/{link_id} is not guarded. If
// either field is empty, auth is disabled entirely — unchanged from the
// teacher.
type Config struct {
	Username string
	Password string
}

// Server is the root http.Handler, unchanged in shape from the teacher's
// zip_streamer.Server: a mux router, a link cache, and an optional direct
// S3 client discovered via gautocloud binding.
type Server struct {
	router       *mux.Router
	linkCache    *LinkCache
	config       Config
	directClient *hsdp.S3MinioClient
}

type zipRequest struct {
	S3Creds     s3Creds       `json:"s3Creds"`
	ZipFilename string        `json:"zipFilename"`
	Entries     []sourceEntry `json:"entries"`
}

func basicAuthWrapper(config Config, original http.HandlerFunc) http.HandlerFunc {
	if config.Username == "" || config.Password == "" {
		return original
	}
	return func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok || username != config.Username || password != config.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="livezip"`)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Unauthorized\n"))
			return
		}
		original(w, r)
	}
}

// NewServer builds the router and wires in a direct S3 client if one is
// bound in the environment, exactly as the teacher's NewServer does.
func NewServer(config Config) (*Server, error) {
	r := mux.NewRouter()

	timeout := 60 * time.Second
	s := &Server{
		router:    r,
		linkCache: NewLinkCache(&timeout),
		config:    config,
	}

	_ = gautocloud.Inject(&s.directClient)

	r.HandleFunc("/download", basicAuthWrapper(config, s.handlePostDownload)).Methods("POST")
	r.HandleFunc("/create_download_link", basicAuthWrapper(config, s.handleCreateLink)).Methods("POST")
	r.HandleFunc("/download_link/{link_id}", s.handleDownloadLink).Methods("GET")

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	originsOk := handlers.AllowedOrigins([]string{"*"})
	headersOk := handlers.AllowedHeaders([]string{"Content-Type", "X-Requested-With", "*"})
	methodsOk := handlers.AllowedMethods([]string{"GET", "HEAD", "POST", "PUT", "OPTIONS"})
	handlers.CORS(originsOk, headersOk, methodsOk)(s.router).ServeHTTP(w, r)
}

func (s *Server) parseZipRequest(w http.ResponseWriter, req *http.Request) (*zipRequest, error) {
	body, err := ioutil.ReadAll(req.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":"error","error":"missing body"}`))
		return nil, err
	}

	var parsed zipRequest
	if err := json.Unmarshal(body, &parsed); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":"error","error":"invalid body"}`))
		return nil, err
	}

	if parsed.ZipFilename == "" {
		parsed.ZipFilename = "archive.zip"
	}

	return &parsed, nil
}

func (s *Server) handleCreateLink(w http.ResponseWriter, req *http.Request) {
	parsed, err := s.parseZipRequest(w, req)
	if err != nil {
		return
	}

	linkID := uuid.New().String()
	s.linkCache.Set(linkID, linkEntry{
		Filename: parsed.ZipFilename,
		S3Creds:  parsed.S3Creds,
		Entries:  parsed.Entries,
	})

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok","link_id":"` + linkID + `"}`))
}

func (s *Server) handlePostDownload(w http.ResponseWriter, req *http.Request) {
	parsed, err := s.parseZipRequest(w, req)
	if err != nil {
		return
	}

	s.streamEntries(&linkEntry{
		Filename: parsed.ZipFilename,
		S3Creds:  parsed.S3Creds,
		Entries:  parsed.Entries,
	}, w, req)
}

func (s *Server) handleDownloadLink(w http.ResponseWriter, req *http.Request) {
	linkID := mux.Vars(req)["link_id"]
	entry := s.linkCache.Get(linkID)
	if entry == nil || entry.Entries == nil {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"status":"error","error":"link not found"}`))
		return
	}

	s.streamEntries(entry, w, req)
}

// streamEntries builds the FileEntry list, prepares the encoder so the
// exact archive size is known, sets a real Content-Length header — the
// concrete payoff of the core's pre-flight sizing that the teacher's
// archive/zip-based streamer could never offer — and then copies the
// archive bytes to the response.
func (s *Server) streamEntries(entry *linkEntry, w http.ResponseWriter, req *http.Request) {
	var directClient *minio.Client
	var directBucket string
	if s.directClient != nil {
		directClient = s.directClient.Client
		directBucket = s.directClient.Bucket
	}

	fileEntries, err := buildFileEntries(entry.Entries, &entry.S3Creds, directClient, directBucket)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":"error","error":"invalid entries"}`))
		return
	}

	encoder := livezip.NewEncoder(fileEntries)
	if err := encoder.Prepare(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":"error","error":"could not plan archive"}`))
		return
	}

	totalSize, err := encoder.TotalSize()
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	data, err := encoder.GetData(req.Context())
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", entry.Filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", totalSize))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, data); err != nil {
		closeForError(w)
	}
}

func closeForError(w http.ResponseWriter) {
	hj, ok := w.(http.Hijacker)
	if !ok {
		return
	}

	conn, _, err := hj.Hijack()
	if err != nil {
		return
	}

	conn.Close()
}
