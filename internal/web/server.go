package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"image-compressor-go/internal/codec"
	"image-compressor-go/internal/compressor"
	"image-compressor-go/internal/config"
	"image-compressor-go/internal/enumerate"
	"image-compressor-go/internal/exifmeta"
	"image-compressor-go/internal/pipeline"
	"image-compressor-go/internal/statistics"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Server exposes the compression pipeline over HTTP with a WebSocket
// progress stream. One job runs at a time.
type Server struct {
	cfg        *config.Config
	log        *logrus.Logger
	router     *mux.Router
	httpServer *http.Server
	wsUpgrader websocket.Upgrader
	wsClients  map[*websocket.Conn]bool
	wsMutex    sync.RWMutex

	// Current job state
	operationMutex sync.RWMutex
	isRunning      bool
	currentJobID   uuid.UUID
	currentStats   *statistics.Statistics
}

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type CompressRequest struct {
	InputDirectory  string  `json:"input_directory"`
	OutputDirectory string  `json:"output_directory,omitempty"`
	Quality         int     `json:"quality,omitempty"`
	MaxDimension    int     `json:"max_dimension,omitempty"`
	MinCompression  float64 `json:"min_compression,omitempty"`
	Workers         int     `json:"workers,omitempty"`
	Overwrite       bool    `json:"overwrite"`
}

type JobStatus struct {
	Running bool                 `json:"running"`
	JobID   string               `json:"job_id,omitempty"`
	Summary *statistics.Snapshot `json:"summary,omitempty"`
}

type DirectoryInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	IsDirectory  bool   `json:"is_directory"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type outcomeMessage struct {
	JobID           string  `json:"job_id"`
	SourcePath      string  `json:"source_path"`
	Status          string  `json:"status"`
	OriginalBytes   int64   `json:"original_bytes"`
	CompressedBytes int64   `json:"compressed_bytes"`
	SavedPercent    float64 `json:"saved_percent"`
	Reason          string  `json:"reason,omitempty"`
}

// NewServer creates a Server with all routes registered.
func NewServer(cfg *config.Config, log *logrus.Logger) *Server {
	s := &Server{
		cfg:       cfg,
		log:       log,
		router:    mux.NewRouter(),
		wsClients: make(map[*websocket.Conn]bool),
		wsUpgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins in development
			},
		},
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/config", s.handleConfig).Methods("GET")
	api.HandleFunc("/compress", s.handleCompress).Methods("POST")
	api.HandleFunc("/status", s.handleStatus).Methods("GET")
	api.HandleFunc("/browse", s.handleBrowse).Methods("GET")

	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// Start runs the HTTP server on the given port, blocking until shutdown.
func (s *Server) Start(port int) error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	s.log.Infof("Web server listening on :%d", port)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: "ok"})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"input_directory":  s.cfg.InputDirectory,
			"output_directory": s.cfg.OutputDirectory,
			"quality":          s.cfg.Compression.Quality,
			"max_dimension":    s.cfg.Compression.MaxDimension,
			"min_compression":  s.cfg.Compression.MinRatio,
			"workers":          s.cfg.Performance.Workers,
			"extensions":       s.cfg.SupportedExtensions,
		},
	})
}

func (s *Server) handleCompress(w http.ResponseWriter, r *http.Request) {
	var req CompressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, APIResponse{Success: false, Error: "invalid request body"})
		return
	}

	jobCfg := s.jobConfig(req)
	if err := jobCfg.Validate(); err != nil {
		s.writeJSON(w, http.StatusBadRequest, APIResponse{Success: false, Error: err.Error()})
		return
	}

	s.operationMutex.Lock()
	if s.isRunning {
		jobID := s.currentJobID
		s.operationMutex.Unlock()
		s.writeJSON(w, http.StatusConflict, APIResponse{
			Success: false,
			Error:   fmt.Sprintf("a compression job is already running: %s", jobID),
		})
		return
	}
	jobID := uuid.New()
	s.isRunning = true
	s.currentJobID = jobID
	s.currentStats = statistics.NewStatistics()
	s.operationMutex.Unlock()

	go s.runCompression(jobCfg, jobID)

	s.writeJSON(w, http.StatusAccepted, APIResponse{
		Success: true,
		Message: "compression started",
		Data:    map[string]string{"job_id": jobID.String()},
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.operationMutex.RLock()
	defer s.operationMutex.RUnlock()

	status := JobStatus{Running: s.isRunning}
	if s.currentStats != nil {
		status.JobID = s.currentJobID.String()
		snap := s.currentStats.GetSnapshot()
		status.Summary = &snap
	}
	s.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: status})
}

func (s *Server) handleBrowse(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		path = "."
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, APIResponse{Success: false, Error: err.Error()})
		return
	}

	infos := make([]DirectoryInfo, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		infos = append(infos, DirectoryInfo{
			Path:         filepath.Join(path, entry.Name()),
			Name:         entry.Name(),
			IsDirectory:  entry.IsDir(),
			Size:         info.Size(),
			ModifiedTime: info.ModTime().Format("2006-01-02 15:04:05"),
		})
	}
	s.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: infos})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Errorf("WebSocket upgrade failed: %v", err)
		return
	}

	s.wsMutex.Lock()
	s.wsClients[conn] = true
	s.wsMutex.Unlock()

	// Reader loop exists only to detect the client going away.
	go func() {
		defer func() {
			s.wsMutex.Lock()
			delete(s.wsClients, conn)
			s.wsMutex.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// runCompression executes one job end to end and broadcasts progress.
func (s *Server) runCompression(cfg *config.Config, jobID uuid.UUID) {
	defer func() {
		s.operationMutex.Lock()
		s.isRunning = false
		s.operationMutex.Unlock()
	}()

	s.operationMutex.RLock()
	stats := s.currentStats
	s.operationMutex.RUnlock()

	enumerator := enumerate.New(cfg.SupportedExtensions, s.log)
	files, err := enumerator.Enumerate(cfg.InputDirectory)
	if err != nil {
		s.log.Errorf("Job %s enumeration failed: %v", jobID, err)
		s.broadcast(WSMessage{Type: "error", Data: err.Error()})
		return
	}

	tasks, err := pipeline.BuildTasks(files, cfg.InputDirectory, cfg.OutputDirectory,
		cfg.Compression.Quality, cfg.Compression.MaxDimension, cfg.Compression.MinRatio)
	if err != nil {
		s.log.Errorf("Job %s task build failed: %v", jobID, err)
		s.broadcast(WSMessage{Type: "error", Data: err.Error()})
		return
	}

	var meta *exifmeta.Manager
	if cfg.Metadata.Preserve {
		if meta, err = exifmeta.NewManager(); err != nil {
			s.log.Warnf("Metadata preservation disabled: %v", err)
			meta = nil
		} else {
			defer meta.Close()
		}
	}

	proc := compressor.New(codec.NewImagingCodec(), meta, s.log, compressor.Options{
		Overwrite:        cfg.Overwrite,
		SkipMarked:       cfg.Metadata.SkipMarked,
		PreserveMetadata: cfg.Metadata.Preserve,
	})

	runner := pipeline.NewRunner(cfg.Performance.Workers, s.log, stats, func(outcome pipeline.Outcome) {
		s.broadcast(WSMessage{Type: "outcome", Data: outcomeMessage{
			JobID:           jobID.String(),
			SourcePath:      outcome.SourcePath,
			Status:          string(outcome.Status),
			OriginalBytes:   outcome.OriginalBytes,
			CompressedBytes: outcome.CompressedBytes,
			SavedPercent:    outcome.SavedPercent,
			Reason:          outcome.Reason,
		}})
	})

	runner.Run(context.Background(), tasks, proc)

	snap := stats.GetSnapshot()
	s.broadcast(WSMessage{Type: "summary", Data: snap})
	s.log.Infof("Job %s finished: %d compressed, %d skipped, %d failed",
		jobID, snap.FilesCompressed, snap.FilesSkipped, snap.FilesFailed)
}

// jobConfig merges a request onto the server's base configuration.
func (s *Server) jobConfig(req CompressRequest) *config.Config {
	cfg := *s.cfg
	if req.InputDirectory != "" {
		cfg.InputDirectory = req.InputDirectory
	}
	if req.OutputDirectory != "" {
		cfg.OutputDirectory = req.OutputDirectory
	}
	if req.Quality != 0 {
		cfg.Compression.Quality = req.Quality
	}
	if req.MaxDimension != 0 {
		cfg.Compression.MaxDimension = req.MaxDimension
	}
	if req.MinCompression != 0 {
		cfg.Compression.MinRatio = req.MinCompression
	}
	if req.Workers != 0 {
		cfg.Performance.Workers = req.Workers
	}
	cfg.Overwrite = req.Overwrite
	return &cfg
}

func (s *Server) broadcast(msg WSMessage) {
	s.wsMutex.RLock()
	defer s.wsMutex.RUnlock()

	for conn := range s.wsClients {
		if err := conn.WriteJSON(msg); err != nil {
			s.log.Debugf("WebSocket write failed, dropping client: %v", err)
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.Errorf("Failed to encode response: %v", err)
	}
}
