package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/visionprobe/probe-cli/internal/model"
	"github.com/visionprobe/probe-cli/internal/pipeline"
)

var (
	serveAddr    string
	serveUploads string
)

// analyzeRunner is the part of the pipeline the HTTP handlers need.
type analyzeRunner interface {
	Process(ctx context.Context, in pipeline.Input) (*model.RunResult, error)
}

// analyzeResponse is the envelope returned by POST /analyze.
type analyzeResponse struct {
	ID        string        `json:"id"`
	ImageURL  string        `json:"image_url,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	Report    *model.Report `json:"report"`
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP analysis server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		if err := os.MkdirAll(serveUploads, 0o755); err != nil {
			return eris.Wrap(err, "create uploads dir")
		}

		addr := serveAddr
		if addr == "" {
			addr = cfg.Server.Addr
		}

		srv := &http.Server{
			Addr:    addr,
			Handler: newServeMux(env.Pipeline, serveUploads),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// newServeMux builds the HTTP routes over the given pipeline.
func newServeMux(runner analyzeRunner, uploadsDir string) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadsDir))))

	mux.HandleFunc("POST /analyze", func(w http.ResponseWriter, r *http.Request) {
		handleAnalyze(w, r, runner, uploadsDir)
	})

	return mux
}

func handleAnalyze(w http.ResponseWriter, r *http.Request, runner analyzeRunner, uploadsDir string) {
	// One extra MB of headroom for the non-file form fields.
	if err := r.ParseMultipartForm(maxImageBytes + 1<<20); err != nil {
		httpError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}

	urls := r.MultipartForm.Value["url"]
	in := pipeline.Input{RawURLs: urls}

	file, header, err := r.FormFile("image")
	switch {
	case err == http.ErrMissingFile:
		if len(urls) == 0 {
			httpError(w, http.StatusBadRequest, "at least one of image or url is required")
			return
		}
	case err != nil:
		httpError(w, http.StatusBadRequest, "invalid image upload")
		return
	default:
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
		if err != nil {
			httpError(w, http.StatusBadRequest, "failed to read image")
			return
		}
		img, err := validateImage(data)
		if err != nil {
			httpError(w, http.StatusBadRequest, err.Error())
			return
		}
		in.Image = img
		in.ImageName = header.Filename
		in.ImageURL = saveUpload(uploadsDir, header.Filename, data)
	}

	result, err := runner.Process(r.Context(), in)
	if err != nil {
		zap.L().Error("analyze request failed", zap.Error(err))
		httpError(w, http.StatusInternalServerError, "analysis failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(analyzeResponse{
		ID:        uuid.New().String(),
		ImageURL:  result.ImageURL,
		CreatedAt: time.Now().UTC(),
		Report:    result.Report,
	})
}

// saveUpload stores the image under a fresh name and returns its serving
// path. Storage is best effort; on failure the analysis proceeds without a
// stored copy.
func saveUpload(uploadsDir, origName string, data []byte) string {
	name := uuid.New().String() + filepath.Ext(origName)
	if err := os.WriteFile(filepath.Join(uploadsDir, name), data, 0o644); err != nil {
		zap.L().Warn("failed to store upload", zap.Error(err))
		return ""
	}
	return "/uploads/" + name
}

func httpError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().StringVar(&serveUploads, "uploads", "uploads", "directory for stored image uploads")
	rootCmd.AddCommand(serveCmd)
}
