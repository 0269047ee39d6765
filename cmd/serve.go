package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jsphweid/midicompare/constants"
	"github.com/jsphweid/midicompare/convert"
	"github.com/jsphweid/midicompare/engine"
	"github.com/jsphweid/midicompare/midi"
	"github.com/jsphweid/midicompare/model"
	"github.com/jsphweid/midicompare/util"
	"github.com/mdobak/go-xerrors"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
)

// nginx's code for a client that went away mid request
const statusClientClosedRequest = 499

const maxUploadBytes = 64 << 20

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the comparison api",
	Long:  `Serves POST /compare, POST /compare/files and POST /convert on LISTEN_ADDR.`,
	Run: func(cmd *cobra.Command, args []string) {
		cobra.CheckErr(serve())
	},
}

type server struct {
	app    *app
	logger *slog.Logger
}

func newServer(a *app, logger *slog.Logger) *server {
	return &server{app: a, logger: logger}
}

type requestIDKey struct{}

func (s *server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()
		w.Header().Set("X-Request-Id", id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		started := time.Now()
		next.ServeHTTP(w, r.WithContext(ctx))
		s.logger.InfoContext(ctx, "handled request",
			slog.String("requestID", id),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("took", time.Since(started)),
		)
	})
}

func (s *server) Router() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/compare", s.HandleCompare).Methods("POST")
	router.HandleFunc("/compare/files", s.HandleCompareFiles).Methods("POST")
	router.HandleFunc("/convert", s.HandleConvert).Methods("POST")
	router.Use(s.withRequestID)
	return cors.Default().Handler(router)
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to write response", slog.Any("error", xerrors.New(err)))
	}
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	s.logger.ErrorContext(r.Context(), "request failed",
		slog.Any("requestID", r.Context().Value(requestIDKey{})),
		slog.Int("status", status),
		slog.Any("error", err),
	)
	s.writeJSON(w, status, model.ErrorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, convert.ErrCancelled), errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	case errors.Is(err, engine.ErrUnknownMode):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *server) compare(w http.ResponseWriter, r *http.Request, doc1, doc2 model.Document, rawMode string) {
	mode, err := engine.ParseMode(rawMode)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	res, err := s.app.engine.Compare(r.Context(), doc1, doc2, mode)
	if err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *server) HandleCompare(w http.ResponseWriter, r *http.Request) {
	var input model.CompareRequestBody
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadBytes)).Decode(&input); err != nil {
		s.writeError(w, r, http.StatusBadRequest, xerrors.New("could not unmarshal request body", err))
		return
	}
	s.compare(w, r, input.Doc1, input.Doc2, input.Mode)
}

func (s *server) readUpload(r *http.Request, field string) ([]byte, *multipart.FileHeader, error) {
	f, header, err := r.FormFile(field)
	if err != nil {
		return nil, nil, xerrors.New("missing upload "+strconv.Quote(field), err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, nil, xerrors.New(err)
	}
	return data, header, nil
}

func fingerprintOf(r *http.Request, header *multipart.FileHeader) convert.Fingerprint {
	fp := convert.Fingerprint{Name: header.Filename, Size: header.Size}
	if ms, err := strconv.ParseInt(r.FormValue("lastModified"), 10, 64); err == nil {
		fp.ModTime = time.UnixMilli(ms)
	}
	return fp
}

func (s *server) uploadedDocument(r *http.Request, field string) (model.Document, error) {
	data, header, err := s.readUpload(r, field)
	if err != nil {
		return model.Document{}, err
	}
	if strings.EqualFold(filepath.Ext(header.Filename), ".wav") {
		res, err := s.app.converter.Convert(r.Context(), convert.Request{
			Fingerprint: fingerprintOf(r, header),
			Data:        data,
		})
		if err != nil {
			return model.Document{}, err
		}
		return res.Document, nil
	}
	label := strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	return midi.ReadDocument(label, bytes.NewReader(data))
}

func (s *server) HandleCompareFiles(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, r, http.StatusBadRequest, xerrors.New(err))
		return
	}
	var docs [2]model.Document
	for i, field := range []string{"file1", "file2"} {
		doc, err := s.uploadedDocument(r, field)
		if err != nil {
			status := statusFor(err)
			if status == http.StatusInternalServerError {
				status = http.StatusBadRequest
			}
			s.writeError(w, r, status, err)
			return
		}
		docs[i] = doc
	}
	s.compare(w, r, docs[0], docs[1], r.FormValue("mode"))
}

func (s *server) HandleConvert(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, r, http.StatusBadRequest, xerrors.New(err))
		return
	}
	data, header, err := s.readUpload(r, "file")
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	res, err := s.app.converter.Convert(r.Context(), convert.Request{
		Fingerprint: fingerprintOf(r, header),
		Data:        data,
	})
	if err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, model.ConvertResponse{
		Filename:       res.Filename,
		Document:       res.Document,
		Midi:           res.Midi,
		Confidence:     res.Confidence,
		ProcessingTime: float64(res.ProcessingTime.Microseconds()) / 1000,
		Fallback:       res.Fallback,
		Cached:         res.Cached,
	})
}

func serve() error {
	a, err := newAppFromEnv()
	if err != nil {
		return err
	}
	logger := util.GetLogger()
	addr := constants.GetListenAddr()
	logger.Info("listening", slog.String("addr", addr))
	if err := http.ListenAndServe(addr, newServer(a, logger).Router()); err != nil {
		return xerrors.New(err)
	}
	return nil
}
