package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/khaledhikmat/nsfw-go/model"
	"github.com/khaledhikmat/nsfw-go/pipeline"
	"github.com/khaledhikmat/nsfw-go/service/lgr"
)

// maxBodyBytes caps request bodies; inline data uris make batches large.
const maxBodyBytes = 64 << 20

func (s *Server) handleBatchClassify(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.respondWithText(w, http.StatusBadRequest, pipeline.UsageMessage)
		return
	}

	entries, err := pipeline.NormalizeBatch(body)
	if err != nil {
		s.respondWithError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	err = pipeline.WritePredictions(r.Context(), w, pipeline.NewPredictions(s.resolver, entries))
	if err != nil {
		lgr.Logger.Warn("batch stream interrupted",
			slog.Int("entries", len(entries)),
			slog.Any("error", err),
		)
	}
}

func (s *Server) handleSingleClassify(w http.ResponseWriter, r *http.Request) {
	values, ok := r.URL.Query()["url"]
	url := ""
	if ok && len(values) > 0 {
		url = values[0]
	}

	entry, err := pipeline.NormalizeSingle(url, ok)
	if err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, s.resolver.Resolve(r.Context(), entry))
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.respondWithText(w, http.StatusBadRequest, pipeline.MissingURLMessage)
		return
	}

	req, err := pipeline.NormalizeClassify(body)
	if err != nil {
		s.respondWithError(w, err)
		return
	}

	if req.Type == model.ClassifyTypeImage {
		s.respondWithJSON(w, http.StatusOK, s.resolver.Resolve(r.Context(), model.NewImageEntry(req.URL)))
		return
	}

	// Video failures are not folded into the result
	result, err := s.sampler.Scan(r.Context(), req.URL)
	if err != nil {
		lgr.Logger.Error("video classification failed",
			slog.String("url", req.URL),
			slog.Any("error", err),
		)
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	s.respondWithJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	data, err := pipeline.EncodeJSON(payload)
	if err != nil {
		lgr.Logger.Error("failed to encode response", slog.Any("error", err))
		s.respondWithText(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(data)
}

// respondWithError answers in plain text: 400 for malformed requests and
// 500 for everything else.
func (s *Server) respondWithError(w http.ResponseWriter, err error) {
	var invalid *model.InvalidRequestError
	if errors.As(err, &invalid) {
		s.respondWithText(w, http.StatusBadRequest, invalid.Message)
		return
	}
	s.respondWithText(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) respondWithText(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	_, _ = io.WriteString(w, msg)
}
