package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/ironsheep/image-transform/internal/imaging"
	"github.com/ironsheep/image-transform/internal/segment"
)

// maxUploadBytes caps in-request image payloads (16 MiB, matching the
// original service's upload limit).
const maxUploadBytes = 16 << 20

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleTransform runs the full pipeline. The source arrives as a
// multipart "file" field, a raw request body, or a "url" query
// parameter; every transformation option is a query parameter.
func (s *Server) handleTransform(w http.ResponseWriter, r *http.Request) {
	src, err := sourceFromRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	params, err := paramsFromQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.svc.Transform(r.Context(), src, params)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeImage(w, res)
}

func (s *Server) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	src, err := sourceFromRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	width, height, err := parseSize(r.URL.Query().Get("size"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.svc.Thumbnail(r.Context(), src, width, height)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeImage(w, res)
}

func (s *Server) handleRemoveBackground(w http.ResponseWriter, r *http.Request) {
	src, err := sourceFromRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.svc.RemoveBackground(r.Context(), src, r.URL.Query().Get("format"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeImage(w, res)
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	src, err := sourceFromRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	analyze := strings.EqualFold(r.URL.Query().Get("analyze"), "true")

	info, err := s.svc.Info(r.Context(), src, analyze)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// sourceFromRequest resolves the image source for a request, in order
// of preference: "url" query parameter, multipart "file" field, raw
// request body.
func sourceFromRequest(r *http.Request) (imaging.Source, error) {
	if u := r.URL.Query().Get("url"); u != "" {
		return imaging.FromURL(u), nil
	}

	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return imaging.Source{}, fmt.Errorf("%w: bad multipart form: %v", imaging.ErrValidation, err)
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			return imaging.Source{}, fmt.Errorf("%w: missing file field", imaging.ErrValidation)
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
		if err != nil {
			return imaging.Source{}, fmt.Errorf("%w: read upload: %v", imaging.ErrValidation, err)
		}
		return imaging.FromBytes(data), nil
	}

	if r.Body != nil && r.ContentLength != 0 {
		data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
		if err != nil {
			return imaging.Source{}, fmt.Errorf("%w: read body: %v", imaging.ErrValidation, err)
		}
		if len(data) > 0 {
			return imaging.FromBytes(data), nil
		}
	}
	return imaging.Source{}, fmt.Errorf("%w: no image source: supply url, a file field, or a request body", imaging.ErrValidation)
}

// paramsFromQuery maps the query parameters onto TransformParams. The
// parameter names mirror the service's public API: width, height,
// format, quality, crop_x, crop_y, crop_width, crop_height, rotate,
// watermark, grayscale, enhance, compress.
func paramsFromQuery(r *http.Request) (imaging.TransformParams, error) {
	q := r.URL.Query()
	var p imaging.TransformParams
	var err error

	if p.Width, err = optionalInt(q.Get("width"), "width"); err != nil {
		return p, err
	}
	if p.Height, err = optionalInt(q.Get("height"), "height"); err != nil {
		return p, err
	}
	if p.CropX, err = optionalInt(q.Get("crop_x"), "crop_x"); err != nil {
		return p, err
	}
	if p.CropY, err = optionalInt(q.Get("crop_y"), "crop_y"); err != nil {
		return p, err
	}
	if p.CropWidth, err = optionalInt(q.Get("crop_width"), "crop_width"); err != nil {
		return p, err
	}
	if p.CropHeight, err = optionalInt(q.Get("crop_height"), "crop_height"); err != nil {
		return p, err
	}
	if p.Rotate, err = optionalInt(q.Get("rotate"), "rotate"); err != nil {
		return p, err
	}
	if v := q.Get("quality"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return p, fmt.Errorf("%w: quality %q is not an integer", imaging.ErrValidation, v)
		}
		p.Quality = n
	}

	p.Format = q.Get("format")
	p.Watermark = q.Get("watermark")
	p.Grayscale = strings.EqualFold(q.Get("grayscale"), "true")
	p.Enhance = strings.EqualFold(q.Get("enhance"), "true")
	p.Compress = strings.EqualFold(q.Get("compress"), "true")
	return p, nil
}

func optionalInt(v, name string) (*int, error) {
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q is not an integer", imaging.ErrValidation, name, v)
	}
	return &n, nil
}

// parseSize parses "WIDTHxHEIGHT" (default 150x150).
func parseSize(v string) (int, int, error) {
	if v == "" {
		return 150, 150, nil
	}
	parts := strings.Split(strings.ToLower(v), "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: size %q must be WIDTHxHEIGHT, e.g. 150x150", imaging.ErrValidation, v)
	}
	w, errW := strconv.Atoi(parts[0])
	h, errH := strconv.Atoi(parts[1])
	if errW != nil || errH != nil {
		return 0, 0, fmt.Errorf("%w: size %q must be WIDTHxHEIGHT, e.g. 150x150", imaging.ErrValidation, v)
	}
	return w, h, nil
}

func writeImage(w http.ResponseWriter, res *imaging.Result) {
	w.Header().Set("Content-Type", "image/"+res.Format)
	if res.Cached {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	w.WriteHeader(http.StatusOK)
	w.Write(res.Bytes)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the error taxonomy onto HTTP statuses: validation
// 400, undecodable source 422, unavailable source or failed
// segmentation 502, everything else 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, imaging.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, imaging.ErrDecode):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, imaging.ErrSourceUnavailable),
		errors.Is(err, segment.ErrSegmentationFailed):
		status = http.StatusBadGateway
	}

	if status >= 500 {
		s.log.Error().Err(err).Str("path", r.URL.Path).
			Str("request_id", RequestIDFromContext(r.Context())).Msg("request failed")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
