package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"mime"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/kiesman99/ninegrid/internal/api"
	"github.com/kiesman99/ninegrid/internal/proof"
	"github.com/kiesman99/ninegrid/internal/session"
	"github.com/kiesman99/ninegrid/internal/slicer"
	"github.com/kiesman99/ninegrid/internal/storage"
	"github.com/kiesman99/ninegrid/pkg/grid"
)

// multipartOverhead is the allowance for form boundaries and headers on top
// of the image itself.
const multipartOverhead = 1 << 20

// Publisher uploads files to object storage
type Publisher interface {
	Publish(ctx context.Context, dir string, objects []storage.Object) ([]string, error)
}

type sliceSession = session.Session[*slicer.Result]

// Server implements the ServerInterface from the generated API
type Server struct {
	startTime time.Time
	version   string
	slicer    *slicer.Slicer
	sessions  session.Store[*sliceSession]
	publisher Publisher
}

// NewServer creates a new server instance. pub may be nil, in which case
// publishing answers 503.
func NewServer(version string, sl *slicer.Slicer, pub Publisher) *Server {
	return &Server{
		startTime: time.Now(),
		version:   version,
		slicer:    sl,
		sessions:  session.NewMemoryStore[*sliceSession](),
		publisher: pub,
	}
}

// SweepSessions drops sessions idle for longer than maxIdle.
func (s *Server) SweepSessions(maxIdle time.Duration) int {
	return s.sessions.Sweep(maxIdle)
}

// GetHealth implements the health check endpoint
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	uptime := int(time.Since(s.startTime).Seconds())
	sessions := s.sessions.Len()

	response := api.HealthResponse{
		Status:    api.Healthy,
		Timestamp: time.Now(),
		Uptime:    &uptime,
		Version:   &s.version,
		Sessions:  &sessions,
	}

	s.writeJSON(w, http.StatusOK, response)
}

// SliceImage slices an upload and answers with the archive, without keeping
// any state.
func (s *Server) SliceImage(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	upload, cleanup, ok := s.readUpload(w, r, &requestID)
	if !ok {
		return
	}
	defer cleanup()

	result, err := s.slicer.Slice(r.Context(), upload)
	if err != nil {
		s.handleSliceError(w, err, &requestID)
		return
	}

	data, err := s.slicer.Package(r.Context(), result)
	if err != nil {
		s.handleSliceError(w, err, &requestID)
		return
	}

	s.writeFile(w, "application/zip", result.ArchiveName(), data, requestID)
}

// CreateSession implements POST /sessions
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	id := s.sessions.NewID()
	if err := s.sessions.Put(r.Context(), id, session.New[*slicer.Result]()); err != nil {
		log.Printf("Error storing session: %v", err)
		s.writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"Internal server error", &requestID, nil)
		return
	}

	w.Header().Set("Location", "sessions/"+id)
	s.writeJSON(w, http.StatusCreated, api.Session{Id: id})
}

// GetSession implements GET /sessions/{sessionId}
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request, sessionId api.SessionId) {
	requestID := requestIDFrom(r)

	sess, ok := s.lookup(w, r, sessionId, &requestID)
	if !ok {
		return
	}

	result, gen, _ := sess.Snapshot()
	s.writeJSON(w, http.StatusOK, sessionResponse(sessionId, result, gen))
}

// DeleteSession implements DELETE /sessions/{sessionId}
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request, sessionId api.SessionId) {
	requestID := requestIDFrom(r)

	sess, ok := s.lookup(w, r, sessionId, &requestID)
	if !ok {
		return
	}

	sess.Close()
	if err := s.sessions.Delete(r.Context(), sessionId); err != nil {
		log.Printf("Error deleting session %s: %v", sessionId, err)
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadImage replaces the session's result with a new upload. On failure
// the previous result stays in place.
func (s *Server) UploadImage(w http.ResponseWriter, r *http.Request, sessionId api.SessionId) {
	requestID := requestIDFrom(r)

	sess, ok := s.lookup(w, r, sessionId, &requestID)
	if !ok {
		return
	}

	upload, cleanup, ok := s.readUpload(w, r, &requestID)
	if !ok {
		return
	}
	defer cleanup()

	gen, ctx := sess.Begin(r.Context())
	result, err := s.slicer.Slice(ctx, upload)
	if err != nil {
		sess.Abandon(gen)
		if errors.Is(err, context.Canceled) && sess.Generation() != gen {
			err = session.ErrSuperseded
		}
		s.handleSliceError(w, err, &requestID)
		return
	}

	if err := sess.Commit(gen, result); err != nil {
		s.handleSliceError(w, err, &requestID)
		return
	}

	s.writeJSON(w, http.StatusOK, sessionResponse(sessionId, result, gen))
}

// GetCanvas returns the composed square canvas as PNG
func (s *Server) GetCanvas(w http.ResponseWriter, r *http.Request, sessionId api.SessionId) {
	requestID := requestIDFrom(r)

	result, ok := s.currentResult(w, r, sessionId, &requestID)
	if !ok {
		return
	}

	data, err := result.CanvasPNG()
	if err != nil {
		s.handleSliceError(w, err, &requestID)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("X-Request-ID", requestID)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Printf("Error writing response: %v", err)
	}
}

// GetTile downloads one tile. row and col are 1-based, as in the file names.
func (s *Server) GetTile(w http.ResponseWriter, r *http.Request, sessionId api.SessionId, row int, col int) {
	requestID := requestIDFrom(r)

	if row < 1 || row > grid.Rows || col < 1 || col > grid.Cols {
		s.writeValidationErrorResponse(w, "tile",
			fmt.Sprintf("row and col must be between 1 and %d", grid.Rows), &requestID)
		return
	}

	result, ok := s.currentResult(w, r, sessionId, &requestID)
	if !ok {
		return
	}

	tile, ok := result.Tile(row-1, col-1)
	if !ok {
		s.writeErrorResponse(w, http.StatusNotFound, "TILE_NOT_FOUND",
			"Tile not found", &requestID, nil)
		return
	}

	s.writeFile(w, "image/png", tile.Name, tile.Data, requestID)
}

// GetArchive downloads the nine tiles as one ZIP
func (s *Server) GetArchive(w http.ResponseWriter, r *http.Request, sessionId api.SessionId) {
	requestID := requestIDFrom(r)

	sess, ok := s.lookup(w, r, sessionId, &requestID)
	if !ok {
		return
	}

	result, gen, ok := sess.Snapshot()
	if !ok {
		s.handleSliceError(w, grid.ErrNothingToPackage, &requestID)
		return
	}

	data, err := s.slicer.Package(r.Context(), result)
	if err != nil {
		s.handleSliceError(w, err, &requestID)
		return
	}

	// A newer upload committed while the archive was built
	if !sess.Current(gen) {
		s.handleSliceError(w, session.ErrSuperseded, &requestID)
		return
	}

	s.writeFile(w, "application/zip", result.ArchiveName(), data, requestID)
}

// GetProof renders the PDF contact sheet for the current result
func (s *Server) GetProof(w http.ResponseWriter, r *http.Request, sessionId api.SessionId) {
	requestID := requestIDFrom(r)

	result, ok := s.currentResult(w, r, sessionId, &requestID)
	if !ok {
		return
	}

	data, err := proof.Render(result.ProofSheet())
	if err != nil {
		s.handleSliceError(w, err, &requestID)
		return
	}

	s.writeFile(w, "application/pdf", result.ProofName(), data, requestID)
}

// PublishSession uploads the tiles and archive to object storage
func (s *Server) PublishSession(w http.ResponseWriter, r *http.Request, sessionId api.SessionId) {
	requestID := requestIDFrom(r)

	if s.publisher == nil {
		s.writeErrorResponse(w, http.StatusServiceUnavailable, "PUBLISHING_DISABLED",
			"Publishing is not configured on this server", &requestID, nil)
		return
	}

	sess, ok := s.lookup(w, r, sessionId, &requestID)
	if !ok {
		return
	}

	result, gen, ok := sess.Snapshot()
	if !ok {
		s.handleSliceError(w, grid.ErrNothingToPackage, &requestID)
		return
	}

	archive, err := s.slicer.Package(r.Context(), result)
	if err != nil {
		s.handleSliceError(w, err, &requestID)
		return
	}

	objects := make([]storage.Object, 0, len(result.Tiles)+1)
	for _, t := range result.Tiles {
		objects = append(objects, storage.Object{Key: t.Name, ContentType: "image/png", Data: t.Data})
	}
	objects = append(objects, storage.Object{Key: result.ArchiveName(), ContentType: "application/zip", Data: archive})

	dir := path.Join(sessionId, strconv.FormatUint(gen, 10))
	keys, err := s.publisher.Publish(r.Context(), dir, objects)
	if err != nil {
		log.Printf("Error publishing session %s: %v", sessionId, err)
		s.writeErrorResponse(w, http.StatusBadGateway, "PUBLISH_FAILED",
			"Uploading to object storage failed", &requestID, map[string]interface{}{
				"published": len(keys),
				"total":     len(objects),
			})
		return
	}

	s.writeJSON(w, http.StatusOK, api.PublishResponse{Keys: keys})
}

// ParamError reports a malformed path parameter as a validation error.
func (s *Server) ParamError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := requestIDFrom(r)

	field := "request"
	var paramErr *api.InvalidParamFormatError
	if errors.As(err, &paramErr) {
		field = paramErr.ParamName
	}
	s.writeValidationErrorResponse(w, field, err.Error(), &requestID)
}

// lookup resolves a session or writes a 404
func (s *Server) lookup(w http.ResponseWriter, r *http.Request, id string, requestID *string) (*sliceSession, bool) {
	sess, ok, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		log.Printf("Error loading session %s: %v", id, err)
		s.writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"Internal server error", requestID, nil)
		return nil, false
	}
	if !ok {
		s.writeErrorResponse(w, http.StatusNotFound, "SESSION_NOT_FOUND",
			fmt.Sprintf("Session %s does not exist", id), requestID, nil)
		return nil, false
	}
	return sess, true
}

// currentResult returns the committed result of a session, or writes the
// error response if there is none.
func (s *Server) currentResult(w http.ResponseWriter, r *http.Request, id string, requestID *string) (*slicer.Result, bool) {
	sess, ok := s.lookup(w, r, id, requestID)
	if !ok {
		return nil, false
	}
	result, _, ok := sess.Snapshot()
	if !ok {
		s.writeErrorResponse(w, http.StatusConflict, "NOTHING_TO_PACKAGE",
			"No image has been uploaded to this session yet", requestID, nil)
		return nil, false
	}
	return result, true
}

// readUpload extracts the "image" form file. The returned cleanup closes it.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request, requestID *string) (grid.Upload, func(), bool) {
	if limit := s.slicer.Options().MaxFileSize; limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.handleSliceError(w, fmt.Errorf("%w: request body exceeds %s", grid.ErrFileTooLarge,
				grid.FormatFileSize(tooLarge.Limit)), requestID)
			return grid.Upload{}, nil, false
		}
		s.writeValidationErrorResponse(w, "image", "multipart field 'image' is required", requestID)
		return grid.Upload{}, nil, false
	}

	upload := grid.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}
	cleanup := func() {
		file.Close()
		if r.MultipartForm != nil {
			r.MultipartForm.RemoveAll()
		}
	}
	return upload, cleanup, true
}

// handleSliceError maps pipeline errors to API responses
func (s *Server) handleSliceError(w http.ResponseWriter, err error, requestID *string) {
	switch {
	case errors.Is(err, grid.ErrInvalidMediaType):
		s.writeErrorResponse(w, http.StatusUnsupportedMediaType, "INVALID_MEDIA_TYPE",
			"Please upload an image file", requestID, nil)
	case errors.Is(err, grid.ErrFileTooLarge):
		s.writeErrorResponse(w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE",
			fmt.Sprintf("Image must be %s or smaller", grid.FormatFileSize(s.slicer.Options().MaxFileSize)),
			requestID, map[string]interface{}{"reason": err.Error()})
	case errors.Is(err, grid.ErrInvalidImage):
		s.writeErrorResponse(w, http.StatusUnprocessableEntity, "INVALID_IMAGE",
			"The file could not be read as an image", requestID, nil)
	case errors.Is(err, grid.ErrNothingToPackage):
		s.writeErrorResponse(w, http.StatusConflict, "NOTHING_TO_PACKAGE",
			"There are no slices to download yet", requestID, nil)
	case errors.Is(err, session.ErrSuperseded):
		s.writeErrorResponse(w, http.StatusConflict, "SUPERSEDED",
			"A newer upload replaced this image", requestID, nil)
	default:
		log.Printf("Error slicing image: %v", err)
		s.writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"Internal server error", requestID, nil)
	}
}

// sessionResponse converts a session's committed result to the API model
func sessionResponse(id string, result *slicer.Result, gen uint64) api.Session {
	resp := api.Session{Id: id}
	if result == nil {
		return resp
	}

	resp.Generation = int64(gen)
	resp.Image = &api.ImageInfo{
		Filename:   result.Filename,
		MediaType:  result.MediaType,
		Size:       result.Size,
		SizeHuman:  result.HumanSize(),
		Width:      result.Width,
		Height:     result.Height,
		Dimensions: result.Dimensions(),
	}
	l := result.Layout
	resp.Layout = &api.Layout{
		CanvasSize:   l.CanvasSize,
		ScaledWidth:  l.ScaledWidth,
		ScaledHeight: l.ScaledHeight,
		OffsetX:      l.OffsetX,
		OffsetY:      l.OffsetY,
		SliceSize:    l.SliceSize,
	}
	tiles := make([]api.TileInfo, len(result.Tiles))
	for i, t := range result.Tiles {
		tiles[i] = api.TileInfo{
			Row:  t.Row + 1,
			Col:  t.Col + 1,
			Name: t.Name,
			Size: len(t.Data),
		}
	}
	resp.Tiles = &tiles
	return resp
}

// writeFile sends data as a download
func (s *Server) writeFile(w http.ResponseWriter, contentType, filename string, data []byte, requestID string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("X-Request-ID", requestID)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Printf("Error writing response: %v", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// writeErrorResponse writes a standard error response
func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string, requestID *string, details map[string]interface{}) {
	response := api.ErrorResponse{
		Error:     errorCode,
		Message:   message,
		RequestId: requestID,
	}

	if details != nil {
		response.Details = &details
	}

	s.writeJSON(w, statusCode, response)
}

// writeValidationErrorResponse writes a validation error response
func (s *Server) writeValidationErrorResponse(w http.ResponseWriter, field, message string, requestID *string) {
	response := api.ValidationErrorResponse{
		Error:     api.VALIDATIONERROR,
		Message:   message,
		RequestId: requestID,
		ValidationErrors: []struct {
			Code    *string `json:"code,omitempty"`
			Field   string  `json:"field"`
			Message string  `json:"message"`
		}{
			{
				Field:   field,
				Message: message,
			},
		},
	}

	s.writeJSON(w, http.StatusBadRequest, response)
}

// requestIDFrom reuses the ID assigned by middleware.RequestID, or generates
// one when the handler runs without it.
func requestIDFrom(r *http.Request) string {
	if id := middleware.GetReqID(r.Context()); id != "" {
		return id
	}
	return generateRequestID()
}

// generateRequestID generates a unique request ID
func generateRequestID() string {
	return fmt.Sprintf("req_%d", time.Now().UnixNano())
}
