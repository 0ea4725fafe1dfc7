package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/analisavet/hemogram-server/internal/domain"
	"github.com/analisavet/hemogram-server/internal/ingest"
	"github.com/analisavet/hemogram-server/internal/logging"
)

// Response is the envelope of every API answer
type Response struct {
	Success bool             `json:"success"`
	Data    interface{}      `json:"data,omitempty"`
	Note    string           `json:"note,omitempty"`
	Error   *domain.APIError `json:"error,omitempty"`
}

// ClassifyRequest grades already extracted measurements
type ClassifyRequest struct {
	Measurements *domain.Measurements `json:"measurements" binding:"required"`
	Species      string               `json:"species"`
}

// ExtractTextRequest carries the text of a report
type ExtractTextRequest struct {
	Text string `json:"text" binding:"required"`
}

// ExtractRowsRequest carries labeled values, e.g. the cells of a spreadsheet
type ExtractRowsRequest struct {
	Rows []domain.Row `json:"rows" binding:"required"`
}

// UploadResult is the extraction of an uploaded file
type UploadResult struct {
	Arquivo  string                   `json:"arquivo"`
	Formato  ingest.Format            `json:"formato"`
	Paginas  int                      `json:"paginas,omitempty"`
	Valores  *domain.Measurements     `json:"valores"`
	Paciente domain.PatientAttributes `json:"paciente"`
}

func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	overall := "healthy"
	var reference map[string]string
	if s.health != nil {
		reference = s.health.Health(ctx)
		if reference["status"] != "ok" {
			status = http.StatusServiceUnavailable
			overall = "degraded"
		}
	}

	c.JSON(status, gin.H{
		"status":    overall,
		"timestamp": time.Now().UTC(),
		"version":   s.configManager.GetConfig().MCP.ServerVersion,
		"reference": reference,
	})
}

func (s *Server) handleReferenceValues(c *gin.Context) {
	species := c.Query("especie")
	if strings.TrimSpace(species) == "" {
		s.handleError(c, domain.NewValidationError(domain.AttrEspecie, "Espécie é obrigatória.", species))
		return
	}

	res, err := s.service.ReferenceValues(c.Request.Context(), species)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    res.Table.Formatted(),
		Note:    res.Note,
	})
}

func (s *Server) handleAnalyze(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.configManager.GetServerConfig().MaxUploadBytes)

	rows, err := decodeHemogramObject(c.Request.Body)
	if err != nil {
		s.handleError(c, err)
		return
	}

	ext := s.service.ExtractRows(rows)
	analysis, err := s.service.Analyze(c.Request.Context(), ext, "")
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    analysis,
		Note:    analysis.Classificacao.Note,
	})
}

func (s *Server) handleClassify(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.handleError(c, domain.NewValidationError("body", err.Error(), nil))
		return
	}
	if req.Measurements.Len() == 0 {
		s.handleError(c, domain.NewValidationError("measurements", "at least one measurement is required", nil))
		return
	}

	result, err := s.service.Classify(c.Request.Context(), req.Measurements, req.Species)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result, Note: result.Note})
}

func (s *Server) handleUpload(c *gin.Context) {
	maxBytes := s.configManager.GetServerConfig().MaxUploadBytes
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+1<<20)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.handleError(c, err)
			return
		}
		s.handleError(c, domain.NewValidationError("file", "Nenhum arquivo enviado.", nil))
		return
	}
	if header.Filename == "" {
		s.handleError(c, domain.NewValidationError("file", "Nenhum arquivo selecionado.", nil))
		return
	}

	file, err := header.Open()
	if err != nil {
		s.handleError(c, err)
		return
	}
	defer file.Close()

	doc, err := ingest.Read(header.Filename, file, maxBytes)
	if err != nil {
		s.handleError(c, err)
		return
	}

	ext := s.service.ExtractDocument(doc)
	if ext.Measurements.Len() == 0 {
		s.handleError(c, domain.ErrEmptyDocument)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: UploadResult{
			Arquivo:  doc.Name,
			Formato:  doc.Format,
			Paginas:  doc.Pages,
			Valores:  ext.Measurements,
			Paciente: ext.Patient,
		},
	})
}

func (s *Server) handleExtractText(c *gin.Context) {
	var req ExtractTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.handleError(c, domain.NewValidationError("text", err.Error(), nil))
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: s.service.ExtractText(req.Text)})
}

func (s *Server) handleExtractRows(c *gin.Context) {
	var req ExtractRowsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.handleError(c, domain.NewValidationError("rows", err.Error(), nil))
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: s.service.ExtractRows(req.Rows)})
}

// handleError maps domain errors to HTTP status codes
func (s *Server) handleError(c *gin.Context, err error) {
	requestID := c.GetString(logging.CorrelationField)
	status, apiErr := toAPIError(err, requestID)

	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, Response{Success: false, Error: apiErr})
}

func toAPIError(err error, requestID string) (int, *domain.APIError) {
	var (
		validationErr *domain.ValidationError
		maxBytesErr   *http.MaxBytesError
	)

	switch {
	case errors.As(err, &validationErr):
		code := domain.ErrCodeValidation
		if v, ok := validationErr.Value.(string); ok && validationErr.Field == domain.AttrEspecie && strings.TrimSpace(v) != "" {
			code = domain.ErrCodeUnknownSpecies
		}
		return http.StatusBadRequest, domain.NewAPIError(code, validationErr.Message, validationErr.Field, requestID)
	case errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge, domain.NewAPIError(domain.ErrCodeInvalidInput, "Request body too large", "", requestID)
	case errors.Is(err, domain.ErrUnsupportedFormat):
		return http.StatusBadRequest, domain.NewAPIError(domain.ErrCodeUnsupportedFormat, "Formato de arquivo não permitido. Use PDF, CSV ou TXT.", err.Error(), requestID)
	case errors.Is(err, domain.ErrEmptyDocument):
		return http.StatusBadRequest, domain.NewAPIError(domain.ErrCodeExtraction, "Não foi possível extrair dados do arquivo.", err.Error(), requestID)
	case errors.Is(err, domain.ErrReferenceUnavailable):
		return http.StatusInternalServerError, domain.NewAPIError(domain.ErrCodeReference, "Reference ranges unavailable", "", requestID)
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, domain.NewAPIError(domain.ErrCodeInternalServer, "Request timeout", "", requestID)
	default:
		return http.StatusInternalServerError, domain.NewAPIError(domain.ErrCodeInternalServer, "Internal server error", "", requestID)
	}
}
