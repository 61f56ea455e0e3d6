package http

import (
	"time"

	"github.com/abrsearch/core/internal/core/domain"
)

// successResponse is the envelope every 2xx JSON response shares.
type successResponse struct {
	Status     string      `json:"status"`
	Data       any         `json:"data"`
	Pagination *paginationDTO `json:"pagination,omitempty"`
	Meta       metaDTO     `json:"meta"`
}

type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type paginationDTO struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type metaDTO struct {
	QueryTimeMs int64 `json:"queryTimeMs"`
	TotalTimeMs int64 `json:"totalTimeMs"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Uptime    string    `json:"uptime"`
	Timestamp time.Time `json:"timestamp"`
}

type ingestRequest struct {
	FilePath string `json:"filePath"`
}

type ingestResponse struct {
	Status string `json:"status"`
	Data   ingestResultDTO `json:"data"`
}

type ingestResultDTO struct {
	TotalProcessed int64 `json:"totalProcessed"`
	TotalInserted  int64 `json:"totalInserted"`
	TotalUpdated   int64 `json:"totalUpdated"`
	DurationMs     int64 `json:"durationMs"`
}

// businessDTO is the wire shape of a Business; pointer fields marshal
// as JSON null rather than being omitted, matching the teacher's
// preference for explicit nulls over omitempty on domain-shaped DTOs.
type businessDTO struct {
	ID                int64              `json:"id"`
	ABN               string             `json:"abn"`
	ABNStatus         string             `json:"abnStatus"`
	ABNStatusFrom     *time.Time         `json:"abnStatusFrom"`
	EntityTypeCode    string             `json:"entityTypeCode"`
	EntityTypeText    string             `json:"entityTypeText"`
	EntityName        string             `json:"entityName"`
	GivenName         *string            `json:"givenName"`
	FamilyName        *string            `json:"familyName"`
	State             *string            `json:"state"`
	Postcode          *string            `json:"postcode"`
	GSTStatus         *string            `json:"gstStatus"`
	GSTFromDate       *time.Time         `json:"gstFromDate"`
	ACN               *string            `json:"acn"`
	RecordLastUpdated *time.Time         `json:"recordLastUpdated"`
	BusinessNames     []businessNameDTO  `json:"businessNames,omitempty"`
}

type businessNameDTO struct {
	NameType string `json:"nameType"`
	NameText string `json:"nameText"`
}

func toBusinessDTO(b domain.Business) businessDTO {
	dto := businessDTO{
		ID: b.ID, ABN: b.ABN, ABNStatus: b.ABNStatus, ABNStatusFrom: b.ABNStatusFrom,
		EntityTypeCode: b.EntityTypeCode, EntityTypeText: b.EntityTypeText, EntityName: b.EntityName,
		GivenName: b.GivenName, FamilyName: b.FamilyName, State: b.State, Postcode: b.Postcode,
		GSTStatus: b.GSTStatus, GSTFromDate: b.GSTFromDate, ACN: b.ACN, RecordLastUpdated: b.RecordLastUpdated,
	}
	for _, n := range b.BusinessNames {
		dto.BusinessNames = append(dto.BusinessNames, businessNameDTO{NameType: n.NameType, NameText: n.NameText})
	}
	return dto
}

func toBusinessDTOs(bs []domain.Business) []businessDTO {
	out := make([]businessDTO, len(bs))
	for i, b := range bs {
		out[i] = toBusinessDTO(b)
	}
	return out
}
