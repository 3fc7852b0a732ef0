package api

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"zomato-recommender/internal/common/errors"
	"zomato-recommender/internal/common/validation"
	"zomato-recommender/internal/models"
)

const maxBodyBytes = 1 << 20

type detailResponse struct {
	Detail interface{} `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeDetail(w http.ResponseWriter, status int, detail interface{}) {
	writeJSON(w, status, detailResponse{Detail: detail})
}

// requestError carries the status a decoding failure should produce.
type requestError struct {
	status int
	detail interface{}
}

// decodePreferences reads a UserPreference body. Malformed JSON and unknown
// fields are 400; type mismatches and range violations are 422.
func decodePreferences(w http.ResponseWriter, r *http.Request) (models.UserPreference, *requestError) {
	pref := models.NewUserPreference()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(&pref); err != nil {
		var typeErr *json.UnmarshalTypeError
		switch {
		case stderrors.Is(err, io.EOF):
			return pref, &requestError{status: http.StatusBadRequest, detail: "request body is required"}
		case stderrors.As(err, &typeErr):
			return pref, &requestError{
				status: http.StatusUnprocessableEntity,
				detail: []validation.ValidationError{{
					Field:   typeErr.Field,
					Message: fmt.Sprintf("must be of type %s", typeErr.Type.String()),
					Code:    "INVALID_TYPE",
				}},
			}
		case strings.HasPrefix(err.Error(), "json: unknown field"):
			return pref, &requestError{status: http.StatusBadRequest, detail: err.Error()}
		default:
			return pref, &requestError{status: http.StatusBadRequest, detail: "invalid JSON body: " + err.Error()}
		}
	}

	if result := validation.ValidateStruct(pref); !result.Valid {
		return pref, &requestError{status: http.StatusUnprocessableEntity, detail: result.Errors}
	}
	return pref, nil
}

// writeError maps pipeline errors onto HTTP statuses. Only configuration and
// store failures reach here from the degrading endpoints.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	std := errors.Normalize(err)

	status := http.StatusInternalServerError
	detail := std.Message
	switch errors.KindOf(err) {
	case errors.KindTransport, errors.KindParse, errors.KindValidation:
		status = http.StatusBadGateway
	}
	if std.Code == errors.ErrCodeInternal {
		detail = "Internal server error"
	}

	h.logger.Error("request failed", map[string]interface{}{
		"path":      r.URL.Path,
		"status":    status,
		"errorCode": string(std.Code),
		"details":   std.Details,
	})
	writeDetail(w, status, detail)
}
