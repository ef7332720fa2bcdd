package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"carrental/internal/domain"
	"carrental/internal/models"

	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

var validate = validator.New()

type signUpRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password"`
}

type checkoutRequest struct {
	CarID      *int64 `json:"carId" validate:"required,min=0"`
	From       string `json:"from" validate:"required"`
	To         string `json:"to" validate:"required"`
	CardNumber string `json:"cardNumber" validate:"required"`
	PlaceID    string `json:"placeId"`
}

// adminUpdateRequest mirrors the admin edit form. Penalty may be sent as a
// number or as the raw text of the form field.
type adminUpdateRequest struct {
	Status  *models.BookingStatus `json:"status" validate:"omitempty,oneof=reserved collected returned inspected cancelled refunded"`
	Penalty json.RawMessage       `json:"penalty"`
	Comment *string               `json:"comment"`
}

func (r adminUpdateRequest) toUpdate() models.AdminUpdate {
	return models.AdminUpdate{
		Status:  r.Status,
		Penalty: penaltyText(r.Penalty),
		Comment: r.Comment,
	}
}

func penaltyText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// decodeBody reads a JSON body into dst and validates it. Failures are
// reported as domain.ErrInvalidInput.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", domain.ErrInvalidInput, err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, validationMessage(err))
	}
	return nil
}

func validationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return strings.Join(fields, "; ")
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("%w: id %q", domain.ErrInvalidInput, r.PathValue("id"))
	}
	return id, nil
}

// bookingFilter reads carId, userId and status; missing values match all.
func bookingFilter(r *http.Request) (models.BookingFilter, error) {
	q := r.URL.Query()
	filter := models.BookingFilter{CarID: models.AnyCar, AccountID: strings.TrimSpace(q.Get("userId"))}

	if raw := strings.TrimSpace(q.Get("carId")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, fmt.Errorf("%w: carId %q", domain.ErrInvalidInput, raw)
		}
		filter.CarID = id
	}
	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		status := models.BookingStatus(raw)
		if !status.Valid() {
			return filter, fmt.Errorf("%w: status %q", domain.ErrInvalidInput, raw)
		}
		filter.Status = status
	}
	return filter, nil
}
