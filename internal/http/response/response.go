// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков. Пакет упрощает возврат
// успешных ответов, ошибок и сообщений валидации в едином формате.
package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/pos-store/internal/authz"
	"github.com/magabrotheeeer/pos-store/internal/models"
	"github.com/magabrotheeeer/pos-store/internal/storage"
)

// Response описывает стандартную структуру JSON‑ответа сервера.
// Поле Status: статус запроса ("OK" или "Error").
// Поле Error: текст ошибки (опционально, при неуспехе).
// Поле Data: данные ответа (опционально, при успехе).
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// ErrorResponse: структура ошибки для Swagger-документации.
// Используется в аннотациях @Failure как возвращаемый тип ошибки.
type ErrorResponse struct {
	Status string `json:"status" example:"Error"`
	Error  string `json:"error" example:"invalid request body"`
}

const (
	// StatusOK: значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError: значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

// Тексты ответов, общие для всех обработчиков.
const (
	MsgNotFound             = "not found"
	MsgSubscriptionInactive = "subscription inactive or expired"
	MsgInternal             = "internal server error"
	MsgInvalidBody          = "invalid request body"
	MsgUnauthorized         = "unauthorized"
)

// StatusOKWithData возвращает успешный Response с переданными данными.
func StatusOKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// OK возвращает успешный Response без данных.
func OK() Response {
	return Response{Status: StatusOK}
}

// Error возвращает Response с ошибкой и переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  msg,
	}
}

// ValidationError формирует Response со статусом Error на основе ошибок валидации.
// Каждое нарушение формируется в человеко‑читаемый текст, объединённый через запятую.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email", err.Field()))
		case "min", "gt":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is too small", err.Field()))
		case "max":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is too long", err.Field()))
		case "hexcolor":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a hex color", err.Field()))
		case "oneof":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be one of: %s", err.Field(), err.Param()))
		case "uuid":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s can contain only uuid", err.Field()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return Response{
		Status: StatusError,
		Error:  strings.Join(errsMsgs, ", "),
	}
}

// Classify сопоставляет ошибку сервиса HTTP-статусу и тексту ответа.
// Отказ политики и отсутствие строки неразличимы для клиента.
func Classify(err error) (int, string) {
	var cErr *storage.ConstraintError
	switch {
	case errors.Is(err, authz.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, MsgNotFound
	case errors.Is(err, authz.ErrSubscriptionInactive), errors.Is(err, storage.ErrSubscriptionInactive):
		return http.StatusPaymentRequired, MsgSubscriptionInactive
	case errors.As(err, &cErr):
		if cErr.Constraint != "" {
			return http.StatusConflict, "constraint violated: " + cErr.Constraint
		}
		return http.StatusConflict, "constraint violated"
	case errors.Is(err, models.ErrInvalidAmount):
		return http.StatusUnprocessableEntity, models.ErrInvalidAmount.Error()
	case errors.Is(err, models.ErrInvalidPaymentMethod):
		return http.StatusUnprocessableEntity, models.ErrInvalidPaymentMethod.Error()
	default:
		return http.StatusInternalServerError, MsgInternal
	}
}

// ServiceError пишет ответ для ошибки сервиса и возвращает выбранный статус.
func ServiceError(w http.ResponseWriter, r *http.Request, err error) int {
	status, msg := Classify(err)
	render.Status(r, status)
	render.JSON(w, r, Error(msg))
	return status
}

// Invalid пишет ответ 422 для ошибки валидации тела запроса.
func Invalid(w http.ResponseWriter, r *http.Request, err error) {
	render.Status(r, http.StatusUnprocessableEntity)
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		render.JSON(w, r, ValidationError(vErrs))
		return
	}
	render.JSON(w, r, Error(err.Error()))
}
