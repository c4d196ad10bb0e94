package transport

import (
	"errors"
	"net/http"

	"storefront/internal/catalog"
	"storefront/internal/domain"
	"storefront/internal/guided"
	"storefront/internal/middleware"
	"storefront/internal/session"

	"go.uber.org/zap"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

// errorMappings is checked in order with errors.Is
var errorMappings = []errorMapping{
	{session.ErrSessionNotFound, http.StatusUnauthorized, "SESSION_NOT_FOUND"},
	{catalog.ErrProductNotFound, http.StatusNotFound, "PRODUCT_NOT_FOUND"},
	{guided.ErrProductNotRecommended, http.StatusNotFound, "PRODUCT_NOT_RECOMMENDED"},
	{guided.ErrInvalidTransition, http.StatusConflict, "INVALID_TRANSITION"},
	{guided.ErrNoQuizContext, http.StatusConflict, "NO_QUIZ_CONTEXT"},
	{domain.ErrDuplicateAnswer, http.StatusConflict, "ANSWER_ALREADY_RECORDED"},
	{guided.ErrUnexpectedQuestion, http.StatusUnprocessableEntity, "UNEXPECTED_QUESTION"},
	{guided.ErrUnknownOption, http.StatusUnprocessableEntity, "UNKNOWN_OPTION"},
	{session.ErrInvalidCategory, http.StatusBadRequest, "INVALID_CATEGORY"},
	{session.ErrInvalidRating, http.StatusBadRequest, "INVALID_RATING"},
	{catalog.ErrInvalidSortKey, http.StatusBadRequest, "INVALID_SORT"},
	{catalog.ErrInvalidPageSize, http.StatusBadRequest, "INVALID_PAGE_SIZE"},
	{domain.ErrFetch, http.StatusBadGateway, "CATALOG_UNAVAILABLE"},
}

// respondWithDomainError maps a storefront error to its status and code. Unknown
// errors are logged and hidden behind a 500.
func respondWithDomainError(w http.ResponseWriter, logger *zap.Logger, err error, message string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			logger.Debug(message, zap.Error(err))
			middleware.RespondWithErrorCode(w, m.status, m.code, err.Error())
			return
		}
	}

	logger.Error(message, zap.Error(err))
	middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
}

// respondWithDecodeError reports a body that failed to decode or validate
func respondWithDecodeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	logger.Debug("Request validation failed", zap.Error(err))

	if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
		middleware.RespondWithValidationErrors(w, validationErrors)
		return
	}
	middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
}
