package transport

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/guided"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRespondWithDomainError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"wrapped transition", fmt.Errorf("%w: answer in results", guided.ErrInvalidTransition), http.StatusConflict, "INVALID_TRANSITION"},
		{"repeated answer", domain.ErrDuplicateAnswer, http.StatusConflict, "ANSWER_ALREADY_RECORDED"},
		{"unknown option", guided.ErrUnknownOption, http.StatusUnprocessableEntity, "UNKNOWN_OPTION"},
		{"catalog fetch", domain.NewProviderError("test", domain.ErrFetch, errors.New("down")), http.StatusBadGateway, "CATALOG_UNAVAILABLE"},
		{"unmapped", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			respondWithDomainError(w, zap.NewNop(), tt.err, "Request failed")

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}
