package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWriteMapsKinds(t *testing.T) {
	errMissing := New(NotFound, "shift not found")

	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"not_found", errMissing, http.StatusNotFound, "shift not found"},
		{"wrapped", fmt.Errorf("%w: id 7", errMissing), http.StatusNotFound, "shift not found: id 7"},
		{"invalid", fmt.Errorf("%w: from after to", ErrInvalidArgument), http.StatusBadRequest, "invalid argument: from after to"},
		{"conflict", New(Conflict, "already signed"), http.StatusConflict, "already signed"},
		{"forbidden", ErrForbidden, http.StatusForbidden, "forbidden"},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError, "internal error"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				return Write(c, zap.NewNop().Sugar(), tt.err)
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, tt.status, resp.StatusCode)

			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			require.Equal(t, tt.message, body["message"])
		})
	}
}

func TestKindOf(t *testing.T) {
	require.Equal(t, Forbidden, KindOf(fmt.Errorf("ctx: %w", ErrForbidden)))
	require.Equal(t, Internal, KindOf(errors.New("boom")))
}
