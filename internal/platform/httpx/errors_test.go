package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/venuedesk/venuedesk/internal/shared"
)

func TestRespondErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		title  string
	}{
		{shared.ErrUnauthorized, 403, "Permission Denied"},
		{shared.ErrNotFound, 404, "Not Found"},
		{shared.ErrImmutableRole, 409, "System Role"},
		{shared.ErrInvalidAssignment, 422, "Invalid Assignment"},
		{shared.ErrSelfDemotion, 409, "Self Demotion"},
		{shared.ErrIneligibleClass, 422, "Ineligible Profile"},
		{shared.ErrValidation, 400, "Validation Failed"},
		{errors.New("connection reset"), 500, "Internal Error"},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		RespondError(rec, tc.err)
		require.Equal(t, tc.status, rec.Code)
		require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var problem ProblemDetail
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
		require.Equal(t, tc.title, problem.Title)
		require.Equal(t, tc.status, problem.Status)
	}
}

func TestRespondErrorUnwrapsWrappedErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, fmt.Errorf("load role: %w", shared.ErrNotFound))
	require.Equal(t, 404, rec.Code)
}

func TestInternalErrorHidesDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, errors.New("dial tcp 10.0.0.4:5432: connect refused"))

	var problem ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	require.Empty(t, problem.Detail)
}
