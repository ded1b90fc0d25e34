package shared

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/padala-next/internal/http/response"
	"github.com/padala-next/internal/service"
)

func TestMapServiceError(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{err: nil, code: response.CodeOK},
		{err: service.ErrOrderNotFound, code: response.CodeNotFound},
		{err: fmt.Errorf("assign: %w", service.ErrNoDriversAvailable), code: response.CodeConflict},
		{err: fmt.Errorf("settle: %w", service.ErrGatewayFailure), code: response.CodeServiceUnavailable},
		{err: context.DeadlineExceeded, code: response.CodeServiceUnavailable},
		{err: service.ErrLocationInvalid, code: response.CodeBadRequest},
		{err: errors.New("disk full"), code: response.CodeInternal},
	}
	for _, tc := range cases {
		code, msg := MapServiceError(tc.err)
		if code != tc.code {
			t.Fatalf("error %v want code %d got %d", tc.err, tc.code, code)
		}
		if msg == "" {
			t.Fatalf("error %v should carry a message", tc.err)
		}
	}
}
