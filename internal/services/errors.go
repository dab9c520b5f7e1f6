package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	domainagg "github.com/yungbote/inkforge-backend/internal/domain/aggregates"
	"github.com/yungbote/inkforge-backend/internal/modules/knowledge/gateway"
	"github.com/yungbote/inkforge-backend/internal/platform/apierr"
	"github.com/yungbote/inkforge-backend/internal/platform/ctxutil"
)

var errUnauthorized = apierr.New(http.StatusUnauthorized, "unauthorized", errors.New("authentication required"))

func requestUser(ctx context.Context) (uuid.UUID, error) {
	id := ctxutil.UserID(ctx)
	if id == uuid.Nil {
		return uuid.Nil, errUnauthorized
	}
	return id, nil
}

func storageFailure(err error) error {
	return apierr.Failure("storage_failure", "storage failure", err)
}

func gatewayFailure(err error) error {
	if errors.Is(err, gateway.ErrProviderTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return apierr.Failure("gateway_timeout", "reasoning engine timed out", err)
	}
	return apierr.Failure("gateway_unavailable", "reasoning engine unavailable", err)
}

// aggregateFailure maps aggregate error codes onto API errors.
func aggregateFailure(err error) error {
	switch domainagg.CodeOf(err) {
	case domainagg.CodeValidation:
		return apierr.New(http.StatusBadRequest, "invalid_request", err)
	case domainagg.CodeNotFound:
		return apierr.New(http.StatusNotFound, "not_found", err)
	}
	return storageFailure(err)
}
