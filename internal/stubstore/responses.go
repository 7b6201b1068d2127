package stubstore

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	pkgerrors "github.com/jchen-labs/shopfront/pkg/errors"
	"github.com/jchen-labs/shopfront/pkg/logger"
	"github.com/jchen-labs/shopfront/pkg/storeapi"
)

func writeJSON(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil && logg != nil {
		logg.Error(ctx, "failed to encode response", err)
	}
}

func writeAck(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, message string) {
	writeJSON(ctx, logg, w, http.StatusOK, storeapi.Ack{Success: true, Message: message})
}

// writeError renders the failure as the wire-level acknowledgement the
// storefront clients parse: {success:false, message} with the message
// passed through verbatim.
func writeError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}

	meta := pkgerrors.MetadataFor(typed.Code())
	msg := meta.PublicMessage
	if typed.Code() != pkgerrors.CodeInternal {
		if m := typed.Message(); m != "" {
			msg = m
		}
	}

	if logg != nil {
		ctx = logg.WithField(ctx, "error_code", string(typed.Code()))
		logg.Warn(ctx, "request failed: "+typed.Message())
	}

	writeJSON(ctx, logg, w, meta.HTTPStatus, storeapi.Ack{Success: false, Message: msg})
}
