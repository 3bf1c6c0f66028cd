package handler

import (
	"net/http"

	"github.com/antinvestor/service-slatedrop/apps/default/service/business"
	"github.com/pitabwire/util"
	"github.com/pkg/errors"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

var errorStatuses = []struct {
	err    error
	status int
	code   string
}{
	{business.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
	{business.ErrScopeViolation, http.StatusForbidden, "forbidden"},
	{business.ErrTokenExpiredOrInvalid, http.StatusForbidden, "share_link_invalid"},
	{business.ErrNotFound, http.StatusNotFound, "not_found"},
	{business.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{business.ErrConflict, http.StatusConflict, "conflict"},
	{business.ErrObjectStoreFailure, http.StatusBadGateway, "object_store_failure"},
	{business.ErrProvisioningFailed, http.StatusInternalServerError, "provisioning_failed"},
}

// errorResponse maps a business error onto its HTTP status. Unknown errors
// are logged and reported without detail.
func errorResponse(req *http.Request, err error) util.JSONResponse {
	for _, mapping := range errorStatuses {
		if errors.Is(err, mapping.err) {
			if mapping.status >= http.StatusInternalServerError {
				util.Log(req.Context()).WithError(err).Error("request failed")
			}
			return util.JSONResponse{
				Code: mapping.status,
				JSON: errorBody{Error: mapping.code, Message: err.Error()},
			}
		}
	}

	util.Log(req.Context()).WithError(err).
		WithField("path", req.URL.Path).
		Error("unhandled request failure")
	return util.JSONResponse{
		Code: http.StatusInternalServerError,
		JSON: errorBody{Error: "internal", Message: "internal server error"},
	}
}

func badRequest(message string) util.JSONResponse {
	return util.JSONResponse{
		Code: http.StatusBadRequest,
		JSON: errorBody{Error: "invalid_input", Message: message},
	}
}
