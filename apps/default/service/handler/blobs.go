package handler

import (
	"io"
	"net/http"

	"github.com/antinvestor/service-slatedrop/apps/default/service/storage"
	"github.com/pitabwire/util"
	"github.com/pkg/errors"
)

// blobServer answers the signed URLs of backends that have no endpoint of
// their own. The signature is the only credential, as with a presigned S3 URL.
type blobServer struct {
	provider storage.Provider
	verifier storage.SignedURLVerifier
	maxBytes int64
}

func signatureRejected(message string) util.JSONResponse {
	return util.JSONResponse{
		Code: http.StatusForbidden,
		JSON: errorBody{Error: "signature_invalid", Message: message},
	}
}

func (bs *blobServer) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	key, err := bs.verifier.KeyFromURL(ctx, req.URL)
	if err != nil {
		writeJSON(w, req, signatureRejected(err.Error()))
		return
	}

	query := req.URL.Query()
	if query.Get("method") != req.Method {
		writeJSON(w, req, signatureRejected("url is not signed for "+req.Method))
		return
	}

	switch req.Method {
	case http.MethodPut:
		bs.put(w, req, key, query.Get("contentType"))
	default:
		bs.get(w, req, key)
	}
}

func (bs *blobServer) put(w http.ResponseWriter, req *http.Request, key, signedType string) {
	contentType := req.Header.Get("Content-Type")
	if signedType != "" && contentType != signedType {
		writeJSON(w, req, signatureRejected("content type does not match the signed url"))
		return
	}

	body := http.MaxBytesReader(w, req.Body, bs.maxBytes)
	err := bs.provider.Write(req.Context(), key, body, contentType)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, req, util.JSONResponse{
				Code: http.StatusRequestEntityTooLarge,
				JSON: errorBody{Error: "too_large", Message: "upload exceeds the size limit"},
			})
			return
		}
		util.Log(req.Context()).WithError(err).WithField("object_key", key).Error("signed upload failed")
		writeJSON(w, req, util.JSONResponse{
			Code: http.StatusBadGateway,
			JSON: errorBody{Error: "object_store_failure", Message: "could not store object"},
		})
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (bs *blobServer) get(w http.ResponseWriter, req *http.Request, key string) {
	reader, err := bs.provider.Open(req.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			writeJSON(w, req, util.JSONResponse{
				Code: http.StatusNotFound,
				JSON: errorBody{Error: "not_found", Message: "object not found"},
			})
			return
		}
		util.Log(req.Context()).WithError(err).WithField("object_key", key).Error("signed download failed")
		writeJSON(w, req, util.JSONResponse{
			Code: http.StatusBadGateway,
			JSON: errorBody{Error: "object_store_failure", Message: "could not read object"},
		})
		return
	}
	defer util.CloseAndLogOnError(req.Context(), reader)

	contentType := "application/octet-stream"
	if typed, ok := reader.(interface{ ContentType() string }); ok && typed.ContentType() != "" {
		contentType = typed.ContentType()
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)

	_, err = io.Copy(w, reader)
	if err != nil {
		util.Log(req.Context()).WithError(err).WithField("object_key", key).Warn("signed download interrupted")
	}
}
