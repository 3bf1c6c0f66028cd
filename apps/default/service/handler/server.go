package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/antinvestor/service-slatedrop/apps/default/config"
	"github.com/antinvestor/service-slatedrop/apps/default/service/business"
	"github.com/antinvestor/service-slatedrop/apps/default/service/namespace"
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage"
	"github.com/gorilla/mux"
	"github.com/pitabwire/util"
	"github.com/pkg/errors"
)

// maxJSONBodyBytes bounds every JSON request body.
const maxJSONBodyBytes = 1 << 20

// Server exposes the business services over HTTP.
type Server struct {
	services  *business.Services
	members   namespace.MembershipLookup
	principal PrincipalExtractor
	cfg       *config.SlateDropConfig
	blobs     http.Handler
}

func NewServer(
	services *business.Services,
	members namespace.MembershipLookup,
	principal PrincipalExtractor,
	cfg *config.SlateDropConfig,
) *Server {
	if principal == nil {
		principal = ClaimsPrincipal
	}
	return &Server{
		services:  services,
		members:   members,
		principal: principal,
		cfg:       cfg,
	}
}

// ServeSignedBlobs answers the provider's signed URLs under /v1/blobs. Only
// backends that sign URLs pointing back at this service need it.
func (s *Server) ServeSignedBlobs(provider storage.Provider, verifier storage.SignedURLVerifier) {
	maxBytes := s.cfg.MaxUploadSizeBytes
	if maxBytes <= 0 {
		maxBytes = config.DefaultMaxUploadSizeBytes
	}
	s.blobs = &blobServer{provider: provider, verifier: verifier, maxBytes: maxBytes}
}

// Router builds the route table. authenticate wraps every route that needs a
// caller; public share link, signed blob and health routes bypass it.
func (s *Server) Router(authenticate func(http.Handler) http.Handler) *mux.Router {
	if authenticate == nil {
		authenticate = func(h http.Handler) http.Handler { return h }
	}

	router := mux.NewRouter()
	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	if s.blobs != nil {
		router.Handle("/v1/blobs", s.blobs).Methods(http.MethodGet, http.MethodPut)
	}

	shared := router.PathPrefix("/v1/shared").Subrouter()
	shared.Handle("/{token}/uploads", jsonHandler(s.requestSharedUploadSlot)).Methods(http.MethodPost)
	shared.Handle("/{token}/uploads/{fileId}/complete", jsonHandler(s.completeSharedUpload)).Methods(http.MethodPost)

	authed := mux.NewRouter()
	api := authed.PathPrefix("/v1").Subrouter()
	api.Use(ScopeMiddleware(s.principal, s.members))

	api.Handle("/projects", jsonHandler(s.createProject)).Methods(http.MethodPost)
	api.Handle("/projects/{projectId}/folders", jsonHandler(s.listFolders)).Methods(http.MethodGet)
	api.Handle("/projects/{projectId}/folders", jsonHandler(s.createFolder)).Methods(http.MethodPost)
	api.Handle("/projects/{projectId}/files/recent", jsonHandler(s.recentProjectFiles)).Methods(http.MethodGet)
	api.Handle("/projects/{projectId}/artifacts", jsonHandler(s.saveArtifact)).Methods(http.MethodPost)

	api.Handle("/folders/{folderId}/files", jsonHandler(s.listFiles)).Methods(http.MethodGet)
	api.HandleFunc("/folders/{folderId}/archive", s.folderArchive).Methods(http.MethodGet)
	api.Handle("/folders/{folderId}/share-links", jsonHandler(s.createShareLink)).Methods(http.MethodPost)

	api.Handle("/uploads", jsonHandler(s.requestUploadSlot)).Methods(http.MethodPost)
	api.Handle("/uploads/{fileId}/complete", jsonHandler(s.completeUpload)).Methods(http.MethodPost)

	api.Handle("/files/{fileId}", jsonHandler(s.renameFile)).Methods(http.MethodPatch)
	api.Handle("/files/{fileId}", jsonHandler(s.deleteFile)).Methods(http.MethodDelete)
	api.Handle("/files/{fileId}/move", jsonHandler(s.moveFile)).Methods(http.MethodPost)
	api.Handle("/files/{fileId}/download", jsonHandler(s.downloadURL)).Methods(http.MethodGet)

	router.PathPrefix("/v1").Handler(authenticate(authed))
	return router
}

// jsonHandler writes the response of f as JSON.
func jsonHandler(f func(*http.Request) util.JSONResponse) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, req, f(req))
	})
}

func writeJSON(w http.ResponseWriter, req *http.Request, response util.JSONResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(response.Code)
	if response.JSON == nil {
		return
	}

	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(response.JSON); err != nil {
		util.Log(req.Context()).WithError(err).Error("failed to write JSON response")
	}
}

// decodeJSON strictly decodes a single JSON object from the request body.
func decodeJSON(req *http.Request, dst any) error {
	decoder := json.NewDecoder(io.LimitReader(req.Body, maxJSONBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return errors.Wrap(business.ErrInvalidInput, err.Error())
	}
	if decoder.More() {
		return errors.Wrap(business.ErrInvalidInput, "request body must hold a single object")
	}
	return nil
}

func scopeOf(req *http.Request) *namespace.Scope {
	return namespace.FromContext(req.Context())
}
