package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/antinvestor/service-slatedrop/apps/default/config"
	"github.com/antinvestor/service-slatedrop/apps/default/service/business"
	"github.com/antinvestor/service-slatedrop/apps/default/service/types"
	"github.com/gorilla/mux"
	"github.com/pitabwire/util"
)

type nameRequest struct {
	Name string `json:"name"`
}

func (s *Server) createProject(req *http.Request) util.JSONResponse {
	body := nameRequest{}
	if err := decodeJSON(req, &body); err != nil {
		return errorResponse(req, err)
	}

	result, err := s.services.Projects.CreateProject(req.Context(), scopeOf(req), body.Name)
	if err != nil {
		return errorResponse(req, err)
	}

	return util.JSONResponse{
		Code: http.StatusCreated,
		JSON: map[string]any{
			"project": toProject(result.Project),
			"folders": toFolders(result.Folders),
		},
	}
}

func (s *Server) listFolders(req *http.Request) util.JSONResponse {
	folders, err := s.services.Projects.ListFolders(req.Context(), scopeOf(req), mux.Vars(req)["projectId"])
	if err != nil {
		return errorResponse(req, err)
	}
	return util.JSONResponse{Code: http.StatusOK, JSON: map[string]any{"folders": toFolders(folders)}}
}

func (s *Server) createFolder(req *http.Request) util.JSONResponse {
	body := nameRequest{}
	if err := decodeJSON(req, &body); err != nil {
		return errorResponse(req, err)
	}

	folder, err := s.services.Projects.CreateFolder(req.Context(), scopeOf(req), mux.Vars(req)["projectId"], body.Name)
	if err != nil {
		return errorResponse(req, err)
	}
	return util.JSONResponse{Code: http.StatusCreated, JSON: toFolder(folder)}
}

func (s *Server) recentProjectFiles(req *http.Request) util.JSONResponse {
	limit, err := intParam(req, "limit")
	if err != nil {
		return badRequest("limit must be a number")
	}

	files, err := s.services.Files.RecentProjectFiles(req.Context(), scopeOf(req), mux.Vars(req)["projectId"], limit)
	if err != nil {
		return errorResponse(req, err)
	}
	return util.JSONResponse{Code: http.StatusOK, JSON: map[string]any{"files": toFiles(files)}}
}

// saveArtifact accepts a multipart form with a "kind" field and a "file" part.
func (s *Server) saveArtifact(req *http.Request) util.JSONResponse {
	maxBytes := s.cfg.MaxArtifactSizeBytes
	if maxBytes <= 0 {
		maxBytes = config.DefaultMaxArtifactSizeBytes
	}
	req.Body = http.MaxBytesReader(nil, req.Body, maxBytes+maxJSONBodyBytes)

	err := req.ParseMultipartForm(maxJSONBodyBytes)
	if err != nil {
		return badRequest("expected a multipart form within the artifact size limit")
	}
	defer func() {
		_ = req.MultipartForm.RemoveAll()
	}()

	file, header, err := req.FormFile("file")
	if err != nil {
		return badRequest("missing file part")
	}
	defer util.CloseAndLogOnError(req.Context(), file)

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return badRequest("could not read file part")
	}

	filename := req.FormValue("filename")
	if filename == "" {
		filename = header.Filename
	}

	result, err := s.services.Artifacts.SaveArtifact(req.Context(), scopeOf(req), &business.ArtifactRequest{
		ProjectID:   mux.Vars(req)["projectId"],
		Kind:        types.ArtifactKind(req.FormValue("kind")),
		Filename:    filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		return errorResponse(req, err)
	}

	return util.JSONResponse{
		Code: http.StatusCreated,
		JSON: map[string]any{
			"file":   toFile(result.Upload),
			"folder": result.FolderName,
			"key":    result.Key,
		},
	}
}

func intParam(req *http.Request, name string) (int, error) {
	value := req.URL.Query().Get(name)
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}
