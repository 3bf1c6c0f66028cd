package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/antinvestor/service-slatedrop/apps/default/service/business"
	"github.com/antinvestor/service-slatedrop/apps/default/service/types"
	"github.com/gorilla/mux"
	"github.com/pitabwire/util"
)

func (s *Server) listFiles(req *http.Request) util.JSONResponse {
	query := req.URL.Query()

	limit, err := intParam(req, "limit")
	if err != nil {
		return badRequest("limit must be a number")
	}
	offset, err := intParam(req, "offset")
	if err != nil {
		return badRequest("offset must be a number")
	}

	opts := &business.ListOptions{
		Viewer:         query.Get("viewer"),
		OrderBy:        types.ParseOrderBy(query.Get("order")),
		IncludePending: query.Get("include_pending") == "true",
		Limit:          limit,
		Offset:         offset,
	}

	files, err := s.services.Files.ListFiles(req.Context(), scopeOf(req), mux.Vars(req)["folderId"], opts)
	if err != nil {
		return errorResponse(req, err)
	}
	return util.JSONResponse{Code: http.StatusOK, JSON: map[string]any{"files": toFiles(files)}}
}

func (s *Server) renameFile(req *http.Request) util.JSONResponse {
	body := nameRequest{}
	if err := decodeJSON(req, &body); err != nil {
		return errorResponse(req, err)
	}

	upload, err := s.services.Files.Rename(req.Context(), scopeOf(req), mux.Vars(req)["fileId"], body.Name)
	if err != nil {
		return errorResponse(req, err)
	}
	return util.JSONResponse{Code: http.StatusOK, JSON: toFile(upload)}
}

type moveRequest struct {
	FolderID string `json:"folder_id"`
}

func (s *Server) moveFile(req *http.Request) util.JSONResponse {
	body := moveRequest{}
	if err := decodeJSON(req, &body); err != nil {
		return errorResponse(req, err)
	}

	upload, err := s.services.Files.Move(req.Context(), scopeOf(req), mux.Vars(req)["fileId"], body.FolderID)
	if err != nil {
		return errorResponse(req, err)
	}
	return util.JSONResponse{Code: http.StatusOK, JSON: toFile(upload)}
}

func (s *Server) deleteFile(req *http.Request) util.JSONResponse {
	err := s.services.Files.Delete(req.Context(), scopeOf(req), mux.Vars(req)["fileId"])
	if err != nil {
		return errorResponse(req, err)
	}
	return util.JSONResponse{Code: http.StatusNoContent}
}

func (s *Server) downloadURL(req *http.Request) util.JSONResponse {
	result, err := s.services.Files.DownloadURL(req.Context(), scopeOf(req), mux.Vars(req)["fileId"])
	if err != nil {
		return errorResponse(req, err)
	}
	return util.JSONResponse{
		Code: http.StatusOK,
		JSON: downloadResponse{
			File:      toFile(result.Upload),
			URL:       result.URL,
			ExpiresAt: result.ExpiresAt,
		},
	}
}

// folderArchive streams the folder as a zip attachment. Files that could not
// be fetched are left out and counted in X-Archive-Skipped.
func (s *Server) folderArchive(w http.ResponseWriter, req *http.Request) {
	archive, err := s.services.Archives.PrepareFolderArchive(req.Context(), scopeOf(req), mux.Vars(req)["folderId"])
	if err != nil {
		writeJSON(w, req, errorResponse(req, err))
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", archive.Filename()))
	w.Header().Set("X-Archive-Skipped", strconv.Itoa(archive.Skipped))
	w.WriteHeader(http.StatusOK)

	err = archive.Write(w)
	if err != nil {
		util.Log(req.Context()).WithError(err).Error("archive stream interrupted")
	}
}
