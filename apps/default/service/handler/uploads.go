package handler

import (
	"net/http"
	"time"

	"github.com/antinvestor/service-slatedrop/apps/default/service/business"
	"github.com/gorilla/mux"
	"github.com/pitabwire/util"
)

type slotRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	FolderID    string `json:"folder_id"`
}

func (sr slotRequest) toBusiness() *business.SlotRequest {
	return &business.SlotRequest{
		Filename:    sr.Filename,
		ContentType: sr.ContentType,
		Size:        sr.Size,
		FolderID:    sr.FolderID,
	}
}

func slotCreated(slot *business.SlotResult) util.JSONResponse {
	return util.JSONResponse{
		Code: http.StatusCreated,
		JSON: slotResponse{
			FileID:    slot.FileID,
			Key:       slot.Key,
			PutURL:    slot.PutURL,
			ExpiresAt: slot.ExpiresAt,
		},
	}
}

func (s *Server) requestUploadSlot(req *http.Request) util.JSONResponse {
	body := slotRequest{}
	if err := decodeJSON(req, &body); err != nil {
		return errorResponse(req, err)
	}

	slot, err := s.services.Uploads.RequestUploadSlot(req.Context(), scopeOf(req), body.toBusiness())
	if err != nil {
		return errorResponse(req, err)
	}
	return slotCreated(slot)
}

func (s *Server) completeUpload(req *http.Request) util.JSONResponse {
	upload, err := s.services.Uploads.CompleteUpload(req.Context(), scopeOf(req), mux.Vars(req)["fileId"])
	if err != nil {
		return errorResponse(req, err)
	}
	return util.JSONResponse{Code: http.StatusOK, JSON: toFile(upload)}
}

type shareLinkRequest struct {
	TTLSeconds int64 `json:"ttl_seconds"`
}

func (s *Server) createShareLink(req *http.Request) util.JSONResponse {
	body := shareLinkRequest{}
	if req.ContentLength != 0 {
		if err := decodeJSON(req, &body); err != nil {
			return errorResponse(req, err)
		}
	}
	if body.TTLSeconds < 0 {
		return badRequest("ttl_seconds may not be negative")
	}

	ttl := time.Duration(body.TTLSeconds) * time.Second
	link, err := s.services.Uploads.CreateShareLink(req.Context(), scopeOf(req), mux.Vars(req)["folderId"], ttl)
	if err != nil {
		return errorResponse(req, err)
	}

	return util.JSONResponse{
		Code: http.StatusCreated,
		JSON: shareLinkResponse{
			Token:     link.Token,
			FolderID:  link.FolderID,
			ExpiresAt: link.ExpiresAt,
		},
	}
}

func (s *Server) requestSharedUploadSlot(req *http.Request) util.JSONResponse {
	body := slotRequest{}
	if err := decodeJSON(req, &body); err != nil {
		return errorResponse(req, err)
	}

	slot, err := s.services.Uploads.RequestSharedUploadSlot(req.Context(), mux.Vars(req)["token"], body.toBusiness())
	if err != nil {
		return errorResponse(req, err)
	}
	return slotCreated(slot)
}

func (s *Server) completeSharedUpload(req *http.Request) util.JSONResponse {
	vars := mux.Vars(req)
	upload, err := s.services.Uploads.CompleteSharedUpload(req.Context(), vars["token"], vars["fileId"])
	if err != nil {
		return errorResponse(req, err)
	}
	return util.JSONResponse{Code: http.StatusOK, JSON: toFile(upload)}
}
