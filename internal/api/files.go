package api

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/nhle/taskapp/internal/model"
)

// maxUploadMemory bounds the part of a multipart upload held in memory;
// the rest spills to temporary files.
const maxUploadMemory = 32 << 20

func fileTaskRef(r *http.Request) model.TaskRef {
	return model.TaskRef{ID: r.PathValue("task"), Owner: r.URL.Query().Get("owner")}
}

func (s *Server) handleFileUpload(w http.ResponseWriter, r *http.Request, caller model.User) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	part, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing form file \"file\"")
		return
	}
	defer part.Close()

	file, err := s.files.Upload(r.Context(), fileTaskRef(r), header.Filename,
		header.Header.Get("Content-Type"), part, caller)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, file)
}

func (s *Server) handleFileList(w http.ResponseWriter, r *http.Request, caller model.User) {
	list, err := s.files.List(r.Context(), fileTaskRef(r), caller)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if list == nil {
		list = []model.FileData{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleFileDownload(w http.ResponseWriter, r *http.Request, caller model.User) {
	file, data, err := s.files.Download(r.Context(), fileTaskRef(r), r.PathValue("file"), caller)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": file.Name}))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Warn("download interrupted", "file", file.ID, "error", err)
	}
}
