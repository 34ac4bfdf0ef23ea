package handlers

import (
	"errors"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"stencil/internal/baas"
	"stencil/internal/filters"
	"stencil/internal/session"
)

const maxUploadBytes = int64(filters.DefaultMaxSizeMB * 1024 * 1024)

func (a *App) FilesList(w http.ResponseWriter, r *http.Request) {
	folder := r.URL.Query().Get("folder")
	a.backend(w, r, func(st *session.State) baas.Result {
		return a.Backend.Storage.List(r.Context(), st, folder)
	})
}

func (a *App) FilesUsage(w http.ResponseWriter, r *http.Request) {
	folder := r.URL.Query().Get("folder")
	a.backend(w, r, func(st *session.State) baas.Result {
		return a.Backend.Storage.Usage(r.Context(), st, folder)
	})
}

// FilesUpload stores a multipart "file". Without one, the session's current
// result is downloaded and stored instead.
func (a *App) FilesUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid multipart form")
		return
	}
	folder := r.FormValue("folder")
	filename := r.FormValue("filename")

	var data []byte
	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		data, err = io.ReadAll(file)
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "could not read file")
			return
		}
		if filename == "" {
			filename = header.Filename
		}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		var url string
		if !a.state(w, r, func(st *session.State) { url = st.EditedImage }) {
			return
		}
		if url == "" {
			a.error(w, http.StatusBadRequest, "bad_request", "No image to upload.")
			return
		}
		data, err = a.Fetcher.FetchImage(r.Context(), url)
		if err != nil {
			a.error(w, http.StatusBadGateway, "upstream", "Could not download the image.")
			return
		}
	default:
		a.error(w, http.StatusBadRequest, "bad_request", "invalid file")
		return
	}

	if err := filters.Validate(data, filters.DefaultMaxSizeMB, filters.DefaultFormats); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	a.backend(w, r, func(st *session.State) baas.Result {
		return a.Backend.Storage.Upload(r.Context(), st, data, filename, folder)
	})
}

// FilesDownload returns a stored file. ?thumbnail=1 scales it down to the
// default thumbnail size.
func (a *App) FilesDownload(w http.ResponseWriter, r *http.Request) {
	filePath := chi.URLParam(r, "*")
	var res baas.Result
	if !a.state(w, r, func(st *session.State) { res = a.Backend.Storage.Download(r.Context(), st, filePath) }) {
		return
	}
	if !res.Success {
		a.result(w, res)
		return
	}
	data := res.Data
	contentType := http.DetectContentType(data)
	if r.URL.Query().Get("thumbnail") != "" {
		thumb, err := filters.Thumbnail(data, filters.DefaultThumbnailSize, filters.DefaultThumbnailSize)
		if err != nil {
			a.error(w, http.StatusUnprocessableEntity, "bad_image", err.Error())
			return
		}
		data, contentType = thumb, "image/png"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+strings.ReplaceAll(path.Base(filePath), `"`, ""))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (a *App) FilesDelete(w http.ResponseWriter, r *http.Request) {
	filePath := chi.URLParam(r, "*")
	a.backend(w, r, func(st *session.State) baas.Result {
		return a.Backend.Storage.Delete(r.Context(), st, filePath)
	})
}
