package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	gwerrors "github.com/pribylovaa/go-event-manager/internal/errors"
	"github.com/pribylovaa/go-event-manager/internal/upstream"
)

// uploadResponse — ответ шлюза на загрузку: идентификаторы в порядке
// частей исходной формы.
type uploadResponse struct {
	ID []string `json:"id"`
}

// fileUploaded — ответ внутреннего API на одну загрузку.
type fileUploaded struct {
	ID string `json:"id"`
}

// UploadFiles — POST /api/files. Форма может нести несколько файлов;
// каждый уходит на внутренний API отдельным запросом, клиенту
// возвращается массив выданных идентификаторов.
func (h *Handlers) UploadFiles(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.UploadFiles"

	mr, err := r.MultipartReader()
	if err != nil {
		gwerrors.WriteError(w, r, errInvalidArgument("multipart form is required"))
		return
	}

	var ids []string

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			gwerrors.WriteError(w, r, errInvalidArgument("broken multipart form"))
			return
		}

		// Не-файловые поля формы пропускаем.
		if part.FileName() == "" {
			_ = part.Close()
			continue
		}

		id, err := h.uploadOne(r, part)
		_ = part.Close()
		if err != nil {
			gwerrors.WriteError(w, r, fmt.Errorf("%s: %w", op, err))
			return
		}

		ids = append(ids, id)
	}

	if len(ids) == 0 {
		gwerrors.WriteError(w, r, errInvalidArgument("no files in form"))
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{ID: ids})
}

// uploadOne переправляет один файл на внутренний API, пересобирая
// одиночную multipart-форму потоково через pipe.
func (h *Handlers) uploadOne(r *http.Request, part *multipart.Part) (string, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		fw, err := mw.CreateFormFile("file", part.FileName())
		if err != nil {
			_ = pw.CloseWithError(err)
			return
		}

		if _, err := io.Copy(fw, part); err != nil {
			_ = pw.CloseWithError(err)
			return
		}

		_ = pw.CloseWithError(mw.Close())
	}()

	header := http.Header{}
	header.Set("Content-Type", mw.FormDataContentType())

	resp, err := h.Upstream.Do(r.Context(), http.MethodPost, upstream.FilesPath, nil, pr, header, true)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("upload status %d: %w", resp.StatusCode, gwerrors.ErrUpstream)
	}

	var out fileUploaded
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.ID == "" {
		return "", fmt.Errorf("malformed upload response: %w", gwerrors.ErrUpstream)
	}

	return out.ID, nil
}

// FileByID — GET /api/files/{file_id}. Содержимое неизменяемо, поэтому
// клиенту разрешается суточный кэш.
func (h *Handlers) FileByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "file_id")
	if id == "" {
		gwerrors.WriteError(w, r, errInvalidArgument("file id is required"))
		return
	}

	resp, err := h.Upstream.Do(r.Context(), http.MethodGet, upstream.FilesPath+"/"+id, nil, nil, nil, true)
	if err != nil {
		gwerrors.WriteError(w, r, err)
		return
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		w.Header().Set("Cache-Control", "public, max-age=86400")
	}

	relay(w, resp)
}
