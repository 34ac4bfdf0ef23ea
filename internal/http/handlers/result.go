package handlers

import (
	"fmt"
	"net/http"
	"path"
	"strings"

	"golang.org/x/sync/errgroup"

	"stencil/internal/session"
	"stencil/pkg/zip"
)

// maxArchiveFetches bounds concurrent downloads when building an archive.
const maxArchiveFetches = 4

// ResultDownload streams the bytes of the current result.
func (a *App) ResultDownload(w http.ResponseWriter, r *http.Request) {
	var url string
	if !a.state(w, r, func(st *session.State) { url = st.EditedImage }) {
		return
	}
	if url == "" {
		a.error(w, http.StatusNotFound, "not_found", "No image to download.")
		return
	}
	data, err := a.Fetcher.FetchImage(r.Context(), url)
	if err != nil {
		a.logger(r).Warn().Err(err).Str("url", url).Msg("download result")
		a.error(w, http.StatusBadGateway, "upstream", "Could not download the image.")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=Stencil_generated_%d.png", a.now().Unix()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// ResultArchive bundles the session's history images into one zip. Entries
// that cannot be downloaded are left out.
func (a *App) ResultArchive(w http.ResponseWriter, r *http.Request) {
	var history []session.HistoryEntry
	if !a.state(w, r, func(st *session.State) {
		history = append(history, st.ImageHistory...)
	}) {
		return
	}
	if len(history) == 0 {
		a.error(w, http.StatusNotFound, "not_found", "No images in history.")
		return
	}

	assets := make([]zip.Asset, len(history))
	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(maxArchiveFetches)
	for i, entry := range history {
		g.Go(func() error {
			data, err := a.Fetcher.FetchImage(ctx, entry.URL)
			if err != nil {
				a.logger(r).Debug().Err(err).Str("url", entry.URL).Msg("archive fetch")
				return nil
			}
			assets[i] = zip.Asset{Filename: archiveName(i, entry), Data: data}
			return nil
		})
	}
	_ = g.Wait()

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=Stencil_history_%d.zip", a.now().Unix()))
	w.WriteHeader(http.StatusOK)
	if err := zip.ArchiveAssets(w, assets); err != nil {
		a.logger(r).Warn().Err(err).Msg("write archive")
	}
}

func archiveName(i int, entry session.HistoryEntry) string {
	ext := strings.ToLower(path.Ext(strings.SplitN(entry.URL, "?", 2)[0]))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".webp", ".gif":
	default:
		ext = ".png"
	}
	op := strings.ToLower(strings.Join(strings.Fields(entry.Type), "_"))
	if op == "" {
		op = "image"
	}
	op = strings.NewReplacer("(", "", ")", "").Replace(op)
	return fmt.Sprintf("%02d_%s%s", i+1, op, ext)
}
