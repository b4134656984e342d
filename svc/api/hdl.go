package api

import (
	"embed"
	"html/template"
	"io"
	"net/http"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/text/unicode/norm"

	"pastebox/cfg"
	"pastebox/pkg/domain"
	"pastebox/pkg/mimetype"
	"pastebox/svc/svc"
	"pastebox/svc/util"
)

//go:embed static
var staticFS embed.FS

//go:embed templates
var templateFS embed.FS

// multipart framing adds headers around the payload; the form cap
// leaves room for them on top of the paste size limit.
const multipartOverhead = 64 * 1024

type Hdl struct {
	paste *svc.Paste
	cfg   *cfg.Cfg
	tmpl  *template.Template
}

func NewHdl(paste *svc.Paste, c *cfg.Cfg) *Hdl {
	return &Hdl{
		paste: paste,
		cfg:   c,
		tmpl:  template.Must(template.ParseFS(templateFS, "templates/*.html")),
	}
}

type viewData struct {
	ID          string
	ContentType string
	ViewCount   int64
	Text        string
}

func (h *Hdl) Home(w http.ResponseWriter, r *http.Request) {
	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func (h *Hdl) Stylesheet(w http.ResponseWriter, r *http.Request) {
	css, err := staticFS.ReadFile("static/style.css")
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Write(css)
}

// CreatePaste accepts a multipart form with a "content" textarea and
// an optional "file" field; a non-empty file wins over the textarea,
// and its filename decides the stored content type.
func (h *Hdl) CreatePaste(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxPasteSize+multipartOverhead)
	if err := r.ParseMultipartForm(h.cfg.MaxPasteSize); err != nil {
		log.Warn().Err(err).Msg("invalid multipart upload")
		http.Error(w, "Invalid upload", http.StatusBadRequest)
		return
	}
	var content []byte
	contentType := "text/plain"
	if text := r.FormValue("content"); text != "" {
		content = []byte(sanitizeText(text))
	}
	if file, header, err := r.FormFile("file"); err == nil {
		defer file.Close()
		if header.Filename != "" {
			data, err := io.ReadAll(io.LimitReader(file, h.cfg.MaxPasteSize+1))
			if err != nil {
				log.Warn().Err(err).Str("filename", header.Filename).Msg("failed to read uploaded file")
				http.Error(w, "Invalid upload", http.StatusBadRequest)
				return
			}
			if len(data) > 0 {
				content = data
				contentType = mimetype.ByFilename(header.Filename)
			}
		}
	}
	paste, err := h.paste.Create(r.Context(), content, contentType)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrContentRequired):
			http.Error(w, "Content cannot be empty", http.StatusBadRequest)
		case errors.Is(err, domain.ErrContentTooLarge):
			http.Error(w, "Content too large (max 10MB)", http.StatusBadRequest)
		default:
			log.Error().Err(err).Msg("failed to create paste")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}
	log.Info().Str("paste_id", paste.ID).Str("content_type", contentType).Int64("size", paste.Size).Msg("paste created")
	h.render(w, "success.html", viewData{ID: paste.ID})
}

// GetPaste renders a stored paste, inline for text-like types and as
// a download notice otherwise.
func (h *Hdl) GetPaste(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	id := chi.URLParam(r, "id")
	paste, err := h.paste.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "Paste not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("id", id).Msg("failed to get paste")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	data := viewData{
		ID:          paste.ID,
		ContentType: paste.ContentType,
		ViewCount:   paste.ViewCount,
	}
	if mimetype.IsTextRenderable(paste.ContentType) {
		data.Text = lossyString(paste.Content)
		h.render(w, "view_text.html", data)
		return
	}
	h.render(w, "view_binary.html", data)
}

// GetRaw serves the stored bytes verbatim under the stored type.
func (h *Hdl) GetRaw(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	id := chi.URLParam(r, "id")
	paste, err := h.paste.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "Paste not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("id", id).Msg("failed to get paste")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", paste.ContentType)
	w.Write(paste.Content)
}

func (h *Hdl) render(w http.ResponseWriter, name string, data viewData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.ExecuteTemplate(w, name, data); err != nil {
		util.Error().Err(err).Str("template", name).Msg("template render failed")
	}
}

func sanitizeText(s string) string {
	s = norm.NFC.String(s)
	if utf8.ValidString(s) {
		return s
	}
	v := make([]rune, 0, len(s))
	for _, r := range s {
		if r != utf8.RuneError {
			v = append(v, r)
		}
	}
	return string(v)
}

func lossyString(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return string([]rune(string(b)))
}
