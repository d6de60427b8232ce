package handlers

import (
	"net/http"

	"github.com/rs/cors"
)

// Router holds the handlers mounted by NewRouter. Captcha, Resume and Files
// are optional; their routes are skipped when nil.
type Router struct {
	Colleges    *CollegeHandler
	Captcha     *CaptchaHandler
	Resume      *ResumeHandler
	Files       FileServer
	CORSOrigins []string
}

// NewRouter registers every route and wraps the mux with CORS.
func NewRouter(rt Router) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", rt.Colleges.HandleRoot)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("POST /colleges/total", rt.Colleges.HandleTotal)
	mux.HandleFunc("POST /colleges/search", rt.Colleges.HandleSearch)
	mux.HandleFunc("POST /colleges/state", rt.Colleges.HandleState)
	mux.HandleFunc("POST /colleges/district", rt.Colleges.HandleDistrict)
	mux.HandleFunc("POST /allstates", rt.Colleges.HandleAllStates)
	mux.HandleFunc("POST /districts", rt.Colleges.HandleDistricts)

	if rt.Captcha != nil {
		mux.HandleFunc("POST /captcha/verify", rt.Captcha.HandleVerify)
	}
	if rt.Resume != nil {
		mux.HandleFunc("POST /resume/upload", rt.Resume.HandleUpload)
		mux.HandleFunc("POST /resume/remove", rt.Resume.HandleRemove)
	}
	if rt.Files != nil {
		mux.HandleFunc("GET /files/{key...}", HandleFile(rt.Files))
	}

	origins := rt.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(mux)
}
