package handlers

import (
	"net/http"

	"capi/internal/catalog"
	"capi/internal/models"
)

// Greeting is the body of GET /.
const Greeting = "Colleges API: SriGuru Institute of Technology, Coimbatore"

type CollegeHandler struct {
	engine *catalog.Engine
}

func NewCollegeHandler(engine *catalog.Engine) *CollegeHandler {
	return &CollegeHandler{engine: engine}
}

func (h *CollegeHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(Greeting))
}

func (h *CollegeHandler) HandleTotal(w http.ResponseWriter, r *http.Request) {
	total, err := h.engine.Count()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"total": total})
}

func (h *CollegeHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	params := models.ParseSearchParams(r.Header)

	rows, err := h.engine.Search(params.Keyword)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *CollegeHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	params, err := models.ParseStateParams(r.Header)
	if err != nil {
		writeError(w, err)
		return
	}

	rows, err := h.engine.ByState(params.State, params.Offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *CollegeHandler) HandleDistrict(w http.ResponseWriter, r *http.Request) {
	params, err := models.ParseDistrictParams(r.Header)
	if err != nil {
		writeError(w, err)
		return
	}

	rows, err := h.engine.ByDistrict(params.District, params.Offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *CollegeHandler) HandleAllStates(w http.ResponseWriter, r *http.Request) {
	states, err := h.engine.AllStates()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, states)
}

func (h *CollegeHandler) HandleDistricts(w http.ResponseWriter, r *http.Request) {
	params, err := models.ParseDistrictsParams(r.Header)
	if err != nil {
		writeError(w, err)
		return
	}

	districts, err := h.engine.DistrictsForState(params.State)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, districts)
}
