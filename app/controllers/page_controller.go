package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"yatube/app/services"
	"yatube/app/views"
)

// PageController serves flat pages and the error pages.
type PageController struct {
	base
	site *services.SiteService
}

// NewPageController creates a new PageController
func NewPageController(v *views.Renderer, site *services.SiteService) *PageController {
	return &PageController{base: base{views: v}, site: site}
}

// FlatPage renders the stored page for a fixed URL such as /about-us/.
func (pc *PageController) FlatPage(url string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pc.show(w, r, url)
	}
}

// About renders /about/{url}/ pages.
func (pc *PageController) About(w http.ResponseWriter, r *http.Request) {
	pc.show(w, r, "/"+mux.Vars(r)["url"])
}

func (pc *PageController) show(w http.ResponseWriter, r *http.Request, url string) {
	page, err := pc.site.FlatPage(r.Context(), url)
	if err != nil {
		pc.fail(w, r, err)
		return
	}
	pc.render(w, r, http.StatusOK, "flatpage", Data{"FlatPage": page})
}

// Healthz reports that the process is serving.
func (pc *PageController) Healthz(w http.ResponseWriter, r *http.Request) {
	pc.sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Forbidden answers requests rejected by the CSRF check.
func (pc *PageController) Forbidden(w http.ResponseWriter, r *http.Request) {
	pc.sendError(w, r, "CSRF verification failed. Request aborted.", http.StatusForbidden)
}
