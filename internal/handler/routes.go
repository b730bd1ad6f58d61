package handler

import (
	"github.com/go-chi/chi/v5"

	"github.com/Sapuran-Berperan/fleet-portal/internal/middleware"
	"github.com/Sapuran-Berperan/fleet-portal/internal/model"
)

// Routes returns the portal router, to be mounted under /portal
func (p *Portal) Routes() chi.Router {
	r := chi.NewRouter()

	// Auth routes
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", p.Login)
		r.Post("/logout", p.Logout)
		r.With(p.guard.Require).Get("/me", p.Me)
	})

	// Admin screens, paged by the backend
	r.Route("/admin", func(r chi.Router) {
		r.Use(p.guard.Require)
		r.Use(middleware.RequireUserType(model.UserTypeAdmin))

		r.Get("/dashboard", p.Dashboard)
		r.Get("/payments/export", p.ExportPayments)
		r.Post("/boats/{id}/documents", p.UploadBoatDocument)
		r.Post("/payments/{id}/receipt", p.UploadReceipt)
		r.Get("/payments/{id}/receipt", p.DownloadReceipt)

		r.Get("/{resource}", p.ViewList)
		r.Post("/{resource}", p.CreateRecord)
		r.Post("/{resource}/filters", p.ApplyFilters)
		r.Post("/{resource}/page/{page}", p.ChangePage)
		r.Put("/{resource}/{id}", p.UpdateRecord)
		r.Delete("/{resource}/{id}", p.DeleteRecord)
	})

	// Owner screens, paged locally over the owner's own records
	r.Route("/owner", func(r chi.Router) {
		r.Use(p.guard.Require)
		r.Use(middleware.RequireUserType(model.UserTypeOwner))

		r.Post("/payments/{id}/receipt", p.UploadReceipt)
		r.Get("/payments/{id}/receipt", p.DownloadReceipt)

		r.Get("/{resource}", p.ViewList)
		r.Post("/{resource}/filters", p.ApplyFilters)
		r.Post("/{resource}/page/{page}", p.ChangePage)
	})

	return r
}
