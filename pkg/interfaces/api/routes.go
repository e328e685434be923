package api

import "github.com/go-chi/chi/v5"

// routes mounts every endpoint under /api
func (s *Server) routes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", s.public(s.login))
		r.Post("/refresh", s.public(s.refresh))
		r.Get("/me", s.authed(s.me))
		r.Post("/password", s.authed(s.changePassword))
	})

	r.Route("/users", func(r chi.Router) {
		r.Get("/", s.authed(s.listUsers))
		r.Post("/", s.authed(s.createUser))
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.authed(s.getUser))
			r.Patch("/", s.authed(s.updateUser))
			r.Delete("/", s.authed(s.deactivateUser))
		})
	})

	r.Route("/org-units", func(r chi.Router) {
		r.Get("/", s.authed(s.listOrgUnits))
		r.Post("/", s.authed(s.createOrgUnit))
		r.Get("/tree", s.authed(s.orgTree))
		r.Get("/level/{level}", s.authed(s.orgUnitsByLevel))
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.authed(s.getOrgUnit))
			r.Put("/", s.authed(s.updateOrgUnit))
			r.Delete("/", s.authed(s.deleteOrgUnit))
			r.Get("/children", s.authed(s.orgChildren))
			r.Get("/hierarchy", s.authed(s.orgHierarchy))
		})
	})

	r.Route("/services", func(r chi.Router) {
		r.Get("/", s.authed(s.listServices))
		r.Post("/", s.authed(s.createService))
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.authed(s.getService))
			r.Put("/", s.authed(s.updateService))
			r.Patch("/", s.authed(s.updateServiceSettings))
			r.Delete("/", s.authed(s.deleteService))
			r.Put("/approval", s.authed(s.updateServiceApproval))
			r.Post("/fields", s.authed(s.addField))
			r.Patch("/fields/{field}", s.authed(s.updateField))
			r.Get("/pricing", s.authed(s.listPricing))
		})
	})
	r.Route("/pricing", func(r chi.Router) {
		r.Post("/", s.authed(s.createPricing))
		r.Put("/{id}", s.authed(s.updatePricing))
		r.Delete("/{id}", s.authed(s.deletePricing))
	})

	r.Route("/orders", func(r chi.Router) {
		r.Get("/", s.authed(s.listOrders))
		r.Post("/", s.authed(s.createOrder))
		r.Get("/stats", s.authed(s.orderStats))
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.authed(s.getOrder))
			r.Post("/submit", s.authed(s.submitOrder))
			r.Post("/approve", s.authed(s.approveOrder))
			r.Post("/reject", s.authed(s.rejectOrder))
			r.Post("/status", s.authed(s.updateOrderStatus))
			r.Post("/attachments", s.authed(s.attachOrder))
			r.Get("/receipt", s.authed(s.orderReceipt))
		})
	})

	r.Route("/design-orders", func(r chi.Router) {
		r.Get("/", s.authed(s.listDesigns))
		r.Post("/", s.authed(s.createDesign))
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.authed(s.getDesign))
			r.Post("/approve", s.authed(s.approveDesign))
			r.Post("/reject", s.authed(s.rejectDesign))
			r.Post("/return", s.authed(s.returnDesign))
			r.Post("/ready", s.authed(s.readyDesign))
			r.Post("/confirm", s.authed(s.confirmDesign))
			r.Post("/status", s.authed(s.updateDesignStatus))
			r.Post("/attachments", s.authed(s.attachDesign))
			r.Get("/receipt", s.authed(s.designReceipt))
		})
	})

	r.Route("/print-orders", func(r chi.Router) {
		r.Get("/", s.authed(s.listPrints))
		r.Post("/", s.authed(s.createPrint))
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.authed(s.getPrint))
			r.Post("/approve", s.authed(s.approvePrint))
			r.Post("/reject", s.authed(s.rejectPrint))
			r.Post("/cancel", s.authed(s.cancelPrint))
			r.Post("/actual-quantity", s.authed(s.recordActualQuantity))
			r.Post("/confirm", s.authed(s.confirmPrint))
			r.Post("/delivery", s.authed(s.scheduleDelivery))
			r.Post("/status", s.authed(s.updatePrintStatus))
			r.Post("/attachments", s.authed(s.attachPrint))
			r.Get("/receipt", s.authed(s.printReceipt))
		})
	})

	r.Route("/inventory", func(r chi.Router) {
		r.Route("/items", func(r chi.Router) {
			r.Get("/", s.authed(s.listItems))
			r.Post("/", s.authed(s.createItem))
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.authed(s.getItem))
				r.Put("/", s.authed(s.updateItem))
				r.Delete("/", s.authed(s.deleteItem))
				r.Post("/adjust", s.authed(s.adjustItem))
				r.Get("/logs", s.authed(s.itemLogs))
			})
		})
		r.Route("/reorders", func(r chi.Router) {
			r.Get("/", s.authed(s.listReorders))
			r.Post("/", s.authed(s.createReorder))
			r.Post("/{id}/approve", s.authed(s.approveReorder))
			r.Post("/{id}/receive", s.authed(s.receiveReorder))
			r.Post("/{id}/cancel", s.authed(s.cancelReorder))
		})
	})

	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", s.authed(s.listNotifications))
		r.Get("/unread-count", s.authed(s.unreadCount))
		r.Post("/read-all", s.authed(s.markAllRead))
		r.Post("/{id}/read", s.authed(s.markRead))
		r.Get("/preferences", s.authed(s.getPreferences))
		r.Patch("/preferences", s.authed(s.updatePreferences))
	})

	r.Route("/visits", func(r chi.Router) {
		r.Route("/requests", func(r chi.Router) {
			r.Get("/", s.authed(s.listVisitRequests))
			r.Post("/", s.authed(s.createVisitRequest))
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.authed(s.getVisitRequest))
				r.Post("/approve", s.authed(s.approveVisit))
				r.Post("/security", s.authed(s.clearVisitSecurity))
				r.Post("/reject", s.authed(s.rejectVisit))
				r.Post("/postpone", s.authed(s.postponeVisit))
				r.Post("/cancel", s.authed(s.cancelVisit))
			})
		})
		r.Route("/schedules", func(r chi.Router) {
			r.Get("/", s.authed(s.listSchedules))
			r.Post("/", s.authed(s.createSchedule))
			r.Put("/{id}", s.authed(s.updateSchedule))
			r.Delete("/{id}", s.authed(s.deleteSchedule))
		})
		r.Get("/available", s.authed(s.availableSlots))
		r.Get("/available-dates", s.authed(s.availableDates))
		r.Route("/bookings", func(r chi.Router) {
			r.Get("/", s.authed(s.listBookings))
			r.Post("/", s.authed(s.book))
			r.Post("/{id}/confirm", s.authed(s.confirmBooking))
			r.Post("/{id}/check-in", s.authed(s.checkIn))
			r.Post("/{id}/cancel", s.authed(s.cancelBooking))
		})
	})

	r.Route("/training", func(r chi.Router) {
		r.Get("/", s.authed(s.listTraining))
		r.Post("/", s.authed(s.createTraining))
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.authed(s.getTraining))
			r.Post("/approve", s.authed(s.approveTraining))
			r.Post("/reject", s.authed(s.rejectTraining))
			r.Post("/start", s.authed(s.startTraining))
			r.Post("/complete", s.authed(s.completeTraining))
			r.Get("/evaluations", s.authed(s.listEvaluations))
			r.Post("/evaluations", s.authed(s.evaluateTraining))
		})
	})

	r.Route("/settings", func(r chi.Router) {
		r.Get("/", s.authed(s.listSettings))
		r.Put("/", s.authed(s.putSetting))
		r.Get("/{key}", s.authed(s.getSetting))
		r.Delete("/{key}", s.authed(s.deleteSetting))
	})
	r.Get("/approval-policy", s.authed(s.getPolicy))
	r.Put("/approval-policy", s.authed(s.updatePolicy))
	r.Get("/audit-logs", s.authed(s.auditLogs))
	r.Route("/admin", func(r chi.Router) {
		r.Get("/overview", s.authed(s.overview))
		r.Get("/events/{stream}", s.authed(s.eventHistory))
		r.Post("/jobs/{name}", s.authed(s.runJob))
	})

	r.Route("/reports", func(r chi.Router) {
		r.Get("/orders", s.authed(s.ordersReport))
		r.Get("/productivity", s.authed(s.productivityReport))
		r.Get("/inventory", s.authed(s.inventoryReport))
		r.Get("/roi", s.authed(s.roiReport))
	})
}
