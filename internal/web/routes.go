package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-clock/internal/attendance"
	"github.com/kozaktomas/face-clock/internal/database"
	"github.com/kozaktomas/face-clock/internal/web/handlers"
)

func (s *Server) setupRoutes(
	engine *attendance.Engine,
	employees database.EmployeeReader,
	events database.EventReader,
	window attendance.DayWindow,
) {
	recognizeHandler := handlers.NewRecognizeHandler(engine)
	employeesHandler := handlers.NewEmployeesHandler(engine, employees)
	attendanceHandler := handlers.NewAttendanceHandler(engine, events, window)

	// Health check
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		// Recognition punches from the kiosk
		r.Post("/attendance/recognize", recognizeHandler.Recognize)

		// Attendance history
		r.Get("/attendance", attendanceHandler.ListRange)
		r.Get("/attendance/last/{employeeId}", attendanceHandler.Last)
		r.Get("/attendance/employee/{employeeId}", attendanceHandler.ByEmployee)

		// Employees
		r.Post("/employees", employeesHandler.Enroll)
		r.Get("/employees", employeesHandler.List)
		r.Get("/employees/{id}", employeesHandler.Get)
	})
}
