package conflict

import (
	"fmt"
	"time"

	"github.com/fachline/backend/services/scheduling-service/internal/model"
)

type Code string

const (
	CodeInvalidDuration     Code = "invalid_duration"
	CodeWorkerUnavailable   Code = "worker_unavailable"
	CodeOutsideWorkingHours Code = "outside_working_hours"
	CodeOverlap             Code = "overlap"
)

// Reason is one independently detected obstacle to a booking. Messages are the
// product's user-facing Polish strings; callers treat reasons as advisory and
// may book despite them.
type Reason struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

const (
	msgInvalidDuration     = "Nieprawidłowy czas trwania wizyty"
	msgWorkerUnavailable   = "Pracownik jest niedostępny"
	msgOutsideWorkingHours = "Poza godzinami pracy"
)

// Request is a candidate booking: a slot on a date plus the requested
// duration, which need not be a multiple of the grid step.
type Request struct {
	Date            time.Time
	Start           model.TimeOfDay
	DurationMinutes int
}

func (r Request) end() model.TimeOfDay {
	return r.Start.Add(r.DurationMinutes)
}

// Detect collects every conflict between the request and the worker's
// schedule. An empty result is the "may book" signal. Checks never
// short-circuit each other, so a request can report both an availability and
// an overlap conflict at once. Interval checks are skipped for non-positive
// durations since the requested interval is undefined then.
func Detect(req Request, worker model.Worker, existing []model.Appointment) []Reason {
	var reasons []Reason

	if req.DurationMinutes <= 0 {
		reasons = append(reasons, Reason{Code: CodeInvalidDuration, Message: msgInvalidDuration})
	}

	if !worker.IsAvailable {
		reasons = append(reasons, Reason{Code: CodeWorkerUnavailable, Message: msgWorkerUnavailable})
	}

	if req.DurationMinutes > 0 {
		// Containment in [workStart, workEnd), computed in minutes since
		// midnight to keep the math timezone-free.
		if req.Start < worker.WorkingHours.Start || req.end() > worker.WorkingHours.End {
			reasons = append(reasons, Reason{Code: CodeOutsideWorkingHours, Message: msgOutsideWorkingHours})
		}

		for _, appt := range existing {
			if appt.Status == model.StatusCancelled {
				continue
			}
			if appt.WorkerID != worker.ID || !appt.SameDay(req.Date) {
				continue
			}
			// Half-open intervals: touching boundaries do not conflict.
			if req.Start < appt.End() && appt.Start < req.end() {
				reasons = append(reasons, Reason{
					Code:    CodeOverlap,
					Message: fmt.Sprintf("Nakłada się na wizytę %s–%s", appt.Start, appt.End()),
				})
			}
		}
	}

	return reasons
}
