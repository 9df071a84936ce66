package queue

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// WaitPerActiveMinutes is the fixed per-slot service cost assumption used
// for wait estimation.
const WaitPerActiveMinutes = 15

// IsActive reports whether an appointment in the given status still counts
// toward queue position and wait computations for future bookings.
func IsActive(status string) bool {
	return status == StatusPending || status == StatusConfirmed
}

// PositionAndWait derives the queue metadata assigned to a new booking from
// the number of active appointments observed at creation time. The values
// are a snapshot: they are stored on the appointment and never recomputed
// when earlier bookings complete or cancel.
func PositionAndWait(activeCount int) (position, waitMinutes int) {
	return activeCount + 1, activeCount * WaitPerActiveMinutes
}

type Appointment struct {
	ID            string
	Name          string
	Email         string
	Phone         string
	Service       string
	Date          time.Time
	Time          string
	Status        string
	QueuePosition int
	EstimatedWait int
	CreatedAt     time.Time
}

// Draft is the prefilled form state produced by a reschedule: the original's
// contact and service fields with the date defaulted to today and the time
// slot cleared for the caller to pick again.
type Draft struct {
	Name    string
	Email   string
	Phone   string
	Service string
	Date    time.Time
	Time    string
}

// Queue holds the appointment collection for one account. All operations
// take the queue lock, so the read-count-then-append sequence in Add is
// atomic with respect to concurrent Add/Cancel calls and no two bookings
// can be assigned the same position from one active-count snapshot.
type Queue struct {
	mu    sync.Mutex
	appts []*Appointment
	now   func() time.Time
}

func NewQueue() *Queue {
	return &Queue{now: func() time.Time { return time.Now().UTC() }}
}

// NewQueueAt constructs a queue with a fixed clock, for tests.
func NewQueueAt(now func() time.Time) *Queue {
	return &Queue{now: now}
}

// Add appends a new pending appointment. The input must already have passed
// Validate and date must be a concrete calendar date.
func (q *Queue) Add(in BookingInput, date time.Time) Appointment {
	q.mu.Lock()
	defer q.mu.Unlock()

	active := 0
	for _, a := range q.appts {
		if IsActive(a.Status) {
			active++
		}
	}
	position, wait := PositionAndWait(active)

	appt := &Appointment{
		ID:            uuid.NewString(),
		Name:          in.Name,
		Email:         in.Email,
		Phone:         in.Phone,
		Service:       in.Service,
		Date:          date,
		Time:          in.Time,
		Status:        StatusPending,
		QueuePosition: position,
		EstimatedWait: wait,
		CreatedAt:     q.now(),
	}
	q.appts = append(q.appts, appt)
	return *appt
}

// Cancel marks the appointment cancelled. Unknown ids are a no-op, so the
// operation is idempotent and safe to retry.
func (q *Queue) Cancel(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, a := range q.appts {
		if a.ID == id {
			a.Status = StatusCancelled
			return
		}
	}
}

// Reschedule cancels the original appointment and returns a prefilled draft
// for resubmission through Add. The cancelled original stays in history; a
// replacement record only appears if the caller submits the draft.
func (q *Queue) Reschedule(id string) (Draft, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, a := range q.appts {
		if a.ID == id {
			a.Status = StatusCancelled
			today := q.now()
			return Draft{
				Name:    a.Name,
				Email:   a.Email,
				Phone:   a.Phone,
				Service: a.Service,
				Date:    time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC),
				Time:    "",
			}, true
		}
	}
	return Draft{}, false
}

func (q *Queue) Get(id string) (Appointment, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, a := range q.appts {
		if a.ID == id {
			return *a, true
		}
	}
	return Appointment{}, false
}

// Appointments returns a snapshot copy of the collection in creation order.
func (q *Queue) Appointments() []Appointment {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Appointment, 0, len(q.appts))
	for _, a := range q.appts {
		out = append(out, *a)
	}
	return out
}
