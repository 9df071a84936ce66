package model

import "time"

type Appointment struct {
	ID            string
	AccountID     string
	Name          string
	Email         string
	Phone         string
	Service       string
	Date          time.Time
	TimeSlot      string
	Status        string
	QueuePosition int
	EstimatedWait int
	CancelledAt   *time.Time
	CreatedAt     time.Time
}
