package model

// Maintenance is a scheduled or completed job on a boat
type Maintenance struct {
	ID            int64   `json:"id"`
	BoatID        int64   `json:"boatId"`
	BoatName      string  `json:"boatName"`
	Type          string  `json:"type"`
	Status        string  `json:"status"`
	Description   string  `json:"description,omitempty"`
	ScheduledDate string  `json:"scheduledDate"`
	CompletedDate string  `json:"completedDate,omitempty"`
	Cost          float64 `json:"cost"`
}

// Matches applies the maintenance filters (search, status, type) combined with AND
func (m Maintenance) Matches(f FilterState) bool {
	if search := f.Get("search"); search != "" && !containsFold(search, m.BoatName, m.Description) {
		return false
	}
	return equalFilter(f, "status", m.Status) && equalFilter(f, "type", m.Type)
}

// Tally adds the job to total, status, type and cost counters
func (m Maintenance) Tally(c Counters) {
	c.Add("total", 1)
	c.Add(counterKey("status", m.Status), 1)
	c.Add(counterKey("type", m.Type), 1)
	c.Add("cost", m.Cost)
}

// MaintenanceRequest is the body for scheduling or updating a maintenance job
type MaintenanceRequest struct {
	BoatID        int64   `json:"boatId" validate:"required,gt=0"`
	Type          string  `json:"type" validate:"required,oneof=PREVENTIVE CORRECTIVE INSPECTION REPAIR"`
	Status        string  `json:"status" validate:"required,oneof=PENDING IN_PROGRESS COMPLETED CANCELLED"`
	Description   string  `json:"description,omitempty" validate:"max=1000"`
	ScheduledDate string  `json:"scheduledDate" validate:"required,datetime=2006-01-02"`
	CompletedDate string  `json:"completedDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Cost          float64 `json:"cost" validate:"gte=0"`
}

// Validate checks the request and returns field errors
func (r *MaintenanceRequest) Validate() map[string]string {
	errs := validateStruct(r)
	if r.CompletedDate != "" && r.ScheduledDate != "" && r.CompletedDate < r.ScheduledDate {
		if _, exists := errs["completedDate"]; !exists {
			errs["completedDate"] = "completedDate must not be before scheduledDate"
		}
	}
	return errs
}
