package model

// Boat is a vessel in the fleet inventory
type Boat struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	RegistrationNumber string  `json:"registrationNumber"`
	Type               string  `json:"type"`
	Status             string  `json:"status"`
	Model              string  `json:"model,omitempty"`
	Year               int     `json:"year,omitempty"`
	LengthMeters       float64 `json:"lengthMeters,omitempty"`
	Capacity           int     `json:"capacity,omitempty"`
	OwnerID            int64   `json:"ownerId,omitempty"`
	OwnerName          string  `json:"ownerName,omitempty"`
	Marina             string  `json:"marina,omitempty"`
}

// Matches applies the boat filters (search, type, status) combined with AND
func (b Boat) Matches(f FilterState) bool {
	if search := f.Get("search"); search != "" &&
		!containsFold(search, b.Name, b.RegistrationNumber, b.Model, b.OwnerName, b.Marina) {
		return false
	}
	return equalFilter(f, "type", b.Type) && equalFilter(f, "status", b.Status)
}

// Tally adds the boat to total, status and type counters
func (b Boat) Tally(c Counters) {
	c.Add("total", 1)
	c.Add(counterKey("status", b.Status), 1)
	c.Add(counterKey("type", b.Type), 1)
}

// BoatRequest is the body for creating or replacing a boat
type BoatRequest struct {
	Name               string  `json:"name" validate:"required,max=120"`
	RegistrationNumber string  `json:"registrationNumber" validate:"required,max=40"`
	Type               string  `json:"type" validate:"required,oneof=SAILBOAT MOTORBOAT YACHT CATAMARAN DINGHY"`
	Status             string  `json:"status" validate:"required,oneof=AVAILABLE IN_USE MAINTENANCE INACTIVE"`
	Model              string  `json:"model,omitempty" validate:"max=120"`
	Year               int     `json:"year,omitempty" validate:"omitempty,gte=1900,lte=2100"`
	LengthMeters       float64 `json:"lengthMeters,omitempty" validate:"gte=0"`
	Capacity           int     `json:"capacity,omitempty" validate:"gte=0"`
	OwnerID            int64   `json:"ownerId,omitempty" validate:"gte=0"`
	Marina             string  `json:"marina,omitempty" validate:"max=120"`
}

// Validate checks the request and returns field errors
func (r *BoatRequest) Validate() map[string]string {
	return validateStruct(r)
}
