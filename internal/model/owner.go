package model

// Owner is a boat owner account
type Owner struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Status    string `json:"status"`
	Role      string `json:"role"`
	BoatCount int    `json:"boatCount"`
}

// FullName joins first and last name
func (o Owner) FullName() string {
	switch {
	case o.FirstName == "":
		return o.LastName
	case o.LastName == "":
		return o.FirstName
	}
	return o.FirstName + " " + o.LastName
}

// Matches applies the owner filters (search, status, role) combined with AND
func (o Owner) Matches(f FilterState) bool {
	if search := f.Get("search"); search != "" && !containsFold(search, o.FullName(), o.Email, o.Phone) {
		return false
	}
	return equalFilter(f, "status", o.Status) && equalFilter(f, "role", o.Role)
}

// Tally adds the owner to total, status and role counters
func (o Owner) Tally(c Counters) {
	c.Add("total", 1)
	c.Add(counterKey("status", o.Status), 1)
	c.Add(counterKey("role", o.Role), 1)
}

// OwnerRequest is the body for creating or replacing an owner.
// Password is only sent on creation.
type OwnerRequest struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone,omitempty" validate:"max=30"`
	Status    string `json:"status" validate:"required,oneof=ACTIVE INACTIVE"`
	Role      string `json:"role" validate:"required,oneof=OWNER ADMIN"`
	Password  string `json:"password,omitempty" validate:"omitempty,min=8"`
}

// Validate checks the request and returns field errors
func (r *OwnerRequest) Validate() map[string]string {
	return validateStruct(r)
}
