package models

// Wire types for the Go-card backend collections. Field names follow the
// upstream JSON contract; shift times travel as "HH:MM:SS" strings.

type Employee struct {
	EmployeeID      int    `json:"employeeId"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Address         string `json:"address"`
	ExperienceLevel int    `json:"experienceLevel"`
	Username        string `json:"username"`
	// Password is write-only: sent on create, never echoed back.
	Password string `json:"password,omitempty"`
}

type Bicycle struct {
	BicycleID     int  `json:"bicycleId"`
	BicycleNumber int  `json:"bicycleNumber"`
	InOperate     bool `json:"inOperate"`
}

type Route struct {
	ID          int `json:"id"`
	RouteNumber int `json:"routeNumber"`
}

type Shift struct {
	ShiftID     int    `json:"shiftId"`
	DateOfShift string `json:"dateOfShift"`
	EmployeeID  int    `json:"employeeId"`
	BicycleID   int    `json:"bicycleId"`
	RouteID     int    `json:"routeId"`
	// SubstitutedID defaults to EmployeeID when nobody substitutes.
	SubstitutedID int      `json:"substitutedId"`
	StartTime     *string  `json:"startTime,omitempty"`
	EndTime       *string  `json:"endTime,omitempty"`
	TotalHours    *float64 `json:"totalHours,omitempty"`
}

// Started reports whether the shift has a recorded start time.
func (s Shift) Started() bool {
	return s.StartTime != nil && *s.StartTime != ""
}

// InProgress reports whether the shift has started but not ended.
func (s Shift) InProgress() bool {
	return s.Started() && (s.EndTime == nil || *s.EndTime == "")
}

// MonthlyHoursRow is the read-only aggregate behind the work-hours chart.
type MonthlyHoursRow struct {
	EmployeeID        int     `json:"employeeId"`
	FirstName         string  `json:"firstName"`
	LastName          string  `json:"lastName"`
	Year              int     `json:"year"`
	Month             int     `json:"month"`
	TotalMonthlyHours float64 `json:"totalMonthlyHours"`
	HasSubstituted    bool    `json:"hasSubstituted"`
}
