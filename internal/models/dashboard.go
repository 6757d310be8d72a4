package models

// StatusCounts tallies requests by status.
type StatusCounts struct {
	Total       int `db:"total" json:"total"`
	Submitted   int `db:"submitted" json:"submitted"`
	UnderReview int `db:"under_review" json:"under_review"`
	Approved    int `db:"approved" json:"approved"`
	Rejected    int `db:"rejected" json:"rejected"`
}

// CitizenDashboard summarises a citizen's activity.
type CitizenDashboard struct {
	Requests            StatusCounts    `json:"requests"`
	UnreadNotifications int             `json:"unread_notifications"`
	RecentRequests      []RequestDetail `json:"recent_requests"`
}

// DepartmentDashboard summarises a department for officers and department heads.
type DepartmentDashboard struct {
	DepartmentID   string          `json:"department_id"`
	DepartmentName string          `json:"department_name"`
	Requests       StatusCounts    `json:"requests"`
	RecentRequests []RequestDetail `json:"recent_requests"`
	Officers       []User          `json:"officers,omitempty"`
}

// AdminDashboard summarises the whole portal.
type AdminDashboard struct {
	TotalUsers       int             `db:"total_users" json:"total_users"`
	TotalRequests    int             `db:"total_requests" json:"total_requests"`
	PendingRequests  int             `db:"pending_requests" json:"pending_requests"`
	TotalDepartments int             `db:"total_departments" json:"total_departments"`
	TotalRevenue     float64         `db:"total_revenue" json:"total_revenue"`
	RecentRequests   []RequestDetail `db:"-" json:"recent_requests"`
}
