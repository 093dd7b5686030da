package models

// Domain models matching the database schema in db/migrations/0001_init.sql

type Role string

const (
	RoleClient Role = "client"
	RoleAdmin  Role = "admin"
	RoleWorker Role = "worker"
)

// ReportStatus is the report lifecycle state. Transitions are forward-only
// (pending -> assigned -> completed -> verified) except the administrative
// revert back to pending.
type ReportStatus string

const (
	StatusPending   ReportStatus = "pending"
	StatusAssigned  ReportStatus = "assigned"
	StatusCompleted ReportStatus = "completed"
	StatusVerified  ReportStatus = "verified"
)

type User struct {
	ID           int64  `json:"id" db:"id"`
	FullName     string `json:"full_name" db:"full_name"`
	Email        string `json:"email" db:"email"`
	PasswordHash string `json:"-" db:"password_hash"`
	Role         Role   `json:"role" db:"role"`
	District     string `json:"district" db:"district"`
	Active       bool   `json:"active" db:"active"`
	Created      int64  `json:"created" db:"created"`
}

type Department struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Worker is a department-affiliated profile that receives report assignments.
// DailyTaskCount is advisory only; capacity decisions always derive from a
// live count of assigned reports (WorkerRepo.CountAssigned).
type Worker struct {
	ID             int64 `json:"id" db:"id"`
	UserID         int64 `json:"user_id" db:"user_id"`
	DepartmentID   int64 `json:"department_id" db:"department_id"`
	DailyTaskCount int   `json:"daily_task_count" db:"daily_task_count"`

	// Denormalized from the owning user row on reads that join users.
	District string `json:"district,omitempty" db:"district"`
	Active   bool   `json:"active,omitempty" db:"active"`
}

// Report is a citizen-submitted civic issue. Priority is computed once at
// creation and immutable afterwards. Status == assigned implies
// AssignedWorkerID is non-nil.
type Report struct {
	ID               int64        `json:"id" db:"id"`
	PublicID         string       `json:"public_id" db:"public_id"`
	Title            string       `json:"title" db:"title"`
	Description      string       `json:"description,omitempty" db:"description"`
	ProblemType      string       `json:"problem_type" db:"problem_type"`
	District         string       `json:"district" db:"district"`
	Longitude        float64      `json:"longitude" db:"longitude"`
	Latitude         float64      `json:"latitude" db:"latitude"`
	Priority         float64      `json:"priority" db:"priority"`
	Status           ReportStatus `json:"status" db:"status"`
	UserID           int64        `json:"user_id" db:"user_id"`
	AssignedWorkerID *int64       `json:"assigned_worker_id,omitempty" db:"assigned_worker_id"`
	Created          int64        `json:"created" db:"created"`
	Updated          int64        `json:"updated" db:"updated"`
}
