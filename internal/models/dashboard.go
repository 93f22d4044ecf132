package models

import "time"

// CaseStatusInProgress is the dashboard_cases status counted as active.
const CaseStatusInProgress = "In Progress"

// VoucherTypeCashOut marks vouchers that reduce the branch balance.
const VoucherTypeCashOut = "cash_out"

// Voucher is the slice of a vouchers row the financial aggregate needs.
type Voucher struct {
	Amount float64 `db:"amount" json:"amount"`
	VType  string  `db:"vtype" json:"vtype"`
}

// NetVoucherTotal sums voucher amounts: cash_out subtracts, any other type adds.
func NetVoucherTotal(vouchers []Voucher) float64 {
	var total float64
	for _, v := range vouchers {
		if v.VType == VoucherTypeCashOut {
			total -= v.Amount
			continue
		}
		total += v.Amount
	}
	return total
}

// AggregateSnapshot holds dashboard counts computed for one request. Never persisted.
type AggregateSnapshot struct {
	Branch           string    `json:"branch"`
	TotalStudents    int       `json:"total_students"`
	CasesInProgress  int       `json:"cases_in_progress"`
	ActiveTeachers   int       `json:"active_teachers"`
	RecentAttendance int       `json:"recent_attendance"`
	NetFinancial     *float64  `json:"net_financial"`
	Unavailable      []string  `json:"unavailable,omitempty"`
	GeneratedAt      time.Time `json:"generated_at"`
}

// EmployeePerformance is the per-employee drill-down.
type EmployeePerformance struct {
	Email       string   `json:"email"`
	Cases       int      `json:"cases"`
	Reports     int      `json:"reports"`
	Attendance  *int     `json:"attendance"`
	TeacherID   string   `json:"teacher_id,omitempty"`
	Unavailable []string `json:"unavailable,omitempty"`
}

// StudentOption is a selectable student in the performance form.
type StudentOption struct {
	ID    string  `db:"id" json:"id"`
	Name  string  `db:"name" json:"name"`
	Batch *string `db:"batch" json:"batch,omitempty"`
}

// CaseOption is a selectable case in the case-progress form.
type CaseOption struct {
	ID          string  `db:"id" json:"id"`
	StudentName string  `db:"student_name" json:"student_name"`
	Status      string  `db:"status" json:"status"`
	Branch      *string `db:"branch" json:"branch,omitempty"`
}
