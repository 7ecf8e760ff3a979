package history

import "time"

// Kind classifies a journal entry.
type Kind string

const (
	KindActivation Kind = "activation"
	KindRestart    Kind = "restart"
	KindReorder    Kind = "reorder"
)

// Entry is one journaled event. Orderings are recorded for reference only;
// they are never read back into the daemon.
type Entry struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Timestamp     time.Time `gorm:"not null;index" json:"timestamp"`
	Kind          Kind      `gorm:"not null;index" json:"kind"`
	Identity      string    `gorm:"not null;index" json:"identity"`
	Name          string    `json:"name,omitempty"`
	Succeeded     bool      `gorm:"not null;default:false" json:"succeeded"`
	Strategy      string    `json:"strategy,omitempty"`
	JobID         string    `gorm:"index" json:"job_id,omitempty"`
	ExitConfirmed bool      `gorm:"not null;default:false" json:"exit_confirmed"`
	Detail        string    `json:"detail,omitempty"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName pins the table name independent of the struct name.
func (Entry) TableName() string {
	return "history_entries"
}
