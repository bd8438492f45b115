package domain

import "time"

// Demand is a shortage note: a medicine the store has flagged as out of stock.
type Demand struct {
	ID           int64     `db:"id" json:"id"`
	TenantID     int64     `db:"tenant_id" json:"tenantId"`
	MedicineName string    `db:"medicine_name" json:"medicineName"`
	NoteDate     time.Time `db:"note_date" json:"noteDate"`
}
