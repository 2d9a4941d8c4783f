package types

import "time"

type MembershipStatus string

const (
	MembershipActive    MembershipStatus = "ACTIVE"
	MembershipInactive  MembershipStatus = "INACTIVE"
	MembershipSuspended MembershipStatus = "SUSPENDED"
	MembershipDeceased  MembershipStatus = "DECEASED"
)

type Member struct {
	ID                   int64            `db:"id"`
	GivenName            string           `db:"given_name"`
	FamilyName           string           `db:"family_name"`
	Email                *string          `db:"email"`
	Phone                *string          `db:"phone"`
	Status               MembershipStatus `db:"status"`
	FatherOfRepentanceID *int64           `db:"father_of_repentance_id"`
	CreatedAt            time.Time        `db:"created_at"`
	UpdatedAt            time.Time        `db:"updated_at"`
}

func (m *Member) FullName() string {
	return m.GivenName + " " + m.FamilyName
}

type Newcomer struct {
	ID         int64     `db:"id"`
	GivenName  string    `db:"given_name"`
	FamilyName string    `db:"family_name"`
	Email      *string   `db:"email"`
	Phone      *string   `db:"phone"`
	ArrivedAt  time.Time `db:"arrived_at"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// Priest is a read-only directory entry (father of repentance lookups).
type Priest struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	Parish    *string   `db:"parish"`
	CreatedAt time.Time `db:"created_at"`
}
