package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patient table.
type Patient struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Username  string    `db:"username" json:"username" validate:"required,min=3,max=64"`
	Name      string    `db:"name" json:"name" validate:"required,max=255"`
	Gender    string    `db:"gender" json:"gender" validate:"required,oneof=male female other"`
	Age       int       `db:"age" json:"age" validate:"gte=0,lte=150"`
	Role      string    `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
