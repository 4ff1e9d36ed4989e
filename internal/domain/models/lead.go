package models

import (
	"fmt"
	"github.com/go-playground/validator/v10"
	"time"
)

// Lead is one completed registration or materials request.
type Lead struct {
	ID        int
	SessionID string  `gorm:"uniqueIndex" validate:"required"`
	UserID    int64   `validate:"required"`
	Nickname  string  `validate:"required"`
	Phone     string
	Role      Role    `validate:"required"`
	Action    Action
	Subject   Subject `validate:"required"`
	Class     string
	CreatedAt time.Time
}

var leadValidator = validator.New()

// Validate checks that the lead carries exactly the fields its role and action require.
func (l Lead) Validate() error {
	if err := leadValidator.Struct(l); err != nil {
		return err
	}

	req := RequirementsFor(l.Role, l.Action)
	if req.Class != (l.Class != "") {
		return fmt.Errorf("class presence doesn't match role %s", l.Role)
	}
	if req.Phone != (l.Phone != "") {
		return fmt.Errorf("phone presence doesn't match role %s", l.Role)
	}
	return nil
}
