package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChangeType string

const (
	ChangeIn     ChangeType = "IN"
	ChangeOut    ChangeType = "OUT"
	ChangeDelete ChangeType = "DELETE"
)

// Managers recorded for rows written by the system rather than a person.
const (
	ManagerInitialRegistration = "initial-registration"
	ManagerImport              = "bulk-import"
	ManagerSystem              = "system"
)

// IsMovement reports whether t moves stock (IN or OUT).
func (t ChangeType) IsMovement() bool {
	return t == ChangeIn || t == ChangeOut
}

// History is an immutable ledger entry. ItemID becomes NULL once the item is
// deleted; ItemName/ItemSpec keep the row readable after that.
type History struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key;" json:"id"`
	ItemID     *uuid.UUID `gorm:"type:uuid;index" json:"item_id"`
	Item       *Item      `gorm:"foreignKey:ItemID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"item,omitempty"`
	ItemName   string     `gorm:"type:varchar(100)" json:"item_name"`
	ItemSpec   string     `gorm:"type:varchar(100)" json:"item_spec"`
	ChangeType ChangeType `gorm:"type:varchar(10);not null;index" json:"change_type"`
	Quantity   int        `gorm:"not null;default:0;check:chk_histories_quantity,quantity >= 0" json:"quantity"`
	Manager    string     `gorm:"type:varchar(50)" json:"manager"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

// NewHistory builds a movement row for item, snapshotting its name and spec.
func NewHistory(item *Item, changeType ChangeType, quantity int, manager string) *History {
	id := item.ID
	return &History{
		ID:         uuid.New(),
		ItemID:     &id,
		ItemName:   item.Name,
		ItemSpec:   item.Spec,
		ChangeType: changeType,
		Quantity:   quantity,
		Manager:    manager,
	}
}

func (h *History) BeforeCreate(tx *gorm.DB) (err error) {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return
}
