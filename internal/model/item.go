package model

// Item is a tracked material with its quantity on hand.
// (name, spec) is unique among live items.
type Item struct {
	BaseModel
	Name     string `gorm:"type:varchar(100);not null;uniqueIndex:idx_items_name_spec" json:"name"`
	Spec     string `gorm:"type:varchar(100);not null;uniqueIndex:idx_items_name_spec" json:"spec"`
	Quantity int    `gorm:"not null;default:0;check:chk_items_quantity,quantity >= 0" json:"quantity"`
	Location string `gorm:"type:varchar(100)" json:"location"`
}
