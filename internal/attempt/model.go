// internal/attempt/model.go
package attempt

import (
	"time"

	"gorm.io/datatypes"
)

// Attempt is one analyzed mock upload. Report holds the structured analyzer
// output and Recommendation the full bundle, both as JSON blobs: the pipeline
// owns their shapes and storage just round-trips them.
type Attempt struct {
	ID             uint           `gorm:"primarykey" json:"id"`
	UserID         string         `gorm:"index;size:64;not null" json:"userId"`
	Exam           string         `gorm:"size:32" json:"exam"`
	Source         string         `gorm:"size:16" json:"source"` // text | pdf | html
	RawText        string         `gorm:"type:text" json:"-"`
	Report         datatypes.JSON `json:"report"`
	Recommendation datatypes.JSON `json:"recommendation"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}
