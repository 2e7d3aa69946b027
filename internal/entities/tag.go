package entities

import "time"

// TagColor is the closed palette a tag can be labelled with.
type TagColor string

const (
	ColorRed    TagColor = "red"
	ColorOrange TagColor = "orange"
	ColorYellow TagColor = "yellow"
	ColorGreen  TagColor = "green"
	ColorMint   TagColor = "mint"
	ColorTeal   TagColor = "teal"
	ColorBlue   TagColor = "blue"
	ColorPurple TagColor = "purple"
	ColorPink   TagColor = "pink"
	ColorBrown  TagColor = "brown"
)

// AllTagColors lists the palette in picker order.
var AllTagColors = []TagColor{
	ColorRed, ColorOrange, ColorYellow, ColorGreen, ColorMint,
	ColorTeal, ColorBlue, ColorPurple, ColorPink, ColorBrown,
}

func (c TagColor) Valid() bool {
	for _, known := range AllTagColors {
		if c == known {
			return true
		}
	}
	return false
}

// Tag identity is its lowercased, trimmed Name; DisplayName preserves the
// case the user typed. At most one tag may exist per canonical name —
// background sync can violate that transiently, and the tags repository
// repairs it by merging.
type Tag struct {
	ID          uint     `gorm:"primaryKey" json:"id"`
	Name        string   `gorm:"index;size:100" json:"name"`
	DisplayName string   `gorm:"size:100" json:"display_name"`
	ColorName   TagColor `gorm:"size:20" json:"color_name,omitempty"`
	Books       []Book   `gorm:"many2many:book_tags;" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

func (Tag) TableName() string {
	return "tags"
}
