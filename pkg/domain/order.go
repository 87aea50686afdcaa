package domain

import (
	"fmt"
	"strings"
)

// Chaser is the drink served next to the beer.
type Chaser string

const (
	ChaserWhiskey Chaser = "Whiskey"
	ChaserVodka   Chaser = "Vodka"
	ChaserLiquor  Chaser = "Liquor"
	ChaserWater   Chaser = "Water"
)

// Chasers lists the accepted chasers in prompt order.
func Chasers() []Chaser {
	return []Chaser{ChaserWhiskey, ChaserVodka, ChaserLiquor, ChaserWater}
}

// ParseChaser matches s case-insensitively against the known chasers.
func ParseChaser(s string) (Chaser, bool) {
	s = strings.TrimSpace(s)
	for _, c := range Chasers() {
		if strings.EqualFold(s, string(c)) {
			return c, true
		}
	}
	return "", false
}

// SideDish is the food served with the order.
type SideDish string

const (
	SideFries    SideDish = "Fries"
	SidePretzels SideDish = "Pretzels"
	SideNachos   SideDish = "Nachos"
)

// SideDishes lists the accepted side dishes in prompt order.
func SideDishes() []SideDish {
	return []SideDish{SideFries, SidePretzels, SideNachos}
}

// ParseSideDish matches s case-insensitively against the known side dishes.
func ParseSideDish(s string) (SideDish, bool) {
	s = strings.TrimSpace(s)
	for _, d := range SideDishes() {
		if strings.EqualFold(s, string(d)) {
			return d, true
		}
	}
	return "", false
}

// BeerOrder is a complete order. All three fields are required.
type BeerOrder struct {
	BeerName string   `json:"beer_name"`
	Chaser   Chaser   `json:"chaser"`
	SideDish SideDish `json:"side_dish"`
}

func (o BeerOrder) String() string {
	return fmt.Sprintf("%s and %s with %s", o.BeerName, o.Chaser, o.SideDish)
}

// OrderDraft is the dialog-local state of an order frame while slots are being filled.
type OrderDraft struct {
	BeerName string `json:"beer_name,omitempty"`

	// BeerVerified is set when BeerName is already the catalog's canonical name
	// (remembered or recommended) and must not be validated again.
	BeerVerified bool     `json:"beer_verified,omitempty"`
	Chaser       Chaser   `json:"chaser,omitempty"`
	SideDish     SideDish `json:"side_dish,omitempty"`
}

// Complete reports whether every slot holds a valid value.
func (d *OrderDraft) Complete() bool {
	return d.BeerName != "" && d.BeerVerified && d.Chaser != "" && d.SideDish != ""
}

// Order converts a complete draft into a BeerOrder.
func (d *OrderDraft) Order() BeerOrder {
	return BeerOrder{BeerName: d.BeerName, Chaser: d.Chaser, SideDish: d.SideDish}
}
