package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type Category string

const (
	CategoryElectronics Category = "Electronics"
	CategoryClothing    Category = "Clothing"
	CategoryHomeGarden  Category = "Home & Garden"
	CategoryBooks       Category = "Books"
	CategorySports      Category = "Sports & Outdoors"
	CategoryToys        Category = "Toys & Games"
	CategoryVehicles    Category = "Vehicles"
	CategoryArt         Category = "Art & Collectibles"
	CategoryOther       Category = "Other"
)

var Categories = []Category{
	CategoryElectronics,
	CategoryClothing,
	CategoryHomeGarden,
	CategoryBooks,
	CategorySports,
	CategoryToys,
	CategoryVehicles,
	CategoryArt,
	CategoryOther,
}

var ErrUnknownCategory = errors.New("unknown category")

// ParseCategory matches case-insensitively against the fixed category set.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(string(c), s) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%q: %w", s, ErrUnknownCategory)
}

func (c Category) Valid() bool {
	_, err := ParseCategory(string(c))
	return err == nil
}

// UnmarshalJSON normalises the spelling but keeps unknown values so that
// validation can report them instead of failing the whole request decode.
func (c *Category) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if parsed, err := ParseCategory(s); err == nil {
		*c = parsed
		return nil
	}
	*c = Category(s)
	return nil
}

type Condition string

const (
	ConditionNew     Condition = "New"
	ConditionLikeNew Condition = "Like New"
	ConditionGood    Condition = "Good"
	ConditionFair    Condition = "Fair"
	ConditionPoor    Condition = "Poor"
)

var Conditions = []Condition{ConditionNew, ConditionLikeNew, ConditionGood, ConditionFair, ConditionPoor}
