// Package manifest downloads the Destiny 2 content manifest and resolves
// item, activity and class definitions from it.
package manifest

import (
	"context"
	"errors"
	"strconv"
)

// ErrDefinitionNotFound is returned when a hash has no row in its table
var ErrDefinitionNotFound = errors.New("definition not found")

// Manifest table names
const (
	TableInventoryItem    = "DestinyInventoryItemDefinition"
	TableActivity         = "DestinyActivityDefinition"
	TableActivityType     = "DestinyActivityTypeDefinition"
	TableActivityModifier = "DestinyActivityModifierDefinition"
)

// Item types of InventoryItem.ItemType
const (
	ItemTypeArmor  = 2
	ItemTypeWeapon = 3
)

// SignedID converts an unsigned definition hash to the signed id the
// manifest database uses as its primary key.
func SignedID(hash uint32) int64 {
	return int64(int32(hash))
}

// DisplayProperties is the common name/description block
type DisplayProperties struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// InventoryItem is a weapon, armor piece or any other item
type InventoryItem struct {
	Hash                       uint32            `json:"hash"`
	DisplayProperties          DisplayProperties `json:"displayProperties"`
	ItemType                   int               `json:"itemType"`
	ItemTypeDisplayName        string            `json:"itemTypeDisplayName"`
	ItemTypeAndTierDisplayName string            `json:"itemTypeAndTierDisplayName"`
	EquippingBlock             struct {
		AmmoType              int    `json:"ammoType"`
		EquipmentSlotTypeHash uint32 `json:"equipmentSlotTypeHash"`
	} `json:"equippingBlock"`
	DamageTypes       []int `json:"damageTypes"`
	DefaultDamageType int   `json:"defaultDamageType"`
	Stats             struct {
		Stats map[string]struct {
			StatHash uint32 `json:"statHash"`
			Value    int    `json:"value"`
		} `json:"stats"`
	} `json:"stats"`
}

// Stat returns an investment stat value by hash
func (i *InventoryItem) Stat(hash uint32) (int, bool) {
	s, ok := i.Stats.Stats[strconv.FormatUint(uint64(hash), 10)]
	if !ok {
		return 0, false
	}
	return s.Value, true
}

// ActivityDefinition describes an activity
type ActivityDefinition struct {
	Hash              uint32            `json:"hash"`
	DisplayProperties DisplayProperties `json:"displayProperties"`
	ActivityTypeHash  uint32            `json:"activityTypeHash"`
	Matchmaking       struct {
		MaxPlayers int `json:"maxPlayers"`
	} `json:"matchmaking"`
	Modifiers []struct {
		ActivityModifierHash uint32 `json:"activityModifierHash"`
	} `json:"modifiers"`
}

// ActivityTypeDefinition is the type of an activity, e.g. "Raid"
type ActivityTypeDefinition struct {
	Hash              uint32            `json:"hash"`
	DisplayProperties DisplayProperties `json:"displayProperties"`
}

// ActivityModifierDefinition is a modifier applied to an activity
type ActivityModifierDefinition struct {
	Hash              uint32            `json:"hash"`
	DisplayProperties DisplayProperties `json:"displayProperties"`
}

// Definitions resolves definitions by hash
type Definitions interface {
	Item(ctx context.Context, hash uint32) (*InventoryItem, error)
	Activity(ctx context.Context, hash uint32) (*ActivityDefinition, error)
	ActivityType(ctx context.Context, hash uint32) (*ActivityTypeDefinition, error)
	ActivityModifier(ctx context.Context, hash uint32) (*ActivityModifierDefinition, error)
}
