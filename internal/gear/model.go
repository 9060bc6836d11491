package gear

import (
	"github.com/d2sandbox/tracker/internal/destiny"
	"github.com/d2sandbox/tracker/internal/manifest"
)

// Weapon is a weapon definition stored from the manifest
type Weapon struct {
	ID         int64
	BungieID   int64
	Name       string
	WeaponType string
	AmmoType   string
	Slot       string
	DamageType string
	Rarity     string
}

// Armor is an armor definition stored from the manifest
type Armor struct {
	ID       int64
	BungieID int64
	Name     string
	Slot     string
	Rarity   string
}

// EquippedWeapon is a weapon a character has equipped in a slot
type EquippedWeapon struct {
	CharacterID int64
	WeaponID    int64
	SlotType    string
	MainStat    string
	Weapon      *Weapon
}

// EquippedArmor is an armor piece a character has equipped in a slot
type EquippedArmor struct {
	CharacterID int64
	ArmorID     int64
	SlotType    string
	Armor       *Armor
}

// WeaponFromDefinition maps a manifest item to a Weapon row
func WeaponFromDefinition(item *manifest.InventoryItem) *Weapon {
	w := &Weapon{
		BungieID: int64(item.Hash),
		Name:     item.DisplayProperties.Name,
		AmmoType: destiny.AmmoType(item.EquippingBlock.AmmoType).String(),
	}
	w.WeaponType, _ = destiny.WeaponType(item.ItemTypeDisplayName)
	w.Slot, _ = destiny.WeaponSlot(item.EquippingBlock.EquipmentSlotTypeHash)
	w.Rarity, _ = destiny.Rarity(item.ItemTypeAndTierDisplayName)

	damage := item.DefaultDamageType
	if len(item.DamageTypes) > 0 {
		damage = item.DamageTypes[0]
	}
	w.DamageType = destiny.DamageType(damage).String()
	return w
}

// ArmorFromDefinition maps a manifest item to an Armor row
func ArmorFromDefinition(item *manifest.InventoryItem) *Armor {
	a := &Armor{
		BungieID: int64(item.Hash),
		Name:     item.DisplayProperties.Name,
	}
	a.Slot, _ = destiny.ArmorSlot(item.EquippingBlock.EquipmentSlotTypeHash)
	a.Rarity, _ = destiny.Rarity(item.ItemTypeAndTierDisplayName)
	return a
}
