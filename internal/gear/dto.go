package gear

// WeaponResponse represents a weapon definition
type WeaponResponse struct {
	WeaponID    int64  `json:"weapon_id"`
	BngWeaponID int64  `json:"bng_weapon_id"`
	WeaponName  string `json:"weapon_name"`
	WeaponType  string `json:"weapon_type"`
	AmmoType    string `json:"ammo_type"`
	Slot        string `json:"slot"`
	DamageType  string `json:"damage_type"`
	Rarity      string `json:"rarity"`
}

// ArmorResponse represents an armor definition
type ArmorResponse struct {
	ArmorID    int64  `json:"armor_id"`
	BngArmorID int64  `json:"bng_armor_id"`
	ArmorName  string `json:"armor_name"`
	Slot       string `json:"slot"`
	Rarity     string `json:"rarity"`
}

// EquippedWeaponResponse is a weapon in a character's loadout
type EquippedWeaponResponse struct {
	SlotType string          `json:"slot_type"`
	MainStat string          `json:"main_stat"`
	Weapon   *WeaponResponse `json:"weapon"`
}

// EquippedArmorResponse is an armor piece in a character's loadout
type EquippedArmorResponse struct {
	SlotType string         `json:"slot_type"`
	Armor    *ArmorResponse `json:"armor"`
}

// ToResponse converts a Weapon model to a WeaponResponse DTO
func (w *Weapon) ToResponse() *WeaponResponse {
	return &WeaponResponse{
		WeaponID:    w.ID,
		BngWeaponID: w.BungieID,
		WeaponName:  w.Name,
		WeaponType:  w.WeaponType,
		AmmoType:    w.AmmoType,
		Slot:        w.Slot,
		DamageType:  w.DamageType,
		Rarity:      w.Rarity,
	}
}

// ToResponse converts an Armor model to an ArmorResponse DTO
func (a *Armor) ToResponse() *ArmorResponse {
	return &ArmorResponse{
		ArmorID:    a.ID,
		BngArmorID: a.BungieID,
		ArmorName:  a.Name,
		Slot:       a.Slot,
		Rarity:     a.Rarity,
	}
}

func (e *EquippedWeapon) ToResponse() *EquippedWeaponResponse {
	resp := &EquippedWeaponResponse{SlotType: e.SlotType, MainStat: e.MainStat}
	if e.Weapon != nil {
		resp.Weapon = e.Weapon.ToResponse()
	}
	return resp
}

func (e *EquippedArmor) ToResponse() *EquippedArmorResponse {
	resp := &EquippedArmorResponse{SlotType: e.SlotType}
	if e.Armor != nil {
		resp.Armor = e.Armor.ToResponse()
	}
	return resp
}
