package gear

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Repository handles weapon, armor and loadout persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new gear repository with database dependency injected
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// UpsertWeapon inserts a weapon definition or refreshes the existing row
func (r *Repository) UpsertWeapon(ctx context.Context, w *Weapon) (*Weapon, error) {
	query := `
		INSERT INTO weapons (bng_weapon_id, weapon_name, weapon_type, ammo_type, slot, damage_type, rarity)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (bng_weapon_id) DO UPDATE SET
			weapon_name = excluded.weapon_name,
			weapon_type = excluded.weapon_type,
			ammo_type = excluded.ammo_type,
			slot = excluded.slot,
			damage_type = excluded.damage_type,
			rarity = excluded.rarity
		RETURNING weapon_id, bng_weapon_id, weapon_name, weapon_type, ammo_type, slot, damage_type, rarity
	`

	saved := &Weapon{}
	err := r.db.QueryRowContext(ctx, query,
		w.BungieID, w.Name, w.WeaponType, w.AmmoType, w.Slot, w.DamageType, w.Rarity,
	).Scan(
		&saved.ID, &saved.BungieID, &saved.Name, &saved.WeaponType,
		&saved.AmmoType, &saved.Slot, &saved.DamageType, &saved.Rarity,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert weapon: %w", err)
	}
	return saved, nil
}

// GetWeaponByBungieID retrieves a weapon by its definition hash
func (r *Repository) GetWeaponByBungieID(ctx context.Context, bungieID int64) (*Weapon, error) {
	query := `
		SELECT weapon_id, bng_weapon_id, weapon_name, weapon_type, ammo_type, slot, damage_type, rarity
		FROM weapons
		WHERE bng_weapon_id = $1
	`

	w := &Weapon{}
	err := r.db.QueryRowContext(ctx, query, bungieID).Scan(
		&w.ID, &w.BungieID, &w.Name, &w.WeaponType,
		&w.AmmoType, &w.Slot, &w.DamageType, &w.Rarity,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get weapon: %w", err)
	}
	return w, nil
}

// UpsertArmor inserts an armor definition or refreshes the existing row
func (r *Repository) UpsertArmor(ctx context.Context, a *Armor) (*Armor, error) {
	query := `
		INSERT INTO armor (bng_armor_id, armor_name, slot, rarity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (bng_armor_id) DO UPDATE SET
			armor_name = excluded.armor_name,
			slot = excluded.slot,
			rarity = excluded.rarity
		RETURNING armor_id, bng_armor_id, armor_name, slot, rarity
	`

	saved := &Armor{}
	err := r.db.QueryRowContext(ctx, query, a.BungieID, a.Name, a.Slot, a.Rarity).Scan(
		&saved.ID, &saved.BungieID, &saved.Name, &saved.Slot, &saved.Rarity,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert armor: %w", err)
	}
	return saved, nil
}

// GetArmorByBungieID retrieves an armor piece by its definition hash
func (r *Repository) GetArmorByBungieID(ctx context.Context, bungieID int64) (*Armor, error) {
	query := `
		SELECT armor_id, bng_armor_id, armor_name, slot, rarity
		FROM armor
		WHERE bng_armor_id = $1
	`

	a := &Armor{}
	err := r.db.QueryRowContext(ctx, query, bungieID).Scan(
		&a.ID, &a.BungieID, &a.Name, &a.Slot, &a.Rarity,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get armor: %w", err)
	}
	return a, nil
}

// EquipWeapon records the weapon a character has in a slot
func (r *Repository) EquipWeapon(ctx context.Context, e *EquippedWeapon) error {
	query := `
		INSERT INTO equipped_weapons (character_id, weapon_id, slot_type, main_stat)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (character_id, slot_type) DO UPDATE SET
			weapon_id = excluded.weapon_id,
			main_stat = excluded.main_stat
	`

	if _, err := r.db.ExecContext(ctx, query, e.CharacterID, e.WeaponID, e.SlotType, e.MainStat); err != nil {
		return fmt.Errorf("failed to equip weapon: %w", err)
	}
	return nil
}

// EquipArmor records the armor a character has in a slot
func (r *Repository) EquipArmor(ctx context.Context, e *EquippedArmor) error {
	query := `
		INSERT INTO equipped_armor (character_id, armor_id, slot_type)
		VALUES ($1, $2, $3)
		ON CONFLICT (character_id, slot_type) DO UPDATE SET
			armor_id = excluded.armor_id
	`

	if _, err := r.db.ExecContext(ctx, query, e.CharacterID, e.ArmorID, e.SlotType); err != nil {
		return fmt.Errorf("failed to equip armor: %w", err)
	}
	return nil
}

// ListEquippedWeapons retrieves a character's weapons with their definitions
func (r *Repository) ListEquippedWeapons(ctx context.Context, characterID int64) ([]*EquippedWeapon, error) {
	query := `
		SELECT e.character_id, e.weapon_id, e.slot_type, e.main_stat,
		       w.weapon_id, w.bng_weapon_id, w.weapon_name, w.weapon_type, w.ammo_type, w.slot, w.damage_type, w.rarity
		FROM equipped_weapons e
		JOIN weapons w ON w.weapon_id = e.weapon_id
		WHERE e.character_id = $1
		ORDER BY e.slot_type
	`

	rows, err := r.db.QueryContext(ctx, query, characterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list equipped weapons: %w", err)
	}
	defer rows.Close()

	var equipped []*EquippedWeapon
	for rows.Next() {
		e := &EquippedWeapon{Weapon: &Weapon{}}
		if err := rows.Scan(
			&e.CharacterID, &e.WeaponID, &e.SlotType, &e.MainStat,
			&e.Weapon.ID, &e.Weapon.BungieID, &e.Weapon.Name, &e.Weapon.WeaponType,
			&e.Weapon.AmmoType, &e.Weapon.Slot, &e.Weapon.DamageType, &e.Weapon.Rarity,
		); err != nil {
			return nil, fmt.Errorf("failed to scan equipped weapon: %w", err)
		}
		equipped = append(equipped, e)
	}
	return equipped, rows.Err()
}

// ListEquippedArmor retrieves a character's armor with their definitions
func (r *Repository) ListEquippedArmor(ctx context.Context, characterID int64) ([]*EquippedArmor, error) {
	query := `
		SELECT e.character_id, e.armor_id, e.slot_type,
		       a.armor_id, a.bng_armor_id, a.armor_name, a.slot, a.rarity
		FROM equipped_armor e
		JOIN armor a ON a.armor_id = e.armor_id
		WHERE e.character_id = $1
		ORDER BY e.slot_type
	`

	rows, err := r.db.QueryContext(ctx, query, characterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list equipped armor: %w", err)
	}
	defer rows.Close()

	var equipped []*EquippedArmor
	for rows.Next() {
		e := &EquippedArmor{Armor: &Armor{}}
		if err := rows.Scan(
			&e.CharacterID, &e.ArmorID, &e.SlotType,
			&e.Armor.ID, &e.Armor.BungieID, &e.Armor.Name, &e.Armor.Slot, &e.Armor.Rarity,
		); err != nil {
			return nil, fmt.Errorf("failed to scan equipped armor: %w", err)
		}
		equipped = append(equipped, e)
	}
	return equipped, rows.Err()
}
