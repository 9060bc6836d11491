package gear

import (
	"context"
	"errors"
	"fmt"

	"github.com/d2sandbox/tracker/internal/gear/mainstat"
	"github.com/d2sandbox/tracker/internal/manifest"
)

// Common errors
var (
	ErrWeaponNotFound = errors.New("weapon not found")
	ErrArmorNotFound  = errors.New("armor not found")
)

// LoadoutSize is the number of equipped items a full loadout has:
// three weapons followed by five armor pieces.
const LoadoutSize = 8

const loadoutWeapons = 3

var (
	weaponSlotOrder = []string{"KINETIC", "ENERGY", "POWER"}
	armorSlotOrder  = []string{"HELMET", "GAUNTLETS", "CHEST", "LEGS", "CLASS_ITEM"}
)

// Service handles gear business logic
type Service struct {
	repo     *Repository
	defs     manifest.Definitions
	mainStat *mainstat.Factory
}

// NewService creates a new gear service with dependencies injected
func NewService(repo *Repository, defs manifest.Definitions, mainStat *mainstat.Factory) *Service {
	return &Service{
		repo:     repo,
		defs:     defs,
		mainStat: mainStat,
	}
}

// GetWeapon retrieves a stored weapon by definition hash
func (s *Service) GetWeapon(ctx context.Context, bungieID int64) (*Weapon, error) {
	w, err := s.repo.GetWeaponByBungieID(ctx, bungieID)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, ErrWeaponNotFound
	}
	return w, nil
}

// GetArmor retrieves a stored armor piece by definition hash
func (s *Service) GetArmor(ctx context.Context, bungieID int64) (*Armor, error) {
	a, err := s.repo.GetArmorByBungieID(ctx, bungieID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrArmorNotFound
	}
	return a, nil
}

// ResolveWeapon stores the weapon definition for hash and returns the row.
// Weapons missing from the manifest are stored under a placeholder name so
// stats referencing them are not lost.
func (s *Service) ResolveWeapon(ctx context.Context, hash uint32) (*Weapon, error) {
	item, err := s.defs.Item(ctx, hash)
	switch {
	case err == nil:
		return s.repo.UpsertWeapon(ctx, WeaponFromDefinition(item))
	case errors.Is(err, manifest.ErrDefinitionNotFound):
		if w, err := s.repo.GetWeaponByBungieID(ctx, int64(hash)); err != nil || w != nil {
			return w, err
		}
		return s.repo.UpsertWeapon(ctx, &Weapon{BungieID: int64(hash), Name: fmt.Sprintf("Unknown Weapon %d", hash)})
	default:
		return nil, err
	}
}

// Loadout is the result of EquipLoadout
type Loadout struct {
	Weapons []*EquippedWeapon
	Armor   []*EquippedArmor
}

// EquipLoadout stores the equipped items of a character. Only a full loadout
// of LoadoutSize items is recorded; anything else records nothing. Items
// without a manifest definition are skipped.
func (s *Service) EquipLoadout(ctx context.Context, characterID int64, itemHashes []uint32) (*Loadout, error) {
	loadout := &Loadout{}
	if len(itemHashes) != LoadoutSize {
		return loadout, nil
	}

	for i, hash := range itemHashes[:loadoutWeapons] {
		item, err := s.defs.Item(ctx, hash)
		if err != nil {
			if errors.Is(err, manifest.ErrDefinitionNotFound) {
				continue
			}
			return nil, err
		}

		weapon, err := s.repo.UpsertWeapon(ctx, WeaponFromDefinition(item))
		if err != nil {
			return nil, err
		}

		slot := weapon.Slot
		if slot == "" {
			slot = weaponSlotOrder[i]
		}
		stat, _ := s.mainStat.Format(weapon.WeaponType, item)

		equipped := &EquippedWeapon{
			CharacterID: characterID,
			WeaponID:    weapon.ID,
			SlotType:    slot,
			MainStat:    stat,
			Weapon:      weapon,
		}
		if err := s.repo.EquipWeapon(ctx, equipped); err != nil {
			return nil, err
		}
		loadout.Weapons = append(loadout.Weapons, equipped)
	}

	for i, hash := range itemHashes[loadoutWeapons:] {
		item, err := s.defs.Item(ctx, hash)
		if err != nil {
			if errors.Is(err, manifest.ErrDefinitionNotFound) {
				continue
			}
			return nil, err
		}

		armor, err := s.repo.UpsertArmor(ctx, ArmorFromDefinition(item))
		if err != nil {
			return nil, err
		}

		slot := armor.Slot
		if slot == "" {
			slot = armorSlotOrder[i]
		}

		equipped := &EquippedArmor{
			CharacterID: characterID,
			ArmorID:     armor.ID,
			SlotType:    slot,
			Armor:       armor,
		}
		if err := s.repo.EquipArmor(ctx, equipped); err != nil {
			return nil, err
		}
		loadout.Armor = append(loadout.Armor, equipped)
	}

	return loadout, nil
}

// GetLoadout retrieves what a character has equipped
func (s *Service) GetLoadout(ctx context.Context, characterID int64) (*Loadout, error) {
	weapons, err := s.repo.ListEquippedWeapons(ctx, characterID)
	if err != nil {
		return nil, err
	}
	armor, err := s.repo.ListEquippedArmor(ctx, characterID)
	if err != nil {
		return nil, err
	}
	return &Loadout{Weapons: weapons, Armor: armor}, nil
}
