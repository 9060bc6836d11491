package manifest

import (
	"context"
	"fmt"
)

// Static serves definitions from memory. The API falls back to an empty
// Static when no manifest has been synced yet, so lookups degrade to
// ErrDefinitionNotFound instead of failing startup.
type Static struct {
	Items             map[uint32]*InventoryItem
	Activities        map[uint32]*ActivityDefinition
	ActivityTypes     map[uint32]*ActivityTypeDefinition
	ActivityModifiers map[uint32]*ActivityModifierDefinition
}

func find[T any](m map[uint32]*T, table string, hash uint32) (*T, error) {
	if def, ok := m[hash]; ok {
		return def, nil
	}
	return nil, fmt.Errorf("%s %d: %w", table, hash, ErrDefinitionNotFound)
}

func (s *Static) Item(_ context.Context, hash uint32) (*InventoryItem, error) {
	return find(s.Items, TableInventoryItem, hash)
}

func (s *Static) Activity(_ context.Context, hash uint32) (*ActivityDefinition, error) {
	return find(s.Activities, TableActivity, hash)
}

func (s *Static) ActivityType(_ context.Context, hash uint32) (*ActivityTypeDefinition, error) {
	return find(s.ActivityTypes, TableActivityType, hash)
}

func (s *Static) ActivityModifier(_ context.Context, hash uint32) (*ActivityModifierDefinition, error) {
	return find(s.ActivityModifiers, TableActivityModifier, hash)
}
