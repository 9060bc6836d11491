package ingest

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/d2sandbox/tracker/internal/bungie"
	"github.com/d2sandbox/tracker/internal/character"
	"github.com/d2sandbox/tracker/internal/destiny"
	"github.com/d2sandbox/tracker/internal/gear"
	"github.com/d2sandbox/tracker/internal/player"
)

// RegisterPlayer resolves a Bungie Name and stores the player, its
// characters and their loadouts. It satisfies player.Registrar.
func (l *Loader) RegisterPlayer(ctx context.Context, name bungie.BungieName, platform destiny.Platform) (*player.Player, error) {
	p, _, err := l.registerPlayer(ctx, name, platform)
	return p, err
}

func (l *Loader) registerPlayer(ctx context.Context, name bungie.BungieName, platform destiny.Platform) (*player.Player, *Summary, error) {
	r := l.newRun(logrus.Fields{"bng_username": name.String()})

	cards, err := l.api.SearchByBungieName(ctx, name, int(destiny.PlatformAll))
	if err != nil {
		return nil, nil, fmt.Errorf("search %s: %w", name, err)
	}
	card, ok := pickMembership(cards, platform)
	if !ok {
		return nil, nil, fmt.Errorf("search %s: %w", name, bungie.ErrNotFound)
	}

	p, err := l.storeMember(ctx, r, card)
	if err != nil {
		return nil, nil, err
	}
	s := r.result()
	r.logger.WithFields(logrus.Fields{
		"player_id":  p.ID,
		"characters": s.Characters,
	}).Info("player registered")
	return p, s, nil
}

// RegisterMember stores a player known by Destiny membership id
func (l *Loader) RegisterMember(ctx context.Context, membershipID int64, platform destiny.Platform) (*player.Player, *Summary, error) {
	r := l.newRun(logrus.Fields{"destiny_id": membershipID})
	p, err := l.storeMember(ctx, r, bungie.UserInfoCard{MembershipID: membershipID, MembershipType: int(platform)})
	if err != nil {
		return nil, nil, err
	}
	return p, r.result(), nil
}

// pickMembership prefers the membership on the requested platform, then the
// cross save primary, then the first result
func pickMembership(cards []bungie.UserInfoCard, platform destiny.Platform) (bungie.UserInfoCard, bool) {
	if len(cards) == 0 {
		return bungie.UserInfoCard{}, false
	}
	for _, c := range cards {
		if c.MembershipType == int(platform) {
			return c, true
		}
	}
	for _, c := range cards {
		if c.CrossSaveOverride != 0 && c.CrossSaveOverride == c.MembershipType {
			return c, true
		}
	}
	return cards[0], true
}

// storeMember loads memberships, profile and characters of a membership
func (l *Loader) storeMember(ctx context.Context, r *run, card bungie.UserInfoCard) (*player.Player, error) {
	memberships, err := l.api.GetMembershipsByID(ctx, card.MembershipID, card.MembershipType)
	if err != nil {
		return nil, fmt.Errorf("get memberships %d: %w", card.MembershipID, err)
	}
	for _, m := range memberships.DestinyMemberships {
		if m.MembershipID == card.MembershipID {
			card = m
			break
		}
	}

	profile, err := l.api.GetProfile(ctx, card.MembershipType, card.MembershipID)
	if err != nil {
		return nil, fmt.Errorf("get profile %d: %w", card.MembershipID, err)
	}
	data := profile.Profile.Data

	name := bungie.BungieName{DisplayName: card.BungieGlobalDisplayName, Code: card.BungieGlobalDisplayNameCode}
	if name.DisplayName == "" {
		name.DisplayName = data.UserInfo.BungieGlobalDisplayName
		name.Code = data.UserInfo.BungieGlobalDisplayNameCode
	}
	if name.DisplayName == "" {
		name.DisplayName = card.DisplayName
	}

	p, err := l.players.Upsert(ctx, &player.Player{
		DestinyID:      card.MembershipID,
		BungieID:       memberships.BungieNetUser.MembershipID,
		BungieUsername: name.String(),
		DateCreated:    day(memberships.BungieNetUser.FirstAccess),
		DateLastPlayed: day(data.DateLastPlayed),
		Platform:       destiny.Platform(card.MembershipType).String(),
		CharacterIDs:   destiny.EncodeCharacterIDs(data.CharacterIDs),
	})
	if err != nil {
		return nil, err
	}
	r.count(func(s *Summary) { s.Players++ })

	for _, raw := range data.CharacterIDs {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			r.logger.WithField("character_id", raw).Warn("skipping malformed character id")
			continue
		}
		if _, err := l.storeCharacter(ctx, r, p, card.MembershipType, id); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (l *Loader) storeCharacter(ctx context.Context, r *run, p *player.Player, membershipType int, characterID int64) (*character.Character, error) {
	resp, err := l.api.GetCharacter(ctx, membershipType, p.DestinyID, characterID)
	if err != nil {
		return nil, fmt.Errorf("get character %d: %w", characterID, err)
	}
	data := resp.Character.Data

	c, err := l.characters.Upsert(ctx, &character.Character{
		BungieCharacterID: characterID,
		PlayerID:          p.ID,
		Class:             destiny.Class(data.ClassType).String(),
		DateLastPlayed:    day(data.DateLastPlayed),
	})
	if err != nil {
		return nil, err
	}
	r.count(func(s *Summary) { s.Characters++ })

	items := resp.Equipment.Data.Items
	if len(items) > gear.LoadoutSize {
		items = items[:gear.LoadoutSize]
	}
	hashes := make([]uint32, len(items))
	for i, it := range items {
		hashes[i] = it.ItemHash
	}
	loadout, err := l.gear.EquipLoadout(ctx, c.ID, hashes)
	if err != nil {
		return nil, err
	}
	r.logger.WithFields(logrus.Fields{
		"character_id": characterID,
		"weapons":      len(loadout.Weapons),
		"armor":        len(loadout.Armor),
	}).Debug("character stored")
	return c, nil
}

// day trims an ISO timestamp to YYYY-MM-DD
func day(ts string) string {
	if len(ts) >= 10 {
		return ts[:10]
	}
	return ts
}
