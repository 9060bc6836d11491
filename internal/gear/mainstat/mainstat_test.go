package mainstat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stats map[uint32]int

func (s stats) Stat(hash uint32) (int, bool) {
	v, ok := s[hash]
	return v, ok
}

func TestFactoryForWeaponType(t *testing.T) {
	f := NewFactory()
	assert.Equal(t, KindChargeTime, f.ForWeaponType("FUSION_RIFLE").Kind())
	assert.Equal(t, KindChargeTime, f.ForWeaponType("LINEAR_FUSION_RIFLE").Kind())
	assert.Equal(t, KindSwingSpeed, f.ForWeaponType("SWORD").Kind())
	assert.Equal(t, KindRoundsPerMinute, f.ForWeaponType("HAND_CANNON").Kind())
	assert.Equal(t, KindRoundsPerMinute, f.ForWeaponType("").Kind())

	_, err := f.Create("BOGUS")
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	f := NewFactory()
	s := stats{StatRoundsPerMinute: 140, StatChargeTime: 460, StatSwingSpeed: 55}

	cases := map[string]string{
		"HAND_CANNON":         "140rpm",
		"FUSION_RIFLE":        "460ms",
		"LINEAR_FUSION_RIFLE": "460ms",
		"SWORD":               "55 swing speed",
	}
	for weaponType, want := range cases {
		got, err := f.Format(weaponType, s)
		require.NoError(t, err, weaponType)
		assert.Equal(t, want, got, weaponType)
	}
}

func TestFormatMissingStat(t *testing.T) {
	f := NewFactory()
	_, err := f.Format("SWORD", stats{StatRoundsPerMinute: 140})
	assert.ErrorIs(t, err, ErrStatMissing)

	_, err = f.Format("AUTO_RIFLE", nil)
	assert.ErrorIs(t, err, ErrStatMissing)
}
