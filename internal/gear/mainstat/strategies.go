package mainstat

import "fmt"

// RoundsPerMinuteStrategy reports rate of fire, e.g. "540rpm"
type RoundsPerMinuteStrategy struct{}

func (s *RoundsPerMinuteStrategy) Kind() Kind       { return KindRoundsPerMinute }
func (s *RoundsPerMinuteStrategy) StatHash() uint32 { return StatRoundsPerMinute }

func (s *RoundsPerMinuteStrategy) Format(stats StatSource) (string, error) {
	v, err := read(stats, s.StatHash())
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%drpm", v), nil
}

// ChargeTimeStrategy reports charge time of fusion rifles, e.g. "460ms"
type ChargeTimeStrategy struct{}

func (s *ChargeTimeStrategy) Kind() Kind       { return KindChargeTime }
func (s *ChargeTimeStrategy) StatHash() uint32 { return StatChargeTime }

func (s *ChargeTimeStrategy) Format(stats StatSource) (string, error) {
	v, err := read(stats, s.StatHash())
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%dms", v), nil
}

// SwingSpeedStrategy reports sword swing speed, e.g. "55 swing speed"
type SwingSpeedStrategy struct{}

func (s *SwingSpeedStrategy) Kind() Kind       { return KindSwingSpeed }
func (s *SwingSpeedStrategy) StatHash() uint32 { return StatSwingSpeed }

func (s *SwingSpeedStrategy) Format(stats StatSource) (string, error) {
	v, err := read(stats, s.StatHash())
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d swing speed", v), nil
}
