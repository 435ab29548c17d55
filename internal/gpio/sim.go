package gpio

import (
	"sync"

	"github.com/sweeney/traffic-light/internal/logic"
)

// SimLights stands in for the lamps when running without hardware. Every
// change is logged at debug level.
type SimLights struct {
	mu     sync.Mutex
	duties [3]uint8
}

func NewSimLights() *SimLights {
	return &SimLights{}
}

func (s *SimLights) SetDuty(c logic.Color, duty uint8) {
	s.mu.Lock()
	s.duties[c] = duty
	s.mu.Unlock()
	log.Debug("Lamp", "color", c.String(), "duty", duty)
}

// Duties returns the current duty of each lamp.
func (s *SimLights) Duties() [3]uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duties
}

func (s *SimLights) Close() error {
	s.mu.Lock()
	s.duties = [3]uint8{}
	s.mu.Unlock()
	return nil
}
